package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

// Discord announces milestones to a single channel over the REST API.
// No gateway connection is opened.
type Discord struct {
	session   *discordgo.Session
	channelID string
	log       *slog.Logger
}

// NewDiscord returns a send-only notifier for the given channel.
func NewDiscord(token, channelID string, logger *slog.Logger) (*Discord, error) {
	if token == "" {
		return nil, fmt.Errorf("discord: token is empty")
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}
	return &Discord{session: session, channelID: channelID, log: logger}, nil
}

func (d *Discord) Notify(ctx context.Context, message string) error {
	_, err := d.session.ChannelMessageSend(d.channelID, message, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord: send: %w", err)
	}
	d.log.Debug("discord notification sent", "channel_id", d.channelID)
	return nil
}
