package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
)

// Telegram announces milestones to a single chat. The bot only sends;
// it never starts long polling.
type Telegram struct {
	bot    *bot.Bot
	chatID int64
	log    *slog.Logger
}

// NewTelegram validates the token against the Telegram API and returns a
// send-only notifier.
func NewTelegram(token string, chatID int64, logger *slog.Logger) (*Telegram, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram: token is empty")
	}
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: create bot: %w", err)
	}
	return &Telegram{bot: b, chatID: chatID, log: logger}, nil
}

func (t *Telegram) Notify(ctx context.Context, message string) error {
	_, err := t.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: t.chatID,
		Text:   message,
	})
	if err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	t.log.Debug("telegram notification sent", "chat_id", t.chatID)
	return nil
}
