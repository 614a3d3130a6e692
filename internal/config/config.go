// Package config loads application settings from a YAML file with
// environment-variable overrides. Credentials are only ever accepted
// from the environment or the file, never from flags, so they stay out
// of shell history.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv    = "CURTIA_CONFIG"
	credentialEnv    = "CURTIA_GEMINI_API_KEY"
	providerEnv      = "CURTIA_PROVIDER"
	modelEnv         = "CURTIA_MODEL"
	baseURLEnv       = "CURTIA_BASE_URL"
	telegramTokenEnv = "TELEGRAM_BOT_TOKEN"
	telegramChatEnv  = "TELEGRAM_CHAT_ID"
	discordTokenEnv  = "DISCORD_BOT_TOKEN"
	discordChanEnv   = "DISCORD_CHANNEL_ID"

	maxCredentialSlots = 16
)

// Config holds every runtime setting.
type Config struct {
	Provider      ProviderConfig     `yaml:"provider"`
	Credentials   []string           `yaml:"credentials"`
	Quality       QualityConfig      `yaml:"quality"`
	Limits        LimitsConfig       `yaml:"limits"`
	Notifications NotificationConfig `yaml:"notifications"`
	Feed          FeedConfig         `yaml:"feed"`
	Output        OutputConfig       `yaml:"output"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// ProviderConfig selects the generation backend.
type ProviderConfig struct {
	Name    string `yaml:"name"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"baseUrl"`
}

// QualityConfig governs the tribunal.
type QualityConfig struct {
	DefaultThreshold   float64 `yaml:"defaultThreshold"`
	EmergencyThreshold float64 `yaml:"emergencyThreshold"`
	MaxIterations      int     `yaml:"maxIterations"`
}

// LimitsConfig governs request pacing and credential cooldown.
type LimitsConfig struct {
	MaxRequestsPerWindow int      `yaml:"maxRequestsPerWindow"`
	Window               Duration `yaml:"window"`
	Cooldown             Duration `yaml:"cooldown"`
}

// Duration lets YAML carry durations in the "90s" / "24h" notation.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the plain time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// NotificationConfig wires outbound announcement channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Discord  DiscordConfig  `yaml:"discord"`
}

// TelegramConfig identifies the bot and target chat.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   int64  `yaml:"chatId"`
}

// DiscordConfig identifies the bot and target channel.
type DiscordConfig struct {
	BotToken  string `yaml:"botToken"`
	ChannelID string `yaml:"channelId"`
}

// FeedConfig controls the WebSocket progress feed.
type FeedConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listenAddr"`
}

// OutputConfig controls where artifacts land.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// LoggingConfig selects the log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment
// overrides on top.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(providerEnv); v != "" {
		c.Provider.Name = v
	}
	if v := os.Getenv(modelEnv); v != "" {
		c.Provider.Model = v
	}
	if v := os.Getenv(baseURLEnv); v != "" {
		c.Provider.BaseURL = v
	}

	if creds := credentialsFromEnv(); len(creds) > 0 {
		c.Credentials = creds
	}

	if v := os.Getenv("CURTIA_MAX_ITERATIONS"); v != "" {
		c.Quality.MaxIterations = cast.ToInt(v)
	}
	if v := os.Getenv("CURTIA_DEFAULT_THRESHOLD"); v != "" {
		c.Quality.DefaultThreshold = cast.ToFloat64(v)
	}
	if v := os.Getenv("CURTIA_EMERGENCY_THRESHOLD"); v != "" {
		c.Quality.EmergencyThreshold = cast.ToFloat64(v)
	}

	if v := os.Getenv("CURTIA_RATE_LIMIT"); v != "" {
		c.Limits.MaxRequestsPerWindow = cast.ToInt(v)
	}
	if v := os.Getenv("CURTIA_RATE_WINDOW"); v != "" {
		c.Limits.Window = Duration(cast.ToDuration(v))
	}
	if v := os.Getenv("CURTIA_KEY_COOLDOWN"); v != "" {
		c.Limits.Cooldown = Duration(cast.ToDuration(v))
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatEnv); v != "" {
		c.Notifications.Telegram.ChatID = cast.ToInt64(v)
	}
	if v := os.Getenv(discordTokenEnv); v != "" {
		c.Notifications.Discord.BotToken = v
	}
	if v := os.Getenv(discordChanEnv); v != "" {
		c.Notifications.Discord.ChannelID = v
	}

	if v := os.Getenv("CURTIA_OUTPUT_DIR"); v != "" {
		c.Output.Dir = v
	}
	if v := os.Getenv("CURTIA_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// credentialsFromEnv collects CURTIA_GEMINI_API_KEY, then _2, _3 and so
// on. The scan stops at the first empty slot so ordering stays stable.
func credentialsFromEnv() []string {
	var creds []string
	for i := 1; i <= maxCredentialSlots; i++ {
		name := credentialEnv
		if i > 1 {
			name = fmt.Sprintf("%s_%d", credentialEnv, i)
		}
		v := os.Getenv(name)
		if v == "" {
			break
		}
		creds = append(creds, v)
	}
	return creds
}

func (c *Config) validate() error {
	if len(c.Credentials) == 0 {
		return fmt.Errorf("config: no credentials configured (set %s)", credentialEnv)
	}
	if c.Quality.DefaultThreshold < 0 || c.Quality.DefaultThreshold > 10 {
		return fmt.Errorf("config: defaultThreshold %v outside [0,10]", c.Quality.DefaultThreshold)
	}
	if c.Quality.EmergencyThreshold < 0 || c.Quality.EmergencyThreshold > 10 {
		return fmt.Errorf("config: emergencyThreshold %v outside [0,10]", c.Quality.EmergencyThreshold)
	}
	if c.Quality.MaxIterations < 1 {
		return fmt.Errorf("config: maxIterations must be positive, got %d", c.Quality.MaxIterations)
	}
	if c.Limits.MaxRequestsPerWindow < 1 {
		return fmt.Errorf("config: maxRequestsPerWindow must be positive, got %d", c.Limits.MaxRequestsPerWindow)
	}
	if c.Limits.Window <= 0 {
		return fmt.Errorf("config: window must be positive, got %v", c.Limits.Window)
	}
	return nil
}

// LogLevel maps the configured level name onto slog.
func (c *Config) LogLevel() slog.Level {
	switch c.Logging.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func defaultConfig() Config {
	return Config{
		Provider: ProviderConfig{
			Name: "gemini",
		},
		Quality: QualityConfig{
			DefaultThreshold:   9.0,
			EmergencyThreshold: 8.0,
			MaxIterations:      5,
		},
		Limits: LimitsConfig{
			MaxRequestsPerWindow: 5,
			Window:               Duration(time.Minute),
			Cooldown:             Duration(24 * time.Hour),
		},
		Feed: FeedConfig{
			Enabled:    false,
			ListenAddr: ":8090",
		},
		Output: OutputConfig{
			Dir: "output",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
