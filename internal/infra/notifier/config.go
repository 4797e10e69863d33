// Package notifier implements pipeline.Notifier for the supported push
// channels: ServerChan, Slack and Discord webhooks, a Telegram bot, and a
// NoOp. Each channel rate-limits and retries 429/5xx responses itself.
package notifier

import (
	"fmt"
	"strings"
	"time"

	"feed-digest/internal/pkg/config"
	"feed-digest/internal/usecase/pipeline"
)

// Channel names accepted in Config.Channels.
const (
	ChannelServerChan = "serverchan"
	ChannelSlack      = "slack"
	ChannelDiscord    = "discord"
	ChannelTelegram   = "telegram"
	ChannelNoOp       = "noop"
)

const truncationSuffix = "..."

// Config selects and configures push channels.
type Config struct {
	// Channels lists the enabled channels. More than one yields a Multi.
	Channels []string      `yaml:"channels"`
	Timeout  time.Duration `yaml:"timeout"`

	ServerChanKey     string `yaml:"-"`
	ServerChanBaseURL string `yaml:"serverchan_base_url"`

	SlackWebhookURL   string `yaml:"-"`
	DiscordWebhookURL string `yaml:"-"`

	TelegramToken    string `yaml:"-"`
	TelegramChatID   int64  `yaml:"telegram_chat_id"`
	TelegramEndpoint string `yaml:"telegram_endpoint"`
}

// DefaultConfig pushes through ServerChan.
func DefaultConfig() Config {
	return Config{
		Channels:          []string{ChannelServerChan},
		Timeout:           10 * time.Second,
		ServerChanBaseURL: DefaultServerChanBaseURL,
	}
}

// LoadConfig overlays NOTIFIER_* and channel credential variables on base.
func LoadConfig(l *config.Loader, base Config) Config {
	cfg := base
	if raw := config.LoadEnvString("NOTIFIER_CHANNELS", ""); raw != "" {
		cfg.Channels = splitList(raw)
	}
	cfg.Timeout = l.Duration("NOTIFIER_TIMEOUT", base.Timeout, func(d time.Duration) error {
		return config.ValidateDuration(d, time.Second, 2*time.Minute)
	})
	cfg.ServerChanKey = config.LoadEnvString("SERVER_CHAN_KEY", base.ServerChanKey)
	cfg.ServerChanBaseURL = l.String("SERVER_CHAN_BASE_URL", base.ServerChanBaseURL, config.ValidateHTTPURL)
	cfg.SlackWebhookURL = config.LoadEnvString("SLACK_WEBHOOK_URL", base.SlackWebhookURL)
	cfg.DiscordWebhookURL = config.LoadEnvString("DISCORD_WEBHOOK_URL", base.DiscordWebhookURL)
	cfg.TelegramToken = config.LoadEnvString("TELEGRAM_BOT_TOKEN", base.TelegramToken)
	cfg.TelegramEndpoint = config.LoadEnvString("TELEGRAM_API_ENDPOINT", base.TelegramEndpoint)
	cfg.TelegramChatID = int64(l.Int("TELEGRAM_CHAT_ID", int(base.TelegramChatID), nil))
	return cfg
}

// Validate checks that every enabled channel has its credentials.
func (c Config) Validate() error {
	if len(c.Channels) == 0 {
		return fmt.Errorf("no notifier channel configured")
	}
	for _, ch := range c.Channels {
		switch ch {
		case ChannelServerChan:
			if c.ServerChanKey == "" {
				return fmt.Errorf("SERVER_CHAN_KEY is required for channel %q", ch)
			}
		case ChannelSlack:
			if err := config.ValidateHTTPURL(c.SlackWebhookURL); err != nil {
				return fmt.Errorf("slack webhook url: %w", err)
			}
		case ChannelDiscord:
			if err := config.ValidateHTTPURL(c.DiscordWebhookURL); err != nil {
				return fmt.Errorf("discord webhook url: %w", err)
			}
		case ChannelTelegram:
			if c.TelegramToken == "" || c.TelegramChatID == 0 {
				return fmt.Errorf("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID are required for channel %q", ch)
			}
		case ChannelNoOp:
		default:
			return fmt.Errorf("unknown notifier channel %q", ch)
		}
	}
	return nil
}

// New builds the configured notifier.
func New(cfg Config) (pipeline.Notifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("notifier config: %w", err)
	}
	ns := make([]pipeline.Notifier, 0, len(cfg.Channels))
	for _, ch := range cfg.Channels {
		switch ch {
		case ChannelServerChan:
			ns = append(ns, NewServerChanNotifier(ServerChanConfig{
				SendKey: cfg.ServerChanKey, BaseURL: cfg.ServerChanBaseURL, Timeout: cfg.Timeout,
			}))
		case ChannelSlack:
			ns = append(ns, NewSlackNotifier(SlackConfig{WebhookURL: cfg.SlackWebhookURL, Timeout: cfg.Timeout}))
		case ChannelDiscord:
			ns = append(ns, NewDiscordNotifier(DiscordConfig{WebhookURL: cfg.DiscordWebhookURL, Timeout: cfg.Timeout}))
		case ChannelTelegram:
			ns = append(ns, NewTelegramNotifier(TelegramConfig{
				Token: cfg.TelegramToken, ChatID: cfg.TelegramChatID,
				APIEndpoint: cfg.TelegramEndpoint, Timeout: cfg.Timeout,
			}))
		case ChannelNoOp:
			ns = append(ns, NewNoOpNotifier())
		}
	}
	if len(ns) == 1 {
		return ns[0], nil
	}
	return NewMulti(ns...), nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
