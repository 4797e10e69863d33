package notifier

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"feed-digest/internal/utils/text"
)

// DiscordConfig configures the Discord webhook.
type DiscordConfig struct {
	WebhookURL string
	Timeout    time.Duration
}

// DiscordNotifier posts the digest as a single embed.
type DiscordNotifier struct {
	config      DiscordConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
	retry       retryPolicy
}

// NewDiscordNotifier creates a DiscordNotifier at 2 requests per second with
// a burst of 3, under Discord's per-webhook limit.
func NewDiscordNotifier(config DiscordConfig) *DiscordNotifier {
	return &DiscordNotifier{
		config:      config,
		httpClient:  &http.Client{Timeout: config.Timeout},
		rateLimiter: NewRateLimiter(2.0, 3),
		retry:       defaultRetryPolicy(),
	}
}

// DiscordWebhookPayload is the JSON body of a webhook execution.
type DiscordWebhookPayload struct {
	Embeds []DiscordEmbed `json:"embeds"`
}

// DiscordEmbed is one rich embed.
type DiscordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
	Timestamp   string `json:"timestamp,omitempty"`
}

// Discord embed limits
const (
	maxEmbedTitleLength       = 256
	maxEmbedDescriptionLength = 4096

	discordBlue = 0x3498DB
)

// Name implements pipeline.Notifier.
func (d *DiscordNotifier) Name() string { return ChannelDiscord }

// Send posts the digest. Bodies over the embed limit are truncated.
func (d *DiscordNotifier) Send(ctx context.Context, title, body string) error {
	payload := buildDiscordPayload(title, body, time.Now())
	return sendWithRetry(ctx, d.Name(), uuid.New().String(), d.rateLimiter, d.retry,
		func(ctx context.Context) error {
			return postJSON(ctx, d.httpClient, "Discord", d.config.WebhookURL, payload)
		})
}

func buildDiscordPayload(title, body string, now time.Time) DiscordWebhookPayload {
	return DiscordWebhookPayload{
		Embeds: []DiscordEmbed{{
			Title:       text.Truncate(title, maxEmbedTitleLength, truncationSuffix),
			Description: text.Truncate(body, maxEmbedDescriptionLength, truncationSuffix),
			Color:       discordBlue,
			Timestamp:   now.UTC().Format(time.RFC3339),
		}},
	}
}
