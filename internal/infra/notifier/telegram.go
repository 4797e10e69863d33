package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"feed-digest/internal/utils/text"
)

// TelegramConfig configures the Telegram bot channel.
type TelegramConfig struct {
	Token  string
	ChatID int64
	// APIEndpoint overrides tgbotapi.APIEndpoint, mainly for tests.
	APIEndpoint string
	Timeout     time.Duration
}

// TelegramNotifier sends the digest as a bot message.
type TelegramNotifier struct {
	bot         *tgbotapi.BotAPI
	chatID      int64
	rateLimiter *RateLimiter
	retry       retryPolicy
}

const maxTelegramMessageLength = 4096

// NewTelegramNotifier builds the bot client without calling getMe, so a bad
// token surfaces on the first Send rather than at startup.
func NewTelegramNotifier(config TelegramConfig) *TelegramNotifier {
	bot := &tgbotapi.BotAPI{
		Token:  config.Token,
		Client: &http.Client{Timeout: config.Timeout},
		Buffer: 100,
	}
	endpoint := config.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	bot.SetAPIEndpoint(endpoint)

	return &TelegramNotifier{
		bot:         bot,
		chatID:      config.ChatID,
		rateLimiter: NewRateLimiter(1.0, 1),
		retry:       defaultRetryPolicy(),
	}
}

// Name implements pipeline.Notifier.
func (t *TelegramNotifier) Name() string { return ChannelTelegram }

// Send delivers title and body as one plain text message.
func (t *TelegramNotifier) Send(ctx context.Context, title, body string) error {
	msg := tgbotapi.NewMessage(t.chatID,
		text.Truncate(title+"\n\n"+body, maxTelegramMessageLength, truncationSuffix))
	msg.DisableWebPagePreview = true

	return sendWithRetry(ctx, t.Name(), uuid.New().String(), t.rateLimiter, t.retry,
		func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := t.bot.Send(msg)
			return classifyTelegramError(err)
		})
}

// classifyTelegramError maps Bot API error codes onto the webhook error types.
func classifyTelegramError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("telegram request: %w", err)
	}
	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return &RateLimitError{
			Message:    "Telegram rate limit exceeded",
			RetryAfter: time.Duration(apiErr.RetryAfter) * time.Second,
		}
	case apiErr.Code >= 500:
		return &ServerError{StatusCode: apiErr.Code, Message: "Telegram server error: " + apiErr.Message}
	default:
		return &ClientError{StatusCode: apiErr.Code, Message: "Telegram client error: " + apiErr.Message}
	}
}
