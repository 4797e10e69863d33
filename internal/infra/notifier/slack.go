package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"feed-digest/internal/utils/text"
)

// SlackConfig configures the Slack incoming webhook.
type SlackConfig struct {
	// WebhookURL includes the authentication token.
	WebhookURL string
	Timeout    time.Duration
}

// SlackNotifier posts the digest to a Slack incoming webhook.
type SlackNotifier struct {
	config      SlackConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
	retry       retryPolicy
}

// NewSlackNotifier creates a SlackNotifier limited to 1 message per second,
// the webhook's documented ceiling.
func NewSlackNotifier(config SlackConfig) *SlackNotifier {
	return &SlackNotifier{
		config:      config,
		httpClient:  &http.Client{Timeout: config.Timeout},
		rateLimiter: NewRateLimiter(1.0, 1),
		retry:       defaultRetryPolicy(),
	}
}

// SlackWebhookPayload is the Block Kit payload.
type SlackWebhookPayload struct {
	Text   string       `json:"text"`
	Blocks []SlackBlock `json:"blocks"`
}

// SlackBlock is a Block Kit block.
type SlackBlock struct {
	Type string           `json:"type"`
	Text *SlackTextObject `json:"text,omitempty"`
}

// SlackTextObject is a Block Kit text object.
type SlackTextObject struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Block Kit limits
const (
	maxHeaderTextLength  = 150
	maxSectionTextLength = 3000
	maxSlackSections     = 10
)

// Name implements pipeline.Notifier.
func (s *SlackNotifier) Name() string { return ChannelSlack }

// Send posts title as a header block and body split across section blocks.
func (s *SlackNotifier) Send(ctx context.Context, title, body string) error {
	payload := buildSlackPayload(title, body)
	return sendWithRetry(ctx, s.Name(), uuid.New().String(), s.rateLimiter, s.retry,
		func(ctx context.Context) error {
			return postJSON(ctx, s.httpClient, "Slack", s.config.WebhookURL, payload)
		})
}

func buildSlackPayload(title, body string) SlackWebhookPayload {
	header := text.Truncate(title, maxHeaderTextLength, truncationSuffix)
	blocks := []SlackBlock{{
		Type: "header",
		Text: &SlackTextObject{Type: "plain_text", Text: header},
	}}
	for _, chunk := range splitRunes(body, maxSectionTextLength, maxSlackSections) {
		blocks = append(blocks, SlackBlock{
			Type: "section",
			Text: &SlackTextObject{Type: "mrkdwn", Text: chunk},
		})
	}
	return SlackWebhookPayload{Text: header, Blocks: blocks}
}

// splitRunes cuts s into at most maxChunks pieces of at most size runes,
// preferring line breaks. The last chunk is truncated when s does not fit.
func splitRunes(s string, size, maxChunks int) []string {
	var chunks []string
	rs := []rune(s)
	for len(rs) > 0 && len(chunks) < maxChunks {
		if len(chunks) == maxChunks-1 || len(rs) <= size {
			chunks = append(chunks, text.Truncate(string(rs), size, truncationSuffix))
			break
		}
		cut := size
		for i := size - 1; i > size/2; i-- {
			if rs[i] == '\n' {
				cut = i + 1
				break
			}
		}
		chunks = append(chunks, string(rs[:cut]))
		rs = rs[cut:]
	}
	return chunks
}

// postJSON sends payload to url and maps the status to a typed error.
func postJSON(ctx context.Context, client *http.Client, channel, url string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return classifyResponse(channel, resp)
}
