package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"feed-digest/internal/utils/text"
)

// DefaultServerChanBaseURL is the ServerChan Turbo endpoint.
const DefaultServerChanBaseURL = "https://sctapi.ftqq.com"

const (
	serverChanMaxTitle = 32
	serverChanMaxDesp  = 32000
)

// ServerChanConfig configures ServerChan pushes.
type ServerChanConfig struct {
	// SendKey is the per-account key from the ServerChan console.
	SendKey string
	// BaseURL defaults to DefaultServerChanBaseURL.
	BaseURL string
	Timeout time.Duration
}

// ServerChanNotifier pushes the digest through ServerChan.
type ServerChanNotifier struct {
	config      ServerChanConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
	retry       retryPolicy
}

type serverChanResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewServerChanNotifier creates a ServerChan notifier.
func NewServerChanNotifier(config ServerChanConfig) *ServerChanNotifier {
	if config.BaseURL == "" {
		config.BaseURL = DefaultServerChanBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	return &ServerChanNotifier{
		config:      config,
		httpClient:  &http.Client{Timeout: config.Timeout},
		rateLimiter: NewRateLimiter(1.0, 1),
		retry:       defaultRetryPolicy(),
	}
}

// Name implements pipeline.Notifier.
func (s *ServerChanNotifier) Name() string { return ChannelServerChan }

// Send posts title and body as the title and desp form fields.
func (s *ServerChanNotifier) Send(ctx context.Context, title, body string) error {
	return sendWithRetry(ctx, s.Name(), uuid.New().String(), s.rateLimiter, s.retry,
		func(ctx context.Context) error { return s.post(ctx, title, body) })
}

func (s *ServerChanNotifier) post(ctx context.Context, title, body string) error {
	form := url.Values{}
	form.Set("title", text.Truncate(title, serverChanMaxTitle, ""))
	form.Set("desp", text.Truncate(body, serverChanMaxDesp, truncationSuffix))

	endpoint := fmt.Sprintf("%s/%s.send", s.config.BaseURL, url.PathEscape(s.config.SendKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyResponse("ServerChan", resp)
	}

	var out serverChanResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return &ClientError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("ServerChan response decode: %v", err)}
	}
	if out.Code != 0 {
		return &ClientError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("ServerChan rejected push (code %d): %s", out.Code, out.Message),
		}
	}
	return nil
}
