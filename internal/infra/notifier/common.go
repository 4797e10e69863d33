package notifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"feed-digest/internal/resilience/retry"
)

// RateLimitError is a 429 from a push channel.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (retry after %v)", e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("rate limit exceeded (retry after %v)", e.RetryAfter)
}

// ClientError is a non-retryable 4xx or an application-level rejection.
type ClientError struct {
	StatusCode int
	Message    string
}

func (e *ClientError) Error() string {
	return e.Message
}

// ServerError is a retryable 5xx.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return e.Message
}

// maxRetryAfter caps how long a 429 may stall a run.
const maxRetryAfter = 30 * time.Second

func is429Error(err error) (*RateLimitError, bool) {
	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return rateLimitErr, true
	}
	return nil, false
}

// isRetryableError reports whether err is a 5xx or a transport failure.
// 4xx are final; 429 is handled separately.
func isRetryableError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return true
	}
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return false
	}
	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return false
	}
	return true
}

// classifyResponse maps a non-2xx webhook response to a typed error.
func classifyResponse(channel string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{
			Message:    channel + " rate limit exceeded",
			RetryAfter: retryAfterHeader(resp),
		}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &ClientError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%s client error %d: %s", channel, resp.StatusCode, string(body)),
		}
	case resp.StatusCode >= 500:
		return &ServerError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%s server error %d: %s", channel, resp.StatusCode, string(body)),
		}
	}
	return fmt.Errorf("%s unexpected status code %d: %s", channel, resp.StatusCode, string(body))
}

func retryAfterHeader(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.ParseFloat(v, 64); err == nil && secs >= 0 {
			return time.Duration(secs * float64(time.Second))
		}
	}
	return time.Second
}

// retryPolicy bounds attempts made by sendWithRetry.
type retryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

func defaultRetryPolicy() retryPolicy {
	c := retry.NotifierConfig()
	return retryPolicy{MaxAttempts: c.MaxAttempts, BaseDelay: c.InitialDelay}
}

// sendWithRetry waits for the limiter and calls send until it succeeds or
// fails for good. 429 sleeps for the advertised delay; 5xx and transport
// errors back off linearly; anything else is returned at once.
func sendWithRetry(ctx context.Context, channel, requestID string, limiter *RateLimiter, policy retryPolicy, send func(context.Context) error) error {
	logger := slog.Default().With(
		slog.String("channel", channel),
		slog.String("request_id", requestID))

	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if limiter != nil {
			if err := limiter.Allow(ctx); err != nil {
				return fmt.Errorf("rate limiter error: %w", err)
			}
		}

		err := send(ctx)
		if err == nil {
			logger.Info("notification sent", slog.Int("attempt", attempt))
			return nil
		}
		lastErr = err

		if attempt == policy.MaxAttempts {
			break
		}

		var delay time.Duration
		if rateLimitErr, ok := is429Error(err); ok {
			delay = min(rateLimitErr.RetryAfter, maxRetryAfter)
			logger.Warn("rate limit hit, backing off",
				slog.Duration("retry_after", delay),
				slog.Int("attempt", attempt))
		} else if isRetryableError(err) {
			delay = policy.BaseDelay * time.Duration(attempt)
			logger.Warn("notification failed, retrying",
				slog.Any("error", err),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay))
		} else {
			logger.Error("notification failed with non-retryable error",
				slog.Any("error", err),
				slog.Int("attempt", attempt))
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("context canceled during backoff: %w", ctx.Err())
		}
	}

	logger.Error("notification failed after all retries",
		slog.Any("error", lastErr),
		slog.Int("max_attempts", policy.MaxAttempts))
	return fmt.Errorf("%s notification failed after %d attempts: %w", channel, policy.MaxAttempts, lastErr)
}
