// Package summarizer implements pipeline.Summarizer over OpenAI-compatible
// chat APIs (qwen on DashScope by default) and Anthropic Claude, plus a
// truncating NoOp for local runs. Providers retry transient failures behind
// a circuit breaker and record length compliance metrics.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"feed-digest/internal/resilience/circuitbreaker"
	"feed-digest/internal/resilience/retry"
)

// DefaultClaudeModel is used when the provider is claude and no model is set.
var DefaultClaudeModel = string(anthropic.ModelClaudeSonnet4_5_20250929)

// Claude summarizes through Anthropic's Messages API.
type Claude struct {
	client          anthropic.Client
	circuitBreaker  *circuitbreaker.CircuitBreaker
	retryConfig     retry.Config
	config          Config
	metricsRecorder SummaryMetricsRecorder
}

// NewClaude returns a Claude summarizer. cfg.BaseURL is honoured only when
// it is not the OpenAI-compatible default.
func NewClaude(cfg Config) *Claude {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" && cfg.BaseURL != DefaultBaseURL {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Model == "" || cfg.Model == DefaultModel {
		cfg.Model = DefaultClaudeModel
	}

	slog.Info("Initialized Claude summarizer",
		slog.String("model", cfg.Model),
		slog.Int("character_limit", cfg.CharacterLimit),
		slog.String("language", cfg.Language))

	return &Claude{
		client:          anthropic.NewClient(opts...),
		circuitBreaker:  circuitbreaker.New(circuitbreaker.SummarizerConfig("claude-api")),
		retryConfig:     retry.SummarizerConfig(),
		config:          cfg,
		metricsRecorder: NewPrometheusSummaryMetrics(ProviderClaude),
	}
}

// WithRetryConfig overrides the retry policy.
func (c *Claude) WithRetryConfig(cfg retry.Config) *Claude {
	c.retryConfig = cfg
	return c
}

// Summarize returns a summary of body in the configured language.
func (c *Claude) Summarize(ctx context.Context, title, body string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	var result string
	retryErr := retry.WithBackoff(ctx, c.retryConfig, func() error {
		cbResult, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doSummarize(ctx, title, body)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("claude api circuit breaker open, request rejected",
					slog.String("state", c.circuitBreaker.State().String()))
				return fmt.Errorf("claude api unavailable: %w", err)
			}
			return err
		}
		result = cbResult.(string)
		return nil
	})
	if retryErr != nil {
		return "", fmt.Errorf("claude summarize: %w", retryErr)
	}
	return result, nil
}

func (c *Claude) doSummarize(ctx context.Context, title, body string) (string, error) {
	requestID := uuid.New().String()
	start := time.Now()

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.config.Model),
		MaxTokens: int64(c.config.MaxTokens),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt(c.config)},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt(c.config, title, body))),
		},
	})
	duration := time.Since(start)
	c.metricsRecorder.RecordDuration(duration)

	if err != nil {
		slog.ErrorContext(ctx, "Summarization failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.Any("error", err))
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("claude api error: %w",
				&retry.HTTPError{StatusCode: apiErr.StatusCode, Message: apiErr.Error()})
		}
		return "", fmt.Errorf("claude api error: %w", err)
	}

	var parts []string
	for _, block := range message.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			parts = append(parts, tb.Text)
		}
	}
	summary, err := finish(c.config, c.metricsRecorder, strings.Join(parts, ""))
	if err != nil {
		return "", fmt.Errorf("claude api: %w", err)
	}
	slog.DebugContext(ctx, "Summarization completed",
		slog.String("request_id", requestID),
		slog.Duration("duration", duration))
	return summary, nil
}
