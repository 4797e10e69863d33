package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"feed-digest/internal/resilience/circuitbreaker"
	"feed-digest/internal/resilience/retry"
)

// OpenAI summarizes through any OpenAI-compatible chat completion API,
// including DashScope's qwen models.
type OpenAI struct {
	client          *openai.Client
	circuitBreaker  *circuitbreaker.CircuitBreaker
	retryConfig     retry.Config
	config          Config
	metricsRecorder SummaryMetricsRecorder
}

// NewOpenAI returns a summarizer for cfg.BaseURL (the OpenAI default when empty).
func NewOpenAI(cfg Config) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	slog.Info("Initialized OpenAI-compatible summarizer",
		slog.String("base_url", clientCfg.BaseURL),
		slog.String("model", cfg.Model),
		slog.Int("character_limit", cfg.CharacterLimit),
		slog.String("language", cfg.Language))

	return &OpenAI{
		client:          openai.NewClientWithConfig(clientCfg),
		circuitBreaker:  circuitbreaker.New(circuitbreaker.SummarizerConfig("openai-api")),
		retryConfig:     retry.SummarizerConfig(),
		config:          cfg,
		metricsRecorder: NewPrometheusSummaryMetrics(ProviderOpenAI),
	}
}

// WithRetryConfig overrides the retry policy.
func (o *OpenAI) WithRetryConfig(cfg retry.Config) *OpenAI {
	o.retryConfig = cfg
	return o
}

// Summarize returns a summary of body in the configured language.
func (o *OpenAI) Summarize(ctx context.Context, title, body string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	var result string
	retryErr := retry.WithBackoff(ctx, o.retryConfig, func() error {
		cbResult, err := o.circuitBreaker.Execute(func() (interface{}, error) {
			return o.doSummarize(ctx, title, body)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("openai api circuit breaker open, request rejected",
					slog.String("state", o.circuitBreaker.State().String()))
				return fmt.Errorf("openai api unavailable: %w", err)
			}
			return err
		}
		result = cbResult.(string)
		return nil
	})
	if retryErr != nil {
		return "", fmt.Errorf("openai summarize: %w", retryErr)
	}
	return result, nil
}

func (o *OpenAI) doSummarize(ctx context.Context, title, body string) (string, error) {
	requestID := uuid.New().String()
	start := time.Now()

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     o.config.Model,
		MaxTokens: o.config.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(o.config)},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(o.config, title, body)},
		},
	})
	duration := time.Since(start)
	o.metricsRecorder.RecordDuration(duration)

	if err != nil {
		slog.ErrorContext(ctx, "Summarization failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.Any("error", err))
		return "", classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai api returned no choices")
	}

	summary, err := finish(o.config, o.metricsRecorder, resp.Choices[0].Message.Content)
	if err != nil {
		return "", fmt.Errorf("openai api: %w", err)
	}
	slog.DebugContext(ctx, "Summarization completed",
		slog.String("request_id", requestID),
		slog.Duration("duration", duration))
	return summary, nil
}

// classifyOpenAIError exposes the HTTP status so 429/5xx are retried.
func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return fmt.Errorf("openai api error: %w",
			&retry.HTTPError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message})
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return fmt.Errorf("openai api error: %w",
			&retry.HTTPError{StatusCode: reqErr.HTTPStatusCode, Message: reqErr.Error()})
	}
	return fmt.Errorf("openai api error: %w", err)
}
