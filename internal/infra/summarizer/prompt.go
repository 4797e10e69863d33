package summarizer

import (
	"fmt"
	"log/slog"
	"strings"

	"feed-digest/internal/utils/text"
)

const truncationMarker = "\n...(truncated)"

func systemPrompt(cfg Config) string {
	return fmt.Sprintf(
		"You summarize articles for a daily digest. Write the summary in %s, "+
			"in at most %d characters. Output only the summary text.",
		cfg.Language, cfg.CharacterLimit)
}

func userPrompt(cfg Config, title, body string) string {
	if max := cfg.MaxInputChars; max > 0 && text.CountRunes(body) > max {
		slog.Warn("article text truncated before summarization",
			slog.Int("original_length", text.CountRunes(body)),
			slog.Int("max_input_chars", max))
		body = text.Truncate(body, max, truncationMarker)
	}
	var b strings.Builder
	if title = strings.TrimSpace(title); title != "" {
		b.WriteString("Title: ")
		b.WriteString(title)
		b.WriteString("\n\n")
	}
	b.WriteString(body)
	return b.String()
}

// finish trims the model output and records length compliance. An empty
// summary is an error.
func finish(cfg Config, recorder SummaryMetricsRecorder, raw string) (string, error) {
	summary := strings.TrimSpace(raw)
	if summary == "" {
		return "", fmt.Errorf("empty summary")
	}
	length := text.CountRunes(summary)
	within := length <= cfg.CharacterLimit
	recorder.RecordLength(length)
	recorder.RecordCompliance(within)
	if !within {
		recorder.RecordLimitExceeded()
		slog.Warn("Summary exceeds character limit",
			slog.Int("summary_length", length),
			slog.Int("limit", cfg.CharacterLimit))
	}
	return summary, nil
}
