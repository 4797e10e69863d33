package summarizer

import (
	"context"
	"strings"

	"feed-digest/internal/utils/text"
)

// NoOp returns the article text itself, cut to the character limit. It
// needs no credentials and is meant for local runs.
type NoOp struct {
	limit int
}

// NewNoOp returns a NoOp cutting at limit runes.
func NewNoOp(limit int) *NoOp {
	if limit <= 0 {
		limit = DefaultCharacterLimit
	}
	return &NoOp{limit: limit}
}

// Summarize never fails. An empty body yields the title.
func (n *NoOp) Summarize(_ context.Context, title, body string) (string, error) {
	src := strings.TrimSpace(body)
	if src == "" {
		src = strings.TrimSpace(title)
	}
	return text.Truncate(src, n.limit, "…"), nil
}
