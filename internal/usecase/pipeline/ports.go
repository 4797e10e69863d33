package pipeline

import (
	"context"

	"feed-digest/internal/domain/entity"
)

// FeedFetcher turns a feed URL into raw items.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) ([]entity.FeedItem, error)
}

// Summarizer turns article text into a short summary in one target language.
type Summarizer interface {
	Summarize(ctx context.Context, title, text string) (string, error)
}

// Notifier delivers one digest. The pipeline makes a single attempt per run.
type Notifier interface {
	Name() string
	Send(ctx context.Context, title, body string) error
}

// ContentFetcher fetches the readable text of an article page. It is used
// only to enrich short feed bodies; failures fall back to the feed body.
type ContentFetcher interface {
	FetchContent(ctx context.Context, url string) (string, error)
}
