package notifier

import (
	"context"
	"log/slog"

	"feed-digest/internal/utils/text"
)

// NoOpNotifier logs the digest instead of pushing it.
type NoOpNotifier struct{}

// NewNoOpNotifier creates a NoOpNotifier.
func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

// Name implements pipeline.Notifier.
func (n *NoOpNotifier) Name() string { return ChannelNoOp }

// Send logs a preview and returns nil.
func (n *NoOpNotifier) Send(ctx context.Context, title, body string) error {
	slog.InfoContext(ctx, "digest not pushed, notifier disabled",
		slog.String("title", title),
		slog.Int("length", text.CountRunes(body)),
		slog.String("preview", text.Truncate(body, 200, "...")))
	return nil
}
