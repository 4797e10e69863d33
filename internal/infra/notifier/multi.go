package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"feed-digest/internal/usecase/pipeline"
)

// Multi fans one digest out to several channels. Every channel is tried;
// the failures are joined.
type Multi struct {
	notifiers []pipeline.Notifier
}

// NewMulti returns a Multi over ns.
func NewMulti(ns ...pipeline.Notifier) *Multi {
	return &Multi{notifiers: ns}
}

// Name lists the wrapped channels, e.g. "multi(slack,telegram)".
func (m *Multi) Name() string {
	names := make([]string, len(m.notifiers))
	for i, n := range m.notifiers {
		names[i] = n.Name()
	}
	return "multi(" + strings.Join(names, ",") + ")"
}

// Send implements pipeline.Notifier.
func (m *Multi) Send(ctx context.Context, title, body string) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Send(ctx, title, body); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}
