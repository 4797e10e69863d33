// Package feed implements pipeline.FeedFetcher over RSS/Atom (gofeed) and
// the rss2json API. Both providers retry transient failures behind a shared
// circuit breaker and report every failure as *entity.FetchError.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/sony/gobreaker"

	"feed-digest/internal/domain/entity"
	"feed-digest/internal/resilience/circuitbreaker"
	"feed-digest/internal/resilience/retry"
)

// GofeedFetcher parses RSS, Atom and JSON Feed documents directly.
type GofeedFetcher struct {
	client         *http.Client
	userAgent      string
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewGofeedFetcher returns a fetcher using client.
func NewGofeedFetcher(client *http.Client, userAgent string) *GofeedFetcher {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &GofeedFetcher{
		client:         client,
		userAgent:      userAgent,
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedConfig()),
		retryConfig:    retry.FeedConfig(),
	}
}

// WithRetryConfig overrides the retry policy.
func (f *GofeedFetcher) WithRetryConfig(cfg retry.Config) *GofeedFetcher {
	f.retryConfig = cfg
	return f
}

// Fetch returns the feed's items in document order.
func (f *GofeedFetcher) Fetch(ctx context.Context, feedURL string) ([]entity.FeedItem, error) {
	items, err := fetchWithResilience(ctx, f.circuitBreaker, f.retryConfig, feedURL, func() ([]entity.FeedItem, error) {
		return f.doFetch(ctx, feedURL)
	})
	if err != nil {
		return nil, &entity.FetchError{URL: feedURL, Err: err}
	}
	return items, nil
}

func (f *GofeedFetcher) doFetch(ctx context.Context, feedURL string) ([]entity.FeedItem, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = f.userAgent
	fp.Client = f.client

	parsed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) {
			return nil, &retry.HTTPError{StatusCode: httpErr.StatusCode, Message: httpErr.Status}
		}
		return nil, err
	}

	items := make([]entity.FeedItem, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		item := entity.FeedItem{
			GUID:  strings.TrimSpace(it.GUID),
			Link:  strings.TrimSpace(it.Link),
			Title: it.Title,
			Body:  it.Content,
		}
		// Content優先、なければDescriptionを使用
		if item.Body == "" {
			item.Body = it.Description
		}
		// 公開日がない場合は更新日。どちらもなければゼロ値のまま（フィルタで除外）
		switch {
		case it.PublishedParsed != nil:
			item.PublishedAt = *it.PublishedParsed
		case it.UpdatedParsed != nil:
			item.PublishedAt = *it.UpdatedParsed
		}
		items = append(items, item)
	}
	return items, nil
}

// fetchWithResilience runs fetch through the breaker inside a retry loop.
func fetchWithResilience(
	ctx context.Context,
	cb *circuitbreaker.CircuitBreaker,
	cfg retry.Config,
	feedURL string,
	fetch func() ([]entity.FeedItem, error),
) ([]entity.FeedItem, error) {
	var items []entity.FeedItem
	err := retry.WithBackoff(ctx, cfg, func() error {
		result, err := cb.Execute(func() (interface{}, error) {
			return fetch()
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("feed fetch circuit breaker open, request rejected",
					slog.String("url", feedURL),
					slog.String("state", cb.State().String()))
			}
			return err
		}
		items = result.([]entity.FeedItem)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	return items, nil
}
