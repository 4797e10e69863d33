package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"feed-digest/internal/domain/entity"
	"feed-digest/internal/resilience/circuitbreaker"
	"feed-digest/internal/resilience/retry"
)

const (
	// DefaultRSS2JSONEndpoint is the public rss2json API.
	DefaultRSS2JSONEndpoint = "https://api.rss2json.com/v1/api.json"
	// rss2jsonCount is the item count requested per feed.
	rss2jsonCount = 50
	// rss2jsonTimeLayout is the pubDate layout rss2json emits, in UTC.
	rss2jsonTimeLayout = "2006-01-02 15:04:05"
	maxResponseBytes   = 10 * 1024 * 1024
)

type rss2jsonResponse struct {
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Items   []rss2jsonItem `json:"items"`
}

type rss2jsonItem struct {
	Title       string `json:"title"`
	PubDate     string `json:"pubDate"`
	Link        string `json:"link"`
	GUID        string `json:"guid"`
	Content     string `json:"content"`
	Description string `json:"description"`
}

// RSS2JSONFetcher resolves feeds through the rss2json conversion API.
type RSS2JSONFetcher struct {
	client         *http.Client
	endpoint       string
	apiKey         string
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewRSS2JSONFetcher returns a fetcher for endpoint (DefaultRSS2JSONEndpoint
// when empty). apiKey is required by the public endpoint.
func NewRSS2JSONFetcher(client *http.Client, endpoint, apiKey string) *RSS2JSONFetcher {
	if endpoint == "" {
		endpoint = DefaultRSS2JSONEndpoint
	}
	return &RSS2JSONFetcher{
		client:         client,
		endpoint:       endpoint,
		apiKey:         apiKey,
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedConfig()),
		retryConfig:    retry.FeedConfig(),
	}
}

// WithRetryConfig overrides the retry policy.
func (f *RSS2JSONFetcher) WithRetryConfig(cfg retry.Config) *RSS2JSONFetcher {
	f.retryConfig = cfg
	return f
}

// Fetch returns the converted feed's items in API order.
func (f *RSS2JSONFetcher) Fetch(ctx context.Context, feedURL string) ([]entity.FeedItem, error) {
	items, err := fetchWithResilience(ctx, f.circuitBreaker, f.retryConfig, feedURL, func() ([]entity.FeedItem, error) {
		return f.doFetch(ctx, feedURL)
	})
	if err != nil {
		return nil, &entity.FetchError{URL: feedURL, Err: err}
	}
	return items, nil
}

func (f *RSS2JSONFetcher) doFetch(ctx context.Context, feedURL string) ([]entity.FeedItem, error) {
	q := url.Values{}
	q.Set("rss_url", feedURL)
	q.Set("count", strconv.Itoa(rss2jsonCount))
	if f.apiKey != "" {
		q.Set("api_key", f.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	var decoded rss2jsonResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if decoded.Status != "ok" {
		return nil, fmt.Errorf("rss2json status %q: %s", decoded.Status, decoded.Message)
	}

	items := make([]entity.FeedItem, 0, len(decoded.Items))
	for _, it := range decoded.Items {
		body := it.Content
		if body == "" {
			body = it.Description
		}
		items = append(items, entity.FeedItem{
			GUID:        strings.TrimSpace(it.GUID),
			Link:        strings.TrimSpace(it.Link),
			Title:       it.Title,
			Body:        body,
			PublishedAt: parseRSS2JSONTime(it.PubDate),
		})
	}
	return items, nil
}

// parseRSS2JSONTime returns the zero time for unparseable values.
func parseRSS2JSONTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.ParseInLocation(rss2jsonTimeLayout, s, time.UTC); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
