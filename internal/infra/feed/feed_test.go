package feed_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"feed-digest/internal/domain/entity"
	"feed-digest/internal/infra/feed"
	"feed-digest/internal/resilience/retry"
)

/* ───────── ヘルパ ───────── */

func fastRetry() retry.Config {
	return retry.Config{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2}
}

const rssDoc = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <link>https://example.com</link>
    <item>
      <title>Article 1</title>
      <link>https://example.com/article1</link>
      <guid>urn:article:1</guid>
      <description>&lt;p&gt;Description 1&lt;/p&gt;</description>
      <pubDate>Mon, 01 Jan 2024 00:00:00 +0000</pubDate>
    </item>
    <item>
      <title>Article 2</title>
      <link>https://example.com/article2</link>
      <description>Description 2</description>
      <pubDate>Tue, 02 Jan 2024 00:00:00 +0000</pubDate>
    </item>
    <item>
      <title>Undated</title>
      <link>https://example.com/undated</link>
    </item>
  </channel>
</rss>`

/* ───────── gofeed ───────── */

func TestGofeedFetcher_RSS(t *testing.T) {
	var ua atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua.Store(r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rssDoc))
	}))
	defer server.Close()

	f := feed.NewGofeedFetcher(server.Client(), "")
	items, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch err=%v", err)
	}

	want := []entity.FeedItem{
		{GUID: "urn:article:1", Link: "https://example.com/article1", Title: "Article 1",
			Body: "<p>Description 1</p>", PublishedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{GUID: "", Link: "https://example.com/article2", Title: "Article 2",
			Body: "Description 2", PublishedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{Link: "https://example.com/undated", Title: "Undated"},
	}
	opt := cmp.Comparer(func(a, b time.Time) bool { return a.Equal(b) })
	if diff := cmp.Diff(want, items, opt); diff != "" {
		t.Fatalf("items mismatch (-want +got):\n%s", diff)
	}
	if got := ua.Load().(string); got != feed.DefaultUserAgent {
		t.Fatalf("User-Agent = %q", got)
	}
}

func TestGofeedFetcher_Atom(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom</title>
  <entry>
    <id>tag:example.com,2024:1</id>
    <title>Atom Article</title>
    <link href="https://example.com/atom1"/>
    <updated>2024-01-03T10:00:00Z</updated>
    <content type="html">&lt;b&gt;hello&lt;/b&gt;</content>
  </entry>
</feed>`))
	}))
	defer server.Close()

	items, err := feed.NewGofeedFetcher(server.Client(), "").Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch err=%v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d", len(items))
	}
	it := items[0]
	if it.GUID != "tag:example.com,2024:1" || it.Body != "<b>hello</b>" {
		t.Fatalf("item = %+v", it)
	}
	// 公開日がなければ更新日を使う
	if !it.PublishedAt.Equal(time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("PublishedAt = %v", it.PublishedAt)
	}
}

func TestGofeedFetcher_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(rssDoc))
	}))
	defer server.Close()

	f := feed.NewGofeedFetcher(server.Client(), "").WithRetryConfig(fastRetry())
	items, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch err=%v", err)
	}
	if len(items) != 3 || calls.Load() != 3 {
		t.Fatalf("items=%d calls=%d", len(items), calls.Load())
	}
}

func TestGofeedFetcher_NotFoundIsFetchError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	f := feed.NewGofeedFetcher(server.Client(), "").WithRetryConfig(fastRetry())
	_, err := f.Fetch(context.Background(), server.URL)

	var fe *entity.FetchError
	if !errors.As(err, &fe) || fe.URL != server.URL {
		t.Fatalf("err=%v, want *entity.FetchError", err)
	}
	var he *retry.HTTPError
	if !errors.As(err, &he) || he.StatusCode != http.StatusNotFound {
		t.Fatalf("err=%v, want wrapped 404", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("404 must not be retried, calls=%d", calls.Load())
	}
}

func TestGofeedFetcher_MalformedDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("this is not a feed"))
	}))
	defer server.Close()

	_, err := feed.NewGofeedFetcher(server.Client(), "").Fetch(context.Background(), server.URL)
	var fe *entity.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("err=%v, want *entity.FetchError", err)
	}
}

/* ───────── rss2json ───────── */

func TestRSS2JSONFetcher(t *testing.T) {
	var query atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query.Store(r.URL.Query())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "status": "ok",
  "items": [
    {"title": "One", "pubDate": "2024-01-05 08:30:00", "link": "https://x.example.com/1", "guid": "g1", "content": "<p>body</p>"},
    {"title": "Two", "pubDate": "garbage", "link": "https://x.example.com/2", "guid": "", "content": "", "description": "desc"}
  ]
}`))
	}))
	defer server.Close()

	f := feed.NewRSS2JSONFetcher(server.Client(), server.URL, "secret")
	items, err := f.Fetch(context.Background(), "https://blog.example.com/feed")
	if err != nil {
		t.Fatalf("Fetch err=%v", err)
	}

	q := query.Load().(url.Values)
	if q["rss_url"][0] != "https://blog.example.com/feed" || q["api_key"][0] != "secret" || q["count"][0] != "50" {
		t.Fatalf("query = %v", q)
	}

	want := []entity.FeedItem{
		{GUID: "g1", Link: "https://x.example.com/1", Title: "One", Body: "<p>body</p>",
			PublishedAt: time.Date(2024, 1, 5, 8, 30, 0, 0, time.UTC)},
		{Link: "https://x.example.com/2", Title: "Two", Body: "desc"},
	}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Fatalf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestRSS2JSONFetcher_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"error","message":"Cannot download this RSS feed"}`))
	}))
	defer server.Close()

	_, err := feed.NewRSS2JSONFetcher(server.Client(), server.URL, "").
		WithRetryConfig(fastRetry()).
		Fetch(context.Background(), "https://dead.example.com/rss")
	var fe *entity.FetchError
	if !errors.As(err, &fe) || fe.URL != "https://dead.example.com/rss" {
		t.Fatalf("err=%v, want *entity.FetchError", err)
	}
}

/* ───────── factory ───────── */

func TestNew(t *testing.T) {
	cfg := feed.DefaultConfig()
	f, err := feed.New(cfg)
	if err != nil {
		t.Fatalf("New err=%v", err)
	}
	if _, ok := f.(*feed.GofeedFetcher); !ok {
		t.Fatalf("default provider = %T", f)
	}

	cfg.Provider = feed.ProviderRSS2JSON
	f, err = feed.New(cfg)
	if err != nil {
		t.Fatalf("New err=%v", err)
	}
	if _, ok := f.(*feed.RSS2JSONFetcher); !ok {
		t.Fatalf("rss2json provider = %T", f)
	}

	cfg.Provider = "carrier-pigeon"
	if _, err := feed.New(cfg); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
