package fetcher_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"feed-digest/internal/infra/fetcher"
	"feed-digest/internal/resilience/retry"
	"feed-digest/internal/usecase/pipeline"
)

const articleHTML = `<!DOCTYPE html>
<html>
<head><title>Test Article</title></head>
<body>
	<nav>Home | About | Contact</nav>
	<article>
		<h1>Test Article Title</h1>
		<p>This is the first paragraph of the article content, long enough to count as prose.</p>
		<p>This is the second paragraph with more important information about the topic.</p>
		<p>This is the third paragraph to ensure the extractor has enough content to score.</p>
	</article>
</body>
</html>`

func localConfig() fetcher.Config {
	cfg := fetcher.DefaultConfig()
	cfg.DenyPrivateIPs = false // httptest はループバックで待ち受ける
	return cfg
}

func TestFetchContent_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != fetcher.DefaultUserAgent {
			t.Errorf("User-Agent = %q", got)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer server.Close()

	content, err := fetcher.NewReadabilityFetcher(localConfig()).FetchContent(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("FetchContent() error = %v", err)
	}
	if !strings.Contains(content, "second paragraph with more important information") {
		t.Errorf("content missing article text: %q", content)
	}
	if strings.Contains(content, "<p>") {
		t.Errorf("content should be plain text: %q", content)
	}
}

func TestFetchContent_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		mutate  func(*fetcher.Config)
		check   func(t *testing.T, err error)
	}{
		{
			name: "non-200 status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			check: func(t *testing.T, err error) {
				var httpErr *retry.HTTPError
				if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusNotFound {
					t.Errorf("err = %v, want HTTPError 404", err)
				}
			},
		},
		{
			name: "body too large",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(strings.Repeat("a", 4096)))
			},
			mutate: func(c *fetcher.Config) { c.MaxBodySize = 1024 },
			check: func(t *testing.T, err error) {
				if !errors.Is(err, pipeline.ErrBodyTooLarge) {
					t.Errorf("err = %v, want ErrBodyTooLarge", err)
				}
			},
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-time.After(2 * time.Second):
				case <-r.Context().Done():
				}
			},
			mutate: func(c *fetcher.Config) { c.Timeout = 50 * time.Millisecond },
			check: func(t *testing.T, err error) {
				if !errors.Is(err, pipeline.ErrTimeout) {
					t.Errorf("err = %v, want ErrTimeout", err)
				}
			},
		},
		{
			name: "empty page",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				_, _ = w.Write([]byte("<html><body></body></html>"))
			},
			check: func(t *testing.T, err error) {
				if !errors.Is(err, pipeline.ErrReadabilityFailed) {
					t.Errorf("err = %v, want ErrReadabilityFailed", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			cfg := localConfig()
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			_, err := fetcher.NewReadabilityFetcher(cfg).FetchContent(context.Background(), server.URL)
			if err == nil {
				t.Fatal("expected error")
			}
			tt.check(t, err)
		})
	}
}

func TestFetchContent_TooManyRedirects(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, server.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer server.Close()

	cfg := localConfig()
	cfg.MaxRedirects = 2
	_, err := fetcher.NewReadabilityFetcher(cfg).FetchContent(context.Background(), server.URL+"/")
	if !errors.Is(err, pipeline.ErrTooManyRedirects) {
		t.Fatalf("err = %v, want ErrTooManyRedirects", err)
	}
}

func TestFetchContent_URLValidation(t *testing.T) {
	f := fetcher.NewReadabilityFetcher(fetcher.DefaultConfig())
	tests := []struct {
		url  string
		want error
	}{
		{"ftp://example.com/file", pipeline.ErrInvalidURL},
		{"http:///nohost", pipeline.ErrInvalidURL},
		{"http://127.0.0.1/admin", pipeline.ErrPrivateIP},
		{"http://10.0.0.8/", pipeline.ErrPrivateIP},
		{"http://[::1]:8080/", pipeline.ErrPrivateIP},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			_, err := f.FetchContent(context.Background(), tt.url)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*fetcher.Config)
		wantErr bool
	}{
		{"defaults", func(*fetcher.Config) {}, false},
		{"zero timeout", func(c *fetcher.Config) { c.Timeout = 0 }, true},
		{"tiny body", func(c *fetcher.Config) { c.MaxBodySize = 10 }, true},
		{"too many redirects", func(c *fetcher.Config) { c.MaxRedirects = 11 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fetcher.DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

var _ pipeline.ContentFetcher = (*fetcher.ReadabilityFetcher)(nil)

func ExampleReadabilityFetcher_FetchContent() {
	f := fetcher.NewReadabilityFetcher(fetcher.DefaultConfig())
	_, err := f.FetchContent(context.Background(), "file:///etc/passwd")
	fmt.Println(errors.Is(err, pipeline.ErrInvalidURL))
	// Output: true
}
