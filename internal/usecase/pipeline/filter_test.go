package pipeline_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"feed-digest/internal/domain/entity"
	"feed-digest/internal/usecase/pipeline"
)

func TestCutoff(t *testing.T) {
	now := time.Date(2026, 1, 4, 8, 30, 0, 0, time.UTC)
	want := time.Date(2026, 1, 1, 8, 30, 0, 0, time.UTC)
	if got := pipeline.Cutoff(now, 3); !got.Equal(want) {
		t.Fatalf("Cutoff = %v, want %v", got, want)
	}
}

func TestFilterItems(t *testing.T) {
	cutoff := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		items []entity.FeedItem
		want  []string // GUIDs
	}{
		{
			name: "cutoff is inclusive",
			items: []entity.FeedItem{
				{GUID: "edge", PublishedAt: cutoff},
				{GUID: "before", PublishedAt: cutoff.Add(-time.Second)},
				{GUID: "after", PublishedAt: cutoff.Add(time.Second)},
			},
			want: []string{"edge", "after"},
		},
		{
			name: "link used when guid blank",
			items: []entity.FeedItem{
				{GUID: "  ", Link: "https://x.example.com/p", PublishedAt: cutoff},
			},
			want: []string{"https://x.example.com/p"},
		},
		{
			name: "no identity dropped",
			items: []entity.FeedItem{
				{Title: "anonymous", PublishedAt: cutoff},
			},
			want: []string{},
		},
		{
			name: "no publish time dropped",
			items: []entity.FeedItem{
				{GUID: "undated"},
			},
			want: []string{},
		},
		{
			name: "repeated identity kept once in feed order",
			items: []entity.FeedItem{
				{GUID: "b", PublishedAt: cutoff},
				{GUID: "a", PublishedAt: cutoff},
				{GUID: "b", PublishedAt: cutoff.Add(time.Hour)},
			},
			want: []string{"b", "a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pipeline.FilterItems(tt.items, cutoff)
			ids := make([]string, 0, len(got))
			for _, a := range got {
				ids = append(ids, a.GUID)
			}
			if diff := cmp.Diff(tt.want, ids); diff != "" {
				t.Fatalf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFilterItems_StripsMarkup(t *testing.T) {
	cutoff := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	got := pipeline.FilterItems([]entity.FeedItem{{
		GUID:        "g",
		Title:       "  Title  ",
		Link:        " https://x.example.com/p ",
		Body:        "<div><p>Hello <b>world</b> &amp; friends</p><script>alert(1)</script></div>",
		PublishedAt: cutoff,
	}}, cutoff)

	want := []entity.Article{{
		GUID:        "g",
		Title:       "Title",
		Link:        "https://x.example.com/p",
		Content:     "Hello world & friends",
		PublishedAt: cutoff,
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestStripMarkup(t *testing.T) {
	tests := map[string]string{
		"":                                "",
		"plain text":                      "plain text",
		"<p>a</p>\n\n<p>b</p>":            "a b",
		"<style>p{}</style><i>styled</i>": "styled",
	}
	for in, want := range tests {
		if got := pipeline.StripMarkup(in); got != want {
			t.Errorf("StripMarkup(%q) = %q, want %q", in, got, want)
		}
	}
}
