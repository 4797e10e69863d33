package pipeline_test

import (
	"testing"

	"feed-digest/internal/domain/entity"
	"feed-digest/internal/usecase/pipeline"
)

func TestRenderDigest(t *testing.T) {
	got := pipeline.RenderDigest([]entity.Summary{
		{Title: "First", Content: "one", Link: "https://x.example.com/1"},
		{Title: "Second <b>bold</b>", Content: "<script>x</script>two &amp; more", Link: "https://x.example.com/2"},
	})

	want := "## First\n\none\n\n阅读全文：https://x.example.com/1\n\n---\n\n" +
		"## Second bold\n\ntwo & more\n\n阅读全文：https://x.example.com/2\n\n---\n\n"
	if got != want {
		t.Fatalf("RenderDigest mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderDigest_Empty(t *testing.T) {
	if got := pipeline.RenderDigest(nil); got != "" {
		t.Fatalf("RenderDigest(nil) = %q", got)
	}
}
