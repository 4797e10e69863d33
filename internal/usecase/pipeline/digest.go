package pipeline

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"feed-digest/internal/domain/entity"
)

// DefaultDigestTitle is the push title when none is configured.
const DefaultDigestTitle = "今日推送"

// strict strips every tag; summaries come from an LLM and titles from
// arbitrary feeds.
var strict = bluemonday.StrictPolicy()

func plain(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// RenderDigest formats summaries as one markdown body, in the given order.
//
//	## {title}
//
//	{summary}
//
//	阅读全文：{link}
//
//	---
func RenderDigest(summaries []entity.Summary) string {
	var b strings.Builder
	for _, s := range summaries {
		b.WriteString("## ")
		b.WriteString(plain(s.Title))
		b.WriteString("\n\n")
		b.WriteString(plain(s.Content))
		b.WriteString("\n\n阅读全文：")
		b.WriteString(s.Link)
		b.WriteString("\n\n---\n\n")
	}
	return b.String()
}
