package pipeline

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"feed-digest/internal/domain/entity"
)

// Cutoff returns the start of the lookback window ending at now.
func Cutoff(now time.Time, lookbackDays int) time.Time {
	return now.Add(-time.Duration(lookbackDays) * 24 * time.Hour)
}

// FilterItems keeps items published at or after cutoff, in feed order.
// Identity is the item GUID, or its link when the GUID is blank. Items with
// no identity or no publish time are dropped, as are repeated identities.
// Bodies are reduced to plain text.
func FilterItems(items []entity.FeedItem, cutoff time.Time) []entity.Article {
	out := make([]entity.Article, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item.PublishedAt.IsZero() || item.PublishedAt.Before(cutoff) {
			continue
		}
		id := Identity(item)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, entity.Article{
			GUID:        id,
			Title:       strings.TrimSpace(item.Title),
			Link:        strings.TrimSpace(item.Link),
			Content:     StripMarkup(item.Body),
			PublishedAt: item.PublishedAt,
		})
	}
	return out
}

// Identity returns the GUID when present, else the link.
func Identity(item entity.FeedItem) string {
	if guid := strings.TrimSpace(item.GUID); guid != "" {
		return guid
	}
	return strings.TrimSpace(item.Link)
}

var tagPattern = regexp.MustCompile(`<[^>]*>?`)

// StripMarkup converts an HTML fragment to whitespace-normalised text.
func StripMarkup(body string) string {
	if body == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	var text string
	if err != nil {
		text = tagPattern.ReplaceAllString(body, " ")
	} else {
		doc.Find("script, style, noscript").Remove()
		text = doc.Text()
	}
	return strings.Join(strings.Fields(text), " ")
}
