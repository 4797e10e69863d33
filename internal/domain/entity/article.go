// Package entity defines the core domain entities and validation logic for the application.
// It contains the fundamental business objects such as User, Subscription and the
// Summary ledger entry, along with their validation rules and domain-specific errors.
package entity

import "time"

// FeedItem is a raw item as returned by a feed provider.
// Body may contain markup; GUID may be empty.
type FeedItem struct {
	GUID        string
	Link        string
	Title       string
	Body        string
	PublishedAt time.Time
}

// Article is derived from a FeedItem on every run and is never stored.
// Its identity is the item GUID or, when absent, the item link.
type Article struct {
	GUID        string
	Title       string
	Link        string
	Content     string
	PublishedAt time.Time
}
