package entity

import "time"

// Summary is the dedup ledger entry. At most one Summary exists per
// (ArticleGUID, UserID, SubscriptionID).
type Summary struct {
	ID             int64
	ArticleGUID    string
	UserID         int64
	SubscriptionID int64
	Title          string
	Link           string
	Content        string
	CreatedAt      time.Time
}

// Validate checks the fields required to record a ledger entry.
func (s *Summary) Validate() error {
	if s.ArticleGUID == "" {
		return &ValidationError{Field: "article_guid", Message: "article identity is required"}
	}
	if s.UserID <= 0 {
		return &ValidationError{Field: "user_id", Message: "must be positive"}
	}
	if s.SubscriptionID <= 0 {
		return &ValidationError{Field: "subscription_id", Message: "must be positive"}
	}
	return nil
}
