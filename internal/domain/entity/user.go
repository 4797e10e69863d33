package entity

import "time"

// DefaultFetchPeriodDays is the lookback window assigned at registration.
const DefaultFetchPeriodDays = 3

// User is an account that owns subscriptions and, optionally, a daily push time.
type User struct {
	ID              int64
	Email           string
	PasswordHash    string
	FetchPeriodDays int
	// PushTime is "HH:MM" in the deployment's reference timezone.
	// nil means the user has no recurring trigger.
	PushTime  *string
	CreatedAt time.Time
}

// Subscription is a feed followed by one user.
type Subscription struct {
	ID     int64
	UserID int64
	URL    string
	Title  string
	// FetchPeriodDays overrides the owner's lookback window when set.
	FetchPeriodDays *int
	CreatedAt       time.Time
}

// LookbackDays returns the effective lookback window for a subscription
// owned by u.
func (s *Subscription) LookbackDays(u *User) int {
	if s.FetchPeriodDays != nil && *s.FetchPeriodDays > 0 {
		return *s.FetchPeriodDays
	}
	if u != nil && u.FetchPeriodDays > 0 {
		return u.FetchPeriodDays
	}
	return DefaultFetchPeriodDays
}
