package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain layer operations.
var (
	// ErrNotFound indicates that a requested entity was not found
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict indicates a uniqueness violation such as a duplicate email
	ErrConflict = errors.New("entity already exists")

	// ErrUnauthorized indicates bad credentials or a missing identity
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError represents a validation error with detailed field information.
// It implements the error interface and provides context about which field failed validation.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// FetchError is a feed failure scoped to one subscription.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// SummarizeError is a summarization failure scoped to one article.
type SummarizeError struct {
	ArticleGUID string
	Err         error
}

func (e *SummarizeError) Error() string {
	return fmt.Sprintf("summarize %s: %v", e.ArticleGUID, e.Err)
}

func (e *SummarizeError) Unwrap() error { return e.Err }

// NotifyError is a digest delivery failure. It never rolls back ledger writes.
type NotifyError struct {
	Channel string
	Err     error
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("notify via %s: %v", e.Channel, e.Err)
}

func (e *NotifyError) Unwrap() error { return e.Err }

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
