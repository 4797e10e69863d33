// Package pipeline implements one digest run for one user: fetch every
// subscription, keep items inside the lookback window, drop what the dedup
// ledger already holds, summarize the rest, record them and push a single
// aggregated digest.
package pipeline

import "errors"

// Sentinel errors for content enhancement. ErrInvalidURL and ErrPrivateIP
// mark a refusal by URL policy; the rest are fetch failures.
var (
	// ErrInvalidURL indicates the URL format is invalid or uses an unsupported scheme.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrPrivateIP indicates the URL resolves to a private network address.
	ErrPrivateIP = errors.New("URL resolves to private IP address")

	// ErrTooManyRedirects indicates the redirect chain exceeded the configured maximum.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrBodyTooLarge indicates the response body exceeded the size limit.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrTimeout indicates the content request timed out.
	ErrTimeout = errors.New("content fetch timeout")

	// ErrReadabilityFailed indicates content extraction produced no text.
	ErrReadabilityFailed = errors.New("readability extraction failed")
)
