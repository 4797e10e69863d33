package entity

import (
	"fmt"
	"net"
	"net/mail"
	"net/url"
	"regexp"
	"strconv"
)

// maxURLLength defines the maximum allowed length for URLs to prevent DoS attacks.
const maxURLLength = 2048

const (
	MinFetchPeriodDays = 1
	MaxFetchPeriodDays = 30
	MinPasswordLength  = 8
)

// pushTimePattern accepts zero-padded 24h "HH:MM".
var pushTimePattern = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

// ValidatePushTime checks that s is "HH:MM" with hour 00-23 and minute 00-59.
// "9:30", "25:00" and "12:60" are rejected.
func ValidatePushTime(s string) error {
	if !pushTimePattern.MatchString(s) {
		return &ValidationError{Field: "pushTime", Message: fmt.Sprintf("%q must be HH:MM (00:00-23:59)", s)}
	}
	return nil
}

// ParsePushTime validates s and returns its hour and minute.
func ParsePushTime(s string) (hour, minute int, err error) {
	m := pushTimePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, ValidatePushTime(s)
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	return hour, minute, nil
}

// ValidateFetchPeriodDays checks the lookback window bounds.
func ValidateFetchPeriodDays(days int) error {
	if days < MinFetchPeriodDays || days > MaxFetchPeriodDays {
		return &ValidationError{
			Field:   "fetchPeriodDays",
			Message: fmt.Sprintf("must be between %d and %d", MinFetchPeriodDays, MaxFetchPeriodDays),
		}
	}
	return nil
}

// ValidateEmail checks that s is a bare address.
func ValidateEmail(s string) error {
	if s == "" {
		return &ValidationError{Field: "email", Message: "email is required"}
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return &ValidationError{Field: "email", Message: "invalid email address"}
	}
	return nil
}

// ValidatePassword enforces the minimum password length.
func ValidatePassword(s string) error {
	if len(s) < MinPasswordLength {
		return &ValidationError{
			Field:   "password",
			Message: fmt.Sprintf("must be at least %d characters", MinPasswordLength),
		}
	}
	return nil
}

// ValidateURL validates the format and safety of a feed URL.
// It checks that the URL is well-formed, uses HTTP/HTTPS scheme, and has a valid host.
// It also blocks private IP addresses to prevent SSRF attacks.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return &ValidationError{Field: "url", Message: "URL is required"}
	}

	if len(rawURL) > maxURLLength {
		return &ValidationError{
			Field:   "url",
			Message: fmt.Sprintf("url must not exceed %d characters", maxURLLength),
		}
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return &ValidationError{Field: "url", Message: "URL is malformed"}
	}

	// HTTPまたはHTTPSスキームのみ許可
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return &ValidationError{Field: "url", Message: "URL must use http or https scheme"}
	}
	if parsedURL.Host == "" {
		return &ValidationError{Field: "url", Message: "URL must have a valid host"}
	}

	// SSRF対策: プライベートIPアドレスをブロック
	ips, err := net.LookupIP(parsedURL.Hostname())
	if err == nil {
		for _, ip := range ips {
			if IsPrivateIP(ip) {
				return &ValidationError{Field: "url", Message: "url cannot point to private network"}
			}
		}
	}

	return nil
}

// IsPrivateIP reports whether ip is loopback, link-local or in a private range.
func IsPrivateIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsPrivate() || ip.IsUnspecified()
}
