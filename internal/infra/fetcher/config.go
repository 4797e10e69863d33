package fetcher

import (
	"fmt"
	"time"

	"feed-digest/internal/pkg/config"
)

// DefaultUserAgent identifies article page requests.
const DefaultUserAgent = "FeedDigestBot/1.0"

// Config controls article page fetching for content enhancement.
type Config struct {
	// Enabled turns enhancement on. When false no fetcher is wired.
	Enabled bool `yaml:"enabled"`
	// Timeout bounds one page request including redirects.
	Timeout time.Duration `yaml:"timeout"`
	// MaxBodySize is enforced while reading, not from Content-Length.
	MaxBodySize  int64 `yaml:"max_body_size"`
	MaxRedirects int   `yaml:"max_redirects"`
	// DenyPrivateIPs blocks hosts resolving to internal addresses.
	DenyPrivateIPs bool   `yaml:"deny_private_ips"`
	UserAgent      string `yaml:"user_agent"`
}

// DefaultConfig enables enhancement with SSRF protection on.
func DefaultConfig() Config {
	return Config{
		Enabled:        true,
		Timeout:        10 * time.Second,
		MaxBodySize:    10 * 1024 * 1024,
		MaxRedirects:   5,
		DenyPrivateIPs: true,
		UserAgent:      DefaultUserAgent,
	}
}

// Validate checks limits.
func (c Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	minBodySize := int64(1024)
	maxBodySize := int64(100 * 1024 * 1024)
	if c.MaxBodySize < minBodySize || c.MaxBodySize > maxBodySize {
		return fmt.Errorf("max body size must be between %d and %d bytes, got %d", minBodySize, maxBodySize, c.MaxBodySize)
	}
	if c.MaxRedirects < 0 || c.MaxRedirects > 10 {
		return fmt.Errorf("max redirects must be between 0 and 10, got %d", c.MaxRedirects)
	}
	return nil
}

// LoadConfig overlays CONTENT_FETCH_* variables on base.
func LoadConfig(l *config.Loader, base Config) Config {
	cfg := base
	cfg.Enabled = l.Bool("CONTENT_FETCH_ENABLED", base.Enabled)
	cfg.Timeout = l.Duration("CONTENT_FETCH_TIMEOUT", base.Timeout, func(d time.Duration) error {
		return config.ValidateDuration(d, time.Second, 2*time.Minute)
	})
	cfg.MaxBodySize = int64(l.Int("CONTENT_FETCH_MAX_BODY_SIZE", int(base.MaxBodySize), func(n int) error {
		return config.ValidateIntRange(n, 1024, 100*1024*1024)
	}))
	cfg.MaxRedirects = l.Int("CONTENT_FETCH_MAX_REDIRECTS", base.MaxRedirects, func(n int) error {
		return config.ValidateIntRange(n, 0, 10)
	})
	cfg.DenyPrivateIPs = l.Bool("CONTENT_FETCH_DENY_PRIVATE_IPS", base.DenyPrivateIPs)
	cfg.UserAgent = config.LoadEnvString("CONTENT_FETCH_USER_AGENT", base.UserAgent)
	return cfg
}
