// Package config assembles the process configuration. Sources, lowest
// precedence first: built-in defaults, the YAML file named by CONFIG_FILE,
// a .env file, and the process environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"feed-digest/internal/infra/feed"
	"feed-digest/internal/infra/fetcher"
	"feed-digest/internal/infra/notifier"
	"feed-digest/internal/infra/summarizer"
	"feed-digest/internal/infra/worker"
	pkgconfig "feed-digest/internal/pkg/config"
)

// minJWTSecretLength matches the token service requirement.
const minJWTSecretLength = 32

// loadMetrics registers the app_config_* series once per process.
var loadMetrics = sync.OnceValue(func() *pkgconfig.ConfigMetrics {
	return pkgconfig.NewConfigMetrics(nil, "app")
})

// Config is the full process configuration.
type Config struct {
	Server     ServerConfig      `yaml:"server"`
	Auth       AuthConfig        `yaml:"auth"`
	Tracing    TracingConfig     `yaml:"tracing"`
	Worker     worker.Config     `yaml:"worker"`
	Feed       feed.Config       `yaml:"feed"`
	Fetcher    fetcher.Config    `yaml:"fetcher"`
	Summarizer summarizer.Config `yaml:"summarizer"`
	Notifier   notifier.Config   `yaml:"notifier"`
}

// ServerConfig tunes the public HTTP listener.
type ServerConfig struct {
	Addr                  string        `yaml:"addr"`
	MaxBodyBytes          int64         `yaml:"max_body_bytes"`
	AuthRequestsPerMinute int           `yaml:"auth_requests_per_minute"`
	CORSOrigins           []string      `yaml:"cors_origins"`
	ShutdownTimeout       time.Duration `yaml:"shutdown_timeout"`
}

// AuthConfig holds token and password settings. The secret is env-only.
type AuthConfig struct {
	JWTSecret  string        `yaml:"-"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
	BcryptCost int           `yaml:"bcrypt_cost"`
}

// TracingConfig sets the head sampling ratio. 0 disables tracing.
type TracingConfig struct {
	SampleRatio float64 `yaml:"sample_ratio"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:                  ":8080",
			MaxBodyBytes:          1 << 20,
			AuthRequestsPerMinute: 5,
			CORSOrigins:           []string{"http://localhost:3000"},
			ShutdownTimeout:       30 * time.Second,
		},
		Auth: AuthConfig{
			TokenTTL:   24 * time.Hour,
			BcryptCost: 10,
		},
		Tracing:    TracingConfig{SampleRatio: 0},
		Worker:     worker.DefaultConfig(),
		Feed:       feed.DefaultConfig(),
		Fetcher:    fetcher.DefaultConfig(),
		Summarizer: summarizer.DefaultConfig(),
		Notifier:   notifier.DefaultConfig(),
	}
}

// Load reads every source and validates the result. Invalid optional
// values fall back with a warning; a missing or short JWT_SECRET fails.
func Load(logger *slog.Logger) (*Config, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := ReadFile(path, &cfg); err != nil {
			return nil, err
		}
		logger.Info("config file loaded", slog.String("path", path))
	}

	l := pkgconfig.NewLoader(logger, loadMetrics())
	cfg = overlayEnv(l, cfg)
	l.Finish()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ReadFile decodes the YAML file at path over cfg. Unknown keys are
// rejected so typos surface at startup.
func ReadFile(path string, cfg *Config) error {
	// #nosec G304 -- path comes from the operator's CONFIG_FILE
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func overlayEnv(l *pkgconfig.Loader, base Config) Config {
	cfg := base

	cfg.Server.Addr = pkgconfig.LoadEnvString("HTTP_ADDR", base.Server.Addr)
	cfg.Server.MaxBodyBytes = int64(l.Int("HTTP_MAX_BODY_BYTES", int(base.Server.MaxBodyBytes), func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1<<10, 64<<20)
	}))
	cfg.Server.AuthRequestsPerMinute = l.Int("AUTH_RATE_LIMIT", base.Server.AuthRequestsPerMinute, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1, 1000)
	})
	if raw := pkgconfig.LoadEnvString("CORS_ALLOWED_ORIGINS", ""); raw != "" {
		cfg.Server.CORSOrigins = splitList(raw)
	}
	cfg.Server.ShutdownTimeout = l.Duration("SHUTDOWN_TIMEOUT", base.Server.ShutdownTimeout, func(d time.Duration) error {
		return pkgconfig.ValidateDuration(d, time.Second, 5*time.Minute)
	})

	cfg.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.Auth.TokenTTL = l.Duration("JWT_TTL", base.Auth.TokenTTL, func(d time.Duration) error {
		return pkgconfig.ValidateDuration(d, time.Minute, 30*24*time.Hour)
	})
	cfg.Auth.BcryptCost = l.Int("BCRYPT_COST", base.Auth.BcryptCost, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 4, 14)
	})

	cfg.Tracing.SampleRatio = l.Float("TRACE_SAMPLE_RATIO", base.Tracing.SampleRatio, func(f float64) error {
		if f < 0 || f > 1 {
			return fmt.Errorf("ratio %v outside [0, 1]", f)
		}
		return nil
	})

	cfg.Worker = worker.LoadConfig(l, base.Worker)
	cfg.Feed = feed.LoadConfig(l, base.Feed)
	cfg.Fetcher = fetcher.LoadConfig(l, base.Fetcher)
	cfg.Summarizer = summarizer.LoadConfig(l, base.Summarizer)
	cfg.Notifier = notifier.LoadConfig(l, base.Notifier)
	return cfg
}

// Validate checks the settings that have no safe fallback.
func (c Config) Validate() error {
	var errs []error
	if len(c.Auth.JWTSecret) < minJWTSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength))
	}
	if err := c.Worker.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("worker: %w", err))
	}
	return errors.Join(errs...)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
