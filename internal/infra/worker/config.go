// Package worker holds the runtime settings of the scheduled digest worker
// and its admin probe listener.
package worker

import (
	"errors"
	"fmt"
	"time"
	_ "time/tzdata"

	"feed-digest/internal/pkg/config"
	"feed-digest/internal/usecase/pipeline"
	"feed-digest/internal/usecase/schedule"
)

// Config tunes scheduled runs.
type Config struct {
	// Timezone is the IANA zone push times are evaluated in.
	Timezone string `yaml:"timezone"`
	// RunTimeout bounds one scheduled run.
	RunTimeout time.Duration `yaml:"run_timeout"`
	// SummarizeParallelism bounds concurrent summarizer calls per
	// subscription.
	SummarizeParallelism int `yaml:"summarize_parallelism"`
	// ContentFetchThreshold is the body length (runes) below which the
	// article page is fetched.
	ContentFetchThreshold int    `yaml:"content_fetch_threshold"`
	DigestTitle           string `yaml:"digest_title"`
	// HealthPort serves the admin probes. 0 disables the listener.
	HealthPort int `yaml:"health_port"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	p := pipeline.DefaultConfig()
	return Config{
		Timezone:              schedule.DefaultTimezone,
		RunTimeout:            30 * time.Minute,
		SummarizeParallelism:  p.SummarizeParallelism,
		ContentFetchThreshold: p.ContentFetchThreshold,
		DigestTitle:           p.DigestTitle,
		HealthPort:            9091,
	}
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidateDuration(c.RunTimeout, time.Minute, 4*time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("run timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.SummarizeParallelism, 1, 50); err != nil {
		errs = append(errs, fmt.Errorf("summarize parallelism: %w", err))
	}
	if c.ContentFetchThreshold < 0 {
		errs = append(errs, errors.New("content fetch threshold: must not be negative"))
	}
	if c.HealthPort != 0 {
		if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
			errs = append(errs, fmt.Errorf("health port: %w", err))
		}
	}
	return errors.Join(errs...)
}

// LoadConfig overlays WORKER_TIMEZONE, RUN_TIMEOUT, SUMMARIZE_PARALLELISM,
// CONTENT_FETCH_THRESHOLD, DIGEST_TITLE and WORKER_HEALTH_PORT on base.
// Invalid values fall back to base.
func LoadConfig(l *config.Loader, base Config) Config {
	cfg := base
	cfg.Timezone = l.String("WORKER_TIMEZONE", base.Timezone, config.ValidateTimezone)
	cfg.RunTimeout = l.Duration("RUN_TIMEOUT", base.RunTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, time.Minute, 4*time.Hour)
	})
	cfg.SummarizeParallelism = l.Int("SUMMARIZE_PARALLELISM", base.SummarizeParallelism, func(v int) error {
		return config.ValidateIntRange(v, 1, 50)
	})
	cfg.ContentFetchThreshold = l.Int("CONTENT_FETCH_THRESHOLD", base.ContentFetchThreshold, func(v int) error {
		return config.ValidateIntRange(v, 0, 100000)
	})
	cfg.DigestTitle = config.LoadEnvString("DIGEST_TITLE", base.DigestTitle)
	cfg.HealthPort = l.Int("WORKER_HEALTH_PORT", base.HealthPort, func(v int) error {
		if v == 0 {
			return nil
		}
		return config.ValidateIntRange(v, 1024, 65535)
	})
	return cfg
}

// Location resolves Timezone, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Pipeline returns the run tunables with the remaining fields defaulted.
func (c Config) Pipeline() pipeline.Config {
	p := pipeline.DefaultConfig()
	if c.SummarizeParallelism > 0 {
		p.SummarizeParallelism = c.SummarizeParallelism
	}
	p.ContentFetchThreshold = c.ContentFetchThreshold
	if c.DigestTitle != "" {
		p.DigestTitle = c.DigestTitle
	}
	return p
}

// Schedule returns the scheduler settings.
func (c Config) Schedule() schedule.Config {
	return schedule.Config{Location: c.Location(), RunTimeout: c.RunTimeout}
}
