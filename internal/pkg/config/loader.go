// Package config loads settings from the environment with a fail-open
// policy: a value that is set but invalid is replaced by its default, the
// replacement is logged, and a fallback metric is recorded.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// ConfigLoadResult is the outcome of loading one value.
type ConfigLoadResult[T any] struct {
	Value           T
	Warnings        []string
	FallbackApplied bool
}

// LoadEnvString returns the variable, or defaultValue when unset or empty.
func LoadEnvString(envKey, defaultValue string) string {
	if value := os.Getenv(envKey); value != "" {
		return value
	}
	return defaultValue
}

// LoadEnvWithFallback loads a string and validates it.
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) ConfigLoadResult[string] {
	return loadEnv(envKey, defaultValue, func(s string) (string, error) { return s, nil }, validator)
}

// LoadEnvDuration loads a time.ParseDuration value and validates it.
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) ConfigLoadResult[time.Duration] {
	return loadEnv(envKey, defaultValue, time.ParseDuration, validator)
}

// LoadEnvInt loads a base-10 integer and validates it.
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) ConfigLoadResult[int] {
	return loadEnv(envKey, defaultValue, strconv.Atoi, validator)
}

// LoadEnvFloat loads a 64-bit float and validates it.
func LoadEnvFloat(envKey string, defaultValue float64, validator func(float64) error) ConfigLoadResult[float64] {
	return loadEnv(envKey, defaultValue, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) }, validator)
}

// LoadEnvBool loads a strconv.ParseBool value.
func LoadEnvBool(envKey string, defaultValue bool) ConfigLoadResult[bool] {
	return loadEnv(envKey, defaultValue, strconv.ParseBool, nil)
}

func loadEnv[T any](envKey string, defaultValue T, parse func(string) (T, error), validator func(T) error) ConfigLoadResult[T] {
	raw := os.Getenv(envKey)
	if raw == "" {
		return ConfigLoadResult[T]{Value: defaultValue}
	}

	value, err := parse(raw)
	if err == nil && validator != nil {
		err = validator(value)
	}
	if err != nil {
		return ConfigLoadResult[T]{
			Value: defaultValue,
			Warnings: []string{fmt.Sprintf(
				"Invalid %s='%s': %v, falling back to default '%v'", envKey, raw, err, defaultValue)},
			FallbackApplied: true,
		}
	}
	return ConfigLoadResult[T]{Value: value}
}

// Loader applies the Load* functions and reports every fallback through
// one logger and one ConfigMetrics. Metrics may be nil.
type Loader struct {
	logger    *slog.Logger
	metrics   *ConfigMetrics
	fallbacks int
}

// NewLoader returns a Loader. A nil logger uses slog.Default().
func NewLoader(logger *slog.Logger, metrics *ConfigMetrics) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger, metrics: metrics}
}

// String loads a validated string.
func (l *Loader) String(envKey, defaultValue string, validator func(string) error) string {
	return track(l, envKey, LoadEnvWithFallback(envKey, defaultValue, validator))
}

// Int loads a validated integer.
func (l *Loader) Int(envKey string, defaultValue int, validator func(int) error) int {
	return track(l, envKey, LoadEnvInt(envKey, defaultValue, validator))
}

// Duration loads a validated duration.
func (l *Loader) Duration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) time.Duration {
	return track(l, envKey, LoadEnvDuration(envKey, defaultValue, validator))
}

// Float loads a validated float.
func (l *Loader) Float(envKey string, defaultValue float64, validator func(float64) error) float64 {
	return track(l, envKey, LoadEnvFloat(envKey, defaultValue, validator))
}

// Bool loads a boolean.
func (l *Loader) Bool(envKey string, defaultValue bool) bool {
	return track(l, envKey, LoadEnvBool(envKey, defaultValue))
}

// Fallbacks returns how many values fell back so far.
func (l *Loader) Fallbacks() int {
	return l.fallbacks
}

// Finish publishes the fallback gauge and load timestamp.
func (l *Loader) Finish() {
	if l.metrics == nil {
		return
	}
	l.metrics.finish(l.fallbacks)
}

func track[T any](l *Loader, envKey string, r ConfigLoadResult[T]) T {
	if !r.FallbackApplied {
		return r.Value
	}
	l.fallbacks++
	if l.metrics != nil {
		l.metrics.recordFallback(envKey)
	}
	for _, warning := range r.Warnings {
		l.logger.Warn("Configuration fallback applied",
			slog.String("env_key", envKey),
			slog.String("warning", warning))
	}
	return r.Value
}
