package config

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ConfigMetrics reports how the last configuration load went. Field labels
// are environment variable names.
type ConfigMetrics struct {
	LoadTimestamp  prometheus.Gauge
	FallbacksTotal *prometheus.CounterVec
	FallbackActive prometheus.Gauge
}

// NewConfigMetrics registers "{namespace}_config_*" on reg. A nil reg uses
// the default registerer. Registering a namespace twice on one registry
// panics.
func NewConfigMetrics(reg prometheus.Registerer, namespace string) *ConfigMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &ConfigMetrics{
		LoadTimestamp: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "config_load_timestamp_seconds",
			Help:      "Unix time of the last configuration load",
		}),
		FallbacksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_fallbacks_total",
			Help:      "Invalid configuration values replaced by their default",
		}, []string{"field"}),
		FallbackActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "config_fallback_active",
			Help:      "1 if the last load fell back on any value, 0 otherwise",
		}),
	}
}

func (m *ConfigMetrics) recordFallback(field string) {
	m.FallbacksTotal.WithLabelValues(field).Inc()
}

func (m *ConfigMetrics) finish(fallbacks int) {
	active := 0.0
	if fallbacks > 0 {
		active = 1
	}
	m.FallbackActive.Set(active)
	m.LoadTimestamp.SetToCurrentTime()
}
