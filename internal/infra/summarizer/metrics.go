package summarizer

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SummaryMetricsRecorder records summary length compliance and API latency.
// Tests inject their own recorder.
type SummaryMetricsRecorder interface {
	// RecordLength records the summary length in runes.
	RecordLength(length int)
	// RecordLimitExceeded counts a summary longer than the character limit.
	RecordLimitExceeded()
	// RecordCompliance sets whether the latest summary fit the limit.
	RecordCompliance(withinLimit bool)
	// RecordDuration records one API call.
	RecordDuration(duration time.Duration)
}

type summaryCollectors struct {
	length     *prometheus.HistogramVec
	exceeded   *prometheus.CounterVec
	compliance *prometheus.GaugeVec
	duration   *prometheus.HistogramVec
}

// collectors are registered once and labelled by provider.
var collectors = sync.OnceValue(func() *summaryCollectors {
	return &summaryCollectors{
		length: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "digest_summary_length_characters",
			Help:    "Distribution of summary lengths in characters (Unicode runes)",
			Buckets: []float64{25, 50, 75, 100, 150, 200, 500, 1000, 5000},
		}, []string{"provider"}),
		exceeded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "digest_summary_limit_exceeded_total",
			Help: "Summaries longer than the configured character limit",
		}, []string{"provider"}),
		compliance: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "digest_summary_limit_compliance",
			Help: "1 if the provider's latest summary fit the character limit, 0 otherwise",
		}, []string{"provider"}),
		duration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "digest_summarizer_api_duration_seconds",
			Help:    "Latency of a single summarizer API call",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}, []string{"provider"}),
	}
})

// PrometheusSummaryMetrics records into the shared collectors under one
// provider label.
type PrometheusSummaryMetrics struct {
	provider string
	c        *summaryCollectors
}

// NewPrometheusSummaryMetrics returns a recorder for provider.
func NewPrometheusSummaryMetrics(provider string) *PrometheusSummaryMetrics {
	return &PrometheusSummaryMetrics{provider: provider, c: collectors()}
}

func (p *PrometheusSummaryMetrics) RecordLength(length int) {
	p.c.length.WithLabelValues(p.provider).Observe(float64(length))
}

func (p *PrometheusSummaryMetrics) RecordLimitExceeded() {
	p.c.exceeded.WithLabelValues(p.provider).Inc()
}

func (p *PrometheusSummaryMetrics) RecordCompliance(withinLimit bool) {
	v := 0.0
	if withinLimit {
		v = 1
	}
	p.c.compliance.WithLabelValues(p.provider).Set(v)
}

func (p *PrometheusSummaryMetrics) RecordDuration(duration time.Duration) {
	p.c.duration.WithLabelValues(p.provider).Observe(duration.Seconds())
}
