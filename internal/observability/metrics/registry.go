package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline metrics track digest runs end to end
var (
	// RunsTotal counts pipeline runs by trigger and status
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_runs_total",
			Help: "Total number of digest pipeline runs",
		},
		[]string{"trigger", "status"},
	)

	// RunDuration measures one user's run across all subscriptions
	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "digest_run_duration_seconds",
			Help:    "Time taken by one digest pipeline run",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		},
		[]string{"trigger"},
	)

	// FeedFetchTotal counts feed fetches by result
	FeedFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_feed_fetch_total",
			Help: "Total number of subscription feed fetches",
		},
		[]string{"result"},
	)

	// ArticlesFilteredTotal counts items that passed the lookback filter
	ArticlesFilteredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "digest_articles_in_window_total",
			Help: "Total number of feed items inside the lookback window",
		},
	)

	// ArticlesSummarizedTotal counts articles summarized by status
	ArticlesSummarizedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_articles_summarized_total",
			Help: "Total number of articles summarized",
		},
		[]string{"status"},
	)

	// SummarizationDuration measures time to summarize an article
	SummarizationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "digest_summarization_duration_seconds",
			Help:    "Time taken to summarize an article",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)

	// LedgerWritesTotal counts ledger inserts by outcome: inserted, conflict, error
	LedgerWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_ledger_writes_total",
			Help: "Total number of dedup ledger write attempts",
		},
		[]string{"outcome"},
	)

	// NotifyTotal counts digest deliveries by status
	NotifyTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_notify_total",
			Help: "Total number of digest notifications",
		},
		[]string{"status"},
	)

	// ContentFetchAttemptsTotal counts content fetch attempts by result
	ContentFetchAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_content_fetch_attempts_total",
			Help: "Total number of full-article content fetch attempts",
		},
		[]string{"result"}, // result: success, failure, skipped, refused
	)

	// ContentFetchDuration measures time to fetch article content
	ContentFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "digest_content_fetch_duration_seconds",
			Help:    "Time taken to fetch article content",
			Buckets: []float64{0.1, 0.2, 0.4, 0.8, 1.6, 3.2, 6.4, 12.8},
		},
	)
)

// Scheduler metrics
var (
	// ScheduledTriggers is the number of live per-user triggers
	ScheduledTriggers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "digest_scheduled_triggers",
			Help: "Number of registered per-user push triggers",
		},
	)

	// TriggerFiresTotal counts scheduled fires by status
	TriggerFiresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_trigger_fires_total",
			Help: "Total number of scheduled trigger fires",
		},
		[]string{"status"},
	)

	// LastSuccessfulFire is the unix time of the last fire whose run completed
	LastSuccessfulFire = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "digest_trigger_last_success_timestamp",
			Help: "Unix timestamp of the last successful scheduled run",
		},
	)
)
