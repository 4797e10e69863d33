package metrics

import (
	"time"
)

func status(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// Run trigger labels.
const (
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"
)

// RecordRun records one pipeline run. trigger is TriggerScheduled or
// TriggerManual.
func RecordRun(trigger string, success bool, duration time.Duration) {
	RunsTotal.WithLabelValues(trigger, status(success)).Inc()
	RunDuration.WithLabelValues(trigger).Observe(duration.Seconds())
}

// RecordFeedFetch records the result of fetching one subscription's feed.
func RecordFeedFetch(success bool) {
	FeedFetchTotal.WithLabelValues(status(success)).Inc()
}

// RecordArticlesInWindow adds the number of items kept by the lookback filter.
func RecordArticlesInWindow(count int) {
	if count > 0 {
		ArticlesFilteredTotal.Add(float64(count))
	}
}

// RecordArticleSummarized records the result of an article summarization operation.
func RecordArticleSummarized(success bool, duration time.Duration) {
	ArticlesSummarizedTotal.WithLabelValues(status(success)).Inc()
	SummarizationDuration.Observe(duration.Seconds())
}

// Ledger write outcomes.
const (
	LedgerInserted = "inserted"
	LedgerConflict = "conflict"
	LedgerError    = "error"
)

// RecordLedgerWrite records one Record call outcome.
func RecordLedgerWrite(outcome string) {
	LedgerWritesTotal.WithLabelValues(outcome).Inc()
}

// RecordNotify records a digest delivery attempt.
func RecordNotify(success bool) {
	NotifyTotal.WithLabelValues(status(success)).Inc()
}

// RecordContentFetchSuccess records a successful content fetch operation.
func RecordContentFetchSuccess(duration time.Duration) {
	ContentFetchAttemptsTotal.WithLabelValues("success").Inc()
	ContentFetchDuration.Observe(duration.Seconds())
}

// RecordContentFetchFailed records a failed content fetch operation.
func RecordContentFetchFailed(duration time.Duration) {
	ContentFetchAttemptsTotal.WithLabelValues("failure").Inc()
	ContentFetchDuration.Observe(duration.Seconds())
}

// RecordContentFetchRefused records a fetch the URL policy rejected before
// any request was made.
func RecordContentFetchRefused() {
	ContentFetchAttemptsTotal.WithLabelValues("refused").Inc()
}

// RecordContentFetchSkipped records a fetch skipped because the feed body was long enough.
func RecordContentFetchSkipped() {
	ContentFetchAttemptsTotal.WithLabelValues("skipped").Inc()
}

// SetScheduledTriggers sets the live trigger gauge.
func SetScheduledTriggers(n int) {
	ScheduledTriggers.Set(float64(n))
}

// RecordTriggerFire records a scheduled fire and, on success, its timestamp.
func RecordTriggerFire(success bool) {
	TriggerFiresTotal.WithLabelValues(status(success)).Inc()
	if success {
		LastSuccessfulFire.SetToCurrentTime()
	}
}
