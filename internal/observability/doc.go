// Package observability groups the logging, metrics and tracing helpers.
//
// Subpackages:
//   - logging: slog construction from LOG_LEVEL/LOG_FORMAT and request-scoped loggers
//   - metrics: Prometheus series for digest runs, triggers, ledger writes and pushes
//   - tracing: OpenTelemetry tracer setup and the HTTP span middleware
//
// Example usage:
//
//	import (
//	    "feed-digest/internal/observability/logging"
//	    "feed-digest/internal/observability/metrics"
//	)
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("server starting")
//
//	    metrics.RecordRun(metrics.TriggerScheduled, true, time.Second)
//	}
package observability
