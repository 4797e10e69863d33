// Package metrics provides Prometheus metrics registry and recording utilities
// for the digest pipeline and scheduler.
//
// All metrics are registered with the Prometheus default registry via promauto
// and exposed via the /metrics endpoint.
//
// Example usage:
//
//	start := time.Now()
//	result, err := svc.Run(ctx, userID)
//	metrics.RecordRun(metrics.TriggerManual, err == nil, time.Since(start))
package metrics
