// Package tracing provides OpenTelemetry tracing integration.
//
// Spans are created through GetTracer. The HTTP middleware extracts W3C trace
// context from inbound requests; pipeline runs start their own root span when
// fired by the scheduler.
//
//	ctx, span := tracing.GetTracer().Start(ctx, "pipeline.Run")
//	defer span.End()
package tracing
