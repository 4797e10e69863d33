package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func installRecorder(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
	return exporter
}

func attr(span tracetest.SpanStub, key string) (string, int64, bool) {
	for _, a := range span.Attributes {
		if string(a.Key) == key {
			return a.Value.Emit(), a.Value.AsInt64(), true
		}
	}
	return "", 0, false
}

func TestMiddleware_NamesSpanAfterRoutePattern(t *testing.T) {
	exporter := installRecorder(t)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /subscriptions/{id}/summaries", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rr := httptest.NewRecorder()
	Middleware(mux).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/subscriptions/42/summaries", nil))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(spans))
	}
	span := spans[0]
	if span.Name != "GET /subscriptions/{id}/summaries" {
		t.Errorf("span name = %q", span.Name)
	}
	if path, _, ok := attr(span, "http.path"); !ok || path != "/subscriptions/42/summaries" {
		t.Errorf("http.path = %q", path)
	}
	if _, code, ok := attr(span, "http.status_code"); !ok || code != 200 {
		t.Errorf("http.status_code = %d", code)
	}
	if len(rr.Header().Get(TraceIDHeader)) != 32 {
		t.Errorf("trace id header = %q", rr.Header().Get(TraceIDHeader))
	}
}

func TestMiddleware_PropagatesTraceContext(t *testing.T) {
	exporter := installRecorder(t)

	const parent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	req := httptest.NewRequest(http.MethodPost, "/digest/run", nil)
	req.Header.Set("traceparent", parent)

	var innerTrace string
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, span := GetTracer().Start(r.Context(), "inner")
		innerTrace = span.SpanContext().TraceID().String()
		span.End()
	}))
	h.ServeHTTP(httptest.NewRecorder(), req)

	if innerTrace != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Fatalf("inner trace = %s, want caller's trace", innerTrace)
	}
	if got := len(exporter.GetSpans()); got != 2 {
		t.Fatalf("spans = %d, want 2", got)
	}
}

func TestMiddleware_Status(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantError bool
	}{
		{"ok", http.StatusOK, false},
		{"client error", http.StatusNotFound, false},
		{"server error", http.StatusBadGateway, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter := installRecorder(t)
			h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/me", nil))

			span := exporter.GetSpans()[0]
			if got := span.Status.Code == codes.Error; got != tt.wantError {
				t.Fatalf("error status = %v, want %v", got, tt.wantError)
			}
		})
	}
}

func TestSetup(t *testing.T) {
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})

	shutdown := Setup(1)
	_, span := GetTracer().Start(context.Background(), "probe")
	if !span.SpanContext().IsSampled() {
		t.Fatal("ratio 1 should sample root spans")
	}
	span.End()
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
