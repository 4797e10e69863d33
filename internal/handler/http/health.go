// Package http holds the HTTP server plumbing: middleware, metrics, health
// probes and route wiring. Resource handlers live in subpackages.
package http

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"feed-digest/internal/handler/http/respond"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
	Version   string                 `json:"version"`
}

// CheckStatus is the result of one health check.
type CheckStatus struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// SchedulerState is the part of the scheduler the probes look at.
type SchedulerState interface {
	Started() bool
}

// TriggerCounter is optionally implemented by SchedulerState.
type TriggerCounter interface {
	TriggerCount() int
}

// HealthHandler reports database and scheduler health. The scheduler is
// informational: a stopped scheduler degrades but does not fail the check.
type HealthHandler struct {
	DB        *sql.DB
	Scheduler SchedulerState
	Version   string
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]CheckStatus{"database": h.checkDatabase(ctx)}
	if h.Scheduler != nil {
		checks["scheduler"] = h.checkScheduler()
	}

	status, code := statusHealthy, http.StatusOK
	for _, c := range checks {
		switch c.Status {
		case statusUnhealthy:
			status, code = statusUnhealthy, http.StatusServiceUnavailable
		case statusDegraded:
			if status == statusHealthy {
				status = statusDegraded
			}
		}
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respond.JSON(w, code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) CheckStatus {
	if h.DB == nil {
		return CheckStatus{Status: statusUnhealthy, Message: "not configured"}
	}
	if err := h.DB.PingContext(ctx); err != nil {
		return CheckStatus{Status: statusUnhealthy, Message: respond.SanitizeError(err)}
	}
	stats := h.DB.Stats()
	return CheckStatus{
		Status: statusHealthy,
		Details: map[string]any{
			"open_connections": stats.OpenConnections,
			"in_use":           stats.InUse,
			"idle":             stats.Idle,
			"wait_count":       stats.WaitCount,
		},
	}
}

func (h *HealthHandler) checkScheduler() CheckStatus {
	if !h.Scheduler.Started() {
		return CheckStatus{Status: statusDegraded, Message: "scheduler not started"}
	}
	c := CheckStatus{Status: statusHealthy}
	if tc, ok := h.Scheduler.(TriggerCounter); ok {
		c.Details = map[string]any{"triggers": tc.TriggerCount()}
	}
	return c
}

// ReadyHandler answers 200 once the database answers a ping and, when set,
// the scheduler has started.
type ReadyHandler struct {
	DB        *sql.DB
	Scheduler SchedulerState
}

func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.DB == nil {
		respond.Error(w, http.StatusServiceUnavailable, "database not configured")
		return
	}
	if err := h.DB.PingContext(ctx); err != nil {
		respond.Error(w, http.StatusServiceUnavailable, "database not ready")
		return
	}
	if h.Scheduler != nil && !h.Scheduler.Started() {
		respond.Error(w, http.StatusServiceUnavailable, "scheduler not started")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// LiveHandler always answers 200 while the process serves requests.
type LiveHandler struct{}

func (LiveHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "alive"})
}
