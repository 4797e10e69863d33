// Package digest serves the "run now" endpoint and the caller's trigger.
package digest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"feed-digest/internal/domain/entity"
	"feed-digest/internal/handler/http/auth"
	"feed-digest/internal/handler/http/respond"
	"feed-digest/internal/observability/logging"
	"feed-digest/internal/observability/metrics"
	"feed-digest/internal/usecase/pipeline"
	"feed-digest/internal/usecase/schedule"
)

// Runner executes one digest run. pipeline.Service implements it.
type Runner interface {
	Run(ctx context.Context, userID int64) (*pipeline.RunResult, error)
}

// TriggerLister exposes the registered triggers. schedule.Scheduler
// implements it.
type TriggerLister interface {
	Triggers() []schedule.Trigger
}

// Register adds the digest routes to mux behind authz.
func Register(mux *http.ServeMux, runner Runner, triggers TriggerLister, authz func(http.Handler) http.Handler) {
	mux.Handle("POST /digest/run", authz(RunHandler{runner}))
	mux.Handle("GET /digest/trigger", authz(TriggerHandler{triggers}))
}

// SummaryDTO is one summary produced by a run.
type SummaryDTO struct {
	SubscriptionID int64  `json:"subscriptionId"`
	ArticleGUID    string `json:"articleGuid"`
	Title          string `json:"title"`
	Link           string `json:"link"`
	Content        string `json:"content"`
}

// RunResponse is the body of POST /digest/run.
type RunResponse struct {
	Summaries         []SummaryDTO   `json:"summaries"`
	NewSummariesCount int            `json:"newSummariesCount"`
	Stats             pipeline.Stats `json:"stats"`
	Notified          bool           `json:"notified"`
	DurationMs        int64          `json:"durationMs"`
}

// NewRunResponse renders a run result. Summaries is never null.
func NewRunResponse(res *pipeline.RunResult) RunResponse {
	out := RunResponse{
		Summaries:         make([]SummaryDTO, 0, len(res.NewSummaries)),
		NewSummariesCount: len(res.NewSummaries),
		Stats:             res.Stats,
		Notified:          res.Notified,
		DurationMs:        res.Duration.Milliseconds(),
	}
	for _, s := range res.NewSummaries {
		out.Summaries = append(out.Summaries, SummaryDTO{
			SubscriptionID: s.SubscriptionID,
			ArticleGUID:    s.ArticleGUID,
			Title:          s.Title,
			Link:           s.Link,
			Content:        s.Content,
		})
	}
	return out
}

// RunHandler runs the caller's digest synchronously.
type RunHandler struct{ Runner Runner }

func (h RunHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	start := time.Now()
	res, err := h.Runner.Run(r.Context(), userID)
	metrics.RecordRun(metrics.TriggerManual, err == nil, time.Since(start))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logging.FromContext(r.Context()).Info("digest run abandoned by client", slog.Int64("user_id", userID))
		}
		respond.SafeError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, NewRunResponse(res))
}

// TriggerResponse describes the caller's daily trigger.
type TriggerResponse struct {
	Key      string    `json:"key"`
	PushTime string    `json:"pushTime"`
	Next     time.Time `json:"next"`
}

// TriggerHandler returns the caller's registered trigger, or 404 when no
// push time is set.
type TriggerHandler struct{ Triggers TriggerLister }

func (h TriggerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	for _, t := range h.Triggers.Triggers() {
		if t.UserID == userID {
			respond.JSON(w, http.StatusOK, TriggerResponse{Key: t.Key, PushTime: t.PushTime, Next: t.Next})
			return
		}
	}
	respond.SafeError(w, entity.ErrNotFound)
}
