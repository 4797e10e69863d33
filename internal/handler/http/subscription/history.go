package subscription

import (
	"net/http"
	"strconv"

	"feed-digest/internal/handler/http/auth"
	"feed-digest/internal/handler/http/pathutil"
	"feed-digest/internal/handler/http/respond"
	subUC "feed-digest/internal/usecase/subscription"
)

// HistoryHandler lists the ledger entries of one subscription, newest
// first. ?limit=N bounds the page.
type HistoryHandler struct{ Svc *subUC.Service }

func (h HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.PathID(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		limit, err = strconv.Atoi(s)
		if err != nil || limit < 1 {
			respond.JSON(w, http.StatusBadRequest, map[string]string{
				"error": "must be a positive integer", "field": "limit",
			})
			return
		}
	}

	userID, _ := auth.UserID(r.Context())
	entries, err := h.Svc.History(r.Context(), userID, id, limit)
	if err != nil {
		respond.SafeError(w, err)
		return
	}
	out := make([]SummaryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, SummaryDTO{
			ID: e.ID, ArticleGUID: e.ArticleGUID,
			Title: e.Title, Link: e.Link, Content: e.Content,
			CreatedAt: e.CreatedAt,
		})
	}
	respond.JSON(w, http.StatusOK, out)
}

// ClearHistoryHandler forgets the subscription's ledger entries so the next
// run re-summarizes everything in the window.
type ClearHistoryHandler struct{ Svc *subUC.Service }

func (h ClearHistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.PathID(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	userID, _ := auth.UserID(r.Context())
	n, err := h.Svc.ClearHistory(r.Context(), userID, id)
	if err != nil {
		respond.SafeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]int64{"removed": n})
}
