package account

import (
	"bytes"
	"encoding/json"
	"net/http"

	"feed-digest/internal/handler/http/auth"
	"feed-digest/internal/handler/http/respond"
	accountUC "feed-digest/internal/usecase/account"
)

type MeHandler struct{ Svc *accountUC.Service }

func (h MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	writeSettings(w, r, h.Svc, userID)
}

func writeSettings(w http.ResponseWriter, r *http.Request, svc *accountUC.Service, userID int64) {
	settings, err := svc.Settings(r.Context(), userID)
	if err != nil {
		respond.SafeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, settings)
}

// PushTimeHandler sets the daily push time. {"pushTime": null} cancels the
// scheduled digest.
type PushTimeHandler struct{ Svc *accountUC.Service }

func (h PushTimeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PushTime json.RawMessage `json:"pushTime"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.PushTime) == 0 {
		respond.JSON(w, http.StatusBadRequest, map[string]string{
			"error": "is required", "field": "pushTime",
		})
		return
	}
	var pushTime *string
	if !bytes.Equal(req.PushTime, []byte("null")) {
		var s string
		if err := json.Unmarshal(req.PushTime, &s); err != nil {
			respond.JSON(w, http.StatusBadRequest, map[string]string{
				"error": "must be a HH:MM string or null", "field": "pushTime",
			})
			return
		}
		pushTime = &s
	}

	userID, _ := auth.UserID(r.Context())
	if err := h.Svc.UpdatePushTime(r.Context(), userID, pushTime); err != nil {
		respond.SafeError(w, err)
		return
	}
	writeSettings(w, r, h.Svc, userID)
}

// FetchPeriodHandler sets the default lookback window.
type FetchPeriodHandler struct{ Svc *accountUC.Service }

func (h FetchPeriodHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FetchPeriodDays *int `json:"fetchPeriodDays"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.FetchPeriodDays == nil {
		respond.JSON(w, http.StatusBadRequest, map[string]string{
			"error": "is required", "field": "fetchPeriodDays",
		})
		return
	}

	userID, _ := auth.UserID(r.Context())
	if err := h.Svc.UpdateFetchPeriod(r.Context(), userID, *req.FetchPeriodDays); err != nil {
		respond.SafeError(w, err)
		return
	}
	writeSettings(w, r, h.Svc, userID)
}

// DeleteHandler removes the account with its subscriptions and ledger.
type DeleteHandler struct{ Svc *accountUC.Service }

func (h DeleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	if err := h.Svc.Delete(r.Context(), userID); err != nil {
		respond.SafeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
