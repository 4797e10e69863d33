package subscription

import (
	"bytes"
	"encoding/json"
	"net/http"

	"feed-digest/internal/handler/http/auth"
	"feed-digest/internal/handler/http/pathutil"
	"feed-digest/internal/handler/http/respond"
	subUC "feed-digest/internal/usecase/subscription"
)

// UpdateHandler sets the lookback override. {"fetchPeriodDays": null}
// clears it; omitting the field is an error.
type UpdateHandler struct{ Svc *subUC.Service }

func (h UpdateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.PathID(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		FetchPeriodDays json.RawMessage `json:"fetchPeriodDays"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.FetchPeriodDays) == 0 {
		respond.JSON(w, http.StatusBadRequest, map[string]string{
			"error": "is required", "field": "fetchPeriodDays",
		})
		return
	}
	var days *int
	if !bytes.Equal(req.FetchPeriodDays, []byte("null")) {
		var n int
		if err := json.Unmarshal(req.FetchPeriodDays, &n); err != nil {
			respond.JSON(w, http.StatusBadRequest, map[string]string{
				"error": "must be an integer or null", "field": "fetchPeriodDays",
			})
			return
		}
		days = &n
	}

	userID, _ := auth.UserID(r.Context())
	if err := h.Svc.UpdateLookback(r.Context(), userID, id, days); err != nil {
		respond.SafeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
