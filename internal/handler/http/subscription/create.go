package subscription

import (
	"encoding/json"
	"net/http"

	"feed-digest/internal/handler/http/auth"
	"feed-digest/internal/handler/http/respond"
	subUC "feed-digest/internal/usecase/subscription"
)

type CreateHandler struct{ Svc *subUC.Service }

func (h CreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL             string `json:"url"`
		Title           string `json:"title"`
		FetchPeriodDays *int   `json:"fetchPeriodDays"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	userID, _ := auth.UserID(r.Context())
	sub, err := h.Svc.Create(r.Context(), userID, subUC.CreateInput{
		URL: req.URL, Title: req.Title, FetchPeriodDays: req.FetchPeriodDays,
	})
	if err != nil {
		respond.SafeError(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, toDTO(sub))
}
