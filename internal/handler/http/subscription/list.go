package subscription

import (
	"net/http"

	"feed-digest/internal/handler/http/auth"
	"feed-digest/internal/handler/http/respond"
	subUC "feed-digest/internal/usecase/subscription"
)

type ListHandler struct{ Svc *subUC.Service }

func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	list, err := h.Svc.List(r.Context(), userID)
	if err != nil {
		respond.SafeError(w, err)
		return
	}
	out := make([]DTO, 0, len(list))
	for _, s := range list {
		out = append(out, toDTO(s))
	}
	respond.JSON(w, http.StatusOK, out)
}
