package subscription

import (
	"net/http"

	"feed-digest/internal/handler/http/auth"
	"feed-digest/internal/handler/http/pathutil"
	"feed-digest/internal/handler/http/respond"
	subUC "feed-digest/internal/usecase/subscription"
)

type DeleteHandler struct{ Svc *subUC.Service }

func (h DeleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.PathID(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	userID, _ := auth.UserID(r.Context())
	if err := h.Svc.Delete(r.Context(), userID, id); err != nil {
		respond.SafeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
