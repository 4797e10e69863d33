// Package subscription serves the /subscriptions resource of the
// authenticated user.
package subscription

import (
	"net/http"

	subUC "feed-digest/internal/usecase/subscription"
)

// Register adds the subscription routes to mux. Every route is wrapped in
// authz.
func Register(mux *http.ServeMux, svc *subUC.Service, authz func(http.Handler) http.Handler) {
	mux.Handle("GET /subscriptions", authz(ListHandler{svc}))
	mux.Handle("POST /subscriptions", authz(CreateHandler{svc}))
	mux.Handle("PATCH /subscriptions/{id}", authz(UpdateHandler{svc}))
	mux.Handle("DELETE /subscriptions/{id}", authz(DeleteHandler{svc}))
	mux.Handle("GET /subscriptions/{id}/summaries", authz(HistoryHandler{svc}))
	mux.Handle("POST /subscriptions/{id}/clear-history", authz(ClearHistoryHandler{svc}))
}
