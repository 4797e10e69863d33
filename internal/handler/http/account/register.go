// Package account serves registration, login and the /me settings of the
// authenticated user.
package account

import (
	"net/http"

	accountUC "feed-digest/internal/usecase/account"
)

// Register adds the account routes to mux. The credential endpoints are
// public and wrapped in limit; /me routes are wrapped in authz.
func Register(mux *http.ServeMux, svc *accountUC.Service, authz, limit func(http.Handler) http.Handler) {
	mux.Handle("POST /auth/register", limit(RegisterHandler{svc}))
	mux.Handle("POST /auth/login", limit(LoginHandler{svc}))

	mux.Handle("GET /me", authz(MeHandler{svc}))
	mux.Handle("PUT /me/push-time", authz(PushTimeHandler{svc}))
	mux.Handle("PUT /me/fetch-period", authz(FetchPeriodHandler{svc}))
	mux.Handle("DELETE /me", authz(DeleteHandler{svc}))
}
