package account

import (
	"encoding/json"
	"net/http"
	"time"

	"feed-digest/internal/handler/http/auth"
	"feed-digest/internal/handler/http/respond"
	accountUC "feed-digest/internal/usecase/account"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterHandler creates an account and returns its settings.
type RegisterHandler struct{ Svc *accountUC.Service }

func (h RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		auth.RecordAuthRequest("register", false, time.Since(start).Seconds())
		respond.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	settings, err := h.Svc.Register(r.Context(), req.Email, req.Password)
	auth.RecordAuthRequest("register", err == nil, time.Since(start).Seconds())
	if err != nil {
		respond.SafeError(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, settings)
}

// LoginHandler exchanges credentials for a bearer token.
type LoginHandler struct{ Svc *accountUC.Service }

func (h LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		auth.RecordAuthRequest("login", false, time.Since(start).Seconds())
		respond.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		auth.RecordAuthRequest("login", false, time.Since(start).Seconds())
		respond.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	token, err := h.Svc.Login(r.Context(), req.Email, req.Password)
	auth.RecordAuthRequest("login", err == nil, time.Since(start).Seconds())
	if err != nil {
		respond.SafeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"token": token})
}
