package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	authservice "feed-digest/internal/service/auth"
)

const testSecret = "0123456789abcdef0123456789abcdef"

/* ───────── ヘルパ ───────── */

func newTokens(t *testing.T) *authservice.TokenService {
	t.Helper()
	ts, err := authservice.NewTokenService(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserID(r.Context())
		if !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		_, _ = fmt.Fprintf(w, "%d", id)
	})
}

/* ───────── テスト ───────── */

func TestAuthz(t *testing.T) {
	ts := newTokens(t)
	valid, err := ts.Issue(42)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	other, _ := authservice.NewTokenService("ffffffffffffffffffffffffffffffff", time.Hour)
	forged, _ := other.Issue(42)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid token", "Bearer " + valid, http.StatusOK, "42"},
		{"scheme is case-insensitive", "bearer " + valid, http.StatusOK, "42"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"basic scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, ""},
		{"empty token", "Bearer   ", http.StatusUnauthorized, ""},
		{"wrong secret", "Bearer " + forged, http.StatusUnauthorized, ""},
		{"garbage", "Bearer not.a.jwt", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			Authz(ts)(echoUser()).ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && rr.Body.String() != tt.wantBody {
				t.Fatalf("body = %q, want %q", rr.Body.String(), tt.wantBody)
			}
			if tt.wantStatus == http.StatusUnauthorized && rr.Header().Get("WWW-Authenticate") == "" {
				t.Fatal("missing WWW-Authenticate header")
			}
		})
	}
}

type stubVerifier struct{ err error }

func (s stubVerifier) Verify(string) (int64, error) { return 0, s.err }

func TestAuthz_VerifierErrorHidden(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer abc")
	rr := httptest.NewRecorder()
	Authz(stubVerifier{err: errors.New("signature mismatch for kid 7")})(echoUser()).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rr.Code)
	}
	if got := rr.Body.String(); got != "{\"error\":\"unauthorized\"}\n" {
		t.Fatalf("body = %q", got)
	}
}

func TestUserID(t *testing.T) {
	if _, ok := UserID(context.Background()); ok {
		t.Fatal("empty context should have no user")
	}
	if _, ok := UserID(WithUserID(context.Background(), 0)); ok {
		t.Fatal("zero id is not a user")
	}
	if id, ok := UserID(WithUserID(context.Background(), 7)); !ok || id != 7 {
		t.Fatalf("UserID = %d, %v", id, ok)
	}
}
