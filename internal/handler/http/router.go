package http

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"feed-digest/internal/handler/http/account"
	"feed-digest/internal/handler/http/auth"
	"feed-digest/internal/handler/http/digest"
	"feed-digest/internal/handler/http/middleware"
	"feed-digest/internal/handler/http/requestid"
	"feed-digest/internal/handler/http/subscription"
	"feed-digest/internal/observability/tracing"
	accountUC "feed-digest/internal/usecase/account"
	subUC "feed-digest/internal/usecase/subscription"
)

// Scheduler is what the HTTP surface needs from the trigger registry.
type Scheduler interface {
	SchedulerState
	digest.TriggerLister
}

// RouterConfig carries the dependencies of NewRouter.
type RouterConfig struct {
	Logger        *slog.Logger
	DB            *sql.DB
	Version       string
	Accounts      *accountUC.Service
	Subscriptions *subUC.Service
	Runner        digest.Runner
	Scheduler     Scheduler
	Tokens        auth.TokenVerifier
	CORS          middleware.CORSConfig

	// MaxBodyBytes caps request bodies. Defaults to 1MB.
	MaxBodyBytes int64
	// AuthRequestsPerMinute limits register/login per client IP. Defaults to 5.
	AuthRequestsPerMinute int
}

// NewRouter wires every route and wraps the mux in the middleware chain.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	if cfg.AuthRequestsPerMinute <= 0 {
		cfg.AuthRequestsPerMinute = 5
	}

	authz := auth.Authz(cfg.Tokens)
	limiter := NewRateLimiter(cfg.AuthRequestsPerMinute, time.Minute)

	mux := http.NewServeMux()
	mux.Handle("GET /health", &HealthHandler{DB: cfg.DB, Scheduler: cfg.Scheduler, Version: cfg.Version})
	mux.Handle("GET /ready", &ReadyHandler{DB: cfg.DB, Scheduler: cfg.Scheduler})
	mux.Handle("GET /live", LiveHandler{})
	mux.Handle("GET /metrics", MetricsHandler())

	account.Register(mux, cfg.Accounts, authz, limiter.Limit)
	subscription.Register(mux, cfg.Subscriptions, authz)
	digest.Register(mux, cfg.Runner, cfg.Scheduler, authz)

	// tracing sits next to the mux so spans are named after the matched
	// route pattern.
	var h http.Handler = tracing.Middleware(mux)
	h = LimitRequest(cfg.MaxBodyBytes)(h)
	h = MetricsMiddleware(h)
	h = middleware.SecurityHeaders(middleware.APIPolicy())(h)
	h = middleware.CORS(cfg.CORS)(h)
	h = Logging(cfg.Logger)(h)
	h = Recover(cfg.Logger)(h)
	h = requestid.Middleware(h)
	return h
}
