package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/bryanwahyu/design-alchemist/internal/application"
	"github.com/bryanwahyu/design-alchemist/internal/application/analysis"
	appbilling "github.com/bryanwahyu/design-alchemist/internal/application/billing"
	appquota "github.com/bryanwahyu/design-alchemist/internal/application/quota"
	"github.com/bryanwahyu/design-alchemist/internal/domain/ai"
	"github.com/bryanwahyu/design-alchemist/internal/domain/billing"
	"github.com/bryanwahyu/design-alchemist/internal/domain/design"
	"github.com/bryanwahyu/design-alchemist/internal/domain/identity"
	"github.com/bryanwahyu/design-alchemist/internal/domain/ledger"
	"github.com/bryanwahyu/design-alchemist/internal/domain/quota"
	"github.com/bryanwahyu/design-alchemist/internal/middleware"
)

// Deps is everything the HTTP surface talks to. Archive, Billing and Limiter are optional.
type Deps struct {
	Analysis       *analysis.Service
	Quota          *appquota.Service
	Billing        *appbilling.Service
	Identity       identity.Provider
	Ledger         ledger.Repository
	Archive        ledger.ReportArchive
	Health         map[string]middleware.HealthChecker
	Limiter        *middleware.RateLimiter
	AllowedOrigins []string
	Logger         *zap.Logger
	Clock          application.Clock
}

type Router struct {
	Deps
}

func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Clock == nil {
		d.Clock = application.SystemClock{}
	}
	r := &Router{Deps: d}
	mux := chi.NewRouter()

	mux.Use(middleware.LoggingMiddleware(d.Logger))
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	mux.Get("/health", middleware.HealthHandler(d.Health))
	mux.Get("/livez", middleware.LivenessHandler)
	mux.Get("/readyz", middleware.ReadinessHandler(d.Health))
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1", func(rt chi.Router) {
		rt.Group(func(pub chi.Router) {
			if d.Limiter != nil {
				pub.Use(middleware.RateLimitMiddleware(d.Limiter))
			}
			pub.Post("/auth/signup", r.wrap(r.handleSignUp))
			pub.Post("/auth/login", r.wrap(r.handleLogin))
		})
		rt.Post("/billing/webhook", r.wrap(r.handleWebhook))

		rt.Group(func(priv chi.Router) {
			priv.Use(middleware.BearerAuth(d.Identity))
			if d.Limiter != nil {
				priv.Use(middleware.RateLimitMiddleware(d.Limiter))
			}
			priv.Post("/auth/logout", r.wrap(r.handleLogout))
			priv.Get("/auth/me", r.wrap(r.handleMe))
			priv.Get("/quota", r.wrap(r.handleQuota))
			priv.Post("/analyze", r.wrap(r.handleAnalyze))
			priv.Get("/analyses", r.wrap(r.handleAnalyses))
			priv.Post("/billing/checkout", r.wrap(r.handleCheckout))
			priv.Post("/billing/simulated/complete", r.wrap(r.handleSimulatedComplete))
		})
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// badRequest is a client error whose message is safe to echo back.
type badRequest struct {
	msg string
	err error
}

func (e badRequest) Error() string { return e.msg }
func (e badRequest) Unwrap() error { return e.err }

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}

		var verr *middleware.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request", "fields": verr.Fields})
			return
		}
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			r.Logger.Error("request failed", zap.String("path", req.URL.Path), zap.Error(err))
		}
		writeError(w, status, err.Error())
	}
}

func statusFor(err error) int {
	var br badRequest
	switch {
	case errors.As(err, &br),
		errors.Is(err, design.ErrUnsupportedType),
		errors.Is(err, design.ErrTooLarge),
		errors.Is(err, design.ErrMalformedDataURI),
		errors.Is(err, identity.ErrMissingCredentials),
		errors.Is(err, identity.ErrWeakPassword),
		errors.Is(err, billing.ErrInvalidWebhook):
		return http.StatusBadRequest
	case errors.Is(err, identity.ErrUnauthenticated),
		errors.Is(err, identity.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, quota.ErrLimitReached):
		return http.StatusPaymentRequired
	case errors.Is(err, billing.ErrSessionMismatch):
		return http.StatusForbidden
	case errors.Is(err, sql.ErrNoRows),
		errors.Is(err, billing.ErrUnknownSession):
		return http.StatusNotFound
	case errors.Is(err, identity.ErrEmailTaken),
		errors.Is(err, billing.ErrAlreadyPaid):
		return http.StatusConflict
	case errors.Is(err, ai.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, billing.ErrNotConfigured):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(req *http.Request, dst any) error {
	if err := json.NewDecoder(req.Body).Decode(dst); err != nil {
		return badRequest{msg: "invalid JSON body: " + err.Error(), err: err}
	}
	return nil
}
