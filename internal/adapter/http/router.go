package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/smsledger/internal/adapter/http/handler"
	"github.com/iho/smsledger/internal/adapter/http/middleware"
	"github.com/iho/smsledger/internal/domain"
	"github.com/iho/smsledger/internal/infrastructure/metrics"
	"github.com/iho/smsledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler  *handler.AccountHandler
	FreezeHandler   *handler.FreezeHandler
	PurchaseHandler *handler.PurchaseHandler
	SweepHandler    *handler.SweepHandler
	EntryHandler    *handler.EntryHandler
	LedgerHandler   *handler.LedgerHandler
	HealthHandler   *handler.HealthHandler

	// MetricsHandler serves /metrics when set, typically promhttp.Handler().
	MetricsHandler http.Handler
	Metrics        *metrics.Metrics
	Logger         zerolog.Logger

	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	// TokenVerifier enables bearer auth on /api/v1 when set.
	TokenVerifier middleware.TokenVerifier
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.TokenVerifier != nil {
			r.Use(middleware.AuthMiddleware(cfg.TokenVerifier, cfg.Metrics))
		}
		r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger).Wrap)
		}

		resolvers := middleware.RequirePermission(domain.Role.CanResolve)
		sweepers := middleware.RequirePermission(domain.Role.CanSweep)
		admins := middleware.RequirePermission(domain.Role.CanManageAccounts)

		r.With(resolvers).Post("/reserve", cfg.FreezeHandler.Reserve)
		r.With(resolvers).Post("/resolve", cfg.FreezeHandler.Resolve)
		r.With(sweepers).Post("/sweep", cfg.SweepHandler.Sweep)
		r.With(resolvers).Post("/purchases", cfg.PurchaseHandler.Purchase)
		r.With(resolvers).Post("/provider/callbacks", cfg.PurchaseHandler.Callback)

		r.Route("/accounts", func(r chi.Router) {
			r.With(admins).Post("/", cfg.AccountHandler.Create)
			r.Get("/", cfg.AccountHandler.List)
			r.Get("/{id}", cfg.AccountHandler.Get)
			r.With(admins).Post("/{id}/deposits", cfg.AccountHandler.Deposit)
			r.Get("/{id}/freezes", cfg.FreezeHandler.ListByAccount)
			r.Get("/{id}/entries", cfg.EntryHandler.ListByAccount)
		})

		r.Route("/freezes", func(r chi.Router) {
			r.Get("/{id}", cfg.FreezeHandler.Get)
			r.Get("/{id}/entries", cfg.EntryHandler.ListByFreeze)
			r.With(resolvers).Post("/{id}/reconcile", cfg.PurchaseHandler.Reconcile)
		})

		r.Get("/ledger/consistency", cfg.LedgerHandler.CheckConsistency)
	})

	return r
}
