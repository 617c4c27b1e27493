package api

import (
	"context"

	"github.com/Harshitk-cp/augur/internal/api/handlers"
	mw "github.com/Harshitk-cp/augur/internal/api/middleware"
	"github.com/Harshitk-cp/augur/internal/config"
	"github.com/Harshitk-cp/augur/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter serves the operational endpoints of a running brain. The
// rate-limit cleanup goroutine stops with ctx.
func NewRouter(ctx context.Context, brain *service.Brain, store handlers.Pinger, logger *zap.Logger) *chi.Mux {
	statusHandler := handlers.NewStatusHandler(brain, store, logger)

	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Metrics)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(ctx, config.RateLimitRPS(), config.RateLimitBurst()))

	r.Get("/health", statusHandler.Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/version", statusHandler.Version)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", statusHandler.Status)
	})

	return r
}
