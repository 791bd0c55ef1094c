package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/storefront-sync/internal/store"
	"github.com/utafrali/storefront-sync/pkg/health"
	"github.com/utafrali/storefront-sync/pkg/middleware"
)

// RouterConfig carries the dependencies and settings the router needs.
type RouterConfig struct {
	Invalidator      Invalidator
	PageCache        PageCache
	Builder          Rebuilder
	Store            store.Store
	Health           *health.Handler
	RevalidateSecret string
	Logger           *slog.Logger
}

// NewRouter creates a chi router with all service routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.PrometheusMetrics("storefront-sync"))

	// Health and metrics endpoints
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	cacheHandler := NewCacheHandler(cfg.Invalidator, cfg.Logger)
	revalidateHandler := NewRevalidateHandler(cfg.PageCache, cfg.RevalidateSecret, cfg.Logger)
	staticHandler := NewStaticDataHandler(cfg.Store, cfg.Builder, cfg.Logger)
	snapshotHandler := NewSnapshotHandler(cfg.Invalidator, cfg.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/cache/invalidate", cacheHandler.Invalidate)

		r.Post("/revalidate", revalidateHandler.Revalidate)
		r.Get("/revalidate", revalidateHandler.Revalidate)

		r.Post("/snapshot/rebuild", snapshotHandler.Rebuild)

		r.Route("/static-data", func(r chi.Router) {
			r.Use(middleware.CacheControl(300, 600))

			r.Get("/manifest", staticHandler.Manifest)
			r.Get("/homepage", staticHandler.Homepage)
		})
	})

	return r
}
