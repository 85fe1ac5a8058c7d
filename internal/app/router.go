package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/nutriscan/nutriscan/internal/analysis"
	"github.com/nutriscan/nutriscan/internal/history"
	"github.com/nutriscan/nutriscan/internal/observability"
	"github.com/nutriscan/nutriscan/internal/platform/httpx"
	"github.com/nutriscan/nutriscan/internal/product"
	"github.com/nutriscan/nutriscan/jobs"
)

// HealthMessage is reported by the liveness endpoint.
const HealthMessage = "Nutritional Insights API running"

// Pinger reports backing store reachability for readiness checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	ProductHandler  *product.Handler
	HistoryHandler  *history.Handler
	AnalysisHandler *analysis.Handler
	JobHandler      *jobs.Handler
	Store           Pinger
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with NutriScan defaults.
func NewRouter(params RouterParams) http.Handler {
	if params.Logger == nil {
		params.Logger = slog.Default()
	}
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	if !InTestMode() {
		r.Use(chimw.Logger)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "OK", "message": HealthMessage})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if params.Store != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := params.Store.Ping(ctx); err != nil {
				params.Logger.Warn("readiness check failed", slog.Any("error", err))
				httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	api := APIStack(params.Config)
	mountClientRoutes := func(r chi.Router) {
		if params.ProductHandler != nil {
			params.ProductHandler.MountRoutes(r)
		}
		if params.HistoryHandler != nil {
			params.HistoryHandler.MountRoutes(r)
		}
	}

	r.Group(func(r chi.Router) {
		r.Use(api...)
		mountClientRoutes(r)
		r.Route("/api", func(r chi.Router) {
			mountClientRoutes(r)
			if params.AnalysisHandler != nil {
				params.AnalysisHandler.MountRoutes(r)
			}
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusNotFound, httpx.ErrorBody{Error: "Route not found"})
	})

	return r
}
