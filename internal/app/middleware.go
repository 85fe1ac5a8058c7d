package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"github.com/nutriscan/nutriscan/internal/observability"
	"github.com/nutriscan/nutriscan/internal/platform/httpx"
	"github.com/nutriscan/nutriscan/internal/shared"
)

// RateLimitMessage is returned to clients that exceed their request budget.
const RateLimitMessage = "Too many requests from this IP, please try again later."

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics
}

// MiddlewareStack installs the outer chain applied to every route.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "no-referrer",
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		SSLRedirect:           cfg.Config.IsProduction(),
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		STSSeconds:            15552000,
		STSIncludeSubdomains:  true,
		IsDevelopment:         !cfg.Config.IsProduction(),
	})

	var origins []string
	if cfg.Config != nil {
		origins = cfg.Config.CORSAllowedOrigins
	}
	cors := NewCORSGuard(origins, logger)

	middlewares := []func(http.Handler) http.Handler{
		middleware.RealIP,
		middleware.RequestID,
		middleware.Recoverer,
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := secureMiddleware.Process(w, r); err != nil {
					logger.Warn("secure headers blocked request", slog.Any("error", err))
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				next.ServeHTTP(w, r)
			})
		},
	}
	if cfg.Metrics != nil {
		middlewares = append(middlewares, cfg.Metrics.Middleware)
	}
	return append(middlewares, cors.Middleware)
}

// APIStack is applied to the client-facing API routes: a per-IP rate limit,
// a request deadline and response compression.
func APIStack(cfg *Config) []func(http.Handler) http.Handler {
	requests, window := 60, time.Minute
	timeout := 60 * time.Second
	if cfg != nil {
		if cfg.RateLimitRequests > 0 {
			requests = cfg.RateLimitRequests
		}
		if cfg.RateLimitWindow > 0 {
			window = cfg.RateLimitWindow
		}
		if cfg.AppRequestTimeout > 0 {
			timeout = cfg.AppRequestTimeout
		}
	}
	return []func(http.Handler) http.Handler{
		NewRateLimiter(requests, window),
		middleware.Timeout(timeout),
		middleware.Compress(5),
	}
}

// NewRateLimiter limits each client IP to requests per fixed window.
func NewRateLimiter(requests int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(requests, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitCounter(newFixedWindowCounter(window)),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.RespondError(w, shared.ErrRateLimited, RateLimitMessage)
		}),
	)
}
