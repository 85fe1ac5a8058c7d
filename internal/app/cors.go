package app

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/nutriscan/nutriscan/internal/platform/httpx"
	"github.com/nutriscan/nutriscan/internal/shared"
)

// CORSRejectedMessage is the body of a refused cross-origin request.
const CORSRejectedMessage = "Not allowed by CORS"

const (
	corsAllowMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization, X-Request-Id"
	corsMaxAge       = "600"
)

// CORSGuard admits requests without an Origin header and requests from an
// allow-listed origin. Everything else is refused with 403 before routing.
type CORSGuard struct {
	allowed map[string]struct{}
	logger  *slog.Logger
}

// NewCORSGuard builds a guard over origins. Trailing slashes are ignored.
func NewCORSGuard(origins []string, logger *slog.Logger) *CORSGuard {
	if logger == nil {
		logger = slog.Default()
	}
	allowed := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		if o := normalizeOrigin(origin); o != "" {
			allowed[o] = struct{}{}
		}
	}
	return &CORSGuard{allowed: allowed, logger: logger}
}

// Allows reports whether origin may call the API.
func (g *CORSGuard) Allows(origin string) bool {
	if origin == "" {
		return true
	}
	_, ok := g.allowed[normalizeOrigin(origin)]
	return ok
}

// Middleware enforces the allow-list.
func (g *CORSGuard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Add("Vary", "Origin")
		if !g.Allows(origin) {
			g.logger.Warn("cors rejected", slog.String("origin", origin), slog.String("path", r.URL.Path))
			httpx.RespondError(w, shared.ErrCorsRejected, CORSRejectedMessage)
			return
		}

		h := w.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			h.Set("Access-Control-Allow-Methods", corsAllowMethods)
			h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
			h.Set("Access-Control-Max-Age", corsMaxAge)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func normalizeOrigin(origin string) string {
	return strings.TrimRight(strings.TrimSpace(origin), "/")
}
