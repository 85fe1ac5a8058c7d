package product

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nutriscan/nutriscan/internal/platform/httpx"
	"github.com/nutriscan/nutriscan/internal/shared"
)

// Getter is the pipeline surface the handler depends on.
type Getter interface {
	Get(ctx context.Context, barcode string) (Product, error)
}

// Handler serves product lookups.
type Handler struct {
	logger  *slog.Logger
	service Getter
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service Getter) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers product routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/product/{barcode}", h.getProduct)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	barcode := chi.URLParam(r, "barcode")
	p, err := h.service.Get(r.Context(), barcode)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrInvalidInput):
			httpx.RespondError(w, err, "Invalid barcode format")
		case errors.Is(err, shared.ErrNotFound):
			httpx.RespondError(w, err, "Product not found")
		default:
			h.logger.Error("get product", slog.String("barcode", barcode), slog.Any("error", err))
			httpx.RespondError(w, err, "Failed to fetch product")
		}
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}
