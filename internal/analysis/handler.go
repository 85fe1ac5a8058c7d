package analysis

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nutriscan/nutriscan/internal/platform/httpx"
	"github.com/nutriscan/nutriscan/internal/shared"
)

type productRequest struct {
	Product *ProductInput `json:"product"`
}

type compareRequest struct {
	Product1 *ProductInput `json:"product1"`
	Product2 *ProductInput `json:"product2"`
}

// Handler exposes the ingredient analysis endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers analysis routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/analyze", h.analyze)
	r.Post("/verdict", h.verdict)
	r.Post("/compare", h.compare)
}

func (h *Handler) analyze(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || req.Product == nil {
		httpx.RespondError(w, shared.ErrInvalidInput, "Product ingredients not available")
		return
	}
	out, err := h.service.Analyze(r.Context(), *req.Product)
	if err != nil {
		h.fail(w, err, "Product ingredients not available", "Failed to analyze ingredients")
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) verdict(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || req.Product == nil {
		httpx.RespondError(w, shared.ErrInvalidInput, "Ingredients not available")
		return
	}
	out, err := h.service.Verdict(r.Context(), *req.Product)
	if err != nil {
		h.fail(w, err, "Ingredients not available", "Assessment unavailable")
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) compare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || req.Product1 == nil || req.Product2 == nil {
		httpx.RespondError(w, shared.ErrInvalidInput, "Two products are required")
		return
	}
	out, err := h.service.Compare(r.Context(), *req.Product1, *req.Product2)
	if err != nil {
		h.fail(w, err, "Product ingredients not available", "Failed to compare products")
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) fail(w http.ResponseWriter, err error, invalid, failed string) {
	if errors.Is(err, shared.ErrInvalidInput) {
		httpx.RespondError(w, err, invalid)
		return
	}
	if errors.Is(err, ErrModelNotConfigured) {
		httpx.RespondError(w, err, "AI analysis unavailable")
		return
	}
	httpx.RespondError(w, err, failed)
}
