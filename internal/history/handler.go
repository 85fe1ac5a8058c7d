package history

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nutriscan/nutriscan/internal/platform/httpx"
	"github.com/nutriscan/nutriscan/internal/shared"
)

// Handler exposes scan history over HTTP.
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

// MountRoutes registers history routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/scan-history", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Delete("/{id}", h.delete)
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, shared.ErrInvalidInput, "Invalid request body")
		return
	}
	rec, err := h.service.Create(r.Context(), in)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidInput) {
			httpx.RespondError(w, err, "Invalid scan record")
			return
		}
		httpx.RespondError(w, err, "Failed to save scan")
		return
	}
	httpx.JSON(w, http.StatusCreated, httpx.MessageBody{Message: "Scan saved", Data: rec})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httpx.RespondError(w, shared.ErrInvalidInput, "Invalid limit")
			return
		}
		limit = n
	}
	records, err := h.service.List(r.Context(), limit)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidInput) {
			httpx.RespondError(w, err, "Invalid limit")
			return
		}
		httpx.RespondError(w, err, "Failed to fetch history")
		return
	}
	httpx.JSON(w, http.StatusOK, records)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteByID(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err, "Failed to delete scan")
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.MessageBody{Message: "Scan deleted"})
}
