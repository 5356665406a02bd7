// Package rest provides HTTP handlers for catalog operations.
package rest

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	cerrors "github.com/unabstore/shop/internal/catalog/errors"
	"github.com/unabstore/shop/internal/catalog/service"
	"github.com/unabstore/shop/pkg/web"
)

// DegradedHeader is set on list responses served empty because the collection could not be read.
const DegradedHeader = "X-Catalog-Degraded"

type Handler struct {
	service service.ProductService
	logger  *slog.Logger
}

// NewHandler creates a new catalog handler with the provided service.
func NewHandler(service service.ProductService, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the catalog routes. Writes and the stream go through requireAuth.
func (h *Handler) RegisterRoutes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", h.Create)
			r.Get("/stream", h.Stream)
			r.Delete("/{id}", h.Delete)
		})
	})

	r.Get("/healthz", h.HealthCheck)
}

// List returns every product. A failed read is served as an empty list marked degraded.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Error retrieving product list", "error", err)
		w.Header().Set(DegradedHeader, "true")
	}
	h.logger.DebugContext(r.Context(), "Retrieved product list", "count", len(list))
	web.RespondJSON(w, h.logger, http.StatusOK, list)
}

// Create handles the creation of a new product.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var dto service.ProductCreateDto
	if err := web.DecodeJSON(r, &dto); err != nil {
		h.logger.WarnContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.service.Create(r.Context(), dto)
	if err != nil {
		var verr *cerrors.ValidationError
		if errors.As(err, &verr) {
			h.logger.WarnContext(r.Context(), "Validation errors occurred", "errors", verr.Map())
			web.RespondValidation(w, h.logger, cerrors.UserMessage(err), verr.Map())
			return
		}
		h.logger.ErrorContext(r.Context(), "Error creating product", "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, cerrors.UserMessage(err))
		return
	}
	h.logger.InfoContext(r.Context(), "Product created successfully", "ID", res.Product.ID, "Name", res.Product.Name)
	web.RespondJSON(w, h.logger, http.StatusCreated, res)
}

// deleteResponse reduces a delete outcome to a success flag.
type deleteResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Delete removes a product by ID. Unknown IDs succeed.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.ErrorContext(r.Context(), "Error deleting product", "ID", id, "error", err)
		web.RespondJSON(w, h.logger, http.StatusOK, deleteResponse{Success: false, Error: cerrors.UserMessage(err)})
		return
	}
	h.logger.InfoContext(r.Context(), "Product deleted successfully", "ID", id)
	web.RespondJSON(w, h.logger, http.StatusOK, deleteResponse{Success: true})
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
