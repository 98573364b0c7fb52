package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-commerce/storefront/pkg/httputil"
	"github.com/meridian-commerce/storefront/pkg/validator"

	"github.com/meridian-commerce/storefront/internal/service"
)

// PageHandler handles HTTP requests for content page endpoints.
type PageHandler struct {
	service *service.PageService
	logger  *slog.Logger
}

// NewPageHandler creates a new page HTTP handler.
func NewPageHandler(svc *service.PageService, logger *slog.Logger) *PageHandler {
	return &PageHandler{
		service: svc,
		logger:  logger,
	}
}

// GetPublishedPage handles GET /api/v1/pages/{slug}
func (h *PageHandler) GetPublishedPage(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.GetPublishedPage(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: page})
}

// ListPages handles GET /api/v1/admin/pages
func (h *PageHandler) ListPages(w http.ResponseWriter, r *http.Request) {
	pages, err := h.service.ListPages(r.Context(), false)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: pages})
}

// CreatePage handles POST /api/v1/admin/pages
func (h *PageHandler) CreatePage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req service.CreatePageInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	page, err := h.service.CreatePage(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: page})
}

// UpdatePage handles PUT /api/v1/admin/pages/{id}
func (h *PageHandler) UpdatePage(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req service.UpdatePageInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	page, err := h.service.UpdatePage(r.Context(), id.String(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: page})
}

// DeletePage handles DELETE /api/v1/admin/pages/{id}
func (h *PageHandler) DeletePage(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeletePage(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
