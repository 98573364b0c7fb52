package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/meridian-commerce/storefront/pkg/httputil"

	"github.com/meridian-commerce/storefront/internal/service"
)

// SettingsHandler handles HTTP requests for store settings.
type SettingsHandler struct {
	service *service.SettingsService
	logger  *slog.Logger
}

// NewSettingsHandler creates a new settings HTTP handler.
func NewSettingsHandler(svc *service.SettingsService, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{
		service: svc,
		logger:  logger,
	}
}

// GetSettings handles GET /api/v1/settings
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.GetSettings(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: settings})
}

// UpdateSettings handles PUT /api/v1/admin/settings
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req service.UpdateSettingsInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	settings, err := h.service.UpdateSettings(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: settings})
}
