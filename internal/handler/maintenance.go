package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yourorg/tenantportal/internal/domain"
	"github.com/yourorg/tenantportal/internal/listing"
	"github.com/yourorg/tenantportal/internal/observability/metrics"
	"github.com/yourorg/tenantportal/internal/security/middleware"
	"github.com/yourorg/tenantportal/internal/service"
)

// MaintenanceHandler handles tenant-facing maintenance endpoints
type MaintenanceHandler struct {
	maintenanceService *service.MaintenanceService
	logger             *slog.Logger
}

// NewMaintenanceHandler creates a new tenant maintenance handler
func NewMaintenanceHandler(maintenanceService *service.MaintenanceService, logger *slog.Logger) *MaintenanceHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &MaintenanceHandler{
		maintenanceService: maintenanceService,
		logger:             logger,
	}
}

// CreateRequestBody represents a new maintenance request
type CreateRequestBody struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Urgency     string `json:"urgency"`
	Category    string `json:"category"`
}

// Create handles POST /api/maintenance
func (h *MaintenanceHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	var req CreateRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	created, err := h.maintenanceService.Create(user.ID, req.Title, req.Description, req.Urgency, req.Category)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	metrics.ObserveMaintenanceCreated(string(created.Urgency))
	writeJSON(w, http.StatusCreated, listing.FormatRequest(created))
}

// List handles GET /api/maintenance — the tenant's own requests only,
// with filter, sort and pagination parameters
func (h *MaintenanceHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	result, err := h.maintenanceService.List(r.URL.Query(), domain.RequestFilter{UserID: user.ID})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// AddImagesBody represents an image append request
type AddImagesBody struct {
	Images []string `json:"images"`
}

// AddImages handles PATCH /api/maintenance/{id}/images. Only the owning
// tenant may append, and closed requests reject appends.
func (h *MaintenanceHandler) AddImages(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	var req AddImagesBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	updated, err := h.maintenanceService.AddImages(r.PathValue("id"), user.ID, req.Images)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "images added",
		"request": listing.FormatRequest(updated),
	})
}
