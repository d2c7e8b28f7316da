package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yourorg/tenantportal/internal/domain"
	"github.com/yourorg/tenantportal/internal/listing"
	"github.com/yourorg/tenantportal/internal/security/middleware"
	"github.com/yourorg/tenantportal/internal/service"
)

// AdminMaintenanceHandler handles admin-facing maintenance endpoints
type AdminMaintenanceHandler struct {
	maintenanceService *service.MaintenanceService
	logger             *slog.Logger
}

// NewAdminMaintenanceHandler creates a new admin maintenance handler
func NewAdminMaintenanceHandler(maintenanceService *service.MaintenanceService, logger *slog.Logger) *AdminMaintenanceHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &AdminMaintenanceHandler{
		maintenanceService: maintenanceService,
		logger:             logger,
	}
}

// ListAll handles GET /api/admin/maintenance/all
func (h *AdminMaintenanceHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, domain.RequestFilter{})
}

// ListOpen handles GET /api/admin/maintenance/open — pending and
// in-progress requests
func (h *AdminMaintenanceHandler) ListOpen(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, domain.RequestFilter{Statuses: domain.OpenStatuses})
}

// ListClosed handles GET /api/admin/maintenance/closed
func (h *AdminMaintenanceHandler) ListClosed(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, domain.RequestFilter{Statuses: []domain.RequestStatus{domain.StatusClosed}})
}

func (h *AdminMaintenanceHandler) list(w http.ResponseWriter, r *http.Request, base domain.RequestFilter) {
	result, err := h.maintenanceService.List(r.URL.Query(), base)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Get handles GET /api/admin/maintenance/{id}
func (h *AdminMaintenanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	req, err := h.maintenanceService.Get(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, listing.FormatRequest(req))
}

// UpdateStatus handles PUT /api/admin/maintenance/{id}/status
func (h *AdminMaintenanceHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	h.update(w, r, "status updated", func(id string) (*domain.MaintenanceRequest, error) {
		return h.maintenanceService.UpdateStatus(id, body.Status)
	})
}

// UpdateUrgency handles PUT /api/admin/maintenance/{id}/urgency
func (h *AdminMaintenanceHandler) UpdateUrgency(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Urgency string `json:"urgency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	h.update(w, r, "urgency updated", func(id string) (*domain.MaintenanceRequest, error) {
		return h.maintenanceService.UpdateUrgency(id, body.Urgency)
	})
}

// UpdateCategory handles PUT /api/admin/maintenance/{id}/category
func (h *AdminMaintenanceHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	h.update(w, r, "category updated", func(id string) (*domain.MaintenanceRequest, error) {
		return h.maintenanceService.UpdateCategory(id, body.Category)
	})
}

// Close handles PUT /api/admin/maintenance/{id}/close
func (h *AdminMaintenanceHandler) Close(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, "request closed", h.maintenanceService.Close)
}

func (h *AdminMaintenanceHandler) update(w http.ResponseWriter, r *http.Request, message string, op func(id string) (*domain.MaintenanceRequest, error)) {
	updated, err := op(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": message,
		"request": listing.FormatRequest(updated),
	})
}

// AddNoteBody represents an admin note
type AddNoteBody struct {
	Note string `json:"note"`
}

// AddNote handles POST /api/admin/maintenance/{id}/notes
func (h *AdminMaintenanceHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetUserFromContext(r.Context())
	if admin == nil {
		writeError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	var body AddNoteBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	updated, err := h.maintenanceService.AddNote(r.PathValue("id"), admin.ID, body.Note)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "admin note added",
		"request": listing.FormatRequest(updated),
	})
}
