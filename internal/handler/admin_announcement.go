package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yourorg/tenantportal/internal/listing"
	"github.com/yourorg/tenantportal/internal/service"
)

// AdminAnnouncementHandler handles admin-facing announcement endpoints
type AdminAnnouncementHandler struct {
	announcementService *service.AnnouncementService
	logger              *slog.Logger
}

// NewAdminAnnouncementHandler creates a new admin announcement handler
func NewAdminAnnouncementHandler(announcementService *service.AnnouncementService, logger *slog.Logger) *AdminAnnouncementHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &AdminAnnouncementHandler{
		announcementService: announcementService,
		logger:              logger,
	}
}

// CreateAnnouncementRequest represents a new announcement
type CreateAnnouncementRequest struct {
	Title     string `json:"title"`
	Message   string `json:"message"`
	Category  string `json:"category"`
	Published *bool  `json:"published"`
}

// Create handles POST /api/admin/announcements
func (h *AdminAnnouncementHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAnnouncementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	// new announcements publish immediately unless told otherwise
	published := true
	if req.Published != nil {
		published = *req.Published
	}

	a, err := h.announcementService.Create(req.Title, req.Message, req.Category, published)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, service.View(a))
}

// List handles GET /api/admin/announcements — every announcement,
// drafts included
func (h *AdminAnnouncementHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, err := h.announcementService.AdminList(query.Get("category"), listing.Paginate(query))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// UpdateAnnouncementRequest carries optional field replacements
type UpdateAnnouncementRequest struct {
	Title     *string `json:"title"`
	Message   *string `json:"message"`
	Category  *string `json:"category"`
	Published *bool   `json:"published"`
}

// Update handles PUT /api/admin/announcements/{id}
func (h *AdminAnnouncementHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateAnnouncementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	a, err := h.announcementService.Update(r.PathValue("id"), service.AnnouncementUpdate{
		Title:     req.Title,
		Message:   req.Message,
		Category:  req.Category,
		Published: req.Published,
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":      "announcement updated",
		"announcement": service.View(a),
	})
}

// Delete handles DELETE /api/admin/announcements/{id}
func (h *AdminAnnouncementHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.announcementService.Delete(r.PathValue("id")); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "announcement deleted"})
}
