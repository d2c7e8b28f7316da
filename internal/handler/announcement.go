package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/tenantportal/internal/listing"
	"github.com/yourorg/tenantportal/internal/observability/metrics"
	"github.com/yourorg/tenantportal/internal/security/middleware"
	"github.com/yourorg/tenantportal/internal/service"
)

// AnnouncementHandler handles tenant-facing announcement endpoints
type AnnouncementHandler struct {
	announcementService *service.AnnouncementService
	logger              *slog.Logger
}

// NewAnnouncementHandler creates a new announcement handler
func NewAnnouncementHandler(announcementService *service.AnnouncementService, logger *slog.Logger) *AnnouncementHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &AnnouncementHandler{
		announcementService: announcementService,
		logger:              logger,
	}
}

// List handles GET /api/announcements — published announcements only,
// annotated with the caller's read state
func (h *AnnouncementHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	query := r.URL.Query()
	page, err := h.announcementService.TenantList(user.ID, query.Get("category"), listing.Paginate(query))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// MarkRead handles PATCH /api/announcements/{id}/read
func (h *AnnouncementHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	if err := h.announcementService.MarkRead(r.PathValue("id"), user.ID); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	metrics.ObserveAnnouncementRead("single", 1)
	writeJSON(w, http.StatusOK, map[string]string{"message": "announcement marked as read"})
}

// MarkAllRead handles PATCH /api/announcements/read-all
func (h *AnnouncementHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	updated, err := h.announcementService.MarkAllRead(user.ID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	metrics.ObserveAnnouncementRead("bulk", updated)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "all announcements marked as read",
		"updated": updated,
	})
}
