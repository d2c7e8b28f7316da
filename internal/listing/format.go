package listing

import (
	"time"

	"github.com/yourorg/tenantportal/internal/domain"
)

// UserRef is the minimal owner view embedded in formatted requests
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// FormattedRequest is the public wire shape of a maintenance request.
// Internal-only fields never appear here.
type FormattedRequest struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Urgency     domain.Urgency       `json:"urgency"`
	Category    domain.Category      `json:"category"`
	Status      domain.RequestStatus `json:"status"`
	Images      []string             `json:"images"`
	AdminNotes  []domain.AdminNote   `json:"adminNotes"`
	User        any                  `json:"user"` // owner ID, or UserRef when expanded
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

// FormatRequest projects a stored record into its public shape. The
// owner is expanded to {id, name, email} when the record carries joined
// owner fields, and left as the bare ID otherwise.
func FormatRequest(r *domain.MaintenanceRequest) FormattedRequest {
	images := r.Images
	if images == nil {
		images = []string{}
	}
	notes := r.AdminNotes
	if notes == nil {
		notes = []domain.AdminNote{}
	}

	var user any = r.UserID
	if r.OwnerName != "" || r.OwnerEmail != "" {
		user = UserRef{ID: r.UserID, Name: r.OwnerName, Email: r.OwnerEmail}
	}

	return FormattedRequest{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Urgency:     r.Urgency,
		Category:    r.Category,
		Status:      r.Status,
		Images:      images,
		AdminNotes:  notes,
		User:        user,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// FormatRequests projects a page of records
func FormatRequests(requests []*domain.MaintenanceRequest) []FormattedRequest {
	out := make([]FormattedRequest, 0, len(requests))
	for _, r := range requests {
		out = append(out, FormatRequest(r))
	}
	return out
}
