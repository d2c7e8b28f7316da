package service

import (
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/yourorg/tenantportal/internal/domain"
	"github.com/yourorg/tenantportal/internal/listing"
)

// MaintenanceService handles the maintenance request lifecycle
type MaintenanceService struct {
	repo   domain.MaintenanceRepository
	logger *slog.Logger
}

// NewMaintenanceService creates a new maintenance service
func NewMaintenanceService(repo domain.MaintenanceRepository, logger *slog.Logger) *MaintenanceService {
	if logger == nil {
		logger = slog.Default()
	}

	return &MaintenanceService{
		repo:   repo,
		logger: logger,
	}
}

// ListResult is the paginated list envelope
type ListResult struct {
	Page          int                        `json:"page"`
	Limit         int                        `json:"limit"`
	TotalRequests int                        `json:"totalRequests"`
	TotalPages    int                        `json:"totalPages"`
	Requests      []listing.FormattedRequest `json:"requests"`
}

// Create files a new request for a tenant. Status always starts pending;
// urgency defaults to low and category to general when omitted.
func (s *MaintenanceService) Create(userID, title, description, urgency, category string) (*domain.MaintenanceRequest, error) {
	if title == "" || description == "" {
		return nil, domain.Validation("title and description are required")
	}

	u := domain.UrgencyLow
	if urgency != "" {
		u = domain.Urgency(urgency)
		if !u.Valid() {
			return nil, domain.Validation("invalid urgency option")
		}
	}

	c := domain.CategoryGeneral
	if category != "" {
		c = domain.Category(category)
		if !c.Valid() {
			return nil, domain.Validation("invalid category option")
		}
	}

	req := &domain.MaintenanceRequest{
		UserID:      userID,
		Title:       title,
		Description: description,
		Urgency:     u,
		Status:      domain.StatusPending,
		Category:    c,
	}

	if err := s.repo.Create(req); err != nil {
		s.logger.Error("failed to create maintenance request", slog.String("error", err.Error()))
		return nil, errors.New("failed to create request")
	}

	s.logger.Info("maintenance request created",
		slog.String("request_id", req.ID),
		slog.String("user_id", userID),
		slog.String("urgency", string(req.Urgency)),
	)

	return req, nil
}

// List composes the filter, sort and pagination builders over a base
// predicate and returns a formatted page. The optional sortUrgency
// parameter re-sorts the fetched page only.
func (s *MaintenanceService) List(query url.Values, base domain.RequestFilter) (*ListResult, error) {
	page := listing.Paginate(query)
	filter := listing.BuildFilter(query, base)
	sort := listing.BuildSort(query)

	total, err := s.repo.Count(filter)
	if err != nil {
		s.logger.Error("failed to count maintenance requests", slog.String("error", err.Error()))
		return nil, errors.New("failed to fetch requests")
	}

	results, err := s.repo.List(filter, sort, page)
	if err != nil {
		s.logger.Error("failed to list maintenance requests", slog.String("error", err.Error()))
		return nil, errors.New("failed to fetch requests")
	}

	if dir := query.Get("sortUrgency"); dir != "" {
		listing.SortPageByUrgency(results, dir)
	}

	return &ListResult{
		Page:          page.Page,
		Limit:         page.Limit,
		TotalRequests: total,
		TotalPages:    listing.TotalPages(total, page.Limit),
		Requests:      listing.FormatRequests(results),
	}, nil
}

// Get loads a single request with its owner expanded
func (s *MaintenanceService) Get(id string) (*domain.MaintenanceRequest, error) {
	return s.repo.GetByID(id)
}

// UpdateStatus sets the request status. Any value from the enumeration
// is accepted regardless of the current state.
func (s *MaintenanceService) UpdateStatus(id, status string) (*domain.MaintenanceRequest, error) {
	st := domain.RequestStatus(status)
	if !st.Valid() {
		return nil, domain.Validation("invalid status option")
	}

	return s.updateField(id, func(req *domain.MaintenanceRequest) {
		req.Status = st
	})
}

// UpdateUrgency sets the request urgency
func (s *MaintenanceService) UpdateUrgency(id, urgency string) (*domain.MaintenanceRequest, error) {
	u := domain.Urgency(urgency)
	if !u.Valid() {
		return nil, domain.Validation("invalid urgency option")
	}

	return s.updateField(id, func(req *domain.MaintenanceRequest) {
		req.Urgency = u
	})
}

// UpdateCategory sets the request category
func (s *MaintenanceService) UpdateCategory(id, category string) (*domain.MaintenanceRequest, error) {
	c := domain.Category(category)
	if !c.Valid() {
		return nil, domain.Validation("invalid category option")
	}

	return s.updateField(id, func(req *domain.MaintenanceRequest) {
		req.Category = c
	})
}

// Close archives a request; a convenience for setting status to closed
func (s *MaintenanceService) Close(id string) (*domain.MaintenanceRequest, error) {
	return s.updateField(id, func(req *domain.MaintenanceRequest) {
		req.Status = domain.StatusClosed
	})
}

// AddNote appends an admin note. Notes are never edited or removed.
func (s *MaintenanceService) AddNote(id, adminID, note string) (*domain.MaintenanceRequest, error) {
	if note == "" {
		return nil, domain.Validation("note is required")
	}

	entry := domain.AdminNote{
		ID:        uuid.NewString(),
		Admin:     adminID,
		Note:      note,
		CreatedAt: time.Now(),
	}

	if err := s.repo.AppendNote(id, entry); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		s.logger.Error("failed to append admin note", slog.String("error", err.Error()))
		return nil, errors.New("failed to add note")
	}

	s.logger.Info("admin note added",
		slog.String("request_id", id),
		slog.String("admin_id", adminID),
	)

	return s.repo.GetByID(id)
}

// AddImages appends image references on behalf of the owning tenant.
// Only the owner may append, and closed requests reject appends.
func (s *MaintenanceService) AddImages(id, callerID string, images []string) (*domain.MaintenanceRequest, error) {
	if len(images) == 0 {
		return nil, domain.Validation("at least one image is required")
	}

	req, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if req.UserID != callerID {
		return nil, domain.ErrNotAuthorized
	}
	if req.Status == domain.StatusClosed {
		return nil, domain.ErrRequestClosed
	}

	if err := s.repo.AppendImages(id, images); err != nil {
		s.logger.Error("failed to append images", slog.String("error", err.Error()))
		return nil, errors.New("failed to add images")
	}

	return s.repo.GetByID(id)
}

func (s *MaintenanceService) updateField(id string, mutate func(*domain.MaintenanceRequest)) (*domain.MaintenanceRequest, error) {
	req, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	mutate(req)

	if err := s.repo.Update(req); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		s.logger.Error("failed to update maintenance request", slog.String("error", err.Error()))
		return nil, errors.New("failed to update request")
	}

	return req, nil
}
