package service

import (
	"errors"
	"log/slog"
	"time"

	"github.com/yourorg/tenantportal/internal/domain"
	"github.com/yourorg/tenantportal/internal/listing"
)

// AnnouncementService handles the announcement board and per-user read
// tracking
type AnnouncementService struct {
	repo   domain.AnnouncementRepository
	logger *slog.Logger
}

// NewAnnouncementService creates a new announcement service
func NewAnnouncementService(repo domain.AnnouncementRepository, logger *slog.Logger) *AnnouncementService {
	if logger == nil {
		logger = slog.Default()
	}

	return &AnnouncementService{
		repo:   repo,
		logger: logger,
	}
}

// AnnouncementView is the wire shape of an announcement. IsRead is
// populated for tenant views only.
type AnnouncementView struct {
	ID        string                      `json:"id"`
	Title     string                      `json:"title"`
	Message   string                      `json:"message"`
	Category  domain.AnnouncementCategory `json:"category"`
	Published bool                        `json:"published"`
	IsRead    *bool                       `json:"isRead,omitempty"`
	CreatedAt time.Time                   `json:"createdAt"`
	UpdatedAt time.Time                   `json:"updatedAt"`
}

// AnnouncementPage is the paginated list envelope
type AnnouncementPage struct {
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	Total      int                `json:"total"`
	TotalPages int                `json:"totalPages"`
	Items      []AnnouncementView `json:"items"`
}

// View projects an announcement into its wire shape without a read
// annotation. Every response carrying a single announcement goes
// through here so receipts and storage fields never leak.
func View(a *domain.Announcement) AnnouncementView {
	return AnnouncementView{
		ID:        a.ID,
		Title:     a.Title,
		Message:   a.Message,
		Category:  a.Category,
		Published: a.Published,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// TenantList returns published announcements only, annotated with the
// caller's read state
func (s *AnnouncementService) TenantList(userID, category string, page domain.PageRequest) (*AnnouncementPage, error) {
	filter := domain.AnnouncementFilter{PublishedOnly: true}
	if c := domain.AnnouncementCategory(category); category != "" && c.Valid() {
		filter.Category = c
	}

	return s.list(filter, page, &userID)
}

// AdminList returns all announcements regardless of published flag,
// without read annotation
func (s *AnnouncementService) AdminList(category string, page domain.PageRequest) (*AnnouncementPage, error) {
	filter := domain.AnnouncementFilter{}
	if c := domain.AnnouncementCategory(category); category != "" && c.Valid() {
		filter.Category = c
	}

	return s.list(filter, page, nil)
}

// MarkRead records the caller's first read of an announcement. A second
// call for the same pair is a no-op. Unpublished announcements are
// invisible to tenants and report not found.
func (s *AnnouncementService) MarkRead(id, userID string) error {
	a, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if !a.Published {
		return domain.ErrNotFound
	}

	appended, err := s.repo.MarkRead(id, userID, time.Now())
	if err != nil {
		s.logger.Error("failed to mark announcement read", slog.String("error", err.Error()))
		return errors.New("failed to mark announcement as read")
	}

	if appended {
		s.logger.Info("announcement marked read",
			slog.String("announcement_id", id),
			slog.String("user_id", userID),
		)
	}

	return nil
}

// MarkAllRead appends receipts for every published announcement the
// caller has not read, in one bulk update. Idempotent.
func (s *AnnouncementService) MarkAllRead(userID string) (int, error) {
	updated, err := s.repo.MarkAllRead(userID, time.Now())
	if err != nil {
		s.logger.Error("failed to mark all announcements read", slog.String("error", err.Error()))
		return 0, errors.New("failed to mark announcements as read")
	}

	return updated, nil
}

// Create posts a new announcement on behalf of an admin
func (s *AnnouncementService) Create(title, message, category string, published bool) (*domain.Announcement, error) {
	if title == "" || message == "" {
		return nil, domain.Validation("title and message are required")
	}

	c := domain.AnnouncementGeneral
	if category != "" {
		c = domain.AnnouncementCategory(category)
		if !c.Valid() {
			return nil, domain.Validation("invalid announcement category")
		}
	}

	a := &domain.Announcement{
		Title:     title,
		Message:   message,
		Category:  c,
		Published: published,
	}

	if err := s.repo.Create(a); err != nil {
		s.logger.Error("failed to create announcement", slog.String("error", err.Error()))
		return nil, errors.New("failed to create announcement")
	}

	s.logger.Info("announcement created", slog.String("announcement_id", a.ID))
	return a, nil
}

// AnnouncementUpdate carries optional field replacements
type AnnouncementUpdate struct {
	Title     *string
	Message   *string
	Category  *string
	Published *bool
}

// Update replaces the provided fields of an announcement
func (s *AnnouncementService) Update(id string, changes AnnouncementUpdate) (*domain.Announcement, error) {
	a, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if changes.Title != nil {
		if *changes.Title == "" {
			return nil, domain.Validation("title cannot be empty")
		}
		a.Title = *changes.Title
	}
	if changes.Message != nil {
		if *changes.Message == "" {
			return nil, domain.Validation("message cannot be empty")
		}
		a.Message = *changes.Message
	}
	if changes.Category != nil {
		c := domain.AnnouncementCategory(*changes.Category)
		if !c.Valid() {
			return nil, domain.Validation("invalid announcement category")
		}
		a.Category = c
	}
	if changes.Published != nil {
		a.Published = *changes.Published
	}

	if err := s.repo.Update(a); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		s.logger.Error("failed to update announcement", slog.String("error", err.Error()))
		return nil, errors.New("failed to update announcement")
	}

	return a, nil
}

// Delete removes an announcement permanently, with no recovery
func (s *AnnouncementService) Delete(id string) error {
	if err := s.repo.Delete(id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		s.logger.Error("failed to delete announcement", slog.String("error", err.Error()))
		return errors.New("failed to delete announcement")
	}

	s.logger.Info("announcement deleted", slog.String("announcement_id", id))
	return nil
}

func (s *AnnouncementService) list(filter domain.AnnouncementFilter, page domain.PageRequest, readerID *string) (*AnnouncementPage, error) {
	total, err := s.repo.Count(filter)
	if err != nil {
		s.logger.Error("failed to count announcements", slog.String("error", err.Error()))
		return nil, errors.New("failed to fetch announcements")
	}

	items, err := s.repo.List(filter, page)
	if err != nil {
		s.logger.Error("failed to list announcements", slog.String("error", err.Error()))
		return nil, errors.New("failed to fetch announcements")
	}

	views := make([]AnnouncementView, 0, len(items))
	for _, a := range items {
		view := View(a)
		if readerID != nil {
			isRead := a.IsReadBy(*readerID)
			view.IsRead = &isRead
		}
		views = append(views, view)
	}

	return &AnnouncementPage{
		Page:       page.Page,
		Limit:      page.Limit,
		Total:      total,
		TotalPages: listing.TotalPages(total, page.Limit),
		Items:      views,
	}, nil
}
