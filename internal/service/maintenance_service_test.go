package service

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"testing"
	"time"

	"github.com/yourorg/tenantportal/internal/domain"
)

type memMaintenanceRepo struct {
	byID  map[string]*domain.MaintenanceRequest
	order []string // creation order
	seq   int
}

func newMemMaintenanceRepo() *memMaintenanceRepo {
	return &memMaintenanceRepo{byID: map[string]*domain.MaintenanceRequest{}}
}

func (m *memMaintenanceRepo) Create(req *domain.MaintenanceRequest) error {
	m.seq++
	req.ID = fmt.Sprintf("req-%d", m.seq)
	req.CreatedAt = time.Now().Add(time.Duration(m.seq) * time.Millisecond)
	req.UpdatedAt = req.CreatedAt
	copied := *req
	m.byID[req.ID] = &copied
	m.order = append(m.order, req.ID)
	return nil
}

func (m *memMaintenanceRepo) GetByID(id string) (*domain.MaintenanceRequest, error) {
	if r, ok := m.byID[id]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memMaintenanceRepo) List(filter domain.RequestFilter, so domain.SortOrder, page domain.PageRequest) ([]*domain.MaintenanceRequest, error) {
	matched := m.matching(filter)
	sort.SliceStable(matched, func(i, j int) bool {
		if so.Ascending {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if page.Skip >= len(matched) {
		return nil, nil
	}
	matched = matched[page.Skip:]
	if len(matched) > page.Limit {
		matched = matched[:page.Limit]
	}
	return matched, nil
}

func (m *memMaintenanceRepo) Count(filter domain.RequestFilter) (int, error) {
	return len(m.matching(filter)), nil
}

func (m *memMaintenanceRepo) Update(req *domain.MaintenanceRequest) error {
	if _, ok := m.byID[req.ID]; !ok {
		return domain.ErrNotFound
	}
	req.UpdatedAt = time.Now()
	copied := *req
	m.byID[req.ID] = &copied
	return nil
}

func (m *memMaintenanceRepo) AppendNote(id string, note domain.AdminNote) error {
	r, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	r.AdminNotes = append(r.AdminNotes, note)
	return nil
}

func (m *memMaintenanceRepo) AppendImages(id string, images []string) error {
	r, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	r.Images = append(r.Images, images...)
	return nil
}

func (m *memMaintenanceRepo) matching(filter domain.RequestFilter) []*domain.MaintenanceRequest {
	var out []*domain.MaintenanceRequest
	for _, id := range m.order {
		r := m.byID[id]
		if filter.UserID != "" && r.UserID != filter.UserID {
			continue
		}
		if len(filter.Statuses) > 0 && !statusIn(r.Status, filter.Statuses) {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.Urgency != "" && r.Urgency != filter.Urgency {
			continue
		}
		if filter.Category != "" && r.Category != filter.Category {
			continue
		}
		copied := *r
		out = append(out, &copied)
	}
	return out
}

func statusIn(s domain.RequestStatus, list []domain.RequestStatus) bool {
	for _, v := range list {
		if s == v {
			return true
		}
	}
	return false
}

func TestCreateMaintenanceRequest(t *testing.T) {
	repo := newMemMaintenanceRepo()
	s := NewMaintenanceService(repo, nil)

	req, err := s.Create("tenant-1", "Leaky faucet", "Kitchen sink drips", "", "")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if req.Status != domain.StatusPending {
		t.Fatalf("expected pending status, got %q", req.Status)
	}
	if req.Urgency != domain.UrgencyLow {
		t.Fatalf("expected default low urgency, got %q", req.Urgency)
	}
	if req.Category != domain.CategoryGeneral {
		t.Fatalf("expected default general category, got %q", req.Category)
	}
}

func TestCreateMaintenanceRequestValidation(t *testing.T) {
	s := NewMaintenanceService(newMemMaintenanceRepo(), nil)

	if _, err := s.Create("tenant-1", "", "desc", "", ""); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for missing title, got %v", err)
	}
	if _, err := s.Create("tenant-1", "title", "desc", "critical", ""); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for unknown urgency, got %v", err)
	}
	if _, err := s.Create("tenant-1", "title", "desc", "", "rooftop"); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for unknown category, got %v", err)
	}
}

func TestListScopedToOwner(t *testing.T) {
	repo := newMemMaintenanceRepo()
	s := NewMaintenanceService(repo, nil)

	mustCreate(t, s, "tenant-1", "one")
	mustCreate(t, s, "tenant-2", "two")
	mustCreate(t, s, "tenant-1", "three")

	res, err := s.List(url.Values{}, domain.RequestFilter{UserID: "tenant-1"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if res.TotalRequests != 2 || len(res.Requests) != 2 {
		t.Fatalf("expected 2 requests, got total=%d page=%d", res.TotalRequests, len(res.Requests))
	}
	// newest first by default
	if res.Requests[0].Title != "three" {
		t.Fatalf("expected newest first, got %q", res.Requests[0].Title)
	}
}

func TestListAscendingSort(t *testing.T) {
	repo := newMemMaintenanceRepo()
	s := NewMaintenanceService(repo, nil)

	mustCreate(t, s, "tenant-1", "first")
	mustCreate(t, s, "tenant-1", "second")

	query := url.Values{}
	query.Set("sort", "asc")

	res, err := s.List(query, domain.RequestFilter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if res.Requests[0].Title != "first" {
		t.Fatalf("expected oldest first with sort=asc, got %q", res.Requests[0].Title)
	}
}

func TestListUrgencyFilter(t *testing.T) {
	repo := newMemMaintenanceRepo()
	s := NewMaintenanceService(repo, nil)

	if _, err := s.Create("tenant-1", "a", "d", "high", ""); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := s.Create("tenant-1", "b", "d", "low", ""); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	query := url.Values{}
	query.Set("urgency", "high")

	res, err := s.List(query, domain.RequestFilter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if res.TotalRequests != 1 || res.Requests[0].Title != "a" {
		t.Fatalf("expected only the high-urgency request, got %+v", res.Requests)
	}
}

func TestListPagination(t *testing.T) {
	repo := newMemMaintenanceRepo()
	s := NewMaintenanceService(repo, nil)

	for i := 0; i < 7; i++ {
		mustCreate(t, s, "tenant-1", fmt.Sprintf("req %d", i))
	}

	query := url.Values{}
	query.Set("page", "2")
	query.Set("limit", "3")

	res, err := s.List(query, domain.RequestFilter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if res.Page != 2 || res.Limit != 3 {
		t.Fatalf("unexpected page envelope %+v", res)
	}
	if res.TotalRequests != 7 || res.TotalPages != 3 {
		t.Fatalf("expected 7 total over 3 pages, got total=%d pages=%d", res.TotalRequests, res.TotalPages)
	}
	if len(res.Requests) != 3 {
		t.Fatalf("expected 3 on page 2, got %d", len(res.Requests))
	}
}

func TestListPageLocalUrgencySort(t *testing.T) {
	repo := newMemMaintenanceRepo()
	s := NewMaintenanceService(repo, nil)

	// oldest is high urgency, newest are low and medium
	if _, err := s.Create("tenant-1", "old-high", "d", "high", ""); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := s.Create("tenant-1", "mid-low", "d", "low", ""); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := s.Create("tenant-1", "new-medium", "d", "medium", ""); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// limit=2 keeps the old high-urgency request off the page; the
	// urgency sort orders only what the page contains
	query := url.Values{}
	query.Set("limit", "2")
	query.Set("sortUrgency", "desc")

	res, err := s.List(query, domain.RequestFilter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(res.Requests) != 2 {
		t.Fatalf("expected 2 on page, got %d", len(res.Requests))
	}
	if res.Requests[0].Title != "new-medium" || res.Requests[1].Title != "mid-low" {
		t.Fatalf("expected page-local urgency order, got %q then %q",
			res.Requests[0].Title, res.Requests[1].Title)
	}
}

func TestOpenClosedPartition(t *testing.T) {
	repo := newMemMaintenanceRepo()
	s := NewMaintenanceService(repo, nil)

	a := mustCreate(t, s, "tenant-1", "stays open")
	b := mustCreate(t, s, "tenant-1", "gets closed")

	if _, err := s.UpdateStatus(a.ID, "in-progress"); err != nil {
		t.Fatalf("update status failed: %v", err)
	}
	if _, err := s.Close(b.ID); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	open, err := s.List(url.Values{}, domain.RequestFilter{Statuses: domain.OpenStatuses})
	if err != nil {
		t.Fatalf("list open failed: %v", err)
	}
	if open.TotalRequests != 1 || open.Requests[0].Title != "stays open" {
		t.Fatalf("unexpected open view %+v", open.Requests)
	}

	closed, err := s.List(url.Values{}, domain.RequestFilter{Statuses: []domain.RequestStatus{domain.StatusClosed}})
	if err != nil {
		t.Fatalf("list closed failed: %v", err)
	}
	if closed.TotalRequests != 1 || closed.Requests[0].Title != "gets closed" {
		t.Fatalf("unexpected closed view %+v", closed.Requests)
	}
}

func TestUpdateFieldValidation(t *testing.T) {
	repo := newMemMaintenanceRepo()
	s := NewMaintenanceService(repo, nil)

	req := mustCreate(t, s, "tenant-1", "subject")

	if _, err := s.UpdateStatus(req.ID, "archived"); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := s.UpdateUrgency(req.ID, "extreme"); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := s.UpdateCategory(req.ID, "attic"); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := s.UpdateStatus("missing", "pending"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	// Closed requests can be reopened; transitions are unconstrained
	if _, err := s.Close(req.ID); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	updated, err := s.UpdateStatus(req.ID, "pending")
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if updated.Status != domain.StatusPending {
		t.Fatalf("expected pending after reopen, got %q", updated.Status)
	}
}

func TestAddNote(t *testing.T) {
	repo := newMemMaintenanceRepo()
	s := NewMaintenanceService(repo, nil)

	req := mustCreate(t, s, "tenant-1", "subject")

	if _, err := s.AddNote(req.ID, "admin-1", ""); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for empty note, got %v", err)
	}

	updated, err := s.AddNote(req.ID, "admin-1", "ordered the part")
	if err != nil {
		t.Fatalf("add note failed: %v", err)
	}
	if len(updated.AdminNotes) != 1 {
		t.Fatalf("expected 1 note, got %d", len(updated.AdminNotes))
	}
	note := updated.AdminNotes[0]
	if note.ID == "" || note.Admin != "admin-1" || note.Note != "ordered the part" {
		t.Fatalf("unexpected note %+v", note)
	}

	// Notes accumulate
	updated, err = s.AddNote(req.ID, "admin-2", "part arrived")
	if err != nil {
		t.Fatalf("add note failed: %v", err)
	}
	if len(updated.AdminNotes) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(updated.AdminNotes))
	}

	if _, err := s.AddNote("missing", "admin-1", "note"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAddImages(t *testing.T) {
	repo := newMemMaintenanceRepo()
	s := NewMaintenanceService(repo, nil)

	req := mustCreate(t, s, "tenant-1", "subject")

	if _, err := s.AddImages(req.ID, "tenant-1", nil); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for empty list, got %v", err)
	}

	// Only the owner may append
	if _, err := s.AddImages(req.ID, "tenant-2", []string{"a.jpg"}); !errors.Is(err, domain.ErrNotAuthorized) {
		t.Fatalf("expected not authorized, got %v", err)
	}

	updated, err := s.AddImages(req.ID, "tenant-1", []string{"a.jpg", "b.jpg"})
	if err != nil {
		t.Fatalf("add images failed: %v", err)
	}
	if len(updated.Images) != 2 {
		t.Fatalf("expected 2 images, got %d", len(updated.Images))
	}

	// Closed requests reject appends
	if _, err := s.Close(req.ID); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if _, err := s.AddImages(req.ID, "tenant-1", []string{"c.jpg"}); !errors.Is(err, domain.ErrRequestClosed) {
		t.Fatalf("expected request closed, got %v", err)
	}
}

func mustCreate(t *testing.T, s *MaintenanceService, userID, title string) *domain.MaintenanceRequest {
	t.Helper()
	req, err := s.Create(userID, title, "description", "", "")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	return req
}
