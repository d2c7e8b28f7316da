package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/yourorg/tenantportal/internal/domain"
)

// PostgresMaintenanceRepository implements domain.MaintenanceRepository
// using PostgreSQL. Image lists and admin notes are stored as JSONB
// columns and appended with single-statement jsonb updates.
type PostgresMaintenanceRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresMaintenanceRepository creates a new maintenance repository
func NewPostgresMaintenanceRepository(db *sql.DB, logger *slog.Logger) *PostgresMaintenanceRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresMaintenanceRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new maintenance request
func (r *PostgresMaintenanceRepository) Create(req *domain.MaintenanceRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	images, err := json.Marshal(emptyIfNil(req.Images))
	if err != nil {
		return fmt.Errorf("failed to encode images: %w", err)
	}

	query := `
		INSERT INTO maintenance_requests (id, user_id, title, description, urgency, status, category, images)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	err = r.db.QueryRow(
		query,
		req.ID,
		req.UserID,
		req.Title,
		req.Description,
		string(req.Urgency),
		string(req.Status),
		string(req.Category),
		images,
	).Scan(&req.CreatedAt, &req.UpdatedAt)

	if err != nil {
		r.logger.Error("failed to create maintenance request",
			slog.String("user_id", req.UserID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create maintenance request: %w", err)
	}

	return nil
}

// GetByID retrieves a request by ID with the owner expanded
func (r *PostgresMaintenanceRepository) GetByID(id string) (*domain.MaintenanceRequest, error) {
	query := `
		SELECT m.id, m.user_id, m.title, m.description, m.urgency, m.status, m.category,
			m.images, m.admin_notes, u.name, u.email, m.created_at, m.updated_at
		FROM maintenance_requests m
		JOIN users u ON u.id = m.user_id
		WHERE m.id = $1
	`

	req, err := scanRequest(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get maintenance request: %w", err)
	}

	return req, nil
}

// List retrieves a page of requests matching the filter, owner expanded,
// sorted by creation time
func (r *PostgresMaintenanceRepository) List(filter domain.RequestFilter, sort domain.SortOrder, page domain.PageRequest) ([]*domain.MaintenanceRequest, error) {
	where, args := buildWhere(filter)

	direction := "DESC"
	if sort.Ascending {
		direction = "ASC"
	}

	query := fmt.Sprintf(`
		SELECT m.id, m.user_id, m.title, m.description, m.urgency, m.status, m.category,
			m.images, m.admin_notes, u.name, u.email, m.created_at, m.updated_at
		FROM maintenance_requests m
		JOIN users u ON u.id = m.user_id
		%s
		ORDER BY m.created_at %s
		LIMIT $%d OFFSET $%d
	`, where, direction, len(args)+1, len(args)+2)

	args = append(args, page.Limit, page.Skip)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.logger.Error("failed to list maintenance requests",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to list maintenance requests: %w", err)
	}
	defer rows.Close()

	var requests []*domain.MaintenanceRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan maintenance request: %w", err)
		}
		requests = append(requests, req)
	}

	return requests, rows.Err()
}

// Count returns the number of requests matching the filter
func (r *PostgresMaintenanceRepository) Count(filter domain.RequestFilter) (int, error) {
	where, args := buildWhere(filter)

	var total int
	query := "SELECT COUNT(*) FROM maintenance_requests m " + where
	if err := r.db.QueryRow(query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count maintenance requests: %w", err)
	}

	return total, nil
}

// Update persists single-field changes to status, urgency or category
func (r *PostgresMaintenanceRepository) Update(req *domain.MaintenanceRequest) error {
	query := `
		UPDATE maintenance_requests
		SET status = $1, urgency = $2, category = $3, updated_at = now()
		WHERE id = $4
		RETURNING updated_at
	`

	err := r.db.QueryRow(
		query,
		string(req.Status),
		string(req.Urgency),
		string(req.Category),
		req.ID,
	).Scan(&req.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to update maintenance request: %w", err)
	}

	return nil
}

// AppendNote appends an admin note in a single jsonb update
func (r *PostgresMaintenanceRepository) AppendNote(id string, note domain.AdminNote) error {
	encoded, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("failed to encode admin note: %w", err)
	}

	query := `
		UPDATE maintenance_requests
		SET admin_notes = admin_notes || $2::jsonb, updated_at = now()
		WHERE id = $1
	`

	result, err := r.db.Exec(query, id, encoded)
	if err != nil {
		return fmt.Errorf("failed to append admin note: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// AppendImages appends image references in a single jsonb update
func (r *PostgresMaintenanceRepository) AppendImages(id string, images []string) error {
	encoded, err := json.Marshal(images)
	if err != nil {
		return fmt.Errorf("failed to encode images: %w", err)
	}

	query := `
		UPDATE maintenance_requests
		SET images = images || $2::jsonb, updated_at = now()
		WHERE id = $1
	`

	result, err := r.db.Exec(query, id, encoded)
	if err != nil {
		return fmt.Errorf("failed to append images: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// buildWhere translates a filter into a WHERE clause and its arguments
func buildWhere(filter domain.RequestFilter) (string, []any) {
	var clauses []string
	var args []any

	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if filter.UserID != "" {
		add("m.user_id = $%d", filter.UserID)
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			args = append(args, string(s))
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		}
		clauses = append(clauses, "m.status IN ("+strings.Join(placeholders, ", ")+")")
	}
	if filter.Status != "" {
		add("m.status = $%d", string(filter.Status))
	}
	if filter.Urgency != "" {
		add("m.urgency = $%d", string(filter.Urgency))
	}
	if filter.Category != "" {
		add("m.category = $%d", string(filter.Category))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*domain.MaintenanceRequest, error) {
	req := &domain.MaintenanceRequest{}
	var urgency, status, category string
	var images, notes []byte

	err := row.Scan(
		&req.ID,
		&req.UserID,
		&req.Title,
		&req.Description,
		&urgency,
		&status,
		&category,
		&images,
		&notes,
		&req.OwnerName,
		&req.OwnerEmail,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	req.Urgency = domain.Urgency(urgency)
	req.Status = domain.RequestStatus(status)
	req.Category = domain.Category(category)

	if err := json.Unmarshal(images, &req.Images); err != nil {
		return nil, fmt.Errorf("failed to decode images: %w", err)
	}
	if err := json.Unmarshal(notes, &req.AdminNotes); err != nil {
		return nil, fmt.Errorf("failed to decode admin notes: %w", err)
	}

	return req, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
