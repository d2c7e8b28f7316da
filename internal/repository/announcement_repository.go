package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yourorg/tenantportal/internal/domain"
)

// PostgresAnnouncementRepository implements domain.AnnouncementRepository
// using PostgreSQL. Read receipts live in a JSONB column; idempotent
// receipt appends are guarded with a jsonb containment check so marking
// twice never produces a second receipt.
type PostgresAnnouncementRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresAnnouncementRepository creates a new announcement repository
func NewPostgresAnnouncementRepository(db *sql.DB, logger *slog.Logger) *PostgresAnnouncementRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresAnnouncementRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new announcement
func (r *PostgresAnnouncementRepository) Create(a *domain.Announcement) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	query := `
		INSERT INTO announcements (id, title, message, category, published)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(
		query,
		a.ID,
		a.Title,
		a.Message,
		string(a.Category),
		a.Published,
	).Scan(&a.CreatedAt, &a.UpdatedAt)

	if err != nil {
		r.logger.Error("failed to create announcement",
			slog.String("title", a.Title),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create announcement: %w", err)
	}

	return nil
}

// GetByID retrieves an announcement by ID
func (r *PostgresAnnouncementRepository) GetByID(id string) (*domain.Announcement, error) {
	query := `
		SELECT id, title, message, category, published, read_by, created_at, updated_at
		FROM announcements
		WHERE id = $1
	`

	a, err := scanAnnouncement(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get announcement: %w", err)
	}

	return a, nil
}

// List retrieves a page of announcements matching the filter, newest first
func (r *PostgresAnnouncementRepository) List(filter domain.AnnouncementFilter, page domain.PageRequest) ([]*domain.Announcement, error) {
	where, args := announcementWhere(filter)

	query := fmt.Sprintf(`
		SELECT id, title, message, category, published, read_by, created_at, updated_at
		FROM announcements
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)

	args = append(args, page.Limit, page.Skip)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.logger.Error("failed to list announcements",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to list announcements: %w", err)
	}
	defer rows.Close()

	var announcements []*domain.Announcement
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan announcement: %w", err)
		}
		announcements = append(announcements, a)
	}

	return announcements, rows.Err()
}

// Count returns the number of announcements matching the filter
func (r *PostgresAnnouncementRepository) Count(filter domain.AnnouncementFilter) (int, error) {
	where, args := announcementWhere(filter)

	var total int
	query := "SELECT COUNT(*) FROM announcements " + where
	if err := r.db.QueryRow(query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count announcements: %w", err)
	}

	return total, nil
}

// Update replaces the editable fields of an announcement
func (r *PostgresAnnouncementRepository) Update(a *domain.Announcement) error {
	query := `
		UPDATE announcements
		SET title = $1, message = $2, category = $3, published = $4, updated_at = now()
		WHERE id = $5
		RETURNING updated_at
	`

	err := r.db.QueryRow(
		query,
		a.Title,
		a.Message,
		string(a.Category),
		a.Published,
		a.ID,
	).Scan(&a.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to update announcement: %w", err)
	}

	return nil
}

// Delete removes an announcement permanently
func (r *PostgresAnnouncementRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete announcement: %w", err)
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

// MarkRead appends a read receipt unless one already exists for the user
func (r *PostgresAnnouncementRepository) MarkRead(id, userID string, at time.Time) (bool, error) {
	receipt, marker, err := encodeReceipt(userID, at)
	if err != nil {
		return false, err
	}

	query := `
		UPDATE announcements
		SET read_by = read_by || $2::jsonb, updated_at = now()
		WHERE id = $1 AND NOT (read_by @> $3::jsonb)
	`

	result, err := r.db.Exec(query, id, receipt, marker)
	if err != nil {
		return false, fmt.Errorf("failed to mark announcement read: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}

	return rows > 0, nil
}

// MarkAllRead appends receipts across all published announcements the
// user has not read yet, in one bulk update
func (r *PostgresAnnouncementRepository) MarkAllRead(userID string, at time.Time) (int, error) {
	receipt, marker, err := encodeReceipt(userID, at)
	if err != nil {
		return 0, err
	}

	query := `
		UPDATE announcements
		SET read_by = read_by || $1::jsonb, updated_at = now()
		WHERE published = TRUE AND NOT (read_by @> $2::jsonb)
	`

	result, err := r.db.Exec(query, receipt, marker)
	if err != nil {
		return 0, fmt.Errorf("failed to mark all announcements read: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}

	return int(rows), nil
}

func announcementWhere(filter domain.AnnouncementFilter) (string, []any) {
	var clauses []string
	var args []any

	if filter.PublishedOnly {
		clauses = append(clauses, "published = TRUE")
	}
	if filter.Category != "" {
		args = append(args, string(filter.Category))
		clauses = append(clauses, fmt.Sprintf("category = $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

// encodeReceipt returns the receipt to append and the containment marker
// that detects an existing receipt for the same user
func encodeReceipt(userID string, at time.Time) ([]byte, []byte, error) {
	receipt, err := json.Marshal([]domain.ReadReceipt{{User: userID, ReadAt: at}})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode read receipt: %w", err)
	}

	marker, err := json.Marshal([]map[string]string{{"user": userID}})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode receipt marker: %w", err)
	}

	return receipt, marker, nil
}

func scanAnnouncement(row rowScanner) (*domain.Announcement, error) {
	a := &domain.Announcement{}
	var category string
	var readBy []byte

	err := row.Scan(
		&a.ID,
		&a.Title,
		&a.Message,
		&category,
		&a.Published,
		&readBy,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Category = domain.AnnouncementCategory(category)
	if err := json.Unmarshal(readBy, &a.ReadBy); err != nil {
		return nil, fmt.Errorf("failed to decode read receipts: %w", err)
	}

	return a, nil
}
