package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/nemsu-talks-api/internal/models"
)

// AnnouncementRepository provides database access for announcements.
type AnnouncementRepository struct {
	db *sqlx.DB
}

// NewAnnouncementRepository creates a new instance of AnnouncementRepository.
func NewAnnouncementRepository(db *sqlx.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

const announcementColumns = `id, title, description, category, status, is_new, date, created_by, created_at, updated_at`

// Create inserts a new announcement.
func (r *AnnouncementRepository) Create(ctx context.Context, a *models.Announcement) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.Date.IsZero() {
		a.Date = now
	}
	a.UpdatedAt = now

	const query = `INSERT INTO announcements (id, title, description, category, status, is_new, date, created_by, created_at, updated_at)
VALUES (:id, :title, :description, :category, :status, :is_new, :date, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, a); err != nil {
		return fmt.Errorf("create announcement: %w", err)
	}
	return nil
}

// GetByID returns an announcement by identifier.
func (r *AnnouncementRepository) GetByID(ctx context.Context, id string) (*models.Announcement, error) {
	query := fmt.Sprintf(`SELECT %s FROM announcements WHERE id = $1 LIMIT 1`, announcementColumns)
	var a models.Announcement
	if err := r.db.GetContext(ctx, &a, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get announcement: %w", err)
	}
	return &a, nil
}

// List returns announcements newest first with optional status filtering.
func (r *AnnouncementRepository) List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error) {
	baseQuery := `FROM announcements WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY date DESC, created_at DESC LIMIT %d OFFSET %d", announcementColumns, baseQuery, pageSize, offset)

	var items []models.Announcement
	if err := r.db.SelectContext(ctx, &items, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list announcements: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count announcements: %w", err)
	}

	return items, total, nil
}

// Publish flips a draft to published and marks it new in the same statement.
// Rows already published and missing ids are untouched.
func (r *AnnouncementRepository) Publish(ctx context.Context, id string) (int64, error) {
	const query = `UPDATE announcements SET status = $2, is_new = TRUE, updated_at = $3 WHERE id = $1 AND status = $4`
	result, err := r.db.ExecContext(ctx, query, id, models.AnnouncementStatusPublished, time.Now().UTC(), models.AnnouncementStatusDraft)
	if err != nil {
		return 0, fmt.Errorf("publish announcement: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("publish rows affected: %w", err)
	}
	return affected, nil
}

// MarkAsRead clears the new flag only.
func (r *AnnouncementRepository) MarkAsRead(ctx context.Context, id string) error {
	const query = `UPDATE announcements SET is_new = FALSE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark announcement read: %w", err)
	}
	return nil
}

// Delete removes an announcement permanently.
func (r *AnnouncementRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM announcements WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete announcement: %w", err)
	}
	return nil
}

// UnreadCount counts published announcements still flagged new.
func (r *AnnouncementRepository) UnreadCount(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM announcements WHERE status = $1 AND is_new = TRUE`
	var count int
	if err := r.db.GetContext(ctx, &count, query, models.AnnouncementStatusPublished); err != nil {
		return 0, fmt.Errorf("count unread announcements: %w", err)
	}
	return count, nil
}

// DeleteAll removes every announcement. Used by the admin data wipe.
func (r *AnnouncementRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM announcements`); err != nil {
		return fmt.Errorf("delete all announcements: %w", err)
	}
	return nil
}
