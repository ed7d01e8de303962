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

// SentimentRepository provides database access for reviewed feedback records.
type SentimentRepository struct {
	db *sqlx.DB
}

// NewSentimentRepository creates a new instance of SentimentRepository.
func NewSentimentRepository(db *sqlx.DB) *SentimentRepository {
	return &SentimentRepository{db: db}
}

const sentimentColumns = `id, code, student_label, content, category, polarity, status, created_at, updated_at`

// Create inserts a new record. The STU-prefixed display code comes from a
// dedicated sequence so codes stay monotonic across deletes.
func (r *SentimentRepository) Create(ctx context.Context, s *models.Sentiment) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	if s.Status == "" {
		s.Status = models.StatusOnProcess
	}

	const query = `INSERT INTO sentiments (id, code, student_label, content, category, polarity, status, created_at, updated_at)
VALUES ($1, 'STU-' || LPAD(nextval('sentiment_code_seq')::TEXT, 3, '0'), $2, $3, $4, $5, $6, $7, $8)
RETURNING code`
	if err := r.db.GetContext(ctx, &s.Code, query, s.ID, s.StudentLabel, s.Content, s.Category, s.Polarity, s.Status, s.CreatedAt, s.UpdatedAt); err != nil {
		return fmt.Errorf("create sentiment: %w", err)
	}
	return nil
}

// GetByID returns a record by identifier.
func (r *SentimentRepository) GetByID(ctx context.Context, id string) (*models.Sentiment, error) {
	query := fmt.Sprintf(`SELECT %s FROM sentiments WHERE id = $1 LIMIT 1`, sentimentColumns)
	var s models.Sentiment
	if err := r.db.GetContext(ctx, &s, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get sentiment: %w", err)
	}
	return &s, nil
}

// List returns records newest first with optional filters and total count.
func (r *SentimentRepository) List(ctx context.Context, filter models.SentimentFilter) ([]models.Sentiment, int, error) {
	baseQuery := `FROM sentiments WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Category != nil {
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, *filter.Category)
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", sentimentColumns, baseQuery, pageSize, offset)

	var records []models.Sentiment
	if err := r.db.SelectContext(ctx, &records, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list sentiments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count sentiments: %w", err)
	}

	return records, total, nil
}

// UpdateStatus changes the workflow status of a record and returns the number
// of rows affected. Zero rows means the id did not exist.
func (r *SentimentRepository) UpdateStatus(ctx context.Context, id string, status models.SentimentStatus) (int64, error) {
	const query = `UPDATE sentiments SET status = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("update sentiment status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sentiment rows affected: %w", err)
	}
	return affected, nil
}

// Stats aggregates workflow counters. thisMonth counts records created in the
// current calendar month.
func (r *SentimentRepository) Stats(ctx context.Context, now time.Time) (models.SentimentStats, error) {
	const query = `SELECT
        COUNT(*) AS total,
        COUNT(*) FILTER (WHERE status = 'On Process') AS on_process,
        COUNT(*) FILTER (WHERE status = 'Resolved') AS resolved,
        COUNT(*) FILTER (WHERE date_trunc('month', created_at) = date_trunc('month', $1::timestamptz)) AS this_month
    FROM sentiments`
	var stats models.SentimentStats
	if err := r.db.GetContext(ctx, &stats, query, now.UTC()); err != nil {
		return models.SentimentStats{}, fmt.Errorf("sentiment stats: %w", err)
	}
	return stats, nil
}

// MonthlyCounts returns per-month record counts from the given start, ordered
// oldest first. Months with no records are absent and filled by the service.
func (r *SentimentRepository) MonthlyCounts(ctx context.Context, from time.Time) ([]models.MonthlyCount, error) {
	const query = `SELECT date_trunc('month', created_at) AS month, COUNT(*) AS count
    FROM sentiments WHERE created_at >= $1 GROUP BY 1 ORDER BY 1 ASC`
	var counts []models.MonthlyCount
	if err := r.db.SelectContext(ctx, &counts, query, from.UTC()); err != nil {
		return nil, fmt.Errorf("sentiment monthly counts: %w", err)
	}
	return counts, nil
}

// CategoryBreakdown returns record counts per category, highest first.
func (r *SentimentRepository) CategoryBreakdown(ctx context.Context) ([]models.CategoryCount, error) {
	const query = `SELECT category, COUNT(*) AS count FROM sentiments GROUP BY category ORDER BY count DESC`
	var counts []models.CategoryCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("sentiment category breakdown: %w", err)
	}
	return counts, nil
}

// PolarityBreakdown returns record counts per polarity, highest first.
func (r *SentimentRepository) PolarityBreakdown(ctx context.Context) ([]models.PolarityCount, error) {
	const query = `SELECT polarity, COUNT(*) AS count FROM sentiments GROUP BY polarity ORDER BY count DESC`
	var counts []models.PolarityCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("sentiment polarity breakdown: %w", err)
	}
	return counts, nil
}

// ListForExport returns records matching the report parameters, oldest first.
func (r *SentimentRepository) ListForExport(ctx context.Context, params models.ReportJobParams) ([]models.Sentiment, error) {
	baseQuery := `FROM sentiments WHERE 1=1`
	var conditions []string
	var args []interface{}

	if params.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *params.Status)
	}
	if params.Category != nil {
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, *params.Category)
	}
	if params.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)+1))
		args = append(args, *params.DateFrom)
	}
	if params.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)+1))
		args = append(args, *params.DateTo)
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at ASC", sentimentColumns, baseQuery)
	var records []models.Sentiment
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list sentiments for export: %w", err)
	}
	return records, nil
}

// DeleteAll removes every record. Used by the admin data wipe.
func (r *SentimentRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sentiments`); err != nil {
		return fmt.Errorf("delete all sentiments: %w", err)
	}
	return nil
}
