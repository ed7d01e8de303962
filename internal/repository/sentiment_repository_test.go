package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/nemsu-talks-api/internal/models"
)

func newSentimentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSentimentRepositoryCreateAssignsCode(t *testing.T) {
	db, mock, cleanup := newSentimentRepoMock(t)
	defer cleanup()
	repo := NewSentimentRepository(db)

	mock.ExpectQuery("INSERT INTO sentiments").
		WillReturnRows(sqlmock.NewRows([]string{"code"}).AddRow("STU-042"))

	s := &models.Sentiment{
		StudentLabel: "Anonymous",
		Content:      "The library aircon has been broken for a week.",
		Category:     models.CategoryFacilities,
		Polarity:     models.PolarityNegative,
	}
	require.NoError(t, repo.Create(context.Background(), s))
	assert.Equal(t, "STU-042", s.Code)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, models.StatusOnProcess, s.Status)
	assert.False(t, s.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSentimentRepositoryListAppliesFilters(t *testing.T) {
	db, mock, cleanup := newSentimentRepoMock(t)
	defer cleanup()
	repo := NewSentimentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "code", "student_label", "content", "category", "polarity", "status", "created_at", "updated_at"}).
		AddRow("s1", "STU-001", "Anonymous", "text", "Instruction", "Negative", "On Process", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, code, student_label, content, category, polarity, status, created_at, updated_at FROM sentiments WHERE 1=1 AND status = $1 AND category = $2 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs(models.StatusOnProcess, models.CategoryInstruction).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM sentiments WHERE 1=1 AND status = $1 AND category = $2")).
		WithArgs(models.StatusOnProcess, models.CategoryInstruction).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	status := models.StatusOnProcess
	category := models.CategoryInstruction
	items, total, err := repo.List(context.Background(), models.SentimentFilter{Status: &status, Category: &category})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSentimentRepositoryListClampsPagination(t *testing.T) {
	db, mock, cleanup := newSentimentRepoMock(t)
	defer cleanup()
	repo := NewSentimentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "student_label", "content", "category", "polarity", "status", "created_at", "updated_at"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, _, err := repo.List(context.Background(), models.SentimentFilter{Page: -3, PageSize: 9999})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSentimentRepositoryUpdateStatusReportsAffectedRows(t *testing.T) {
	db, mock, cleanup := newSentimentRepoMock(t)
	defer cleanup()
	repo := NewSentimentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE sentiments SET status = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("s1", models.StatusResolved, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	affected, err := repo.UpdateStatus(context.Background(), "s1", models.StatusResolved)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE sentiments SET status = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("missing", models.StatusResolved, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	affected, err = repo.UpdateStatus(context.Background(), "missing", models.StatusResolved)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSentimentRepositoryStats(t *testing.T) {
	db, mock, cleanup := newSentimentRepoMock(t)
	defer cleanup()
	repo := NewSentimentRepository(db)

	mock.ExpectQuery("FROM sentiments").
		WillReturnRows(sqlmock.NewRows([]string{"total", "on_process", "resolved", "this_month"}).AddRow(10, 4, 6, 3))

	stats, err := repo.Stats(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 10, stats.Total)
	assert.Equal(t, 4, stats.OnProcess)
	assert.Equal(t, 6, stats.Resolved)
	assert.Equal(t, 3, stats.ThisMonth)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSentimentRepositoryListForExportBuildsDateRange(t *testing.T) {
	db, mock, cleanup := newSentimentRepoMock(t)
	defer cleanup()
	repo := NewSentimentRepository(db)

	from := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM sentiments WHERE 1=1 AND created_at >= $1 AND created_at <= $2 ORDER BY created_at ASC")).
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "student_label", "content", "category", "polarity", "status", "created_at", "updated_at"}))

	_, err := repo.ListForExport(context.Background(), models.ReportJobParams{DateFrom: &from, DateTo: &to})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSentimentRepositoryDeleteAll(t *testing.T) {
	db, mock, cleanup := newSentimentRepoMock(t)
	defer cleanup()
	repo := NewSentimentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sentiments")).
		WillReturnResult(sqlmock.NewResult(0, 5))
	require.NoError(t, repo.DeleteAll(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
