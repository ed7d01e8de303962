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

func newNotificationRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestNotificationRepositoryCreateFillsDefaults(t *testing.T) {
	db, mock, cleanup := newNotificationRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec("INSERT INTO notifications").
		WillReturnResult(sqlmock.NewResult(1, 1))

	n := &models.Notification{
		Audience: models.AudienceAdmin,
		Type:     models.NotifTypeNewSentiment,
		Title:    "New Sentiment Submitted",
		Message:  "STU-001 submitted feedback",
	}
	require.NoError(t, repo.Create(context.Background(), n))
	assert.NotEmpty(t, n.ID)
	assert.False(t, n.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryAdminListScopesByAudienceOnly(t *testing.T) {
	db, mock, cleanup := newNotificationRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	rows := sqlmock.NewRows([]string{"id", "audience", "recipient_id", "type", "title", "message", "link", "read", "created_at"}).
		AddRow("n1", "ADMIN", nil, "new_sentiment", "New Sentiment Submitted", "msg", nil, false, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, audience, recipient_id, type, title, message, link, read, created_at FROM notifications WHERE audience = $1 ORDER BY created_at DESC")).
		WithArgs(models.AudienceAdmin).
		WillReturnRows(rows)

	items, err := repo.List(context.Background(), models.AudienceAdmin, "")
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryStudentListJoinsPerUserState(t *testing.T) {
	db, mock, cleanup := newNotificationRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	// The per-user read mark folds into the read column and hidden broadcasts
	// are filtered out before ordering.
	rows := sqlmock.NewRows([]string{"id", "audience", "recipient_id", "type", "title", "message", "link", "read", "created_at"}).
		AddRow("n1", "STUDENT", "u1", "status_update", "Status Updated", "msg", nil, false, time.Now()).
		AddRow("n2", "STUDENT", nil, "announcement", "New Announcement", "msg", nil, true, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("(n.read OR r.notification_id IS NOT NULL) AS read")).
		WithArgs(models.AudienceStudent, "u1").
		WillReturnRows(rows)

	items, err := repo.List(context.Background(), models.AudienceStudent, "u1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.True(t, items[1].Read)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryUnreadCount(t *testing.T) {
	db, mock, cleanup := newNotificationRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM notifications WHERE audience = $1 AND read = FALSE")).
		WithArgs(models.AudienceAdmin).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.UnreadCount(context.Background(), models.AudienceAdmin, "")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryStudentUnreadCountSkipsReadAndHidden(t *testing.T) {
	db, mock, cleanup := newNotificationRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("n.read = FALSE AND r.notification_id IS NULL AND h.notification_id IS NULL")).
		WithArgs(models.AudienceStudent, "u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.UnreadCount(context.Background(), models.AudienceStudent, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryAdminMarkAsReadUpdatesRow(t *testing.T) {
	db, mock, cleanup := newNotificationRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET read = TRUE WHERE audience = $1 AND id = $2")).
		WithArgs(models.AudienceAdmin, "n1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.MarkAsRead(context.Background(), models.AudienceAdmin, "", "n1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryStudentMarkAsReadRecordsPerUser(t *testing.T) {
	db, mock, cleanup := newNotificationRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	// A student read lands in notification_reads; the shared row is untouched.
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notification_reads (user_id, notification_id)\nSELECT $2, id FROM notifications WHERE audience = $1 AND (recipient_id = $2 OR recipient_id IS NULL) AND id = $3\nON CONFLICT DO NOTHING")).
		WithArgs(models.AudienceStudent, "u1", "n2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.MarkAsRead(context.Background(), models.AudienceStudent, "u1", "n2"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryStudentMarkAllAsReadRecordsPerUser(t *testing.T) {
	db, mock, cleanup := newNotificationRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notification_reads (user_id, notification_id)\nSELECT $2, id FROM notifications WHERE audience = $1 AND (recipient_id = $2 OR recipient_id IS NULL) AND read = FALSE\nON CONFLICT DO NOTHING")).
		WithArgs(models.AudienceStudent, "u1").
		WillReturnResult(sqlmock.NewResult(0, 4))
	require.NoError(t, repo.MarkAllAsRead(context.Background(), models.AudienceStudent, "u1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryStudentDeleteHidesBroadcast(t *testing.T) {
	db, mock, cleanup := newNotificationRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	// Personal rows are deleted; a broadcast row only gains a hidden marker
	// for this student.
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM notifications WHERE audience = $1 AND recipient_id = $2 AND id = $3")).
		WithArgs(models.AudienceStudent, "u1", "n2").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notification_hidden (user_id, notification_id)\nSELECT $2, id FROM notifications WHERE audience = $1 AND recipient_id IS NULL AND id = $3\nON CONFLICT DO NOTHING")).
		WithArgs(models.AudienceStudent, "u1", "n2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), models.AudienceStudent, "u1", "n2"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryStudentClearAllKeepsBroadcastRows(t *testing.T) {
	db, mock, cleanup := newNotificationRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM notifications WHERE audience = $1 AND recipient_id = $2")).
		WithArgs(models.AudienceStudent, "u1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notification_hidden (user_id, notification_id)\nSELECT $2, id FROM notifications WHERE audience = $1 AND recipient_id IS NULL\nON CONFLICT DO NOTHING")).
		WithArgs(models.AudienceStudent, "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.ClearAll(context.Background(), models.AudienceStudent, "u1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryAdminClearAll(t *testing.T) {
	db, mock, cleanup := newNotificationRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM notifications WHERE audience = $1")).
		WithArgs(models.AudienceAdmin).
		WillReturnResult(sqlmock.NewResult(0, 5))
	require.NoError(t, repo.ClearAll(context.Background(), models.AudienceAdmin, ""))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryDeleteAllWipesPerUserState(t *testing.T) {
	db, mock, cleanup := newNotificationRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM notification_reads")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM notification_hidden")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM notifications")).
		WillReturnResult(sqlmock.NewResult(0, 9))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteAll(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
