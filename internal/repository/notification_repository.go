package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/nemsu-talks-api/internal/models"
)

// NotificationRepository provides database access for inbox entries. The
// admin audience shares one inbox (recipient_id NULL); student rows carry the
// recipient's user id, or NULL for a broadcast visible to every student.
// Broadcast rows are shared, so per-student read and delete state lives in
// the notification_reads and notification_hidden tables keyed by user id.
// One student marking a broadcast read or clearing their inbox never touches
// what another student sees.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository creates a new instance of NotificationRepository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

const notificationColumns = `id, audience, recipient_id, type, title, message, link, read, created_at`

// studentScope limits rows to one student's inbox: their personal rows plus
// the NULL-recipient broadcasts. Placeholders are $1 = audience, $2 = user.
const studentScope = `audience = $1 AND (recipient_id = $2 OR recipient_id IS NULL)`

// Create inserts a notification row.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notifications (id, audience, recipient_id, type, title, message, link, read, created_at)
VALUES (:id, :audience, :recipient_id, :type, :title, :message, :link, :read, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// List returns inbox entries for the audience newest first. For students the
// read flag folds in their notification_reads marks and hidden broadcasts are
// skipped.
func (r *NotificationRepository) List(ctx context.Context, audience models.NotificationAudience, recipientID string) ([]models.Notification, error) {
	var items []models.Notification
	if audience == models.AudienceAdmin {
		query := fmt.Sprintf(`SELECT %s FROM notifications WHERE audience = $1 ORDER BY created_at DESC`, notificationColumns)
		if err := r.db.SelectContext(ctx, &items, query, audience); err != nil {
			return nil, fmt.Errorf("list notifications: %w", err)
		}
		return items, nil
	}
	query := fmt.Sprintf(`SELECT n.id, n.audience, n.recipient_id, n.type, n.title, n.message, n.link,
       (n.read OR r.notification_id IS NOT NULL) AS read, n.created_at
FROM notifications n
LEFT JOIN notification_reads r ON r.notification_id = n.id AND r.user_id = $2
LEFT JOIN notification_hidden h ON h.notification_id = n.id AND h.user_id = $2
WHERE %s AND h.notification_id IS NULL
ORDER BY n.created_at DESC`, studentJoinedScope)
	if err := r.db.SelectContext(ctx, &items, query, audience, recipientID); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return items, nil
}

// studentJoinedScope is studentScope with columns qualified for queries that
// join the per-user state tables.
const studentJoinedScope = `n.audience = $1 AND (n.recipient_id = $2 OR n.recipient_id IS NULL)`

// MarkAsRead flags one entry read. Missing ids are a no-op. Student reads are
// recorded per user so a shared broadcast row is never mutated.
func (r *NotificationRepository) MarkAsRead(ctx context.Context, audience models.NotificationAudience, recipientID, id string) error {
	if audience == models.AudienceAdmin {
		const query = `UPDATE notifications SET read = TRUE WHERE audience = $1 AND id = $2`
		if _, err := r.db.ExecContext(ctx, query, audience, id); err != nil {
			return fmt.Errorf("mark notification read: %w", err)
		}
		return nil
	}
	query := fmt.Sprintf(`INSERT INTO notification_reads (user_id, notification_id)
SELECT $2, id FROM notifications WHERE %s AND id = $3
ON CONFLICT DO NOTHING`, studentScope)
	if _, err := r.db.ExecContext(ctx, query, audience, recipientID, id); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

// MarkAllAsRead flags the whole inbox read.
func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, audience models.NotificationAudience, recipientID string) error {
	if audience == models.AudienceAdmin {
		const query = `UPDATE notifications SET read = TRUE WHERE audience = $1 AND read = FALSE`
		if _, err := r.db.ExecContext(ctx, query, audience); err != nil {
			return fmt.Errorf("mark all notifications read: %w", err)
		}
		return nil
	}
	query := fmt.Sprintf(`INSERT INTO notification_reads (user_id, notification_id)
SELECT $2, id FROM notifications WHERE %s AND read = FALSE
ON CONFLICT DO NOTHING`, studentScope)
	if _, err := r.db.ExecContext(ctx, query, audience, recipientID); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

// Delete removes one entry. Missing ids are a no-op. A student deleting a
// broadcast only hides it for that student; their personal rows are removed
// outright.
func (r *NotificationRepository) Delete(ctx context.Context, audience models.NotificationAudience, recipientID, id string) error {
	if audience == models.AudienceAdmin {
		const query = `DELETE FROM notifications WHERE audience = $1 AND id = $2`
		if _, err := r.db.ExecContext(ctx, query, audience, id); err != nil {
			return fmt.Errorf("delete notification: %w", err)
		}
		return nil
	}
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		const personal = `DELETE FROM notifications WHERE audience = $1 AND recipient_id = $2 AND id = $3`
		if _, err := tx.ExecContext(ctx, personal, audience, recipientID, id); err != nil {
			return fmt.Errorf("delete notification: %w", err)
		}
		const broadcast = `INSERT INTO notification_hidden (user_id, notification_id)
SELECT $2, id FROM notifications WHERE audience = $1 AND recipient_id IS NULL AND id = $3
ON CONFLICT DO NOTHING`
		if _, err := tx.ExecContext(ctx, broadcast, audience, recipientID, id); err != nil {
			return fmt.Errorf("hide broadcast notification: %w", err)
		}
		return nil
	})
}

// ClearAll empties the inbox. For students this deletes their personal rows
// and hides every broadcast; the broadcast rows stay for other students.
func (r *NotificationRepository) ClearAll(ctx context.Context, audience models.NotificationAudience, recipientID string) error {
	if audience == models.AudienceAdmin {
		const query = `DELETE FROM notifications WHERE audience = $1`
		if _, err := r.db.ExecContext(ctx, query, audience); err != nil {
			return fmt.Errorf("clear notifications: %w", err)
		}
		return nil
	}
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		const personal = `DELETE FROM notifications WHERE audience = $1 AND recipient_id = $2`
		if _, err := tx.ExecContext(ctx, personal, audience, recipientID); err != nil {
			return fmt.Errorf("clear notifications: %w", err)
		}
		const broadcast = `INSERT INTO notification_hidden (user_id, notification_id)
SELECT $2, id FROM notifications WHERE audience = $1 AND recipient_id IS NULL
ON CONFLICT DO NOTHING`
		if _, err := tx.ExecContext(ctx, broadcast, audience, recipientID); err != nil {
			return fmt.Errorf("hide broadcast notifications: %w", err)
		}
		return nil
	})
}

// UnreadCount counts unread entries in the inbox.
func (r *NotificationRepository) UnreadCount(ctx context.Context, audience models.NotificationAudience, recipientID string) (int, error) {
	var count int
	if audience == models.AudienceAdmin {
		const query = `SELECT COUNT(*) FROM notifications WHERE audience = $1 AND read = FALSE`
		if err := r.db.GetContext(ctx, &count, query, audience); err != nil {
			return 0, fmt.Errorf("count unread notifications: %w", err)
		}
		return count, nil
	}
	query := fmt.Sprintf(`SELECT COUNT(*)
FROM notifications n
LEFT JOIN notification_reads r ON r.notification_id = n.id AND r.user_id = $2
LEFT JOIN notification_hidden h ON h.notification_id = n.id AND h.user_id = $2
WHERE %s AND n.read = FALSE AND r.notification_id IS NULL AND h.notification_id IS NULL`, studentJoinedScope)
	if err := r.db.GetContext(ctx, &count, query, audience, recipientID); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// DeleteAll removes every notification and the per-user state rows. Used by
// the admin data wipe.
func (r *NotificationRepository) DeleteAll(ctx context.Context) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, query := range []string{
			`DELETE FROM notification_reads`,
			`DELETE FROM notification_hidden`,
			`DELETE FROM notifications`,
		} {
			if _, err := tx.ExecContext(ctx, query); err != nil {
				return fmt.Errorf("delete all notifications: %w", err)
			}
		}
		return nil
	})
}

func (r *NotificationRepository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin notification tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit notification tx: %w", err)
	}
	return nil
}
