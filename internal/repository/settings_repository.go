package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/nemsu-talks-api/internal/models"
)

// SettingsRepository persists the settings aggregate and its backups. The
// aggregate lives in a single row (id = 1) so restore and import stay atomic.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository creates a new instance of SettingsRepository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the settings row, creating it with defaults when absent.
func (r *SettingsRepository) Get(ctx context.Context) (*models.Settings, error) {
	const query = `SELECT id, state, is_dirty, last_backup, updated_at FROM settings WHERE id = 1`
	var s models.Settings
	err := r.db.GetContext(ctx, &s, query)
	if err == sql.ErrNoRows {
		s = models.Settings{ID: 1, State: models.DefaultSettingsState(), UpdatedAt: time.Now().UTC()}
		const insert = `INSERT INTO settings (id, state, is_dirty, last_backup, updated_at) VALUES (1, $1, FALSE, NULL, $2) ON CONFLICT (id) DO NOTHING`
		if _, err := r.db.ExecContext(ctx, insert, s.State, s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("seed settings: %w", err)
		}
		return &s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return &s, nil
}

// Save overwrites the aggregate state and dirty flag.
func (r *SettingsRepository) Save(ctx context.Context, state models.SettingsState, isDirty bool) error {
	const query = `UPDATE settings SET state = $1, is_dirty = $2, updated_at = $3 WHERE id = 1`
	if _, err := r.db.ExecContext(ctx, query, state, isDirty, time.Now().UTC()); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// SetDirty updates only the dirty flag.
func (r *SettingsRepository) SetDirty(ctx context.Context, isDirty bool) error {
	const query = `UPDATE settings SET is_dirty = $1, updated_at = $2 WHERE id = 1`
	if _, err := r.db.ExecContext(ctx, query, isDirty, time.Now().UTC()); err != nil {
		return fmt.Errorf("set settings dirty: %w", err)
	}
	return nil
}

// CreateBackup snapshots the current state, prunes to the ten newest backups
// and stamps last_backup, all in one transaction.
func (r *SettingsRepository) CreateBackup(ctx context.Context, backup *models.SettingsBackup) error {
	if backup.ID == "" {
		backup.ID = uuid.NewString()
	}
	if backup.CreatedAt.IsZero() {
		backup.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin backup tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insert = `INSERT INTO settings_backups (id, name, state, size_bytes, created_at)
VALUES (:id, :name, :state, :size_bytes, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insert, backup); err != nil {
		return fmt.Errorf("insert backup: %w", err)
	}

	const prune = `DELETE FROM settings_backups WHERE id NOT IN (
        SELECT id FROM settings_backups ORDER BY created_at DESC LIMIT 10)`
	if _, err = tx.ExecContext(ctx, prune); err != nil {
		return fmt.Errorf("prune backups: %w", err)
	}

	const stamp = `UPDATE settings SET last_backup = $1, updated_at = $1 WHERE id = 1`
	if _, err = tx.ExecContext(ctx, stamp, backup.CreatedAt); err != nil {
		return fmt.Errorf("stamp last backup: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit backup tx: %w", err)
	}
	return nil
}

// ListBackups returns backups newest first.
func (r *SettingsRepository) ListBackups(ctx context.Context) ([]models.SettingsBackup, error) {
	const query = `SELECT id, name, state, size_bytes, created_at FROM settings_backups ORDER BY created_at DESC`
	var backups []models.SettingsBackup
	if err := r.db.SelectContext(ctx, &backups, query); err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	return backups, nil
}

// GetBackup returns a backup by identifier.
func (r *SettingsRepository) GetBackup(ctx context.Context, id string) (*models.SettingsBackup, error) {
	const query = `SELECT id, name, state, size_bytes, created_at FROM settings_backups WHERE id = $1`
	var backup models.SettingsBackup
	if err := r.db.GetContext(ctx, &backup, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get backup: %w", err)
	}
	return &backup, nil
}

// DeleteBackup removes a backup. Missing ids are a no-op.
func (r *SettingsRepository) DeleteBackup(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM settings_backups WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete backup: %w", err)
	}
	return nil
}

// ClearAll resets the aggregate to the given state and wipes every backup in
// one transaction. last_backup is cleared as well.
func (r *SettingsRepository) ClearAll(ctx context.Context, state models.SettingsState) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM settings_backups`); err != nil {
		return fmt.Errorf("clear backups: %w", err)
	}
	const reset = `UPDATE settings SET state = $1, is_dirty = FALSE, last_backup = NULL, updated_at = $2 WHERE id = 1`
	if _, err = tx.ExecContext(ctx, reset, state, time.Now().UTC()); err != nil {
		return fmt.Errorf("reset settings: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit clear tx: %w", err)
	}
	return nil
}
