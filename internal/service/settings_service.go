package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/nemsu-talks-api/internal/dto"
	"github.com/noah-isme/nemsu-talks-api/internal/models"
	appErrors "github.com/noah-isme/nemsu-talks-api/pkg/errors"
)

type settingsRepository interface {
	Get(ctx context.Context) (*models.Settings, error)
	Save(ctx context.Context, state models.SettingsState, isDirty bool) error
	SetDirty(ctx context.Context, isDirty bool) error
	CreateBackup(ctx context.Context, backup *models.SettingsBackup) error
	ListBackups(ctx context.Context) ([]models.SettingsBackup, error)
	GetBackup(ctx context.Context, id string) (*models.SettingsBackup, error)
	DeleteBackup(ctx context.Context, id string) error
	ClearAll(ctx context.Context, state models.SettingsState) error
}

// DataWiper is implemented by each content repository that participates in
// the admin "clear all data" operation.
type DataWiper interface {
	DeleteAll(ctx context.Context) error
}

// SettingsService manages the admin configuration aggregate, its backups and
// the portable export format.
type SettingsService struct {
	repo      settingsRepository
	wipers    []DataWiper
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewSettingsService constructs a SettingsService. wipers are the content
// repositories emptied by ClearAllData.
func NewSettingsService(repo settingsRepository, wipers []DataWiper, validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SettingsService{repo: repo, wipers: wipers, validator: validate, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Get returns the current settings row, seeding defaults on first access.
func (s *SettingsService) Get(ctx context.Context) (*models.Settings, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load settings")
	}
	return settings, nil
}

// RegistrationAllowed reports whether self-service signup is open. Used by
// the auth module so new accounts honour the admin toggle.
func (s *SettingsService) RegistrationAllowed(ctx context.Context) (bool, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		return false, fmt.Errorf("load registration setting: %w", err)
	}
	return settings.State.General.AllowRegistration, nil
}

// UpdateGeneral applies the provided general fields and marks the aggregate
// dirty until SaveAll.
func (s *SettingsService) UpdateGeneral(ctx context.Context, req dto.UpdateGeneralSettingsRequest) (*models.Settings, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid settings payload")
	}
	return s.mutate(ctx, func(state *models.SettingsState) {
		g := &state.General
		if req.SiteName != nil {
			g.SiteName = *req.SiteName
		}
		if req.SiteDescription != nil {
			g.SiteDescription = *req.SiteDescription
		}
		if req.MaintenanceMode != nil {
			g.MaintenanceMode = *req.MaintenanceMode
		}
		if req.AllowRegistration != nil {
			g.AllowRegistration = *req.AllowRegistration
		}
		if req.AdminEmail != nil {
			g.AdminEmail = *req.AdminEmail
		}
	})
}

// UpdateModeration applies the provided moderation fields.
func (s *SettingsService) UpdateModeration(ctx context.Context, req dto.UpdateModerationSettingsRequest) (*models.Settings, error) {
	return s.mutate(ctx, func(state *models.SettingsState) {
		m := &state.Moderation
		if req.AutoModeration != nil {
			m.AutoModeration = *req.AutoModeration
		}
		if req.RequireApproval != nil {
			m.RequireApproval = *req.RequireApproval
		}
		if req.ProfanityFilter != nil {
			m.ProfanityFilter = *req.ProfanityFilter
		}
		if req.SpamDetection != nil {
			m.SpamDetection = *req.SpamDetection
		}
		if req.MaxPostsPerDay != nil {
			m.MaxPostsPerDay = *req.MaxPostsPerDay
		}
	})
}

// UpdateNotification applies the provided notification fields.
func (s *SettingsService) UpdateNotification(ctx context.Context, req dto.UpdateNotificationSettingsRequest) (*models.Settings, error) {
	return s.mutate(ctx, func(state *models.SettingsState) {
		n := &state.Notification
		if req.EmailNotifications != nil {
			n.EmailNotifications = *req.EmailNotifications
		}
		if req.NewUserAlert != nil {
			n.NewUserAlert = *req.NewUserAlert
		}
		if req.FlaggedContentAlert != nil {
			n.FlaggedContentAlert = *req.FlaggedContentAlert
		}
		if req.DailyDigest != nil {
			n.DailyDigest = *req.DailyDigest
		}
	})
}

// UpdateAppearance applies the provided appearance fields.
func (s *SettingsService) UpdateAppearance(ctx context.Context, req dto.UpdateAppearanceSettingsRequest) (*models.Settings, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid settings payload")
	}
	return s.mutate(ctx, func(state *models.SettingsState) {
		a := &state.Appearance
		if req.PrimaryColor != nil {
			a.PrimaryColor = *req.PrimaryColor
		}
		if req.AllowDarkMode != nil {
			a.AllowDarkMode = *req.AllowDarkMode
		}
		if req.DefaultTheme != nil {
			a.DefaultTheme = *req.DefaultTheme
		}
	})
}

func (s *SettingsService) mutate(ctx context.Context, apply func(*models.SettingsState)) (*models.Settings, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load settings")
	}
	apply(&settings.State)
	settings.IsDirty = true
	if err := s.repo.Save(ctx, settings.State, true); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save settings")
	}
	return settings, nil
}

// SaveAll acknowledges the pending changes and clears the dirty flag.
func (s *SettingsService) SaveAll(ctx context.Context) (*models.Settings, error) {
	if err := s.repo.SetDirty(ctx, false); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save settings")
	}
	return s.Get(ctx)
}

// ResetToDefaults restores the factory configuration. Backups are kept.
func (s *SettingsService) ResetToDefaults(ctx context.Context) (*models.Settings, error) {
	if err := s.repo.Save(ctx, models.DefaultSettingsState(), false); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset settings")
	}
	return s.Get(ctx)
}

// CreateBackup snapshots the current aggregate under the given name. Size is
// the byte length of the serialized snapshot.
func (s *SettingsService) CreateBackup(ctx context.Context, name string) (*models.SettingsBackup, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load settings")
	}
	if name == "" {
		name = "Backup " + s.now().Format("2006-01-02 15:04")
	}
	data, err := json.Marshal(settings.State)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to serialize settings")
	}
	backup := &models.SettingsBackup{
		Name:      name,
		State:     settings.State,
		SizeBytes: len(data),
		CreatedAt: s.now(),
	}
	if err := s.repo.CreateBackup(ctx, backup); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create backup")
	}
	return backup, nil
}

// ListBackups returns snapshots newest first.
func (s *SettingsService) ListBackups(ctx context.Context) ([]models.SettingsBackup, error) {
	backups, err := s.repo.ListBackups(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list backups")
	}
	if backups == nil {
		backups = []models.SettingsBackup{}
	}
	return backups, nil
}

// RestoreBackup replaces the aggregate with a snapshot. An unknown backup id
// fails with not found and leaves the current state untouched.
func (s *SettingsService) RestoreBackup(ctx context.Context, id string) (*models.Settings, error) {
	backup, err := s.repo.GetBackup(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "backup not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load backup")
	}
	if err := s.repo.Save(ctx, backup.State, false); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to restore backup")
	}
	return s.Get(ctx)
}

// DeleteBackup removes a snapshot. Missing ids succeed silently.
func (s *SettingsService) DeleteBackup(ctx context.Context, id string) error {
	if err := s.repo.DeleteBackup(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete backup")
	}
	return nil
}

// Export produces the portable settings document.
func (s *SettingsService) Export(ctx context.Context) (*models.SettingsExport, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load settings")
	}
	state := settings.State
	return &models.SettingsExport{
		General:      &state.General,
		Moderation:   &state.Moderation,
		Notification: &state.Notification,
		Appearance:   &state.Appearance,
		ExportedAt:   s.now(),
		Version:      models.SettingsExportVersion,
	}, nil
}

// Import replaces the aggregate from an exported document. All four groups
// must be present; a missing group rejects the whole document and nothing
// changes. Each group is merged over the defaults, so fields the file omits
// come back as their factory values rather than zero values.
func (s *SettingsService) Import(ctx context.Context, doc models.SettingsImport) (*models.Settings, error) {
	state := models.DefaultSettingsState()
	groups := []struct {
		name string
		raw  json.RawMessage
		dest interface{}
	}{
		{"general", doc.General, &state.General},
		{"moderation", doc.Moderation, &state.Moderation},
		{"notification", doc.Notification, &state.Notification},
		{"appearance", doc.Appearance, &state.Appearance},
	}
	for _, g := range groups {
		if len(g.raw) == 0 || string(g.raw) == "null" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "settings file must contain general, moderation, notification and appearance sections")
		}
		if err := json.Unmarshal(g.raw, g.dest); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "settings file has an invalid "+g.name+" section")
		}
	}
	if err := s.repo.Save(ctx, state, false); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to import settings")
	}
	return s.Get(ctx)
}

// ClearAllData wipes every content table and resets settings to defaults.
// Backups are removed as part of the reset.
func (s *SettingsService) ClearAllData(ctx context.Context) error {
	for _, w := range s.wipers {
		if err := w.DeleteAll(ctx); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear data")
		}
	}
	if err := s.repo.ClearAll(ctx, models.DefaultSettingsState()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset settings")
	}
	return nil
}
