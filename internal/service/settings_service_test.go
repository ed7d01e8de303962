package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/nemsu-talks-api/internal/dto"
	"github.com/noah-isme/nemsu-talks-api/internal/models"
)

type mockSettingsRepo struct {
	state   models.SettingsState
	isDirty bool
	backups map[string]*models.SettingsBackup
	nextID  int
	cleared bool
}

func newMockSettingsRepo() *mockSettingsRepo {
	return &mockSettingsRepo{
		state:   models.DefaultSettingsState(),
		backups: map[string]*models.SettingsBackup{},
		nextID:  1,
	}
}

func (m *mockSettingsRepo) Get(ctx context.Context) (*models.Settings, error) {
	return &models.Settings{ID: 1, State: m.state, IsDirty: m.isDirty}, nil
}

func (m *mockSettingsRepo) Save(ctx context.Context, state models.SettingsState, isDirty bool) error {
	m.state = state
	m.isDirty = isDirty
	return nil
}

func (m *mockSettingsRepo) SetDirty(ctx context.Context, isDirty bool) error {
	m.isDirty = isDirty
	return nil
}

func (m *mockSettingsRepo) CreateBackup(ctx context.Context, backup *models.SettingsBackup) error {
	backup.ID = fmt.Sprintf("b%d", m.nextID)
	m.nextID++
	cp := *backup
	m.backups[backup.ID] = &cp
	return nil
}

func (m *mockSettingsRepo) ListBackups(ctx context.Context) ([]models.SettingsBackup, error) {
	var out []models.SettingsBackup
	for _, b := range m.backups {
		out = append(out, *b)
	}
	return out, nil
}

func (m *mockSettingsRepo) GetBackup(ctx context.Context, id string) (*models.SettingsBackup, error) {
	b, ok := m.backups[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *b
	return &cp, nil
}

func (m *mockSettingsRepo) DeleteBackup(ctx context.Context, id string) error {
	delete(m.backups, id)
	return nil
}

func (m *mockSettingsRepo) ClearAll(ctx context.Context, state models.SettingsState) error {
	m.state = state
	m.isDirty = false
	m.backups = map[string]*models.SettingsBackup{}
	m.cleared = true
	return nil
}

type mockWiper struct {
	calls int
	err   error
}

func (m *mockWiper) DeleteAll(ctx context.Context) error {
	m.calls++
	return m.err
}

func TestSettingsServiceUpdateMarksDirty(t *testing.T) {
	repo := newMockSettingsRepo()
	svc := NewSettingsService(repo, nil, validator.New(), zap.NewNop())

	name := "Campus Voice"
	settings, err := svc.UpdateGeneral(context.Background(), dto.UpdateGeneralSettingsRequest{SiteName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Campus Voice", settings.State.General.SiteName)
	assert.True(t, settings.IsDirty)

	// Untouched fields keep their defaults.
	assert.True(t, settings.State.General.AllowRegistration)

	saved, err := svc.SaveAll(context.Background())
	require.NoError(t, err)
	assert.False(t, saved.IsDirty)
	assert.Equal(t, "Campus Voice", saved.State.General.SiteName)
}

func TestSettingsServiceBackupAndRestore(t *testing.T) {
	repo := newMockSettingsRepo()
	svc := NewSettingsService(repo, nil, validator.New(), zap.NewNop())

	backup, err := svc.CreateBackup(context.Background(), "before change")
	require.NoError(t, err)
	assert.Equal(t, "before change", backup.Name)
	assert.Greater(t, backup.SizeBytes, 0)

	color := "#ff0000"
	_, err = svc.UpdateAppearance(context.Background(), dto.UpdateAppearanceSettingsRequest{PrimaryColor: &color})
	require.NoError(t, err)

	restored, err := svc.RestoreBackup(context.Background(), backup.ID)
	require.NoError(t, err)
	assert.Equal(t, "#1e40af", restored.State.Appearance.PrimaryColor)
	assert.False(t, restored.IsDirty)
}

func TestSettingsServiceRestoreUnknownBackupLeavesStateUntouched(t *testing.T) {
	repo := newMockSettingsRepo()
	svc := NewSettingsService(repo, nil, validator.New(), zap.NewNop())

	color := "#00ff00"
	_, err := svc.UpdateAppearance(context.Background(), dto.UpdateAppearanceSettingsRequest{PrimaryColor: &color})
	require.NoError(t, err)

	_, err = svc.RestoreBackup(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, "#00ff00", repo.state.Appearance.PrimaryColor)
}

func TestSettingsServiceDefaultBackupName(t *testing.T) {
	repo := newMockSettingsRepo()
	svc := NewSettingsService(repo, nil, validator.New(), zap.NewNop())

	backup, err := svc.CreateBackup(context.Background(), "")
	require.NoError(t, err)
	assert.Contains(t, backup.Name, "Backup ")
}

func TestSettingsServiceExportImportRoundTrip(t *testing.T) {
	repo := newMockSettingsRepo()
	svc := NewSettingsService(repo, nil, validator.New(), zap.NewNop())

	name := "Exported Site"
	_, err := svc.UpdateGeneral(context.Background(), dto.UpdateGeneralSettingsRequest{SiteName: &name})
	require.NoError(t, err)

	doc, err := svc.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.SettingsExportVersion, doc.Version)
	assert.Equal(t, "Exported Site", doc.General.SiteName)

	_, err = svc.ResetToDefaults(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "NEMSUTalks", repo.state.General.SiteName)

	imported, err := svc.Import(context.Background(), importDoc(t, doc))
	require.NoError(t, err)
	assert.Equal(t, "Exported Site", imported.State.General.SiteName)
	assert.False(t, imported.IsDirty)
}

// importDoc round-trips an export document through JSON, the way an uploaded
// settings file arrives at the import endpoint.
func importDoc(t *testing.T, doc *models.SettingsExport) models.SettingsImport {
	t.Helper()
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	var imp models.SettingsImport
	require.NoError(t, json.Unmarshal(data, &imp))
	return imp
}

func TestSettingsServiceImportRejectsPartialDocument(t *testing.T) {
	repo := newMockSettingsRepo()
	svc := NewSettingsService(repo, nil, validator.New(), zap.NewNop())

	doc, err := svc.Export(context.Background())
	require.NoError(t, err)
	imp := importDoc(t, doc)
	imp.Moderation = nil

	name := "Before Import"
	_, err = svc.UpdateGeneral(context.Background(), dto.UpdateGeneralSettingsRequest{SiteName: &name})
	require.NoError(t, err)

	_, err = svc.Import(context.Background(), imp)
	require.Error(t, err)
	assert.Equal(t, "Before Import", repo.state.General.SiteName)
}

func TestSettingsServiceImportMergesOverDefaults(t *testing.T) {
	repo := newMockSettingsRepo()
	svc := NewSettingsService(repo, nil, validator.New(), zap.NewNop())

	imp := models.SettingsImport{
		General:      json.RawMessage(`{"siteName":"Partial"}`),
		Moderation:   json.RawMessage(`{}`),
		Notification: json.RawMessage(`{}`),
		Appearance:   json.RawMessage(`{}`),
		Version:      models.SettingsExportVersion,
	}

	imported, err := svc.Import(context.Background(), imp)
	require.NoError(t, err)

	// The listed field applies; everything the file omits keeps its default.
	assert.Equal(t, "Partial", imported.State.General.SiteName)
	assert.True(t, imported.State.General.AllowRegistration)
	assert.Equal(t, "admin@nemsu.edu.ph", imported.State.General.AdminEmail)
	assert.Equal(t, "10", imported.State.Moderation.MaxPostsPerDay)
	assert.Equal(t, "#1e40af", imported.State.Appearance.PrimaryColor)
	assert.Equal(t, "light", imported.State.Appearance.DefaultTheme)
}

func TestSettingsServiceImportRejectsMalformedGroup(t *testing.T) {
	repo := newMockSettingsRepo()
	svc := NewSettingsService(repo, nil, validator.New(), zap.NewNop())

	name := "Before Import"
	_, err := svc.UpdateGeneral(context.Background(), dto.UpdateGeneralSettingsRequest{SiteName: &name})
	require.NoError(t, err)

	imp := models.SettingsImport{
		General:      json.RawMessage(`"not an object"`),
		Moderation:   json.RawMessage(`{}`),
		Notification: json.RawMessage(`{}`),
		Appearance:   json.RawMessage(`{}`),
	}
	_, err = svc.Import(context.Background(), imp)
	require.Error(t, err)
	assert.Equal(t, "Before Import", repo.state.General.SiteName)
}

func TestSettingsServiceClearAllData(t *testing.T) {
	repo := newMockSettingsRepo()
	w1 := &mockWiper{}
	w2 := &mockWiper{}
	svc := NewSettingsService(repo, []DataWiper{w1, w2}, validator.New(), zap.NewNop())

	_, err := svc.CreateBackup(context.Background(), "doomed")
	require.NoError(t, err)

	name := "Changed"
	_, err = svc.UpdateGeneral(context.Background(), dto.UpdateGeneralSettingsRequest{SiteName: &name})
	require.NoError(t, err)

	require.NoError(t, svc.ClearAllData(context.Background()))
	assert.Equal(t, 1, w1.calls)
	assert.Equal(t, 1, w2.calls)
	assert.True(t, repo.cleared)
	assert.Empty(t, repo.backups)
	assert.Equal(t, "NEMSUTalks", repo.state.General.SiteName)
}

func TestSettingsServiceRegistrationAllowed(t *testing.T) {
	repo := newMockSettingsRepo()
	svc := NewSettingsService(repo, nil, validator.New(), zap.NewNop())

	allowed, err := svc.RegistrationAllowed(context.Background())
	require.NoError(t, err)
	assert.True(t, allowed)

	off := false
	_, err = svc.UpdateGeneral(context.Background(), dto.UpdateGeneralSettingsRequest{AllowRegistration: &off})
	require.NoError(t, err)

	allowed, err = svc.RegistrationAllowed(context.Background())
	require.NoError(t, err)
	assert.False(t, allowed)
}
