package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/nemsu-talks-api/internal/models"
)

type mockUserRepo struct {
	users   map[string]*models.User
	tokens  map[string]*models.RefreshToken
	audits  []models.AuditLog
	nextID  int
	revoked []string
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: map[string]*models.User{}, tokens: map[string]*models.RefreshToken{}, nextID: 1}
}

func (m *mockUserRepo) FindByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, identifier) || u.StudentID == identifier {
			cp := *u
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepo) ExistsByStudentID(ctx context.Context, studentID string) (bool, error) {
	for _, u := range m.users {
		if u.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = fmt.Sprintf("u%d", m.nextID)
	m.nextID++
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, user *models.User) error {
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if u, ok := m.users[id]; ok {
		u.PasswordHash = passwordHash
	}
	return nil
}

func (m *mockUserRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revoked = append(m.revoked, userID)
	return nil
}

func (m *mockUserRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	cp := *token
	m.tokens[token.Token] = &cp
	return nil
}

func (m *mockUserRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	t, ok := m.tokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *t
	return &cp, nil
}

func (m *mockUserRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, t := range m.tokens {
		if t.ID == id {
			t.Revoked = true
			t.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (m *mockUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.audits = append(m.audits, *log)
	return nil
}

type mockGate struct {
	allowed bool
}

func (m *mockGate) RegistrationAllowed(ctx context.Context) (bool, error) {
	return m.allowed, nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
		Issuer:             "nemsu-talks-api",
		AllowedEmailDomain: "nemsu.edu.ph",
	}
}

func registerStudent(t *testing.T, svc *AuthService) *models.UserInfo {
	t.Helper()
	info, err := svc.Register(context.Background(), models.RegisterRequest{
		FullName:  "Juan Dela Cruz",
		Email:     "juan@nemsu.edu.ph",
		StudentID: "2021-00123",
		Password:  "sekret1",
	})
	require.NoError(t, err)
	return info
}

func TestAuthServiceRegister(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, nil, validator.New(), zap.NewNop(), testAuthConfig())

	info := registerStudent(t, svc)
	assert.Equal(t, models.RoleStudent, info.Role)
	assert.Equal(t, "JC", info.AvatarInitials)
	assert.False(t, info.IsAdmin)
	assert.Len(t, repo.audits, 1)
}

func TestAuthServiceRegisterRejectsForeignDomain(t *testing.T) {
	svc := NewAuthService(newMockUserRepo(), nil, validator.New(), zap.NewNop(), testAuthConfig())

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		FullName:  "Outsider",
		Email:     "someone@gmail.com",
		StudentID: "2021-00999",
		Password:  "sekret1",
	})
	require.Error(t, err)
}

func TestAuthServiceRegisterRejectsDuplicates(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, nil, validator.New(), zap.NewNop(), testAuthConfig())
	registerStudent(t, svc)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		FullName:  "Someone Else",
		Email:     "juan@nemsu.edu.ph",
		StudentID: "2021-00456",
		Password:  "sekret1",
	})
	require.Error(t, err)

	_, err = svc.Register(context.Background(), models.RegisterRequest{
		FullName:  "Someone Else",
		Email:     "else@nemsu.edu.ph",
		StudentID: "2021-00123",
		Password:  "sekret1",
	})
	require.Error(t, err)
}

func TestAuthServiceRegisterHonoursGate(t *testing.T) {
	svc := NewAuthService(newMockUserRepo(), &mockGate{allowed: false}, validator.New(), zap.NewNop(), testAuthConfig())

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		FullName:  "Juan Dela Cruz",
		Email:     "juan@nemsu.edu.ph",
		StudentID: "2021-00123",
		Password:  "sekret1",
	})
	require.Error(t, err)
}

func TestAuthServiceLoginAndValidate(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, nil, validator.New(), zap.NewNop(), testAuthConfig())
	registerStudent(t, svc)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Identifier: "juan@nemsu.edu.ph",
		Password:   "sekret1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)

	// Student ID works as the identifier too.
	_, err = svc.Login(context.Background(), models.LoginRequest{
		Identifier: "2021-00123",
		Password:   "sekret1",
	})
	require.NoError(t, err)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, nil, validator.New(), zap.NewNop(), testAuthConfig())
	registerStudent(t, svc)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Identifier: "juan@nemsu.edu.ph",
		Password:   "wrong",
	})
	require.Error(t, err)

	_, unknownErr := svc.Login(context.Background(), models.LoginRequest{
		Identifier: "nobody@nemsu.edu.ph",
		Password:   "wrong",
	})
	require.Error(t, unknownErr)
	// Unknown identifier and wrong password are indistinguishable.
	assert.Equal(t, err.Error(), unknownErr.Error())
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, nil, validator.New(), zap.NewNop(), testAuthConfig())
	registerStudent(t, svc)

	login, err := svc.Login(context.Background(), models.LoginRequest{
		Identifier: "juan@nemsu.edu.ph",
		Password:   "sekret1",
	})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The used token is revoked; replaying it fails.
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
}

func TestAuthServiceChangePasswordRevokesSessions(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, nil, validator.New(), zap.NewNop(), testAuthConfig())
	info := registerStudent(t, svc)

	err := svc.ChangePassword(context.Background(), info.ID, models.ChangePasswordRequest{
		OldPassword: "wrong",
		NewPassword: "newsekret",
	})
	require.Error(t, err)

	err = svc.ChangePassword(context.Background(), info.ID, models.ChangePasswordRequest{
		OldPassword: "sekret1",
		NewPassword: "newsekret",
	})
	require.NoError(t, err)
	assert.Contains(t, repo.revoked, info.ID)

	_, err = svc.Login(context.Background(), models.LoginRequest{
		Identifier: "juan@nemsu.edu.ph",
		Password:   "newsekret",
	})
	require.NoError(t, err)
}

func TestAuthServiceUpdateProfileRefreshesInitials(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, nil, validator.New(), zap.NewNop(), testAuthConfig())
	info := registerStudent(t, svc)

	name := "Maria Clara Santos"
	updated, err := svc.UpdateProfile(context.Background(), info.ID, models.UpdateProfileRequest{FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Maria Clara Santos", updated.FullName)
	assert.Equal(t, "MS", updated.AvatarInitials)
}

func TestAuthServiceSeedAdminIsIdempotent(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, nil, validator.New(), zap.NewNop(), testAuthConfig())

	require.NoError(t, svc.SeedAdmin(context.Background(), "admin@nemsu.edu.ph", "adminpass", "Site Admin"))
	require.NoError(t, svc.SeedAdmin(context.Background(), "admin@nemsu.edu.ph", "adminpass", "Site Admin"))
	assert.Len(t, repo.users, 1)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Identifier: "admin@nemsu.edu.ph",
		Password:   "adminpass",
	})
	require.NoError(t, err)
	assert.True(t, resp.User.IsAdmin)
}

func TestInitials(t *testing.T) {
	assert.Equal(t, "JC", Initials("Juan Dela Cruz"))
	assert.Equal(t, "M", Initials("Madonna"))
	assert.Equal(t, "?", Initials("  "))
	assert.Equal(t, "ÁR", Initials("Ángel Ramírez"))
	assert.Equal(t, "Ñ", Initials("ñato"))
}
