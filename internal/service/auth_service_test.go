package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/lumus-labs/lumus-api/internal/models"
	appErrors "github.com/lumus-labs/lumus-api/pkg/errors"
)

type mockAuthRepo struct {
	users       map[string]*models.User
	tokens      map[string]*models.RefreshToken
	audits      []models.AuditLog
	lastLogin   map[string]time.Time
	passwordSet map[string]string
}

func newMockAuthRepo() *mockAuthRepo {
	return &mockAuthRepo{
		users:       make(map[string]*models.User),
		tokens:      make(map[string]*models.RefreshToken),
		lastLogin:   make(map[string]time.Time),
		passwordSet: make(map[string]string),
	}
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "new-user"
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLogin[id] = ts
	return nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	m.passwordSet[id] = passwordHash
	if u, ok := m.users[id]; ok {
		u.PasswordHash = passwordHash
	}
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	for _, t := range m.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := m.tokens[token]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, t := range m.tokens {
		if t.ID == id {
			t.Revoked = true
			t.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (m *mockAuthRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.audits = append(m.audits, *log)
	return nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "lumus-api-test",
	}
}

func seedUser(repo *mockAuthRepo, role models.UserRole, active bool) *models.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	user := &models.User{
		ID:           "user-1",
		Email:        "ada@example.com",
		PasswordHash: string(hash),
		FullName:     "Ada Lovelace",
		Role:         role,
		Active:       active,
	}
	repo.users[user.ID] = user
	return user
}

func TestLoginSuccessIssuesTokensAndPermissions(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(repo, models.RoleProfessor, true)
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	res, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "ada@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Contains(t, res.Permissions, "manage_bookings")
	assert.Equal(t, "user-1", res.User.ID)
	assert.Contains(t, repo.lastLogin, "user-1")

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleProfessor, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(repo, models.RoleUser, true)
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "ada@example.com",
		Password: "wrong",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(repo, models.RoleUser, false)
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "ada@example.com",
		Password: "secret123",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErr.Code)
}

func TestRefreshTokenRotation(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(repo, models.RoleUser, true)
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	login, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "ada@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{
		RefreshToken: login.RefreshToken,
	})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The used token is single use.
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{
		RefreshToken: login.RefreshToken,
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(repo, models.RoleUser, true)
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	err := svc.ChangePassword(context.Background(), "user-1", models.ChangePasswordRequest{
		CurrentPassword: "wrong",
		NewPassword:     "newsecret",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
	assert.Empty(t, repo.passwordSet)
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(repo, models.RoleUser, true)
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	login, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "ada@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	require.NoError(t, svc.ChangePassword(context.Background(), "user-1", models.ChangePasswordRequest{
		CurrentPassword: "secret123",
		NewPassword:     "newsecret",
	}))

	stored := repo.tokens[login.RefreshToken]
	require.NotNil(t, stored)
	assert.True(t, stored.Revoked)
}

func TestRegisterDefaultsRole(t *testing.T) {
	repo := newMockAuthRepo()
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	user, err := svc.Register(context.Background(), models.RegisterRequest{
		FullName: "Grace Hopper",
		Email:    "grace@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.True(t, user.Active)
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	repo := newMockAuthRepo()
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		FullName: "Wannabe Admin",
		Email:    "boss@example.com",
		Password: "secret123",
		Role:     "ADMIN",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Empty(t, repo.users)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(repo, models.RoleUser, true)
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		FullName: "Imposter",
		Email:    "ada@example.com",
		Password: "secret123",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}
