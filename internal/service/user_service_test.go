package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/lumus-labs/lumus-api/internal/models"
	appErrors "github.com/lumus-labs/lumus-api/pkg/errors"
)

type mockUserRepo struct {
	users  map[string]*models.User
	audits []models.AuditLog
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*models.User)}
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var list []models.User
	for _, u := range m.users {
		list = append(list, *u)
	}
	return list, len(list), nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "new-user"
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) SetActive(ctx context.Context, id string, active bool) error {
	if u, ok := m.users[id]; ok {
		u.Active = active
	}
	return nil
}

func (m *mockUserRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	return nil
}

func (m *mockUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.audits = append(m.audits, *log)
	return nil
}

func newTestUserService(repo *mockUserRepo) *UserService {
	return NewUserService(repo, validator.New(), zap.NewNop())
}

func TestCreateUserMintsPrivilegedRole(t *testing.T) {
	repo := newMockUserRepo()
	svc := newTestUserService(repo)

	user, err := svc.Create(context.Background(), models.CreateUserRequest{
		FullName: "Root Admin",
		Email:    "root@example.com",
		Password: "secret123",
		Role:     "ADMIN",
	}, "actor-1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.True(t, user.Active)
	assert.NotEqual(t, "secret123", user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret123")))

	require.Len(t, repo.audits, 1)
	assert.Equal(t, models.AuditActionCreate, repo.audits[0].Action)
	assert.Equal(t, "users", repo.audits[0].Resource)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	repo := newMockUserRepo()
	repo.users["existing"] = &models.User{ID: "existing", Email: "root@example.com"}
	svc := newTestUserService(repo)

	_, err := svc.Create(context.Background(), models.CreateUserRequest{
		FullName: "Imposter",
		Email:    "root@example.com",
		Password: "secret123",
		Role:     "USER",
	}, "actor-1")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestCreateUserRequiresRole(t *testing.T) {
	repo := newMockUserRepo()
	svc := newTestUserService(repo)

	_, err := svc.Create(context.Background(), models.CreateUserRequest{
		FullName: "No Role",
		Email:    "norole@example.com",
		Password: "secret123",
	}, "actor-1")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}
