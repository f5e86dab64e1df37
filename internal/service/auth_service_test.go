package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/schoolscan/attendance-api/internal/models"
	appErrors "github.com/schoolscan/attendance-api/pkg/errors"
)

type mockAdminRepo struct {
	admins map[string]models.Admin
}

func (m *mockAdminRepo) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	if a, ok := m.admins[email]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAdminRepo) FindByID(ctx context.Context, id int64) (*models.Admin, error) {
	for _, a := range m.admins {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAdminRepo) Count(ctx context.Context) (int, error) {
	return len(m.admins), nil
}

func (m *mockAdminRepo) Create(ctx context.Context, admin *models.Admin) error {
	if m.admins == nil {
		m.admins = make(map[string]models.Admin)
	}
	admin.ID = int64(len(m.admins) + 1)
	m.admins[admin.Email] = *admin
	return nil
}

func newTestAuthService(repo *mockAdminRepo) *AuthService {
	return NewAuthService(repo, validator.New(), nil, AuthConfig{Secret: "test_secret", Expiration: time.Hour})
}

func seedAdmin(t *testing.T, password string) *mockAdminRepo {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &mockAdminRepo{admins: map[string]models.Admin{
		"admin@gmail.com": {ID: 1, Email: "admin@gmail.com", PasswordHash: string(hash)},
	}}
}

func TestAuthLoginAndValidate(t *testing.T) {
	svc := newTestAuthService(seedAdmin(t, "1234"))

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@gmail.com", Password: "1234"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.AdminID)
	assert.Equal(t, "admin@gmail.com", claims.Email)
}

func TestAuthLoginWrongPassword(t *testing.T) {
	svc := newTestAuthService(seedAdmin(t, "1234"))

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@gmail.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthLoginUnknownEmail(t *testing.T) {
	svc := newTestAuthService(&mockAdminRepo{})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "nobody@example.com", Password: "1234"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthValidateTokenRejectsGarbage(t *testing.T) {
	svc := newTestAuthService(&mockAdminRepo{})

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
}

func TestAuthEnsureDefaultAdmin(t *testing.T) {
	repo := &mockAdminRepo{}
	svc := newTestAuthService(repo)

	require.NoError(t, svc.EnsureDefaultAdmin(context.Background(), "admin@gmail.com", "1234"))
	require.Len(t, repo.admins, 1)

	// Idempotent once an account exists.
	require.NoError(t, svc.EnsureDefaultAdmin(context.Background(), "other@gmail.com", "1234"))
	assert.Len(t, repo.admins, 1)
}
