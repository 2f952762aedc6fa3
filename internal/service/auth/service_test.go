package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medbook-api/internal/model"
	"github.com/jwalitptl/medbook-api/internal/repository"
	"github.com/jwalitptl/medbook-api/internal/repository/memory"
	"github.com/jwalitptl/medbook-api/pkg/auth"
	apperrors "github.com/jwalitptl/medbook-api/pkg/errors"
	"github.com/jwalitptl/medbook-api/pkg/metrics"
	"github.com/jwalitptl/medbook-api/pkg/security"
)

func newTestService(t *testing.T, allowAdmin bool) (*Service, *repository.Store, auth.JWTService) {
	t.Helper()
	store := memory.NewStore()
	jwtSvc := auth.NewJWTService(auth.Config{Secret: "test-secret", Issuer: "medbook", AccessTTL: time.Hour, RefreshTTL: 24 * time.Hour})
	svc := NewService(store.Users, store.Doctors, jwtSvc, security.NewBcryptHasher(4), metrics.NewNoop(), allowAdmin)
	return svc, store, jwtSvc
}

func register(t *testing.T, svc *Service, role model.Role, email string) *model.User {
	t.Helper()
	user, err := svc.Register(context.Background(), &model.RegisterRequest{
		Role:      role,
		Email:     email,
		Password:  "secret123",
		FirstName: "Jane",
		LastName:  "Doe",
	})
	require.NoError(t, err)
	return user
}

func TestRegister(t *testing.T) {
	svc, _, _ := newTestService(t, true)

	user := register(t, svc, "", "  Jane@Example.com ")
	assert.Equal(t, model.RoleClient, user.Role)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.True(t, user.IsActive)
	assert.False(t, user.IsStaff)
	assert.NotEqual(t, "secret123", user.PasswordHash)

	admin := register(t, svc, model.RoleAdmin, "root@example.com")
	assert.True(t, admin.IsStaff)
	assert.True(t, admin.IsSuperuser)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, store, _ := newTestService(t, true)
	register(t, svc, model.RoleClient, "jane@example.com")

	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Email: "JANE@example.com", Password: "secret123", FirstName: "J", LastName: "D",
	})
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
	assert.Equal(t, "email", appErr.Fields[0].Field)

	n, err := store.Users.Count(context.Background(), model.UserFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRegisterAdminDisabled(t *testing.T) {
	svc, _, _ := newTestService(t, false)
	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Role: model.RoleAdmin, Email: "a@example.com", Password: "secret123", FirstName: "A", LastName: "B",
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}

func TestLogin(t *testing.T) {
	svc, store, jwtSvc := newTestService(t, true)
	user := register(t, svc, model.RoleClient, "jane@example.com")
	ctx := context.Background()

	resp, err := svc.Login(ctx, model.RoleClient, &model.LoginRequest{Email: "jane@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Nil(t, resp.DoctorID)
	require.NotNil(t, resp.User.LastLoginAt)

	claims, err := jwtSvc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, model.RoleClient, claims.Role)

	stored, err := store.Users.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLoginAt)
}

func TestLoginFailuresLookAlike(t *testing.T) {
	svc, store, _ := newTestService(t, true)
	user := register(t, svc, model.RoleClient, "jane@example.com")
	ctx := context.Background()

	tests := []struct {
		name string
		role model.Role
		req  model.LoginRequest
	}{
		{"unknown email", model.RoleClient, model.LoginRequest{Email: "nobody@example.com", Password: "secret123"}},
		{"wrong password", model.RoleClient, model.LoginRequest{Email: "jane@example.com", Password: "nope"}},
		{"wrong role", model.RoleDoctor, model.LoginRequest{Email: "jane@example.com", Password: "secret123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(ctx, tt.role, &tt.req)
			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, "invalid credentials", appErr.Message)
		})
	}

	require.NoError(t, store.Users.SetActive(ctx, user.ID, false))
	_, err := svc.Login(ctx, model.RoleClient, &model.LoginRequest{Email: "jane@example.com", Password: "secret123"})
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
}

func TestDoctorLoginResolvesProfile(t *testing.T) {
	svc, store, _ := newTestService(t, true)
	ctx := context.Background()
	register(t, svc, model.RoleDoctor, "orphan@example.com")

	_, err := svc.Login(ctx, model.RoleDoctor, &model.LoginRequest{Email: "orphan@example.com", Password: "secret123"})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	spec := &model.Specialty{Name: "Cardiology"}
	require.NoError(t, store.Specialties.Create(ctx, spec))
	hash, err := security.NewBcryptHasher(4).Hash("secret123")
	require.NoError(t, err)
	doctor := &model.Doctor{FirstName: "Ada", LastName: "Smith", Email: "ada@example.com", SpecialtyID: spec.ID}
	require.NoError(t, store.Doctors.CreateWithUser(ctx, doctor, &model.User{
		Email: "ada@example.com", PasswordHash: hash, Role: model.RoleDoctor, IsActive: true,
	}))

	resp, err := svc.Login(ctx, model.RoleDoctor, &model.LoginRequest{Email: "ada@example.com", Password: "secret123"})
	require.NoError(t, err)
	require.NotNil(t, resp.DoctorID)
	assert.Equal(t, doctor.ID, *resp.DoctorID)
}

func TestRefresh(t *testing.T) {
	svc, _, _ := newTestService(t, true)
	register(t, svc, model.RoleClient, "jane@example.com")
	ctx := context.Background()

	resp, err := svc.Login(ctx, model.RoleClient, &model.LoginRequest{Email: "jane@example.com", Password: "secret123"})
	require.NoError(t, err)

	tokens, err := svc.Refresh(ctx, resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)

	_, err = svc.Refresh(ctx, resp.AccessToken)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
}

func TestUpdateSelf(t *testing.T) {
	svc, _, _ := newTestService(t, true)
	user := register(t, svc, model.RoleClient, "jane@example.com")
	register(t, svc, model.RoleClient, "taken@example.com")
	ctx := context.Background()

	first, addr := "Janet", "1 Main St"
	updated, err := svc.UpdateSelf(ctx, user.ID, &model.UpdateProfileRequest{FirstName: &first, Address: &addr})
	require.NoError(t, err)
	assert.Equal(t, "Janet", updated.FirstName)
	assert.Equal(t, "Doe", updated.LastName)
	assert.Equal(t, "1 Main St", updated.Address)

	taken := "Taken@example.com"
	_, err = svc.UpdateSelf(ctx, user.ID, &model.UpdateProfileRequest{Email: &taken})
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))

	same := "JANE@example.com"
	_, err = svc.UpdateSelf(ctx, user.ID, &model.UpdateProfileRequest{Email: &same})
	assert.NoError(t, err)
}
