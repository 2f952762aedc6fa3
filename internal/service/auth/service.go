package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/medbook-api/internal/model"
	"github.com/jwalitptl/medbook-api/internal/repository"
	"github.com/jwalitptl/medbook-api/pkg/auth"
	apperrors "github.com/jwalitptl/medbook-api/pkg/errors"
	"github.com/jwalitptl/medbook-api/pkg/metrics"
	"github.com/jwalitptl/medbook-api/pkg/security"
)

type Service struct {
	userRepo   repository.UserRepository
	doctorRepo repository.DoctorRepository
	jwtSvc     auth.JWTService
	hasher     security.PasswordHasher
	metrics    *metrics.Metrics
	allowAdmin bool
	now        func() time.Time
}

func NewService(userRepo repository.UserRepository, doctorRepo repository.DoctorRepository,
	jwtSvc auth.JWTService, hasher security.PasswordHasher, m *metrics.Metrics, allowAdminRegistration bool) *Service {
	return &Service{
		userRepo:   userRepo,
		doctorRepo: doctorRepo,
		jwtSvc:     jwtSvc,
		hasher:     hasher,
		metrics:    m,
		allowAdmin: allowAdminRegistration,
		now:        time.Now,
	}
}

// NormalizeEmail is the canonical form used for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	role := req.Role
	if role == "" {
		role = model.RoleClient
	}
	if !role.Valid() {
		return nil, apperrors.FieldInvalid("role", "invalid role")
	}
	if role == model.RoleAdmin && !s.allowAdmin {
		return nil, apperrors.FieldInvalid("role", "admin registration is disabled")
	}

	email := NormalizeEmail(req.Email)
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, emailTaken()
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooShort) {
			return nil, passwordTooShort()
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Address:      req.Address,
		Gender:       req.Gender,
		IsActive:     true,
		IsStaff:      role == model.RoleAdmin,
		IsSuperuser:  role == model.RoleAdmin,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, emailTaken()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login authenticates against a role-specific entrance. Every failure,
// including a role mismatch, reads as invalid credentials.
func (s *Service) Login(ctx context.Context, expected model.Role, req *model.LoginRequest) (*model.LoginResponse, error) {
	user, err := s.authenticate(ctx, expected, req)
	if err != nil {
		s.metrics.LoginAttempts.WithLabelValues(string(expected), "failure").Inc()
		return nil, err
	}

	resp := &model.LoginResponse{User: user}
	if user.Role == model.RoleDoctor {
		doctor, err := s.doctorRepo.GetByUserID(ctx, user.ID)
		if err != nil {
			s.metrics.LoginAttempts.WithLabelValues(string(expected), "failure").Inc()
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.NotFound("doctor profile", err)
			}
			return nil, fmt.Errorf("failed to resolve doctor profile: %w", err)
		}
		resp.DoctorID = &doctor.ID
	}

	now := s.now().UTC()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("failed to update login timestamp: %w", err)
	}
	user.LastLoginAt = &now

	tokens, err := s.generateTokens(user)
	if err != nil {
		return nil, err
	}
	resp.TokenResponse = *tokens

	s.metrics.LoginAttempts.WithLabelValues(string(expected), "success").Inc()
	return resp, nil
}

func (s *Service) authenticate(ctx context.Context, expected model.Role, req *model.LoginRequest) (*model.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.InvalidCredentials()
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.IsActive || user.Role != expected {
		return nil, apperrors.InvalidCredentials()
	}
	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, apperrors.InvalidCredentials()
	}
	return user, nil
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	claims, err := s.jwtSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized(err)
	}

	user, err := s.userRepo.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Unauthorized(err)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !user.IsActive {
		return nil, apperrors.Unauthorized(errors.New("user is inactive"))
	}

	return s.generateTokens(user)
}

func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("user", err)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UpdateSelf applies a partial profile update. Credentials and role are not
// reachable from here.
func (s *Service) UpdateSelf(ctx context.Context, userID uuid.UUID, req *model.UpdateProfileRequest) (*model.User, error) {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Address != nil {
		user.Address = *req.Address
	}
	if req.Gender != nil {
		user.Gender = *req.Gender
	}
	if req.Email != nil {
		email := NormalizeEmail(*req.Email)
		if email != user.Email {
			existing, err := s.userRepo.GetByEmail(ctx, email)
			if err == nil && existing.ID != user.ID {
				return nil, emailTaken()
			}
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("failed to check email: %w", err)
			}
		}
		user.Email = email
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, emailTaken()
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

func (s *Service) generateTokens(user *model.User) (*model.TokenResponse, error) {
	access, err := s.jwtSvc.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refresh, err := s.jwtSvc.GenerateRefreshToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return &model.TokenResponse{AccessToken: access, RefreshToken: refresh}, nil
}

func emailTaken() *apperrors.AppError {
	return apperrors.FieldInvalid("email", "a user with this email already exists")
}

func passwordTooShort() *apperrors.AppError {
	return apperrors.FieldInvalid("password", fmt.Sprintf("password must be at least %d characters", security.MinPasswordLen))
}
