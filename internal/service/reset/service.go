package reset

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/jwalitptl/medbook-api/internal/email"
	"github.com/jwalitptl/medbook-api/internal/model"
	"github.com/jwalitptl/medbook-api/internal/repository"
	"github.com/jwalitptl/medbook-api/internal/service/auth"
	apperrors "github.com/jwalitptl/medbook-api/pkg/errors"
	"github.com/jwalitptl/medbook-api/pkg/metrics"
	"github.com/jwalitptl/medbook-api/pkg/security"
)

const (
	codeMin = 1000
	codeMax = 9999
)

type Service struct {
	userRepo repository.UserRepository
	store    CodeStore
	mailer   email.Service
	hasher   security.PasswordHasher
	metrics  *metrics.Metrics
	ttl      time.Duration
	generate func() (string, error)
}

func NewService(userRepo repository.UserRepository, store CodeStore, mailer email.Service,
	hasher security.PasswordHasher, m *metrics.Metrics, ttl time.Duration) *Service {
	return &Service{
		userRepo: userRepo,
		store:    store,
		mailer:   mailer,
		hasher:   hasher,
		metrics:  m,
		ttl:      ttl,
		generate: GenerateCode,
	}
}

// GenerateCode returns a uniformly drawn 4-digit code.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return "", fmt.Errorf("failed to generate reset code: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+codeMin), nil
}

// RequestReset issues a fresh code for a registered email, replacing any
// pending one, and mails it.
func (s *Service) RequestReset(ctx context.Context, addr string) error {
	addr = auth.NormalizeEmail(addr)

	if _, err := s.userRepo.GetByEmail(ctx, addr); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("user", err)
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	code, err := s.generate()
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, addr, code, s.ttl); err != nil {
		return err
	}
	if err := s.mailer.SendPasswordReset(ctx, addr, code); err != nil {
		return fmt.Errorf("failed to send reset code: %w", err)
	}

	s.metrics.ResetCodesIssued.Inc()
	return nil
}

// VerifyReset consumes the code and sets the new password. A code works once.
func (s *Service) VerifyReset(ctx context.Context, req *model.VerifyResetRequest) error {
	addr := auth.NormalizeEmail(req.Email)

	stored, err := s.store.Get(ctx, addr)
	if err != nil && !errors.Is(err, ErrCodeNotFound) {
		return err
	}
	if err != nil || stored != req.Code {
		s.metrics.ResetVerification.WithLabelValues("invalid").Inc()
		return apperrors.FieldInvalid("code", "invalid or expired code")
	}

	user, err := s.userRepo.GetByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("user", err)
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooShort) {
			return apperrors.FieldInvalid("new_password", fmt.Sprintf("password must be at least %d characters", security.MinPasswordLen))
		}
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if err := s.store.Delete(ctx, addr); err != nil {
		return err
	}

	s.metrics.ResetVerification.WithLabelValues("success").Inc()
	return nil
}
