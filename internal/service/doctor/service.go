package doctor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/medbook-api/internal/model"
	"github.com/jwalitptl/medbook-api/internal/repository"
	"github.com/jwalitptl/medbook-api/internal/service/auth"
	apperrors "github.com/jwalitptl/medbook-api/pkg/errors"
	"github.com/jwalitptl/medbook-api/pkg/security"
)

type Service struct {
	doctorRepo    repository.DoctorRepository
	specialtyRepo repository.SpecialtyRepository
	userRepo      repository.UserRepository
	hasher        security.PasswordHasher
}

func NewService(doctorRepo repository.DoctorRepository, specialtyRepo repository.SpecialtyRepository,
	userRepo repository.UserRepository, hasher security.PasswordHasher) *Service {
	return &Service{
		doctorRepo:    doctorRepo,
		specialtyRepo: specialtyRepo,
		userRepo:      userRepo,
		hasher:        hasher,
	}
}

func (s *Service) List(ctx context.Context, filter model.DoctorFilter) ([]*model.DoctorView, error) {
	doctors, err := s.doctorRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}

// ListBySpecialty returns NotFound for an unknown specialty rather than an empty list.
func (s *Service) ListBySpecialty(ctx context.Context, specialtyID uuid.UUID) ([]*model.DoctorView, error) {
	if _, err := s.specialtyRepo.Get(ctx, specialtyID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("specialty", err)
		}
		return nil, fmt.Errorf("failed to get specialty: %w", err)
	}
	return s.List(ctx, model.DoctorFilter{SpecialtyID: &specialtyID})
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.DoctorView, error) {
	doctor, err := s.doctorRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("doctor", err)
		}
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	return doctor, nil
}

// Create stores a profile. With a password it also creates the linked
// doctor identity in the same transaction.
func (s *Service) Create(ctx context.Context, req *model.CreateDoctorRequest) (*model.DoctorView, error) {
	doctor := &model.Doctor{
		FirstName:       strings.TrimSpace(req.FirstName),
		LastName:        strings.TrimSpace(req.LastName),
		Email:           auth.NormalizeEmail(req.Email),
		Phone:           req.Phone,
		SpecialtyID:     req.SpecialtyID,
		ConsultationFee: req.ConsultationFee,
		Bio:             req.Bio,
		Availability:    req.Availability,
	}
	if err := s.validate(ctx, doctor); err != nil {
		return nil, err
	}

	if req.Password == "" {
		if err := s.doctorRepo.Create(ctx, doctor); err != nil {
			return nil, translateWrite(err, "failed to create doctor")
		}
		return s.Get(ctx, doctor.ID)
	}

	if _, err := s.userRepo.GetByEmail(ctx, doctor.Email); err == nil {
		return nil, emailTaken()
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooShort) {
			return nil, apperrors.FieldInvalid("password", fmt.Sprintf("password must be at least %d characters", security.MinPasswordLen))
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Email:        doctor.Email,
		PasswordHash: hash,
		Role:         model.RoleDoctor,
		FirstName:    doctor.FirstName,
		LastName:     doctor.LastName,
		IsActive:     true,
	}
	if err := s.doctorRepo.CreateWithUser(ctx, doctor, user); err != nil {
		return nil, translateWrite(err, "failed to create doctor")
	}
	return s.Get(ctx, doctor.ID)
}

// Update replaces the profile and keeps the linked identity's names and email in step.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateDoctorRequest) (*model.DoctorView, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	doctor := current.Doctor
	doctor.FirstName = strings.TrimSpace(req.FirstName)
	doctor.LastName = strings.TrimSpace(req.LastName)
	doctor.Email = auth.NormalizeEmail(req.Email)
	doctor.Phone = req.Phone
	doctor.SpecialtyID = req.SpecialtyID
	doctor.ConsultationFee = req.ConsultationFee
	doctor.Bio = req.Bio
	doctor.Availability = req.Availability
	if err := s.validate(ctx, &doctor); err != nil {
		return nil, err
	}

	var user *model.User
	if doctor.UserID != nil {
		user, err = s.userRepo.Get(ctx, *doctor.UserID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to get doctor user: %w", err)
		}
		if user != nil && user.Email != doctor.Email {
			other, err := s.userRepo.GetByEmail(ctx, doctor.Email)
			if err == nil && other.ID != user.ID {
				return nil, emailTaken()
			}
		}
	}

	if err := s.doctorRepo.Update(ctx, &doctor); err != nil {
		return nil, translateWrite(err, "failed to update doctor")
	}

	if user != nil {
		user.FirstName = doctor.FirstName
		user.LastName = doctor.LastName
		user.Email = doctor.Email
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, translateWrite(err, "failed to sync doctor user")
		}
	}

	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.doctorRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("doctor", err)
		}
		return fmt.Errorf("failed to delete doctor: %w", err)
	}
	return nil
}

// SetActive sets the linked identity's active flag, or flips it when active is nil.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active *bool) (*model.SetActiveResponse, error) {
	doctor, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doctor.UserID == nil {
		return nil, apperrors.NotFound("doctor user", nil)
	}

	user, err := s.userRepo.Get(ctx, *doctor.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("doctor user", err)
		}
		return nil, fmt.Errorf("failed to get doctor user: %w", err)
	}

	next := !user.IsActive
	if active != nil {
		next = *active
	}
	if err := s.userRepo.SetActive(ctx, user.ID, next); err != nil {
		return nil, fmt.Errorf("failed to set doctor active flag: %w", err)
	}

	state := "deactivated"
	if next {
		state = "activated"
	}
	return &model.SetActiveResponse{
		Message:  fmt.Sprintf("Doctor %s %s", doctor.FullName(), state),
		IsActive: next,
	}, nil
}

func (s *Service) validate(ctx context.Context, doctor *model.Doctor) error {
	if doctor.ConsultationFee < 0 {
		return apperrors.FieldInvalid("consultation_fee", "consultation fee cannot be negative")
	}
	if err := doctor.Availability.Validate(); err != nil {
		return apperrors.FieldInvalid("availability", err.Error())
	}
	if doctor.Availability == nil {
		doctor.Availability = model.Availability{}
	}

	if _, err := s.specialtyRepo.Get(ctx, doctor.SpecialtyID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.FieldInvalid("specialty_id", "specialty not found")
		}
		return fmt.Errorf("failed to get specialty: %w", err)
	}

	existing, err := s.doctorRepo.GetByEmail(ctx, doctor.Email)
	if err == nil && existing.ID != doctor.ID {
		return emailTaken()
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to check doctor email: %w", err)
	}
	return nil
}

func translateWrite(err error, msg string) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return emailTaken()
	case errors.Is(err, repository.ErrReferenced):
		return apperrors.FieldInvalid("specialty_id", "specialty not found")
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("doctor", err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func emailTaken() *apperrors.AppError {
	return apperrors.FieldInvalid("email", "doctor with this email already exists")
}
