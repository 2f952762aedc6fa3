package specialty

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/medbook-api/internal/model"
	"github.com/jwalitptl/medbook-api/internal/repository"
	apperrors "github.com/jwalitptl/medbook-api/pkg/errors"
)

type Service struct {
	repo repository.SpecialtyRepository
}

func NewService(repo repository.SpecialtyRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]*model.SpecialtyWithCount, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list specialties: %w", err)
	}
	return list, nil
}

// Options is the compact id/name list used to fill forms.
func (s *Service) Options(ctx context.Context) (*model.SpecialtyOptions, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := &model.SpecialtyOptions{Specialties: make([]model.SpecialtyOption, 0, len(list)), Count: len(list)}
	for _, sp := range list {
		out.Specialties = append(out.Specialties, model.SpecialtyOption{ID: sp.ID, Name: sp.Name})
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Specialty, error) {
	sp, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("specialty", err)
		}
		return nil, fmt.Errorf("failed to get specialty: %w", err)
	}
	return sp, nil
}

func (s *Service) Create(ctx context.Context, req *model.SpecialtyRequest) (*model.Specialty, error) {
	name := strings.TrimSpace(req.Name)
	if err := s.checkName(ctx, name, uuid.Nil); err != nil {
		return nil, err
	}

	sp := &model.Specialty{Name: name, Description: req.Description}
	if err := s.repo.Create(ctx, sp); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, nameTaken()
		}
		return nil, fmt.Errorf("failed to create specialty: %w", err)
	}
	return sp, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.SpecialtyRequest) (*model.Specialty, error) {
	sp, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if err := s.checkName(ctx, name, id); err != nil {
		return nil, err
	}

	sp.Name = name
	sp.Description = req.Description
	if err := s.repo.Update(ctx, sp); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, nameTaken()
		}
		return nil, fmt.Errorf("failed to update specialty: %w", err)
	}
	return sp, nil
}

// Delete refuses while any doctor still references the specialty.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	n, err := s.repo.CountDoctors(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count specialty doctors: %w", err)
	}
	if n > 0 {
		return inUse(nil)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrReferenced):
			return inUse(err)
		case errors.Is(err, repository.ErrNotFound):
			return apperrors.NotFound("specialty", err)
		}
		return fmt.Errorf("failed to delete specialty: %w", err)
	}
	return nil
}

func (s *Service) checkName(ctx context.Context, name string, self uuid.UUID) error {
	if name == "" {
		return apperrors.FieldInvalid("name", "name is required")
	}
	existing, err := s.repo.GetByName(ctx, name)
	if err == nil && existing.ID != self {
		return nameTaken()
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to check specialty name: %w", err)
	}
	return nil
}

func nameTaken() *apperrors.AppError {
	return apperrors.FieldInvalid("name", "specialty with this name already exists")
}

func inUse(err error) *apperrors.AppError {
	return apperrors.Conflict("cannot delete a specialty that still has doctors", err)
}
