package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/medbook-api/internal/model"
)

func (r *specialtyRepository) Create(ctx context.Context, specialty *model.Specialty) error {
	query := `
		INSERT INTO specialties (id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	specialty.Touch(time.Now().UTC())

	_, err := r.db.ExecContext(ctx, query,
		specialty.ID,
		specialty.Name,
		specialty.Description,
		specialty.CreatedAt,
		specialty.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create specialty: %w", mapError(err))
	}
	return nil
}

func (r *specialtyRepository) Get(ctx context.Context, id uuid.UUID) (*model.Specialty, error) {
	query := `SELECT id, name, description, created_at, updated_at FROM specialties WHERE id = $1`

	var specialty model.Specialty
	if err := r.db.GetContext(ctx, &specialty, query, id); err != nil {
		return nil, fmt.Errorf("failed to get specialty: %w", mapError(err))
	}
	return &specialty, nil
}

func (r *specialtyRepository) GetByName(ctx context.Context, name string) (*model.Specialty, error) {
	query := `SELECT id, name, description, created_at, updated_at FROM specialties WHERE LOWER(name) = LOWER($1)`

	var specialty model.Specialty
	if err := r.db.GetContext(ctx, &specialty, query, name); err != nil {
		return nil, fmt.Errorf("failed to get specialty by name: %w", mapError(err))
	}
	return &specialty, nil
}

func (r *specialtyRepository) Update(ctx context.Context, specialty *model.Specialty) error {
	query := `UPDATE specialties SET name = $1, description = $2, updated_at = $3 WHERE id = $4`

	specialty.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, query, specialty.Name, specialty.Description, specialty.UpdatedAt, specialty.ID)
	if err != nil {
		return fmt.Errorf("failed to update specialty: %w", mapError(err))
	}
	return expectOne(res)
}

// Delete fails with ErrReferenced while doctors still point at the specialty.
func (r *specialtyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM specialties WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete specialty: %w", mapError(err))
	}
	return expectOne(res)
}

func (r *specialtyRepository) List(ctx context.Context) ([]*model.SpecialtyWithCount, error) {
	query := `
		SELECT s.id, s.name, s.description, s.created_at, s.updated_at,
			COUNT(d.id) AS doctors_count
		FROM specialties s
		LEFT JOIN doctors d ON d.specialty_id = s.id
		GROUP BY s.id
		ORDER BY s.name
	`

	specialties := []*model.SpecialtyWithCount{}
	if err := r.db.SelectContext(ctx, &specialties, query); err != nil {
		return nil, fmt.Errorf("failed to list specialties: %w", err)
	}
	return specialties, nil
}

func (r *specialtyRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM specialties`); err != nil {
		return 0, fmt.Errorf("failed to count specialties: %w", err)
	}
	return count, nil
}

func (r *specialtyRepository) CountDoctors(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM doctors WHERE specialty_id = $1`, id); err != nil {
		return 0, fmt.Errorf("failed to count specialty doctors: %w", err)
	}
	return count, nil
}
