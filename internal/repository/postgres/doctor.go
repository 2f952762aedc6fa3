package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/medbook-api/internal/model"
)

const doctorColumns = `id, user_id, first_name, last_name, email, phone, specialty_id,
	consultation_fee, bio, availability, created_at, updated_at`

const doctorViewQuery = `
	SELECT d.id, d.user_id, d.first_name, d.last_name, d.email, d.phone, d.specialty_id,
		d.consultation_fee, d.bio, d.availability, d.created_at, d.updated_at,
		s.name AS specialty_name,
		u.is_active AS is_active,
		u.created_at AS date_joined
	FROM doctors d
	JOIN specialties s ON s.id = d.specialty_id
	LEFT JOIN users u ON u.id = d.user_id
`

func insertDoctor(ctx context.Context, ext sqlx.ExtContext, doctor *model.Doctor) error {
	query := `
		INSERT INTO doctors (
			id, user_id, first_name, last_name, email, phone, specialty_id,
			consultation_fee, bio, availability, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	doctor.Touch(time.Now().UTC())
	if doctor.Availability == nil {
		doctor.Availability = model.Availability{}
	}

	_, err := ext.ExecContext(ctx, query,
		doctor.ID,
		doctor.UserID,
		doctor.FirstName,
		doctor.LastName,
		doctor.Email,
		doctor.Phone,
		doctor.SpecialtyID,
		doctor.ConsultationFee,
		doctor.Bio,
		doctor.Availability,
		doctor.CreatedAt,
		doctor.UpdatedAt,
	)
	return mapError(err)
}

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	if err := insertDoctor(ctx, r.db, doctor); err != nil {
		return fmt.Errorf("failed to create doctor: %w", err)
	}
	return nil
}

func (r *doctorRepository) CreateWithUser(ctx context.Context, doctor *model.Doctor, user *model.User) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := insertUser(ctx, tx, user); err != nil {
			return fmt.Errorf("failed to create doctor user: %w", err)
		}
		doctor.UserID = &user.ID
		if err := insertDoctor(ctx, tx, doctor); err != nil {
			return fmt.Errorf("failed to create doctor: %w", err)
		}
		return nil
	})
}

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.DoctorView, error) {
	query := doctorViewQuery + ` WHERE d.id = $1`

	var doctor model.DoctorView
	if err := r.db.GetContext(ctx, &doctor, query, id); err != nil {
		return nil, fmt.Errorf("failed to get doctor: %w", mapError(err))
	}
	return &doctor, nil
}

func (r *doctorRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE user_id = $1`

	var doctor model.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get doctor by user: %w", mapError(err))
	}
	return &doctor, nil
}

func (r *doctorRepository) GetByEmail(ctx context.Context, email string) (*model.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE LOWER(email) = LOWER($1)`

	var doctor model.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, email); err != nil {
		return nil, fmt.Errorf("failed to get doctor by email: %w", mapError(err))
	}
	return &doctor, nil
}

func (r *doctorRepository) Update(ctx context.Context, doctor *model.Doctor) error {
	query := `
		UPDATE doctors SET
			first_name = $1,
			last_name = $2,
			email = $3,
			phone = $4,
			specialty_id = $5,
			consultation_fee = $6,
			bio = $7,
			availability = $8,
			updated_at = $9
		WHERE id = $10
	`

	doctor.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, query,
		doctor.FirstName,
		doctor.LastName,
		doctor.Email,
		doctor.Phone,
		doctor.SpecialtyID,
		doctor.ConsultationFee,
		doctor.Bio,
		doctor.Availability,
		doctor.UpdatedAt,
		doctor.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update doctor: %w", mapError(err))
	}
	return expectOne(res)
}

// Delete removes the profile; its appointments go with it via ON DELETE CASCADE.
func (r *doctorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete doctor: %w", mapError(err))
	}
	return expectOne(res)
}

func (r *doctorRepository) List(ctx context.Context, filter model.DoctorFilter) ([]*model.DoctorView, error) {
	query := doctorViewQuery + ` WHERE 1=1`
	args := []interface{}{}

	if filter.SpecialtyID != nil {
		args = append(args, *filter.SpecialtyID)
		query += fmt.Sprintf(" AND d.specialty_id = $%d", len(args))
	}
	query += " ORDER BY d.last_name, d.first_name"

	doctors := []*model.DoctorView{}
	if err := r.db.SelectContext(ctx, &doctors, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}

func (r *doctorRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM doctors`); err != nil {
		return 0, fmt.Errorf("failed to count doctors: %w", err)
	}
	return count, nil
}
