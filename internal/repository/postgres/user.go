package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/medbook-api/internal/model"
)

const userColumns = `id, email, password_hash, role, first_name, last_name, address,
	gender, is_active, is_staff, is_superuser, last_login_at, created_at, updated_at`

func insertUser(ctx context.Context, ext sqlx.ExtContext, user *model.User) error {
	query := `
		INSERT INTO users (
			id, email, password_hash, role, first_name, last_name, address,
			gender, is_active, is_staff, is_superuser, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	user.Touch(time.Now().UTC())

	_, err := ext.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.FirstName,
		user.LastName,
		user.Address,
		user.Gender,
		user.IsActive,
		user.IsStaff,
		user.IsSuperuser,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return mapError(err)
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	if err := insertUser(ctx, r.db, user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user model.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, fmt.Errorf("failed to get user: %w", mapError(err))
	}

	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`

	var user model.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", mapError(err))
	}

	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users SET
			email = $1,
			first_name = $2,
			last_name = $3,
			address = $4,
			gender = $5,
			updated_at = $6
		WHERE id = $7
	`

	user.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, query,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Address,
		user.Gender,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", mapError(err))
	}
	return expectOne(res)
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`

	res, err := r.db.ExecContext(ctx, query, passwordHash, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return expectOne(res)
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE users SET last_login_at = $1 WHERE id = $2`

	res, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return expectOne(res)
}

func (r *userRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `UPDATE users SET is_active = $1, updated_at = $2 WHERE id = $3`

	res, err := r.db.ExecContext(ctx, query, active, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to set user active flag: %w", err)
	}
	return expectOne(res)
}

func (r *userRepository) Count(ctx context.Context, filter model.UserFilter) (int, error) {
	query := `SELECT COUNT(*) FROM users WHERE 1=1`
	args := []interface{}{}

	if filter.Role != "" {
		args = append(args, filter.Role)
		query += fmt.Sprintf(" AND role = $%d", len(args))
	}
	if filter.LastLoginSince != nil {
		args = append(args, *filter.LastLoginSince)
		query += fmt.Sprintf(" AND last_login_at >= $%d", len(args))
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
