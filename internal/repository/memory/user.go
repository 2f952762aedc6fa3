package memory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/medbook-api/internal/model"
	"github.com/jwalitptl/medbook-api/internal/repository"
)

func (d *db) emailTaken(email string, except uuid.UUID) bool {
	for id, u := range d.users {
		if id != except && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (d *db) insertUser(user *model.User) error {
	if d.emailTaken(user.Email, uuid.Nil) {
		return repository.ErrDuplicate
	}
	user.Touch(time.Now().UTC())
	d.users[user.ID] = cloneUser(user)
	return nil
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertUser(user)
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if r.emailTaken(user.Email, user.ID) {
		return repository.ErrDuplicate
	}
	user.UpdatedAt = time.Now().UTC()
	u.Email = user.Email
	u.FirstName = user.FirstName
	u.LastName = user.LastName
	u.Address = user.Address
	u.Gender = user.Gender
	u.UpdatedAt = user.UpdatedAt
	return nil
}

func (r *userRepository) modify(id uuid.UUID, fn func(u *model.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(u)
	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.modify(id, func(u *model.User) {
		u.PasswordHash = passwordHash
		u.UpdatedAt = time.Now().UTC()
	})
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.modify(id, func(u *model.User) {
		u.LastLoginAt = &at
	})
}

func (r *userRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.modify(id, func(u *model.User) {
		u.IsActive = active
		u.UpdatedAt = time.Now().UTC()
	})
}

func (r *userRepository) Count(ctx context.Context, filter model.UserFilter) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, u := range r.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.LastLoginSince != nil && (u.LastLoginAt == nil || u.LastLoginAt.Before(*filter.LastLoginSince)) {
			continue
		}
		count++
	}
	return count, nil
}
