package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/medbook-api/internal/model"
	"github.com/jwalitptl/medbook-api/internal/repository"
)

func (d *db) nameTaken(name string, except uuid.UUID) bool {
	for id, s := range d.specialties {
		if id != except && strings.EqualFold(s.Name, name) {
			return true
		}
	}
	return false
}

func (d *db) doctorsIn(specialtyID uuid.UUID) int {
	n := 0
	for _, doctor := range d.doctors {
		if doctor.SpecialtyID == specialtyID {
			n++
		}
	}
	return n
}

func (r *specialtyRepository) Create(ctx context.Context, specialty *model.Specialty) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.nameTaken(specialty.Name, uuid.Nil) {
		return repository.ErrDuplicate
	}
	specialty.Touch(time.Now().UTC())
	c := *specialty
	r.specialties[c.ID] = &c
	return nil
}

func (r *specialtyRepository) Get(ctx context.Context, id uuid.UUID) (*model.Specialty, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.specialties[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *s
	return &c, nil
}

func (r *specialtyRepository) GetByName(ctx context.Context, name string) (*model.Specialty, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.specialties {
		if strings.EqualFold(s.Name, name) {
			c := *s
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *specialtyRepository) Update(ctx context.Context, specialty *model.Specialty) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.specialties[specialty.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if r.nameTaken(specialty.Name, specialty.ID) {
		return repository.ErrDuplicate
	}
	specialty.CreatedAt = s.CreatedAt
	specialty.UpdatedAt = time.Now().UTC()
	c := *specialty
	r.specialties[c.ID] = &c
	return nil
}

func (r *specialtyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.specialties[id]; !ok {
		return repository.ErrNotFound
	}
	if r.doctorsIn(id) > 0 {
		return repository.ErrReferenced
	}
	delete(r.specialties, id)
	return nil
}

func (r *specialtyRepository) List(ctx context.Context) ([]*model.SpecialtyWithCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.SpecialtyWithCount, 0, len(r.specialties))
	for _, s := range r.specialties {
		out = append(out, &model.SpecialtyWithCount{Specialty: *s, DoctorsCount: r.doctorsIn(s.ID)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *specialtyRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.specialties), nil
}

func (r *specialtyRepository) CountDoctors(ctx context.Context, id uuid.UUID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.doctorsIn(id), nil
}
