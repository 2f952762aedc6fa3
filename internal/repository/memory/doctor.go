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

func (d *db) checkDoctor(doctor *model.Doctor) error {
	if _, ok := d.specialties[doctor.SpecialtyID]; !ok {
		return repository.ErrReferenced
	}
	for id, other := range d.doctors {
		if id == doctor.ID {
			continue
		}
		if strings.EqualFold(other.Email, doctor.Email) {
			return repository.ErrDuplicate
		}
		if doctor.UserID != nil && other.UserID != nil && *other.UserID == *doctor.UserID {
			return repository.ErrDuplicate
		}
	}
	return nil
}

func (d *db) insertDoctor(doctor *model.Doctor) error {
	if err := d.checkDoctor(doctor); err != nil {
		return err
	}
	doctor.Touch(time.Now().UTC())
	if doctor.Availability == nil {
		doctor.Availability = model.Availability{}
	}
	d.doctors[doctor.ID] = cloneDoctor(doctor)
	return nil
}

// view joins a doctor with its specialty and linked identity.
func (d *db) view(doctor *model.Doctor) *model.DoctorView {
	v := &model.DoctorView{Doctor: *cloneDoctor(doctor)}
	if s, ok := d.specialties[doctor.SpecialtyID]; ok {
		v.SpecialtyName = s.Name
	}
	if doctor.UserID != nil {
		if u, ok := d.users[*doctor.UserID]; ok {
			active := u.IsActive
			joined := u.CreatedAt
			v.IsActive = &active
			v.DateJoined = &joined
		}
	}
	return v
}

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertDoctor(doctor)
}

func (r *doctorRepository) CreateWithUser(ctx context.Context, doctor *model.Doctor, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.emailTaken(user.Email, uuid.Nil) {
		return repository.ErrDuplicate
	}
	if err := r.checkDoctor(doctor); err != nil {
		return err
	}
	if err := r.insertUser(user); err != nil {
		return err
	}
	doctor.UserID = &user.ID
	return r.insertDoctor(doctor)
}

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.DoctorView, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doctor, ok := r.doctors[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.view(doctor), nil
}

func (r *doctorRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, doctor := range r.doctors {
		if doctor.UserID != nil && *doctor.UserID == userID {
			return cloneDoctor(doctor), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *doctorRepository) GetByEmail(ctx context.Context, email string) (*model.Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, doctor := range r.doctors {
		if strings.EqualFold(doctor.Email, email) {
			return cloneDoctor(doctor), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *doctorRepository) Update(ctx context.Context, doctor *model.Doctor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.doctors[doctor.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if err := r.checkDoctor(doctor); err != nil {
		return err
	}
	doctor.UserID = existing.UserID
	doctor.CreatedAt = existing.CreatedAt
	doctor.UpdatedAt = time.Now().UTC()
	r.doctors[doctor.ID] = cloneDoctor(doctor)
	return nil
}

// Delete removes the profile together with its appointments.
func (r *doctorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.doctors[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.doctors, id)
	for aptID, apt := range r.appointments {
		if apt.DoctorID == id {
			delete(r.appointments, aptID)
		}
	}
	return nil
}

func (r *doctorRepository) List(ctx context.Context, filter model.DoctorFilter) ([]*model.DoctorView, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*model.DoctorView{}
	for _, doctor := range r.doctors {
		if filter.SpecialtyID != nil && doctor.SpecialtyID != *filter.SpecialtyID {
			continue
		}
		out = append(out, r.view(doctor))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].FirstName < out[j].FirstName
	})
	return out, nil
}

func (r *doctorRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.doctors), nil
}
