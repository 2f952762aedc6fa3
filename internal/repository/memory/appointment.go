package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/medbook-api/internal/model"
	"github.com/jwalitptl/medbook-api/internal/repository"
)

func (d *db) detail(apt *model.Appointment) (*model.AppointmentDetail, bool) {
	client, ok := d.users[apt.ClientID]
	if !ok {
		return nil, false
	}
	doctor, ok := d.doctors[apt.DoctorID]
	if !ok {
		return nil, false
	}
	out := &model.AppointmentDetail{
		Appointment: *apt,
		ClientName:  client.FullName(),
		ClientEmail: client.Email,
		DoctorName:  doctor.FullName(),
	}
	if s, ok := d.specialties[doctor.SpecialtyID]; ok {
		out.SpecialtyName = s.Name
	}
	return out, true
}

func matches(apt *model.Appointment, filter model.AppointmentFilter) bool {
	switch {
	case filter.ClientID != nil && apt.ClientID != *filter.ClientID:
		return false
	case filter.DoctorID != nil && apt.DoctorID != *filter.DoctorID:
		return false
	case filter.Status != nil && apt.Status != *filter.Status:
		return false
	case filter.From != nil && apt.DateTime.Before(*filter.From):
		return false
	case filter.To != nil && !apt.DateTime.Before(*filter.To):
		return false
	}
	return true
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[appointment.ClientID]; !ok {
		return repository.ErrReferenced
	}
	if _, ok := r.doctors[appointment.DoctorID]; !ok {
		return repository.ErrReferenced
	}
	appointment.Touch(time.Now().UTC())
	c := *appointment
	r.appointments[c.ID] = &c
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	apt, ok := r.appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *apt
	return &c, nil
}

func (r *appointmentRepository) GetDetail(ctx context.Context, id uuid.UUID) (*model.AppointmentDetail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	apt, ok := r.appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out, ok := r.detail(apt)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return out, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	apt, ok := r.appointments[appointment.ID]
	if !ok {
		return repository.ErrNotFound
	}
	appointment.UpdatedAt = time.Now().UTC()
	apt.DateTime = appointment.DateTime
	apt.Status = appointment.Status
	apt.UpdatedAt = appointment.UpdatedAt
	return nil
}

func (r *appointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appointments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.appointments, id)
	return nil
}

func (r *appointmentRepository) List(ctx context.Context, filter model.AppointmentFilter) ([]*model.AppointmentDetail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*model.AppointmentDetail{}
	for _, apt := range r.appointments {
		if !matches(apt, filter) {
			continue
		}
		if d, ok := r.detail(apt); ok {
			out = append(out, d)
		}
	}

	var less func(a, b *model.AppointmentDetail) bool
	switch filter.OrderBy {
	case model.OrderDateTimeDesc:
		less = func(a, b *model.AppointmentDetail) bool { return a.DateTime.After(b.DateTime) }
	case model.OrderCreatedAtDesc:
		less = func(a, b *model.AppointmentDetail) bool { return a.CreatedAt.After(b.CreatedAt) }
	default:
		less = func(a, b *model.AppointmentDetail) bool { return a.DateTime.Before(b.DateTime) }
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *appointmentRepository) Count(ctx context.Context, filter model.AppointmentFilter) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, apt := range r.appointments {
		if matches(apt, filter) {
			count++
		}
	}
	return count, nil
}

func (r *appointmentRepository) CountDistinctClients(ctx context.Context, doctorID uuid.UUID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[uuid.UUID]struct{})
	for _, apt := range r.appointments {
		if apt.DoctorID == doctorID {
			seen[apt.ClientID] = struct{}{}
		}
	}
	return len(seen), nil
}

func (r *appointmentRepository) ExistsAtSlot(ctx context.Context, doctorID uuid.UUID, at time.Time, excludeID *uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, apt := range r.appointments {
		if apt.DoctorID != doctorID || apt.Status == model.AppointmentStatusCancelled {
			continue
		}
		if excludeID != nil && apt.ID == *excludeID {
			continue
		}
		if apt.DateTime.Equal(at) {
			return true, nil
		}
	}
	return false, nil
}
