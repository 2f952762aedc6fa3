// Package memory is a process-local implementation of the repositories,
// used for tests and for running without PostgreSQL.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jwalitptl/medbook-api/internal/model"
	"github.com/jwalitptl/medbook-api/internal/repository"
)

// db holds every table behind one lock so joins see a consistent view.
type db struct {
	mu           sync.RWMutex
	users        map[uuid.UUID]*model.User
	doctors      map[uuid.UUID]*model.Doctor
	specialties  map[uuid.UUID]*model.Specialty
	appointments map[uuid.UUID]*model.Appointment
}

func newDB() *db {
	return &db{
		users:        make(map[uuid.UUID]*model.User),
		doctors:      make(map[uuid.UUID]*model.Doctor),
		specialties:  make(map[uuid.UUID]*model.Specialty),
		appointments: make(map[uuid.UUID]*model.Appointment),
	}
}

func (d *db) PingContext(ctx context.Context) error {
	return ctx.Err()
}

type userRepository struct{ *db }

type doctorRepository struct{ *db }

type specialtyRepository struct{ *db }

type appointmentRepository struct{ *db }

// NewStore returns an empty store; all repositories share the same tables.
func NewStore() *repository.Store {
	d := newDB()
	return &repository.Store{
		Users:        &userRepository{d},
		Doctors:      &doctorRepository{d},
		Specialties:  &specialtyRepository{d},
		Appointments: &appointmentRepository{d},
		Pinger:       d,
	}
}

func cloneUser(u *model.User) *model.User {
	c := *u
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		c.LastLoginAt = &t
	}
	return &c
}

func cloneDoctor(d *model.Doctor) *model.Doctor {
	c := *d
	if d.UserID != nil {
		id := *d.UserID
		c.UserID = &id
	}
	c.Availability = make(model.Availability, len(d.Availability))
	for day, slots := range d.Availability {
		c.Availability[day] = append([]string(nil), slots...)
	}
	return &c
}
