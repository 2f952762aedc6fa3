package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/medbook-api/internal/model"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrDuplicate  = errors.New("duplicate record")
	// ErrReferenced is returned when a delete is blocked by a foreign key.
	ErrReferenced = errors.New("record is referenced")
)

// All repository interfaces in one file
type (
	// UserRepository stores identities
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
		UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
		UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
		SetActive(ctx context.Context, id uuid.UUID, active bool) error
		Count(ctx context.Context, filter model.UserFilter) (int, error)
	}

	DoctorRepository interface {
		Create(ctx context.Context, doctor *model.Doctor) error
		// CreateWithUser stores a new identity and the profile linked to it atomically.
		CreateWithUser(ctx context.Context, doctor *model.Doctor, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.DoctorView, error)
		GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Doctor, error)
		GetByEmail(ctx context.Context, email string) (*model.Doctor, error)
		Update(ctx context.Context, doctor *model.Doctor) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filter model.DoctorFilter) ([]*model.DoctorView, error)
		Count(ctx context.Context) (int, error)
	}

	SpecialtyRepository interface {
		Create(ctx context.Context, specialty *model.Specialty) error
		Get(ctx context.Context, id uuid.UUID) (*model.Specialty, error)
		GetByName(ctx context.Context, name string) (*model.Specialty, error)
		Update(ctx context.Context, specialty *model.Specialty) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.SpecialtyWithCount, error)
		Count(ctx context.Context) (int, error)
		CountDoctors(ctx context.Context, id uuid.UUID) (int, error)
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		GetDetail(ctx context.Context, id uuid.UUID) (*model.AppointmentDetail, error)
		Update(ctx context.Context, appointment *model.Appointment) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filter model.AppointmentFilter) ([]*model.AppointmentDetail, error)
		Count(ctx context.Context, filter model.AppointmentFilter) (int, error)
		CountDistinctClients(ctx context.Context, doctorID uuid.UUID) (int, error)
		// ExistsAtSlot reports a non-cancelled booking of doctorID at exactly at.
		ExistsAtSlot(ctx context.Context, doctorID uuid.UUID, at time.Time, excludeID *uuid.UUID) (bool, error)
	}

	// Pinger is implemented by stores that can report liveness.
	Pinger interface {
		PingContext(ctx context.Context) error
	}
)

// Store bundles the repositories of one backend.
type Store struct {
	Users        UserRepository
	Doctors      DoctorRepository
	Specialties  SpecialtyRepository
	Appointments AppointmentRepository
	Pinger       Pinger
}
