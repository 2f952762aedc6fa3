package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/medbook-api/internal/repository"
)

type userRepository struct {
	BaseRepository
}

type doctorRepository struct {
	BaseRepository
}

type specialtyRepository struct {
	BaseRepository
}

type appointmentRepository struct {
	BaseRepository
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{NewBaseRepository(db)}
}

func NewDoctorRepository(db *sqlx.DB) repository.DoctorRepository {
	return &doctorRepository{NewBaseRepository(db)}
}

func NewSpecialtyRepository(db *sqlx.DB) repository.SpecialtyRepository {
	return &specialtyRepository{NewBaseRepository(db)}
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{NewBaseRepository(db)}
}

// NewStore wires every repository onto one pool.
func NewStore(db *sqlx.DB) *repository.Store {
	return &repository.Store{
		Users:        NewUserRepository(db),
		Doctors:      NewDoctorRepository(db),
		Specialties:  NewSpecialtyRepository(db),
		Appointments: NewAppointmentRepository(db),
		Pinger:       db,
	}
}
