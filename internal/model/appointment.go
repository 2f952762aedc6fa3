package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "terminé"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusPending:   {AppointmentStatusConfirmed, AppointmentStatusCancelled},
	AppointmentStatusConfirmed: {AppointmentStatusCompleted, AppointmentStatusCancelled},
	AppointmentStatusCompleted: nil,
	AppointmentStatusCancelled: nil,
}

// Known reports whether s is one of the lifecycle states.
func (s AppointmentStatus) Known() bool {
	_, ok := appointmentTransitions[s]
	return ok
}

// CanTransitionTo reports whether the lifecycle table allows s -> next.
// Staying in the same state is always allowed.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range appointmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Appointment struct {
	Base
	ClientID uuid.UUID         `json:"client_id" db:"client_id"`
	DoctorID uuid.UUID         `json:"doctor_id" db:"doctor_id"`
	DateTime time.Time         `json:"date_time" db:"date_time"`
	Status   AppointmentStatus `json:"status" db:"status"`
}

// AppointmentDetail carries the display names joined from the parties.
type AppointmentDetail struct {
	Appointment
	ClientName    string `json:"client_name" db:"client_name"`
	ClientEmail   string `json:"client_email" db:"client_email"`
	DoctorName    string `json:"doctor_name" db:"doctor_name"`
	SpecialtyName string `json:"specialty_name" db:"specialty_name"`
}

// AppointmentWithParties nests the full doctor and client records.
type AppointmentWithParties struct {
	Appointment
	Doctor *DoctorView `json:"doctor"`
	Client *User       `json:"client"`
}

// Orderings understood by AppointmentFilter.OrderBy
const (
	OrderDateTimeAsc   = "date_time_asc"
	OrderDateTimeDesc  = "date_time_desc"
	OrderCreatedAtDesc = "created_at_desc"
)

type AppointmentFilter struct {
	ClientID *uuid.UUID
	DoctorID *uuid.UUID
	Status   *AppointmentStatus
	From     *time.Time // inclusive, on date_time
	To       *time.Time // exclusive, on date_time
	OrderBy  string
	Limit    int
}

// CreateAppointmentRequest has no client field: the caller is always the client.
type CreateAppointmentRequest struct {
	DoctorID uuid.UUID `json:"doctor_id" binding:"required"`
	DateTime time.Time `json:"date_time" binding:"required"`
}

type RescheduleAppointmentRequest struct {
	DateTime time.Time `json:"date_time" binding:"required"`
}

type UpdateAppointmentStatusRequest struct {
	Status AppointmentStatus `json:"status" binding:"required,max=32"`
}
