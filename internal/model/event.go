package model

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentEventsChannel is the broker channel for lifecycle events.
const AppointmentEventsChannel = "appointments"

type AppointmentEventType string

const (
	EventAppointmentCreated       AppointmentEventType = "appointment.created"
	EventAppointmentRescheduled   AppointmentEventType = "appointment.rescheduled"
	EventAppointmentStatusChanged AppointmentEventType = "appointment.status_changed"
	EventAppointmentDeleted       AppointmentEventType = "appointment.deleted"
)

type AppointmentEvent struct {
	ID             uuid.UUID            `json:"id"`
	Type           AppointmentEventType `json:"type"`
	AppointmentID  uuid.UUID            `json:"appointment_id"`
	ClientID       uuid.UUID            `json:"client_id"`
	DoctorID       uuid.UUID            `json:"doctor_id"`
	DateTime       time.Time            `json:"date_time"`
	Status         AppointmentStatus    `json:"status"`
	PreviousStatus AppointmentStatus    `json:"previous_status,omitempty"`
	OccurredAt     time.Time            `json:"occurred_at"`
}

func NewAppointmentEvent(t AppointmentEventType, apt *Appointment, at time.Time) *AppointmentEvent {
	return &AppointmentEvent{
		ID:            uuid.New(),
		Type:          t,
		AppointmentID: apt.ID,
		ClientID:      apt.ClientID,
		DoctorID:      apt.DoctorID,
		DateTime:      apt.DateTime,
		Status:        apt.Status,
		OccurredAt:    at,
	}
}
