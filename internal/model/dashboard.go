package model

import (
	"time"

	"github.com/google/uuid"
)

type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

type SpecialtyCount struct {
	Specialty string `json:"specialty" db:"specialty"`
	Count     int    `json:"count" db:"count"`
}

type AdminStats struct {
	TotalDoctors          int              `json:"total_doctors"`
	TotalPatients         int              `json:"total_patients"`
	TotalAppointments     int              `json:"total_appointments"`
	TotalSpecialties      int              `json:"total_specialties"`
	TodayAppointments     int              `json:"today_appointments"`
	PendingAppointments   int              `json:"pending_appointments"`
	CompletedAppointments int              `json:"completed_appointments"`
	ActiveUsers           int              `json:"active_users"`
	MonthlyAppointments   []MonthCount     `json:"monthly_appointments"`
	SpecialtyStats        []SpecialtyCount `json:"specialty_stats"`
}

const ActivityAppointmentCreated = "appointment_created"

type Activity struct {
	ID      uuid.UUID         `json:"id"`
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Date    time.Time         `json:"date"`
	Status  AppointmentStatus `json:"status"`
}

type ActivityFeed struct {
	Results []Activity `json:"results"`
}

type DoctorStats struct {
	TotalPatients         int `json:"total_patients"`
	TodayAppointments     int `json:"today_appointments"`
	WeekAppointments      int `json:"week_appointments"`
	CompletedAppointments int `json:"completed_appointments"`
}

// DoctorAppointment is one row of a doctor's recent bookings feed.
type DoctorAppointment struct {
	ID         uuid.UUID         `json:"id"`
	ClientName string            `json:"client_name"`
	DateTime   time.Time         `json:"date_time"`
	Status     AppointmentStatus `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
}

type DoctorAppointmentFeed struct {
	Results []DoctorAppointment `json:"results"`
}
