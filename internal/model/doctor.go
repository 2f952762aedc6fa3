package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// AvailabilityDateLayout is the required key format of an availability map.
const AvailabilityDateLayout = "2006-01-02"

// Availability maps a calendar date to the ordered time slots offered that day.
// Only the shape is validated; slot strings are opaque.
type Availability map[string][]string

// InvalidDates returns the keys that are not calendar dates, sorted.
func (a Availability) InvalidDates() []string {
	var bad []string
	for day := range a {
		if _, err := time.Parse(AvailabilityDateLayout, day); err != nil {
			bad = append(bad, day)
		}
	}
	sort.Strings(bad)
	return bad
}

func (a Availability) Validate() error {
	if bad := a.InvalidDates(); len(bad) > 0 {
		return fmt.Errorf("invalid date format %q, expected YYYY-MM-DD", bad[0])
	}
	return nil
}

func (a Availability) Value() (driver.Value, error) {
	if a == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	// lib/pq sends []byte as bytea; JSONB needs text
	return string(raw), nil
}

func (a *Availability) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*a = Availability{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported availability type %T", src)
	}
	out := Availability{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("failed to decode availability: %w", err)
	}
	*a = out
	return nil
}

// Doctor is a provider profile, optionally linked to an identity.
type Doctor struct {
	Base
	UserID          *uuid.UUID   `json:"user_id,omitempty" db:"user_id"`
	FirstName       string       `json:"first_name" db:"first_name"`
	LastName        string       `json:"last_name" db:"last_name"`
	Email           string       `json:"email" db:"email"`
	Phone           string       `json:"phone" db:"phone"`
	SpecialtyID     uuid.UUID    `json:"specialty_id" db:"specialty_id"`
	ConsultationFee float64      `json:"consultation_fee" db:"consultation_fee"`
	Bio             string       `json:"bio" db:"bio"`
	Availability    Availability `json:"availability" db:"availability"`
}

func (d *Doctor) FullName() string {
	return d.FirstName + " " + d.LastName
}

// DoctorView is a doctor joined with its specialty and linked identity.
type DoctorView struct {
	Doctor
	SpecialtyName string     `json:"specialty_name" db:"specialty_name"`
	IsActive      *bool      `json:"is_active" db:"is_active"`
	DateJoined    *time.Time `json:"date_joined" db:"date_joined"`
}

type DoctorFilter struct {
	SpecialtyID *uuid.UUID
}

type CreateDoctorRequest struct {
	FirstName       string       `json:"first_name" binding:"required,max=150"`
	LastName        string       `json:"last_name" binding:"required,max=150"`
	Email           string       `json:"email" binding:"required,email"`
	Phone           string       `json:"phone" binding:"max=30"`
	SpecialtyID     uuid.UUID    `json:"specialty_id" binding:"required"`
	ConsultationFee float64      `json:"consultation_fee" binding:"gte=0"`
	Bio             string       `json:"bio"`
	Availability    Availability `json:"availability" binding:"omitempty,availability"`
	// Password, when set, also creates a doctor identity linked to the profile.
	Password string `json:"password" binding:"omitempty,min=6"`
}

type UpdateDoctorRequest struct {
	FirstName       string       `json:"first_name" binding:"required,max=150"`
	LastName        string       `json:"last_name" binding:"required,max=150"`
	Email           string       `json:"email" binding:"required,email"`
	Phone           string       `json:"phone" binding:"max=30"`
	SpecialtyID     uuid.UUID    `json:"specialty_id" binding:"required"`
	ConsultationFee float64      `json:"consultation_fee" binding:"gte=0"`
	Bio             string       `json:"bio"`
	Availability    Availability `json:"availability" binding:"omitempty,availability"`
}

type SetActiveRequest struct {
	// Nil toggles the current state.
	IsActive *bool `json:"is_active"`
}

type SetActiveResponse struct {
	Message  string `json:"message"`
	IsActive bool   `json:"is_active"`
}
