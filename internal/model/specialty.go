package model

import "github.com/google/uuid"

type Specialty struct {
	Base
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
}

type SpecialtyWithCount struct {
	Specialty
	DoctorsCount int `json:"doctors_count" db:"doctors_count"`
}

type SpecialtyRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description"`
}

type SpecialtyOption struct {
	ID   uuid.UUID `json:"id" db:"id"`
	Name string    `json:"name" db:"name"`
}

type SpecialtyOptions struct {
	Specialties []SpecialtyOption `json:"specialties"`
	Count       int               `json:"count"`
}
