package model

import (
	"strings"
	"time"
)

// Role is the closed set of identity roles.
type Role string

const (
	RoleClient Role = "client"
	RoleDoctor Role = "doctor"
	RoleAdmin  Role = "admin"
)

// Roles lists every role in a stable order.
func Roles() []Role {
	return []Role{RoleClient, RoleDoctor, RoleAdmin}
}

func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

// ParseRole accepts a role name in any case.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// User is an identity: credentials, role and profile.
type User struct {
	Base
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         Role       `json:"role" db:"role"`
	FirstName    string     `json:"first_name" db:"first_name"`
	LastName     string     `json:"last_name" db:"last_name"`
	Address      string     `json:"address" db:"address"`
	Gender       string     `json:"gender" db:"gender"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	IsStaff      bool       `json:"is_staff" db:"is_staff"`
	IsSuperuser  bool       `json:"is_superuser" db:"is_superuser"`
	LastLoginAt  *time.Time `json:"last_login_at" db:"last_login_at"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// UserFilter narrows counts and lists over identities.
type UserFilter struct {
	Role           Role
	LastLoginSince *time.Time
}

type RegisterRequest struct {
	Role      Role   `json:"role" binding:"omitempty,oneof=client doctor admin"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	FirstName string `json:"first_name" binding:"required,max=150"`
	LastName  string `json:"last_name" binding:"required,max=150"`
	Address   string `json:"address" binding:"max=255"`
	Gender    string `json:"gender" binding:"max=20"`
}

// UpdateProfileRequest is a partial update; nil fields are left alone.
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name" binding:"omitempty,max=150"`
	LastName  *string `json:"last_name" binding:"omitempty,max=150"`
	Email     *string `json:"email" binding:"omitempty,email"`
	Address   *string `json:"address" binding:"omitempty,max=255"`
	Gender    *string `json:"gender" binding:"omitempty,max=20"`
}
