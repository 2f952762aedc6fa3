package rbac

import (
	"github.com/jwalitptl/medbook-api/internal/model"
)

// Permission names one guarded capability.
type Permission string

const (
	ProfileRead           Permission = "profile.read"
	ProfileUpdate         Permission = "profile.update"
	DoctorList            Permission = "doctor.list"
	DoctorView            Permission = "doctor.view"
	DoctorManage          Permission = "doctor.manage"
	SpecialtyRead         Permission = "specialty.read"
	SpecialtyManage       Permission = "specialty.manage"
	AppointmentCreate     Permission = "appointment.create"
	AppointmentList       Permission = "appointment.list"
	AppointmentReschedule Permission = "appointment.reschedule"
	AppointmentStatus     Permission = "appointment.status"
	AppointmentDelete     Permission = "appointment.delete"
	DashboardAdmin        Permission = "dashboard.admin"
	DashboardDoctor       Permission = "dashboard.doctor"
)

var (
	everyone   = []model.Role{model.RoleClient, model.RoleDoctor, model.RoleAdmin}
	clientOnly = []model.Role{model.RoleClient}
	doctorOnly = []model.Role{model.RoleDoctor}
	adminOnly  = []model.Role{model.RoleAdmin}
)

// DefaultTable is the capability table enforced by the API.
func DefaultTable() map[Permission][]model.Role {
	return map[Permission][]model.Role{
		ProfileRead:           everyone,
		ProfileUpdate:         everyone,
		DoctorList:            everyone,
		DoctorView:            {model.RoleClient, model.RoleAdmin},
		DoctorManage:          adminOnly,
		SpecialtyRead:         everyone,
		SpecialtyManage:       adminOnly,
		AppointmentCreate:     everyone,
		AppointmentList:       everyone,
		AppointmentReschedule: clientOnly,
		AppointmentStatus:     adminOnly,
		AppointmentDelete:     {model.RoleClient, model.RoleAdmin},
		DashboardAdmin:        adminOnly,
		DashboardDoctor:       doctorOnly,
	}
}

type Service struct {
	table map[Permission]map[model.Role]bool
}

func NewService(table map[Permission][]model.Role) *Service {
	s := &Service{table: make(map[Permission]map[model.Role]bool, len(table))}
	for perm, roles := range table {
		set := make(map[model.Role]bool, len(roles))
		for _, r := range roles {
			set[r] = true
		}
		s.table[perm] = set
	}
	return s
}

// HasPermission reports whether role may use perm. Unknown permissions are denied.
func (s *Service) HasPermission(role model.Role, perm Permission) bool {
	return s.table[perm][role]
}

// Permissions lists what role may do, for diagnostics.
func (s *Service) Permissions(role model.Role) []Permission {
	var out []Permission
	for perm, roles := range s.table {
		if roles[role] {
			out = append(out, perm)
		}
	}
	return out
}
