package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/medbook-api/internal/model"
	"github.com/jwalitptl/medbook-api/internal/repository"
	apperrors "github.com/jwalitptl/medbook-api/pkg/errors"
)

const (
	monthBuckets     = 6
	activeUserWindow = 30 * 24 * time.Hour
	feedSize         = 10
)

// Service computes dashboard aggregates on every call. Calendar boundaries
// (today, week, month) are taken in loc.
type Service struct {
	store *repository.Store
	loc   *time.Location
	now   func() time.Time
}

func NewService(store *repository.Store, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, loc: loc, now: time.Now}
}

func (s *Service) AdminStats(ctx context.Context) (*model.AdminStats, error) {
	now := s.now().In(s.loc)
	stats := &model.AdminStats{}
	var err error

	if stats.TotalDoctors, err = s.store.Doctors.Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count doctors: %w", err)
	}
	if stats.TotalPatients, err = s.store.Users.Count(ctx, model.UserFilter{Role: model.RoleClient}); err != nil {
		return nil, fmt.Errorf("failed to count patients: %w", err)
	}
	if stats.TotalSpecialties, err = s.store.Specialties.Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count specialties: %w", err)
	}

	since := now.Add(-activeUserWindow)
	if stats.ActiveUsers, err = s.store.Users.Count(ctx, model.UserFilter{LastLoginSince: &since}); err != nil {
		return nil, fmt.Errorf("failed to count active users: %w", err)
	}

	pending := model.AppointmentStatusPending
	completed := model.AppointmentStatusCompleted
	from, to := dayBounds(now)
	counts := []struct {
		dst    *int
		filter model.AppointmentFilter
	}{
		{&stats.TotalAppointments, model.AppointmentFilter{}},
		{&stats.TodayAppointments, model.AppointmentFilter{From: &from, To: &to}},
		{&stats.PendingAppointments, model.AppointmentFilter{Status: &pending}},
		{&stats.CompletedAppointments, model.AppointmentFilter{Status: &completed}},
	}
	for _, c := range counts {
		if *c.dst, err = s.store.Appointments.Count(ctx, c.filter); err != nil {
			return nil, fmt.Errorf("failed to count appointments: %w", err)
		}
	}

	if stats.MonthlyAppointments, err = s.monthly(ctx, now); err != nil {
		return nil, err
	}

	specialties, err := s.store.Specialties.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list specialties: %w", err)
	}
	stats.SpecialtyStats = []model.SpecialtyCount{}
	for _, sp := range specialties {
		if sp.DoctorsCount > 0 {
			stats.SpecialtyStats = append(stats.SpecialtyStats, model.SpecialtyCount{Specialty: sp.Name, Count: sp.DoctorsCount})
		}
	}

	return stats, nil
}

// monthly buckets appointments by date_time over the current and five
// previous calendar months, oldest first.
func (s *Service) monthly(ctx context.Context, now time.Time) ([]model.MonthCount, error) {
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc)
	out := make([]model.MonthCount, 0, monthBuckets)

	for i := monthBuckets - 1; i >= 0; i-- {
		start := current.AddDate(0, -i, 0)
		end := start.AddDate(0, 1, 0)
		n, err := s.store.Appointments.Count(ctx, model.AppointmentFilter{From: &start, To: &end})
		if err != nil {
			return nil, fmt.Errorf("failed to count monthly appointments: %w", err)
		}
		out = append(out, model.MonthCount{Month: start.Format("Jan"), Count: n})
	}
	return out, nil
}

func (s *Service) RecentActivities(ctx context.Context) (*model.ActivityFeed, error) {
	list, err := s.store.Appointments.List(ctx, model.AppointmentFilter{OrderBy: model.OrderCreatedAtDesc, Limit: feedSize})
	if err != nil {
		return nil, fmt.Errorf("failed to list recent appointments: %w", err)
	}

	feed := &model.ActivityFeed{Results: make([]model.Activity, 0, len(list))}
	for _, apt := range list {
		feed.Results = append(feed.Results, model.Activity{
			ID:      apt.ID,
			Type:    model.ActivityAppointmentCreated,
			Message: fmt.Sprintf("New appointment: %s with Dr. %s", apt.ClientName, apt.DoctorName),
			Date:    apt.CreatedAt,
			Status:  apt.Status,
		})
	}
	return feed, nil
}

func (s *Service) DoctorStats(ctx context.Context, userID uuid.UUID) (*model.DoctorStats, error) {
	doctorID, err := s.doctorID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now().In(s.loc)
	stats := &model.DoctorStats{}

	if stats.TotalPatients, err = s.store.Appointments.CountDistinctClients(ctx, doctorID); err != nil {
		return nil, fmt.Errorf("failed to count doctor patients: %w", err)
	}

	dayFrom, dayTo := dayBounds(now)
	weekFrom, weekTo := weekBounds(now)
	completed := model.AppointmentStatusCompleted
	counts := []struct {
		dst    *int
		filter model.AppointmentFilter
	}{
		{&stats.TodayAppointments, model.AppointmentFilter{DoctorID: &doctorID, From: &dayFrom, To: &dayTo}},
		{&stats.WeekAppointments, model.AppointmentFilter{DoctorID: &doctorID, From: &weekFrom, To: &weekTo}},
		{&stats.CompletedAppointments, model.AppointmentFilter{DoctorID: &doctorID, Status: &completed}},
	}
	for _, c := range counts {
		if *c.dst, err = s.store.Appointments.Count(ctx, c.filter); err != nil {
			return nil, fmt.Errorf("failed to count doctor appointments: %w", err)
		}
	}
	return stats, nil
}

func (s *Service) DoctorRecentAppointments(ctx context.Context, userID uuid.UUID) (*model.DoctorAppointmentFeed, error) {
	doctorID, err := s.doctorID(ctx, userID)
	if err != nil {
		return nil, err
	}

	list, err := s.store.Appointments.List(ctx, model.AppointmentFilter{
		DoctorID: &doctorID,
		OrderBy:  model.OrderCreatedAtDesc,
		Limit:    feedSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list doctor appointments: %w", err)
	}

	feed := &model.DoctorAppointmentFeed{Results: make([]model.DoctorAppointment, 0, len(list))}
	for _, apt := range list {
		feed.Results = append(feed.Results, model.DoctorAppointment{
			ID:         apt.ID,
			ClientName: apt.ClientName,
			DateTime:   apt.DateTime,
			Status:     apt.Status,
			CreatedAt:  apt.CreatedAt,
		})
	}
	return feed, nil
}

func (s *Service) doctorID(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	doctor, err := s.store.Doctors.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return uuid.Nil, apperrors.NotFound("doctor profile", err)
		}
		return uuid.Nil, fmt.Errorf("failed to resolve doctor profile: %w", err)
	}
	return doctor.ID, nil
}

// dayBounds returns [midnight, next midnight) of t's calendar day.
func dayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

// weekBounds returns [Monday, next Monday) of t's week.
func weekBounds(t time.Time) (time.Time, time.Time) {
	day, _ := dayBounds(t)
	offset := (int(day.Weekday()) + 6) % 7
	start := day.AddDate(0, 0, -offset)
	return start, start.AddDate(0, 0, 7)
}
