package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medbook-api/internal/model"
	"github.com/jwalitptl/medbook-api/internal/repository"
	"github.com/jwalitptl/medbook-api/internal/repository/memory"
	apperrors "github.com/jwalitptl/medbook-api/pkg/errors"
)

// Wednesday
var now = time.Date(2030, 4, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc     *Service
	store   *repository.Store
	docUser *model.User
	clientA *model.User
	clientB *model.User
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	cardio := &model.Specialty{Name: "Cardiology"}
	require.NoError(t, store.Specialties.Create(ctx, cardio))
	require.NoError(t, store.Specialties.Create(ctx, &model.Specialty{Name: "Neurology"}))

	clientA := &model.User{Email: "a@example.com", Role: model.RoleClient, FirstName: "Ann", LastName: "A"}
	clientB := &model.User{Email: "b@example.com", Role: model.RoleClient, FirstName: "Bob", LastName: "B"}
	require.NoError(t, store.Users.Create(ctx, clientA))
	require.NoError(t, store.Users.Create(ctx, clientB))
	require.NoError(t, store.Users.UpdateLastLogin(ctx, clientA.ID, now.Add(-24*time.Hour)))
	require.NoError(t, store.Users.UpdateLastLogin(ctx, clientB.ID, now.Add(-40*24*time.Hour)))

	doctor := &model.Doctor{FirstName: "Ada", LastName: "Smith", Email: "ada@example.com", SpecialtyID: cardio.ID}
	docUser := &model.User{Email: "ada@example.com", Role: model.RoleDoctor}
	require.NoError(t, store.Doctors.CreateWithUser(ctx, doctor, docUser))

	seed := []struct {
		client *model.User
		at     time.Time
		status model.AppointmentStatus
	}{
		{clientA, time.Date(2030, 4, 10, 9, 0, 0, 0, time.UTC), model.AppointmentStatusPending},
		{clientB, time.Date(2030, 4, 8, 10, 0, 0, 0, time.UTC), model.AppointmentStatusCompleted},
		{clientA, time.Date(2030, 4, 14, 10, 0, 0, 0, time.UTC), model.AppointmentStatusConfirmed},
		{clientA, time.Date(2030, 4, 15, 10, 0, 0, 0, time.UTC), model.AppointmentStatusConfirmed},
		{clientB, time.Date(2030, 1, 15, 10, 0, 0, 0, time.UTC), model.AppointmentStatusPending},
		{clientB, time.Date(2029, 10, 1, 10, 0, 0, 0, time.UTC), model.AppointmentStatusPending},
	}
	for i, s := range seed {
		apt := &model.Appointment{ClientID: s.client.ID, DoctorID: doctor.ID, DateTime: s.at, Status: s.status}
		apt.CreatedAt = now.Add(-time.Duration(len(seed)-i) * time.Hour)
		require.NoError(t, store.Appointments.Create(ctx, apt))
	}

	svc := NewService(store, time.UTC)
	svc.now = func() time.Time { return now }
	return &fixture{svc: svc, store: store, docUser: docUser, clientA: clientA, clientB: clientB}
}

func TestAdminStats(t *testing.T) {
	f := setup(t)
	stats, err := f.svc.AdminStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.TotalDoctors)
	assert.Equal(t, 2, stats.TotalPatients)
	assert.Equal(t, 6, stats.TotalAppointments)
	assert.Equal(t, 2, stats.TotalSpecialties)
	assert.Equal(t, 1, stats.TodayAppointments)
	assert.Equal(t, 3, stats.PendingAppointments)
	assert.Equal(t, 1, stats.CompletedAppointments)
	assert.Equal(t, 1, stats.ActiveUsers)

	assert.Equal(t, []model.MonthCount{
		{Month: "Nov", Count: 0},
		{Month: "Dec", Count: 0},
		{Month: "Jan", Count: 1},
		{Month: "Feb", Count: 0},
		{Month: "Mar", Count: 0},
		{Month: "Apr", Count: 4},
	}, stats.MonthlyAppointments)

	assert.Equal(t, []model.SpecialtyCount{{Specialty: "Cardiology", Count: 1}}, stats.SpecialtyStats)
}

func TestAdminStatsUsesTimezone(t *testing.T) {
	f := setup(t)
	// 12:00 UTC is already the 11th in Auckland
	auckland, err := time.LoadLocation("Pacific/Auckland")
	require.NoError(t, err)
	f.svc.loc = auckland

	stats, err := f.svc.AdminStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TodayAppointments)
}

func TestRecentActivities(t *testing.T) {
	f := setup(t)
	feed, err := f.svc.RecentActivities(context.Background())
	require.NoError(t, err)
	require.Len(t, feed.Results, 6)

	newest := feed.Results[0]
	assert.Equal(t, model.ActivityAppointmentCreated, newest.Type)
	assert.Contains(t, newest.Message, "Bob B")
	assert.Contains(t, newest.Message, "Ada Smith")
	assert.True(t, newest.Date.After(feed.Results[1].Date))
}

func TestDoctorStats(t *testing.T) {
	f := setup(t)
	stats, err := f.svc.DoctorStats(context.Background(), f.docUser.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalPatients)
	assert.Equal(t, 1, stats.TodayAppointments)
	assert.Equal(t, 3, stats.WeekAppointments)
	assert.Equal(t, 1, stats.CompletedAppointments)

	_, err = f.svc.DoctorStats(context.Background(), f.clientA.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestDoctorRecentAppointments(t *testing.T) {
	f := setup(t)
	feed, err := f.svc.DoctorRecentAppointments(context.Background(), f.docUser.ID)
	require.NoError(t, err)
	require.Len(t, feed.Results, 6)
	assert.Equal(t, "Bob B", feed.Results[0].ClientName)
}

func TestWeekBounds(t *testing.T) {
	sunday := time.Date(2030, 4, 14, 23, 0, 0, 0, time.UTC)
	start, end := weekBounds(sunday)
	assert.Equal(t, time.Monday, start.Weekday())
	assert.Equal(t, 8, start.Day())
	assert.Equal(t, 15, end.Day())
}
