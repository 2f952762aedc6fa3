package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medbook-api/internal/model"
	"github.com/jwalitptl/medbook-api/internal/repository"
)

type fixture struct {
	store     *repository.Store
	specialty *model.Specialty
	client    *model.User
	doctor    *model.Doctor
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{store: NewStore()}

	f.specialty = &model.Specialty{Name: "Cardiology"}
	require.NoError(t, f.store.Specialties.Create(ctx, f.specialty))

	f.client = &model.User{Email: "client@example.com", Role: model.RoleClient, FirstName: "Jane", LastName: "Doe", IsActive: true}
	require.NoError(t, f.store.Users.Create(ctx, f.client))

	f.doctor = &model.Doctor{FirstName: "Ada", LastName: "Smith", Email: "ada@example.com", SpecialtyID: f.specialty.ID}
	docUser := &model.User{Email: "ada@example.com", Role: model.RoleDoctor, IsActive: true}
	require.NoError(t, f.store.Doctors.CreateWithUser(ctx, f.doctor, docUser))
	return f
}

func TestUserEmailUniqueIgnoresCase(t *testing.T) {
	f := setup(t)
	err := f.store.Users.Create(context.Background(), &model.User{Email: "CLIENT@example.com", Role: model.RoleClient})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	got, err := f.store.Users.GetByEmail(context.Background(), "Client@Example.com")
	require.NoError(t, err)
	assert.Equal(t, f.client.ID, got.ID)
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	f := setup(t)
	got, err := f.store.Users.Get(context.Background(), f.client.ID)
	require.NoError(t, err)
	got.FirstName = "Changed"

	again, err := f.store.Users.Get(context.Background(), f.client.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane", again.FirstName)
}

func TestDoctorViewJoinsSpecialtyAndUser(t *testing.T) {
	f := setup(t)
	view, err := f.store.Doctors.Get(context.Background(), f.doctor.ID)
	require.NoError(t, err)

	assert.Equal(t, "Cardiology", view.SpecialtyName)
	require.NotNil(t, view.IsActive)
	assert.True(t, *view.IsActive)
	assert.NotNil(t, view.DateJoined)
}

func TestSpecialtyDeleteBlockedByDoctors(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.store.Specialties.Delete(ctx, f.specialty.ID), repository.ErrReferenced)

	list, err := f.store.Specialties.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].DoctorsCount)
}

func TestDoctorDeleteCascadesAppointments(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	apt := &model.Appointment{ClientID: f.client.ID, DoctorID: f.doctor.ID, DateTime: time.Now().Add(time.Hour), Status: model.AppointmentStatusPending}
	require.NoError(t, f.store.Appointments.Create(ctx, apt))

	require.NoError(t, f.store.Doctors.Delete(ctx, f.doctor.ID))

	_, err := f.store.Appointments.Get(ctx, apt.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAppointmentFiltersAndOrdering(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	base := time.Date(2030, 3, 10, 9, 0, 0, 0, time.UTC)

	for i, status := range []model.AppointmentStatus{model.AppointmentStatusPending, model.AppointmentStatusCompleted, model.AppointmentStatusCancelled} {
		apt := &model.Appointment{ClientID: f.client.ID, DoctorID: f.doctor.ID, DateTime: base.Add(time.Duration(i) * 24 * time.Hour), Status: status}
		require.NoError(t, f.store.Appointments.Create(ctx, apt))
	}

	from, to := base, base.Add(48*time.Hour)
	list, err := f.store.Appointments.List(ctx, model.AppointmentFilter{From: &from, To: &to, OrderBy: model.OrderDateTimeDesc})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].DateTime.After(list[1].DateTime))
	assert.Equal(t, "Jane Doe", list[0].ClientName)
	assert.Equal(t, "Cardiology", list[0].SpecialtyName)

	completed := model.AppointmentStatusCompleted
	n, err := f.store.Appointments.Count(ctx, model.AppointmentFilter{Status: &completed})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = f.store.Appointments.CountDistinctClients(ctx, f.doctor.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	busy, err := f.store.Appointments.ExistsAtSlot(ctx, f.doctor.ID, base, nil)
	require.NoError(t, err)
	assert.True(t, busy)

	// cancelled bookings free the slot
	busy, err = f.store.Appointments.ExistsAtSlot(ctx, f.doctor.ID, base.Add(48*time.Hour), nil)
	require.NoError(t, err)
	assert.False(t, busy)
}
