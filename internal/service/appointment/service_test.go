package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medbook-api/internal/config"
	"github.com/jwalitptl/medbook-api/internal/model"
	"github.com/jwalitptl/medbook-api/internal/repository"
	"github.com/jwalitptl/medbook-api/internal/repository/memory"
	apperrors "github.com/jwalitptl/medbook-api/pkg/errors"
	"github.com/jwalitptl/medbook-api/pkg/lock"
	"github.com/jwalitptl/medbook-api/pkg/messaging"
	"github.com/jwalitptl/medbook-api/pkg/metrics"
)

var now = time.Date(2030, 4, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc     *Service
	store   *repository.Store
	broker  *messaging.MemoryBroker
	client  Caller
	other   Caller
	admin   Caller
	doctorC Caller
	doctor  *model.Doctor
}

func setup(t *testing.T, cfg Config) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	broker := messaging.NewMemoryBroker()

	spec := &model.Specialty{Name: "Cardiology"}
	require.NoError(t, store.Specialties.Create(ctx, spec))

	mkUser := func(email string, role model.Role) *model.User {
		u := &model.User{Email: email, Role: role, FirstName: "F", LastName: "L", IsActive: true}
		require.NoError(t, store.Users.Create(ctx, u))
		return u
	}
	client := mkUser("client@example.com", model.RoleClient)
	other := mkUser("other@example.com", model.RoleClient)
	admin := mkUser("admin@example.com", model.RoleAdmin)

	doctor := &model.Doctor{FirstName: "Ada", LastName: "Smith", Email: "ada@example.com", SpecialtyID: spec.ID}
	docUser := &model.User{Email: "ada@example.com", Role: model.RoleDoctor, IsActive: true}
	require.NoError(t, store.Doctors.CreateWithUser(ctx, doctor, docUser))

	svc := NewService(store.Appointments, store.Doctors, store.Users, lock.NewLocalLocker(), broker,
		metrics.NewNoop(), zerolog.Nop(), cfg)
	svc.now = func() time.Time { return now }

	return &fixture{
		svc:     svc,
		store:   store,
		broker:  broker,
		client:  Caller{UserID: client.ID, Role: model.RoleClient},
		other:   Caller{UserID: other.ID, Role: model.RoleClient},
		admin:   Caller{UserID: admin.ID, Role: model.RoleAdmin},
		doctorC: Caller{UserID: docUser.ID, Role: model.RoleDoctor},
		doctor:  doctor,
	}
}

func (f *fixture) book(t *testing.T, caller Caller, at time.Time) *model.Appointment {
	t.Helper()
	apt, err := f.svc.Create(context.Background(), caller, &model.CreateAppointmentRequest{DoctorID: f.doctor.ID, DateTime: at})
	require.NoError(t, err)
	return apt
}

func TestCreate(t *testing.T) {
	f := setup(t, Config{})
	ctx := context.Background()

	apt := f.book(t, f.client, now.Add(24*time.Hour))
	assert.Equal(t, f.client.UserID, apt.ClientID)
	assert.Equal(t, model.AppointmentStatusPending, apt.Status)

	// the caller is always the client, whatever their role
	byAdmin := f.book(t, f.admin, now.Add(48*time.Hour))
	assert.Equal(t, f.admin.UserID, byAdmin.ClientID)

	for _, at := range []time.Time{now, now.Add(-time.Minute)} {
		_, err := f.svc.Create(ctx, f.client, &model.CreateAppointmentRequest{DoctorID: f.doctor.ID, DateTime: at})
		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, "date_time", appErr.Fields[0].Field)
	}

	_, err := f.svc.Create(ctx, f.client, &model.CreateAppointmentRequest{DoctorID: f.client.UserID, DateTime: now.Add(time.Hour)})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestCreateDetailed(t *testing.T) {
	f := setup(t, Config{})
	out, err := f.svc.CreateDetailed(context.Background(), f.client, &model.CreateAppointmentRequest{DoctorID: f.doctor.ID, DateTime: now.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, "Cardiology", out.Doctor.SpecialtyName)
	assert.Equal(t, "client@example.com", out.Client.Email)
}

func TestScopedReads(t *testing.T) {
	f := setup(t, Config{})
	ctx := context.Background()

	mine := f.book(t, f.client, now.Add(time.Hour))
	theirs := f.book(t, f.other, now.Add(2*time.Hour))

	list, err := f.svc.List(ctx, f.client)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)

	_, err = f.svc.Get(ctx, f.client, theirs.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	list, err = f.svc.List(ctx, f.doctorC)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = f.svc.List(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	got, err := f.svc.Get(ctx, f.admin, theirs.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Smith", got.DoctorName)
}

func TestReschedule(t *testing.T) {
	f := setup(t, Config{})
	ctx := context.Background()
	apt := f.book(t, f.client, now.Add(time.Hour))

	_, err := f.svc.UpdateStatus(ctx, apt.ID, &model.UpdateAppointmentStatusRequest{Status: model.AppointmentStatusConfirmed})
	require.NoError(t, err)

	moved, err := f.svc.Reschedule(ctx, f.client, apt.ID, &model.RescheduleAppointmentRequest{DateTime: now.Add(72 * time.Hour)})
	require.NoError(t, err)
	assert.True(t, moved.DateTime.Equal(now.Add(72*time.Hour)))
	assert.Equal(t, model.AppointmentStatusConfirmed, moved.Status)

	_, err = f.svc.Reschedule(ctx, f.other, apt.ID, &model.RescheduleAppointmentRequest{DateTime: now.Add(96 * time.Hour)})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	_, err = f.svc.Reschedule(ctx, f.client, apt.ID, &model.RescheduleAppointmentRequest{DateTime: now.Add(-time.Hour)})
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}

func TestUpdateStatusFreeForm(t *testing.T) {
	f := setup(t, Config{})
	ctx := context.Background()
	apt := f.book(t, f.client, now.Add(time.Hour))

	updated, err := f.svc.UpdateStatus(ctx, apt.ID, &model.UpdateAppointmentStatusRequest{Status: "rescheduled-by-phone"})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatus("rescheduled-by-phone"), updated.Status)
	assert.True(t, updated.DateTime.Equal(apt.DateTime))

	_, err = f.svc.UpdateStatus(ctx, apt.ID, &model.UpdateAppointmentStatusRequest{Status: "  "})
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}

func TestUpdateStatusEnforcedTransitions(t *testing.T) {
	f := setup(t, Config{EnforceTransitions: true})
	ctx := context.Background()
	apt := f.book(t, f.client, now.Add(time.Hour))

	_, err := f.svc.UpdateStatus(ctx, apt.ID, &model.UpdateAppointmentStatusRequest{Status: model.AppointmentStatusCompleted})
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))

	_, err = f.svc.UpdateStatus(ctx, apt.ID, &model.UpdateAppointmentStatusRequest{Status: "unknown"})
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))

	for _, st := range []model.AppointmentStatus{model.AppointmentStatusConfirmed, model.AppointmentStatusCompleted} {
		_, err = f.svc.UpdateStatus(ctx, apt.ID, &model.UpdateAppointmentStatusRequest{Status: st})
		require.NoError(t, err)
	}

	_, err = f.svc.UpdateStatus(ctx, apt.ID, &model.UpdateAppointmentStatusRequest{Status: model.AppointmentStatusCancelled})
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}

func TestDelete(t *testing.T) {
	f := setup(t, Config{})
	ctx := context.Background()
	a := f.book(t, f.client, now.Add(time.Hour))
	b := f.book(t, f.client, now.Add(2*time.Hour))

	assert.True(t, apperrors.Is(f.svc.Delete(ctx, f.other, a.ID), apperrors.ErrNotFound))
	require.NoError(t, f.svc.Delete(ctx, f.client, a.ID))
	require.NoError(t, f.svc.Delete(ctx, f.admin, b.ID))

	_, err := f.svc.Get(ctx, f.admin, a.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestDoubleBookingAllowed(t *testing.T) {
	f := setup(t, Config{DoubleBooking: config.DoubleBookingAllow})
	at := now.Add(time.Hour)
	f.book(t, f.client, at)
	f.book(t, f.other, at)

	n, err := f.store.Appointments.Count(context.Background(), model.AppointmentFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestDoubleBookingRejectedUnderConcurrency(t *testing.T) {
	f := setup(t, Config{DoubleBooking: config.DoubleBookingReject})
	at := now.Add(time.Hour)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Create(ctx, f.client, &model.CreateAppointmentRequest{DoctorID: f.doctor.ID, DateTime: at})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	created, conflicts := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			created++
		case apperrors.Is(err, apperrors.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, workers-1, conflicts)

	// rescheduling onto a taken slot is refused too
	other := f.book(t, f.other, at.Add(time.Hour))
	_, err := f.svc.Reschedule(ctx, f.other, other.ID, &model.RescheduleAppointmentRequest{DateTime: at})
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestEventsPublished(t *testing.T) {
	f := setup(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := f.broker.Subscribe(ctx, model.AppointmentEventsChannel)
	require.NoError(t, err)

	received := make(chan model.AppointmentEvent, 4)
	go func() {
		for payload := range ch {
			var ev model.AppointmentEvent
			if json.Unmarshal(payload, &ev) == nil {
				received <- ev
			}
		}
	}()

	apt := f.book(t, f.client, now.Add(time.Hour))
	_, err = f.svc.UpdateStatus(ctx, apt.ID, &model.UpdateAppointmentStatusRequest{Status: model.AppointmentStatusConfirmed})
	require.NoError(t, err)

	next := func() model.AppointmentEvent {
		select {
		case ev := <-received:
			return ev
		case <-time.After(time.Second):
			t.Fatal("event not received")
		}
		return model.AppointmentEvent{}
	}

	assert.Equal(t, model.EventAppointmentCreated, next().Type)
	changed := next()
	assert.Equal(t, model.EventAppointmentStatusChanged, changed.Type)
	assert.Equal(t, model.AppointmentStatusPending, changed.PreviousStatus)
	assert.Equal(t, apt.ID, changed.AppointmentID)
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, string, interface{}) error {
	return errors.New("broker down")
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	f := setup(t, Config{})
	f.svc.publisher = failingPublisher{}
	f.book(t, f.client, now.Add(time.Hour))
}
