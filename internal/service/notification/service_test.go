package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medbook-api/internal/email"
	"github.com/jwalitptl/medbook-api/internal/model"
	"github.com/jwalitptl/medbook-api/internal/repository/memory"
	"github.com/jwalitptl/medbook-api/pkg/metrics"
	"github.com/jwalitptl/medbook-api/pkg/worker"
)

type sent struct {
	to     string
	update email.AppointmentUpdate
}

type fakeMailer struct {
	sent []sent
	err  error
}

func (m *fakeMailer) SendPasswordReset(context.Context, string, string) error { return nil }

func (m *fakeMailer) SendAppointmentUpdate(_ context.Context, to string, u email.AppointmentUpdate) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sent{to: to, update: u})
	return nil
}

func setup(t *testing.T) (*Service, *fakeMailer, *model.Appointment) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	spec := &model.Specialty{Name: "Cardiology"}
	require.NoError(t, store.Specialties.Create(ctx, spec))
	client := &model.User{Email: "jane@example.com", Role: model.RoleClient, FirstName: "Jane", LastName: "Doe"}
	require.NoError(t, store.Users.Create(ctx, client))
	doctor := &model.Doctor{FirstName: "Ada", LastName: "Smith", Email: "ada@example.com", SpecialtyID: spec.ID}
	require.NoError(t, store.Doctors.Create(ctx, doctor))

	apt := &model.Appointment{ClientID: client.ID, DoctorID: doctor.ID, DateTime: time.Now().Add(time.Hour), Status: model.AppointmentStatusConfirmed}
	apt.Touch(time.Now())

	mailer := &fakeMailer{}
	return NewService(store.Users, store.Doctors, mailer, metrics.NewNoop(), zerolog.Nop()), mailer, apt
}

func payload(t *testing.T, ev *model.AppointmentEvent) []byte {
	t.Helper()
	raw, err := json.Marshal(ev)
	require.NoError(t, err)
	return raw
}

func TestHandleStatusChangeMailsClient(t *testing.T) {
	svc, mailer, apt := setup(t)

	ev := model.NewAppointmentEvent(model.EventAppointmentStatusChanged, apt, time.Now())
	require.NoError(t, svc.Handle(context.Background(), payload(t, ev)))

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "jane@example.com", mailer.sent[0].to)
	assert.Equal(t, "Ada Smith", mailer.sent[0].update.DoctorName)
	assert.Equal(t, model.AppointmentStatusConfirmed, mailer.sent[0].update.Status)
}

func TestHandleIgnoresOtherEvents(t *testing.T) {
	svc, mailer, apt := setup(t)

	ev := model.NewAppointmentEvent(model.EventAppointmentCreated, apt, time.Now())
	require.NoError(t, svc.Handle(context.Background(), payload(t, ev)))
	assert.Empty(t, mailer.sent)
}

func TestHandleErrors(t *testing.T) {
	svc, mailer, apt := setup(t)

	err := svc.Handle(context.Background(), []byte("{not json"))
	assert.ErrorIs(t, err, worker.ErrPermanent)

	mailer.err = errors.New("relay down")
	ev := model.NewAppointmentEvent(model.EventAppointmentRescheduled, apt, time.Now())
	err = svc.Handle(context.Background(), payload(t, ev))
	require.Error(t, err)
	assert.NotErrorIs(t, err, worker.ErrPermanent)
}
