package email

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medbook-api/internal/model"
)

func TestPasswordResetMessage(t *testing.T) {
	msg := passwordResetMessage("a@example.com", "4821", 5*time.Minute)
	assert.Equal(t, "a@example.com", msg.To)
	assert.Contains(t, msg.Body, "4821")
	assert.Contains(t, msg.Body, "5 minutes")
}

func TestAppointmentUpdateMessage(t *testing.T) {
	at := time.Date(2030, 5, 6, 8, 30, 0, 0, time.UTC)
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	msg := appointmentUpdateMessage("c@example.com", AppointmentUpdate{
		RecipientName: "Jane",
		DoctorName:    "Ada Smith",
		DateTime:      at,
		Status:        model.AppointmentStatusConfirmed,
		Event:         model.EventAppointmentStatusChanged,
	}, paris)

	assert.Equal(t, "Appointment status updated", msg.Subject)
	assert.Contains(t, msg.Body, "Hello Jane")
	assert.Contains(t, msg.Body, "10:30")
	assert.Contains(t, msg.Body, "confirmed")

	msg = appointmentUpdateMessage("c@example.com", AppointmentUpdate{
		DoctorName: "Ada Smith",
		DateTime:   at,
		Event:      model.EventAppointmentRescheduled,
	}, time.UTC)
	assert.Equal(t, "Appointment rescheduled", msg.Subject)
	assert.Contains(t, msg.Body, "moved to")
}

func TestLogServiceWritesMail(t *testing.T) {
	var buf bytes.Buffer
	svc := NewLogService(zerolog.New(&buf), 5*time.Minute, time.UTC)

	require.NoError(t, svc.SendPasswordReset(context.Background(), "a@example.com", "1234"))
	assert.Contains(t, buf.String(), `"to":"a@example.com"`)
	assert.Contains(t, buf.String(), "1234")
}
