package email

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jwalitptl/medbook-api/internal/model"
)

type Service interface {
	SendPasswordReset(ctx context.Context, to string, code string) error
	SendAppointmentUpdate(ctx context.Context, to string, update AppointmentUpdate) error
}

// AppointmentUpdate is the content of a lifecycle notification.
type AppointmentUpdate struct {
	RecipientName string
	DoctorName    string
	DateTime      time.Time
	Status        model.AppointmentStatus
	Event         model.AppointmentEventType
}

// Message is a rendered plain-text mail.
type Message struct {
	To      string
	Subject string
	Body    string
}

func passwordResetMessage(to, code string, ttl time.Duration) Message {
	return Message{
		To:      to,
		Subject: "Your password reset code",
		Body: fmt.Sprintf(
			"Your verification code is %s.\nIt expires in %d minutes. If you did not ask for a reset, ignore this message.\n",
			code, int(ttl.Minutes()),
		),
	}
}

func appointmentUpdateMessage(to string, u AppointmentUpdate, loc *time.Location) Message {
	when := u.DateTime.In(loc).Format("Mon 02 Jan 2006 15:04")

	var subject, line string
	switch u.Event {
	case model.EventAppointmentRescheduled:
		subject = "Appointment rescheduled"
		line = fmt.Sprintf("Your appointment with Dr. %s has been moved to %s.", u.DoctorName, when)
	case model.EventAppointmentStatusChanged:
		subject = "Appointment status updated"
		line = fmt.Sprintf("Your appointment with Dr. %s on %s is now %s.", u.DoctorName, when, u.Status)
	default:
		subject = "Appointment update"
		line = fmt.Sprintf("Your appointment with Dr. %s on %s has changed.", u.DoctorName, when)
	}

	greeting := "Hello"
	if name := strings.TrimSpace(u.RecipientName); name != "" {
		greeting += " " + name
	}

	return Message{
		To:      to,
		Subject: subject,
		Body:    greeting + ",\n\n" + line + "\n",
	}
}
