package email

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

type logSender struct {
	logger   zerolog.Logger
	codeTTL  time.Duration
	location *time.Location
}

// NewLogService writes mails to the log instead of sending them. Used when no
// SMTP host is configured.
func NewLogService(logger zerolog.Logger, codeTTL time.Duration, loc *time.Location) Service {
	return &logSender{logger: logger, codeTTL: codeTTL, location: loc}
}

func (s *logSender) SendPasswordReset(ctx context.Context, to string, code string) error {
	s.write(passwordResetMessage(to, code, s.codeTTL))
	return nil
}

func (s *logSender) SendAppointmentUpdate(ctx context.Context, to string, update AppointmentUpdate) error {
	s.write(appointmentUpdateMessage(to, update, s.location))
	return nil
}

func (s *logSender) write(msg Message) {
	s.logger.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.Body).
		Msg("email")
}
