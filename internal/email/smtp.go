package email

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/medbook-api/internal/config"
	"github.com/jwalitptl/medbook-api/pkg/circuitbreaker"
)

type smtpSender struct {
	dialer   *gomail.Dialer
	from     string
	breaker  *circuitbreaker.CircuitBreaker
	codeTTL  time.Duration
	location *time.Location
}

// NewSMTPService sends mail through the configured relay. Repeated relay
// failures open the breaker and further sends fail fast.
func NewSMTPService(cfg config.SMTPConfig, codeTTL time.Duration, loc *time.Location) Service {
	return &smtpSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		breaker: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "smtp",
			MaxRequests: 5,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
		}),
		codeTTL:  codeTTL,
		location: loc,
	}
}

func (s *smtpSender) SendPasswordReset(ctx context.Context, to string, code string) error {
	return s.send(ctx, passwordResetMessage(to, code, s.codeTTL))
}

func (s *smtpSender) SendAppointmentUpdate(ctx context.Context, to string, update AppointmentUpdate) error {
	return s.send(ctx, appointmentUpdateMessage(to, update, s.location))
}

func (s *smtpSender) send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	err := s.breaker.Execute(func() error {
		return s.dialer.DialAndSend(m)
	})
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", msg.To, err)
	}
	return nil
}
