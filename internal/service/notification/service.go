package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/medbook-api/internal/email"
	"github.com/jwalitptl/medbook-api/internal/model"
	"github.com/jwalitptl/medbook-api/internal/repository"
	"github.com/jwalitptl/medbook-api/pkg/metrics"
	"github.com/jwalitptl/medbook-api/pkg/worker"
)

// Service turns appointment lifecycle events into mails to the client.
type Service struct {
	userRepo   repository.UserRepository
	doctorRepo repository.DoctorRepository
	emailSvc   email.Service
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

func NewService(userRepo repository.UserRepository, doctorRepo repository.DoctorRepository,
	emailSvc email.Service, m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		userRepo:   userRepo,
		doctorRepo: doctorRepo,
		emailSvc:   emailSvc,
		metrics:    m,
		logger:     logger,
	}
}

// Handle is a worker.HandlerFunc. Malformed payloads are permanent failures;
// mail errors are returned so the consumer retries them.
func (s *Service) Handle(ctx context.Context, payload []byte) error {
	var event model.AppointmentEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("%w: decode appointment event: %v", worker.ErrPermanent, err)
	}

	switch event.Type {
	case model.EventAppointmentRescheduled, model.EventAppointmentStatusChanged:
		return s.notifyClient(ctx, &event)
	default:
		s.logger.Debug().Str("event_type", string(event.Type)).Msg("no notification for event")
		return nil
	}
}

func (s *Service) notifyClient(ctx context.Context, event *model.AppointmentEvent) error {
	kind := string(event.Type)

	client, err := s.userRepo.Get(ctx, event.ClientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.NotificationsSent.WithLabelValues(kind, "skipped").Inc()
			return nil
		}
		return fmt.Errorf("failed to get client: %w", err)
	}

	update := email.AppointmentUpdate{
		RecipientName: client.FullName(),
		DateTime:      event.DateTime,
		Status:        event.Status,
		Event:         event.Type,
	}

	doctor, err := s.doctorRepo.Get(ctx, event.DoctorID)
	switch {
	case err == nil:
		update.DoctorName = doctor.FullName()
	case !errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("failed to get doctor: %w", err)
	}

	if err := s.emailSvc.SendAppointmentUpdate(ctx, client.Email, update); err != nil {
		s.metrics.NotificationsSent.WithLabelValues(kind, "failed").Inc()
		return err
	}

	s.metrics.NotificationsSent.WithLabelValues(kind, "sent").Inc()
	s.logger.Info().
		Str("event_type", kind).
		Str("appointment_id", event.AppointmentID.String()).
		Msg("appointment notification sent")
	return nil
}
