package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/medbook-api/internal/config"
	"github.com/jwalitptl/medbook-api/internal/model"
	"github.com/jwalitptl/medbook-api/internal/repository"
	apperrors "github.com/jwalitptl/medbook-api/pkg/errors"
	"github.com/jwalitptl/medbook-api/pkg/lock"
	"github.com/jwalitptl/medbook-api/pkg/messaging"
	"github.com/jwalitptl/medbook-api/pkg/metrics"
)

// Caller is the authenticated identity a request acts for.
type Caller struct {
	UserID uuid.UUID
	Role   model.Role
}

type Config struct {
	// DoubleBooking is config.DoubleBookingAllow or config.DoubleBookingReject.
	DoubleBooking      string
	EnforceTransitions bool
}

type Service struct {
	repo       repository.AppointmentRepository
	doctorRepo repository.DoctorRepository
	userRepo   repository.UserRepository
	locker     lock.Locker
	publisher  messaging.Publisher
	metrics    *metrics.Metrics
	logger     zerolog.Logger
	cfg        Config
	now        func() time.Time
}

// NewService wires the lifecycle. locker is only used under the reject
// policy and publisher may be nil.
func NewService(repo repository.AppointmentRepository, doctorRepo repository.DoctorRepository,
	userRepo repository.UserRepository, locker lock.Locker, publisher messaging.Publisher,
	m *metrics.Metrics, logger zerolog.Logger, cfg Config) *Service {
	if cfg.DoubleBooking == config.DoubleBookingReject && locker == nil {
		locker = lock.NewLocalLocker()
	}
	return &Service{
		repo:       repo,
		doctorRepo: doctorRepo,
		userRepo:   userRepo,
		locker:     locker,
		publisher:  publisher,
		metrics:    m,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Create books an appointment for the caller. Any client reference in the
// request is ignored.
func (s *Service) Create(ctx context.Context, caller Caller, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	if err := s.checkFuture(req.DateTime); err != nil {
		return nil, err
	}

	if _, err := s.doctorRepo.Get(ctx, req.DoctorID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("doctor", err)
		}
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}

	apt := &model.Appointment{
		ClientID: caller.UserID,
		DoctorID: req.DoctorID,
		DateTime: req.DateTime.UTC(),
		Status:   model.AppointmentStatusPending,
	}

	err := s.book(ctx, apt.DoctorID, apt.DateTime, nil, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, apt); err != nil {
			if errors.Is(err, repository.ErrReferenced) {
				return apperrors.NotFound("doctor", err)
			}
			return fmt.Errorf("failed to create appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.AppointmentsCreated.Inc()
	s.publish(ctx, model.NewAppointmentEvent(model.EventAppointmentCreated, apt, s.now().UTC()))
	return apt, nil
}

// CreateDetailed is Create returning the nested doctor and client records.
func (s *Service) CreateDetailed(ctx context.Context, caller Caller, req *model.CreateAppointmentRequest) (*model.AppointmentWithParties, error) {
	apt, err := s.Create(ctx, caller, req)
	if err != nil {
		return nil, err
	}

	doctor, err := s.doctorRepo.Get(ctx, apt.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	client, err := s.userRepo.Get(ctx, apt.ClientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}

	return &model.AppointmentWithParties{Appointment: *apt, Doctor: doctor, Client: client}, nil
}

// List returns what the caller may see: their own bookings, their doctor
// profile's bookings, or everything for an admin.
func (s *Service) List(ctx context.Context, caller Caller) ([]*model.AppointmentDetail, error) {
	filter, ok, err := s.scope(ctx, caller)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []*model.AppointmentDetail{}, nil
	}

	filter.OrderBy = model.OrderDateTimeAsc
	list, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return list, nil
}

// Get returns NotFound for appointments outside the caller's scope.
func (s *Service) Get(ctx context.Context, caller Caller, id uuid.UUID) (*model.AppointmentDetail, error) {
	apt, err := s.repo.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound(err)
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}

	filter, ok, err := s.scope(ctx, caller)
	if err != nil {
		return nil, err
	}
	if !ok || !inScope(&apt.Appointment, filter) {
		return nil, notFound(nil)
	}
	return apt, nil
}

// Reschedule moves the owner's appointment. Only date_time changes.
func (s *Service) Reschedule(ctx context.Context, caller Caller, id uuid.UUID, req *model.RescheduleAppointmentRequest) (*model.Appointment, error) {
	apt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if apt.ClientID != caller.UserID {
		return nil, notFound(nil)
	}
	if err := s.checkFuture(req.DateTime); err != nil {
		return nil, err
	}

	apt.DateTime = req.DateTime.UTC()
	err = s.book(ctx, apt.DoctorID, apt.DateTime, &apt.ID, func(ctx context.Context) error {
		return s.update(ctx, apt)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.AppointmentChanges.WithLabelValues("reschedule").Inc()
	s.publish(ctx, model.NewAppointmentEvent(model.EventAppointmentRescheduled, apt, s.now().UTC()))
	return apt, nil
}

// UpdateStatus changes only the status. The lifecycle table is consulted
// when transitions are enforced; otherwise any non-empty value is stored.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, req *model.UpdateAppointmentStatusRequest) (*model.Appointment, error) {
	status := model.AppointmentStatus(strings.TrimSpace(string(req.Status)))
	if status == "" {
		return nil, apperrors.FieldInvalid("status", "status is required")
	}

	apt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := apt.Status

	if s.cfg.EnforceTransitions {
		if !status.Known() {
			return nil, apperrors.FieldInvalid("status", fmt.Sprintf("unknown status %q", status))
		}
		if !previous.CanTransitionTo(status) {
			s.metrics.AppointmentsRejected.WithLabelValues("transition").Inc()
			return nil, apperrors.FieldInvalid("status", fmt.Sprintf("cannot change status from %s to %s", previous, status))
		}
	}

	apt.Status = status
	if err := s.update(ctx, apt); err != nil {
		return nil, err
	}

	s.metrics.AppointmentChanges.WithLabelValues("status").Inc()
	event := model.NewAppointmentEvent(model.EventAppointmentStatusChanged, apt, s.now().UTC())
	event.PreviousStatus = previous
	s.publish(ctx, event)
	return apt, nil
}

// Delete hard-deletes for the owning client or an admin.
func (s *Service) Delete(ctx context.Context, caller Caller, id uuid.UUID) error {
	apt, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if caller.Role != model.RoleAdmin && apt.ClientID != caller.UserID {
		return notFound(nil)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(err)
		}
		return fmt.Errorf("failed to delete appointment: %w", err)
	}

	s.metrics.AppointmentChanges.WithLabelValues("delete").Inc()
	s.publish(ctx, model.NewAppointmentEvent(model.EventAppointmentDeleted, apt, s.now().UTC()))
	return nil
}

func (s *Service) checkFuture(at time.Time) error {
	if !at.After(s.now()) {
		s.metrics.AppointmentsRejected.WithLabelValues("past_date").Inc()
		return apperrors.FieldInvalid("date_time", "appointment date must be in the future")
	}
	return nil
}

// book runs write directly under the allow policy. Under reject it holds the
// slot lock, and write only runs if no live booking occupies the slot.
func (s *Service) book(ctx context.Context, doctorID uuid.UUID, at time.Time, exclude *uuid.UUID, write func(ctx context.Context) error) error {
	if s.cfg.DoubleBooking != config.DoubleBookingReject {
		return write(ctx)
	}

	key := fmt.Sprintf("slot:%s:%d", doctorID, at.Unix())
	err := s.locker.WithSlotLock(ctx, key, func(ctx context.Context) error {
		taken, err := s.repo.ExistsAtSlot(ctx, doctorID, at, exclude)
		if err != nil {
			return fmt.Errorf("failed to check slot: %w", err)
		}
		if taken {
			return slotTaken(nil)
		}
		return write(ctx)
	})

	switch {
	case errors.Is(err, lock.ErrLockNotAcquired):
		s.metrics.AppointmentsRejected.WithLabelValues("slot_taken").Inc()
		return slotTaken(err)
	case apperrors.Is(err, apperrors.ErrConflict):
		s.metrics.AppointmentsRejected.WithLabelValues("slot_taken").Inc()
	}
	return err
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound(err)
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return apt, nil
}

func (s *Service) update(ctx context.Context, apt *model.Appointment) error {
	if err := s.repo.Update(ctx, apt); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(err)
		}
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	return nil
}

// scope returns the filter bounding the caller's reads. ok is false for a
// doctor identity without a linked profile, who sees nothing.
func (s *Service) scope(ctx context.Context, caller Caller) (model.AppointmentFilter, bool, error) {
	switch caller.Role {
	case model.RoleAdmin:
		return model.AppointmentFilter{}, true, nil
	case model.RoleClient:
		id := caller.UserID
		return model.AppointmentFilter{ClientID: &id}, true, nil
	case model.RoleDoctor:
		doctor, err := s.doctorRepo.GetByUserID(ctx, caller.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return model.AppointmentFilter{}, false, nil
			}
			return model.AppointmentFilter{}, false, fmt.Errorf("failed to resolve doctor profile: %w", err)
		}
		return model.AppointmentFilter{DoctorID: &doctor.ID}, true, nil
	}
	return model.AppointmentFilter{}, false, nil
}

func inScope(apt *model.Appointment, filter model.AppointmentFilter) bool {
	if filter.ClientID != nil && apt.ClientID != *filter.ClientID {
		return false
	}
	if filter.DoctorID != nil && apt.DoctorID != *filter.DoctorID {
		return false
	}
	return true
}

// publish never fails the request; a lost event only costs a notification.
func (s *Service) publish(ctx context.Context, event *model.AppointmentEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, model.AppointmentEventsChannel, event); err != nil {
		s.metrics.EventsPublished.WithLabelValues(string(event.Type), "failed").Inc()
		s.logger.Error().Err(err).
			Str("event_type", string(event.Type)).
			Str("appointment_id", event.AppointmentID.String()).
			Msg("failed to publish appointment event")
		return
	}
	s.metrics.EventsPublished.WithLabelValues(string(event.Type), "published").Inc()
}

func notFound(err error) *apperrors.AppError {
	return apperrors.NotFound("appointment", err)
}

func slotTaken(err error) *apperrors.AppError {
	return apperrors.Conflict("this time slot is already booked for the doctor", err)
}
