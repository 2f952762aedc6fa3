package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Auth related metrics
	LoginAttempts     *prometheus.CounterVec
	ResetCodesIssued  prometheus.Counter
	ResetVerification *prometheus.CounterVec

	// Booking metrics
	AppointmentsCreated  prometheus.Counter
	AppointmentsRejected *prometheus.CounterVec
	AppointmentChanges   *prometheus.CounterVec

	// Event fan-out metrics
	EventsPublished        *prometheus.CounterVec
	EventsProcessed        prometheus.Counter
	EventsFailed           prometheus.Counter
	EventProcessingLatency prometheus.Histogram
	EventRetries           *prometheus.CounterVec
	NotificationsSent      *prometheus.CounterVec
}

// NewMetrics creates and registers all application metrics on reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LoginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Login attempts by role and outcome",
		}, []string{"role", "result"}),
		ResetCodesIssued: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reset_codes_issued_total",
			Help:      "Password reset codes issued",
		}),
		ResetVerification: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reset_verifications_total",
			Help:      "Password reset verifications by outcome",
		}, []string{"result"}),

		AppointmentsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointments_created_total",
			Help:      "Appointments created",
		}),
		AppointmentsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointments_rejected_total",
			Help:      "Appointment writes rejected by reason",
		}, []string{"reason"}),
		AppointmentChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointment_changes_total",
			Help:      "Appointment updates and deletes by kind",
		}, []string{"kind"}),

		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Lifecycle events published by type and status",
		}, []string{"event_type", "status"}),
		EventsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_processed_total",
			Help:      "Total number of successfully processed events",
		}),
		EventsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_failed_total",
			Help:      "Total number of events that failed after retries",
		}),
		EventProcessingLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "event_processing_duration_seconds",
			Help:      "Time spent processing one event",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		EventRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_retry_attempts_total",
			Help:      "Total number of retry attempts per channel",
		}, []string{"channel"}),
		NotificationsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Emails sent by kind and status",
		}, []string{"kind", "status"}),
	}
}

// NewNoop returns metrics registered on a private registry.
func NewNoop() *Metrics {
	return NewMetrics("noop", prometheus.NewRegistry())
}
