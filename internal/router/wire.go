package router

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/medbook-api/internal/config"
	"github.com/jwalitptl/medbook-api/internal/email"
	appointmenthandler "github.com/jwalitptl/medbook-api/internal/handler/appointment"
	authhandler "github.com/jwalitptl/medbook-api/internal/handler/auth"
	dashboardhandler "github.com/jwalitptl/medbook-api/internal/handler/dashboard"
	doctorhandler "github.com/jwalitptl/medbook-api/internal/handler/doctor"
	"github.com/jwalitptl/medbook-api/internal/handler/health"
	promhandler "github.com/jwalitptl/medbook-api/internal/handler/prometheus"
	specialtyhandler "github.com/jwalitptl/medbook-api/internal/handler/specialty"
	userhandler "github.com/jwalitptl/medbook-api/internal/handler/user"
	"github.com/jwalitptl/medbook-api/internal/middleware"
	"github.com/jwalitptl/medbook-api/internal/repository"
	"github.com/jwalitptl/medbook-api/internal/service/appointment"
	authservice "github.com/jwalitptl/medbook-api/internal/service/auth"
	"github.com/jwalitptl/medbook-api/internal/service/dashboard"
	"github.com/jwalitptl/medbook-api/internal/service/doctor"
	"github.com/jwalitptl/medbook-api/internal/service/rbac"
	"github.com/jwalitptl/medbook-api/internal/service/reset"
	"github.com/jwalitptl/medbook-api/internal/service/specialty"
	"github.com/jwalitptl/medbook-api/pkg/auth"
	"github.com/jwalitptl/medbook-api/pkg/lock"
	"github.com/jwalitptl/medbook-api/pkg/messaging"
	"github.com/jwalitptl/medbook-api/pkg/metrics"
	"github.com/jwalitptl/medbook-api/pkg/security"
)

// Deps is the infrastructure the API runs on. The caller owns the lifetime
// of every connection in it.
type Deps struct {
	Config     *config.Config
	Store      *repository.Store
	ResetStore reset.CodeStore
	Mailer     email.Service
	Locker     lock.Locker
	Publisher  messaging.Publisher
	Metrics    *metrics.Metrics
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
	Logger     zerolog.Logger
}

// New builds the services and handlers over deps and returns a router with
// every route registered.
func New(deps Deps) *Router {
	cfg := deps.Config
	loc := cfg.App.Location()

	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:        cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Issuer:        cfg.JWT.Issuer,
		AccessTTL:     cfg.JWT.AccessTTL(),
		RefreshTTL:    cfg.JWT.RefreshTTL(),
	})
	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost)
	store := deps.Store

	authSvc := authservice.NewService(store.Users, store.Doctors, jwtSvc, hasher, deps.Metrics, cfg.Auth.AllowAdminRegistration)
	resetSvc := reset.NewService(store.Users, deps.ResetStore, deps.Mailer, hasher, deps.Metrics, cfg.Reset.CodeTTL())
	specialtySvc := specialty.NewService(store.Specialties)
	doctorSvc := doctor.NewService(store.Doctors, store.Specialties, store.Users, hasher)
	appointmentSvc := appointment.NewService(store.Appointments, store.Doctors, store.Users,
		deps.Locker, deps.Publisher, deps.Metrics, deps.Logger, appointment.Config{
			DoubleBooking:      cfg.Booking.DoubleBooking,
			EnforceTransitions: cfg.Booking.EnforceTransitions,
		})
	dashboardSvc := dashboard.NewService(store, loc)
	rbacSvc := rbac.NewService(rbac.DefaultTable())

	handlers := Handlers{
		Health:      health.NewHandler(store.Pinger, deps.Gatherer),
		Metrics:     promhandler.New(cfg.App.Name, deps.Registerer),
		Auth:        authhandler.NewHandler(authSvc, resetSvc),
		User:        userhandler.NewHandler(authSvc),
		Specialty:   specialtyhandler.NewHandler(specialtySvc, doctorSvc),
		Doctor:      doctorhandler.NewHandler(doctorSvc),
		Appointment: appointmenthandler.NewHandler(appointmentSvc),
		Dashboard:   dashboardhandler.NewHandler(dashboardSvc),
	}

	r := NewRouter(middleware.NewAuthMiddleware(jwtSvc, rbacSvc), handlers, RouterConfig{
		RateLimit:    rate.Limit(cfg.RateLimit.RPS),
		RateBurst:    cfg.RateLimit.Burst,
		CORSConfig:   middleware.DefaultCORSConfig(cfg.Server.CORSOrigins...),
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	})
	r.Setup()
	return r
}
