package main

import (
	"context"
	"errors"
	"flag"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/medbook-api/internal/app"
	"github.com/jwalitptl/medbook-api/internal/config"
	"github.com/jwalitptl/medbook-api/internal/model"
	"github.com/jwalitptl/medbook-api/internal/repository"
	"github.com/jwalitptl/medbook-api/internal/repository/postgres"
	authservice "github.com/jwalitptl/medbook-api/internal/service/auth"
	"github.com/jwalitptl/medbook-api/internal/service/doctor"
	"github.com/jwalitptl/medbook-api/internal/service/specialty"
	"github.com/jwalitptl/medbook-api/pkg/logger"
	"github.com/jwalitptl/medbook-api/pkg/metrics"
	"github.com/jwalitptl/medbook-api/pkg/security"
)

// Every seeded identity shares this password.
const seedPassword = "changeme"

var specialties = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

type seeder struct {
	store        *repository.Store
	specialtySvc *specialty.Service
	doctorSvc    *doctor.Service
	authSvc      *authservice.Service
}

func main() {
	configDir := flag.String("config", "", "Directory containing config.yaml")
	doctors := flag.Int("doctors", 20, "Number of doctors to create")
	clients := flag.Int("clients", 200, "Number of clients to create")
	appointments := flag.Int("appointments", 1000, "Number of appointments to create")
	flag.Parse()

	var paths []string
	if *configDir != "" {
		paths = append(paths, *configDir)
	}
	cfg, err := config.LoadConfig(paths...)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if cfg.App.Storage != "postgres" {
		log.Fatal().Msg("seeding needs app.storage=postgres")
	}
	lg := logger.Setup(&logger.Config{Level: logger.ParseLevel(cfg.Log.Level), Format: cfg.Log.Format})

	ctx := context.Background()
	infra, err := app.Open(ctx, cfg, lg.ZL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer infra.Close()

	if _, err := postgres.NewMigrator(infra.DB).Up(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to apply migrations")
	}

	// Seeding thousands of identities at production cost takes minutes.
	hasher := security.NewBcryptHasher(4)
	store := infra.Store
	s := &seeder{
		store:        store,
		specialtySvc: specialty.NewService(store.Specialties),
		doctorSvc:    doctor.NewService(store.Doctors, store.Specialties, store.Users, hasher),
		authSvc:      authservice.NewService(store.Users, store.Doctors, nil, hasher, metrics.NewNoop(), true),
	}

	gofakeit.Seed(time.Now().UnixNano())

	specialtyIDs, err := s.seedSpecialties(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("seed specialties")
	}
	doctorIDs, err := s.seedDoctors(ctx, specialtyIDs, *doctors)
	if err != nil {
		log.Fatal().Err(err).Msg("seed doctors")
	}
	clientIDs, err := s.seedClients(ctx, *clients)
	if err != nil {
		log.Fatal().Err(err).Msg("seed clients")
	}
	if err := s.seedAppointments(ctx, doctorIDs, clientIDs, *appointments); err != nil {
		log.Fatal().Err(err).Msg("seed appointments")
	}

	log.Info().Msg("seed complete")
}

func (s *seeder) seedSpecialties(ctx context.Context) ([]model.Specialty, error) {
	out := make([]model.Specialty, 0, len(specialties))
	for _, name := range specialties {
		existing, err := s.store.Specialties.GetByName(ctx, name)
		if err == nil {
			out = append(out, *existing)
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}

		created, err := s.specialtySvc.Create(ctx, &model.SpecialtyRequest{
			Name:        name,
			Description: gofakeit.Sentence(12),
		})
		if err != nil {
			return nil, err
		}
		out = append(out, *created)
	}
	log.Info().Int("count", len(out)).Msg("specialties seeded")
	return out, nil
}

func (s *seeder) seedDoctors(ctx context.Context, specs []model.Specialty, count int) ([]model.DoctorView, error) {
	out := make([]model.DoctorView, 0, count)
	for i := 0; i < count; i++ {
		spec := specs[gofakeit.Number(0, len(specs)-1)]
		created, err := s.doctorSvc.Create(ctx, &model.CreateDoctorRequest{
			FirstName:       gofakeit.FirstName(),
			LastName:        gofakeit.LastName(),
			Email:           gofakeit.Email(),
			Phone:           gofakeit.Phone(),
			SpecialtyID:     spec.ID,
			ConsultationFee: float64(gofakeit.Number(20, 200)),
			Bio:             gofakeit.Paragraph(1, 3, 12, " "),
			Availability:    fakeAvailability(),
			Password:        seedPassword,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, *created)
	}
	log.Info().Int("count", len(out)).Msg("doctors seeded")
	return out, nil
}

func (s *seeder) seedClients(ctx context.Context, count int) ([]model.User, error) {
	out := make([]model.User, 0, count)
	for i := 0; i < count; i++ {
		created, err := s.authSvc.Register(ctx, &model.RegisterRequest{
			Role:      model.RoleClient,
			Email:     gofakeit.Email(),
			Password:  seedPassword,
			FirstName: gofakeit.FirstName(),
			LastName:  gofakeit.LastName(),
			Address:   gofakeit.Street(),
			Gender:    gofakeit.Gender(),
		})
		if err != nil {
			return nil, err
		}
		out = append(out, *created)
	}
	log.Info().Int("count", len(out)).Msg("clients seeded")
	return out, nil
}

// seedAppointments writes through the repository so that past bookings,
// which the booking service refuses, can back the dashboards.
func (s *seeder) seedAppointments(ctx context.Context, doctors []model.DoctorView, clients []model.User, count int) error {
	if len(doctors) == 0 || len(clients) == 0 {
		return nil
	}

	now := time.Now().UTC()
	for i := 0; i < count; i++ {
		at := now.Add(time.Duration(gofakeit.Number(-30*24, 30*24)) * time.Hour).Truncate(30 * time.Minute)
		status := model.AppointmentStatusPending
		if at.Before(now) {
			status = []model.AppointmentStatus{
				model.AppointmentStatusCompleted,
				model.AppointmentStatusCancelled,
			}[gofakeit.Number(0, 1)]
		} else if gofakeit.Bool() {
			status = model.AppointmentStatusConfirmed
		}

		err := s.store.Appointments.Create(ctx, &model.Appointment{
			ClientID: clients[gofakeit.Number(0, len(clients)-1)].ID,
			DoctorID: doctors[gofakeit.Number(0, len(doctors)-1)].ID,
			DateTime: at,
			Status:   status,
		})
		if err != nil {
			return err
		}
	}
	log.Info().Int("count", count).Msg("appointments seeded")
	return nil
}

func fakeAvailability() model.Availability {
	availability := model.Availability{}
	start := time.Now().UTC()
	for d := 1; d <= 5; d++ {
		day := start.AddDate(0, 0, d).Format(model.AvailabilityDateLayout)
		availability[day] = []string{"09:00", "10:00", "11:00", "14:00", "15:00"}
	}
	return availability
}
