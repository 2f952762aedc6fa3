package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/medbook-api/internal/app"
	"github.com/jwalitptl/medbook-api/internal/config"
	"github.com/jwalitptl/medbook-api/internal/middleware"
	"github.com/jwalitptl/medbook-api/internal/model"
	"github.com/jwalitptl/medbook-api/internal/repository/postgres"
	"github.com/jwalitptl/medbook-api/internal/router"
	"github.com/jwalitptl/medbook-api/internal/service/notification"
	"github.com/jwalitptl/medbook-api/pkg/logger"
	"github.com/jwalitptl/medbook-api/pkg/metrics"
	"github.com/jwalitptl/medbook-api/pkg/worker"
)

const shutdownTimeout = 5 * time.Second

func serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply pending migrations before serving")
	return cmd
}

func runServer(migrate bool) error {
	cfg, err := config.LoadConfig(configPaths()...)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	lg := logger.Setup(&logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
	})
	if lg.ZL.GetLevel() > logger.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.RegisterValidators(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	infra, err := app.Open(ctx, cfg, lg.ZL)
	if err != nil {
		return err
	}
	defer infra.Close()

	if migrate && infra.DB != nil {
		count, err := postgres.NewMigrator(infra.DB).Up(ctx)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		log.Info().Int("applied", count).Msg("migrations applied")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(cfg.App.Name, reg)

	broker := infra.Broker()
	defer broker.Close()
	mailer := infra.Mailer()

	r := router.New(router.Deps{
		Config:     cfg,
		Store:      infra.Store,
		ResetStore: infra.ResetStore(),
		Mailer:     mailer,
		Locker:     infra.Locker(),
		Publisher:  broker,
		Metrics:    m,
		Registerer: reg,
		Gatherer:   reg,
		Logger:     lg.ZL,
	})

	// With the memory broker nobody else can see the events, so the
	// notification consumer runs in this process.
	if cfg.Worker.Broker == "memory" {
		notifier := notification.NewService(infra.Store.Users, infra.Store.Doctors, mailer, m, lg.ZL)
		consumer := worker.NewConsumer(broker, notifier.Handle, worker.ConsumerConfig{
			Channel:       model.AppointmentEventsChannel,
			RetryAttempts: cfg.Worker.RetryAttempts,
			RetryDelay:    cfg.Worker.RetryDelay(),
		}, lg, m)
		go func() {
			if err := consumer.Start(ctx); err != nil {
				log.Error().Err(err).Msg("notification consumer stopped")
			}
		}()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r.Engine(),
		ReadHeaderTimeout: cfg.Server.Timeout(),
		ReadTimeout:       cfg.Server.Timeout(),
		WriteTimeout:      cfg.Server.Timeout(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("storage", cfg.App.Storage).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server exited properly")
	return nil
}
