package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/medbook-api/internal/app"
	"github.com/jwalitptl/medbook-api/internal/config"
	"github.com/jwalitptl/medbook-api/internal/model"
	"github.com/jwalitptl/medbook-api/internal/repository"
	"github.com/jwalitptl/medbook-api/internal/service/notification"
	"github.com/jwalitptl/medbook-api/pkg/logger"
	"github.com/jwalitptl/medbook-api/pkg/metrics"
	"github.com/jwalitptl/medbook-api/pkg/worker"
)

func setupHealthCheck(port int, pinger repository.Pinger, gatherer prometheus.Gatherer, lg *logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pinger.PingContext(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.ZL.Error().Err(err).Msg("Health check server failed")
			os.Exit(1)
		}
	}()
	return srv
}

func main() {
	configDir := flag.String("config", "", "Directory containing config.yaml")
	flag.Parse()

	var paths []string
	if *configDir != "" {
		paths = append(paths, *configDir)
	}
	cfg, err := config.LoadConfig(paths...)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if cfg.Worker.Broker != "redis" {
		log.Fatal().Msg("worker.broker must be redis; with the memory broker the API consumes its own events")
	}

	lg := logger.Setup(&logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	infra, err := app.Open(ctx, cfg, lg.ZL)
	if err != nil {
		lg.ZL.Fatal().Err(err).Msg("Failed to open infrastructure")
	}
	defer infra.Close()

	broker := infra.Broker()
	defer broker.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m := metrics.NewMetrics(cfg.App.Name+"_worker", reg)

	notifier := notification.NewService(infra.Store.Users, infra.Store.Doctors, infra.Mailer(), m, lg.ZL)
	consumer := worker.NewConsumer(broker, notifier.Handle, worker.ConsumerConfig{
		Channel:       model.AppointmentEventsChannel,
		RetryAttempts: cfg.Worker.RetryAttempts,
		RetryDelay:    cfg.Worker.RetryDelay(),
	}, lg, m)

	health := setupHealthCheck(cfg.Worker.HealthPort, infra.Store.Pinger, reg, lg)

	if err := consumer.Start(ctx); err != nil {
		lg.ZL.Error().Err(err).Msg("Consumer stopped")
	}

	lg.ZL.Info().Msg("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = health.Shutdown(shutdownCtx)
}
