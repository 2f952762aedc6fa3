package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/medbook-api/internal/config"
	"github.com/jwalitptl/medbook-api/internal/email"
	"github.com/jwalitptl/medbook-api/internal/repository"
	"github.com/jwalitptl/medbook-api/internal/repository/memory"
	"github.com/jwalitptl/medbook-api/internal/repository/postgres"
	"github.com/jwalitptl/medbook-api/internal/service/reset"
	"github.com/jwalitptl/medbook-api/pkg/lock"
	"github.com/jwalitptl/medbook-api/pkg/messaging"
	"github.com/jwalitptl/medbook-api/pkg/messaging/redis"
)

// Infra holds the connections selected by configuration. Close releases
// them in reverse order of opening.
type Infra struct {
	Config *config.Config
	Store  *repository.Store
	// DB is nil under memory storage.
	DB *sqlx.DB
	// Redis is nil unless a Redis-backed component is configured.
	Redis  *goredis.Client
	logger zerolog.Logger

	closers []func() error
}

// Open connects the storage and, when needed, Redis.
func Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Infra, error) {
	infra := &Infra{Config: cfg, logger: logger}

	switch cfg.App.Storage {
	case "memory":
		logger.Warn().Msg("using in-memory storage, data is lost on restart")
		infra.Store = memory.NewStore()
	default:
		db, err := postgres.NewDB(cfg.Database)
		if err != nil {
			return nil, err
		}
		infra.DB = db
		infra.Store = postgres.NewStore(db)
		infra.closers = append(infra.closers, db.Close)
	}

	if cfg.NeedsRedis() {
		client, err := redis.NewClient(ctx, redis.Config{
			URL:        cfg.Redis.URL,
			MaxRetries: cfg.Redis.MaxRetries,
			PoolSize:   cfg.Redis.PoolSize,
		})
		if err != nil {
			infra.Close()
			return nil, err
		}
		infra.Redis = client
		infra.closers = append(infra.closers, client.Close)
	}

	return infra, nil
}

// ResetStore returns where pending reset codes live.
func (i *Infra) ResetStore() reset.CodeStore {
	if i.Config.Reset.Store == "redis" {
		return reset.NewRedisStore(i.Redis)
	}
	return reset.NewMemoryStore()
}

// Locker returns the slot lock used under the reject booking policy.
func (i *Infra) Locker() lock.Locker {
	if i.Config.Booking.Lock == "redis" {
		return lock.NewRedisLocker(i.Redis, i.Config.Booking.LockTTL())
	}
	return lock.NewLocalLocker()
}

// Broker returns the lifecycle event broker. The caller closes it.
func (i *Infra) Broker() messaging.Broker {
	if i.Config.Worker.Broker == "redis" {
		logger := i.logger
		return redis.NewRedisBroker(i.Redis, &logger)
	}
	return messaging.NewMemoryBroker()
}

// Mailer sends through SMTP when a host is configured and logs otherwise.
func (i *Infra) Mailer() email.Service {
	cfg := i.Config
	if cfg.SMTP.Host == "" {
		i.logger.Warn().Msg("smtp.host is empty, mails are logged instead of sent")
		return email.NewLogService(i.logger, cfg.Reset.CodeTTL(), cfg.App.Location())
	}
	return email.NewSMTPService(cfg.SMTP, cfg.Reset.CodeTTL(), cfg.App.Location())
}

func (i *Infra) Close() error {
	var errs []error
	for n := len(i.closers) - 1; n >= 0; n-- {
		if err := i.closers[n](); err != nil {
			errs = append(errs, err)
		}
	}
	i.closers = nil
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to close infrastructure: %w", err)
	}
	return nil
}
