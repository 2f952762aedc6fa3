package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/medbook-api/pkg/logger"
	"github.com/jwalitptl/medbook-api/pkg/messaging"
	"github.com/jwalitptl/medbook-api/pkg/metrics"
)

// HandlerFunc processes one raw message from a channel.
type HandlerFunc func(ctx context.Context, payload []byte) error

// ErrPermanent marks a failure that retrying cannot fix.
var ErrPermanent = errors.New("permanent failure")

type ConsumerConfig struct {
	Channel       string
	RetryAttempts int
	RetryDelay    time.Duration
}

// Consumer drains a broker channel and hands every message to a handler,
// retrying transient failures.
type Consumer struct {
	broker  messaging.Broker
	handler HandlerFunc
	config  ConsumerConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewConsumer(
	broker messaging.Broker,
	handler HandlerFunc,
	config ConsumerConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Consumer {
	if config.Channel == "" {
		panic("Channel must be set")
	}
	if config.RetryAttempts <= 0 {
		config.RetryAttempts = 1
	}

	return &Consumer{
		broker:  broker,
		handler: handler,
		config:  config,
		logger:  logger.WithFields(map[string]interface{}{"channel": config.Channel}),
		metrics: metrics,
	}
}

// Start blocks until ctx is cancelled or the subscription ends.
func (c *Consumer) Start(ctx context.Context) error {
	messages, err := c.broker.Subscribe(ctx, c.config.Channel)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	c.logger.Info("Starting event consumer")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Shutting down event consumer")
			return nil
		case payload, ok := <-messages:
			if !ok {
				c.logger.Warn("Subscription closed")
				return nil
			}
			c.process(ctx, payload)
		}
	}
}

func (c *Consumer) process(ctx context.Context, payload []byte) {
	timer := prometheus.NewTimer(c.metrics.EventProcessingLatency)
	defer timer.ObserveDuration()

	attempt := 0
	err := retry(ctx, c.config.RetryAttempts, c.config.RetryDelay, func() error {
		if attempt > 0 {
			c.metrics.EventRetries.WithLabelValues(c.config.Channel).Inc()
		}
		attempt++
		return c.handler(ctx, payload)
	})
	if err != nil {
		c.metrics.EventsFailed.Inc()
		c.logger.Error(err, "Failed to process event", "attempts", attempt)
		return
	}
	c.metrics.EventsProcessed.Inc()
}

// Helper retry function
func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil || errors.Is(err, ErrPermanent) {
			return err
		}
		if i < attempts-1 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return err
			}
		}
	}
	return err
}
