package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medbook-api/pkg/logger"
	"github.com/jwalitptl/medbook-api/pkg/messaging"
	"github.com/jwalitptl/medbook-api/pkg/metrics"
)

func quietLogger() *logger.Logger {
	return logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Format: "json", Output: &bytes.Buffer{}})
}

func TestRetryStopsOnSuccess(t *testing.T) {
	calls := 0
	err := retry(context.Background(), 5, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryGivesUpOnPermanent(t *testing.T) {
	calls := 0
	err := retry(context.Background(), 5, time.Millisecond, func() error {
		calls++
		return fmt.Errorf("bad payload: %w", ErrPermanent)
	})
	assert.ErrorIs(t, err, ErrPermanent)
	assert.Equal(t, 1, calls)
}

func TestConsumerProcessesMessages(t *testing.T) {
	broker := messaging.NewMemoryBroker()
	defer broker.Close()
	m := metrics.NewNoop()

	var handled int32
	var failures int32
	c := NewConsumer(broker, func(ctx context.Context, payload []byte) error {
		if string(payload) == `"flaky"` && atomic.AddInt32(&failures, 1) == 1 {
			return errors.New("try again")
		}
		atomic.AddInt32(&handled, 1)
		return nil
	}, ConsumerConfig{Channel: "appointments", RetryAttempts: 3, RetryDelay: time.Millisecond}, quietLogger(), m)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- c.Start(ctx) }()

	// wait for the subscription before publishing
	require.Eventually(t, func() bool {
		return broker.SubscriberCount("appointments") == 1
	}, time.Second, time.Millisecond)

	require.NoError(t, broker.Publish(ctx, "appointments", "ok"))
	require.NoError(t, broker.Publish(ctx, "appointments", "flaky"))

	require.Eventually(t, func() bool { return atomic.LoadInt32(&handled) == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.EventsProcessed))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EventRetries.WithLabelValues("appointments")))

	cancel()
	assert.NoError(t, <-done)
}
