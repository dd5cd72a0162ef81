package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-console/pkg/logger"
	"github.com/jwalitptl/clinic-console/pkg/messaging"
	"github.com/jwalitptl/clinic-console/pkg/metrics"
)

type flakyBroker struct {
	mu       sync.Mutex
	failures int
	calls    int
	sent     []messaging.Message
}

func (b *flakyBroker) Publish(_ context.Context, _ string, message interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.failures > 0 {
		b.failures--
		return errors.New("connection reset")
	}
	b.sent = append(b.sent, message.(messaging.Message))
	return nil
}

func (b *flakyBroker) Close() error { return nil }

func testConfig() OutboxConfig {
	return OutboxConfig{
		BufferSize:    2,
		BatchSize:     10,
		PollInterval:  10 * time.Millisecond,
		RetryAttempts: 3,
		RetryDelay:    time.Millisecond,
	}
}

func TestOutbox_FlushRetriesFailures(t *testing.T) {
	broker := &flakyBroker{failures: 2}
	m := metrics.New("test", nil)
	o := NewOutbox(broker, "clinic.events", testConfig(), logger.Nop(), m)

	o.Publish(context.Background(), messaging.EventPatientRegistered, map[string]int{"id": 1})
	require.Equal(t, 1, o.Pending())

	o.Flush(context.Background())

	assert.Zero(t, o.Pending())
	require.Len(t, broker.sent, 1)
	assert.Equal(t, 3, broker.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsPublished.WithLabelValues(messaging.EventPatientRegistered, "success")))
}

func TestOutbox_DropsWhenFull(t *testing.T) {
	m := metrics.New("test", nil)
	o := NewOutbox(&flakyBroker{}, "clinic.events", testConfig(), logger.Nop(), m)

	for i := 0; i < 3; i++ {
		o.Publish(context.Background(), messaging.EventAppointmentScheduled, i)
	}

	assert.Equal(t, 2, o.Pending())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsPublished.WithLabelValues(messaging.EventAppointmentScheduled, "dropped")))
}

func TestOutbox_StartDrainsOnShutdown(t *testing.T) {
	broker := &flakyBroker{}
	o := NewOutbox(broker, "clinic.events", testConfig(), logger.Nop(), nil)
	o.Publish(context.Background(), messaging.EventAppointmentCompleted, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		o.Start(ctx)
		close(done)
	}()
	cancel()
	<-done

	assert.Zero(t, o.Pending())
	broker.mu.Lock()
	defer broker.mu.Unlock()
	assert.Len(t, broker.sent, 1)
}

func TestNewOutbox_RejectsInvalidConfig(t *testing.T) {
	assert.Panics(t, func() {
		NewOutbox(&flakyBroker{}, "c", OutboxConfig{}, logger.Nop(), nil)
	})
}
