package events

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishSubscribe(t *testing.T) {
	db := setupTestDB(t)
	log := NewEventLog(db)
	bus := NewBus(log, nil)
	defer bus.Close()

	ch := bus.Subscribe(EventSeriesStatsUpdated, 10)

	e := NewSeriesStatsUpdated(42, nil, nil)
	err := bus.Publish(context.Background(), e)
	require.NoError(t, err)

	select {
	case received := <-ch:
		assert.Equal(t, EventSeriesStatsUpdated, received.EventType())
		assert.Equal(t, int64(42), received.EntityID())
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	// Publishing also persisted the event.
	persisted, err := log.Since(time.Time{})
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, EventSeriesStatsUpdated, persisted[0].EventType)
}

func TestBus_TypeFiltering(t *testing.T) {
	bus := NewBus(nil, nil)
	defer bus.Close()

	ch := bus.Subscribe(EventMembershipChanged, 10)

	err := bus.Publish(context.Background(), NewSeriesStatsUpdated(1, nil, nil))
	require.NoError(t, err)

	select {
	case e := <-ch:
		t.Fatalf("received unrelated event %s", e.EventType())
	default:
	}
}

func TestBus_SubscribeAll(t *testing.T) {
	bus := NewBus(nil, nil)
	defer bus.Close()

	ch := bus.SubscribeAll(10)

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, NewSeriesStatsUpdated(1, nil, nil)))
	require.NoError(t, bus.Publish(ctx, NewMembershipChanged(5, "series", 1)))

	received := make([]Event, 0, 2)
	timeout := time.After(time.Second)
	for i := 0; i < 2; i++ {
		select {
		case e := <-ch:
			received = append(received, e)
		case <-timeout:
			t.Fatalf("timeout waiting for event %d", i+1)
		}
	}
	assert.Len(t, received, 2)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(nil, nil)
	defer bus.Close()

	ch := bus.Subscribe(EventSeriesStatsUpdated, 10)
	bus.Unsubscribe(ch)

	require.NoError(t, bus.Publish(context.Background(), NewSeriesStatsUpdated(1, nil, nil)))

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should be closed")
	default:
	}
}

func TestBus_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := NewBus(nil, logger)
	defer bus.Close()

	ch := bus.Subscribe(EventSeriesStatsUpdated, 1)

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, NewSeriesStatsUpdated(1, nil, nil)))
	// Buffer is full now; this publish must not block.
	require.NoError(t, bus.Publish(ctx, NewSeriesStatsUpdated(2, nil, nil)))

	e := <-ch
	assert.Equal(t, int64(1), e.EntityID())
	select {
	case e := <-ch:
		t.Fatalf("second event should have been dropped, got entity %d", e.EntityID())
	default:
	}
}

func TestBus_PublishAfterClose(t *testing.T) {
	bus := NewBus(nil, nil)
	ch := bus.SubscribeAll(10)

	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close(), "close is idempotent")

	require.NoError(t, bus.Publish(context.Background(), NewSeriesStatsUpdated(1, nil, nil)))

	_, ok := <-ch
	assert.False(t, ok, "subscriber channel closed on bus close")
}

func TestBus_ConcurrentPublish(t *testing.T) {
	bus := NewBus(nil, nil)
	defer bus.Close()

	ch := bus.SubscribeAll(100)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = bus.Publish(context.Background(), NewSeriesStatsUpdated(int64(n), nil, nil))
		}(i)
	}
	wg.Wait()

	count := 0
	timeout := time.After(time.Second)
loop:
	for {
		select {
		case <-ch:
			count++
			if count == 10 {
				break loop
			}
		case <-timeout:
			break loop
		}
	}
	assert.Equal(t, 10, count)
}
