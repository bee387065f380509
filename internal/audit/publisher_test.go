package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	err := pub.Emit(context.Background(), Event{
		DeviceKey: "device-1",
		Action:    EventConsentGranted,
	})
	require.NoError(t, err)

	events, err := pub.List(context.Background(), "device-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventConsentGranted, events[0].Action)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	for i := 0; i < 10; i++ {
		err := pub.Emit(context.Background(), Event{
			DeviceKey: "device-1",
			Action:    EventClockCommitted,
		})
		require.NoError(t, err)
	}

	// Close should drain all buffered events.
	pub.Close()

	events, err := store.ListByDevice(context.Background(), "device-1")
	require.NoError(t, err)
	assert.Len(t, events, 10, "all events should be drained on close")
}

func TestPublisher_CloseIdempotent(t *testing.T) {
	pub := NewPublisher(NewInMemoryStore(), WithAsyncBuffer(1))
	pub.Close()
	pub.Close()
}

func TestPublisher_ClockOverride(t *testing.T) {
	store := NewInMemoryStore()
	fixed := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	pub := NewPublisher(store, WithClock(func() time.Time { return fixed }))
	defer pub.Close()

	require.NoError(t, pub.Emit(context.Background(), Event{DeviceKey: "d", Action: EventSessionOpened}))

	events, err := store.ListByDevice(context.Background(), "d")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, fixed, events[0].Timestamp)
}
