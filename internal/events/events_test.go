package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/fleet-health/pkg/models"
)

func receiveEvent(t *testing.T, ch <-chan *models.Event) *models.Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestEventBus_SubscribeReceivesMatchingType(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch := bus.Subscribe(models.EventTypeStatusChanged)

	bus.Publish(&models.Event{Type: models.EventTypeStatusChanged, ServerID: "srv-1"})
	ev := receiveEvent(t, ch)
	assert.Equal(t, "srv-1", ev.ServerID)

	// Other event types never reach this subscriber.
	bus.Publish(&models.Event{Type: models.EventTypeAlertFired})
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event: %v", ev.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEventBus_SubscribeAll(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch := bus.SubscribeAll()

	bus.Publish(&models.Event{Type: models.EventTypeSampleReceived})
	bus.Publish(&models.Event{Type: models.EventTypeTrendCompleted})

	assert.Equal(t, models.EventTypeSampleReceived, receiveEvent(t, ch).Type)
	assert.Equal(t, models.EventTypeTrendCompleted, receiveEvent(t, ch).Type)
}

func TestEventBus_FullChannelDropsInsteadOfBlocking(t *testing.T) {
	bus := NewEventBus(1)
	defer bus.Close()

	ch := bus.Subscribe(models.EventTypeStatusChanged)

	bus.Publish(&models.Event{Type: models.EventTypeStatusChanged, ServerID: "first"})
	// The buffer is full; this publish must not block.
	bus.Publish(&models.Event{Type: models.EventTypeStatusChanged, ServerID: "second"})

	assert.Equal(t, "first", receiveEvent(t, ch).ServerID)
}

func TestEventBus_CloseStopsDelivery(t *testing.T) {
	bus := NewEventBus(10)

	ch := bus.SubscribeAll()
	bus.Close()

	// Closing twice is safe and the channel drains to closed.
	bus.Close()
	_, open := <-ch
	assert.False(t, open)

	require.NotPanics(t, func() {
		bus.Publish(&models.Event{Type: models.EventTypeStatusChanged})
	})
}
