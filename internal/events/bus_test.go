package events_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/tartan/internal/events"
	"github.com/kode4food/tartan/pkg/api"
)

func TestPublishSubscribe(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	bus := events.NewBus(func() time.Time { return now })
	defer bus.Close()

	cons := bus.Subscribe()
	defer cons.Close()

	bus.Publish(&api.Event{
		Type:      api.EventTypeNodeStarted,
		ProjectID: "p1",
		NodeID:    "a",
	})

	select {
	case ev := <-cons.Receive():
		require.NotNil(t, ev)
		assert.Equal(t, api.EventTypeNodeStarted, ev.Type)
		assert.Equal(t, api.NodeID("a"), ev.NodeID)
		assert.Equal(t, now, ev.Timestamp)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestPublishIgnoresUntyped(t *testing.T) {
	bus := events.NewBus(nil)
	defer bus.Close()

	cons := bus.Subscribe()
	defer cons.Close()

	bus.Publish(nil)
	bus.Publish(&api.Event{ProjectID: "p1"})
	bus.Publish(&api.Event{Type: api.EventTypeFlowStarted})

	select {
	case ev := <-cons.Receive():
		assert.Equal(t, api.EventTypeFlowStarted, ev.Type)
		assert.False(t, ev.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestPublishAfterClose(t *testing.T) {
	bus := events.NewBus(nil)
	bus.Close()
	bus.Close()

	assert.NotPanics(t, func() {
		bus.Publish(&api.Event{Type: api.EventTypeFlowStarted})
	})
}

func TestBuildFilter(t *testing.T) {
	started := &api.Event{Type: api.EventTypeNodeStarted, ProjectID: "p1"}
	failed := &api.Event{Type: api.EventTypeArtifactFailed, ProjectID: "p2"}

	t.Run("empty", func(t *testing.T) {
		f := events.BuildFilter(&api.ClientSubscription{})
		assert.True(t, f(started))
		assert.True(t, f(failed))
	})

	t.Run("project", func(t *testing.T) {
		f := events.BuildFilter(&api.ClientSubscription{ProjectID: "p1"})
		assert.True(t, f(started))
		assert.False(t, f(failed))
	})

	t.Run("types", func(t *testing.T) {
		f := events.BuildFilter(&api.ClientSubscription{
			EventTypes: []api.EventType{api.EventTypeArtifactFailed},
		})
		assert.False(t, f(started))
		assert.True(t, f(failed))
	})

	t.Run("both", func(t *testing.T) {
		f := events.BuildFilter(&api.ClientSubscription{
			ProjectID:  "p2",
			EventTypes: []api.EventType{api.EventTypeNodeStarted},
		})
		assert.False(t, f(started))
		assert.False(t, f(failed))
	})
}
