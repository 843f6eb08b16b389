package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus(t *testing.T) {
	t.Run("publish never blocks on a full subscriber", func(t *testing.T) {
		bus := NewEventBus()
		full := make(chan Event)
		ok := make(chan Event, 1)
		bus.Subscribe(full)
		bus.Subscribe(ok)

		bus.Publish(Event{Type: EventDesignCreated})

		assert.Len(t, ok, 1)
	})

	t.Run("unsubscribed channels stop receiving", func(t *testing.T) {
		bus := NewEventBus()
		ch := make(chan Event, 1)
		bus.Subscribe(ch)
		bus.Unsubscribe(ch)

		bus.Publish(Event{Type: EventDesignCreated})

		assert.Empty(t, ch)
	})
}

func TestServiceEventsAreScoped(t *testing.T) {
	svc, events := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.CreateDesign(ctx, ahbDesign("soc")))

	_, err := svc.Validate(ctx, "soc")
	require.NoError(t, err)

	created := <-events
	assert.Equal(t, EventDesignCreated, created.Type)
	assert.Equal(t, "soc", created.Scope())

	completed := <-events
	assert.Equal(t, EventERCCompleted, completed.Type)
	assert.Equal(t, "soc", completed.Scope())
	assert.Equal(t, "erc_completed", completed.EventName())
}
