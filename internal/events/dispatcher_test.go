package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversInSubscriptionOrder(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()
	var order []string
	dispatcher.Subscribe(EventTicketUpdated, func(context.Context, Event) error {
		order = append(order, "first")
		return assert.AnError // must not stop the second handler
	})
	dispatcher.Subscribe(EventTicketUpdated, func(context.Context, Event) error {
		order = append(order, "second")
		return nil
	})

	require.NoError(t, dispatcher.Publish(context.Background(), Event{Type: EventTicketUpdated}))
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestPublishStopsWhenContextCancelled(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	dispatcher.Subscribe(EventUnreadChanged, func(context.Context, Event) error {
		calls++
		cancel()
		return nil
	})
	dispatcher.Subscribe(EventUnreadChanged, func(context.Context, Event) error {
		calls++
		return nil
	})

	err := dispatcher.Publish(ctx, Event{Type: EventUnreadChanged})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestTypedPayloadAccessors(t *testing.T) {
	event := Event{
		Type:    EventMessageArrived,
		Payload: MessageArrivedPayload{NewIDs: []int64{7}, Total: 3},
	}

	payload, ok := event.MessageArrived()
	require.True(t, ok)
	assert.Equal(t, []int64{7}, payload.NewIDs)

	_, ok = event.TicketUpdated()
	assert.False(t, ok)
	_, ok = event.UnreadChanged()
	assert.False(t, ok)
}
