package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type change struct {
	Namespace string
	File      string
}

func receive[T any](t *testing.T, ch <-chan Event[T]) Event[T] {
	t.Helper()
	select {
	case event, ok := <-ch:
		require.True(t, ok, "channel closed")
		return event
	case <-time.After(100 * time.Millisecond):
		require.Fail(t, "timeout waiting for event")
	}
	return Event[T]{}
}

func TestBroker_Subscribe(t *testing.T) {
	broker := NewBroker[change]()
	defer broker.Close()

	stamp := time.Unix(1700000000, 0)
	broker.now = func() time.Time { return stamp }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := broker.Subscribe(ctx)
	broker.Publish(UpdatedEvent, change{Namespace: "Acme", File: "css/admin.css"})

	event := receive(t, ch)
	require.Equal(t, UpdatedEvent, event.Type)
	require.Equal(t, "css/admin.css", event.Payload.File)
	require.Equal(t, stamp, event.Timestamp)
}

func TestBroker_MultipleSubscribers(t *testing.T) {
	broker := NewBroker[int]()
	defer broker.Close()

	ctx := context.Background()
	subs := []<-chan Event[int]{broker.Subscribe(ctx), broker.Subscribe(ctx), broker.Subscribe(ctx)}
	require.Equal(t, 3, broker.SubscriberCount())

	broker.Publish(CreatedEvent, 42)

	for _, ch := range subs {
		event := receive(t, ch)
		require.Equal(t, 42, event.Payload)
		require.Equal(t, CreatedEvent, event.Type)
	}
}

func TestBroker_ContextCancellation(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := broker.Subscribe(ctx)
	require.Equal(t, 1, broker.SubscriberCount())

	cancel()
	require.Eventually(t, func() bool { return broker.SubscriberCount() == 0 },
		time.Second, 5*time.Millisecond)

	_, ok := <-ch
	require.False(t, ok, "channel should be closed")
}

func TestBroker_FullSubscriberDropsAndCounts(t *testing.T) {
	broker := NewBrokerWithBuffer[int](1)
	defer broker.Close()

	ch := broker.Subscribe(context.Background())

	done := make(chan struct{})
	go func() {
		broker.Publish(UpdatedEvent, 1)
		broker.Publish(UpdatedEvent, 2)
		broker.Publish(UpdatedEvent, 3)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		require.Fail(t, "Publish blocked")
	}

	require.Equal(t, 1, receive(t, ch).Payload)
	require.Equal(t, uint64(2), broker.Dropped())
}

func TestBroker_Close(t *testing.T) {
	broker := NewBroker[string]()
	ctx := context.Background()

	ch1 := broker.Subscribe(ctx)
	ch2 := broker.Subscribe(ctx)
	require.Equal(t, 2, broker.SubscriberCount())

	broker.Close()
	broker.Close()

	_, ok1 := <-ch1
	_, ok2 := <-ch2
	require.False(t, ok1)
	require.False(t, ok2)
	require.Equal(t, 0, broker.SubscriberCount())

	ch3 := broker.Subscribe(ctx)
	_, ok3 := <-ch3
	require.False(t, ok3, "subscribing after close yields a closed channel")

	broker.Publish(UpdatedEvent, "ignored")
}

func TestBroker_CancelAfterClose(t *testing.T) {
	broker := NewBroker[string]()
	ctx, cancel := context.WithCancel(context.Background())
	ch := broker.Subscribe(ctx)

	broker.Close()
	cancel()

	_, ok := <-ch
	require.False(t, ok)
	time.Sleep(10 * time.Millisecond) // cleanup goroutine must not double close
}

func TestNewBrokerWithBuffer_MinimumOne(t *testing.T) {
	broker := NewBrokerWithBuffer[int](0)
	defer broker.Close()

	ch := broker.Subscribe(context.Background())
	broker.Publish(UpdatedEvent, 7)
	require.Equal(t, 7, receive(t, ch).Payload)
}
