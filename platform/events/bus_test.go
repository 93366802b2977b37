package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type testEvent struct {
	BaseEvent
}

func (testEvent) EventName() string { return "test.event" }

func TestPublishSyncRunsHandlersInOrder(t *testing.T) {
	bus := NewInMemoryBus(nil)
	var order []int
	bus.Subscribe("test.event", HandlerFunc(func(ctx context.Context, e Event) error {
		order = append(order, 1)
		return nil
	}))
	bus.Subscribe("test.event", HandlerFunc(func(ctx context.Context, e Event) error {
		order = append(order, 2)
		return errors.New("boom")
	}))

	err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent()})
	if err == nil {
		t.Fatal("expected joined handler error")
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("expected handlers in order [1 2], got %v", order)
	}
}

func TestPublishAsyncRecoversPanics(t *testing.T) {
	bus := NewInMemoryBus(nil)
	var calls atomic.Int32
	bus.Subscribe("test.event", HandlerFunc(func(ctx context.Context, e Event) error {
		calls.Add(1)
		panic("handler exploded")
	}))
	bus.Subscribe("test.event", HandlerFunc(func(ctx context.Context, e Event) error {
		calls.Add(1)
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	bus.Publish(ctx, testEvent{BaseEvent: NewBaseEvent()})
	cancel()

	done := make(chan struct{})
	go func() {
		bus.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handlers did not finish")
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 handler calls, got %d", calls.Load())
	}
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	bus := NewInMemoryBus(nil)
	if err := bus.PublishSync(context.Background(), testEvent{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestNewBaseEventIsIdentified(t *testing.T) {
	a, b := NewBaseEvent(), NewBaseEvent()
	if a.ID == b.ID {
		t.Fatal("expected distinct event ids")
	}
	if eventID(testEvent{BaseEvent: a}) != a.ID.String() {
		t.Fatalf("expected event id %s", a.ID)
	}
	if a.OccurredAt().Location() != time.UTC {
		t.Fatal("expected UTC timestamp")
	}
}
