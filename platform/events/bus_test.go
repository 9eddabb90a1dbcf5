package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"leadline_backend/platform/logger"
)

type testEvent struct {
	BaseEvent
	name string
}

func (e testEvent) EventName() string { return e.name }

func TestPublishSyncDeliversToAllHandlers(t *testing.T) {
	bus := NewInMemoryBus(logger.New("test"))

	var first, second bool
	bus.Subscribe("thing.happened", HandlerFunc(func(context.Context, Event) error {
		first = true
		return nil
	}))
	bus.Subscribe("thing.happened", HandlerFunc(func(context.Context, Event) error {
		second = true
		return nil
	}))

	err := bus.PublishSync(context.Background(), testEvent{NewBaseEvent(), "thing.happened"})
	if err != nil {
		t.Fatalf("PublishSync: %v", err)
	}
	if !first || !second {
		t.Fatalf("handlers called = %v/%v, want both", first, second)
	}
}

func TestPublishSyncCollectsErrors(t *testing.T) {
	bus := NewInMemoryBus(logger.New("test"))

	wantErr := errors.New("handler broke")
	var secondCalled bool
	bus.Subscribe("thing.happened", HandlerFunc(func(context.Context, Event) error {
		return wantErr
	}))
	bus.Subscribe("thing.happened", HandlerFunc(func(context.Context, Event) error {
		secondCalled = true
		return nil
	}))

	err := bus.PublishSync(context.Background(), testEvent{NewBaseEvent(), "thing.happened"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("PublishSync = %v, want wrapped %v", err, wantErr)
	}
	if !secondCalled {
		t.Fatal("one handler failing must not skip the others")
	}
}

func TestPublishIsAsynchronous(t *testing.T) {
	bus := NewInMemoryBus(logger.New("test"))

	done := make(chan struct{})
	bus.Subscribe("thing.happened", HandlerFunc(func(context.Context, Event) error {
		close(done)
		return nil
	}))

	bus.Publish(context.Background(), testEvent{NewBaseEvent(), "thing.happened"})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("async handler never ran")
	}
}

func TestPublishRecoverFromHandlerPanic(t *testing.T) {
	bus := NewInMemoryBus(logger.New("test"))

	done := make(chan struct{})
	bus.Subscribe("thing.happened", HandlerFunc(func(context.Context, Event) error {
		panic("boom")
	}))
	bus.Subscribe("thing.happened", HandlerFunc(func(context.Context, Event) error {
		close(done)
		return nil
	}))

	bus.Publish(context.Background(), testEvent{NewBaseEvent(), "thing.happened"})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("panic in one handler starved the others")
	}
}

func TestPublishWithNoSubscribersIsSilent(t *testing.T) {
	bus := NewInMemoryBus(logger.New("test"))
	bus.Publish(context.Background(), testEvent{NewBaseEvent(), "nobody.cares"})
	if err := bus.PublishSync(context.Background(), testEvent{NewBaseEvent(), "nobody.cares"}); err != nil {
		t.Fatalf("PublishSync with no subscribers: %v", err)
	}
}
