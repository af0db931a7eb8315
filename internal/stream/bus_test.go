package stream

import (
	"context"
	"testing"
	"time"
)

func TestBusDeliversToSessionSubscribers(t *testing.T) {
	bus := NewBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := bus.Subscribe(ctx, "a")
	b := bus.Subscribe(ctx, "b")

	bus.Publish(Notice{SessionID: "a", Kind: "locations"})

	select {
	case n := <-a:
		if n.SessionID != "a" || n.Kind != "locations" {
			t.Fatalf("notice = %+v, want session a locations", n)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber of a received nothing")
	}

	select {
	case n := <-b:
		t.Fatalf("subscriber of b received %+v", n)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBusSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	bus := NewBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := bus.Subscribe(ctx, "s")

	done := make(chan struct{})
	go func() {
		for i := 0; i < 500; i++ {
			bus.Publish(Notice{SessionID: "s"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on an unread subscriber")
	}

	if len(ch) > 1 {
		t.Fatalf("pending notices = %d, want at most 1", len(ch))
	}

	// Keep publishing until a marker lands in the freed slot.
	deadline := time.After(time.Second)
	for {
		bus.Publish(Notice{SessionID: "s", Kind: "marker"})
		select {
		case n := <-ch:
			if n.Kind == "marker" {
				return
			}
		case <-deadline:
			t.Fatal("marker notice never arrived")
		}
	}
}

func TestBusClosesOnCancel(t *testing.T) {
	bus := NewBus()
	ctx, cancel := context.WithCancel(context.Background())

	ch := bus.Subscribe(ctx, "s")
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			// A notice cannot arrive here; nothing was published.
			t.Fatal("received a notice after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}

	// Publishing to a session with no subscribers must not block.
	done := make(chan struct{})
	go func() {
		bus.Publish(Notice{SessionID: "s"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked without subscribers")
	}
}
