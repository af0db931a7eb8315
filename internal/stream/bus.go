// Package stream fans out ingestion notices to live-view subscribers.
package stream

import (
	"context"
)

// Notice tells subscribers that a session received new samples
type Notice struct {
	SessionID string
	Kind      string // locations, magnetometer, weather, heart-rate
}

// Bus broadcasts notices to the subscribers of a session.
// A single goroutine owns the subscriber table, so no locks are needed.
type Bus struct {
	publish     chan Notice
	subscribe   chan subscription
	unsubscribe chan subscription
}

type subscription struct {
	sessionID string
	ch        chan Notice
}

// NewBus starts a bus. It runs for the lifetime of the process; subscribers
// are pruned when their contexts end.
func NewBus() *Bus {
	b := &Bus{
		publish:     make(chan Notice, 64),
		subscribe:   make(chan subscription),
		unsubscribe: make(chan subscription),
	}

	go b.run()
	return b
}

// Publish delivers n to every subscriber of its session. Delivery to a
// subscriber never blocks: its channel holds one pending notice and further
// notices coalesce into it until it is read.
func (b *Bus) Publish(n Notice) {
	b.publish <- n
}

// Subscribe registers interest in one session.
// The returned channel closes when ctx ends.
func (b *Bus) Subscribe(ctx context.Context, sessionID string) <-chan Notice {
	ch := make(chan Notice, 1)
	req := subscription{sessionID: sessionID, ch: ch}

	b.subscribe <- req

	go func() {
		<-ctx.Done()
		b.unsubscribe <- req
		close(ch)
	}()

	return ch
}

func (b *Bus) run() {
	listeners := make(map[string][]chan Notice)

	for {
		select {
		case req := <-b.subscribe:
			listeners[req.sessionID] = append(listeners[req.sessionID], req.ch)
		case req := <-b.unsubscribe:
			chans := listeners[req.sessionID]
			filtered := chans[:0]
			for _, existing := range chans {
				if existing != req.ch {
					filtered = append(filtered, existing)
				}
			}
			if len(filtered) == 0 {
				delete(listeners, req.sessionID)
			} else {
				listeners[req.sessionID] = filtered
			}
		case n := <-b.publish:
			for _, ch := range listeners[n.SessionID] {
				select {
				case ch <- n:
				default:
				}
			}
		}
	}
}
