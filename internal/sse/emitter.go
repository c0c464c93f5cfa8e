// Package sse streams domain events to browsers as server-sent events.
package sse

import (
	"context"
	"strings"
	"sync"

	"ms-bookings/internal/events"
)

// Emitter fans published events out to subscribed clients. It implements
// events.Publisher so services can publish to it like any other sink.
type Emitter struct {
	mu      sync.RWMutex
	clients map[string][]chan events.Event
	buffer  int
}

func NewEmitter() *Emitter {
	return &Emitter{
		clients: make(map[string][]chan events.Event),
		buffer:  16,
	}
}

// Subscribe registers a client for events whose kind ("ticket", "flight",
// "user") equals kind, or for every event when kind is empty. The channel
// is closed once ctx is done.
func (e *Emitter) Subscribe(ctx context.Context, kind string) <-chan events.Event {
	ch := make(chan events.Event, e.buffer)

	e.mu.Lock()
	e.clients[kind] = append(e.clients[kind], ch)
	e.mu.Unlock()

	go func() {
		<-ctx.Done()
		e.remove(kind, ch)
	}()
	return ch
}

// Publish never blocks: a client whose buffer is full misses the event.
func (e *Emitter) Publish(_ context.Context, event events.Event) error {
	kind, _, _ := strings.Cut(event.Type, ".")

	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, key := range []string{"", kind} {
		for _, ch := range e.clients[key] {
			select {
			case ch <- event:
			default:
			}
		}
	}
	return nil
}

func (e *Emitter) remove(kind string, ch chan events.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	clients := e.clients[kind]
	for i, c := range clients {
		if c == ch {
			e.clients[kind] = append(clients[:i], clients[i+1:]...)
			close(ch)
			break
		}
	}
	if len(e.clients[kind]) == 0 {
		delete(e.clients, kind)
	}
}

// ClientCount returns the number of clients subscribed to kind.
func (e *Emitter) ClientCount(kind string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.clients[kind])
}
