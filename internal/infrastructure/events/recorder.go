package events

import (
	"context"
	"sync"
)

type Recorded struct {
	RoutingKey string
	Payload    any
}

// Recorder keeps published events in memory. The operator REPL and tests use
// it to inspect what would have been sent to the broker.
type Recorder struct {
	mu     sync.Mutex
	events []Recorded
}

func (r *Recorder) Publish(_ context.Context, routingKey string, payload any) error {
	r.mu.Lock()
	r.events = append(r.events, Recorded{RoutingKey: routingKey, Payload: payload})
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Events() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Recorded, len(r.events))
	copy(out, r.events)
	return out
}

var _ Publisher = (*Recorder)(nil)
