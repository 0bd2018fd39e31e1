package activity

import (
	"context"
	"sync"
)

// Recorder keeps every event it is notified of. Err, when set, is returned
// from Notify after recording.
type Recorder struct {
	Err error

	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Notify(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event.Normalize())
	return r.Err
}

// Events returns a copy of the recorded events in arrival order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Verbs lists the recorded verbs in arrival order.
func (r *Recorder) Verbs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	verbs := make([]string, len(r.events))
	for i, e := range r.events {
		verbs[i] = e.Verb
	}
	return verbs
}
