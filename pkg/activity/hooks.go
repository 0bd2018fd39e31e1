// Package activity reports what a nanny instance did (updates, restores,
// persistence failures, navigation) to observers such as audit sinks.
package activity

import (
	"context"
	"errors"
	"maps"
	"strings"
	"time"
)

// Event is one reported occurrence. IDs are strings so callers are not tied
// to a UUID type.
type Event struct {
	Verb       string
	ActorID    string
	UserID     string
	TenantID   string
	ObjectType string
	ObjectID   string
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// Valid reports whether the event carries the fields sinks key on.
func (e Event) Valid() bool {
	return e.Verb != "" && e.ObjectType != "" && e.ObjectID != ""
}

// Normalize returns a copy with trimmed identifiers, its own metadata map
// and a timestamp.
func (e Event) Normalize() Event {
	for _, field := range []*string{&e.Verb, &e.ActorID, &e.UserID, &e.TenantID, &e.ObjectType, &e.ObjectID, &e.Channel} {
		*field = strings.TrimSpace(*field)
	}
	if len(e.Metadata) == 0 {
		e.Metadata = nil
	} else {
		e.Metadata = maps.Clone(e.Metadata)
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}
	return e
}

// Hook receives normalized events.
type Hook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc adapts a function to Hook.
type HookFunc func(ctx context.Context, event Event) error

func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks fans an event out to several hooks.
type Hooks []Hook

// Compact drops nil hooks. It returns nil when nothing is left and never
// shares the backing array with h.
func (h Hooks) Compact() Hooks {
	var out Hooks
	for _, hook := range h {
		if hook != nil {
			out = append(out, hook)
		}
	}
	return out
}

// Notify normalizes event and hands it to every hook. Invalid events are
// dropped; hook errors are joined and do not stop the fan out.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 {
		return nil
	}
	event = event.Normalize()
	if !event.Valid() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	var errs []error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Only forwards events whose verb is one of verbs.
func Only(hook Hook, verbs ...string) Hook {
	allowed := make(map[string]struct{}, len(verbs))
	for _, v := range verbs {
		allowed[v] = struct{}{}
	}
	return HookFunc(func(ctx context.Context, event Event) error {
		if _, ok := allowed[event.Verb]; !ok || hook == nil {
			return nil
		}
		return hook.Notify(ctx, event)
	})
}
