package activity

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestNormalizeTrimsAndCopies(t *testing.T) {
	meta := map[string]any{"k": "v"}
	evt := Event{
		Verb:       " state.updated ",
		ActorID:    " actor ",
		ObjectType: " nanny.instance ",
		ObjectID:   " 42 ",
		Channel:    " nanny ",
		Metadata:   meta,
	}

	got := evt.Normalize()
	if got.Verb != "state.updated" || got.ObjectType != "nanny.instance" || got.ObjectID != "42" {
		t.Fatalf("unexpected normalized fields: %+v", got)
	}
	if got.ActorID != "actor" || got.Channel != "nanny" || got.OccurredAt.IsZero() {
		t.Fatalf("unexpected defaults: %+v", got)
	}
	got.Metadata["k"] = "changed"
	if meta["k"] != "v" || evt.Verb != " state.updated " {
		t.Fatalf("expected the original left untouched")
	}
}

func TestHooksNotifyDropsInvalidEvents(t *testing.T) {
	rec := &Recorder{}
	if err := (Hooks{rec}).Notify(context.Background(), Event{Verb: "x"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(rec.Events()) != 0 {
		t.Fatalf("expected nothing recorded, got %v", rec.Verbs())
	}
}

func TestHooksNotifyJoinsErrors(t *testing.T) {
	errA := errors.New("a")
	errB := errors.New("b")
	healthy := &Recorder{}
	hooks := Hooks{
		&Recorder{Err: errA},
		nil,
		healthy,
		HookFunc(func(context.Context, Event) error { return errB }),
	}
	err := hooks.Notify(nil, Event{Verb: "v", ObjectType: "t", ObjectID: "1"})
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Fatalf("expected joined errors, got %v", err)
	}
	if len(healthy.Events()) != 1 {
		t.Fatalf("expected healthy hook to still receive the event")
	}
}

func TestCompactDropsNil(t *testing.T) {
	rec := &Recorder{}
	hooks := Hooks{nil, rec, nil}
	compact := hooks.Compact()
	if len(compact) != 1 || compact[0] != rec {
		t.Fatalf("unexpected compact result %v", compact)
	}
	compact[0] = nil
	if hooks[1] != rec {
		t.Fatalf("expected Compact to copy")
	}
	if (Hooks{nil}).Compact() != nil {
		t.Fatalf("expected nil for all-nil hooks")
	}
}

func TestOnlyFiltersVerbs(t *testing.T) {
	rec := &Recorder{}
	hooks := Hooks{Only(rec, VerbRouteNotFound, VerbPersistFailed)}
	for _, verb := range []string{VerbStateUpdated, VerbRouteNotFound, VerbRouteResolved, VerbPersistFailed} {
		if err := hooks.Notify(context.Background(), Event{Verb: verb, ObjectType: "t", ObjectID: "1"}); err != nil {
			t.Fatalf("notify: %v", err)
		}
	}
	if got := rec.Verbs(); !reflect.DeepEqual(got, []string{VerbRouteNotFound, VerbPersistFailed}) {
		t.Fatalf("unexpected verbs %v", got)
	}
}

func TestEmitterAppliesDefaults(t *testing.T) {
	rec := &Recorder{}
	emitter := NewEmitter(Hooks{rec}, "", "system")
	if emitter.Len() != 1 {
		t.Fatalf("expected one hook")
	}

	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := emitter.Emit(context.Background(), Event{Verb: "v", ObjectType: "t", ObjectID: "1", OccurredAt: at}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	got := rec.Events()[0]
	if got.Channel != DefaultChannel || got.ActorID != "system" || !got.OccurredAt.Equal(at) {
		t.Fatalf("unexpected defaults: %+v", got)
	}
}

func TestEmitterWithoutHooks(t *testing.T) {
	for _, emitter := range []*Emitter{nil, NewEmitter(nil, "ui", ""), NewEmitter(Hooks{nil}, "", "")} {
		if emitter.Len() != 0 {
			t.Fatalf("expected no hooks")
		}
		if err := emitter.Emit(context.Background(), Event{Verb: "v", ObjectType: "t", ObjectID: "1"}); err != nil {
			t.Fatalf("emit: %v", err)
		}
	}
}
