package nanny

import (
	"errors"
	"reflect"
	"testing"
)

func apply(t *testing.T, s State, tr Transformer, args ...any) State {
	t.Helper()
	candidate, err := tr.Apply(s, args...)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	next, _ := s.Merge(candidate)
	return next
}

func TestTransformerForms(t *testing.T) {
	base := Record(map[string]any{"n": 1})

	fn := Func(func(s State) (State, error) {
		v, _ := s.Get("n")
		return Record(map[string]any{"n": v.(int) + 1}), nil
	})
	if got, _ := apply(t, base, fn).Get("n"); got != 2 {
		t.Fatalf("Func: expected 2, got %v", got)
	}

	withArgs := FuncArgs(func(s State, args ...any) (State, error) {
		return Record(map[string]any{"n": args[0]}), nil
	})
	if got, _ := apply(t, base, withArgs, 9).Get("n"); got != 9 {
		t.Fatalf("FuncArgs: expected 9, got %v", got)
	}

	curried := Curried(func(s State) func(...any) (State, error) {
		return func(args ...any) (State, error) {
			return Record(map[string]any{"msg": args[0].(string) + args[1].(string)}), nil
		}
	})
	if got, _ := apply(t, base, curried, "a", "b").Get("msg"); got != "ab" {
		t.Fatalf("Curried: expected ab, got %v", got)
	}

	if got := apply(t, Scalar(1), Value(2)); !got.Equal(Scalar(2)) {
		t.Fatalf("Value: expected 2, got %s", got)
	}
	if got := apply(t, base, Value(map[string]any{"x": 1})); !reflect.DeepEqual(got.Keys(), []string{"n", "x"}) {
		t.Fatalf("Value record should merge, got %s", got)
	}

	var nilFunc Func
	if got, err := nilFunc.Apply(base); err != nil || !got.IsZero() {
		t.Fatalf("nil Func should be a no-op, got %s %v", got, err)
	}
}

func TestBatchAppliesInOrder(t *testing.T) {
	b := Batch{Set("n", 10), Increment("n"), nil, Toggle("on")}
	got := apply(t, Record(map[string]any{"n": 1}), b)
	if n, _ := got.Get("n"); n != 11 {
		t.Fatalf("expected 11, got %v", n)
	}
	if on, _ := got.Get("on"); on != true {
		t.Fatalf("expected toggle applied, got %v", on)
	}

	failing := Batch{Set("n", 1), Toggle("n")}
	if _, err := failing.Apply(Record(nil)); !errors.Is(err, ErrFieldType) {
		t.Fatalf("expected ErrFieldType from step, got %v", err)
	}
}

func TestNumericHelpers(t *testing.T) {
	s := Record(map[string]any{"i": 1, "i64": int64(5), "f": 1.5})
	s = apply(t, s, Increment("i"))
	s = apply(t, s, Decrement("i64", 2))
	s = apply(t, s, Increment("f", 0.25))
	s = apply(t, s, Increment("missing", 3))

	want := map[string]any{"i": 2, "i64": int64(3), "f": 1.75, "missing": 3}
	if !reflect.DeepEqual(s.Fields(), want) {
		t.Fatalf("expected %v, got %v", want, s.Fields())
	}

	frac := apply(t, Record(map[string]any{"count": 1, "big": int64(2)}), Batch{Increment("count", 0.5), Decrement("big", 0.5)})
	if want := map[string]any{"count": 1.5, "big": 1.5}; !reflect.DeepEqual(frac.Fields(), want) {
		t.Fatalf("expected fractional steps to promote to float64, got %v", frac.Fields())
	}

	if _, err := Increment("name").Apply(Record(map[string]any{"name": "x"})); !errors.Is(err, ErrFieldType) {
		t.Fatalf("expected ErrFieldType, got %v", err)
	}
	if _, err := Increment("n").Apply(Scalar(1)); !errors.Is(err, ErrFieldType) {
		t.Fatalf("expected ErrFieldType on scalar state, got %v", err)
	}
}

func TestToggle(t *testing.T) {
	s := apply(t, Record(nil), Toggle("open"))
	s = apply(t, s, Toggle("open"))
	if v, _ := s.Get("open"); v != false {
		t.Fatalf("expected false after two toggles, got %v", v)
	}
	if _, err := Toggle("n").Apply(Record(map[string]any{"n": 1})); !errors.Is(err, ErrFieldType) {
		t.Fatalf("expected ErrFieldType, got %v", err)
	}
}

func TestListHelpers(t *testing.T) {
	orig := []string{"a", "c"}
	s := Record(map[string]any{"items": orig})

	s = apply(t, s, Insert("items", 1, "b"))
	s = apply(t, s, Append("items", "d"))
	s = apply(t, s, Replace("items", 0, "A"))
	s = apply(t, s, Remove("items", 3))

	got, _ := s.Get("items")
	if !reflect.DeepEqual(got, []string{"A", "b", "c"}) {
		t.Fatalf("unexpected list %v", got)
	}
	if !reflect.DeepEqual(orig, []string{"a", "c"}) {
		t.Fatalf("original slice mutated: %v", orig)
	}

	empty := apply(t, Record(nil), Append("todo", "x"))
	if v, _ := empty.Get("todo"); !reflect.DeepEqual(v, []any{"x"}) {
		t.Fatalf("expected new []any list, got %#v", v)
	}

	cases := map[string]Transformer{
		"insert past end":  Insert("items", 9, "x"),
		"replace negative": Replace("items", -1, "x"),
		"remove past end":  Remove("items", 3),
	}
	for name, tr := range cases {
		if _, err := tr.Apply(s); !errors.Is(err, ErrIndexOutOfRange) {
			t.Fatalf("%s: expected ErrIndexOutOfRange, got %v", name, err)
		}
	}
	if _, err := Append("items", 1).Apply(s); !errors.Is(err, ErrFieldType) {
		t.Fatalf("expected ErrFieldType for wrong element type, got %v", err)
	}
	if _, err := Append("n", 1).Apply(Record(map[string]any{"n": 1})); !errors.Is(err, ErrFieldType) {
		t.Fatalf("expected ErrFieldType for non-list field, got %v", err)
	}
}
