package nanny

import "fmt"

// Transformer produces a candidate State from the current one. The candidate
// is merged into the current State by the rules of State.Merge; returning
// the zero State is a no-op.
type Transformer interface {
	Apply(current State, args ...any) (State, error)
}

// Func is a transformer that ignores update arguments.
type Func func(State) (State, error)

func (f Func) Apply(current State, _ ...any) (State, error) {
	if f == nil {
		return State{}, nil
	}
	return f(current)
}

// FuncArgs receives the state plus the arguments passed to Update.
type FuncArgs func(State, ...any) (State, error)

func (f FuncArgs) Apply(current State, args ...any) (State, error) {
	if f == nil {
		return State{}, nil
	}
	return f(current, args...)
}

// Curried returns a function that is then invoked with the arguments passed
// to Update.
type Curried func(State) func(...any) (State, error)

func (f Curried) Apply(current State, args ...any) (State, error) {
	if f == nil {
		return State{}, nil
	}
	next := f(current)
	if next == nil {
		return State{}, nil
	}
	return next(args...)
}

// Partial is a literal record candidate.
type Partial map[string]any

func (p Partial) Apply(State, ...any) (State, error) {
	if p == nil {
		return State{}, nil
	}
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = v
	}
	return Record(out), nil
}

type literal struct {
	value State
}

func (l literal) Apply(State, ...any) (State, error) {
	return l.value, nil
}

// Value is a literal candidate: a record for map[string]any, otherwise a
// scalar that replaces scalar state.
func Value(v any) Transformer {
	return literal{value: StateOf(v)}
}

// Batch applies transformers in order, each seeing the result of the
// previous merge.
type Batch []Transformer

// Apply folds the batch. Nanny.Update handles batches itself so mismatch
// diagnostics are reported per step; Apply serves callers composing
// transformers outside an update.
func (b Batch) Apply(current State, args ...any) (State, error) {
	state := current
	for i, t := range b {
		if t == nil {
			continue
		}
		candidate, err := t.Apply(state, args...)
		if err != nil {
			return State{}, fmt.Errorf("batch step %d: %w", i, err)
		}
		state, _ = state.Merge(candidate)
	}
	return state, nil
}

// Hook runs before or after a transformer. A non-zero result is merged into
// the state.
type Hook func(State) (State, error)
