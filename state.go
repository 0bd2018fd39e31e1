package nanny

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	"github.com/goliatone/go-nanny/internal/hydrate"
	"github.com/goliatone/go-nanny/layering"
)

// Kind identifies which variant a State holds.
type Kind uint8

const (
	// KindNone is the zero State. Hooks and transformers return it to
	// request a no-op.
	KindNone Kind = iota
	// KindRecord is a keyed record merged field by field.
	KindRecord
	// KindScalar is an atomic value replaced wholesale.
	KindScalar
)

func (k Kind) String() string {
	switch k {
	case KindRecord:
		return "record"
	case KindScalar:
		return "scalar"
	default:
		return "none"
	}
}

// State is the application state: either a record of named fields or a
// single scalar value. The zero State holds no value.
type State struct {
	kind   Kind
	fields map[string]any
	value  any
}

// Record wraps fields as a record State. A nil map yields an empty record.
func Record(fields map[string]any) State {
	if fields == nil {
		fields = map[string]any{}
	}
	return State{kind: KindRecord, fields: fields}
}

// Scalar wraps value as a scalar State.
func Scalar(value any) State {
	return State{kind: KindScalar, value: value}
}

// StateOf picks the variant from value: nil is the zero State, a
// map[string]any is a record, a State is returned as is, anything else is
// a scalar.
func StateOf(value any) State {
	switch v := value.(type) {
	case nil:
		return State{}
	case State:
		return v
	case map[string]any:
		return Record(v)
	case Partial:
		return Record(map[string]any(v))
	default:
		return Scalar(v)
	}
}

func (s State) Kind() Kind { return s.kind }

// IsZero reports whether s holds no value.
func (s State) IsZero() bool { return s.kind == KindNone }

func (s State) IsRecord() bool { return s.kind == KindRecord }

func (s State) IsScalar() bool { return s.kind == KindScalar }

// Fields returns the record fields. Callers must not mutate the map; use
// Clone first.
func (s State) Fields() map[string]any {
	if s.kind != KindRecord {
		return nil
	}
	return s.fields
}

// Value returns the scalar value, or the record map for records.
func (s State) Value() any {
	switch s.kind {
	case KindRecord:
		return s.fields
	case KindScalar:
		return s.value
	default:
		return nil
	}
}

// Get returns a record field.
func (s State) Get(field string) (any, bool) {
	if s.kind != KindRecord {
		return nil, false
	}
	v, ok := s.fields[field]
	return v, ok
}

// Keys returns the record field names sorted.
func (s State) Keys() []string {
	if s.kind != KindRecord {
		return nil
	}
	keys := make([]string, 0, len(s.fields))
	for k := range s.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	switch s.kind {
	case KindRecord:
		return Record(layering.Clone(s.fields))
	case KindScalar:
		return Scalar(layering.Clone(s.value))
	default:
		return State{}
	}
}

// With returns a record with field set to value. The receiver is untouched.
func (s State) With(field string, value any) State {
	if s.kind != KindRecord {
		return s
	}
	out := make(map[string]any, len(s.fields)+1)
	for k, v := range s.fields {
		out[k] = v
	}
	out[field] = value
	return Record(out)
}

// Without returns a record minus the named fields. Scalars are returned as
// is.
func (s State) Without(fields ...string) State {
	if s.kind != KindRecord {
		return s
	}
	out := make(map[string]any, len(s.fields))
	for k, v := range s.fields {
		out[k] = v
	}
	for _, field := range fields {
		delete(out, field)
	}
	return Record(out)
}

// Equal reports deep equality.
func (s State) Equal(other State) bool {
	return s.kind == other.kind && reflect.DeepEqual(s.Value(), other.Value())
}

// MergeResult describes what a merge did.
type MergeResult struct {
	// Changed lists the candidate's record keys, or nil for scalar merges.
	Changed []string
	// Replaced is set when the current value was swapped wholesale.
	Replaced bool
	// Mismatch is set when a scalar candidate met a record, or a record
	// candidate replaced a scalar.
	Mismatch bool
}

// Merge applies candidate to s:
//
//	zero candidate         no-op
//	record + record        shallow union, candidate wins
//	record + scalar        record kept, Mismatch set
//	scalar/zero + any      candidate replaces (Mismatch set for a record
//	                       replacing a scalar)
//
// Neither input is mutated.
func (s State) Merge(candidate State) (State, MergeResult) {
	switch {
	case candidate.kind == KindNone:
		return s, MergeResult{}
	case s.kind == KindRecord && candidate.kind == KindRecord:
		out := make(map[string]any, len(s.fields)+len(candidate.fields))
		for k, v := range s.fields {
			out[k] = v
		}
		changed := make([]string, 0, len(candidate.fields))
		for k, v := range candidate.fields {
			out[k] = v
			changed = append(changed, k)
		}
		sort.Strings(changed)
		return Record(out), MergeResult{Changed: changed}
	case s.kind == KindRecord:
		return s, MergeResult{Mismatch: true}
	default:
		res := MergeResult{Replaced: true}
		if candidate.kind == KindRecord {
			res.Changed = candidate.Keys()
			res.Mismatch = s.kind == KindScalar
		}
		return candidate, res
	}
}

func (s State) String() string {
	raw, err := s.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("%s(%v)", s.kind, s.Value())
	}
	return string(raw)
}

// MarshalJSON encodes records as objects, scalars as their value and the
// zero State as null.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Value())
}

// UnmarshalJSON restores a State; objects become records and integral
// numbers decode as int.
func (s *State) UnmarshalJSON(data []byte) error {
	value, err := hydrate.NewDecoder[any](hydrate.WithIntegers[any]()).Decode(hydrate.Context{}, data)
	if err != nil {
		return err
	}
	*s = StateOf(value)
	return nil
}
