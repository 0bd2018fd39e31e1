package nanny

import (
	"fmt"
	"math"
	"reflect"
)

// Set returns a transformer assigning value to field.
func Set(field string, value any) Transformer {
	return Partial{field: value}
}

// Increment adds by (default 1) to a numeric field. A missing field counts
// as zero. An integer field becomes a float64 when by is fractional.
func Increment(field string, by ...float64) Transformer {
	return step(field, amount(by))
}

// Decrement subtracts by (default 1) from a numeric field.
func Decrement(field string, by ...float64) Transformer {
	return step(field, -amount(by))
}

func amount(by []float64) float64 {
	if len(by) == 0 {
		return 1
	}
	return by[0]
}

func step(field string, delta float64) Transformer {
	return Func(func(s State) (State, error) {
		current, err := recordField(s, field)
		if err != nil {
			return State{}, err
		}
		whole := delta == math.Trunc(delta)
		var next any
		switch v := current.(type) {
		case nil:
			if whole {
				next = int(delta)
			} else {
				next = delta
			}
		case int:
			if whole {
				next = v + int(delta)
			} else {
				next = float64(v) + delta
			}
		case int64:
			if whole {
				next = v + int64(delta)
			} else {
				next = float64(v) + delta
			}
		case float64:
			next = v + delta
		default:
			return State{}, fmt.Errorf("%w: %q is %T, not a number", ErrFieldType, field, current)
		}
		return Record(map[string]any{field: next}), nil
	})
}

// Toggle negates a boolean field. A missing field becomes true.
func Toggle(field string) Transformer {
	return Func(func(s State) (State, error) {
		current, err := recordField(s, field)
		if err != nil {
			return State{}, err
		}
		switch v := current.(type) {
		case nil:
			return Record(map[string]any{field: true}), nil
		case bool:
			return Record(map[string]any{field: !v}), nil
		default:
			return State{}, fmt.Errorf("%w: %q is %T, not a bool", ErrFieldType, field, current)
		}
	})
}

// Append adds value to the end of a list field.
func Append(list string, value any) Transformer {
	return listEdit(list, func(items reflect.Value) (reflect.Value, error) {
		return insertAt(items, items.Len(), value)
	})
}

// Insert places value at index, shifting later items. Index may equal the
// list length.
func Insert(list string, index int, value any) Transformer {
	return listEdit(list, func(items reflect.Value) (reflect.Value, error) {
		if index < 0 || index > items.Len() {
			return reflect.Value{}, fmt.Errorf("%w: insert %d into %q of length %d", ErrIndexOutOfRange, index, list, items.Len())
		}
		return insertAt(items, index, value)
	})
}

// Replace swaps the item at index for value.
func Replace(list string, index int, value any) Transformer {
	return listEdit(list, func(items reflect.Value) (reflect.Value, error) {
		if index < 0 || index >= items.Len() {
			return reflect.Value{}, fmt.Errorf("%w: replace %d in %q of length %d", ErrIndexOutOfRange, index, list, items.Len())
		}
		elem, err := element(items.Type(), value)
		if err != nil {
			return reflect.Value{}, err
		}
		out := reflect.MakeSlice(items.Type(), items.Len(), items.Len())
		reflect.Copy(out, items)
		out.Index(index).Set(elem)
		return out, nil
	})
}

// Remove drops the item at index.
func Remove(list string, index int) Transformer {
	return listEdit(list, func(items reflect.Value) (reflect.Value, error) {
		if index < 0 || index >= items.Len() {
			return reflect.Value{}, fmt.Errorf("%w: remove %d from %q of length %d", ErrIndexOutOfRange, index, list, items.Len())
		}
		out := reflect.MakeSlice(items.Type(), 0, items.Len()-1)
		out = reflect.AppendSlice(out, items.Slice(0, index))
		out = reflect.AppendSlice(out, items.Slice(index+1, items.Len()))
		return out, nil
	})
}

func recordField(s State, field string) (any, error) {
	if !s.IsRecord() {
		return nil, fmt.Errorf("%w: state is a %s, not a record", ErrFieldType, s.Kind())
	}
	v, _ := s.Get(field)
	return v, nil
}

// listEdit never mutates the existing slice so earlier snapshots stay valid.
func listEdit(list string, edit func(reflect.Value) (reflect.Value, error)) Transformer {
	return Func(func(s State) (State, error) {
		current, err := recordField(s, list)
		if err != nil {
			return State{}, err
		}
		items := reflect.ValueOf(current)
		if current == nil {
			items = reflect.ValueOf([]any{})
		}
		if items.Kind() != reflect.Slice {
			return State{}, fmt.Errorf("%w: %q is %T, not a list", ErrFieldType, list, current)
		}
		out, err := edit(items)
		if err != nil {
			return State{}, err
		}
		return Record(map[string]any{list: out.Interface()}), nil
	})
}

func insertAt(items reflect.Value, index int, value any) (reflect.Value, error) {
	elem, err := element(items.Type(), value)
	if err != nil {
		return reflect.Value{}, err
	}
	out := reflect.MakeSlice(items.Type(), 0, items.Len()+1)
	out = reflect.AppendSlice(out, items.Slice(0, index))
	out = reflect.Append(out, elem)
	out = reflect.AppendSlice(out, items.Slice(index, items.Len()))
	return out, nil
}

func element(sliceType reflect.Type, value any) (reflect.Value, error) {
	elemType := sliceType.Elem()
	if value == nil {
		return reflect.Zero(elemType), nil
	}
	v := reflect.ValueOf(value)
	if !v.Type().AssignableTo(elemType) {
		return reflect.Value{}, fmt.Errorf("%w: cannot put %T into %s", ErrFieldType, value, sliceType)
	}
	return v, nil
}
