// Package layering composes values of the same type by overlaying stronger
// layers on weaker ones, and deep-copies arbitrary values.
package layering

import "reflect"

// Overlay composes layers ordered from strongest to weakest. Zero or nil
// fields in a stronger layer fall through to the next weaker one; maps are
// merged key by key, slices are taken whole from the strongest non-nil layer.
func Overlay[T any](layers ...T) T {
	var zero T
	if len(layers) == 0 {
		return zero
	}

	merged := deepCopy(reflect.ValueOf(layers[len(layers)-1]))
	for i := len(layers) - 2; i >= 0; i-- {
		merged = overlay(reflect.ValueOf(layers[i]), merged)
	}
	return fromValue[T](merged)
}

// Clone returns a deep copy of value. Unexported struct fields are left at
// their zero value.
func Clone[T any](value T) T {
	return fromValue[T](deepCopy(reflect.ValueOf(value)))
}

func fromValue[T any](v reflect.Value) T {
	var zero T
	if !v.IsValid() {
		return zero
	}
	target := reflect.TypeOf((*T)(nil)).Elem()
	if v.Type() != target {
		out := reflect.New(target).Elem()
		if target.Kind() == reflect.Interface {
			out.Set(v)
		} else {
			out.Set(v.Convert(target))
		}
		return out.Interface().(T)
	}
	return v.Interface().(T)
}

func overlay(strong, weak reflect.Value) reflect.Value {
	if !strong.IsValid() {
		return deepCopy(weak)
	}

	switch strong.Kind() {
	case reflect.Pointer, reflect.Interface:
		if strong.IsNil() {
			return deepCopy(weak)
		}
		var weakElem reflect.Value
		if weak.IsValid() && weak.Kind() == strong.Kind() && !weak.IsNil() {
			weakElem = weak.Elem()
		}
		merged := overlay(strong.Elem(), weakElem)
		if strong.Kind() == reflect.Interface {
			return merged
		}
		out := reflect.New(strong.Type().Elem())
		out.Elem().Set(merged)
		return out
	case reflect.Struct:
		out := reflect.New(strong.Type()).Elem()
		sameType := weak.IsValid() && weak.Type() == strong.Type()
		for i := 0; i < strong.NumField(); i++ {
			field := out.Field(i)
			if !field.CanSet() {
				continue
			}
			strongField := strong.Field(i)
			var weakField reflect.Value
			if sameType {
				weakField = weak.Field(i)
			}
			if isEmptyScalar(strongField) && weakField.IsValid() {
				field.Set(deepCopy(weakField))
				continue
			}
			field.Set(overlay(strongField, weakField))
		}
		return out
	case reflect.Map:
		if strong.IsNil() {
			return deepCopy(weak)
		}
		out := reflect.MakeMapWithSize(strong.Type(), strong.Len())
		if weak.IsValid() && weak.Kind() == reflect.Map && !weak.IsNil() {
			for iter := weak.MapRange(); iter.Next(); {
				out.SetMapIndex(iter.Key(), deepCopy(iter.Value()))
			}
		}
		for iter := strong.MapRange(); iter.Next(); {
			if existing := out.MapIndex(iter.Key()); existing.IsValid() {
				out.SetMapIndex(iter.Key(), overlay(iter.Value(), existing))
				continue
			}
			out.SetMapIndex(iter.Key(), deepCopy(iter.Value()))
		}
		return out
	case reflect.Slice:
		if strong.IsNil() {
			return deepCopy(weak)
		}
		return deepCopy(strong)
	default:
		return deepCopy(strong)
	}
}

// isEmptyScalar reports zero strings, numbers and bools, which a weaker
// layer may fill in. Composite kinds are handled by overlay itself.
func isEmptyScalar(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return v.IsZero()
	default:
		return false
	}
}

func deepCopy(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		out := reflect.New(v.Type().Elem())
		out.Elem().Set(deepCopy(v.Elem()))
		return out
	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		elem := deepCopy(v.Elem())
		out := reflect.New(v.Type()).Elem()
		out.Set(elem)
		return out
	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			if field := out.Field(i); field.CanSet() {
				field.Set(deepCopy(v.Field(i)))
			}
		}
		return out
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		for iter := v.MapRange(); iter.Next(); {
			value := deepCopy(iter.Value())
			if !value.IsValid() {
				value = reflect.Zero(v.Type().Elem())
			}
			out.SetMapIndex(iter.Key(), value)
		}
		return out
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(deepCopy(v.Index(i)))
		}
		return out
	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(deepCopy(v.Index(i)))
		}
		return out
	default:
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		return out
	}
}
