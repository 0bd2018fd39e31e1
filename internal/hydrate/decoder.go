// Package hydrate encodes state snapshots for persistence and decodes stored
// payloads back into Go values, running caller supplied hooks on the
// intermediate map form.
package hydrate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Context identifies the snapshot being encoded or decoded.
type Context struct {
	Key string
}

// PreHook lets callers mutate or normalise a record payload. It runs before
// encoding and before decoding.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook lets callers adjust or validate the decoded value.
type PostHook[T any] func(Context, *T) error

// DecoderOption configures a Decoder instance.
type DecoderOption[T any] func(*Decoder[T])

// Decoder converts stored payloads into T.
type Decoder[T any] struct {
	preHooks      []PreHook
	postHooks     []PostHook[T]
	normaliseNums bool
}

// WithPreHook applies hook prior to decoding.
func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.preHooks = append(d.preHooks, hook)
	}
}

// WithPostHook applies hook after decoding completes.
func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.postHooks = append(d.postHooks, hook)
	}
}

// WithIntegers decodes integral JSON numbers as int instead of float64 so a
// persisted {"count":1} comes back the way it was stored.
func WithIntegers[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.normaliseNums = true
	}
}

func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode converts payload into T applying configured hooks. Pre-hooks only
// run when the payload is a JSON object.
func (d *Decoder[T]) Decode(ctx Context, payload []byte) (T, error) {
	var zero T
	if len(bytes.TrimSpace(payload)) == 0 {
		return zero, fmt.Errorf("hydrate: payload is empty for key %q", ctx.Key)
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return zero, fmt.Errorf("hydrate: decode key %q: %w", ctx.Key, err)
	}
	raw = d.numbers(raw)

	if record, ok := raw.(map[string]any); ok {
		next, err := runPreHooks(ctx, d.preHooks, record)
		if err != nil {
			return zero, err
		}
		raw = next
	}

	result, err := d.convert(ctx, raw)
	if err != nil {
		return zero, err
	}

	for _, hook := range d.postHooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, &result); err != nil {
			return zero, fmt.Errorf("hydrate: post-hook for key %q failed: %w", ctx.Key, err)
		}
	}
	return result, nil
}

func (d *Decoder[T]) convert(ctx Context, raw any) (T, error) {
	var zero T
	if out, ok := raw.(T); ok {
		return out, nil
	}
	buffer, err := json.Marshal(raw)
	if err != nil {
		return zero, fmt.Errorf("hydrate: marshal payload for key %q: %w", ctx.Key, err)
	}
	var out T
	if err := json.Unmarshal(buffer, &out); err != nil {
		return zero, fmt.Errorf("hydrate: decode key %q: %w", ctx.Key, err)
	}
	return out, nil
}

func (d *Decoder[T]) numbers(value any) any {
	switch v := value.(type) {
	case json.Number:
		if d.normaliseNums {
			if i, err := v.Int64(); err == nil && i >= math.MinInt && i <= math.MaxInt {
				return int(i)
			}
		}
		f, err := v.Float64()
		if err != nil {
			return v.String()
		}
		return f
	case map[string]any:
		for key, item := range v {
			v[key] = d.numbers(item)
		}
		return v
	case []any:
		for i, item := range v {
			v[i] = d.numbers(item)
		}
		return v
	default:
		return value
	}
}

func runPreHooks(ctx Context, hooks []PreHook, record map[string]any) (map[string]any, error) {
	current := record
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		next, err := hook(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("hydrate: pre-hook for key %q failed: %w", ctx.Key, err)
		}
		if next != nil {
			current = next
		}
	}
	return current, nil
}
