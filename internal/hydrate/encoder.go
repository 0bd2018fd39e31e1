package hydrate

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Encoder serialises snapshots to JSON.
type Encoder struct {
	preHooks []PreHook
}

// EncoderOption configures an Encoder.
type EncoderOption func(*Encoder)

// WithEncodeHook applies hook to record payloads before encoding.
func WithEncodeHook(hook PreHook) EncoderOption {
	return func(e *Encoder) {
		e.preHooks = append(e.preHooks, hook)
	}
}

func NewEncoder(opts ...EncoderOption) *Encoder {
	e := &Encoder{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Encode marshals value. Records (map[string]any) are shallow copied and run
// through the pre-hooks first so hooks never mutate live state.
func (e *Encoder) Encode(ctx Context, value any) ([]byte, error) {
	if record, ok := value.(map[string]any); ok {
		copied := make(map[string]any, len(record))
		for k, v := range record {
			copied[k] = v
		}
		next, err := runPreHooks(ctx, e.preHooks, copied)
		if err != nil {
			return nil, err
		}
		value = next
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("hydrate: encode key %q: %w", ctx.Key, err)
	}
	return payload, nil
}

// Exclude returns a hook that drops the named top-level fields.
func Exclude(fields ...string) PreHook {
	drop := make([]string, 0, len(fields))
	for _, field := range fields {
		if field = strings.TrimSpace(field); field != "" {
			drop = append(drop, field)
		}
	}
	return func(_ Context, record map[string]any) (map[string]any, error) {
		for _, field := range drop {
			delete(record, field)
		}
		return record, nil
	}
}

// SplitList parses a comma separated field list, trimming blanks.
func SplitList(list string) []string {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	parts := strings.Split(list, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
