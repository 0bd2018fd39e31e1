package expression

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func engines(t *testing.T, opts ...Option) []Engine {
	t.Helper()
	cel, err := NewCEL(opts...)
	if err != nil {
		t.Fatalf("cel: %v", err)
	}
	return []Engine{NewExpr(opts...), cel}
}

func TestEnginesEvaluateFields(t *testing.T) {
	cases := []struct {
		source string
		fields map[string]any
		want   map[string]any
	}{
		{
			source: "price * qty",
			fields: map[string]any{"price": 3, "qty": 4},
			want:   map[string]any{"expr": 12, "cel": int64(12)},
		},
		{
			source: `name + "!"`,
			fields: map[string]any{"name": "ada"},
			want:   map[string]any{"expr": "ada!", "cel": "ada!"},
		},
		{
			source: "done && size > 2",
			fields: map[string]any{"done": true, "size": 3},
			want:   map[string]any{"expr": true, "cel": true},
		},
	}
	for _, engine := range engines(t) {
		for _, tc := range cases {
			program, err := engine.Compile(tc.source)
			if err != nil {
				t.Fatalf("%s compile %q: %v", engine.Name(), tc.source, err)
			}
			got, err := program.Run(Env{Fields: tc.fields})
			if err != nil {
				t.Fatalf("%s run %q: %v", engine.Name(), tc.source, err)
			}
			if got != tc.want[engine.Name()] {
				t.Fatalf("%s %q: expected %v (%T), got %v (%T)", engine.Name(), tc.source, tc.want[engine.Name()], tc.want[engine.Name()], got, got)
			}
		}
	}
}

func TestEnginesExposeNow(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	sources := map[string]string{
		"expr": "now.Year()",
		"cel":  "now.getFullYear()",
	}
	for _, engine := range engines(t) {
		program, err := engine.Compile(sources[engine.Name()])
		if err != nil {
			t.Fatalf("%s compile: %v", engine.Name(), err)
		}
		got, err := program.Run(Env{Now: now})
		if err != nil {
			t.Fatalf("%s run: %v", engine.Name(), err)
		}
		if got != 2024 && got != int64(2024) {
			t.Fatalf("%s: expected 2024, got %v (%T)", engine.Name(), got, got)
		}
	}
}

func TestEnginesCallFuncs(t *testing.T) {
	funcs := Funcs{"shout": func(args ...any) (any, error) {
		return strings.ToUpper(args[0].(string)), nil
	}}
	sources := map[string]string{
		"expr": "shout(name)",
		"cel":  `call("shout", [name])`,
	}
	for _, engine := range engines(t, WithFuncs(funcs)) {
		program, err := engine.Compile(sources[engine.Name()])
		if err != nil {
			t.Fatalf("%s compile: %v", engine.Name(), err)
		}
		got, err := program.Run(Env{Fields: map[string]any{"name": "ada"}})
		if err != nil {
			t.Fatalf("%s run: %v", engine.Name(), err)
		}
		if got != "ADA" {
			t.Fatalf("%s: expected ADA, got %v", engine.Name(), got)
		}
	}
}

func TestEnginesReportErrors(t *testing.T) {
	for _, engine := range engines(t) {
		if _, err := engine.Compile("  "); !errors.Is(err, ErrEmpty) {
			t.Fatalf("%s: expected ErrEmpty, got %v", engine.Name(), err)
		}
		_, err := engine.Compile("1 +")
		var exprErr *Error
		if !errors.As(err, &exprErr) || exprErr.Engine != engine.Name() || exprErr.Source != "1 +" {
			t.Fatalf("%s: expected compile Error, got %v", engine.Name(), err)
		}

		program, err := engine.Compile("name / 2")
		if err != nil {
			t.Fatalf("%s compile: %v", engine.Name(), err)
		}
		_, err = program.Run(Env{Fields: map[string]any{"name": "ada"}})
		if !errors.As(err, &exprErr) || exprErr.Engine != engine.Name() {
			t.Fatalf("%s: expected run Error, got %v", engine.Name(), err)
		}
	}
}

func TestCacheSharedAcrossEngines(t *testing.T) {
	cache, err := NewLRU(0)
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	for _, engine := range engines(t, WithCache(cache)) {
		program, err := engine.Compile("a + 1")
		if err != nil {
			t.Fatalf("%s compile: %v", engine.Name(), err)
		}
		if _, err := program.Run(Env{Fields: map[string]any{"a": 1}}); err != nil {
			t.Fatalf("%s run: %v", engine.Name(), err)
		}
	}
	if !cache.Contains("expr:a + 1") {
		t.Fatalf("expected expr program cached, keys %v", cache.Keys())
	}
	if !cache.Contains("cel:a + 1|a,now") {
		t.Fatalf("expected cel program cached per field set, keys %v", cache.Keys())
	}

	small, _ := NewLRU(1)
	small.Add("x", 1)
	small.Add("y", 2)
	if small.Contains("x") {
		t.Fatalf("expected least recently used entry evicted")
	}
}

func TestCELRebuildsForNewFields(t *testing.T) {
	cel, _ := NewCEL()
	program, err := cel.Compile("has_a ? a : 0")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	got, err := program.Run(Env{Fields: map[string]any{"has_a": true, "a": 5}})
	if err != nil || got != int64(5) {
		t.Fatalf("expected 5, got %v (%v)", got, err)
	}
	if _, err := program.Run(Env{Fields: map[string]any{"has_a": false}}); err == nil {
		t.Fatalf("expected undeclared field to fail type checking")
	}
}
