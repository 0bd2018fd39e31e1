// Package expression compiles and runs the small expressions used for
// derived state fields. Three engines share one contract: expr-lang/expr
// (the default), cel-go and goja, the latter only with the js_eval build
// tag.
//
// A program sees the record fields of the state as variables plus now, the
// evaluation time. Functions registered through WithFuncs are callable by
// name in expr and JavaScript and through call("name", [args]) in CEL.
package expression

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrUnavailable is returned by constructors of engines not compiled in.
var ErrUnavailable = errors.New("expression: engine not available")

// ErrEmpty rejects blank sources.
var ErrEmpty = errors.New("expression: empty source")

// Env is the input of one program run.
type Env struct {
	Fields map[string]any
	Now    time.Time
}

func (e Env) now() time.Time {
	if e.Now.IsZero() {
		return time.Now()
	}
	return e.Now
}

// Engine compiles sources into reusable programs.
type Engine interface {
	Name() string
	Compile(source string) (Program, error)
}

// Program is a compiled source.
type Program interface {
	Run(env Env) (any, error)
}

// Func is a host function exposed to programs.
type Func func(args ...any) (any, error)

// Funcs maps names to host functions.
type Funcs map[string]Func

func (f Funcs) names() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (f Funcs) call(name string, args ...any) (any, error) {
	fn, ok := f[name]
	if !ok {
		return nil, fmt.Errorf("expression: function %q not registered", name)
	}
	return fn(args...)
}

// Error ties a compile or run failure to its engine and source.
type Error struct {
	Engine string
	Source string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("expression: %s %q: %v", e.Engine, e.Source, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func wrap(engine, source string, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	return &Error{Engine: engine, Source: source, Err: err}
}

func checkSource(engine, source string) error {
	if strings.TrimSpace(source) == "" {
		return wrap(engine, source, ErrEmpty)
	}
	return nil
}

// Option configures an engine.
type Option func(*options)

type options struct {
	cache Cache
	funcs Funcs
}

// WithCache stores compiled programs in cache. Keys carry the engine name
// so engines can share one cache.
func WithCache(cache Cache) Option {
	return func(o *options) { o.cache = cache }
}

// WithFuncs exposes host functions. The map is copied.
func WithFuncs(funcs Funcs) Option {
	return func(o *options) {
		if len(funcs) == 0 {
			return
		}
		if o.funcs == nil {
			o.funcs = Funcs{}
		}
		for name, fn := range funcs {
			if fn != nil {
				o.funcs[name] = fn
			}
		}
	}
}

func collect(opts []Option) options {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// variables lists the names a program run against env can reference.
func variables(env Env) []string {
	names := make([]string, 0, len(env.Fields)+1)
	for name := range env.Fields {
		if name != "now" {
			names = append(names, name)
		}
	}
	names = append(names, "now")
	sort.Strings(names)
	return names
}
