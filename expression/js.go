//go:build js_eval

package expression

import (
	"fmt"

	"github.com/dop251/goja"
)

type jsEngine struct {
	options
}

// NewJS returns the goja engine.
func NewJS(opts ...Option) (Engine, error) {
	return &jsEngine{options: collect(opts)}, nil
}

func (e *jsEngine) Name() string { return "js" }

func (e *jsEngine) Compile(source string) (Program, error) {
	if err := checkSource("js", source); err != nil {
		return nil, err
	}
	program, err := load(e.cache, "js:"+source, func() (*goja.Program, error) {
		return goja.Compile("", fmt.Sprintf("(function(){ return (%s); })()", source), false)
	})
	if err != nil {
		return nil, wrap("js", source, err)
	}
	return jsProgram{engine: e, source: source, program: program}, nil
}

type jsProgram struct {
	engine  *jsEngine
	source  string
	program *goja.Program
}

// Run uses a fresh runtime per call; goja runtimes are not goroutine safe.
func (p jsProgram) Run(env Env) (any, error) {
	vm := goja.New()
	for k, v := range env.Fields {
		if err := vm.Set(k, v); err != nil {
			return nil, wrap("js", p.source, err)
		}
	}
	if err := vm.Set("now", env.now()); err != nil {
		return nil, wrap("js", p.source, err)
	}
	for _, name := range p.engine.funcs.names() {
		if err := vm.Set(name, p.engine.funcs[name]); err != nil {
			return nil, wrap("js", p.source, err)
		}
	}
	value, err := vm.RunProgram(p.program)
	if err != nil {
		return nil, wrap("js", p.source, err)
	}
	return value.Export(), nil
}
