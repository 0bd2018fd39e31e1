package expression

import (
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

type exprEngine struct {
	options
}

// NewExpr returns the expr-lang/expr engine.
func NewExpr(opts ...Option) Engine {
	return &exprEngine{options: collect(opts)}
}

func (e *exprEngine) Name() string { return "expr" }

func (e *exprEngine) Compile(source string) (Program, error) {
	if err := checkSource("expr", source); err != nil {
		return nil, err
	}
	program, err := load(e.cache, "expr:"+source, func() (*vm.Program, error) {
		compileOpts := []expr.Option{
			// now is declared so it shadows the builtin now() function.
			expr.Env(map[string]any{"now": time.Time{}}),
			expr.AllowUndefinedVariables(),
		}
		for _, name := range e.funcs.names() {
			compileOpts = append(compileOpts, expr.Function(name, e.funcs[name]))
		}
		return expr.Compile(source, compileOpts...)
	})
	if err != nil {
		return nil, wrap("expr", source, err)
	}
	return exprProgram{source: source, program: program}, nil
}

type exprProgram struct {
	source  string
	program *vm.Program
}

func (p exprProgram) Run(env Env) (any, error) {
	vars := make(map[string]any, len(env.Fields)+1)
	for k, v := range env.Fields {
		vars[k] = v
	}
	vars["now"] = env.now()
	out, err := expr.Run(p.program, vars)
	if err != nil {
		return nil, wrap("expr", p.source, err)
	}
	return out, nil
}
