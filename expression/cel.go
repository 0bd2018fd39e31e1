package expression

import (
	"reflect"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

type celEngine struct {
	options
	parser *cel.Env
}

// NewCEL returns the cel-go engine. CEL checks variables against
// declarations, so programs are built on first run for each distinct set of
// field names and cached under that set.
func NewCEL(opts ...Option) (Engine, error) {
	e := &celEngine{options: collect(opts)}
	parser, err := cel.NewEnv()
	if err != nil {
		return nil, wrap("cel", "", err)
	}
	e.parser = parser
	return e, nil
}

func (e *celEngine) Name() string { return "cel" }

// Compile only parses source; type checking waits for the fields.
func (e *celEngine) Compile(source string) (Program, error) {
	if err := checkSource("cel", source); err != nil {
		return nil, err
	}
	if _, issues := e.parser.Parse(source); issues != nil && issues.Err() != nil {
		return nil, wrap("cel", source, issues.Err())
	}
	return &celProgram{engine: e, source: source}, nil
}

type celProgram struct {
	engine *celEngine
	source string

	mu    sync.Mutex
	key   string
	built cel.Program
}

func (p *celProgram) Run(env Env) (any, error) {
	names := variables(env)
	key := "cel:" + p.source + "|" + strings.Join(names, ",")
	program, err := p.program(key, names)
	if err != nil {
		return nil, wrap("cel", p.source, err)
	}

	activation := make(map[string]any, len(env.Fields)+1)
	for k, v := range env.Fields {
		activation[k] = v
	}
	activation["now"] = env.now()
	out, _, err := program.Eval(activation)
	if err != nil {
		return nil, wrap("cel", p.source, err)
	}
	return out.Value(), nil
}

// program keeps the last build so a stable field set skips the cache.
func (p *celProgram) program(key string, names []string) (cel.Program, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.built != nil && p.key == key {
		return p.built, nil
	}
	built, err := load(p.engine.cache, key, func() (cel.Program, error) {
		return p.engine.build(p.source, names)
	})
	if err != nil {
		return nil, err
	}
	p.key, p.built = key, built
	return built, nil
}

func (e *celEngine) build(source string, names []string) (cel.Program, error) {
	decls := make([]cel.EnvOption, 0, len(names)+1)
	for _, name := range names {
		if name == "now" {
			decls = append(decls, cel.Variable(name, cel.TimestampType))
			continue
		}
		decls = append(decls, cel.Variable(name, cel.DynType))
	}
	if len(e.funcs) > 0 {
		decls = append(decls, cel.Function("call",
			cel.Overload("call_string",
				[]*cel.Type{cel.StringType}, cel.DynType,
				cel.UnaryBinding(func(name ref.Val) ref.Val {
					return e.call(name, nil)
				}),
			),
			cel.Overload("call_string_list",
				[]*cel.Type{cel.StringType, cel.ListType(cel.DynType)}, cel.DynType,
				cel.BinaryBinding(e.call),
			),
		))
	}
	env, err := cel.NewEnv(decls...)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(source)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	return env.Program(ast)
}

var anySlice = reflect.TypeOf([]any{})

func (e *celEngine) call(name ref.Val, list ref.Val) ref.Val {
	fn, ok := name.Value().(string)
	if !ok {
		return types.NewErr("call: function name must be a string")
	}
	var args []any
	if list != nil {
		native, err := list.ConvertToNative(anySlice)
		if err != nil {
			return types.NewErr("call %s: %v", fn, err)
		}
		args, _ = native.([]any)
	}
	result, err := e.funcs.call(fn, args...)
	if err != nil {
		return types.NewErr("call %s: %v", fn, err)
	}
	if result == nil {
		return types.NullValue
	}
	return types.DefaultTypeAdapter.NativeToValue(result)
}
