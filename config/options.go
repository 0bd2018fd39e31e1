package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	nanny "github.com/goliatone/go-nanny"
	"github.com/goliatone/go-nanny/expression"
	"github.com/goliatone/go-nanny/internal/hydrate"
)

// InitialState decodes the initial block. Integral numbers become int
// whichever syntax the file used.
func (f File) InitialState() (nanny.State, error) {
	if f.Initial == nil {
		return nanny.Record(nil), nil
	}
	raw, err := json.Marshal(f.Initial)
	if err != nil {
		return nanny.State{}, fmt.Errorf("config: initial: %w", err)
	}
	value, err := hydrate.NewDecoder[any](hydrate.WithIntegers[any]()).Decode(hydrate.Context{Key: "initial"}, raw)
	if err != nil {
		return nanny.State{}, fmt.Errorf("config: initial: %w", err)
	}
	return nanny.StateOf(value), nil
}

// RouteTable converts the route table. With a nil registry Update and View
// names are ignored, which is enough for resolving paths.
func (f File) RouteTable(reg *Registry) ([]nanny.Route, error) {
	return convertRoutes(f.Routes, reg)
}

func convertRoutes(routes []Route, reg *Registry) ([]nanny.Route, error) {
	if len(routes) == 0 {
		return nil, nil
	}
	out := make([]nanny.Route, 0, len(routes))
	for _, r := range routes {
		route := nanny.Route{Path: r.Path, Title: r.Title}
		if reg != nil && r.Update != "" {
			update, err := reg.Update(r.Update)
			if err != nil {
				return nil, fmt.Errorf("config: route %q: %w", r.Path, err)
			}
			route.Update = update
		}
		if reg != nil && r.View != "" {
			view, err := reg.View(r.View)
			if err != nil {
				return nil, fmt.Errorf("config: route %q: %w", r.Path, err)
			}
			route.View = view
		}
		children, err := convertRoutes(r.Routes, reg)
		if err != nil {
			return nil, err
		}
		route.Routes = children
		out = append(out, route)
	}
	return out, nil
}

// OptionsConfig carries what Options cannot take from the file.
type OptionsConfig struct {
	Registry *Registry
	// LogOutput receives log lines and console snapshots. Defaults to
	// os.Stderr.
	LogOutput io.Writer
}

// Options translates the file into nanny options. The store is not opened
// here; see OpenStore.
func (f File) Options(oc OptionsConfig) ([]nanny.Option, error) {
	reg := oc.Registry
	if reg == nil {
		reg = NewRegistry()
	}
	out := oc.LogOutput
	if out == nil {
		out = os.Stderr
	}

	opts := []nanny.Option{
		nanny.WithDebug(f.Debug),
	}
	if f.Element != "" {
		opts = append(opts, nanny.WithElement(f.Element))
	}
	if f.Path != "" {
		opts = append(opts, nanny.WithPath(f.Path))
	}
	if f.ContentField != "" {
		opts = append(opts, nanny.WithContentField(f.ContentField))
	}
	if f.View != "" {
		view, err := reg.View(f.View)
		if err != nil {
			return nil, err
		}
		opts = append(opts, nanny.WithView(view))
	}
	if f.Renderer != "" {
		renderer, err := reg.Renderer(f.Renderer)
		if err != nil {
			return nil, err
		}
		opts = append(opts, nanny.WithRenderer(renderer))
	}

	routes, err := f.RouteTable(reg)
	if err != nil {
		return nil, err
	}
	if len(routes) > 0 {
		opts = append(opts, nanny.WithRoutes(routes...))
	}

	evalOpts, err := f.evaluatorOptions()
	if err != nil {
		return nil, err
	}
	opts = append(opts, evalOpts...)

	logOpts, err := f.Log.options(out)
	if err != nil {
		return nil, err
	}
	opts = append(opts, logOpts...)

	if f.Storage.Key != "" {
		opts = append(opts, nanny.WithStorageKey(f.Storage.Key))
		opts = append(opts, nanny.WithStorageBlackList(strings.Join(f.Storage.BlackList, ",")))
	}
	if f.Activity.Channel != "" {
		opts = append(opts, nanny.WithActivityChannel(f.Activity.Channel))
	}
	if f.Activity.Actor != "" {
		opts = append(opts, nanny.WithActivityActor(f.Activity.Actor))
	}
	return opts, nil
}

func (f File) evaluatorOptions() ([]nanny.Option, error) {
	if len(f.Expressions) == 0 {
		return nil, nil
	}
	var engineOpts []expression.Option
	if f.ProgramCache > 0 {
		cache, err := expression.NewLRU(f.ProgramCache)
		if err != nil {
			return nil, err
		}
		engineOpts = append(engineOpts, expression.WithCache(cache))
	}

	var engine expression.Engine
	var err error
	switch strings.ToLower(f.Evaluator) {
	case "", "expr":
		engine = expression.NewExpr(engineOpts...)
	case "cel":
		engine, err = expression.NewCEL(engineOpts...)
	case "js":
		engine, err = expression.NewJS(engineOpts...)
		if errors.Is(err, expression.ErrUnavailable) {
			err = fmt.Errorf("config: evaluator %q: %w (build with -tags js_eval)", f.Evaluator, err)
		}
	default:
		return nil, fmt.Errorf("%w: evaluator %q", ErrUnknownName, f.Evaluator)
	}
	if err != nil {
		return nil, err
	}

	opts := []nanny.Option{nanny.WithEngine(engine)}
	for _, e := range f.Expressions {
		opts = append(opts, nanny.WithExpression(e.Field, e.Expr, e.DependsOn...))
	}
	return opts, nil
}

func (l Log) options(w io.Writer) ([]nanny.Option, error) {
	level := slog.LevelInfo
	if l.Level != "" {
		if err := level.UnmarshalText([]byte(l.Level)); err != nil {
			return nil, fmt.Errorf("config: log level: %w", err)
		}
	}
	switch strings.ToLower(l.Format) {
	case "", "json":
		logger, _ := nanny.NewJSONLogger(w, level)
		return []nanny.Option{nanny.WithLogger(logger)}, nil
	case "console":
		logger, _ := nanny.NewJSONLogger(w, level)
		return []nanny.Option{nanny.WithLogger(logger), nanny.WithSink(nanny.NewConsoleSink(w))}, nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: log format %q", ErrUnknownName, l.Format)
	}
}
