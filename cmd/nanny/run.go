package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	nanny "github.com/goliatone/go-nanny"
	"github.com/goliatone/go-nanny/config"
	"github.com/goliatone/go-nanny/pkg/metrics"
	"github.com/goliatone/go-nanny/render"
	"github.com/goliatone/go-nanny/router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/scott-cotton/cli"
)

func run(cfg *RunConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Run.Parse(cc, args)
	if err != nil {
		cfg.Run.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	file, err := cfg.load()
	if err != nil {
		return err
	}
	return runFile(context.Background(), file, runOptions{
		Out:     cc.Out,
		Log:     os.Stderr,
		Diff:    cfg.Diff,
		Metrics: cfg.Metrics,
	}, args)
}

type runOptions struct {
	Out     io.Writer
	Log     io.Writer
	Diff    bool
	Metrics bool
}

func runFile(ctx context.Context, file config.File, ro runOptions, paths []string) error {
	file = file.WithDefaults()
	store, closeStore, err := config.OpenStore(ctx, file.Storage)
	if err != nil {
		return err
	}
	defer closeStore()

	text := render.NewText(ro.Out, render.WithDiff(ro.Diff))
	if file.View == "" {
		file.View = contentView
	}
	opts, err := file.Options(config.OptionsConfig{
		Registry:  genericRegistry(file, text),
		LogOutput: ro.Log,
	})
	if err != nil {
		return err
	}
	opts = append(opts, nanny.WithStore(store), nanny.WithContext(ctx))

	reg := prometheus.NewRegistry()
	if ro.Metrics {
		collector, err := metrics.NewCollector(reg, "")
		if err != nil {
			return err
		}
		opts = append(opts, nanny.WithMetrics(collector))
	}

	initial, err := file.InitialState()
	if err != nil {
		return err
	}
	n, err := nanny.New(initial, opts...)
	if err != nil {
		return err
	}
	defer n.Close()

	for _, path := range paths {
		err := n.Navigate(path)
		if errors.Is(err, router.ErrRouteNotFound) {
			fmt.Fprintf(ro.Out, "%s: not found\n", path)
			continue
		}
		if err != nil {
			return err
		}
	}
	if ro.Metrics {
		return printCounters(ro.Out, reg)
	}
	return nil
}

const contentView = "content"

// genericRegistry binds every name the file refers to. Route views print
// their name and the state, updates copy route parameters into the state and
// the content view shows whatever the matched route produced.
func genericRegistry(file config.File, renderer nanny.Renderer) *config.Registry {
	field := file.ContentField
	if field == "" {
		field = nanny.DefaultContentField
	}
	reg := config.NewRegistry().
		RegisterRenderer(file.Renderer, renderer).
		RegisterView(contentView, func(s nanny.State) (any, error) {
			v, _ := s.Get(field)
			return v, nil
		})
	if file.View != "" && file.View != contentView {
		reg.RegisterView(file.View, namedView(file.View, field))
	}
	var walk func(routes []config.Route)
	walk = func(routes []config.Route) {
		for _, r := range routes {
			if r.View != "" {
				reg.RegisterView(r.View, namedView(r.View, field))
			}
			if r.Update != "" {
				reg.RegisterUpdate(r.Update, paramsUpdate)
			}
			walk(r.Routes)
		}
	}
	walk(file.Routes)
	return reg
}

func namedView(name, contentField string) nanny.View {
	return func(s nanny.State) (any, error) {
		body, err := render.Format(s.Without(contentField))
		if err != nil {
			return nil, err
		}
		return name + " " + body, nil
	}
}

func paramsUpdate(params router.Params) nanny.Transformer {
	partial := make(nanny.Partial, len(params))
	for k, v := range params {
		partial[k] = v
	}
	return partial
}

func printCounters(w io.Writer, gatherer prometheus.Gatherer) error {
	families, err := gatherer.Gather()
	if err != nil {
		return err
	}
	var lines []string
	for _, family := range families {
		for _, m := range family.GetMetric() {
			if m.GetCounter() == nil {
				continue
			}
			name := family.GetName()
			for _, label := range m.GetLabel() {
				name += fmt.Sprintf("{%s=%q}", label.GetName(), label.GetValue())
			}
			lines = append(lines, fmt.Sprintf("%s %g", name, m.GetCounter().GetValue()))
		}
	}
	sort.Strings(lines)
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
	return nil
}
