package main

import (
	"github.com/scott-cotton/cli"
)

func MainCommand() *cli.Command {
	cfg := &MainConfig{}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Main, "nanny").
		WithSynopsis("nanny [-f config] command [opts]").
		WithDescription("nanny drives a state controller from a configuration file.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return nannyMain(cfg, cc, args)
		}).
		WithSubs(
			RouteCommand(cfg),
			SnapshotCommand(cfg),
			RunCommand(cfg))
}

func RouteCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &RouteConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Route, "route").
		WithAliases("r").
		WithSynopsis("route path [path...]").
		WithDescription("resolve paths against the configured route table").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return route(cfg, cc, args)
		})
}

func SnapshotCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &SnapshotConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Snapshot, "snapshot").
		WithAliases("snap", "s").
		WithSynopsis("snapshot [-key key] [-delete]").
		WithDescription("print the persisted snapshot from the configured store").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return snapshot(cfg, cc, args)
		})
}

func RunCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &RunConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Run, "run").
		WithSynopsis("run [-diff] [-metrics] [path...]").
		WithDescription("start an instance, render it as text and navigate to each path in turn").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return run(cfg, cc, args)
		})
}
