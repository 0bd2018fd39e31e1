package main

import (
	"fmt"

	"github.com/goliatone/go-nanny/config"
	"github.com/scott-cotton/cli"
)

type MainConfig struct {
	File string `cli:"name=f aliases=config desc='configuration file (.yaml, .toml or .json)'"`

	Main *cli.Command
}

// load reads the configuration named by -f. Without one the defaults apply.
func (cfg *MainConfig) load() (config.File, error) {
	if cfg.File == "" {
		return config.Defaults(), nil
	}
	file, err := config.Load(cfg.File)
	if err != nil {
		return config.File{}, fmt.Errorf("loading %s: %w", cfg.File, err)
	}
	return file, nil
}

type RouteConfig struct {
	*MainConfig
	Route *cli.Command
}

type SnapshotConfig struct {
	*MainConfig
	Key    string `cli:"name=key desc='storage key (defaults to the configured key)'"`
	Delete bool   `cli:"name=delete desc='drop the snapshot after printing it'"`

	Snapshot *cli.Command
}

type RunConfig struct {
	*MainConfig
	Diff    bool `cli:"name=diff desc='print a word diff against the previous frame'"`
	Metrics bool `cli:"name=metrics desc='print collected counters on exit'"`

	Run *cli.Command
}
