package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	nanny "github.com/goliatone/go-nanny"
	"github.com/goliatone/go-nanny/config"
	"github.com/goliatone/go-nanny/router"
	"github.com/scott-cotton/cli"
)

func route(cfg *RouteConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Route.Parse(cc, args)
	if err != nil {
		cfg.Route.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: route requires at least one path", cli.ErrUsage)
	}
	file, err := cfg.load()
	if err != nil {
		return err
	}
	return resolvePaths(cc.Out, file, args)
}

// resolvePaths prints one line per path. Unmatched paths are reported in
// the output and do not stop the remaining lookups.
func resolvePaths(w io.Writer, file config.File, paths []string) error {
	routes, err := file.RouteTable(nil)
	if err != nil {
		return err
	}
	if len(routes) == 0 {
		return fmt.Errorf("no routes configured")
	}
	for _, path := range paths {
		resolved, err := nanny.FindRoute(path, routes)
		if errors.Is(err, router.ErrRouteNotFound) {
			fmt.Fprintf(w, "%s\tnot found\n", path)
			continue
		}
		if err != nil {
			return fmt.Errorf("resolving %s: %w", path, err)
		}
		fmt.Fprintf(w, "%s\t%s\t%q\t%s\n", path, resolved.Route.Path, resolved.Route.Title, formatParams(resolved.Params))
	}
	return nil
}

func formatParams(params router.Params) string {
	if len(params) == 0 {
		return "-"
	}
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + params[name]
	}
	return strings.Join(parts, ",")
}
