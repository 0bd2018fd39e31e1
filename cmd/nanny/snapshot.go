package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/goliatone/go-nanny/config"
	"github.com/goliatone/go-nanny/pkg/state"
	"github.com/scott-cotton/cli"
)

func snapshot(cfg *SnapshotConfig, cc *cli.Context, args []string) error {
	_, err := cfg.Snapshot.Parse(cc, args)
	if err != nil {
		cfg.Snapshot.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	file, err := cfg.load()
	if err != nil {
		return err
	}
	key := cfg.Key
	if key == "" {
		key = file.Storage.Key
	}
	if key == "" {
		return fmt.Errorf("%w: no storage key configured, pass -key", cli.ErrUsage)
	}

	ctx := context.Background()
	store, closeStore, err := config.OpenStore(ctx, file.Storage)
	if err != nil {
		return err
	}
	defer closeStore()
	return printSnapshot(ctx, cc.Out, store, key, cfg.Delete)
}

func printSnapshot(ctx context.Context, w io.Writer, store state.Store, key string, drop bool) error {
	payload, ok, err := store.Load(ctx, key)
	if err != nil {
		return fmt.Errorf("loading %s: %w", key, err)
	}
	if !ok {
		fmt.Fprintf(w, "%s: no snapshot\n", key)
		return nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, payload, "", "  "); err != nil {
		// not JSON; print it raw
		buf.Reset()
		buf.Write(payload)
	}
	buf.WriteByte('\n')
	if _, err := buf.WriteTo(w); err != nil {
		return err
	}
	if !drop {
		return nil
	}
	deleter, ok := store.(state.Deleter)
	if !ok {
		return fmt.Errorf("store %T cannot delete keys", store)
	}
	if err := deleter.Delete(ctx, key); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	fmt.Fprintf(w, "%s: deleted\n", key)
	return nil
}
