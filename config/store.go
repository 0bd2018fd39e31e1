package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-nanny/pkg/state"
	"github.com/goliatone/go-nanny/pkg/state/postgres"
	s3store "github.com/goliatone/go-nanny/pkg/state/s3"
	"github.com/goliatone/go-nanny/pkg/state/sqlite"
)

// OpenStore opens the configured backend. The returned close function is
// never nil.
func OpenStore(ctx context.Context, s Storage) (state.Store, func() error, error) {
	noop := func() error { return nil }
	switch strings.ToLower(s.Driver) {
	case "", "memory":
		var opts []state.MemoryOption
		if s.Quota > 0 {
			opts = append(opts, state.WithQuota(s.Quota))
		}
		return state.NewMemoryStore(opts...), noop, nil
	case "file":
		store, err := state.NewFileStore(s.Dir)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	case "sqlite":
		store, err := sqlite.NewStore(ctx, s.DSN)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	case "postgres":
		store, err := postgres.NewStore(ctx, s.DSN)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	case "s3":
		store, err := s3store.New(ctx, s3store.Config{
			Region:    s.Region,
			Bucket:    s.Bucket,
			Prefix:    s.Prefix,
			Endpoint:  s.Endpoint,
			PathStyle: s.PathStyle,
		})
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	default:
		return nil, noop, fmt.Errorf("%w: storage driver %q", ErrUnknownName, s.Driver)
	}
}
