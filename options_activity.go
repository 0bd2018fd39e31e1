package nanny

import "github.com/goliatone/go-nanny/pkg/activity"

// WithActivityHooks sends lifecycle events (state.updated, state.restored,
// state.persist_failed, route.resolved, route.not_found) to hooks. Hook
// errors are logged and never fail the cycle that emitted them.
func WithActivityHooks(hooks activity.Hooks) Option {
	hooks = hooks.Compact()
	return func(cfg *config) {
		cfg.hooks = hooks
	}
}

// WithActivityChannel overrides activity.DefaultChannel on emitted events.
func WithActivityChannel(channel string) Option {
	return func(cfg *config) {
		cfg.channel = channel
	}
}

// WithActivityActor stamps actorID on emitted events.
func WithActivityActor(actorID string) Option {
	return func(cfg *config) {
		cfg.actor = actorID
	}
}

// ActivityHooks returns a copy of the configured hooks.
func (n *Nanny) ActivityHooks() activity.Hooks {
	if n == nil {
		return nil
	}
	return n.cfg.hooks.Compact()
}
