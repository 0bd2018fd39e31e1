package activity

import (
	"context"
	"strings"
)

// DefaultChannel stamps events emitted without a channel.
const DefaultChannel = "nanny"

// Emitter stamps channel and actor defaults on events before fanning them
// out. A nil Emitter or one without hooks drops everything.
type Emitter struct {
	hooks   Hooks
	channel string
	actor   string
}

func NewEmitter(hooks Hooks, channel, actor string) *Emitter {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = DefaultChannel
	}
	return &Emitter{
		hooks:   hooks.Compact(),
		channel: channel,
		actor:   strings.TrimSpace(actor),
	}
}

// Len returns the number of hooks events go to.
func (e *Emitter) Len() int {
	if e == nil {
		return 0
	}
	return len(e.hooks)
}

func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if e.Len() == 0 {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	if strings.TrimSpace(event.ActorID) == "" {
		event.ActorID = e.actor
	}
	return e.hooks.Notify(ctx, event)
}
