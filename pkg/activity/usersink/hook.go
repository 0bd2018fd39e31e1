// Package usersink forwards nanny activity to a go-users ActivitySink.
package usersink

import (
	"context"
	"maps"

	"github.com/goliatone/go-nanny/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook is an activity.Hook writing one ActivityRecord per event.
type Hook struct {
	Sink usertypes.ActivitySink
}

func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}
	event = event.Normalize()
	if !event.Valid() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return h.Sink.Log(ctx, Record(event))
}

// Record converts event. go-users keys actors, users and tenants by UUID;
// an actor that is not a UUID, such as "system", is kept under Data["actor"].
func Record(event activity.Event) usertypes.ActivityRecord {
	record := usertypes.ActivityRecord{
		ActorID:    id(event.ActorID),
		UserID:     id(event.UserID),
		TenantID:   id(event.TenantID),
		Verb:       event.Verb,
		ObjectType: event.ObjectType,
		ObjectID:   event.ObjectID,
		Channel:    event.Channel,
		OccurredAt: event.OccurredAt,
	}
	if len(event.Metadata) > 0 {
		record.Data = maps.Clone(event.Metadata)
	}
	if record.ActorID == uuid.Nil && event.ActorID != "" {
		if record.Data == nil {
			record.Data = map[string]any{}
		}
		record.Data["actor"] = event.ActorID
	}
	return record
}

func id(s string) uuid.UUID {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return parsed
}
