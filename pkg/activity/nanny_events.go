package activity

import (
	"maps"
	"sort"
	"strings"
	"time"
)

const (
	VerbStateUpdated   = "state.updated"
	VerbStateRestored  = "state.restored"
	VerbPersistFailed  = "state.persist_failed"
	VerbRouteResolved  = "route.resolved"
	VerbRouteNotFound  = "route.not_found"
	ObjectTypeInstance = "nanny.instance"
	ObjectTypeRoute    = "nanny.route"
)

// NannyEventInput describes the fields shared by nanny lifecycle events.
type NannyEventInput struct {
	InstanceID string
	ActorID    string
	UserID     string
	TenantID   string
	Channel    string
	Path       string
	Route      string
	Params     map[string]string
	Changed    []string
	StorageKey string
	Err        error
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildStateUpdatedEvent reports a committed update and the keys it changed.
func BuildStateUpdatedEvent(input NannyEventInput) Event {
	return buildNannyEvent(VerbStateUpdated, ObjectTypeInstance, input)
}

// BuildStateRestoredEvent reports a snapshot loaded from storage at startup.
func BuildStateRestoredEvent(input NannyEventInput) Event {
	return buildNannyEvent(VerbStateRestored, ObjectTypeInstance, input)
}

// BuildPersistFailedEvent reports a swallowed persistence failure.
func BuildPersistFailedEvent(input NannyEventInput) Event {
	return buildNannyEvent(VerbPersistFailed, ObjectTypeInstance, input)
}

// BuildRouteResolvedEvent reports a successful navigation.
func BuildRouteResolvedEvent(input NannyEventInput) Event {
	return buildNannyEvent(VerbRouteResolved, ObjectTypeRoute, input)
}

// BuildRouteNotFoundEvent reports a navigation to an unknown path.
func BuildRouteNotFoundEvent(input NannyEventInput) Event {
	return buildNannyEvent(VerbRouteNotFound, ObjectTypeRoute, input)
}

func buildNannyEvent(verb, objectType string, input NannyEventInput) Event {
	var metadata map[string]any
	if len(input.Metadata) > 0 {
		metadata = maps.Clone(input.Metadata)
	}
	set := func(key string, value any) {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata[key] = value
	}
	if input.Path != "" {
		set("path", input.Path)
	}
	if input.Route != "" {
		set("route", input.Route)
	}
	if len(input.Params) > 0 {
		params := make(map[string]string, len(input.Params))
		for k, v := range input.Params {
			params[k] = v
		}
		set("params", params)
	}
	if len(input.Changed) > 0 {
		changed := append([]string(nil), input.Changed...)
		sort.Strings(changed)
		set("changed", changed)
	}
	if input.StorageKey != "" {
		set("storage_key", input.StorageKey)
	}
	if input.Err != nil {
		set("error", input.Err.Error())
	}
	if input.InstanceID != "" && objectType == ObjectTypeRoute {
		set("instance_id", input.InstanceID)
	}

	objectID := strings.TrimSpace(input.InstanceID)
	if objectType == ObjectTypeRoute {
		objectID = firstNonEmpty(input.Route, input.Path, input.InstanceID)
	}
	if objectID == "" {
		objectID = objectType
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
