// Package activitymap flattens auth activity events into audit records
// keyed by channel and object, and logs them.
package activitymap

import (
	"maps"
	"strings"
	"time"

	auth "github.com/goliatone/go-blogauth"
)

// Metadata keys read from or added to ActivityEvent.Metadata
const (
	MetadataKeyActorType  = "actor_type"
	MetadataKeyFromStatus = "from_status"
	MetadataKeyToStatus   = "to_status"
	MetadataKeyResource   = "resource"
	MetadataKeyResourceID = "resource_id"
	MetadataKeySessionID  = "session_id"
)

// Channels group events by the subsystem that emitted them
const (
	ChannelSession   = "session"
	ChannelGuard     = "guard"
	ChannelOwnership = "ownership"
	ChannelAccount   = "account"
)

// AnonymousActor is used when an event has neither actor nor user, e.g. a
// failed login for an unknown username
const AnonymousActor = "anonymous"

var channels = map[auth.ActivityEventType]string{
	auth.ActivityEventLoginSuccess:      ChannelSession,
	auth.ActivityEventLoginFailure:      ChannelSession,
	auth.ActivityEventLogout:            ChannelSession,
	auth.ActivityEventGuardRejected:     ChannelGuard,
	auth.ActivityEventSessionRevoked:    ChannelGuard,
	auth.ActivityEventOwnershipDenied:   ChannelOwnership,
	auth.ActivityEventUserRegistered:    ChannelAccount,
	auth.ActivityEventUserStatusChanged: ChannelAccount,
}

// Record is the flattened form of an ActivityEvent
type Record struct {
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	Channel    string         `json:"channel"`
	ObjectType string         `json:"object_type,omitempty"`
	ObjectID   string         `json:"object_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Normalize maps event onto a Record. The object is the blog or reading
// list entry for ownership events, the session for revocations and the
// user otherwise.
func Normalize(event auth.ActivityEvent) Record {
	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	objectType, objectID := object(event)
	return Record{
		ActorID:    actor(event),
		Verb:       string(event.EventType),
		Channel:    Channel(event.EventType),
		ObjectType: objectType,
		ObjectID:   objectID,
		Metadata:   metadata(event),
		OccurredAt: occurredAt.UTC(),
	}
}

// Channel returns the channel for eventType, unknown types go to account
func Channel(eventType auth.ActivityEventType) string {
	if ch, ok := channels[eventType]; ok {
		return ch
	}
	return ChannelAccount
}

func actor(event auth.ActivityEvent) string {
	if id := strings.TrimSpace(event.Actor.ID); id != "" {
		return id
	}
	if id := strings.TrimSpace(event.UserID); id != "" {
		return id
	}
	return AnonymousActor
}

func object(event auth.ActivityEvent) (string, string) {
	if resource := metaString(event, MetadataKeyResource); resource != "" {
		if id := metaString(event, MetadataKeyResourceID); id != "" {
			return resource, id
		}
	}
	if event.EventType == auth.ActivityEventSessionRevoked {
		if id := metaString(event, MetadataKeySessionID); id != "" {
			return "session", id
		}
	}
	if id := strings.TrimSpace(event.UserID); id != "" {
		return "user", id
	}
	return "", ""
}

func metaString(event auth.ActivityEvent, key string) string {
	v, _ := event.Metadata[key].(string)
	return strings.TrimSpace(v)
}

// metadata copies the event metadata and adds actor type and status
// transition fields. The event's own map is never modified.
func metadata(event auth.ActivityEvent) map[string]any {
	out := maps.Clone(event.Metadata)
	set := func(key string, value string) {
		if value == "" {
			return
		}
		if out == nil {
			out = map[string]any{}
		}
		out[key] = value
	}

	if _, exists := out[MetadataKeyActorType]; !exists {
		set(MetadataKeyActorType, strings.TrimSpace(event.Actor.Type))
	}
	set(MetadataKeyFromStatus, string(event.FromStatus))
	set(MetadataKeyToStatus, string(event.ToStatus))
	return out
}
