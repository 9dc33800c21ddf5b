package activitymap_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-blogauth"
	"github.com/goliatone/go-blogauth/activitymap"
)

func TestNormalize_StatusChange(t *testing.T) {
	ts := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	event := auth.ActivityEvent{
		EventType:  auth.ActivityEventUserStatusChanged,
		Actor:      auth.ActorRef{ID: "cli", Type: "admin"},
		UserID:     "5d9c0b4e-0000-4000-8000-000000000001",
		FromStatus: auth.UserStatusActive,
		ToStatus:   auth.UserStatusDisabled,
		Metadata:   map[string]any{"reason": "spam"},
		OccurredAt: ts,
	}

	r := activitymap.Normalize(event)

	assert.Equal(t, "cli", r.ActorID)
	assert.Equal(t, activitymap.ChannelAccount, r.Channel)
	assert.Equal(t, "user", r.ObjectType)
	assert.Equal(t, event.UserID, r.ObjectID)
	assert.True(t, r.OccurredAt.Equal(ts))
	assert.Equal(t, map[string]any{
		"reason":                          "spam",
		activitymap.MetadataKeyActorType:  "admin",
		activitymap.MetadataKeyFromStatus: "active",
		activitymap.MetadataKeyToStatus:   "disabled",
	}, r.Metadata)

	assert.Len(t, event.Metadata, 1)
}

func TestNormalize_Objects(t *testing.T) {
	tests := []struct {
		name       string
		event      auth.ActivityEvent
		objectType string
		objectID   string
		channel    string
	}{
		{
			name: "blog delete denied",
			event: auth.ActivityEvent{
				EventType: auth.ActivityEventOwnershipDenied,
				UserID:    "bob",
				Metadata:  map[string]any{"resource": "blog", "resource_id": "blog-1"},
			},
			objectType: "blog", objectID: "blog-1", channel: activitymap.ChannelOwnership,
		},
		{
			name: "reading list update denied",
			event: auth.ActivityEvent{
				EventType: auth.ActivityEventOwnershipDenied,
				UserID:    "bob",
				Metadata:  map[string]any{"resource": "reading_list", "resource_id": "entry-1"},
			},
			objectType: "reading_list", objectID: "entry-1", channel: activitymap.ChannelOwnership,
		},
		{
			name: "session revoked by guard",
			event: auth.ActivityEvent{
				EventType: auth.ActivityEventSessionRevoked,
				UserID:    "ada",
				Metadata:  map[string]any{"session_id": "ses-1", "reason": "ACCOUNT_DISABLED"},
			},
			objectType: "session", objectID: "ses-1", channel: activitymap.ChannelGuard,
		},
		{
			name:       "logout",
			event:      auth.ActivityEvent{EventType: auth.ActivityEventLogout, UserID: "ada"},
			objectType: "user", objectID: "ada", channel: activitymap.ChannelSession,
		},
		{
			name:    "failed login for unknown user",
			event:   auth.ActivityEvent{EventType: auth.ActivityEventLoginFailure},
			channel: activitymap.ChannelSession,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := activitymap.Normalize(tt.event)
			assert.Equal(t, tt.objectType, r.ObjectType)
			assert.Equal(t, tt.objectID, r.ObjectID)
			assert.Equal(t, tt.channel, r.Channel)
		})
	}
}

func TestNormalize_Actor(t *testing.T) {
	assert.Equal(t, "actor", activitymap.Normalize(auth.ActivityEvent{Actor: auth.ActorRef{ID: "actor"}, UserID: "user"}).ActorID)
	assert.Equal(t, "user", activitymap.Normalize(auth.ActivityEvent{UserID: "user"}).ActorID)
	assert.Equal(t, activitymap.AnonymousActor, activitymap.Normalize(auth.ActivityEvent{}).ActorID)
}

func TestNormalize_KeepsExplicitActorType(t *testing.T) {
	r := activitymap.Normalize(auth.ActivityEvent{
		Actor:    auth.ActorRef{Type: "system"},
		Metadata: map[string]any{activitymap.MetadataKeyActorType: "guard"},
	})
	assert.Equal(t, "guard", r.Metadata[activitymap.MetadataKeyActorType])
	assert.False(t, r.OccurredAt.IsZero())
}

type captureLogger struct {
	info [][]any
	warn [][]any
}

func (c *captureLogger) Debug(string, ...any) {}
func (c *captureLogger) Error(string, ...any) {}
func (c *captureLogger) Info(_ string, args ...any) {
	c.info = append(c.info, args)
}
func (c *captureLogger) Warn(_ string, args ...any) {
	c.warn = append(c.warn, args)
}

func TestLogSink_Levels(t *testing.T) {
	ctx := context.Background()
	logger := &captureLogger{}
	sink := activitymap.NewLogSink(logger)

	require.NoError(t, sink.Record(ctx, auth.ActivityEvent{
		EventType: auth.ActivityEventLogout,
		UserID:    "user-7",
	}))
	require.NoError(t, sink.Record(ctx, auth.ActivityEvent{
		EventType: auth.ActivityEventOwnershipDenied,
		UserID:    "user-8",
		Metadata:  map[string]any{"resource": "blog", "resource_id": "blog-3"},
	}))

	require.Len(t, logger.info, 1)
	assert.Contains(t, logger.info[0], string(auth.ActivityEventLogout))
	assert.Contains(t, logger.info[0], "user-7")

	require.Len(t, logger.warn, 1)
	assert.Contains(t, logger.warn[0], activitymap.ChannelOwnership)
	assert.Contains(t, logger.warn[0], "blog-3")
}
