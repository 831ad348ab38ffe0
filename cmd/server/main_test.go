package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-charchat-auth"
	"github.com/goliatone/go-charchat-auth/activitymap"
)

func TestNewActivitySink(t *testing.T) {
	var got []activitymap.Normalized
	sink := newActivitySink(func(_ context.Context, record activitymap.Normalized) error {
		got = append(got, record)
		return nil
	})

	tests := []struct {
		name     string
		event    auth.ActivityEvent
		actorID  string
		objectID string
	}{
		{
			name: "registered account",
			event: auth.ActivityEvent{
				EventType: auth.ActivityEventAccountRegistered,
				Actor:     auth.ActorRef{ID: "acc-1", Type: "account"},
				AccountID: "acc-1",
			},
			actorID:  "acc-1",
			objectID: "acc-1",
		},
		{
			name: "failed login",
			event: auth.ActivityEvent{
				EventType: auth.ActivityEventLoginFailure,
				Actor:     auth.ActorRef{Type: "unknown"},
				Metadata:  map[string]any{"identifier": "alice01"},
			},
			actorID:  unauthenticatedActor,
			objectID: "alice01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got = nil
			require.NoError(t, sink.Record(context.Background(), tt.event))
			require.Len(t, got, 1)

			assert.Equal(t, activityChannel, got[0].Channel)
			assert.Equal(t, "account", got[0].ObjectType)
			assert.Equal(t, tt.actorID, got[0].ActorID)
			assert.Equal(t, tt.objectID, got[0].ObjectID)
			assert.Equal(t, string(tt.event.EventType), got[0].Verb)
		})
	}
}
