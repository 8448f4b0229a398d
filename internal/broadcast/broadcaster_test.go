package broadcast_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"storyd/internal/broadcast"
	"storyd/internal/config"
	"storyd/internal/core"
	"storyd/internal/core/coretest"
)

func newBroadcaster(t *testing.T, buffer int) (*broadcast.Broadcaster, *coretest.Publisher) {
	t.Helper()

	transport := coretest.NewPublisher()

	b := &broadcast.Broadcaster{
		Logger:    slog.New(slog.DiscardHandler),
		Config:    &config.Config{EventBuffer: buffer},
		Transport: transport,
	}
	require.NoError(t, b.Init(t.Context()))

	return b, transport
}

func event(storyID string) core.EngagementEvent {
	return core.EngagementEvent{
		Event:      core.EventStoryViewed,
		StoryID:    storyID,
		AuthorID:   "alice",
		ActorID:    "bob",
		OccurredAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestBroadcaster(t *testing.T) {
	t.Parallel()

	t.Run("delivers buffered events to the per-author subject", func(t *testing.T) {
		t.Parallel()

		b, transport := newBroadcaster(t, 16)

		b.Publish(event("s1"))
		b.Publish(event("s2"))

		// Run drains the buffer on shutdown, so a pre-canceled context is
		// enough to flush synchronously.
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		require.NoError(t, b.Run(ctx))

		payloads := transport.Payloads(broadcast.SubjectFor("alice"))
		require.Len(t, payloads, 2)

		var got core.EngagementEvent
		require.NoError(t, json.Unmarshal(payloads[0], &got))
		require.Equal(t, "s1", got.StoryID)
		require.Equal(t, core.EventStoryViewed, got.Event)
	})

	t.Run("full buffer drops instead of blocking", func(t *testing.T) {
		t.Parallel()

		b, transport := newBroadcaster(t, 1)

		done := make(chan struct{})
		go func() {
			defer close(done)
			b.Publish(event("s1"))
			b.Publish(event("s2"))
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Publish blocked on a full buffer")
		}

		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		require.NoError(t, b.Run(ctx))

		require.Len(t, transport.Payloads(broadcast.SubjectFor("alice")), 1)
	})

	t.Run("transport failure does not stop the drain", func(t *testing.T) {
		t.Parallel()

		b, transport := newBroadcaster(t, 16)
		transport.Err = core.ErrUnavailable

		b.Publish(event("s1"))

		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		require.NoError(t, b.Run(ctx))
	})
}
