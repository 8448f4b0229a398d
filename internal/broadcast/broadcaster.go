package broadcast

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"storyd/internal/config"
	"storyd/internal/core"
)

var (
	eventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storyd_events_published_total",
		Help: "Engagement events handed to the transport.",
	}, []string{"event"})

	eventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storyd_events_dropped_total",
		Help: "Engagement events dropped because the buffer was full.",
	})
)

// Broadcaster decouples the write path from the subscription transport:
// Publish enqueues without blocking and Run drains the queue to NATS.
// Delivery is at-most-once; a full buffer drops the event.
type Broadcaster struct {
	Logger    *slog.Logger
	Config    *config.Config
	Transport core.Publisher

	ch chan core.EngagementEvent
}

func (b *Broadcaster) Init(_ context.Context) error {
	b.Logger = b.Logger.With("component", "broadcast.Broadcaster")
	b.ch = make(chan core.EngagementEvent, b.Config.EventBuffer)
	return nil
}

// Publish never blocks: a slow or stuck transport cannot stall engagement
// recording.
func (b *Broadcaster) Publish(event core.EngagementEvent) {
	select {
	case b.ch <- event:
	default:
		eventsDropped.Inc()
		b.Logger.Warn("event buffer full, dropping", "event", event.Event, "story_id", event.StoryID)
	}
}

func (b *Broadcaster) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			b.drain()
			return nil
		case event := <-b.ch:
			b.send(event)
		}
	}
}

// drain flushes whatever is already buffered at shutdown, then stops.
func (b *Broadcaster) drain() {
	for {
		select {
		case event := <-b.ch:
			b.send(event)
		default:
			return
		}
	}
}

func (b *Broadcaster) send(event core.EngagementEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		b.Logger.Error("marshaling event", "error", err)
		return
	}

	if err := b.Transport.Publish(SubjectFor(event.AuthorID), payload); err != nil {
		b.Logger.Warn("publishing event", "event", event.Event, "error", err)
		return
	}

	eventsPublished.WithLabelValues(event.Event).Inc()
}

// SubjectFor is the per-author subject the author's live connections
// subscribe to.
func SubjectFor(authorID string) string {
	return "stories.events." + authorID
}
