package engagement

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"storyd/internal/core"
)

var (
	engagementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storyd_engagements_total",
		Help: "Engagement records by type and outcome.",
	}, []string{"type", "outcome"})
)

// Recorder writes views and reactions exactly once per idempotency key and
// hands each genuinely new engagement to the broadcaster. Callers must have
// passed the visibility resolver already; the recorder only re-checks
// liveness, not visibility.
type Recorder struct {
	Logger      *slog.Logger
	Stories     core.StoryRepository
	Engagements core.EngagementRepository
	Broadcaster core.Broadcaster
	Clock       core.Clock
}

func (r *Recorder) Init(_ context.Context) error {
	r.Logger = r.Logger.With("component", "engagement.Recorder")
	return nil
}

// RecordView reports whether this viewer's view was new. Duplicates are not
// errors.
func (r *Recorder) RecordView(ctx context.Context, storyID, viewerID string) (bool, error) {
	story, err := r.liveStory(ctx, storyID)
	if err != nil {
		return false, err
	}

	now := r.Clock.Now()

	isNew, err := r.Engagements.InsertView(ctx, core.StoryView{
		StoryID:  storyID,
		ViewerID: viewerID,
		ViewedAt: now,
	})
	if err != nil {
		return false, err
	}

	engagementsTotal.WithLabelValues("view", outcome(isNew)).Inc()

	if isNew && viewerID != story.AuthorID {
		r.Broadcaster.Publish(core.EngagementEvent{
			Event:      core.EventStoryViewed,
			StoryID:    storyID,
			AuthorID:   story.AuthorID,
			ActorID:    viewerID,
			OccurredAt: now,
		})
	}

	return isNew, nil
}

// RecordReaction reports whether the (story, actor, kind) reaction was new.
func (r *Recorder) RecordReaction(ctx context.Context, storyID, actorID string, kind core.ReactionKind) (bool, error) {
	if !kind.Valid() {
		return false, fmt.Errorf("%w: unknown reaction kind %q", core.ErrInvalid, kind)
	}

	story, err := r.liveStory(ctx, storyID)
	if err != nil {
		return false, err
	}

	now := r.Clock.Now()

	isNew, err := r.Engagements.InsertReaction(ctx, core.Reaction{
		ID:        uuid.NewString(),
		StoryID:   storyID,
		ActorID:   actorID,
		Kind:      kind,
		CreatedAt: now,
	})
	if err != nil {
		return false, err
	}

	engagementsTotal.WithLabelValues("reaction", outcome(isNew)).Inc()

	if isNew && actorID != story.AuthorID {
		r.Broadcaster.Publish(core.EngagementEvent{
			Event:      core.EventStoryReacted,
			StoryID:    storyID,
			AuthorID:   story.AuthorID,
			ActorID:    actorID,
			Kind:       kind,
			OccurredAt: now,
		})
	}

	return isNew, nil
}

// liveStory distinguishes missing content from content past its lifecycle:
// engaging with retired or expired stories is a conflict, not a duplicate.
func (r *Recorder) liveStory(ctx context.Context, storyID string) (*core.Story, error) {
	story, err := r.Stories.GetByID(ctx, storyID)
	if err != nil {
		return nil, err
	}

	if story.Retired() || story.Expired(r.Clock.Now()) {
		return nil, core.ErrRetired
	}

	return story, nil
}

func outcome(isNew bool) string {
	if isNew {
		return "new"
	}
	return "duplicate"
}
