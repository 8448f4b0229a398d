package stories

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"storyd/internal/config"
	"storyd/internal/core"
	"storyd/internal/engagement"
	"storyd/internal/ratelimit"
	"storyd/internal/visibility"
	"storyd/pkg/retry"
)

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 100
)

var (
	createdTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storyd_stories_created_total",
		Help: "Stories created.",
	})
)

// Service is the lifecycle orchestrator: it composes the rate limiter,
// visibility resolver, engagement recorder and stores into the operations the
// transport layer exposes. It returns outcomes, not mechanism.
type Service struct {
	Logger   *slog.Logger
	Config   *config.Config
	Limiter  *ratelimit.Limiter
	Resolver *visibility.Resolver
	Recorder *engagement.Recorder
	Stories  core.StoryRepository
	Media    core.MediaCleaner
	Clock    core.Clock
}

func (s *Service) Init(_ context.Context) error {
	s.Logger = s.Logger.With("component", "stories.Service")
	return nil
}

type CreateInput struct {
	AuthorID   string
	Text       string
	MediaKey   string
	Visibility core.Visibility
	Audience   []string
}

// Create persists a story expiring at now + TTL, after the rate limiter
// admits the attempt.
func (s *Service) Create(ctx context.Context, in CreateInput) (*core.Story, error) {
	if in.Text == "" && in.MediaKey == "" {
		return nil, fmt.Errorf("%w: story must have text or media", core.ErrInvalid)
	}
	if !in.Visibility.Valid() {
		return nil, fmt.Errorf("%w: unknown visibility %q", core.ErrInvalid, in.Visibility)
	}
	if len(in.Audience) > 0 && in.Visibility != core.VisibilityPrivate {
		return nil, fmt.Errorf("%w: audience list requires private visibility", core.ErrInvalid)
	}

	if err := s.Limiter.Admit(ctx, in.AuthorID, ratelimit.ActionCreateStory); err != nil {
		return nil, err
	}

	now := s.Clock.Now()
	story := &core.Story{
		ID:         uuid.NewString(),
		AuthorID:   in.AuthorID,
		Text:       in.Text,
		MediaKey:   in.MediaKey,
		Visibility: in.Visibility,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.Config.StoryTTL),
	}

	if err := s.Stories.Create(ctx, story, in.Audience); err != nil {
		return nil, err
	}

	createdTotal.Inc()
	s.Logger.Debug("story created", "story_id", story.ID, "expires_at", story.ExpiresAt)

	return story, nil
}

// Get returns the story if the viewer may see it. Denied and missing are the
// same ErrNotFound so unauthorized viewers learn nothing about existence.
func (s *Service) Get(ctx context.Context, viewerID, storyID string) (*core.Story, error) {
	story, err := s.Stories.GetByID(ctx, storyID)
	if err != nil {
		return nil, err
	}

	ok, err := s.Resolver.CanView(ctx, viewerID, story)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, core.ErrNotFound
	}

	return story, nil
}

// RecordView authorizes, rate-limits and records a view; the broadcast to the
// author happens inside the recorder when the view is new.
func (s *Service) RecordView(ctx context.Context, viewerID, storyID string) (bool, error) {
	if _, err := s.Get(ctx, viewerID, storyID); err != nil {
		return false, err
	}

	if err := s.Limiter.Admit(ctx, viewerID, ratelimit.ActionView); err != nil {
		return false, err
	}

	return s.Recorder.RecordView(ctx, storyID, viewerID)
}

// React authorizes, rate-limits and records a reaction.
func (s *Service) React(ctx context.Context, actorID, storyID string, kind core.ReactionKind) (bool, error) {
	if _, err := s.Get(ctx, actorID, storyID); err != nil {
		return false, err
	}

	if err := s.Limiter.Admit(ctx, actorID, ratelimit.ActionReact); err != nil {
		return false, err
	}

	return s.Recorder.RecordReaction(ctx, storyID, actorID, kind)
}

// Feed returns the page of live stories the viewer may see, newest first.
func (s *Service) Feed(ctx context.Context, viewerID string, limit, offset int) ([]core.Story, error) {
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}
	if offset < 0 {
		offset = 0
	}

	candidates, err := s.Stories.FeedCandidates(ctx, s.Clock.Now(), limit, offset)
	if err != nil {
		return nil, err
	}

	return s.Resolver.Filter(ctx, viewerID, candidates)
}

// Delete retires a story early. Only the author may do it; everyone else gets
// ErrNotFound. Deleting an already retired story is a no-op.
func (s *Service) Delete(ctx context.Context, actorID, storyID string) error {
	story, err := s.Stories.GetByID(ctx, storyID)
	if err != nil {
		return err
	}
	if story.AuthorID != actorID {
		return core.ErrNotFound
	}

	retired, err := s.Stories.Retire(ctx, storyID, s.Clock.Now())
	if err != nil {
		return err
	}
	if !retired {
		return nil
	}

	if err := s.Stories.PurgeEngagements(ctx, storyID); err != nil {
		s.Logger.Error("purging engagements", "story_id", storyID, "error", err)
	}

	if story.MediaKey != "" {
		err := retry.Do(ctx, 3, 100*time.Millisecond, func(ctx context.Context) error {
			return s.Media.Cleanup(ctx, story.MediaKey)
		})
		if err != nil {
			// The blob leaks until a manual cleanup; retirement stands.
			s.Logger.Error("media cleanup failed", "story_id", storyID, "error", err)
		}
	}

	return nil
}

// AuthorStats aggregates engagement over the author's stories created in the
// last `days` days.
func (s *Service) AuthorStats(ctx context.Context, authorID string, days int) (core.AuthorStats, error) {
	if days <= 0 {
		days = 7
	}

	since := s.Clock.Now().Add(-time.Duration(days) * 24 * time.Hour)
	return s.Stories.AuthorStats(ctx, authorID, since)
}
