package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"storyd/internal/config"
	"storyd/internal/core"
	"storyd/pkg/async"
	"storyd/pkg/retry"
)

const retireConcurrency = 4

var (
	retiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storyd_stories_retired_total",
		Help: "Stories retired by the expiration sweeper.",
	})

	cleanupFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storyd_media_cleanup_failures_total",
		Help: "Media cleanup instructions that failed after retries.",
	})

	sweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "storyd_sweep_duration_seconds",
		Help:    "Duration of a full sweep run.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	})
)

// Sweeper retires stories past their TTL. It holds no state between runs and
// is safe to run from several instances at once: the conditional update in
// Retire is the only concurrency guard needed.
type Sweeper struct {
	Logger  *slog.Logger
	Config  *config.Config
	Stories core.StoryRepository
	Media   core.MediaCleaner
	Clock   core.Clock
}

func (s *Sweeper) Init(_ context.Context) error {
	s.Logger = s.Logger.With("component", "sweeper.Sweeper")
	return nil
}

func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.Config.SweepInterval)
	defer ticker.Stop()

	for {
		if err := s.Sweep(ctx); err != nil {
			// Batch fetch failures are retried on the next tick.
			s.Logger.Error("sweep failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Sweep retires expired stories in bounded batches, oldest first, until no
// candidates remain or half the interval is spent.
func (s *Sweeper) Sweep(ctx context.Context) error {
	started := time.Now()
	defer func() {
		sweepDuration.Observe(time.Since(started).Seconds())
	}()

	deadline := s.Clock.Now().Add(s.Config.SweepInterval / 2)

	for {
		batch, err := s.Stories.ExpiredBatch(ctx, s.Clock.Now(), s.Config.SweepBatchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		ch := make(chan core.Story)
		go func() {
			defer close(ch)
			for _, story := range batch {
				ch <- story
			}
		}()

		// retireOne never returns an error; per-item failures are logged so
		// one bad story cannot abort the batch.
		if err := async.WorkerPool(ctx, retireConcurrency, ch, s.retireOne); err != nil {
			return err
		}

		if len(batch) < s.Config.SweepBatchSize {
			return nil
		}
		if s.Clock.Now().After(deadline) {
			s.Logger.Warn("sweep budget exceeded, yielding until next tick")
			return nil
		}
	}
}

func (s *Sweeper) retireOne(ctx context.Context, story core.Story) error {
	retired, err := s.Stories.Retire(ctx, story.ID, s.Clock.Now())
	if err != nil {
		s.Logger.Error("retiring story", "story_id", story.ID, "error", err)
		return nil
	}
	if !retired {
		// Another sweeper instance won the transition.
		return nil
	}

	retiredTotal.Inc()
	s.Logger.Debug("story retired", "story_id", story.ID, "expired_at", story.ExpiresAt)

	if err := s.Stories.PurgeEngagements(ctx, story.ID); err != nil {
		s.Logger.Error("purging engagements", "story_id", story.ID, "error", err)
	}

	// Media cleanup is best-effort: its failure never reverses retirement.
	if story.MediaKey != "" {
		err := retry.Do(ctx, 3, 100*time.Millisecond, func(ctx context.Context) error {
			return s.Media.Cleanup(ctx, story.MediaKey)
		})
		if err != nil {
			cleanupFailures.Inc()
			s.Logger.Error("media cleanup failed", "story_id", story.ID, "error", err)
		}
	}

	return nil
}
