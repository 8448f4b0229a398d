package cmd

import (
	"context"

	"storyd/internal/broadcast"
	"storyd/internal/cmd/flags"
	"storyd/internal/core"
	"storyd/internal/engagement"
	"storyd/internal/media"
	"storyd/internal/metrics"
	"storyd/internal/nats"
	"storyd/internal/persistence"
	"storyd/internal/persistence/engagements"
	"storyd/internal/persistence/follows"
	storyrepo "storyd/internal/persistence/stories"
	"storyd/internal/ratelimit"
	"storyd/internal/redis"
	"storyd/internal/stories"
	"storyd/internal/visibility"

	"github.com/urfave/cli/v3"
	"github.com/zhulik/pal"
)

var serverCmd = &cli.Command{
	Name:  "server",
	Usage: "Run the story lifecycle services: orchestrator, recorder, limiter, broadcaster",
	Flags: []cli.Flag{
		flags.DatabaseURL,
		flags.DBInit,
		flags.RedisURL,
		flags.NATSURL,
		flags.MediaURL,
		flags.MetricsAddr,
		flags.StoryTTL,
		flags.RateWindow,
		flags.RateLimitStories,
		flags.RateLimitReactions,
		flags.RateLimitViews,
		flags.RateFailOpen,
		flags.EventBuffer,
	},
	Action: func(ctx context.Context, c *cli.Command) error {
		return run(ctx, c,
			pal.Provide(&persistence.DB{}),
			pal.Provide[core.StoryRepository](&storyrepo.Repository{}),
			pal.Provide[core.EngagementRepository](&engagements.Repository{}),
			pal.Provide[core.FollowRepository](&follows.Repository{}),
			pal.Provide[core.Counter](&redis.Client{}),
			pal.Provide[core.Publisher](&nats.NATS{}),
			pal.Provide[core.MediaCleaner](&media.Cleaner{}),
			pal.Provide[core.Broadcaster](&broadcast.Broadcaster{}),
			pal.Provide(&visibility.Resolver{}),
			pal.Provide(&engagement.Recorder{}),
			pal.Provide(&ratelimit.Limiter{}),
			pal.Provide(&stories.Service{}),
			pal.Provide(&metrics.Server{}),
			pal.Provide(&metrics.Collector{}),
		)
	},
}
