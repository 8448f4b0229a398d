package cmd

import (
	"context"

	"storyd/internal/cmd/flags"
	"storyd/internal/core"
	"storyd/internal/media"
	"storyd/internal/metrics"
	"storyd/internal/persistence"
	storyrepo "storyd/internal/persistence/stories"
	"storyd/internal/sweeper"

	"github.com/urfave/cli/v3"
	"github.com/zhulik/pal"
)

var sweeperCmd = &cli.Command{
	Name:  "sweeper",
	Usage: "Run the expiration sweeper: retire expired stories and clean up after them",
	Flags: []cli.Flag{
		flags.DatabaseURL,
		flags.DBInit,
		flags.MediaURL,
		flags.MetricsAddr,
		flags.SweepInterval,
		flags.SweepBatch,
	},
	Action: func(ctx context.Context, c *cli.Command) error {
		return run(ctx, c,
			pal.Provide(&persistence.DB{}),
			pal.Provide[core.StoryRepository](&storyrepo.Repository{}),
			pal.Provide[core.MediaCleaner](&media.Cleaner{}),
			pal.Provide(&sweeper.Sweeper{}),
			pal.Provide(&metrics.Server{}),
		)
	},
}
