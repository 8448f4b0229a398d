package cmd

import (
	"context"

	"storyd/internal/cmd/flags"
	"storyd/internal/core"
	"storyd/internal/persistence"

	"github.com/urfave/cli/v3"
	"github.com/zhulik/pal"
)

var migrateCmd = &cli.Command{
	Name:  "migrate",
	Usage: "Apply or roll back database schema migrations",
	Commands: []*cli.Command{
		{
			Name:  "up",
			Usage: "Apply all pending migrations",
			Flags: []cli.Flag{
				flags.DatabaseURL,
			},
			Action: func(ctx context.Context, c *cli.Command) error {
				return run(ctx, c,
					pal.Provide(&persistence.DB{}),
					pal.Provide[core.Migrator](&persistence.Migrator{}),
					pal.Provide(&persistence.MigrationUpRunner{}),
				)
			},
		},
		{
			Name:  "down",
			Usage: "Roll back the latest migration",
			Flags: []cli.Flag{
				flags.DatabaseURL,
			},
			Action: func(ctx context.Context, c *cli.Command) error {
				return run(ctx, c,
					pal.Provide(&persistence.DB{}),
					pal.Provide[core.Migrator](&persistence.Migrator{}),
					pal.Provide(&persistence.MigrationDownRunner{}),
				)
			},
		},
	},
}
