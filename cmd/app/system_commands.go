package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/trustlog/cmd/app/commands"
	"github.com/allisson/trustlog/internal/app"
	"github.com/allisson/trustlog/internal/config"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Start the HTTP API, syslog listeners and background jobs",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Run database migrations",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "dir",
					Value: "migrations",
					Usage: "Directory holding the postgresql and mysql migration sets",
				},
				&cli.IntFlag{
					Name:  "rollback",
					Usage: "Revert this many migrations instead of applying pending ones",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunMigrations(container.Logger(), commands.MigrateOptions{
					Driver:           cfg.DBDriver,
					ConnectionString: cfg.DBConnectionString,
					Dir:              cmd.String("dir"),
					RollbackSteps:    int(cmd.Int("rollback")),
				})
			},
		},
		{
			Name:  "run-archive",
			Usage: "Archive a tenant's records that passed their archive threshold",
			Flags: []cli.Flag{
				tenantFlag(),
				&cli.StringFlag{
					Name:    "kind",
					Aliases: []string{"k"},
					Value:   "all",
					Usage:   "Record kind: session, syslog, flow or all",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				retentionUseCase, err := container.RetentionUseCase()
				if err != nil {
					return err
				}

				return commands.RunArchive(
					ctx,
					retentionUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("tenant-id"),
					cmd.String("kind"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "run-cleanup",
			Usage: "Delete a tenant's archived records whose retention expired",
			Flags: []cli.Flag{
				tenantFlag(),
				&cli.StringFlag{
					Name:    "kind",
					Aliases: []string{"k"},
					Value:   "all",
					Usage:   "Record kind: session, syslog, flow or all",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				retentionUseCase, err := container.RetentionUseCase()
				if err != nil {
					return err
				}

				return commands.RunCleanup(
					ctx,
					retentionUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("tenant-id"),
					cmd.String("kind"),
					cmd.String("format"),
				)
			},
		},
	}
}
