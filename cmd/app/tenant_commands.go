package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/trustlog/cmd/app/commands"
	"github.com/allisson/trustlog/internal/app"
	"github.com/allisson/trustlog/internal/config"
)

func getTenantCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-tenant",
			Usage: "Register a tenant",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "slug",
					Aliases:  []string{"s"},
					Required: true,
					Usage:    "URL slug used by the captive portal",
				},
				&cli.StringFlag{
					Name:     "name",
					Aliases:  []string{"n"},
					Required: true,
					Usage:    "Display name",
				},
				&cli.StringFlag{
					Name:  "consent-text",
					Usage: "Consent text shown on the portal landing page",
				},
				&cli.IntFlag{
					Name:  "retention-years",
					Value: 0,
					Usage: "Retention in years (0 keeps the statutory default)",
				},
				&cli.BoolFlag{
					Name:  "allow-foreign-identity",
					Value: false,
					Usage: "Accept passport identities on the portal",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				tenantUseCase, err := container.TenantUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreateTenant(
					ctx,
					tenantUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("slug"),
					cmd.String("name"),
					cmd.String("consent-text"),
					int(cmd.Int("retention-years")),
					cmd.Bool("allow-foreign-identity"),
					cmd.String("format"),
				)
			},
		},
	}
}
