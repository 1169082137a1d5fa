package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/trustlog/cmd/app/commands"
	"github.com/allisson/trustlog/internal/app"
	"github.com/allisson/trustlog/internal/config"
)

func getAuthCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-operator",
			Usage: "Create an operator with a tenant membership",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "username",
					Aliases:  []string{"u"},
					Required: true,
					Usage:    "Operator username",
				},
				tenantFlag(),
				&cli.StringFlag{
					Name:    "role",
					Aliases: []string{"r"},
					Value:   "viewer",
					Usage:   "Role within the tenant: admin, staff or viewer",
				},
				&cli.StringFlag{
					Name:  "allowed-cidrs",
					Usage: "Comma-separated source networks the operator may log in from",
				},
				&cli.IntFlag{
					Name:  "valid-days",
					Value: 0,
					Usage: "Days until the account expires (0 never expires)",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				operatorUseCase, err := container.OperatorUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreateOperator(
					ctx,
					operatorUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("username"),
					cmd.String("tenant-id"),
					cmd.String("role"),
					cmd.String("allowed-cidrs"),
					int(cmd.Int("valid-days")),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "clean-expired-tokens",
			Usage: "Delete operator tokens that expired more than the given days ago",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "days",
					Aliases: []string{"d"},
					Value:   0,
					Usage:   "Delete tokens that expired more than this many days ago",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				tokenUseCase, err := container.TokenUseCase()
				if err != nil {
					return err
				}

				return commands.RunCleanExpiredTokens(
					ctx,
					tokenUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					int(cmd.Int("days")),
					cmd.String("format"),
				)
			},
		},
	}
}
