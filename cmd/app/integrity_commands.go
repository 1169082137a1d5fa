package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/trustlog/cmd/app/commands"
	"github.com/allisson/trustlog/internal/app"
	"github.com/allisson/trustlog/internal/config"
)

func getIntegrityCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "verify-signatures",
			Usage: "Verify the timestamp signatures of a tenant's records",
			Flags: []cli.Flag{
				tenantFlag(),
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				signingUseCase, err := container.SigningUseCase()
				if err != nil {
					return err
				}

				return commands.RunVerifySignatures(
					ctx,
					signingUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("tenant-id"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "verify-dossier-audit",
			Usage: "Verify the signed audit trail of a dossier",
			Flags: []cli.Flag{
				tenantFlag(),
				&cli.StringFlag{
					Name:     "dossier-id",
					Aliases:  []string{"d"},
					Required: true,
					Usage:    "Dossier ID (UUID)",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				dossierUseCase, err := container.DossierUseCase()
				if err != nil {
					return err
				}

				return commands.RunVerifyDossierAudit(
					ctx,
					dossierUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("tenant-id"),
					cmd.String("dossier-id"),
					cmd.String("format"),
				)
			},
		},
	}
}
