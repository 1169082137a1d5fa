package main

import (
	"github.com/urfave/cli/v3"
)

func getCommands(version string) []*cli.Command {
	cmds := []*cli.Command{}
	cmds = append(cmds, getSystemCommands(version)...)
	cmds = append(cmds, getKeyCommands()...)
	cmds = append(cmds, getTenantCommands()...)
	cmds = append(cmds, getAuthCommands()...)
	cmds = append(cmds, getIntegrityCommands()...)
	return cmds
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "text",
		Usage:   "Output format: 'text' or 'json'",
	}
}

func tenantFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "tenant-id",
		Aliases:  []string{"t"},
		Required: true,
		Usage:    "Tenant ID (UUID)",
	}
}
