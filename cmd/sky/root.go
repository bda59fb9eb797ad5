// Copyright 2026 The Skyward Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/skyward-networks/skyward/lib/cli"
	"github.com/skyward-networks/skyward/lib/version"
)

// rootCommand builds the complete sky command tree.
func rootCommand() *cli.Command {
	return &cli.Command{
		Name: "sky",
		Description: `sky: Skyward network management CLI.

Inspect devices, sites, groups, templates, and labels through a
locally cached copy of the Skyward Cloud inventory. Identifiers are
fuzzy: names, serials, MACs (any notation), and IPs all resolve.`,
		Subcommands: []*cli.Command{
			showCommand(),
			resolveCommand(),
			cacheCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					fmt.Printf("sky %s\n", version.Full())
					return nil
				},
			},
		},
	}
}
