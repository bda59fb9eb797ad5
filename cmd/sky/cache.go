// Copyright 2026 The Skyward Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/skyward-networks/skyward/lib/cache"
	"github.com/skyward-networks/skyward/lib/cli"
	"github.com/skyward-networks/skyward/lib/entity"
)

type cacheParams struct {
	sessionParams
	cli.JSONOutput
}

func cacheCommand() *cli.Command {
	return &cli.Command{
		Name:    "cache",
		Summary: "Inspect and manage the local identifier cache",
		Subcommands: []*cli.Command{
			cacheShowCommand(),
			cacheRefreshCommand(),
			cacheClearCommand(),
		},
	}
}

func cacheShowCommand() *cli.Command {
	params := &cacheParams{}
	return &cli.Command{
		Name:    "show",
		Summary: "Show per-kind row counts and ages",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("show", params)
		},
		Run: func(args []string) error {
			session, err := newSession(&params.sessionParams)
			if err != nil {
				return err
			}
			defer session.Close()

			stats, sizeBytes, err := session.store.Stats(context.Background())
			if err != nil {
				return err
			}

			if done, err := params.EmitJSON(struct {
				Tables    []cache.TableStats `json:"tables"`
				SizeBytes int64              `json:"size_bytes"`
				Path      string             `json:"path"`
			}{stats, sizeBytes, session.store.Path()}); done {
				return err
			}

			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(tw, "KIND\tROWS\tAGE")
			for _, s := range stats {
				age := "never"
				if s.EverFetched {
					age = s.Age.Truncate(time.Second).String()
				}
				fmt.Fprintf(tw, "%s\t%d\t%s\n", s.Kind, s.Rows, age)
			}
			tw.Flush()
			fmt.Printf("\n%s (%d KiB)\n", session.store.Path(), sizeBytes/1024)
			return nil
		},
	}
}

type cacheRefreshParams struct {
	sessionParams
	Force bool `flag:"force" desc:"re-fetch even when tables are fresh"`
}

func cacheRefreshCommand() *cli.Command {
	params := &cacheRefreshParams{}
	return &cli.Command{
		Name:    "refresh",
		Summary: "Re-fetch stale tables from the backend",
		Usage:   "sky cache refresh [KIND] [--force]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("refresh", params)
		},
		Run: func(args []string) error {
			if len(args) > 1 {
				return fmt.Errorf("expected at most one kind, got %d arguments", len(args))
			}
			session, err := newSession(&params.sessionParams)
			if err != nil {
				return err
			}
			defer session.Close()

			ctx := context.Background()
			if len(args) == 1 {
				kind, err := entity.ParseKind(args[0])
				if err != nil {
					return err
				}
				outcome, err := session.coord.EnsureFresh(ctx, kind, params.Force)
				if err != nil {
					return err
				}
				printOutcome(kind, outcome)
				return nil
			}

			outcomes, err := session.coord.RefreshAll(ctx, params.Force)
			if err != nil {
				return err
			}
			for _, kind := range entity.Kinds() {
				if outcome, ok := outcomes[kind]; ok {
					printOutcome(kind, outcome)
				}
			}
			return nil
		},
	}
}

func printOutcome(kind entity.Kind, outcome cache.Outcome) {
	state := "fresh"
	switch {
	case outcome.Updated:
		state = "updated"
	case outcome.Unchanged:
		state = "unchanged"
	}
	fmt.Printf("%-10s %-9s %d rows\n", kind, state, outcome.Rows)
}

func cacheClearCommand() *cli.Command {
	params := &cacheParams{}
	return &cli.Command{
		Name:    "clear",
		Summary: "Drop cached rows (next command re-fetches)",
		Usage:   "sky cache clear [KIND]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("clear", params)
		},
		Run: func(args []string) error {
			if len(args) > 1 {
				return fmt.Errorf("expected at most one kind, got %d arguments", len(args))
			}
			session, err := newSession(&params.sessionParams)
			if err != nil {
				return err
			}
			defer session.Close()

			ctx := context.Background()
			if len(args) == 1 {
				kind, err := entity.ParseKind(args[0])
				if err != nil {
					return err
				}
				if err := session.store.Clear(ctx, kind); err != nil {
					return err
				}
				fmt.Printf("%s cache cleared\n", kind)
				return nil
			}
			if err := session.store.ClearAll(ctx); err != nil {
				if !errors.Is(err, cache.ErrCorrupt) {
					return err
				}
				// A damaged file cannot be cleared row by row;
				// rebuild it from scratch instead.
				rebuilt, rerr := session.store.Rebuild()
				if rerr != nil {
					return rerr
				}
				session.store = rebuilt
			}
			fmt.Println("cache cleared")
			return nil
		},
	}
}
