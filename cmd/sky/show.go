// Copyright 2026 The Skyward Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/skyward-networks/skyward/lib/cli"
	"github.com/skyward-networks/skyward/lib/entity"
	"github.com/skyward-networks/skyward/lib/resolve"
)

// showParams are the flags for every show subcommand.
type showParams struct {
	sessionParams
	cli.JSONOutput
	Group      string `flag:"group" desc:"narrow to devices in one group"`
	Site       string `flag:"site" desc:"narrow to devices at one site"`
	DeviceType string `flag:"type" desc:"narrow to one device type (ap, gw, cx, sw)"`
	Refresh    bool   `flag:"refresh" desc:"force a cache refresh first"`
}

func (p *showParams) filters() resolve.Filters {
	return resolve.Filters{Group: p.Group, Site: p.Site, DeviceType: p.DeviceType}
}

func showCommand() *cli.Command {
	command := &cli.Command{
		Name:    "show",
		Summary: "List or look up cached entities",
	}
	for _, kind := range []entity.Kind{
		entity.KindDevice, entity.KindSite, entity.KindGroup,
		entity.KindTemplate, entity.KindLabel, entity.KindLicense,
		entity.KindEvent,
	} {
		command.Subcommands = append(command.Subcommands, showKindCommand(kind))
	}
	return command
}

func showKindCommand(kind entity.Kind) *cli.Command {
	params := &showParams{}
	plural := string(kind) + "s"
	command := &cli.Command{
		Name:    plural,
		Summary: fmt.Sprintf("List %s, or look one up by identifier", plural),
		Usage:   fmt.Sprintf("sky show %s [IDENTIFIER] [flags]", plural),
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams(plural, params)
		},
		Run: func(args []string) error {
			return runShow(kind, params, args)
		},
	}
	if kind == entity.KindDevice {
		command.Examples = []cli.Example{
			{Description: "every device", Command: "sky show devices"},
			{Description: "one device by MAC, any notation", Command: "sky show devices aa:bb:cc:dd:ee:ff"},
			{Description: "switches in one group", Command: "sky show devices --group Branch --type cx"},
		}
	}
	if kind == entity.KindEvent {
		command.Examples = []cli.Example{
			{Description: "recent events", Command: "sky show events"},
			{Description: "one event by ID", Command: "sky show events 9002"},
		}
	}
	return command
}

func runShow(kind entity.Kind, params *showParams, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("expected at most one identifier, got %d", len(args))
	}

	session, err := newSession(&params.sessionParams)
	if err != nil {
		return err
	}
	defer session.Close()

	ctx := context.Background()

	// A single identifier means resolve-and-show-one. Events and
	// licenses never fuzzy-match; they look up by exact natural key.
	if len(args) == 1 && args[0] != resolve.AllSentinel {
		var resolved entity.Entity
		if kind.Resolvable() {
			resolved, err = session.resolver.Resolve(ctx, args[0], kind, params.filters())
		} else {
			resolved, err = lookupByKey(ctx, session, kind, args[0])
		}
		if err != nil {
			return err
		}
		if done, err := params.EmitJSON(resolved); done {
			return err
		}
		printEntityDetail(&resolved)
		return nil
	}

	if _, err := session.coord.EnsureFresh(ctx, kind, params.Refresh); err != nil {
		return err
	}
	rows, err := session.store.Rows(ctx, kind)
	if err != nil {
		return err
	}
	filters := params.filters()
	kept := make([]entity.Entity, 0, len(rows))
	for i := range rows {
		if filters.Admit(&rows[i]) {
			kept = append(kept, rows[i])
		}
	}

	if done, err := params.EmitJSON(kept); done {
		return err
	}
	printEntityTable(kind, kept)
	return nil
}

// lookupByKey fetches one row by its exact natural key (event ID,
// license name). A miss forces one refresh and retries once, the same
// protocol the resolver uses for fuzzy kinds.
func lookupByKey(ctx context.Context, session *session, kind entity.Kind, key string) (entity.Entity, error) {
	if _, err := session.coord.EnsureFresh(ctx, kind, false); err != nil {
		return entity.Entity{}, err
	}
	row, found, err := session.store.Get(ctx, kind, key)
	if err != nil {
		return entity.Entity{}, err
	}
	if !found {
		if _, err := session.coord.EnsureFresh(ctx, kind, true); err != nil {
			return entity.Entity{}, err
		}
		row, found, err = session.store.Get(ctx, kind, key)
		if err != nil {
			return entity.Entity{}, err
		}
	}
	if !found {
		return entity.Entity{}, &resolve.NotFoundError{Token: key, Kind: kind}
	}
	return row, nil
}

// printEntityTable renders the kind-specific listing columns.
func printEntityTable(kind entity.Kind, rows []entity.Entity) {
	tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
	defer tw.Flush()

	switch kind {
	case entity.KindDevice:
		fmt.Fprintln(tw, "NAME\tTYPE\tSERIAL\tMAC\tIP\tGROUP\tSITE\tSTATUS")
		for i := range rows {
			e := &rows[i]
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				e.Name, e.Type, e.Serial, e.DisplayMAC(), e.IP, e.Group, e.Site, e.Status)
		}
	case entity.KindSite:
		fmt.Fprintln(tw, "NAME\tID\tCITY\tSTATE\tZIP")
		for i := range rows {
			e := &rows[i]
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", e.Name, e.ID, e.City, e.State, e.Zipcode)
		}
	case entity.KindTemplate:
		fmt.Fprintln(tw, "NAME\tGROUP\tTYPE\tMODEL\tVERSION")
		for i := range rows {
			e := &rows[i]
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.Name, e.Group, e.Type, e.Model, e.Version)
		}
	case entity.KindEvent:
		fmt.Fprintln(tw, "ID\tTYPE\tSERIAL\tDESCRIPTION")
		for i := range rows {
			e := &rows[i]
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.ID, e.Type, e.Serial, e.Name)
		}
	default:
		fmt.Fprintln(tw, "NAME\tTYPE\tSTATUS")
		for i := range rows {
			e := &rows[i]
			fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Name, e.Type, e.Status)
		}
	}
}

// printEntityDetail renders one resolved entity as a field list.
func printEntityDetail(e *entity.Entity) {
	tw := tabwriter.NewWriter(os.Stdout, 2, 0, 2, ' ', 0)
	defer tw.Flush()

	write := func(label, value string) {
		if value != "" {
			fmt.Fprintf(tw, "%s:\t%s\n", label, value)
		}
	}
	write("name", e.Name)
	write("kind", string(e.Kind))
	write("serial", e.Serial)
	write("mac", e.DisplayMAC())
	write("ip", e.IP)
	write("type", e.Type)
	write("group", e.Group)
	write("site", e.Site)
	write("status", e.Status)
	write("model", e.Model)
	write("version", e.Version)
	write("address", e.Address)
	write("city", e.City)
	write("state", e.State)
	if e.ID != 0 {
		fmt.Fprintf(tw, "id:\t%d\n", e.ID)
	}
}
