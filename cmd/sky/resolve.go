// Copyright 2026 The Skyward Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/skyward-networks/skyward/lib/cli"
	"github.com/skyward-networks/skyward/lib/entity"
	"github.com/skyward-networks/skyward/lib/resolve"
)

type resolveParams struct {
	sessionParams
	cli.JSONOutput
	Group      string `flag:"group" desc:"narrow to one group"`
	Site       string `flag:"site" desc:"narrow to one site"`
	DeviceType string `flag:"type" desc:"narrow to one device type"`
}

// resolveCommand maps an identifier to exactly one entity and prints
// its natural key, for scripting:
//
//	serial=$(sky resolve device barn-ap)
func resolveCommand() *cli.Command {
	params := &resolveParams{}
	return &cli.Command{
		Name:    "resolve",
		Summary: "Resolve an identifier to exactly one entity",
		Usage:   "sky resolve KIND IDENTIFIER [flags]",
		Description: `Resolve a fuzzy identifier to exactly one entity.

KIND is one of: device, site, group, template, label. The identifier
may be a name, serial, MAC in any notation, IP, or a prefix or near
match of a name. Prints the entity's natural key on stdout; with
--json, prints the full record.

Ambiguity prompts for a choice on a terminal. In scripts (or with
--non-interactive) it prints the candidates to stderr and exits 2.`,
		Examples: []cli.Example{
			{Description: "device by name prefix", Command: "sky resolve device 6200F-Bot"},
			{Description: "site by backend ID", Command: "sky resolve site 42"},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("resolve", params)
		},
		Run: func(args []string) error {
			return runResolve(params, args)
		},
	}
}

func runResolve(params *resolveParams, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("expected KIND and IDENTIFIER, got %d args", len(args))
	}
	kind, err := entity.ParseKind(args[0])
	if err != nil {
		return err
	}

	session, err := newSession(&params.sessionParams)
	if err != nil {
		return err
	}
	defer session.Close()

	ctx := context.Background()
	token := args[1]
	filters := resolve.Filters{
		Group:      params.Group,
		Site:       params.Site,
		DeviceType: params.DeviceType,
	}

	matches, err := session.resolver.Search(ctx, token, kind, filters)
	if err != nil {
		return err
	}

	var resolved entity.Entity
	switch len(matches) {
	case 0:
		return &resolve.NotFoundError{
			Token:       token,
			Kind:        kind,
			Suggestions: session.resolver.NearMisses(ctx, token, kind, filters),
		}
	case 1:
		resolved = matches[0].Entity
	default:
		if session.gate != nil {
			resolved, err = session.gate.Choose(token, kind, matches)
		} else {
			err = &resolve.AmbiguousError{Token: token, Kind: kind, Candidates: matches}
		}
		if err != nil {
			var ambiguous *resolve.AmbiguousError
			if errors.As(err, &ambiguous) {
				// Scripted callers get the candidate list on stderr
				// and a distinct exit code, not a prompt.
				fmt.Fprintf(os.Stderr, "%v\n", ambiguous)
				for _, candidate := range ambiguous.Candidates {
					fmt.Fprintf(os.Stderr, "  %s\n", candidate.Entity.Summary())
				}
				return &cli.ExitError{Code: 2}
			}
			return err
		}
	}

	// Stages never mix, so the stage of any candidate is the stage of
	// the match.
	stage := matches[0].Stage
	if done, err := params.EmitJSON(struct {
		Token  string        `json:"token"`
		Kind   string        `json:"kind"`
		Stage  string        `json:"stage"`
		Entity entity.Entity `json:"entity"`
	}{token, string(kind), stage.String(), resolved}); done {
		return err
	}
	fmt.Fprintf(os.Stderr, "matched %s via %s\n", resolved.Summary(), stage)
	fmt.Println(resolved.Key())
	return nil
}
