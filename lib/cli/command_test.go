// Copyright 2026 The Skyward Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestCommand_Execute_DispatchesToSubcommand(t *testing.T) {
	var called string

	root := &Command{
		Name: "sky",
		Subcommands: []*Command{
			{
				Name: "version",
				Run: func(args []string) error {
					called = "version"
					return nil
				},
			},
			{
				Name: "cache",
				Run: func(args []string) error {
					called = "cache"
					return nil
				},
			},
		},
	}

	if err := root.Execute([]string{"cache"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "cache" {
		t.Errorf("dispatched to %q, want %q", called, "cache")
	}
}

func TestCommand_Execute_NestedSubcommands(t *testing.T) {
	var receivedArgs []string

	root := &Command{
		Name: "sky",
		Subcommands: []*Command{
			{
				Name: "show",
				Subcommands: []*Command{
					{
						Name: "devices",
						Run: func(args []string) error {
							receivedArgs = args
							return nil
						},
					},
				},
			},
		},
	}

	if err := root.Execute([]string{"show", "devices", "barn-ap"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if len(receivedArgs) != 1 || receivedArgs[0] != "barn-ap" {
		t.Errorf("leaf received args %v, want [barn-ap]", receivedArgs)
	}
}

func TestCommand_Execute_UnknownCommandSuggests(t *testing.T) {
	root := &Command{
		Name: "sky",
		Subcommands: []*Command{
			{Name: "resolve", Run: func([]string) error { return nil }},
			{Name: "refresh", Run: func([]string) error { return nil }},
		},
	}

	err := root.Execute([]string{"resovle"})
	if err == nil {
		t.Fatal("unknown command accepted")
	}
	if !strings.Contains(err.Error(), `"resolve"`) {
		t.Errorf("error lacks suggestion: %v", err)
	}
}

func TestCommand_Execute_ParsesFlags(t *testing.T) {
	var group string
	var positional []string

	command := &Command{
		Name: "devices",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("devices", pflag.ContinueOnError)
			flagSet.StringVar(&group, "group", "", "narrow to one group")
			return flagSet
		},
		Run: func(args []string) error {
			positional = args
			return nil
		},
	}

	if err := command.Execute([]string{"--group", "Branch", "barn-ap"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if group != "Branch" {
		t.Errorf("group = %q", group)
	}
	if len(positional) != 1 || positional[0] != "barn-ap" {
		t.Errorf("positional = %v", positional)
	}
}

func TestCommand_Execute_UnknownFlagSuggests(t *testing.T) {
	command := &Command{
		Name: "devices",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("devices", pflag.ContinueOnError)
			flagSet.String("group", "", "narrow to one group")
			return flagSet
		},
		Run: func(args []string) error { return nil },
	}

	err := command.Execute([]string{"--gruop", "Branch"})
	if err == nil {
		t.Fatal("unknown flag accepted")
	}
	if !strings.Contains(err.Error(), "--group") {
		t.Errorf("error lacks flag suggestion: %v", err)
	}
}

func TestCommand_PrintHelp(t *testing.T) {
	root := &Command{
		Name:    "sky",
		Summary: "Skyward network CLI",
		Subcommands: []*Command{
			{Name: "show", Summary: "list cached entities"},
			{Name: "cache", Summary: "inspect and manage the cache"},
		},
		Examples: []Example{
			{Description: "resolve a device", Command: "sky resolve device barn-ap"},
		},
	}

	var out bytes.Buffer
	root.PrintHelp(&out)
	help := out.String()
	for _, want := range []string{"show", "cache", "sky resolve device barn-ap", "Commands:"} {
		if !strings.Contains(help, want) {
			t.Errorf("help missing %q:\n%s", want, help)
		}
	}
}
