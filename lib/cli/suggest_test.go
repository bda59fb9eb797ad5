// Copyright 2026 The Skyward Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestEditDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"abc", "abd", 1},
		{"abc", "ab", 1},
		{"ab", "abc", 1},
		{"abc", "bac", 2},
		{"resolve", "resovle", 2},
		{"devices", "devcies", 2},
		{"refresh", "refersh", 2},
	}

	for _, test := range tests {
		t.Run(test.a+"/"+test.b, func(t *testing.T) {
			if got := editDistance(test.a, test.b); got != test.want {
				t.Errorf("editDistance(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
			}
			if reverse := editDistance(test.b, test.a); reverse != test.want {
				t.Errorf("editDistance not symmetric for (%q, %q): %d", test.a, test.b, reverse)
			}
		})
	}
}

func TestSuggestCommand(t *testing.T) {
	commands := []*Command{
		{Name: "resolve"},
		{Name: "show"},
		{Name: "cache"},
		{Name: "version"},
	}

	tests := []struct {
		input string
		want  string
	}{
		{"resovle", "resolve"},
		{"shwo", "show"},
		{"cahce", "cache"},
		{"completely-unrelated", ""},
	}
	for _, test := range tests {
		if got := suggestCommand(test.input, commands); got != test.want {
			t.Errorf("suggestCommand(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestSuggestFlag(t *testing.T) {
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flagSet.String("group", "", "")
	flagSet.Bool("force", false, "")

	if got := suggestFlag([]string{"--gruop", "Branch"}, flagSet); got != "--group" {
		t.Errorf("suggestFlag = %q, want --group", got)
	}
	if got := suggestFlag([]string{"--group", "Branch"}, flagSet); got != "" {
		t.Errorf("suggestFlag on defined flag = %q", got)
	}
	if got := suggestFlag([]string{"--zzzz"}, flagSet); got != "" {
		t.Errorf("suggestFlag on unrelated flag = %q", got)
	}
}
