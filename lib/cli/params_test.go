// Copyright 2026 The Skyward Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
)

type testParams struct {
	JSONOutput
	Group   string        `flag:"group,g" desc:"narrow to one group"`
	Limit   int           `flag:"limit" desc:"max rows" default:"50"`
	Force   bool          `flag:"force" desc:"bypass staleness check"`
	MaxAge  time.Duration `flag:"max-age" desc:"staleness override" default:"3h"`
	Columns []string      `flag:"columns" desc:"columns to show"`

	ignored string
}

func TestBindFlags(t *testing.T) {
	var params testParams
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&params, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}

	args := []string{"-g", "Branch", "--limit", "10", "--force", "--json", "--columns", "name,serial"}
	if err := flagSet.Parse(args); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if params.Group != "Branch" {
		t.Errorf("Group = %q", params.Group)
	}
	if params.Limit != 10 {
		t.Errorf("Limit = %d", params.Limit)
	}
	if !params.Force || !params.OutputJSON {
		t.Errorf("bools not set: %+v", params)
	}
	if params.MaxAge != 3*time.Hour {
		t.Errorf("MaxAge default = %v, want 3h", params.MaxAge)
	}
	if len(params.Columns) != 2 || params.Columns[0] != "name" {
		t.Errorf("Columns = %v", params.Columns)
	}
}

func TestBindFlagsDefaults(t *testing.T) {
	var params testParams
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&params, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	if err := flagSet.Parse(nil); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if params.Limit != 50 || params.MaxAge != 3*time.Hour {
		t.Errorf("defaults not applied: %+v", params)
	}
}

func TestBindFlagsRejectsNonStruct(t *testing.T) {
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags("nope", flagSet); err == nil {
		t.Error("BindFlags accepted a non-pointer")
	}
	value := 3
	if err := BindFlags(&value, flagSet); err == nil {
		t.Error("BindFlags accepted a pointer to non-struct")
	}
}

func TestBindFlagsUnsupportedType(t *testing.T) {
	var params struct {
		Bad float32 `flag:"bad"`
	}
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&params, flagSet); err == nil {
		t.Error("BindFlags accepted float32")
	}
}
