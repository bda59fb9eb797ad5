// Copyright 2026 The Skyward Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"
	"os"
	"reflect"
)

// JSONOutput adds --json support to a command's parameter struct by
// embedding:
//
//	type showParams struct {
//	    cli.JSONOutput
//	    Group string `flag:"group" desc:"narrow to one group"`
//	}
//
//	if done, err := params.EmitJSON(rows); done {
//	    return err
//	}
//	// text rendering follows
type JSONOutput struct {
	OutputJSON bool `flag:"json" desc:"output as JSON"`
}

// EmitJSON writes result as indented JSON to stdout when --json is
// set. Returns (true, nil) on success, (true, err) on write failure,
// and (false, nil) when the caller should render text instead. Nil
// slices serialize as [] rather than null.
func (j *JSONOutput) EmitJSON(result any) (bool, error) {
	if !j.OutputJSON {
		return false, nil
	}
	return true, WriteJSON(normalizeNilSlice(result))
}

// WriteJSON marshals value as indented JSON to stdout.
func WriteJSON(value any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func normalizeNilSlice(value any) any {
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Slice && v.IsNil() {
		return reflect.MakeSlice(v.Type(), 0, 0).Interface()
	}
	return value
}
