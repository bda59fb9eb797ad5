// Copyright 2026 The Skyward Authors
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"fmt"
	"strings"

	"github.com/skyward-networks/skyward/lib/entity"
)

// NotFoundError reports that a token matched nothing even after a
// forced refresh. Suggestions carries near-miss summaries when the
// fuzzy stage had sub-threshold candidates worth mentioning.
type NotFoundError struct {
	Token       string
	Kind        entity.Kind
	Suggestions []string
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("no %s matches %q", e.Kind, e.Token)
	if len(e.Suggestions) > 0 {
		msg += " (closest: " + strings.Join(e.Suggestions, ", ") + ")"
	}
	return msg
}

// AmbiguousError reports a multi-candidate result that was not
// narrowed to one, either because no interactive terminal is attached
// or because the user aborted the prompt. Candidates is the full
// stage result, best-first.
type AmbiguousError struct {
	Token      string
	Kind       entity.Kind
	Candidates []Match
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%q matches %d %ss; narrow the identifier or pick one interactively",
		e.Token, len(e.Candidates), e.Kind)
}
