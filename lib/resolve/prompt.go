// Copyright 2026 The Skyward Authors
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/skyward-networks/skyward/lib/entity"
)

// PromptGate is the interactive disambiguation gate: it renders the
// candidate table with the query portion of each name highlighted and
// loops on a numbered selection until the input is a valid index or
// the user aborts.
type PromptGate struct {
	// In and Out default to stdin and stderr. The prompt goes to
	// stderr so piped stdout (JSON output and the like) stays clean.
	In  io.Reader
	Out io.Writer

	// Interactive overrides terminal detection in tests. Nil means
	// "both stdin and stderr are terminals".
	Interactive func() bool
}

var (
	promptHeaderStyle = lipgloss.NewStyle().Bold(true)
	promptIndexStyle  = lipgloss.NewStyle().Faint(true)
	promptMatchStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	promptFieldStyle  = lipgloss.NewStyle().Faint(true)
)

// Choose implements Gate. When no interactive terminal is attached it
// returns *AmbiguousError immediately rather than blocking on a read
// that will never complete.
func (g *PromptGate) Choose(token string, kind entity.Kind, candidates []Match) (entity.Entity, error) {
	if !g.interactive() {
		return entity.Entity{}, &AmbiguousError{Token: token, Kind: kind, Candidates: candidates}
	}

	out := g.Out
	if out == nil {
		out = os.Stderr
	}
	in := g.In
	if in == nil {
		in = os.Stdin
	}

	fmt.Fprintf(out, "\n%s\n\n", promptHeaderStyle.Render(
		fmt.Sprintf("%q matches %d %ss:", token, len(candidates), kind)))
	for i, candidate := range candidates {
		fmt.Fprintf(out, "  %s %s\n",
			promptIndexStyle.Render(fmt.Sprintf("%2d.", i+1)),
			renderCandidate(token, &candidate.Entity))
	}
	fmt.Fprintln(out)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprintf(out, "Select 1-%d (q to abort): ", len(candidates))
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return entity.Entity{}, fmt.Errorf("reading selection: %w", err)
			}
			// EOF, treat as abort.
			return entity.Entity{}, &AmbiguousError{Token: token, Kind: kind, Candidates: candidates}
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "q" || input == "Q" {
			return entity.Entity{}, &AmbiguousError{Token: token, Kind: kind, Candidates: candidates}
		}
		index, err := strconv.Atoi(input)
		if err != nil || index < 1 || index > len(candidates) {
			fmt.Fprintf(out, "%q is not a choice between 1 and %d\n", input, len(candidates))
			continue
		}
		return candidates[index-1].Entity, nil
	}
}

func (g *PromptGate) interactive() bool {
	if g.Interactive != nil {
		return g.Interactive()
	}
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stderr.Fd()))
}

// renderCandidate formats one prompt row: the name with the queried
// substring highlighted, then the kind-specific detail fields dimmed.
func renderCandidate(token string, e *entity.Entity) string {
	name := highlightQuery(token, e.Name)

	var fields []string
	switch e.Kind {
	case entity.KindDevice:
		fields = append(fields, e.Type, e.Serial, e.DisplayMAC(), e.Site)
	case entity.KindSite:
		fields = append(fields, e.City, e.State, e.Zipcode)
	case entity.KindTemplate:
		fields = append(fields, e.Group, e.Type, e.Model, e.Version)
	case entity.KindGroup:
		fields = append(fields, e.Type)
	case entity.KindLabel, entity.KindLicense:
		fields = append(fields, e.Type, e.Status)
	}
	detail := joinFields(fields)
	if detail == "" {
		return name
	}
	return name + " " + promptFieldStyle.Render("("+detail+")")
}

// highlightQuery emphasizes the first case-insensitive occurrence of
// token inside name. No occurrence (a serial or MAC hit, say) renders
// the name unstyled.
func highlightQuery(token, name string) string {
	if token == "" {
		return name
	}
	start := strings.Index(strings.ToLower(name), strings.ToLower(token))
	if start < 0 {
		return name
	}
	end := start + len(token)
	return name[:start] + promptMatchStyle.Render(name[start:end]) + name[end:]
}

func joinFields(fields []string) string {
	var kept []string
	for _, field := range fields {
		if field != "" {
			kept = append(kept, field)
		}
	}
	return strings.Join(kept, ", ")
}
