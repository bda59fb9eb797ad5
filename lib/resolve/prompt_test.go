// Copyright 2026 The Skyward Authors
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"errors"
	"strings"
	"testing"

	"github.com/skyward-networks/skyward/lib/entity"
)

func promptCandidates() []Match {
	return []Match{
		{Entity: entity.Entity{Kind: entity.KindDevice, Name: "Lab-1", Serial: "CN11AA0011", Type: "ap"}, Stage: StageKey, Score: 1},
		{Entity: entity.Entity{Kind: entity.KindDevice, Name: "lab_1", Serial: "CN22BB0022", Type: "ap"}, Stage: StageKey, Score: 1},
	}
}

func TestPromptGateNonInteractive(t *testing.T) {
	gate := &PromptGate{Interactive: func() bool { return false }}

	_, err := gate.Choose("lab1", entity.KindDevice, promptCandidates())
	var ambiguous *AmbiguousError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("err = %v, want AmbiguousError", err)
	}
	if len(ambiguous.Candidates) != 2 {
		t.Errorf("candidates = %d, want 2", len(ambiguous.Candidates))
	}
}

func TestPromptGateSelection(t *testing.T) {
	var out strings.Builder
	gate := &PromptGate{
		In:          strings.NewReader("2\n"),
		Out:         &out,
		Interactive: func() bool { return true },
	}

	got, err := gate.Choose("lab1", entity.KindDevice, promptCandidates())
	if err != nil {
		t.Fatalf("Choose: %v", err)
	}
	if got.Name != "lab_1" {
		t.Errorf("chose %q, want lab_1", got.Name)
	}
	if !strings.Contains(out.String(), "CN11AA0011") {
		t.Error("candidate table missing serials")
	}
}

func TestPromptGateLoopsOnInvalidInput(t *testing.T) {
	var out strings.Builder
	gate := &PromptGate{
		In:          strings.NewReader("7\nnope\n0\n1\n"),
		Out:         &out,
		Interactive: func() bool { return true },
	}

	got, err := gate.Choose("lab1", entity.KindDevice, promptCandidates())
	if err != nil {
		t.Fatalf("Choose: %v", err)
	}
	if got.Name != "Lab-1" {
		t.Errorf("chose %q, want Lab-1", got.Name)
	}
	if strings.Count(out.String(), "Select 1-2") != 4 {
		t.Errorf("prompt did not loop per invalid input:\n%s", out.String())
	}
}

func TestPromptGateAbort(t *testing.T) {
	for _, input := range []string{"q\n", ""} {
		gate := &PromptGate{
			In:          strings.NewReader(input),
			Out:         &strings.Builder{},
			Interactive: func() bool { return true },
		}
		_, err := gate.Choose("lab1", entity.KindDevice, promptCandidates())
		var ambiguous *AmbiguousError
		if !errors.As(err, &ambiguous) {
			t.Fatalf("input %q: err = %v, want AmbiguousError", input, err)
		}
	}
}

func TestHighlightQuery(t *testing.T) {
	// A serial hit leaves the name untouched.
	if got := highlightQuery("CN11AA0011", "Lab-1"); got != "Lab-1" {
		t.Errorf("highlightQuery = %q", got)
	}
	// A name hit keeps the full text (styling may add escapes around
	// the matched run, never remove characters).
	got := highlightQuery("lab", "Lab-1")
	stripped := strings.Map(func(r rune) rune {
		if r < 32 {
			return -1
		}
		return r
	}, got)
	if !strings.Contains(stripped, "-1") || !strings.Contains(strings.ToLower(stripped), "lab") {
		t.Errorf("highlightQuery mangled the name: %q", got)
	}
}
