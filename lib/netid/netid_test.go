// Copyright 2026 The Skyward Authors
// SPDX-License-Identifier: Apache-2.0

package netid

import (
	"errors"
	"testing"
)

func TestNormalizeMACNotations(t *testing.T) {
	// Every common notation of the same address folds to one
	// canonical string.
	inputs := []string{
		"aa:bb:cc:dd:ee:ff",
		"AA:BB:CC:DD:EE:FF",
		"aa-bb-cc-dd-ee-ff",
		"aabb.ccdd.eeff",
		"aabbccddeeff",
		"AABBCCDDEEFF",
		"aabbcc-ddeeff",
	}
	const want = "AABBCCDDEEFF"

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			got, err := NormalizeMAC(input)
			if err != nil {
				t.Fatalf("NormalizeMAC(%q): %v", input, err)
			}
			if got != want {
				t.Errorf("NormalizeMAC(%q) = %q, want %q", input, got, want)
			}
		})
	}
}

func TestNormalizeMACInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"too short", "aa:bb:cc"},
		{"too long", "aa:bb:cc:dd:ee:ff:00"},
		{"non-hex", "zz:bb:cc:dd:ee:ff"},
		{"hostname", "lab-switch-1"},
		{"spaces", "aa bb cc dd ee ff"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := NormalizeMAC(test.input)
			if err == nil {
				t.Fatalf("NormalizeMAC(%q) succeeded, want error", test.input)
			}
			var formatErr *InvalidFormatError
			if !errors.As(err, &formatErr) {
				t.Errorf("NormalizeMAC(%q) error = %T, want *InvalidFormatError", test.input, err)
			}
		})
	}
}

func TestMACPrefix(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"aa:bb", "AABB", true},
		{"aabb.cc", "AABBCC", true},
		{"AA-BB-CC-DD", "AABBCCDD", true},
		{"aabbccddeeff", "AABBCCDDEEFF", true},
		{"lab-1", "", false},          // 'l' is not hex
		{"", "", false},               // nothing left after stripping
		{"::", "", false},             // separators only
		{"aabbccddeeff00", "", false}, // longer than a MAC
	}

	for _, test := range tests {
		got, ok := MACPrefix(test.input)
		if got != test.want || ok != test.ok {
			t.Errorf("MACPrefix(%q) = (%q, %v), want (%q, %v)",
				test.input, got, ok, test.want, test.ok)
		}
	}
}

func TestFormatMAC(t *testing.T) {
	if got := FormatMAC("AABBCCDDEEFF"); got != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("FormatMAC = %q, want AA:BB:CC:DD:EE:FF", got)
	}
	// Non-canonical input passes through.
	if got := FormatMAC("not-a-mac"); got != "not-a-mac" {
		t.Errorf("FormatMAC passthrough = %q", got)
	}
}

func TestMatchKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Lab-1", "lab1"},
		{"lab_1", "lab1"},
		{"LAB1", "lab1"},
		{"6200F-Bot", "6200fbot"},
		{"already lower", "already lower"},
		{"", ""},
	}

	for _, test := range tests {
		if got := MatchKey(test.input); got != test.want {
			t.Errorf("MatchKey(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestLooksLikeIP(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"10.0.0.5", true},
		{"10.0.0.5/24", true},
		{"fe80::1", true},
		{"256.1.1.1", false},
		{"lab-switch", false},
		{"", false},
	}

	for _, test := range tests {
		if got := LooksLikeIP(test.input); got != test.want {
			t.Errorf("LooksLikeIP(%q) = %v, want %v", test.input, got, test.want)
		}
	}
}

func TestStripCIDR(t *testing.T) {
	if got := StripCIDR("10.0.0.5/24"); got != "10.0.0.5" {
		t.Errorf("StripCIDR = %q", got)
	}
	if got := StripCIDR("10.0.0.5"); got != "10.0.0.5" {
		t.Errorf("StripCIDR passthrough = %q", got)
	}
}
