// Copyright 2026 The Skyward Authors
// SPDX-License-Identifier: Apache-2.0

// Package netid canonicalizes the loose identifiers users type on the
// command line: MAC addresses in any common notation, names with
// inconsistent separators and case, and IP-shaped tokens. The match
// engine and the cache both normalize through this package so that a
// device cached as "AA:BB:CC:DD:EE:FF" is found when the user types
// "aabb.ccdd.eeff".
//
// Everything here is a free function over plain strings.
package netid

import (
	"fmt"
	"net/netip"
	"strings"
)

// InvalidFormatError reports a token that was recognized as a MAC
// address attempt but cannot be a valid MAC.
type InvalidFormatError struct {
	// Input is the raw token as the user typed it.
	Input string
	// Reason explains what disqualified it.
	Reason string
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid MAC address %q: %s", e.Input, e.Reason)
}

// NormalizeMAC canonicalizes a MAC address expressed in any of the
// common notations — colon (aa:bb:cc:dd:ee:ff), hyphen
// (aa-bb-cc-dd-ee-ff), dot-grouped (aabb.ccdd.eeff), or bare
// (aabbccddeeff) — to twelve upper-case hex digits with no
// separators. Returns an *InvalidFormatError if the stripped token is
// not exactly twelve hex digits.
func NormalizeMAC(raw string) (string, error) {
	stripped, ok := stripMAC(raw)
	if !ok {
		return "", &InvalidFormatError{Input: raw, Reason: "contains non-hex characters"}
	}
	if len(stripped) != 12 {
		return "", &InvalidFormatError{
			Input:  raw,
			Reason: fmt.Sprintf("%d hex digits, want 12", len(stripped)),
		}
	}
	return stripped, nil
}

// MACPrefix folds a partial MAC the same way NormalizeMAC folds a full
// one, without the length check. It is used for prefix matching: a
// user can type the first half of a MAC in any notation. The second
// return is false when the token contains characters that can never
// appear in a MAC, meaning it should not be treated as a MAC fragment
// at all.
func MACPrefix(raw string) (string, bool) {
	stripped, ok := stripMAC(raw)
	if !ok || stripped == "" || len(stripped) > 12 {
		return "", false
	}
	return stripped, true
}

// stripMAC removes the separator characters permitted in MAC notation
// and upper-cases the rest. Returns false if any remaining character
// is not a hex digit.
func stripMAC(raw string) (string, bool) {
	var builder strings.Builder
	builder.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r == ':' || r == '-' || r == '.':
			continue
		case r >= '0' && r <= '9':
			builder.WriteRune(r)
		case r >= 'a' && r <= 'f':
			builder.WriteRune(r - ('a' - 'A'))
		case r >= 'A' && r <= 'F':
			builder.WriteRune(r)
		default:
			return "", false
		}
	}
	return builder.String(), true
}

// FormatMAC renders a canonical 12-digit MAC in colon notation for
// display. Inputs that are not canonical are returned unchanged.
func FormatMAC(canonical string) string {
	if len(canonical) != 12 {
		return canonical
	}
	parts := make([]string, 0, 6)
	for i := 0; i < 12; i += 2 {
		parts = append(parts, canonical[i:i+2])
	}
	return strings.Join(parts, ":")
}

// MatchKey folds a name-like identifier for separator-insensitive
// comparison: lower-cased with hyphens and underscores removed.
// "Lab-1", "lab_1", and "LAB1" all share the key "lab1".
func MatchKey(raw string) string {
	var builder strings.Builder
	builder.Grow(len(raw))
	for _, r := range strings.ToLower(raw) {
		if r == '-' || r == '_' {
			continue
		}
		builder.WriteRune(r)
	}
	return builder.String()
}

// LooksLikeIP reports whether the token parses as an IPv4 or IPv6
// address. Tokens with a CIDR suffix ("10.0.0.5/24") are checked
// against the address part only, matching how device records carry
// their IP.
func LooksLikeIP(token string) bool {
	address := token
	if slash := strings.IndexByte(address, '/'); slash >= 0 {
		address = address[:slash]
	}
	_, err := netip.ParseAddr(address)
	return err == nil
}

// StripCIDR removes a trailing /prefix-length from an address string,
// if present. Cached device IPs sometimes carry one.
func StripCIDR(address string) string {
	if slash := strings.IndexByte(address, '/'); slash >= 0 {
		return address[:slash]
	}
	return address
}
