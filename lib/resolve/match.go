// Copyright 2026 The Skyward Authors
// SPDX-License-Identifier: Apache-2.0

// Package resolve maps user-supplied identifier tokens to cached
// entities. The match engine runs staged comparisons over a cache
// table, the resolver wraps it with the refresh-and-retry protocol,
// and the disambiguation gate turns a multi-candidate result into a
// single user-confirmed entity.
package resolve

import (
	"sort"
	"strings"

	"github.com/skyward-networks/skyward/lib/entity"
	"github.com/skyward-networks/skyward/lib/netid"
)

// Stage identifies which comparison produced a match. Stages run in
// order and the first stage with any hits wins outright; results from
// different stages are never mixed.
type Stage int

const (
	StageNone Stage = iota

	// StageExact compares identifier fields byte for byte.
	StageExact

	// StageFold compares identifier fields case-insensitively.
	StageFold

	// StageKey compares with case folded and hyphens and underscores
	// stripped, so "Lab-1" and "lab_1" collide.
	StageKey

	// StageFuzzy is the wildcard stage: prefix matches on the folded
	// key first, then edit-distance ranking above a similarity
	// threshold.
	StageFuzzy
)

func (s Stage) String() string {
	switch s {
	case StageExact:
		return "exact"
	case StageFold:
		return "case-insensitive"
	case StageKey:
		return "normalized"
	case StageFuzzy:
		return "fuzzy"
	}
	return "none"
}

// fuzzyThreshold is the minimum Levenshtein ratio for a stage-4
// similarity hit. 0.7 tracks the original tooling this replaces,
// which accepted fuzzy scores of 70 and up.
const fuzzyThreshold = 0.7

// Match is one candidate with the stage (and for the fuzzy stage,
// the similarity score) that produced it.
type Match struct {
	Entity entity.Entity
	Stage  Stage

	// Score is the Levenshtein ratio for fuzzy matches, 1 otherwise.
	Score float64
}

// Filters narrow the candidate pool before any stage runs. Empty
// fields do not constrain. Narrowing compares display names, which is
// all the cache rows carry for cross-references.
type Filters struct {
	Group      string
	Site       string
	DeviceType string
}

// Admit reports whether e passes the filters.
func (f Filters) Admit(e *entity.Entity) bool {
	if f.Group != "" && !strings.EqualFold(f.Group, e.Group) {
		return false
	}
	if f.Site != "" && !strings.EqualFold(f.Site, e.Site) {
		return false
	}
	if f.DeviceType != "" && !strings.EqualFold(f.DeviceType, e.Type) {
		return false
	}
	return true
}

// AllSentinel is the literal token that selects every device. Only
// the device kind honors it; everywhere else it is an ordinary name.
const AllSentinel = "all"

// probe is the preprocessed form of a token: the comparison values
// derived once before scanning the pool.
type probe struct {
	raw string
	key string // netid.MatchKey(raw)

	// mac is the canonical MAC when the token parses as one, else "".
	mac string

	// macPrefix is the partial canonical fold for MAC-shaped prefixes.
	macPrefix string

	// ip is the token with any CIDR suffix stripped, when IP-shaped.
	ip string
}

// newProbe preprocesses token. A token in unmistakable MAC notation
// (colon or dot separated hex) that fails to parse is rejected with
// *netid.InvalidFormatError rather than silently falling through to
// name matching.
func newProbe(token string) (probe, error) {
	p := probe{raw: token, key: netid.MatchKey(token)}

	if netid.LooksLikeIP(token) {
		// Dotted IPv4 is hex-and-dots too; IP shape takes precedence
		// over MAC notation.
		p.ip = netid.StripCIDR(token)
		return p, nil
	}
	if canonical, err := netid.NormalizeMAC(token); err == nil {
		p.mac = canonical
	} else if looksLikeMAC(token) {
		return probe{}, err
	}
	if prefix, ok := netid.MACPrefix(token); ok {
		p.macPrefix = prefix
	}
	return p, nil
}

// looksLikeMAC reports whether the token is in unambiguous MAC
// notation: separator groups of hex digits using colons or dots.
// Bare hex and hyphenated strings are excluded since those collide
// with names and serials.
func looksLikeMAC(token string) bool {
	if !strings.ContainsAny(token, ":.") {
		return false
	}
	for _, r := range token {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		case r == ':' || r == '.' || r == '-':
		default:
			return false
		}
	}
	// A partial dotted-decimal address ("10.0.0") reads as hex groups
	// too; it matches IP fields by prefix instead of failing as a MAC.
	return !dottedDecimal(token)
}

// dottedDecimal reports whether the token is dot-separated groups of
// one to three decimal digits, the shape of a complete or partial
// IPv4 address. Dot-grouped MACs use four hex digits per group and do
// not qualify.
func dottedDecimal(token string) bool {
	if strings.ContainsAny(token, ":-") {
		return false
	}
	for _, group := range strings.Split(token, ".") {
		if len(group) == 0 || len(group) > 3 {
			return false
		}
		for _, r := range group {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}

// Run executes the staged match of token against pool. The result
// carries every candidate from the first stage that produced any,
// best-first within the fuzzy stage. An empty token matches nothing;
// the "all" sentinel returns the whole (filtered) device pool.
func Run(token string, kind entity.Kind, pool []entity.Entity, filters Filters) ([]Match, error) {
	candidates := make([]entity.Entity, 0, len(pool))
	for i := range pool {
		if filters.Admit(&pool[i]) {
			candidates = append(candidates, pool[i])
		}
	}

	if token == "" {
		return nil, nil
	}
	if token == AllSentinel && kind == entity.KindDevice {
		matches := make([]Match, len(candidates))
		for i := range candidates {
			matches[i] = Match{Entity: candidates[i], Stage: StageExact, Score: 1}
		}
		return matches, nil
	}

	p, err := newProbe(token)
	if err != nil {
		return nil, err
	}

	if matches := scanStage(candidates, p, StageExact); len(matches) > 0 {
		return matches, nil
	}
	if matches := scanStage(candidates, p, StageFold); len(matches) > 0 {
		return matches, nil
	}
	if matches := scanStage(candidates, p, StageKey); len(matches) > 0 {
		return matches, nil
	}
	return fuzzyStage(candidates, p), nil
}

// identityValues returns the fields a token may name for this kind.
// The IP participates in every stage in its CIDR-stripped string
// form. The MAC is excluded here; it is compared in canonical form
// against the probe's parsed MAC instead.
func identityValues(e *entity.Entity) []string {
	values := []string{e.Name}
	if e.Serial != "" {
		values = append(values, e.Serial)
	}
	if e.IP != "" {
		values = append(values, netid.StripCIDR(e.IP))
	}
	if e.ID != 0 {
		values = append(values, e.Key())
	}
	return values
}

// scanStage collects every candidate that hits at the given stage.
func scanStage(candidates []entity.Entity, p probe, stage Stage) []Match {
	var matches []Match
	for i := range candidates {
		if stageHit(&candidates[i], p, stage) {
			matches = append(matches, Match{Entity: candidates[i], Stage: stage, Score: 1})
		}
	}
	return matches
}

func stageHit(e *entity.Entity, p probe, stage Stage) bool {
	// The canonical MAC and a CIDR-suffixed token's address part are
	// exact by construction and compared in the first stage only; the
	// IP string itself runs through every stage as an identity value.
	if stage == StageExact {
		if p.mac != "" && p.mac == e.MAC {
			return true
		}
		if p.ip != "" && e.IP != "" && p.ip == netid.StripCIDR(e.IP) {
			return true
		}
	}
	for _, value := range identityValues(e) {
		if value == "" {
			continue
		}
		switch stage {
		case StageExact:
			if value == p.raw {
				return true
			}
		case StageFold:
			if strings.EqualFold(value, p.raw) {
				return true
			}
		case StageKey:
			if netid.MatchKey(value) == p.key {
				return true
			}
		}
	}
	return false
}

// fuzzyStage implements the trailing-wildcard stage: prefix hits on
// the folded identity keys take the whole stage; only when there are
// none does edit-distance ranking run, keeping candidates at or above
// the similarity threshold, best-first.
func fuzzyStage(candidates []entity.Entity, p probe) []Match {
	var prefixHits []Match
	for i := range candidates {
		if fuzzyPrefixHit(&candidates[i], p) {
			prefixHits = append(prefixHits, Match{Entity: candidates[i], Stage: StageFuzzy, Score: 1})
		}
	}
	if len(prefixHits) > 0 {
		return prefixHits
	}

	var ranked []Match
	for i := range candidates {
		score := levenshteinRatio(p.key, netid.MatchKey(candidates[i].Name))
		if score >= fuzzyThreshold {
			ranked = append(ranked, Match{Entity: candidates[i], Stage: StageFuzzy, Score: score})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Entity.Name < ranked[j].Entity.Name
	})
	return ranked
}

func fuzzyPrefixHit(e *entity.Entity, p probe) bool {
	if p.macPrefix != "" && e.MAC != "" && strings.HasPrefix(e.MAC, p.macPrefix) {
		return true
	}
	for _, value := range identityValues(e) {
		if value != "" && strings.HasPrefix(netid.MatchKey(value), p.key) {
			return true
		}
	}
	return false
}

// levenshteinRatio maps edit distance to a similarity in [0, 1]:
// identical strings score 1, entirely different strings 0.
func levenshteinRatio(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	longest := max(len(a), len(b))
	return 1 - float64(levenshtein(a, b))/float64(longest)
}

// levenshtein computes the edit distance between two strings using a
// single reusable row of the distance matrix.
func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	if len(a) > len(b) {
		a, b = b, a
	}

	previous := make([]int, len(a)+1)
	for i := range previous {
		previous[i] = i
	}
	for j := 1; j <= len(b); j++ {
		current := make([]int, len(a)+1)
		current[0] = j
		for i := 1; i <= len(a); i++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			current[i] = min(previous[i]+1, min(current[i-1]+1, previous[i-1]+cost))
		}
		previous = current
	}
	return previous[len(a)]
}
