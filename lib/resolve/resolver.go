// Copyright 2026 The Skyward Authors
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/skyward-networks/skyward/lib/cache"
	"github.com/skyward-networks/skyward/lib/entity"
	"github.com/skyward-networks/skyward/lib/netid"
)

// Gate turns a multi-candidate match into a single entity, usually by
// prompting the user. Implementations return *AmbiguousError when no
// interactive choice is possible.
type Gate interface {
	Choose(token string, kind entity.Kind, candidates []Match) (entity.Entity, error)
}

// Resolver is the façade the CLI commands call: staged matching over
// the cache with refresh-on-miss and prompt-on-ambiguity.
type Resolver struct {
	store  *cache.Store
	coord  *cache.Coordinator
	gate   Gate
	logger *slog.Logger
}

// Config holds the collaborators for NewResolver.
type Config struct {
	Store       *cache.Store
	Coordinator *cache.Coordinator

	// Gate handles ambiguity. Nil means every multi-candidate result
	// is an *AmbiguousError.
	Gate Gate

	// Logger receives stage traces at debug level. Nil means discard.
	Logger *slog.Logger
}

// NewResolver builds a resolver over the given cache.
func NewResolver(cfg Config) *Resolver {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{
		store:  cfg.Store,
		coord:  cfg.Coordinator,
		gate:   cfg.Gate,
		logger: logger,
	}
}

// Resolve maps token to exactly one entity of the given kind.
//
// The cache is consulted first, refreshed only when its staleness
// threshold says so. A token that matches nothing forces one full
// refresh and retries the match once; still nothing is a
// *NotFoundError. Multiple candidates go through the gate; without
// one the caller receives *AmbiguousError. A token in unmistakable
// MAC notation that does not parse fails immediately with
// *netid.InvalidFormatError, no refresh.
func (r *Resolver) Resolve(ctx context.Context, token string, kind entity.Kind, filters Filters) (entity.Entity, error) {
	matches, err := r.Search(ctx, token, kind, filters)
	if err != nil {
		return entity.Entity{}, err
	}

	switch len(matches) {
	case 0:
		return entity.Entity{}, &NotFoundError{
			Token:       token,
			Kind:        kind,
			Suggestions: r.NearMisses(ctx, token, kind, filters),
		}
	case 1:
		r.logger.Debug("resolved",
			"token", token, "kind", kind,
			"stage", matches[0].Stage.String(), "key", matches[0].Entity.Key())
		return matches[0].Entity, nil
	}

	if r.gate == nil {
		return entity.Entity{}, &AmbiguousError{Token: token, Kind: kind, Candidates: matches}
	}
	return r.gate.Choose(token, kind, matches)
}

// Search runs the staged match with the refresh-and-retry protocol
// but without disambiguation: the caller gets every candidate of the
// winning stage. Used by listing commands and by Resolve.
func (r *Resolver) Search(ctx context.Context, token string, kind entity.Kind, filters Filters) ([]Match, error) {
	if !kind.Resolvable() {
		return nil, fmt.Errorf("%s identifiers cannot be resolved", kind)
	}

	// An empty token matches nothing; no refresh can change that.
	if token == "" {
		return nil, nil
	}

	// Malformed-by-notation tokens fail before any store or API
	// traffic.
	if _, err := newProbe(token); err != nil {
		return nil, err
	}

	// A refresh may be mid-swap from a concurrent command; wait it
	// out so we match against settled rows.
	if err := r.coord.AwaitIdle(ctx, kind); err != nil {
		return nil, err
	}
	if _, err := r.coord.EnsureFresh(ctx, kind, false); err != nil {
		// The prior table is intact but answering from it would hide
		// the outage; the caller decides whether to retry.
		return nil, err
	}

	matches, err := r.matchOnce(ctx, token, kind, filters)
	if err != nil || len(matches) > 0 {
		return matches, err
	}

	// Miss: the entity may have been created since the last refresh.
	// Force one fetch and retry from stage 1, once.
	r.logger.Debug("cache miss, forcing refresh", "token", token, "kind", kind)
	if _, err := r.coord.EnsureFresh(ctx, kind, true); err != nil {
		return nil, err
	}
	return r.matchOnce(ctx, token, kind, filters)
}

func (r *Resolver) matchOnce(ctx context.Context, token string, kind entity.Kind, filters Filters) ([]Match, error) {
	rows, err := r.store.Rows(ctx, kind)
	if err != nil {
		return nil, err
	}
	return Run(token, kind, rows, filters)
}

// NearMisses collects up to three sub-threshold fuzzy candidates to
// put in a NotFoundError, so the "not found" message can still point
// somewhere useful.
func (r *Resolver) NearMisses(ctx context.Context, token string, kind entity.Kind, filters Filters) []string {
	rows, err := r.store.Rows(ctx, kind)
	if err != nil {
		return nil
	}
	key := netid.MatchKey(token)

	type scored struct {
		summary string
		score   float64
	}
	var near []scored
	for i := range rows {
		if !filters.Admit(&rows[i]) {
			continue
		}
		score := levenshteinRatio(key, netid.MatchKey(rows[i].Name))
		if score >= 0.4 {
			near = append(near, scored{summary: rows[i].Summary(), score: score})
		}
	}
	if len(near) == 0 {
		return nil
	}
	for i := 1; i < len(near); i++ {
		for j := i; j > 0 && near[j].score > near[j-1].score; j-- {
			near[j], near[j-1] = near[j-1], near[j]
		}
	}
	if len(near) > 3 {
		near = near[:3]
	}
	suggestions := make([]string, len(near))
	for i, n := range near {
		suggestions[i] = n.summary
	}
	return suggestions
}
