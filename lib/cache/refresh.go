// Copyright 2026 The Skyward Authors
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/zeebo/blake3"

	"github.com/skyward-networks/skyward/lib/clock"
	"github.com/skyward-networks/skyward/lib/cloudapi"
	"github.com/skyward-networks/skyward/lib/codec"
	"github.com/skyward-networks/skyward/lib/entity"
)

// Staleness thresholds. Device status churns, so its table goes stale
// fast; configuration objects change on human timescales; events are
// a live stream and only ever briefly cacheable.
const (
	maxAgeDevices = 3 * time.Hour
	maxAgeConfig  = 24 * time.Hour
	maxAgeEvents  = 5 * time.Minute
)

// DefaultMaxAge returns the built-in staleness threshold for kind.
func DefaultMaxAge(kind entity.Kind) time.Duration {
	switch kind {
	case entity.KindDevice:
		return maxAgeDevices
	case entity.KindEvent:
		return maxAgeEvents
	default:
		return maxAgeConfig
	}
}

// Outcome describes what a call to EnsureFresh did.
type Outcome struct {
	// Updated reports whether the table contents were replaced.
	Updated bool

	// Unchanged reports that a listing was fetched but its digest
	// matched the stored one, so only the timestamp was bumped.
	Unchanged bool

	// Rows is the row count after the call.
	Rows int
}

// Coordinator decides when a cache table needs refreshing and
// performs the refresh. At most one refresh per kind runs at a time;
// concurrent callers for the same kind wait on the in-flight refresh
// and share its result rather than issuing duplicate API fetches.
type Coordinator struct {
	store  *Store
	client cloudapi.Client
	clock  clock.Clock
	logger *slog.Logger
	maxAge map[entity.Kind]time.Duration

	leases leaseTable
}

// CoordinatorConfig holds the parameters for NewCoordinator.
type CoordinatorConfig struct {
	Store  *Store
	Client cloudapi.Client

	// Clock defaults to the store's clock.
	Clock clock.Clock

	// Logger receives refresh progress. Nil means discard.
	Logger *slog.Logger

	// MaxAge overrides the built-in staleness thresholds per kind.
	// A zero threshold means "always stale".
	MaxAge map[entity.Kind]time.Duration
}

// NewCoordinator builds a refresh coordinator over the given store
// and API client.
func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	clk := cfg.Clock
	if clk == nil {
		clk = cfg.Store.clock
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	maxAge := make(map[entity.Kind]time.Duration, len(entity.Kinds()))
	for _, kind := range entity.Kinds() {
		maxAge[kind] = DefaultMaxAge(kind)
	}
	for kind, age := range cfg.MaxAge {
		maxAge[kind] = age
	}

	return &Coordinator{
		store:  cfg.Store,
		client: cfg.Client,
		clock:  clk,
		logger: logger,
		maxAge: maxAge,
	}
}

// Stale reports whether kind's table needs refreshing: never fetched,
// empty, or older than its threshold.
func (c *Coordinator) Stale(ctx context.Context, kind entity.Kind) (bool, error) {
	age, fetched, err := c.store.Age(ctx, kind)
	if err != nil {
		return false, err
	}
	if !fetched {
		return true, nil
	}
	count, err := c.store.Count(ctx, kind)
	if err != nil {
		return false, err
	}
	if count == 0 {
		return true, nil
	}
	return age > c.maxAge[kind], nil
}

// EnsureFresh refreshes kind's table if it is stale, or
// unconditionally when force is set. When a refresh for the same kind
// is already in flight the call waits for it and adopts its result;
// a forced caller adopts it only if it actually fetched, otherwise it
// takes the lease and fetches itself.
//
// A refresh is all or nothing. Any page fetch failing, or any record
// failing to map, aborts the refresh with a *RefreshError and leaves
// the previous table contents intact.
func (c *Coordinator) EnsureFresh(ctx context.Context, kind entity.Kind, force bool) (Outcome, error) {
	if !kind.Valid() {
		return Outcome{}, fmt.Errorf("unknown cache kind %q", kind)
	}

	for {
		lease, leader := c.leases.acquire(kind)
		if leader {
			outcome, err := c.refresh(ctx, kind, force)
			lease.outcome, lease.err = outcome, err
			c.leases.release(kind, lease)
			return outcome, err
		}

		// Another goroutine is refreshing this kind; wait for it.
		select {
		case <-lease.done:
		case <-ctx.Done():
			return Outcome{}, ctx.Err()
		}
		if lease.err != nil || !force || lease.outcome.Updated || lease.outcome.Unchanged {
			return lease.outcome, lease.err
		}
		// The in-flight call was a staleness no-op, which does not
		// satisfy a forced caller. Take the lease and fetch.
	}
}

// AwaitIdle blocks until no refresh for kind is in flight. It does
// not trigger one. Callers that just wrote through the API use this
// to avoid racing a concurrent refresh that may not yet include their
// write.
func (c *Coordinator) AwaitIdle(ctx context.Context, kind entity.Kind) error {
	return c.leases.await(ctx, kind)
}

// refresh performs the actual fetch-map-swap for one kind. Only the
// lease holder runs this.
func (c *Coordinator) refresh(ctx context.Context, kind entity.Kind, force bool) (Outcome, error) {
	if !force {
		stale, err := c.Stale(ctx, kind)
		if err != nil {
			return Outcome{}, err
		}
		if !stale {
			count, err := c.store.Count(ctx, kind)
			if err != nil {
				return Outcome{}, err
			}
			return Outcome{Rows: count}, nil
		}
	}

	start := c.clock.Now()
	records, err := cloudapi.List(ctx, c.client, kind, cloudapi.ListFilter{})
	if err != nil {
		return Outcome{}, &RefreshError{Kind: kind, Err: err}
	}

	rows := make([]entity.Entity, 0, len(records))
	for _, record := range records {
		row, err := entity.FromRaw(kind, record)
		if err != nil {
			// A record the backend serves but we cannot key is
			// dropped, not fatal: one malformed record must not
			// make every identifier of its kind unresolvable.
			c.logger.Warn("skipping unmappable record", "kind", kind, "error", err)
			continue
		}
		rows = append(rows, row)
	}

	digest, err := listingDigest(rows)
	if err != nil {
		return Outcome{}, &RefreshError{Kind: kind, Err: err}
	}

	stored, err := c.store.Digest(ctx, kind)
	if err != nil {
		return Outcome{}, err
	}
	if stored != "" && stored == digest {
		if err := c.store.TouchRefreshed(ctx, kind); err != nil {
			return Outcome{}, err
		}
		c.logger.Debug("cache listing unchanged", "kind", kind, "rows", len(rows))
		return Outcome{Unchanged: true, Rows: len(rows)}, nil
	}

	if err := c.store.ReplaceAll(ctx, kind, rows, digest); err != nil {
		return Outcome{}, &RefreshError{Kind: kind, Err: err}
	}

	c.logger.Info("cache refreshed",
		"kind", kind,
		"rows", len(rows),
		"elapsed", c.clock.Now().Sub(start))
	return Outcome{Updated: true, Rows: len(rows)}, nil
}

// refreshAllWorkers bounds how many kinds RefreshAll fetches at once.
const refreshAllWorkers = 3

// RefreshAll refreshes every resolvable kind. Groups go first so that
// group-scoped template listings observe the current group set; the
// remaining kinds refresh concurrently. The first failure is returned,
// with whichever outcomes completed before it.
func (c *Coordinator) RefreshAll(ctx context.Context, force bool) (map[entity.Kind]Outcome, error) {
	outcomes := make(map[entity.Kind]Outcome)
	outcome, err := c.EnsureFresh(ctx, entity.KindGroup, force)
	if err != nil {
		return outcomes, err
	}
	outcomes[entity.KindGroup] = outcome

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)
	sem := make(chan struct{}, refreshAllWorkers)
	for _, kind := range entity.Kinds() {
		if kind == entity.KindGroup {
			continue
		}
		if kind == entity.KindEvent {
			// The event stream is fetched on demand, never in bulk.
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(kind entity.Kind) {
			defer wg.Done()
			defer func() { <-sem }()
			outcome, err := c.EnsureFresh(ctx, kind, force)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			outcomes[kind] = outcome
		}(kind)
	}
	wg.Wait()
	return outcomes, firstErr
}

// listingDigest hashes the canonical encoding of a listing, ordered
// by natural key, so two fetches of identical backend state produce
// identical digests regardless of page order.
func listingDigest(rows []entity.Entity) (string, error) {
	ordered := make([]entity.Entity, len(rows))
	copy(ordered, rows)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Key() < ordered[j].Key()
	})

	hasher := blake3.New()
	encoder := codec.NewEncoder(hasher)
	for i := range ordered {
		if err := encoder.Encode(&ordered[i]); err != nil {
			return "", fmt.Errorf("hashing listing: %w", err)
		}
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
