// Copyright 2026 The Skyward Authors
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/skyward-networks/skyward/lib/cache"
	"github.com/skyward-networks/skyward/lib/clock"
	"github.com/skyward-networks/skyward/lib/cloudapi"
	"github.com/skyward-networks/skyward/lib/entity"
	"github.com/skyward-networks/skyward/lib/netid"
)

func testResolver(t *testing.T, fake *cloudapi.Fake, gate Gate) (*Resolver, *cache.Coordinator) {
	t.Helper()
	store, err := cache.OpenStore(cache.StoreConfig{
		Path:  filepath.Join(t.TempDir(), "cache.db"),
		Clock: clock.Fake(time.Now()),
	})
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	coord := cache.NewCoordinator(cache.CoordinatorConfig{Store: store, Client: fake})
	return NewResolver(Config{Store: store, Coordinator: coord, Gate: gate}), coord
}

func record(name, serial string) cloudapi.RawRecord {
	return cloudapi.RawRecord{"name": name, "serial": serial, "type": "ap"}
}

func TestResolveSingleMatch(t *testing.T) {
	ctx := context.Background()
	fake := cloudapi.NewFake()
	fake.SetListing(entity.KindDevice, []cloudapi.RawRecord{
		record("barn-ap", "CN11AA0011"),
		record("cafe-ap", "CN22BB0022"),
	})
	resolver, _ := testResolver(t, fake, nil)

	got, err := resolver.Resolve(ctx, "barn-ap", entity.KindDevice, Filters{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Serial != "CN11AA0011" {
		t.Errorf("resolved %+v", got)
	}
}

func TestResolveRefreshesOnMissThenFinds(t *testing.T) {
	ctx := context.Background()
	fake := cloudapi.NewFake()
	fake.SetListing(entity.KindDevice, []cloudapi.RawRecord{record("old-ap", "CN11AA0011")})
	resolver, coord := testResolver(t, fake, nil)

	// Populate the cache so it is fresh, then change the backend.
	if _, err := coord.EnsureFresh(ctx, entity.KindDevice, true); err != nil {
		t.Fatalf("EnsureFresh: %v", err)
	}
	fake.SetListing(entity.KindDevice, []cloudapi.RawRecord{
		record("old-ap", "CN11AA0011"),
		record("new-ap", "CN22BB0022"),
	})

	got, err := resolver.Resolve(ctx, "new-ap", entity.KindDevice, Filters{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Serial != "CN22BB0022" {
		t.Errorf("resolved %+v", got)
	}
	// One listing for the initial populate, one forced by the miss.
	if listings := fake.Listings(entity.KindDevice); listings != 2 {
		t.Errorf("backend served %d listings, want 2", listings)
	}
}

func TestResolveNotFoundRetriesOnlyOnce(t *testing.T) {
	ctx := context.Background()
	fake := cloudapi.NewFake()
	fake.SetListing(entity.KindDevice, []cloudapi.RawRecord{record("barn-ap", "CN11AA0011")})
	resolver, _ := testResolver(t, fake, nil)

	_, err := resolver.Resolve(ctx, "zzglorb", entity.KindDevice, Filters{})
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
	if notFound.Token != "zzglorb" || notFound.Kind != entity.KindDevice {
		t.Errorf("NotFoundError = %+v", notFound)
	}
	// Initial populate plus exactly one forced retry.
	if listings := fake.Listings(entity.KindDevice); listings != 2 {
		t.Errorf("backend served %d listings, want 2", listings)
	}
}

func TestResolveNotFoundCarriesSuggestions(t *testing.T) {
	ctx := context.Background()
	fake := cloudapi.NewFake()
	fake.SetListing(entity.KindDevice, []cloudapi.RawRecord{record("barn-ap", "CN11AA0011")})
	resolver, _ := testResolver(t, fake, nil)

	_, err := resolver.Resolve(ctx, "barn-pa", entity.KindDevice, Filters{})
	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		if len(notFound.Suggestions) == 0 {
			t.Error("near-miss produced no suggestions")
		}
		return
	}
	// "barn-pa" may clear the fuzzy threshold instead; either a
	// resolution or a suggestion-bearing NotFound is acceptable.
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
}

func TestResolveAmbiguousWithoutGate(t *testing.T) {
	ctx := context.Background()
	fake := cloudapi.NewFake()
	fake.SetListing(entity.KindDevice, []cloudapi.RawRecord{
		record("Lab-1", "CN11AA0011"),
		record("lab_1", "CN22BB0022"),
	})
	resolver, _ := testResolver(t, fake, nil)

	_, err := resolver.Resolve(ctx, "lab1", entity.KindDevice, Filters{})
	var ambiguous *AmbiguousError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("err = %v, want AmbiguousError", err)
	}
	if len(ambiguous.Candidates) != 2 {
		t.Errorf("candidates = %d, want 2", len(ambiguous.Candidates))
	}
}

// gateFunc adapts a function to the Gate interface.
type gateFunc func(token string, kind entity.Kind, candidates []Match) (entity.Entity, error)

func (f gateFunc) Choose(token string, kind entity.Kind, candidates []Match) (entity.Entity, error) {
	return f(token, kind, candidates)
}

func TestResolveAmbiguousGoesThroughGate(t *testing.T) {
	ctx := context.Background()
	fake := cloudapi.NewFake()
	fake.SetListing(entity.KindDevice, []cloudapi.RawRecord{
		record("Lab-1", "CN11AA0011"),
		record("lab_1", "CN22BB0022"),
	})

	picked := false
	gate := gateFunc(func(token string, kind entity.Kind, candidates []Match) (entity.Entity, error) {
		picked = true
		if len(candidates) != 2 {
			t.Errorf("gate received %d candidates", len(candidates))
		}
		return candidates[1].Entity, nil
	})
	resolver, _ := testResolver(t, fake, gate)

	got, err := resolver.Resolve(ctx, "lab1", entity.KindDevice, Filters{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !picked {
		t.Fatal("gate was bypassed")
	}
	if got.Name != "lab_1" {
		t.Errorf("gate choice ignored, got %q", got.Name)
	}
}

func TestResolveInvalidMACFailsBeforeAnyFetch(t *testing.T) {
	ctx := context.Background()
	fake := cloudapi.NewFake()
	resolver, _ := testResolver(t, fake, nil)

	_, err := resolver.Resolve(ctx, "aa:bb:cc", entity.KindDevice, Filters{})
	var formatErr *netid.InvalidFormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("err = %v, want InvalidFormatError", err)
	}
	if calls := fake.Calls(entity.KindDevice); calls != 0 {
		t.Errorf("malformed token reached the API: %d calls", calls)
	}
}

func TestResolveEmptyTokenFailsBeforeAnyFetch(t *testing.T) {
	ctx := context.Background()
	fake := cloudapi.NewFake()
	resolver, _ := testResolver(t, fake, nil)

	_, err := resolver.Resolve(ctx, "", entity.KindDevice, Filters{})
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
	if calls := fake.Calls(entity.KindDevice); calls != 0 {
		t.Errorf("empty token reached the API: %d calls", calls)
	}
}

func TestResolveSurfacesRefreshFailure(t *testing.T) {
	ctx := context.Background()
	fake := cloudapi.NewFake()
	fake.SetListing(entity.KindDevice, []cloudapi.RawRecord{record("barn-ap", "CN11AA0011")})
	fake.FailPage(entity.KindDevice, 0, cloudapi.TransientError("list devices"))
	resolver, _ := testResolver(t, fake, nil)

	_, err := resolver.Resolve(ctx, "barn-ap", entity.KindDevice, Filters{})
	var refreshErr *cache.RefreshError
	if !errors.As(err, &refreshErr) {
		t.Fatalf("err = %v, want RefreshError", err)
	}
}

func TestResolveUnresolvableKind(t *testing.T) {
	ctx := context.Background()
	resolver, _ := testResolver(t, cloudapi.NewFake(), nil)

	if _, err := resolver.Resolve(ctx, "anything", entity.KindEvent, Filters{}); err == nil {
		t.Fatal("event kind resolved")
	}
}
