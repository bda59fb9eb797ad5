// Copyright 2026 The Skyward Authors
// SPDX-License-Identifier: Apache-2.0

package cloudapi

import (
	"context"
	"net/http"
	"sync"

	"github.com/skyward-networks/skyward/lib/entity"
)

// Fake is an in-memory Client for tests. Listings are scripted per
// kind as explicit pages, failures can be injected at a specific page
// index, and every call is counted so tests can assert fetch
// idempotence.
//
// Fake is safe for concurrent use.
type Fake struct {
	mu sync.Mutex

	// pages holds the scripted listing per kind, already split into
	// pages.
	pages map[entity.Kind][][]RawRecord

	// failAt injects an error before serving the page with that
	// index. -1 disables injection.
	failAt   map[entity.Kind]int
	failWith map[entity.Kind]error

	// calls counts ListPage invocations per kind.
	calls map[entity.Kind]int

	// listings counts completed full listings per kind (the page
	// marked as last was served).
	listings map[entity.Kind]int

	// block, when non-nil, is closed by the test to release ListPage
	// calls that arrived while it was open. Used for lease tests.
	block chan struct{}
}

// NewFake returns an empty Fake.
func NewFake() *Fake {
	return &Fake{
		pages:    make(map[entity.Kind][][]RawRecord),
		failAt:   make(map[entity.Kind]int),
		failWith: make(map[entity.Kind]error),
		calls:    make(map[entity.Kind]int),
		listings: make(map[entity.Kind]int),
	}
}

// SetListing scripts a single-page listing for kind.
func (f *Fake) SetListing(kind entity.Kind, records []RawRecord) {
	f.SetPages(kind, [][]RawRecord{records})
}

// SetPages scripts a multi-page listing for kind.
func (f *Fake) SetPages(kind entity.Kind, pages [][]RawRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[kind] = pages
	delete(f.failAt, kind)
	delete(f.failWith, kind)
}

// FailPage injects err before the page with the given index is
// served. FailPage(kind, 1, err) delivers page 0 and then fails.
func (f *Fake) FailPage(kind entity.Kind, pageIndex int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failAt[kind] = pageIndex
	f.failWith[kind] = err
}

// Block makes subsequent ListPage calls wait until Release. Tests use
// this to hold a refresh in flight.
func (f *Fake) Block() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.block = make(chan struct{})
}

// Release unblocks calls waiting in ListPage.
func (f *Fake) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.block != nil {
		close(f.block)
		f.block = nil
	}
}

// Calls returns how many ListPage calls kind has received.
func (f *Fake) Calls(kind entity.Kind) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[kind]
}

// Listings returns how many complete listings kind has served.
func (f *Fake) Listings(kind entity.Kind) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listings[kind]
}

// AuthError returns an APIError that classifies as an authorization
// failure, for injection.
func AuthError(op string) *APIError {
	return &APIError{Status: http.StatusUnauthorized, Op: op, Message: "token rejected"}
}

// TransientError returns a retryable APIError, for injection.
func TransientError(op string) *APIError {
	return &APIError{Status: http.StatusBadGateway, Op: op, Message: "upstream unavailable"}
}

// ListPage serves the scripted pages. Offsets must follow the
// accumulation pattern of List: the offset is matched against the
// cumulative record count of earlier pages.
func (f *Fake) ListPage(ctx context.Context, kind entity.Kind, filter ListFilter, offset int) ([]RawRecord, bool, error) {
	f.mu.Lock()
	block := f.block
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[kind]++

	pages := f.pages[kind]
	cumulative := 0
	for index, page := range pages {
		if cumulative == offset {
			if failIndex, injected := f.failAt[kind]; injected && failIndex == index {
				return nil, false, f.failWith[kind]
			}
			filtered := applyFilter(page, filter)
			more := index < len(pages)-1
			if !more {
				f.listings[kind]++
			}
			return filtered, more, nil
		}
		cumulative += len(page)
	}

	// Offset past the scripted data: empty final page.
	f.listings[kind]++
	return nil, false, nil
}

// applyFilter narrows a page the way the backend would.
func applyFilter(page []RawRecord, filter ListFilter) []RawRecord {
	if filter == (ListFilter{}) {
		return page
	}
	var filtered []RawRecord
	for _, record := range page {
		if filter.Group != "" && stringField(record, "group", "group_name") != filter.Group {
			continue
		}
		if filter.Site != "" && stringField(record, "site", "site_name") != filter.Site {
			continue
		}
		if filter.DeviceType != "" && stringField(record, "type", "device_type") != filter.DeviceType {
			continue
		}
		filtered = append(filtered, record)
	}
	return filtered
}

func stringField(record RawRecord, aliases ...string) string {
	for _, alias := range aliases {
		if value, ok := record[alias].(string); ok && value != "" {
			return value
		}
	}
	return ""
}
