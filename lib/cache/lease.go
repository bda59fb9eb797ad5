// Copyright 2026 The Skyward Authors
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"sync"

	"github.com/skyward-networks/skyward/lib/entity"
)

// refreshLease is one in-flight refresh. The lease holder fills in
// outcome and err before closing done; waiters read them afterwards.
type refreshLease struct {
	done    chan struct{}
	outcome Outcome
	err     error
}

// leaseTable grants at most one refresh lease per kind. The zero
// value is ready to use.
type leaseTable struct {
	mu       sync.Mutex
	inflight map[entity.Kind]*refreshLease
}

// acquire returns the lease for kind. leader is true when the caller
// created it and must run the refresh, then call release. When false
// the caller must wait on lease.done and read the shared result.
func (t *leaseTable) acquire(kind entity.Kind) (lease *refreshLease, leader bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.inflight == nil {
		t.inflight = make(map[entity.Kind]*refreshLease)
	}
	if existing, ok := t.inflight[kind]; ok {
		return existing, false
	}
	lease = &refreshLease{done: make(chan struct{})}
	t.inflight[kind] = lease
	return lease, true
}

// release publishes the lease result and wakes all waiters.
func (t *leaseTable) release(kind entity.Kind, lease *refreshLease) {
	t.mu.Lock()
	delete(t.inflight, kind)
	t.mu.Unlock()
	close(lease.done)
}

// await blocks until no lease for kind is held.
func (t *leaseTable) await(ctx context.Context, kind entity.Kind) error {
	for {
		t.mu.Lock()
		lease, held := t.inflight[kind]
		t.mu.Unlock()
		if !held {
			return nil
		}
		select {
		case <-lease.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
