// Copyright 2026 The Skyward Authors
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"errors"
	"fmt"

	"github.com/skyward-networks/skyward/lib/entity"
)

// ErrCorrupt marks the local store file as unreadable or containing
// undecodable rows. This is deliberately distinct from "empty" or
// "stale": refreshing a corrupt store over and over cannot help, the
// caller should Rebuild instead.
var ErrCorrupt = errors.New("cache store is corrupt")

// RefreshError reports a failed refresh. The prior table contents are
// guaranteed untouched — a refresh applies all-or-nothing.
type RefreshError struct {
	Kind entity.Kind
	Err  error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("refreshing %s cache: %v", e.Kind, e.Err)
}

func (e *RefreshError) Unwrap() error { return e.Err }
