// Copyright 2026 The Skyward Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts the current time for testability. Production
// code injects Real(); tests inject a Fake with explicit control over
// the reported time.
//
// The cache layer only ever asks "what time is it now" (to stamp
// refreshes and measure table age), so the interface is deliberately
// limited to Now.
package clock

import "time"

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// Real returns a Clock backed by time.Now.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }
