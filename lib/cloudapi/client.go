// Copyright 2026 The Skyward Authors
// SPDX-License-Identifier: Apache-2.0

// Package cloudapi is the collaborator boundary between the resolver
// and the Skyward Cloud API. The cache layer depends only on the
// Client interface; the HTTP implementation lives here too, but tests
// and embedders are expected to substitute their own.
//
// Token acquisition and refresh are outside this package: HTTPClient
// takes an already-valid bearer token and reports authorization
// failures distinctly so that callers never retry them.
package cloudapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/skyward-networks/skyward/lib/entity"
)

// RawRecord is one backend object exactly as listed, before
// normalization into a cache row.
type RawRecord = map[string]any

// ListFilter narrows a listing server-side where the API supports it.
// Zero fields are not applied.
type ListFilter struct {
	Group      string
	Site       string
	Label      string
	DeviceType string
}

// Client lists backend objects one page at a time.
type Client interface {
	// ListPage returns the records starting at offset, plus whether
	// more pages remain. Implementations choose their own page size.
	ListPage(ctx context.Context, kind entity.Kind, filter ListFilter, offset int) (records []RawRecord, more bool, err error)
}

// List fetches the complete listing for kind through repeated
// ListPage calls. Any page failure aborts the accumulation and
// returns the error — callers treat the partial result as
// nonexistent.
func List(ctx context.Context, client Client, kind entity.Kind, filter ListFilter) ([]RawRecord, error) {
	var all []RawRecord
	offset := 0
	for {
		records, more, err := client.ListPage(ctx, kind, filter, offset)
		if err != nil {
			return nil, fmt.Errorf("listing %s at offset %d: %w", kind, offset, err)
		}
		all = append(all, records...)
		if !more {
			return all, nil
		}
		offset += len(records)
		if len(records) == 0 {
			// A server claiming more pages while returning none would
			// loop forever; treat it as end of listing.
			return all, nil
		}
	}
}

// APIError is a non-2xx response from the backend.
type APIError struct {
	// Status is the HTTP status code. Zero means the request never
	// produced a response (transport failure).
	Status int

	// Op describes the request, e.g. "list devices".
	Op string

	// Message is the backend's error body, truncated.
	Message string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	if e.Message == "" {
		return fmt.Sprintf("%s: %s", e.Op, http.StatusText(e.Status))
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, http.StatusText(e.Status), e.Message)
}

// AuthFailure reports whether the error is an authorization failure.
// The resolver never retries these: a second request with the same
// token fails the same way.
func (e *APIError) AuthFailure() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// Retryable reports whether the failure is transient (rate limit,
// server error, or transport failure).
func (e *APIError) Retryable() bool {
	if e.AuthFailure() {
		return false
	}
	return e.Status == 0 || e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// IsAuthFailure reports whether err (anywhere in its chain) is an
// authorization failure from the backend.
func IsAuthFailure(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.AuthFailure()
}
