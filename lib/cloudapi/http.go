// Copyright 2026 The Skyward Authors
// SPDX-License-Identifier: Apache-2.0

package cloudapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/skyward-networks/skyward/lib/entity"
)

// defaultPageSize matches the backend's maximum listing page.
const defaultPageSize = 1000

// errorBodyLimit caps how much of an error response body is carried
// into an APIError message.
const errorBodyLimit = 512

// collectionPath maps each entity kind to its listing endpoint.
var collectionPath = map[entity.Kind]string{
	entity.KindDevice:   "/network/v1/devices",
	entity.KindSite:     "/network/v1/sites",
	entity.KindGroup:    "/config/v1/groups",
	entity.KindTemplate: "/config/v1/templates",
	entity.KindLabel:    "/config/v1/labels",
	entity.KindLicense:  "/platform/v1/licenses",
	entity.KindEvent:    "/monitoring/v1/events",
}

// HTTPClient implements Client against the Skyward Cloud REST API
// with offset pagination and bearer authentication.
type HTTPClient struct {
	baseURL  string
	token    string
	pageSize int
	http     *http.Client
}

// HTTPConfig holds the parameters for NewHTTPClient.
type HTTPConfig struct {
	// BaseURL is the regional API endpoint, without trailing slash.
	BaseURL string

	// Token is a valid bearer token. Acquisition and refresh happen
	// outside this package.
	Token string

	// PageSize overrides the listing page size. Defaults to 1000.
	PageSize int

	// Timeout bounds each page request. Defaults to 30s.
	Timeout time.Duration

	// Transport overrides the HTTP transport, for tests.
	Transport http.RoundTripper
}

// NewHTTPClient builds an HTTP-backed Client.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("cloudapi: BaseURL is required")
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		baseURL:  cfg.BaseURL,
		token:    cfg.Token,
		pageSize: pageSize,
		http: &http.Client{
			Timeout:   timeout,
			Transport: cfg.Transport,
		},
	}, nil
}

// listEnvelope is the common wrapper around listing responses. The
// backend is inconsistent about the total field's name across
// services; both spellings decode into Total.
type listEnvelope struct {
	Items []RawRecord `json:"items"`
	Total int         `json:"total"`
	Count int         `json:"count"`
}

// ListPage fetches one page of the listing for kind.
func (c *HTTPClient) ListPage(ctx context.Context, kind entity.Kind, filter ListFilter, offset int) ([]RawRecord, bool, error) {
	path, known := collectionPath[kind]
	op := fmt.Sprintf("list %ss", kind)
	if !known {
		return nil, false, &APIError{Op: op, Message: fmt.Sprintf("no endpoint for kind %q", kind)}
	}

	query := url.Values{}
	query.Set("offset", strconv.Itoa(offset))
	query.Set("limit", strconv.Itoa(c.pageSize))
	if filter.Group != "" {
		query.Set("group", filter.Group)
	}
	if filter.Site != "" {
		query.Set("site", filter.Site)
	}
	if filter.Label != "" {
		query.Set("label", filter.Label)
	}
	if filter.DeviceType != "" {
		query.Set("device_type", filter.DeviceType)
	}

	requestURL := c.baseURL + path + "?" + query.Encode()
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	request.Header.Set("Authorization", "Bearer "+c.token)
	request.Header.Set("Accept", "application/json")

	response, err := c.http.Do(request)
	if err != nil {
		return nil, false, &APIError{Op: op, Message: err.Error()}
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(response.Body, errorBodyLimit))
		return nil, false, &APIError{
			Status:  response.StatusCode,
			Op:      op,
			Message: string(body),
		}
	}

	var envelope listEnvelope
	if err := json.NewDecoder(response.Body).Decode(&envelope); err != nil {
		return nil, false, &APIError{Op: op, Message: "decoding response: " + err.Error()}
	}

	total := envelope.Total
	if total == 0 {
		total = envelope.Count
	}
	more := total > offset+len(envelope.Items) && len(envelope.Items) > 0
	return envelope.Items, more, nil
}
