// Copyright 2026 The Skyward Authors
// SPDX-License-Identifier: Apache-2.0

package cloudapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/skyward-networks/skyward/lib/entity"
)

func TestHTTPClientListPage(t *testing.T) {
	devices := []RawRecord{
		{"serial": "CN1", "name": "ap-1"},
		{"serial": "CN2", "name": "ap-2"},
		{"serial": "CN3", "name": "ap-3"},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/network/v1/devices" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-abc" {
			t.Errorf("Authorization = %q", got)
		}
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit != 2 {
			t.Errorf("limit = %d, want 2", limit)
		}

		end := offset + limit
		if end > len(devices) {
			end = len(devices)
		}
		json.NewEncoder(w).Encode(listEnvelope{
			Items: devices[offset:end],
			Total: len(devices),
		})
	}))
	defer server.Close()

	client, err := NewHTTPClient(HTTPConfig{BaseURL: server.URL, Token: "tok-abc", PageSize: 2})
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}

	page, more, err := client.ListPage(context.Background(), entity.KindDevice, ListFilter{}, 0)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if len(page) != 2 || !more {
		t.Fatalf("first page = %d records, more = %v", len(page), more)
	}

	records, err := List(context.Background(), client, entity.KindDevice, ListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("List returned %d records, want 3", len(records))
	}
}

func TestHTTPClientFilterParams(t *testing.T) {
	var query map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		json.NewEncoder(w).Encode(listEnvelope{})
	}))
	defer server.Close()

	client, _ := NewHTTPClient(HTTPConfig{BaseURL: server.URL, Token: "tok"})
	_, _, err := client.ListPage(context.Background(), entity.KindDevice,
		ListFilter{Group: "Branch", DeviceType: "cx"}, 0)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if got := query["group"]; len(got) != 1 || got[0] != "Branch" {
		t.Errorf("group param = %v", got)
	}
	if got := query["device_type"]; len(got) != 1 || got[0] != "cx" {
		t.Errorf("device_type param = %v", got)
	}
}

func TestHTTPClientErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client, _ := NewHTTPClient(HTTPConfig{BaseURL: server.URL, Token: "bad"})
	_, _, err := client.ListPage(context.Background(), entity.KindDevice, ListFilter{}, 0)
	if !IsAuthFailure(err) {
		t.Fatalf("err = %v, want auth failure", err)
	}
}

func TestHTTPClientUnknownKind(t *testing.T) {
	client, _ := NewHTTPClient(HTTPConfig{BaseURL: "http://unused.example", Token: "tok"})
	_, _, err := client.ListPage(context.Background(), entity.Kind("gadget"), ListFilter{}, 0)
	if err == nil {
		t.Fatal("unknown kind accepted")
	}
}

func TestHTTPClientEmptyListing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(listEnvelope{Items: nil, Total: 0})
	}))
	defer server.Close()

	client, _ := NewHTTPClient(HTTPConfig{BaseURL: server.URL, Token: "tok"})
	records, err := List(context.Background(), client, entity.KindDevice, ListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("records = %v", records)
	}
}
