// Copyright 2026 The Skyward Authors
// SPDX-License-Identifier: Apache-2.0

package entity

import (
	"strings"
	"testing"
)

func TestFromRawDevice(t *testing.T) {
	raw := map[string]any{
		"serial":           "CN12345678",
		"name":             "6200F-Bot",
		"macaddr":          "aa:bb:cc:dd:ee:ff",
		"ip_address":       "10.0.0.5",
		"type":             "cx",
		"group_name":       "Branch",
		"site":             "HQ",
		"status":           "Up",
		"model":            "6200F 48G",
		"firmware_version": "10.10.1040",
	}

	device, err := FromRaw(KindDevice, raw)
	if err != nil {
		t.Fatalf("FromRaw: %v", err)
	}

	if device.Key() != "CN12345678" {
		t.Errorf("Key = %q, want serial", device.Key())
	}
	if device.MAC != "AABBCCDDEEFF" {
		t.Errorf("MAC = %q, want canonical AABBCCDDEEFF", device.MAC)
	}
	if device.Name != "6200F-Bot" || device.IP != "10.0.0.5" || device.Group != "Branch" {
		t.Errorf("unexpected field mapping: %+v", device)
	}
	if device.Doc == nil {
		t.Error("Doc not retained")
	}
}

func TestFromRawDeviceAliases(t *testing.T) {
	// Alternate endpoint spellings map to the same fields.
	raw := map[string]any{
		"serialNumber": "CN00000001",
		"hostname":     "ap-lobby",
		"mac":          "0011.2233.4455",
		"ip":           "10.1.1.1",
		"device_type":  "ap",
		"group":        "Default",
	}

	device, err := FromRaw(KindDevice, raw)
	if err != nil {
		t.Fatalf("FromRaw: %v", err)
	}
	if device.Serial != "CN00000001" || device.Name != "ap-lobby" || device.MAC != "001122334455" {
		t.Errorf("alias mapping wrong: %+v", device)
	}
}

func TestFromRawDeviceMissingOptionals(t *testing.T) {
	// Only the natural key is required; everything else defaults.
	device, err := FromRaw(KindDevice, map[string]any{"serial": "CN99"})
	if err != nil {
		t.Fatalf("FromRaw with only serial: %v", err)
	}
	if device.Name != "" || device.MAC != "" || device.IP != "" {
		t.Errorf("optional fields should default empty: %+v", device)
	}
}

func TestFromRawMissingNaturalKey(t *testing.T) {
	tests := []struct {
		kind Kind
		raw  map[string]any
	}{
		{KindDevice, map[string]any{"name": "no-serial"}},
		{KindSite, map[string]any{"name": "no-id"}},
		{KindGroup, map[string]any{"type": "no-name"}},
		{KindTemplate, map[string]any{"group": "Branch"}},
	}

	for _, test := range tests {
		t.Run(string(test.kind), func(t *testing.T) {
			_, err := FromRaw(test.kind, test.raw)
			if err == nil {
				t.Fatal("FromRaw succeeded without a natural key")
			}
			if !strings.Contains(err.Error(), "natural key") {
				t.Errorf("error %q does not name the natural key", err)
			}
		})
	}
}

func TestFromRawDeviceBadMAC(t *testing.T) {
	_, err := FromRaw(KindDevice, map[string]any{
		"serial": "CN1",
		"mac":    "not-a-mac",
	})
	if err == nil {
		t.Fatal("FromRaw accepted a malformed MAC")
	}
}

func TestFromRawSiteNumericID(t *testing.T) {
	// Site IDs arrive as JSON numbers (float64 after decoding).
	site, err := FromRaw(KindSite, map[string]any{
		"id":   float64(42),
		"name": "HQ",
		"city": "Roseville",
	})
	if err != nil {
		t.Fatalf("FromRaw: %v", err)
	}
	if site.ID != 42 || site.Key() != "42" {
		t.Errorf("ID = %d, Key = %q, want 42", site.ID, site.Key())
	}
}

func TestFromRawTemplateKeyScopedByGroup(t *testing.T) {
	template, err := FromRaw(KindTemplate, map[string]any{
		"name":        "2930F",
		"group":       "Branch",
		"device_type": "sw",
	})
	if err != nil {
		t.Fatalf("FromRaw: %v", err)
	}
	if template.Key() != "Branch/2930F" {
		t.Errorf("template Key = %q, want Branch/2930F", template.Key())
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		input string
		want  Kind
	}{
		{"device", KindDevice},
		{"devices", KindDevice},
		{"dev", KindDevice},
		{"sites", KindSite},
		{"group", KindGroup},
		{"templates", KindTemplate},
		{"label", KindLabel},
		{"licenses", KindLicense},
		{"events", KindEvent},
	}
	for _, test := range tests {
		got, err := ParseKind(test.input)
		if err != nil || got != test.want {
			t.Errorf("ParseKind(%q) = (%v, %v), want %v", test.input, got, err, test.want)
		}
	}

	if _, err := ParseKind("portal"); err == nil {
		t.Error("ParseKind accepted unknown kind")
	}
}
