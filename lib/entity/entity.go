// Copyright 2026 The Skyward Authors
// SPDX-License-Identifier: Apache-2.0

// Package entity defines the cache row types for the Skyward Cloud
// object kinds the CLI can address: devices, sites, groups,
// templates, labels, licenses, and audit events. Rows are denormalized
// value objects holding only what identification and display need —
// there is no cross-table foreign-key enforcement, and joins (a
// device's group or site) happen by matching name strings at query
// time.
package entity

import (
	"fmt"
	"strconv"

	"github.com/skyward-networks/skyward/lib/netid"
)

// Kind identifies one cache table / API collection.
type Kind string

const (
	KindDevice   Kind = "device"
	KindSite     Kind = "site"
	KindGroup    Kind = "group"
	KindTemplate Kind = "template"
	KindLabel    Kind = "label"
	KindLicense  Kind = "license"
	KindEvent    Kind = "event"
)

// Kinds lists every cache table kind in refresh order: groups first,
// because template records are scoped by group and the template
// refresh reads group names from the fresh listing.
func Kinds() []Kind {
	return []Kind{
		KindGroup,
		KindDevice,
		KindSite,
		KindTemplate,
		KindLabel,
		KindLicense,
		KindEvent,
	}
}

// Resolvable reports whether the kind participates in identifier
// resolution. Licenses and events are cached for listing and ID
// lookups only.
func (k Kind) Resolvable() bool {
	switch k {
	case KindDevice, KindSite, KindGroup, KindTemplate, KindLabel:
		return true
	}
	return false
}

// Valid reports whether k names a known cache kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds() {
		if k == known {
			return true
		}
	}
	return false
}

// ParseKind maps a user-supplied kind name (singular or plural) to a
// Kind.
func ParseKind(name string) (Kind, error) {
	switch name {
	case "device", "devices", "dev":
		return KindDevice, nil
	case "site", "sites":
		return KindSite, nil
	case "group", "groups":
		return KindGroup, nil
	case "template", "templates":
		return KindTemplate, nil
	case "label", "labels":
		return KindLabel, nil
	case "license", "licenses":
		return KindLicense, nil
	case "event", "events":
		return KindEvent, nil
	}
	return "", fmt.Errorf("unknown kind %q (device, site, group, template, label, license, event)", name)
}

// Entity is one denormalized cache row. Which fields are populated
// depends on Kind; unset fields are empty strings. The full raw API
// document travels in Doc so that nothing is lost between refreshes
// even when this struct doesn't surface a field.
type Entity struct {
	Kind Kind `json:"kind" cbor:"kind"`

	// Name is the display name for every kind.
	Name string `json:"name" cbor:"name"`

	// Serial is the device serial number (devices and licenses-by-
	// device assignments).
	Serial string `json:"serial,omitempty" cbor:"serial,omitempty"`

	// MAC is the canonical 12-hex-digit form (see netid.NormalizeMAC).
	MAC string `json:"mac,omitempty" cbor:"mac,omitempty"`

	// IP may carry a CIDR suffix exactly as the backend reported it.
	IP string `json:"ip,omitempty" cbor:"ip,omitempty"`

	// Type is the device type (ap, gw, cx, sw) or the site/template
	// device-type discriminator.
	Type string `json:"type,omitempty" cbor:"type,omitempty"`

	// Group and Site are names, not keys (weak invariant, see package
	// doc).
	Group string `json:"group,omitempty" cbor:"group,omitempty"`
	Site  string `json:"site,omitempty" cbor:"site,omitempty"`

	Status  string `json:"status,omitempty" cbor:"status,omitempty"`
	Model   string `json:"model,omitempty" cbor:"model,omitempty"`
	Version string `json:"version,omitempty" cbor:"version,omitempty"`

	// Address fields, populated for sites.
	Address string `json:"address,omitempty" cbor:"address,omitempty"`
	City    string `json:"city,omitempty" cbor:"city,omitempty"`
	State   string `json:"state,omitempty" cbor:"state,omitempty"`
	Zipcode string `json:"zipcode,omitempty" cbor:"zipcode,omitempty"`

	// ID is the backend numeric identifier where the API exposes one
	// (sites, labels, events). Zero means the kind has none.
	ID int64 `json:"id,omitempty" cbor:"id,omitempty"`

	// Doc is the full raw API record as received.
	Doc map[string]any `json:"-" cbor:"doc,omitempty"`
}

// Key returns the natural key that is unique within the entity's
// table: device serial, site/label/event backend ID, group name, and
// group-scoped name for templates. An empty key marks a row the store
// refuses to persist.
func (e *Entity) Key() string {
	switch e.Kind {
	case KindDevice:
		return e.Serial
	case KindSite, KindLabel, KindEvent:
		if e.ID == 0 {
			return ""
		}
		return strconv.FormatInt(e.ID, 10)
	case KindGroup, KindLicense:
		return e.Name
	case KindTemplate:
		if e.Name == "" {
			return ""
		}
		return e.Group + "/" + e.Name
	}
	return ""
}

// DisplayMAC renders the MAC in colon notation, or "" when unset.
func (e *Entity) DisplayMAC() string {
	if e.MAC == "" {
		return ""
	}
	return netid.FormatMAC(e.MAC)
}

// Summary is the short one-line form used in log output and NotFound
// suggestions.
func (e *Entity) Summary() string {
	switch e.Kind {
	case KindDevice:
		return fmt.Sprintf("%s (%s %s)", e.Name, e.Type, e.Serial)
	case KindSite:
		if e.City != "" {
			return fmt.Sprintf("%s (%s, %s)", e.Name, e.City, e.State)
		}
		return e.Name
	case KindTemplate:
		return fmt.Sprintf("%s (group %s)", e.Name, e.Group)
	}
	return e.Name
}
