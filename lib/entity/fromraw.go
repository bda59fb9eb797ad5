// Copyright 2026 The Skyward Authors
// SPDX-License-Identifier: Apache-2.0

package entity

import (
	"fmt"
	"strconv"

	"github.com/skyward-networks/skyward/lib/netid"
)

// FromRaw maps one raw API record to a cache row. The mapping is
// total over optional fields — anything missing defaults to the zero
// value — and fails only when the record lacks its natural key or
// carries a MAC that cannot be canonicalized. The complete record is
// retained in Doc regardless of which fields this struct surfaces.
//
// The backend is inconsistent about field names across endpoints
// (macaddr vs mac, ip_address vs ip, group_name vs group), so every
// lookup goes through an alias list.
func FromRaw(kind Kind, raw map[string]any) (Entity, error) {
	e := Entity{Kind: kind, Doc: raw}

	switch kind {
	case KindDevice:
		e.Serial = rawString(raw, "serial", "serialNumber", "serial_number")
		e.Name = rawString(raw, "name", "hostname")
		e.IP = rawString(raw, "ip", "ip_address")
		e.Type = rawString(raw, "type", "device_type")
		e.Group = rawString(raw, "group", "group_name")
		e.Site = rawString(raw, "site", "site_name")
		e.Status = rawString(raw, "status")
		e.Model = rawString(raw, "model")
		e.Version = rawString(raw, "version", "firmware_version")
		if mac := rawString(raw, "mac", "macaddr", "macAddress"); mac != "" {
			canonical, err := netid.NormalizeMAC(mac)
			if err != nil {
				return Entity{}, fmt.Errorf("device %s: %w", e.Serial, err)
			}
			e.MAC = canonical
		}
	case KindSite:
		e.ID = rawInt(raw, "id", "site_id")
		e.Name = rawString(raw, "name", "site_name")
		e.Address = rawString(raw, "address")
		e.City = rawString(raw, "city")
		e.State = rawString(raw, "state")
		e.Zipcode = rawString(raw, "zipcode", "zip")
		e.Type = rawString(raw, "type", "site_type")
	case KindGroup:
		e.Name = rawString(raw, "name", "group")
		e.Type = rawString(raw, "type", "group_type")
	case KindTemplate:
		e.Name = rawString(raw, "name")
		e.Group = rawString(raw, "group")
		e.Model = rawString(raw, "model")
		e.Type = rawString(raw, "device_type", "type")
		e.Version = rawString(raw, "version")
	case KindLabel:
		e.ID = rawInt(raw, "id", "label_id")
		e.Name = rawString(raw, "name", "label_name")
	case KindLicense:
		e.Name = rawString(raw, "name", "license", "sku")
		e.Serial = rawString(raw, "serial", "device_serial")
		e.Status = rawString(raw, "status")
	case KindEvent:
		e.ID = rawInt(raw, "id", "event_id")
		e.Name = rawString(raw, "name", "description")
		e.Type = rawString(raw, "type", "event_type")
		e.Serial = rawString(raw, "serial", "device_serial")
	default:
		return Entity{}, fmt.Errorf("unknown entity kind %q", kind)
	}

	if e.Key() == "" {
		return Entity{}, fmt.Errorf("%s record is missing its natural key", kind)
	}
	return e, nil
}

// rawString returns the first alias present in raw as a string.
// Numeric values are formatted rather than dropped — some endpoints
// return IDs and zipcodes as JSON numbers.
func rawString(raw map[string]any, aliases ...string) string {
	for _, alias := range aliases {
		value, present := raw[alias]
		if !present || value == nil {
			continue
		}
		switch v := value.(type) {
		case string:
			return v
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int64:
			return strconv.FormatInt(v, 10)
		case uint64:
			return strconv.FormatUint(v, 10)
		case int:
			return strconv.Itoa(v)
		}
	}
	return ""
}

// rawInt returns the first alias present in raw as an int64. String
// digits are parsed; anything else counts as absent.
func rawInt(raw map[string]any, aliases ...string) int64 {
	for _, alias := range aliases {
		value, present := raw[alias]
		if !present || value == nil {
			continue
		}
		switch v := value.(type) {
		case float64:
			return int64(v)
		case int64:
			return v
		case uint64:
			return int64(v)
		case int:
			return int64(v)
		case string:
			if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
				return parsed
			}
		}
	}
	return 0
}
