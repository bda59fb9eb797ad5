// Copyright 2026 The Skyward Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the sky CLI.
//
// Configuration is loaded from a single file specified by:
//   - SKYWARD_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. This ensures
// deterministic, auditable configuration with no hidden overrides.
//
// The config file may contain named profile sections (one per backend
// account) that override base values when selected with --profile or
// the top-level "profile" key.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/skyward-networks/skyward/lib/entity"
)

// Config is the master configuration for the sky CLI.
type Config struct {
	// API configures the backend endpoint and credentials.
	API APIConfig `yaml:"api"`

	// Cache configures the local identifier cache.
	Cache CacheConfig `yaml:"cache"`

	// Output configures rendering behavior.
	Output OutputConfig `yaml:"output"`

	// Profile names the active profile section. Empty means the base
	// values apply as-is.
	Profile string `yaml:"profile"`

	// Profiles contains per-account overrides, applied over the base
	// config when selected.
	Profiles map[string]*ProfileOverrides `yaml:"profiles,omitempty"`
}

// ProfileOverrides contains the fields a named profile may override.
type ProfileOverrides struct {
	API   *APIConfig   `yaml:"api,omitempty"`
	Cache *CacheConfig `yaml:"cache,omitempty"`
}

// APIConfig configures the backend client.
type APIConfig struct {
	// BaseURL is the API gateway, e.g. https://api.skyward.example.
	BaseURL string `yaml:"base_url"`

	// Token is the bearer token. Required; the CLI never prompts for
	// credentials.
	Token string `yaml:"token"`

	// PageSize is the listing page size. Default: 1000.
	PageSize int `yaml:"page_size"`

	// Timeout bounds a single API request. Default: 30s.
	Timeout Duration `yaml:"timeout"`
}

// Duration wraps time.Duration so YAML values can use the "90m"/"3h"
// notation.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) String() string { return time.Duration(d).String() }

// CacheConfig configures the local identifier cache.
type CacheConfig struct {
	// Dir is where cache databases live. One database per profile.
	// Default: ~/.cache/skyward.
	Dir string `yaml:"dir"`

	// MaxAge overrides staleness thresholds per kind, keyed by the
	// singular kind name ("device", "site", ...).
	MaxAge map[string]Duration `yaml:"max_age,omitempty"`
}

// OutputConfig configures rendering behavior.
type OutputConfig struct {
	// NonInteractive suppresses every prompt; ambiguous resolutions
	// become hard failures. Terminal detection still applies when
	// false.
	NonInteractive bool `yaml:"non_interactive"`

	// Debug enables debug-level logging.
	Debug bool `yaml:"debug"`
}

// Default returns the default configuration. These defaults ensure
// all fields have sensible zero-values; the config file itself is
// still required since the API token cannot be defaulted.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		API: APIConfig{
			PageSize: 1000,
			Timeout:  Duration(30 * time.Second),
		},
		Cache: CacheConfig{
			Dir: filepath.Join(homeDir, ".cache", "skyward"),
		},
	}
}

// Load loads configuration from the SKYWARD_CONFIG environment
// variable. There are no fallbacks: if SKYWARD_CONFIG is not set,
// this fails.
func Load() (*Config, error) {
	configPath := os.Getenv("SKYWARD_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("SKYWARD_CONFIG environment variable not set; " +
			"set it to the path of your skyward.yaml config file, or use --config flag")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. The config
// file is the single source of truth; environment variables do not
// override its values. The only expansion performed is ${HOME} in
// paths for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := cfg.applyProfile(cfg.Profile); err != nil {
		return nil, err
	}
	cfg.expandVariables()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// SelectProfile re-applies overrides for a profile chosen on the
// command line, after the file was loaded with its default profile.
func (c *Config) SelectProfile(name string) error {
	if name == "" || name == c.Profile {
		return nil
	}
	if err := c.applyProfile(name); err != nil {
		return err
	}
	c.Profile = name
	return c.Validate()
}

func (c *Config) applyProfile(name string) error {
	if name == "" {
		return nil
	}
	overrides, ok := c.Profiles[name]
	if !ok {
		known := make([]string, 0, len(c.Profiles))
		for profile := range c.Profiles {
			known = append(known, profile)
		}
		return fmt.Errorf("unknown profile %q (have: %s)", name, strings.Join(known, ", "))
	}
	if overrides == nil {
		return nil
	}
	if overrides.API != nil {
		mergeAPI(&c.API, overrides.API)
	}
	if overrides.Cache != nil {
		mergeCache(&c.Cache, overrides.Cache)
	}
	return nil
}

func mergeAPI(base, over *APIConfig) {
	if over.BaseURL != "" {
		base.BaseURL = over.BaseURL
	}
	if over.Token != "" {
		base.Token = over.Token
	}
	if over.PageSize != 0 {
		base.PageSize = over.PageSize
	}
	if over.Timeout != 0 {
		base.Timeout = over.Timeout
	}
}

func mergeCache(base, over *CacheConfig) {
	if over.Dir != "" {
		base.Dir = over.Dir
	}
	for kind, age := range over.MaxAge {
		if base.MaxAge == nil {
			base.MaxAge = make(map[string]Duration)
		}
		base.MaxAge[kind] = age
	}
}

// expandVariables expands ${HOME} in path fields.
func (c *Config) expandVariables() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return
	}
	c.Cache.Dir = strings.ReplaceAll(c.Cache.Dir, "${HOME}", homeDir)
}

// Validate checks that required fields are present and well-formed.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("api.base_url %q must be an http(s) URL", c.API.BaseURL)
	}
	if c.API.Token == "" {
		return fmt.Errorf("api.token is required")
	}
	if c.Cache.Dir == "" {
		return fmt.Errorf("cache.dir is required")
	}
	for kind := range c.Cache.MaxAge {
		if _, err := entity.ParseKind(kind); err != nil {
			return fmt.Errorf("cache.max_age: %w", err)
		}
	}
	return nil
}

// CachePath returns the database file for the active profile. Each
// profile gets its own database so switching accounts never mixes
// entity tables.
func (c *Config) CachePath() string {
	name := "cache.db"
	if c.Profile != "" {
		name = "cache-" + c.Profile + ".db"
	}
	return filepath.Join(c.Cache.Dir, name)
}

// MaxAges resolves the per-kind staleness overrides to entity kinds.
// Validate has already rejected unknown kind names.
func (c *Config) MaxAges() map[entity.Kind]time.Duration {
	if len(c.Cache.MaxAge) == 0 {
		return nil
	}
	ages := make(map[entity.Kind]time.Duration, len(c.Cache.MaxAge))
	for name, age := range c.Cache.MaxAge {
		kind, err := entity.ParseKind(name)
		if err != nil {
			continue
		}
		ages[kind] = time.Duration(age)
	}
	return ages
}
