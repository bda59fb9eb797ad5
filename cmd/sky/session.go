// Copyright 2026 The Skyward Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/skyward-networks/skyward/lib/cache"
	"github.com/skyward-networks/skyward/lib/cli"
	"github.com/skyward-networks/skyward/lib/cloudapi"
	"github.com/skyward-networks/skyward/lib/config"
	"github.com/skyward-networks/skyward/lib/resolve"
)

// sessionParams are the flags shared by every command that talks to
// the backend. Embedded into each command's params struct.
type sessionParams struct {
	Config         string `flag:"config" desc:"path to skyward.yaml (overrides SKYWARD_CONFIG)"`
	Profile        string `flag:"profile" desc:"named profile from the config file"`
	NonInteractive bool   `flag:"non-interactive" desc:"never prompt; ambiguous matches fail"`
	Debug          bool   `flag:"debug" desc:"enable debug logging"`
}

// session wires one command invocation: config, store, coordinator,
// resolver. Everything is built per invocation and closed when the
// command returns; there are no package-level singletons.
type session struct {
	cfg      *config.Config
	store    *cache.Store
	coord    *cache.Coordinator
	resolver *resolve.Resolver
	gate     resolve.Gate
	logger   *slog.Logger
}

func newSession(params *sessionParams) (*session, error) {
	var cfg *config.Config
	var err error
	if params.Config != "" {
		cfg, err = config.LoadFile(params.Config)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.SelectProfile(params.Profile); err != nil {
		return nil, err
	}
	if params.NonInteractive {
		cfg.Output.NonInteractive = true
	}

	logger := cli.NewCommandLogger(params.Debug || cfg.Output.Debug)

	if err := os.MkdirAll(cfg.Cache.Dir, 0o700); err != nil {
		return nil, err
	}

	store, err := openStoreRebuilding(cfg, logger)
	if err != nil {
		return nil, err
	}

	client, err := cloudapi.NewHTTPClient(cloudapi.HTTPConfig{
		BaseURL:  cfg.API.BaseURL,
		Token:    cfg.API.Token,
		PageSize: cfg.API.PageSize,
		Timeout:  time.Duration(cfg.API.Timeout),
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	coord := cache.NewCoordinator(cache.CoordinatorConfig{
		Store:  store,
		Client: client,
		Logger: logger,
		MaxAge: cfg.MaxAges(),
	})

	var gate resolve.Gate
	if !cfg.Output.NonInteractive {
		gate = &resolve.PromptGate{}
	}

	return &session{
		cfg:   cfg,
		store: store,
		coord: coord,
		gate:  gate,
		resolver: resolve.NewResolver(resolve.Config{
			Store:       store,
			Coordinator: coord,
			Gate:        gate,
			Logger:      logger,
		}),
		logger: logger,
	}, nil
}

// openStoreRebuilding opens the cache database, wiping and recreating
// it when the file is corrupt. Corruption costs a re-fetch, never a
// failed command.
func openStoreRebuilding(cfg *config.Config, logger *slog.Logger) (*cache.Store, error) {
	path := cfg.CachePath()
	store, err := cache.OpenStore(cache.StoreConfig{Path: path, Logger: logger})
	if err == nil {
		return store, nil
	}
	if !errors.Is(err, cache.ErrCorrupt) {
		return nil, err
	}

	logger.Warn("cache database corrupt, rebuilding", "path", path, "error", err)
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if removeErr := os.Remove(path + suffix); removeErr != nil && !os.IsNotExist(removeErr) {
			return nil, removeErr
		}
	}
	return cache.OpenStore(cache.StoreConfig{Path: path, Logger: logger})
}

func (s *session) Close() error {
	return s.store.Close()
}
