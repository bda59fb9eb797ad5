// Copyright 2026 The Skyward Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewCommandLogger creates the structured logger for a command
// invocation. On a terminal stderr it uses slog.TextHandler for
// human-readable output; when stderr is piped or redirected it
// switches to slog.JSONHandler so scripts and CI get parseable lines.
//
// Callers scope it with command context via With:
//
//	logger := cli.NewCommandLogger(debug).With("command", "show/devices")
func NewCommandLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	options := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}
