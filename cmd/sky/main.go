// Copyright 2026 The Skyward Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/skyward-networks/skyward/lib/cache"
)

func main() {
	if err := run(); err != nil {
		// Commands that already printed their own output return an
		// ExitError; don't add a redundant "error:" line for those.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if errors.Is(err, cache.ErrCorrupt) {
			fmt.Fprintln(os.Stderr, `the cache database is damaged; run "sky cache clear" to rebuild it`)
		}
		os.Exit(1)
	}
}

func run() error {
	return rootCommand().Execute(os.Args[1:])
}
