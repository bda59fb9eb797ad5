// Copyright 2026 The Skyward Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ExitError signals a non-zero exit code without an extra error
// message: the command has already written its own output, and main
// exits with Code silently. Used where non-zero is a valid outcome
// rather than a failure, like an ambiguous resolution in scripted
// mode that already printed the candidate list.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code. Main checks for this interface on
// returned errors to distinguish a handled non-zero exit from an
// unexpected error to display.
func (e *ExitError) ExitCode() int {
	return e.Code
}
