// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"errors"
	"fmt"
)

// Process exit codes.
const (
	exitOK         = 0
	exitError      = 1
	exitUsage      = 2
	exitNeedsNames = 3
)

// exitErr carries an exit code through cobra. A nil err means the
// failure has already been reported and only the code matters.
type exitErr struct {
	code int
	err  error
}

func (e *exitErr) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitErr) Unwrap() error {
	return e.err
}

func usageError(err error) error {
	return &exitErr{code: exitUsage, err: err}
}

func usageErrorf(format string, args ...any) error {
	return usageError(fmt.Errorf(format, args...))
}

func silentExit(code int) error {
	return &exitErr{code: code}
}

// exitCode maps err to a process exit code and reports whether the error
// still needs to be printed.
func exitCode(err error) (int, bool) {
	if err == nil {
		return exitOK, false
	}
	var e *exitErr
	if errors.As(err, &e) {
		return e.code, e.err != nil
	}
	return exitError, true
}
