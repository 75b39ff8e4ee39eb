// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// EnvOutput overrides the detected personality level.
const EnvOutput = "DISPLAYNAME_OUTPUT"

// PersonalityLevel defines the richness of CLI output.
type PersonalityLevel string

const (
	// PersonalityFull enables colors, icons and per-file reasons.
	PersonalityFull PersonalityLevel = "full"

	// PersonalityMinimal uses icons and paths only.
	PersonalityMinimal PersonalityLevel = "minimal"

	// PersonalityMachine outputs plain tab-separated text for scripts.
	PersonalityMachine PersonalityLevel = "machine"
)

// ParsePersonalityLevel converts a string to a PersonalityLevel. Unknown
// values map to PersonalityFull.
func ParsePersonalityLevel(s string) PersonalityLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minimal", "min", "m":
		return PersonalityMinimal
	case "machine", "plain", "quiet", "q":
		return PersonalityMachine
	default:
		return PersonalityFull
	}
}

// DetectPersonality picks the level for output written to w: the
// DISPLAYNAME_OUTPUT environment variable wins, then terminals get
// PersonalityFull and everything else PersonalityMachine.
func DetectPersonality(w io.Writer) PersonalityLevel {
	if env := os.Getenv(EnvOutput); env != "" {
		return ParsePersonalityLevel(env)
	}
	if IsTerminal(w) {
		return PersonalityFull
	}
	return PersonalityMachine
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
