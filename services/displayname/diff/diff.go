// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package diff renders the output of a transform as a unified diff against
// its input.
package diff

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	godiff "github.com/sourcegraph/go-diff/diff"
)

// DefaultContextLines is the number of unchanged lines shown around a change.
const DefaultContextLines = 3

// Renderer builds unified diffs.
type Renderer struct {
	contextLines int
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithContextLines sets the number of context lines around each change.
func WithContextLines(n int) RendererOption {
	return func(r *Renderer) {
		if n >= 0 {
			r.contextLines = n
		}
	}
}

// NewRenderer creates a Renderer.
func NewRenderer(opts ...RendererOption) *Renderer {
	r := &Renderer{contextLines: DefaultContextLines}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render returns the unified diff from original to updated for path, or
// nil when the two are equal.
//
// Inputs:
//   - path: File name written in the --- and +++ headers.
//   - original: The source as read.
//   - updated: The transformed source.
//
// Outputs:
//   - []byte: The rendered diff.
//   - error: Non-nil if printing fails.
func (r *Renderer) Render(path string, original, updated []byte) ([]byte, error) {
	hunks := r.Hunks(original, updated)
	if len(hunks) == 0 {
		return nil, nil
	}

	fd := &godiff.FileDiff{
		OrigName: "a/" + path,
		NewName:  "b/" + path,
		Hunks:    hunks,
	}
	out, err := godiff.PrintFileDiff(fd)
	if err != nil {
		return nil, fmt.Errorf("printing diff for %s: %w", path, err)
	}
	return out, nil
}

// Hunks computes the unified diff hunks between original and updated.
func (r *Renderer) Hunks(original, updated []byte) []*godiff.Hunk {
	if bytes.Equal(original, updated) {
		return nil
	}

	a := splitLines(string(original))
	b := splitLines(string(updated))
	m := difflib.NewMatcherWithJunk(a, b, false, nil)

	var hunks []*godiff.Hunk
	for _, group := range m.GetGroupedOpCodes(r.contextLines) {
		first, last := group[0], group[len(group)-1]

		var body strings.Builder
		for _, op := range group {
			switch op.Tag {
			case 'e':
				writeLines(&body, ' ', a[op.I1:op.I2])
			case 'd':
				writeLines(&body, '-', a[op.I1:op.I2])
			case 'i':
				writeLines(&body, '+', b[op.J1:op.J2])
			case 'r':
				writeLines(&body, '-', a[op.I1:op.I2])
				writeLines(&body, '+', b[op.J1:op.J2])
			}
		}

		origLines := last.I2 - first.I1
		newLines := last.J2 - first.J1
		hunks = append(hunks, &godiff.Hunk{
			OrigStartLine: hunkStart(first.I1, origLines),
			OrigLines:     int32(origLines),
			NewStartLine:  hunkStart(first.J1, newLines),
			NewLines:      int32(newLines),
			Body:          []byte(body.String()),
		})
	}
	return hunks
}

// Render renders a diff with the default context.
func Render(path string, original, updated []byte) ([]byte, error) {
	return NewRenderer().Render(path, original, updated)
}

// splitLines splits s after every newline. Unlike difflib.SplitLines it
// keeps a missing final newline visible, so that line compares unequal to
// the same text with a newline.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.SplitAfter(s, "\n")
	if parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

// hunkStart converts a 0-based line to the 1-based hunk start. An empty
// range names the line before it.
func hunkStart(line, count int) int32 {
	if count == 0 {
		return int32(line)
	}
	return int32(line + 1)
}

func writeLines(sb *strings.Builder, prefix byte, lines []string) {
	for _, line := range lines {
		sb.WriteByte(prefix)
		sb.WriteString(line)
		if !strings.HasSuffix(line, "\n") {
			sb.WriteString("\n\\ No newline at end of file\n")
		}
	}
}
