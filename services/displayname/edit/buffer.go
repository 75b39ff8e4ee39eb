// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package edit provides an editable view over an immutable source buffer.
//
// Edits are keyed by byte offsets into the original source and are only
// applied when the buffer is serialized, so offsets taken from a syntax tree
// stay valid no matter how many edits have been recorded.
package edit

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrOutOfRange indicates an offset outside the original source.
	ErrOutOfRange = errors.New("edit offset out of range")

	// ErrOverlappingEdit indicates an edit that intersects a replaced range.
	ErrOverlappingEdit = errors.New("edit overlaps a replaced range")
)

// Edit is one recorded change. An insert has Start == End.
type Edit struct {
	Start int
	End   int
	Text  string

	seq int
}

// Buffer records inserts and replacements against an original source.
//
// Thread Safety:
//
//	Buffer is not safe for concurrent use. Each transform owns its buffer.
type Buffer struct {
	source   []byte
	inserts  []Edit
	replaces []Edit
	seq      int
}

// New creates a Buffer over source. The slice must not be modified afterwards.
func New(source []byte) *Buffer {
	return &Buffer{source: source}
}

// Insert adds text at offset.
//
// Several inserts at one offset are emitted in call order. An insert at the
// end of a replaced range is emitted after the replacement; one at its start
// is emitted before it.
func (b *Buffer) Insert(offset int, text string) error {
	if offset < 0 || offset > len(b.source) {
		return fmt.Errorf("%w: insert at %d, source length %d", ErrOutOfRange, offset, len(b.source))
	}
	for _, r := range b.replaces {
		if offset > r.Start && offset < r.End {
			return fmt.Errorf("%w: insert at %d inside [%d,%d)", ErrOverlappingEdit, offset, r.Start, r.End)
		}
	}
	b.seq++
	b.inserts = append(b.inserts, Edit{Start: offset, End: offset, Text: text, seq: b.seq})
	return nil
}

// Replace substitutes text for the original range [start, end).
func (b *Buffer) Replace(start, end int, text string) error {
	if start < 0 || end > len(b.source) || start > end {
		return fmt.Errorf("%w: replace [%d,%d), source length %d", ErrOutOfRange, start, end, len(b.source))
	}
	if start == end {
		return b.Insert(start, text)
	}
	for _, r := range b.replaces {
		if start < r.End && r.Start < end {
			return fmt.Errorf("%w: replace [%d,%d) intersects [%d,%d)", ErrOverlappingEdit, start, end, r.Start, r.End)
		}
	}
	for _, in := range b.inserts {
		if in.Start > start && in.Start < end {
			return fmt.Errorf("%w: replace [%d,%d) covers insert at %d", ErrOverlappingEdit, start, end, in.Start)
		}
	}
	b.seq++
	b.replaces = append(b.replaces, Edit{Start: start, End: end, Text: text, seq: b.seq})
	return nil
}

// Changed reports whether any edit has been recorded.
func (b *Buffer) Changed() bool {
	return len(b.inserts) > 0 || len(b.replaces) > 0
}

// edits returns all edits in output order.
func (b *Buffer) edits() []Edit {
	inserts := b.sortedInserts()
	replaces := b.sortedReplaces()

	out := make([]Edit, 0, len(inserts)+len(replaces))
	i, r := 0, 0
	for i < len(inserts) || r < len(replaces) {
		if r == len(replaces) || (i < len(inserts) && inserts[i].Start <= replaces[r].Start) {
			out = append(out, inserts[i])
			i++
			continue
		}
		out = append(out, replaces[r])
		r++
	}
	return out
}

// String serializes the source with all edits applied.
func (b *Buffer) String() string {
	var sb strings.Builder
	sb.Grow(len(b.source) + 64)

	pos := 0
	for _, e := range b.edits() {
		sb.Write(b.source[pos:e.Start])
		sb.WriteString(e.Text)
		pos = e.End
	}
	sb.Write(b.source[pos:])
	return sb.String()
}

func (b *Buffer) sortedInserts() []Edit {
	out := append([]Edit(nil), b.inserts...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].seq < out[j].seq
	})
	return out
}

func (b *Buffer) sortedReplaces() []Edit {
	out := append([]Edit(nil), b.replaces...)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Start < out[j].Start
	})
	return out
}
