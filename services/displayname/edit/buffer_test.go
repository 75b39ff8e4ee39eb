// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package edit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer_NoEditsIsIdentity(t *testing.T) {
	src := "const a = 1\n"
	b := New([]byte(src))
	assert.False(t, b.Changed())
	assert.Equal(t, src, b.String())
}

func TestBuffer_InsertOrderAtSameOffset(t *testing.T) {
	b := New([]byte("abc"))
	require.NoError(t, b.Insert(3, "\nA"))
	require.NoError(t, b.Insert(3, "\nB"))
	require.NoError(t, b.Insert(0, ">"))
	assert.Equal(t, ">abc\nA\nB", b.String())
	assert.True(t, b.Changed())
}

func TestBuffer_Replace(t *testing.T) {
	b := New([]byte("const Foo = memo(() => x)"))
	require.NoError(t, b.Replace(17, 23, "function Foo() { return "))
	require.NoError(t, b.Insert(24, "; }"))
	assert.Equal(t, "const Foo = memo(function Foo() { return x; })", b.String())
}

func TestBuffer_InsertAtReplaceBoundaries(t *testing.T) {
	b := New([]byte("0123456789"))
	require.NoError(t, b.Replace(2, 5, "X"))
	require.NoError(t, b.Insert(5, "[end]"))
	require.NoError(t, b.Insert(2, "[start]"))
	assert.Equal(t, "01[start]X[end]56789", b.String())
}

func TestBuffer_RejectsOverlaps(t *testing.T) {
	b := New([]byte("0123456789"))
	require.NoError(t, b.Replace(2, 6, "X"))

	assert.ErrorIs(t, b.Replace(5, 8, "Y"), ErrOverlappingEdit)
	assert.ErrorIs(t, b.Replace(0, 3, "Y"), ErrOverlappingEdit)
	assert.ErrorIs(t, b.Insert(4, "Y"), ErrOverlappingEdit)

	require.NoError(t, b.Insert(8, "I"))
	assert.ErrorIs(t, b.Replace(7, 9, "Z"), ErrOverlappingEdit)

	assert.NoError(t, b.Replace(6, 7, "Z"), "adjacent ranges do not overlap")
	assert.Equal(t, "01XZ7I89", b.String())
}

func TestBuffer_RejectsOutOfRange(t *testing.T) {
	b := New([]byte("abc"))
	assert.ErrorIs(t, b.Insert(4, "x"), ErrOutOfRange)
	assert.ErrorIs(t, b.Insert(-1, "x"), ErrOutOfRange)
	assert.ErrorIs(t, b.Replace(2, 1, "x"), ErrOutOfRange)
	assert.ErrorIs(t, b.Replace(0, 9, "x"), ErrOutOfRange)
	assert.False(t, b.Changed())
}

func TestBuffer_EmptyReplaceIsInsert(t *testing.T) {
	b := New([]byte("ab"))
	require.NoError(t, b.Replace(1, 1, "-"))
	edits := b.edits()
	require.Len(t, edits, 1)
	assert.Equal(t, edits[0].Start, edits[0].End)
	assert.Equal(t, "a-b", b.String())
}

func TestBuffer_EditsSorted(t *testing.T) {
	b := New([]byte("hello world"))
	require.NoError(t, b.Replace(6, 11, "there"))
	require.NoError(t, b.Insert(0, "> "))

	edits := b.edits()
	require.Len(t, edits, 2)
	assert.Equal(t, 0, edits[0].Start)
	assert.Equal(t, 6, edits[1].Start)
	assert.Equal(t, "> hello there", b.String())
}
