// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStyle(t *testing.T) {
	for _, name := range []string{"displayName", "AppendAssignment", "append-assignment", " DISPLAYNAME "} {
		style, err := ParseStyle(name)
		require.NoError(t, err, name)
		assert.Equal(t, StyleDisplayName, style)
	}
	for _, name := range []string{"namedFuncExpr", "NamedFunctionExpression", "named-function-expression"} {
		style, err := ParseStyle(name)
		require.NoError(t, err, name)
		assert.Equal(t, StyleNamedFunction, style)
	}

	_, err := ParseStyle("arrow")
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.True(t, opts.RequirePascalCase)
	assert.True(t, opts.InsertSemicolon)
	assert.False(t, opts.RewriteNestedForwardRef)
	assert.Equal(t, StyleDisplayName, opts.Style)
	assert.Equal(t, "react", opts.ImportSource)
	assert.NoError(t, opts.Validate())
}

func TestOptions_Validate(t *testing.T) {
	opts := DefaultOptions()
	opts.Style = ""
	assert.ErrorIs(t, opts.Validate(), ErrInvalidOptions)

	opts = DefaultOptions()
	opts.ImportSource = "  "
	assert.ErrorIs(t, opts.Validate(), ErrInvalidOptions)
}
