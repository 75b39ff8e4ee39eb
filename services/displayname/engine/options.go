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
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidOptions indicates an Options value that cannot drive a run.
var ErrInvalidOptions = errors.New("invalid options")

// DefaultImportSource is the UI library module whose imports bind pragmas.
const DefaultImportSource = "react"

// Style selects the textual form of an emitted annotation.
type Style string

const (
	// StyleDisplayName appends `<Name>.displayName = '<Name>'` after the
	// enclosing variable declaration.
	StyleDisplayName Style = "displayName"

	// StyleNamedFunction rewrites the anonymous function argument into a
	// named function expression carrying the name.
	StyleNamedFunction Style = "namedFuncExpr"
)

// String returns the wire name of the style.
func (s Style) String() string {
	return string(s)
}

// ParseStyle converts a style name into a Style.
//
// Both the short wire names ("displayName", "namedFuncExpr") and the long
// names ("AppendAssignment", "NamedFunctionExpression") are accepted,
// case-insensitively.
func ParseStyle(name string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "displayname", "appendassignment", "append-assignment":
		return StyleDisplayName, nil
	case "namedfuncexpr", "namedfunctionexpression", "named-function-expression":
		return StyleNamedFunction, nil
	default:
		return "", fmt.Errorf("%w: unknown style %q", ErrInvalidOptions, name)
	}
}

// Options controls a transform run. Options are immutable per run; use
// DefaultOptions and override fields rather than relying on the zero value.
type Options struct {
	// RequirePascalCase restricts annotations to bindings whose name matches
	// ^[A-Z][A-Za-z0-9]*$. The check is made on the declared variable name,
	// never on object keys.
	RequirePascalCase bool

	// InsertSemicolon terminates emitted statements with ';'.
	InsertSemicolon bool

	// RewriteNestedForwardRef annotates forwardRef calls that are the
	// argument of a memo call, i.e. memo(forwardRef(() => ...)).
	RewriteNestedForwardRef bool

	// Style is the emission style.
	Style Style

	// ImportSource is the module name whose imports bind the pragmas.
	ImportSource string
}

// DefaultOptions returns the default options.
//
// Defaults: pascal case required, trailing semicolon inserted, nested
// forwardRef left alone, displayName style, imports from "react".
func DefaultOptions() Options {
	return Options{
		RequirePascalCase:       true,
		InsertSemicolon:         true,
		RewriteNestedForwardRef: false,
		Style:                   StyleDisplayName,
		ImportSource:            DefaultImportSource,
	}
}

// Validate checks the options for values the engine cannot use.
func (o Options) Validate() error {
	switch o.Style {
	case StyleDisplayName, StyleNamedFunction:
	default:
		return fmt.Errorf("%w: unknown style %q", ErrInvalidOptions, o.Style)
	}
	if strings.TrimSpace(o.ImportSource) == "" {
		return fmt.Errorf("%w: import source is empty", ErrInvalidOptions)
	}
	return nil
}

func (o Options) semicolon() string {
	if o.InsertSemicolon {
		return ";"
	}
	return ""
}
