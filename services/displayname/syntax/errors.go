// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package syntax

import (
	"errors"
	"fmt"
)

// Sentinel errors for parse failure conditions.
//
// These errors can be checked using errors.Is() to determine the
// category of failure without inspecting error messages.
var (
	// ErrParseFailed indicates that tree-sitter could not produce a tree at all.
	ErrParseFailed = errors.New("parse failed")

	// ErrSyntax indicates that the source contains syntax errors.
	//
	// The engine assumes a valid tree, so syntax errors stop a run at the
	// parse boundary unless the parser was built with WithAllowSyntaxErrors.
	ErrSyntax = errors.New("syntax error")

	// ErrInvalidContent indicates that the provided content is not UTF-8 text.
	ErrInvalidContent = errors.New("invalid content")

	// ErrFileTooLarge indicates that the content exceeds the parser size limit.
	ErrFileTooLarge = errors.New("file exceeds maximum size limit")

	// ErrContextCanceled indicates that parsing was canceled via context.
	ErrContextCanceled = errors.New("parse canceled")
)

// ParseError provides detailed information about a parse failure.
//
// ParseError wraps an underlying error with the location in the source
// file where the failure was detected. It can be unwrapped to access the
// underlying cause, typically ErrSyntax.
//
// Example:
//
//	tree, err := parser.Parse(ctx, content, "Button.tsx")
//	if err != nil {
//	    var parseErr *ParseError
//	    if errors.As(err, &parseErr) {
//	        fmt.Printf("%s:%d:%d: %s\n",
//	            parseErr.FilePath, parseErr.Line, parseErr.Column, parseErr.Message)
//	    }
//	}
type ParseError struct {
	// FilePath is the path to the file where the error occurred.
	FilePath string

	// Line is the 1-indexed line number where the error occurred.
	// May be 0 if the error is not associated with a specific line.
	Line int

	// Column is the 1-indexed column where the error occurred.
	// May be 0 if the error is not associated with a specific column.
	Column int

	// Message describes the error in human-readable form.
	Message string

	// Cause is the underlying error that triggered this parse error.
	Cause error
}

// Error returns a formatted error message including file location.
//
// Format depends on available location information:
//   - With line and column: "file.tsx:10:5: unexpected token"
//   - With line only:       "file.tsx:10: unexpected token"
//   - Without location:     "file.tsx: unexpected token"
func (e *ParseError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.FilePath, e.Line, e.Column, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.FilePath, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.FilePath, e.Message)
}

// Unwrap returns the underlying cause error.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// NewParseError creates a ParseError wrapping cause at the given location.
func NewParseError(filePath string, line, column int, message string, cause error) *ParseError {
	return &ParseError{
		FilePath: filePath,
		Line:     line,
		Column:   column,
		Message:  message,
		Cause:    cause,
	}
}

// IsParseError checks if an error is or wraps a ParseError.
func IsParseError(err error) bool {
	var parseErr *ParseError
	return errors.As(err, &parseErr)
}
