// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package syntax is the parse boundary of the displayName transformer.
//
// It turns JavaScript, JSX, TypeScript and TSX source into an immutable,
// kind-tagged Tree with byte offsets. Parsing is delegated to tree-sitter;
// the TSX grammar is used for every input since it accepts all four dialects.
package syntax

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
)

const (
	// DefaultMaxFileSize is the default upper bound on accepted source size.
	DefaultMaxFileSize = 10 * 1024 * 1024

	// WarnFileSize is the size above which a warning is logged.
	WarnFileSize = 1 * 1024 * 1024
)

// ParserOption configures a Parser instance.
type ParserOption func(*Parser)

// WithMaxFileSize sets the maximum file size the parser will accept.
//
// Parameters:
//   - bytes: Maximum file size in bytes. Non-positive values are ignored.
//
// Example:
//
//	parser := NewParser(WithMaxFileSize(5 * 1024 * 1024)) // 5MB limit
func WithMaxFileSize(bytes int64) ParserOption {
	return func(p *Parser) {
		if bytes > 0 {
			p.maxFileSize = bytes
		}
	}
}

// WithAllowSyntaxErrors makes Parse return a tree even when tree-sitter
// recovered from syntax errors. By default such sources fail with ErrSyntax.
func WithAllowSyntaxErrors(allow bool) ParserOption {
	return func(p *Parser) {
		p.allowSyntaxErrors = allow
	}
}

// Parser produces Trees from source text.
//
// Description:
//
//	Parser wraps a tree-sitter TSX parser and copies its output into an
//	owned Tree so the caller never handles tree-sitter memory.
//
// Thread Safety:
//
//	Parser instances are safe for concurrent use. Each Parse call creates
//	its own tree-sitter parser internally.
type Parser struct {
	maxFileSize       int64
	allowSyntaxErrors bool
}

// NewParser creates a Parser with the given options.
//
// Example:
//
//	parser := NewParser()
//	tree, err := parser.Parse(ctx, src, "Button.tsx")
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{
		maxFileSize: DefaultMaxFileSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse builds a Tree from source content.
//
// Description:
//
//	Validates the content, runs tree-sitter with the TSX grammar and copies
//	the result into an immutable Tree. Sources with syntax errors fail with
//	a *ParseError wrapping ErrSyntax unless WithAllowSyntaxErrors is set.
//
// Inputs:
//   - ctx: Context for cancellation. Checked before and after parsing.
//     Note: Tree-sitter parsing itself cannot be interrupted mid-parse.
//   - content: Raw source bytes. Must be valid UTF-8.
//   - filePath: Path used in error messages. May be a placeholder such as "<stdin>".
//
// Outputs:
//   - *Tree: The parsed tree. Never nil on success.
//   - error: Non-nil on failure:
//   - ErrFileTooLarge: Content exceeds the size limit
//   - ErrInvalidContent: Content is not valid UTF-8
//   - ErrSyntax (inside *ParseError): Source has syntax errors
//   - ErrContextCanceled: Context was canceled
//
// Thread Safety:
//
//	This method is safe for concurrent use.
func (p *Parser) Parse(ctx context.Context, content []byte, filePath string) (tree *Tree, err error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrContextCanceled, err)
	}

	ctx, span := startParseSpan(ctx, filePath, len(content))
	defer span.End()
	start := time.Now()
	defer func() {
		recordParseMetrics(ctx, time.Since(start), err == nil)
	}()

	if int64(len(content)) > p.maxFileSize {
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(content), p.maxFileSize)
	}

	if len(content) > WarnFileSize {
		slog.Warn("parsing large file",
			slog.String("file", filePath),
			slog.Int("size_bytes", len(content)))
	}

	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidContent)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(tsx.GetLanguage())

	sitterTree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	defer sitterTree.Close()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrContextCanceled, err)
	}

	root := sitterTree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("%w: tree-sitter returned nil root node", ErrParseFailed)
	}

	c := &converter{}
	cursor := sitter.NewTreeCursor(root)
	defer cursor.Close()

	tree = &Tree{
		Path:   filePath,
		Source: content,
		Root:   c.convert(cursor),
	}
	setParseSpanResult(span, c.nodes, c.firstError != nil)

	if c.firstError != nil && !p.allowSyntaxErrors {
		line := int(c.firstError.StartPoint().Row) + 1
		column := int(c.firstError.StartPoint().Column) + 1
		msg := "unexpected syntax"
		if c.firstError.IsMissing() {
			msg = fmt.Sprintf("missing %s", c.firstError.Type())
		}
		return nil, NewParseError(filePath, line, column, msg, ErrSyntax)
	}

	return tree, nil
}

// converter copies a tree-sitter tree into Nodes.
type converter struct {
	nodes      int
	firstError *sitter.Node
}

func (c *converter) convert(cursor *sitter.TreeCursor) *Node {
	sn := cursor.CurrentNode()
	c.nodes++
	if c.firstError == nil && (sn.IsError() || sn.IsMissing()) {
		c.firstError = sn
	}

	n := &Node{
		Kind:  sn.Type(),
		Field: cursor.CurrentFieldName(),
		Named: sn.IsNamed(),
		Start: int(sn.StartByte()),
		End:   int(sn.EndByte()),
	}

	if cursor.GoToFirstChild() {
		for {
			n.Children = append(n.Children, c.convert(cursor))
			if !cursor.GoToNextSibling() {
				break
			}
		}
		cursor.GoToParent()
	}
	return n
}
