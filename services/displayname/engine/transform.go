// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package engine adds displayName annotations to React components created
// through memo and forwardRef.
//
// A run detects which local names bind the pragmas, collects the names that
// already carry a displayName, then walks the tree once tracking function
// scopes so that shadowed pragmas are ignored. Every qualifying call bound
// to a variable gets either a `Name.displayName = 'Name'` statement after
// its declaration or a named function expression, depending on Style.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/displayname/services/displayname/edit"
	"github.com/AleutianAI/displayname/services/displayname/syntax"
)

// ErrCanceled indicates the run was abandoned because its context ended.
var ErrCanceled = errors.New("transform canceled")

// Result is the outcome of a transform run.
type Result struct {
	// Code is the transformed source. Equal to the input when Changed is false.
	Code string

	// Changed reports whether any annotation was emitted.
	Changed bool

	// Annotations lists the emitted names in traversal order.
	Annotations []Annotation

	// Pragmas are the pragma bindings detected in the source.
	Pragmas Pragmas
}

// Transformer runs the engine with fixed options.
//
// Thread Safety:
//
//	A Transformer is safe for concurrent use. Each call owns its own state.
type Transformer struct {
	opts   Options
	parser *syntax.Parser
	logger *slog.Logger
}

// TransformerOption configures a Transformer.
type TransformerOption func(*Transformer)

// WithLogger sets the logger for debug output of the traversal.
func WithLogger(logger *slog.Logger) TransformerOption {
	return func(t *Transformer) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithParser sets the parser used by Transform.
func WithParser(p *syntax.Parser) TransformerOption {
	return func(t *Transformer) {
		if p != nil {
			t.parser = p
		}
	}
}

// NewTransformer creates a Transformer.
//
// Inputs:
//   - opts: Engine options. Validated here so later runs cannot fail on them.
//   - options: Optional logger and parser overrides.
//
// Outputs:
//   - *Transformer: Ready to use.
//   - error: ErrInvalidOptions when opts fail validation.
func NewTransformer(opts Options, options ...TransformerOption) (*Transformer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	t := &Transformer{
		opts:   opts,
		parser: syntax.NewParser(),
		logger: slog.Default(),
	}
	for _, opt := range options {
		opt(t)
	}
	return t, nil
}

// Options returns the options of the transformer.
func (t *Transformer) Options() Options {
	return t.opts
}

// Transform parses source and annotates it.
//
// Inputs:
//   - ctx: Context for cancellation and tracing.
//   - source: Module source text.
//   - filePath: Path used in errors, logs and spans.
//
// Outputs:
//   - *Result: The transformed code and what was emitted.
//   - error: A *syntax.ParseError for unparseable input, ErrCanceled, or an
//     edit conflict (which indicates a bug).
func (t *Transformer) Transform(ctx context.Context, source []byte, filePath string) (*Result, error) {
	tree, err := t.parser.Parse(ctx, source, filePath)
	if err != nil {
		return nil, err
	}
	return t.TransformTree(ctx, tree)
}

// TransformTree annotates an already parsed tree. The tree is not modified.
func (t *Transformer) TransformTree(ctx context.Context, tree *syntax.Tree) (result *Result, err error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCanceled, err)
	}

	ctx, span := startTransformSpan(ctx, tree.Path, t.opts)
	defer span.End()
	start := time.Now()
	defer func() {
		n := 0
		if result != nil {
			n = len(result.Annotations)
		}
		recordTransformMetrics(ctx, time.Since(start), t.opts.Style, n, err == nil)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	pragmas := DetectPragmas(tree, t.opts.ImportSource)
	if pragmas.Empty() {
		t.logger.Debug("no pragmas imported", slog.String("file", tree.Path))
		result = &Result{Code: string(tree.Source), Pragmas: pragmas}
		setTransformSpanResult(span, result)
		return result, nil
	}

	r := &run{
		tree:    tree,
		opts:    t.opts,
		pragmas: pragmas,
		found:   CollectDisplayNames(tree),
		buf:     edit.New(tree.Source),
		logger:  t.logger.With(slog.String("file", tree.Path)),
	}
	if err := r.traverse(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCanceled, err)
	}

	result = &Result{
		Code:        r.buf.String(),
		Changed:     r.buf.Changed(),
		Annotations: r.annotations,
		Pragmas:     pragmas,
	}
	setTransformSpanResult(span, result)
	return result, nil
}

// Transform annotates an already parsed tree with opts.
func Transform(ctx context.Context, tree *syntax.Tree, opts Options) (*Result, error) {
	t, err := NewTransformer(opts)
	if err != nil {
		return nil, err
	}
	return t.TransformTree(ctx, tree)
}

// Modify annotates source with opts and returns the new code. It is the
// one-shot form of NewTransformer followed by Transform.
func Modify(ctx context.Context, source string, opts Options) (string, error) {
	t, err := NewTransformer(opts)
	if err != nil {
		return "", err
	}
	res, err := t.Transform(ctx, []byte(source), "<input>.tsx")
	if err != nil {
		return "", err
	}
	return res.Code, nil
}

// ModifyFile reads the file at path and returns its annotated code. The
// file is not written.
func ModifyFile(ctx context.Context, path string, opts Options) (string, error) {
	t, err := NewTransformer(opts)
	if err != nil {
		return "", err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	res, err := t.Transform(ctx, content, path)
	if err != nil {
		return "", err
	}
	return res.Code, nil
}
