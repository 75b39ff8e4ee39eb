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
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/AleutianAI/displayname/services/displayname/syntax"
)

var pascalCase = regexp.MustCompile(`^[A-Z][a-zA-Z0-9]*$`)

// Annotation describes one emitted name.
type Annotation struct {
	// Name is the annotated name, dotted for object-nested components.
	Name string

	// Style is the emission style used.
	Style Style

	// Offset is the byte offset in the original source where the edit starts.
	Offset int

	// Line is the 1-based line of Offset.
	Line int
}

// binding is the variable declaration a pragma call is bound through.
type binding struct {
	declaration *syntax.Node
	declarator  *syntax.Node
	init        *syntax.Node
	name        string
	index       int
}

// findBinding locates the nearest enclosing variable declarator of the
// last node in ancestors. It returns false when the call is not bound to a
// simple identifier inside a variable declaration.
func (r *run) findBinding(ancestors []*syntax.Node) (binding, bool) {
	idx := -1
	for i := len(ancestors) - 1; i >= 0; i-- {
		if ancestors[i].Is(syntax.KindVariableDeclarator) {
			idx = i
			break
		}
	}
	if idx < 1 {
		return binding{}, false
	}

	declarator := ancestors[idx]
	id := declarator.ChildByField(syntax.FieldName)
	init := declarator.ChildByField(syntax.FieldValue)
	if !id.Is(syntax.KindIdentifier) || init == nil {
		return binding{}, false
	}

	return binding{
		declaration: ancestors[idx-1],
		declarator:  declarator,
		init:        init,
		name:        r.tree.Text(id),
		index:       idx,
	}, true
}

// addDisplayName derives the name of the component produced by call and
// commits an annotation for it. wrapper is the memo call whose argument is
// call, for a forwardRef nested in memo, and nil otherwise.
func (r *run) addDisplayName(ancestors []*syntax.Node, call, wrapper *syntax.Node) {
	b, ok := r.findBinding(ancestors)
	if !ok {
		r.logger.Debug("pragma call is not bound to a variable",
			slog.Int("offset", call.Start))
		return
	}

	// Pragma directly assigned to a variable, or forwardRef wrapped with memo.
	direct := b.init == call || (wrapper != nil && b.init == wrapper)
	if direct && !r.found.Has(b.name) {
		r.update(b, call, b.name)
	}

	// Pragma assigned to some object property.
	if b.init.Is(syntax.KindObject) {
		keys := r.objectKeys(ancestors, b.index)
		if len(keys) == 0 {
			return
		}

		var name string
		if r.opts.Style == StyleDisplayName {
			name = b.name + "." + strings.Join(keys, ".")
		} else {
			// A dotted path is not an identifier; use the innermost key.
			name = keys[len(keys)-1]
		}
		if !r.found.Has(name) {
			r.update(b, call, name)
		}
	}
}

// objectKeys collects the object property keys between the call (last
// ancestor) and the declarator at ancestors[stop], outermost first.
func (r *run) objectKeys(ancestors []*syntax.Node, stop int) []string {
	var keys []string
	for i := len(ancestors) - 2; i > stop; i-- {
		n := ancestors[i]
		if !n.Is(syntax.KindPair) {
			continue
		}
		if key := n.ChildByField(syntax.FieldKey); key.Is(syntax.KindPropertyIdentifier) {
			keys = append(keys, r.tree.Text(key))
		}
	}
	for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
		keys[i], keys[j] = keys[j], keys[i]
	}
	return keys
}

// update commits name for the binding when the declaration and naming
// rules allow it.
func (r *run) update(b binding, call *syntax.Node, name string) {
	if !b.declaration.Is(syntax.KindLexicalDeclaration, syntax.KindVariableDeclaration) {
		return
	}
	if r.opts.RequirePascalCase && !pascalCase.MatchString(b.name) {
		r.logger.Debug("skipping non-pascal-case binding",
			slog.String("binding", b.name),
			slog.String("name", name))
		return
	}

	var offset int
	var err error
	switch r.opts.Style {
	case StyleNamedFunction:
		offset, err = r.emitNamedFunction(call, name)
	default:
		offset, err = r.emitAssignment(b.declaration, name)
	}
	if err != nil {
		r.err = fmt.Errorf("annotate %s: %w", name, err)
		return
	}

	// Later occurrences of the same name stay unannotated in both styles.
	r.found.Add(name)
	line, _ := r.tree.Position(offset)
	r.annotations = append(r.annotations, Annotation{
		Name:   name,
		Style:  r.opts.Style,
		Offset: offset,
		Line:   line,
	})
	r.logger.Debug("annotated component",
		slog.String("name", name),
		slog.String("style", r.opts.Style.String()),
		slog.Int("line", line))
}

// emitAssignment appends `<name>.displayName = '<name>'` after declaration.
func (r *run) emitAssignment(declaration *syntax.Node, name string) (int, error) {
	stmt := fmt.Sprintf("\n%s.displayName = '%s'%s", name, name, r.opts.semicolon())
	return declaration.End, r.buf.Insert(declaration.End, stmt)
}

// emitNamedFunction rewrites the anonymous function argument of call into
// a named function expression. Only the function head is replaced, plus a
// block around an arrow's expression body, so the body text is untouched
// and edits inside it stay valid.
func (r *run) emitNamedFunction(call *syntax.Node, name string) (int, error) {
	fn := componentArgument(call)
	if fn == nil {
		return 0, fmt.Errorf("call at %d has no function argument", call.Start)
	}
	body := fn.ChildByField(syntax.FieldBody)
	if body == nil {
		return 0, fmt.Errorf("function at %d has no body", fn.Start)
	}

	var head strings.Builder
	if fn.HasToken("async") {
		head.WriteString("async ")
	}
	head.WriteString("function")
	if fn.Is(syntax.KindGeneratorFunction) || fn.HasToken("*") {
		head.WriteString("*")
	}
	head.WriteString(" ")
	head.WriteString(name)
	if tp := fn.ChildByField(syntax.FieldTypeParameters); tp != nil {
		head.WriteString(r.tree.Text(tp))
	}

	params := functionParameters(fn)
	texts := make([]string, 0, len(params))
	for _, p := range params {
		texts = append(texts, r.tree.Text(p))
	}
	head.WriteString("(")
	head.WriteString(strings.Join(texts, ", "))
	head.WriteString(")")

	if rt := fn.ChildByField(syntax.FieldReturnType); rt != nil {
		head.WriteString(r.tree.Text(rt))
	}
	head.WriteString(" ")

	if fn.Is(syntax.KindArrowFunction) && !body.Is(syntax.KindStatementBlock) {
		// The expression body is the implicit return value.
		head.WriteString("{ return ")
		if err := r.buf.Replace(fn.Start, body.Start, head.String()); err != nil {
			return 0, err
		}
		return fn.Start, r.buf.Insert(body.End, r.opts.semicolon()+" }")
	}

	return fn.Start, r.buf.Replace(fn.Start, body.Start, head.String())
}
