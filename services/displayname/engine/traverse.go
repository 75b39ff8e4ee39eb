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
	"log/slog"

	"github.com/AleutianAI/displayname/services/displayname/edit"
	"github.com/AleutianAI/displayname/services/displayname/syntax"
)

// run is the state of one traversal over one tree.
type run struct {
	tree    *syntax.Tree
	opts    Options
	pragmas Pragmas
	found   NameSet
	scopes  scopeStack
	buf     *edit.Buffer
	logger  *slog.Logger

	annotations []Annotation
	err         error
}

// traverse walks the tree once, tracking function scopes and emitting
// annotations for qualifying pragma calls.
func (r *run) traverse() error {
	syntax.Walk(r.tree.Root, syntax.Visitor{
		Enter: r.enter,
		Leave: r.leave,
	})
	return r.err
}

func (r *run) enter(n *syntax.Node, ancestors []*syntax.Node) bool {
	if r.err != nil {
		return false
	}

	switch {
	case isFunctionLike(n):
		r.enterFunction(n)
	case n.Is(syntax.KindLexicalDeclaration, syntax.KindVariableDeclaration):
		r.enterDeclaration(n)
	case n.Is(syntax.KindForInStatement):
		r.enterLoopHead(n)
	case n.Is(syntax.KindCallExpression):
		r.enterCall(n, ancestors)
	}
	return true
}

func (r *run) leave(n *syntax.Node, _ []*syntax.Node) {
	if isFunctionLike(n) {
		r.scopes.pop()
	}
}

// enterFunction pushes the scope of a function-like node.
func (r *run) enterFunction(n *syntax.Node) {
	name := anonymousScope
	var id *syntax.Node
	if !n.Is(syntax.KindMethodDefinition) {
		id = n.ChildByField(syntax.FieldName)
	}
	if id != nil {
		name = r.tree.Text(id)
	}

	s := newScope(name)
	for _, param := range functionParameters(n) {
		if bound := r.parameterName(param); r.pragmas.Has(bound) {
			s.rebind(bound)
		}
	}

	if id != nil && r.pragmas.Has(name) {
		// A named function expression binds its own name inside its body.
		if isFunctionExpression(n) {
			s.rebind(name)
		}
		// The function's name is also a binding of the enclosing scope.
		if parent := r.scopes.top(); parent != nil {
			parent.rebind(name)
		}
	}

	r.scopes.push(s)
}

// enterDeclaration registers pragma names re-declared by a variable
// declaration in the innermost function scope. Module-level declarations
// do not shadow.
func (r *run) enterDeclaration(n *syntax.Node) {
	top := r.scopes.top()
	if top == nil {
		return
	}

	for _, decl := range n.NamedChildren() {
		if !decl.Is(syntax.KindVariableDeclarator) {
			continue
		}
		for _, bound := range r.patternNames(decl.ChildByField(syntax.FieldName)) {
			if r.pragmas.Has(bound) {
				top.rebind(bound)
			}
		}
	}
}

// enterLoopHead registers pragma names declared in the head of a for-in or
// for-of loop, as in `for (const memo of list)`. A head that assigns to an
// existing binding declares nothing.
func (r *run) enterLoopHead(n *syntax.Node) {
	top := r.scopes.top()
	if top == nil || n.ChildByField(syntax.FieldKind) == nil {
		return
	}
	for _, bound := range r.patternNames(n.ChildByField(syntax.FieldLeft)) {
		if r.pragmas.Has(bound) {
			top.rebind(bound)
		}
	}
}

// patternNames returns the names bound by a declarator target: a plain
// identifier, the properties of an object pattern, or the identifier
// elements of an array pattern.
func (r *run) patternNames(target *syntax.Node) []string {
	if target == nil {
		return nil
	}

	switch target.Kind {
	case syntax.KindIdentifier:
		return []string{r.tree.Text(target)}

	case syntax.KindObjectPattern:
		var names []string
		for _, prop := range target.NamedChildren() {
			switch prop.Kind {
			case syntax.KindShorthandPropertyPattern:
				names = append(names, r.tree.Text(prop))
			case syntax.KindObjectAssignmentPattern:
				if left := prop.ChildByField(syntax.FieldLeft); left != nil {
					names = append(names, r.tree.Text(left))
				}
			case syntax.KindPairPattern:
				if value := prop.ChildByField(syntax.FieldValue); value.Is(syntax.KindIdentifier) {
					names = append(names, r.tree.Text(value))
				}
			}
		}
		return names

	case syntax.KindArrayPattern:
		var names []string
		for _, elem := range target.NamedChildren() {
			if elem.Is(syntax.KindIdentifier) {
				names = append(names, r.tree.Text(elem))
			}
		}
		return names
	}
	return nil
}

// parameterName unwraps typed parameters, default values and rest
// elements down to an identifier. It returns "" for destructured params.
func (r *run) parameterName(param *syntax.Node) string {
	for param != nil {
		switch param.Kind {
		case syntax.KindIdentifier:
			return r.tree.Text(param)
		case syntax.KindRequiredParameter, syntax.KindOptionalParameter:
			param = param.ChildByField(syntax.FieldPattern)
		case syntax.KindAssignmentPattern:
			param = param.ChildByField(syntax.FieldLeft)
		case syntax.KindRestPattern:
			children := param.NamedChildren()
			if len(children) == 0 {
				return ""
			}
			param = children[0]
		default:
			return ""
		}
	}
	return ""
}

// enterCall handles a call expression whose first argument is an
// anonymous function.
func (r *run) enterCall(call *syntax.Node, ancestors []*syntax.Node) {
	if componentArgument(call) == nil {
		return
	}

	if r.isMemo(call) {
		r.addDisplayName(ancestors, call, nil)
	}

	if r.isForwardRef(call) {
		var wrapper *syntax.Node
		if parent := enclosingCall(ancestors); parent != nil && r.isMemo(parent) {
			wrapper = parent
		}
		if wrapper != nil && !r.opts.RewriteNestedForwardRef {
			r.logger.Debug("skipping forwardRef nested in memo",
				slog.Int("offset", call.Start))
			return
		}
		r.addDisplayName(ancestors, call, wrapper)
	}
}

// isMemo reports whether call invokes the unshadowed memo pragma, either
// bare (memo(...)) or through the namespace (React.memo(...)).
func (r *run) isMemo(call *syntax.Node) bool {
	return r.isPragmaCall(call, r.pragmas.Memo, memoExport)
}

// isForwardRef is the forwardRef counterpart of isMemo.
func (r *run) isForwardRef(call *syntax.Node) bool {
	return r.isPragmaCall(call, r.pragmas.ForwardRef, forwardRefExport)
}

func (r *run) isPragmaCall(call *syntax.Node, local, export string) bool {
	callee := call.ChildByField(syntax.FieldFunction)
	if callee == nil {
		return false
	}

	switch callee.Kind {
	case syntax.KindIdentifier:
		return local != "" && r.tree.Text(callee) == local && !r.scopes.shadowed(local)

	case syntax.KindMemberExpression:
		ns := r.pragmas.Namespace
		object := callee.ChildByField(syntax.FieldObject)
		prop := callee.ChildByField(syntax.FieldProperty)
		return ns != "" &&
			object.Is(syntax.KindIdentifier) && r.tree.Text(object) == ns &&
			prop.Is(syntax.KindPropertyIdentifier) && r.tree.Text(prop) == export &&
			!r.scopes.shadowed(ns)
	}
	return false
}

// componentArgument returns the first argument of call when it is an
// anonymous function expression or arrow function, otherwise nil.
func componentArgument(call *syntax.Node) *syntax.Node {
	args := call.ChildByField(syntax.FieldArguments)
	if !args.Is(syntax.KindArguments) {
		return nil
	}
	children := args.NamedChildren()
	if len(children) == 0 {
		return nil
	}

	first := children[0]
	if !first.Is(syntax.KindArrowFunction) && !isFunctionExpression(first) {
		return nil
	}
	if first.ChildByField(syntax.FieldName) != nil {
		return nil
	}
	return first
}

// enclosingCall returns the call expression whose argument list directly
// contains the last node of ancestors, or nil.
func enclosingCall(ancestors []*syntax.Node) *syntax.Node {
	if len(ancestors) < 3 {
		return nil
	}
	args := ancestors[len(ancestors)-2]
	call := ancestors[len(ancestors)-3]
	if args.Is(syntax.KindArguments) && call.Is(syntax.KindCallExpression) {
		return call
	}
	return nil
}

// functionParameters returns the parameter nodes of a function-like node.
func functionParameters(fn *syntax.Node) []*syntax.Node {
	if single := fn.ChildByField(syntax.FieldParameter); single != nil {
		return []*syntax.Node{single}
	}
	return fn.ChildByField(syntax.FieldParameters).NamedChildren()
}

// isFunctionExpression matches both grammar spellings of a function
// expression. The Named check excludes the anonymous "function" keyword.
func isFunctionExpression(n *syntax.Node) bool {
	return n != nil && n.Named &&
		n.Is(syntax.KindFunctionExpression, syntax.KindFunction, syntax.KindGeneratorFunction)
}

func isFunctionLike(n *syntax.Node) bool {
	return isFunctionExpression(n) || n.Named && n.Is(
		syntax.KindArrowFunction,
		syntax.KindFunctionDeclaration,
		syntax.KindGeneratorFunctionDeclaration,
		syntax.KindMethodDefinition,
	)
}
