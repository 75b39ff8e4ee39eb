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

import "bytes"

// Node kinds produced by the tree-sitter TSX grammar that the engine
// dispatches on. Kinds are plain strings so that grammars can be swapped
// without changing the Node representation.
const (
	KindProgram                       = "program"
	KindComment                       = "comment"
	KindImportStatement               = "import_statement"
	KindImportClause                  = "import_clause"
	KindNamedImports                  = "named_imports"
	KindNamespaceImport               = "namespace_import"
	KindImportSpecifier               = "import_specifier"
	KindIdentifier                    = "identifier"
	KindPropertyIdentifier            = "property_identifier"
	KindShorthandPropertyPattern      = "shorthand_property_identifier_pattern"
	KindString                        = "string"
	KindLexicalDeclaration            = "lexical_declaration"
	KindVariableDeclaration           = "variable_declaration"
	KindVariableDeclarator            = "variable_declarator"
	KindObjectPattern                 = "object_pattern"
	KindArrayPattern                  = "array_pattern"
	KindPairPattern                   = "pair_pattern"
	KindObjectAssignmentPattern       = "object_assignment_pattern"
	KindAssignmentPattern             = "assignment_pattern"
	KindRestPattern                   = "rest_pattern"
	KindRequiredParameter             = "required_parameter"
	KindOptionalParameter             = "optional_parameter"
	KindFormalParameters              = "formal_parameters"
	KindCallExpression                = "call_expression"
	KindArguments                     = "arguments"
	KindMemberExpression              = "member_expression"
	KindAssignmentExpression          = "assignment_expression"
	KindAugmentedAssignmentExpression = "augmented_assignment_expression"
	KindForInStatement                = "for_in_statement"
	KindObject                        = "object"
	KindPair                          = "pair"
	KindStatementBlock                = "statement_block"
	KindArrowFunction                 = "arrow_function"
	KindFunction                      = "function"
	KindFunctionExpression            = "function_expression"
	KindGeneratorFunction             = "generator_function"
	KindFunctionDeclaration           = "function_declaration"
	KindGeneratorFunctionDeclaration  = "generator_function_declaration"
	KindMethodDefinition              = "method_definition"
)

// Field names used by the TSX grammar.
const (
	FieldName           = "name"
	FieldAlias          = "alias"
	FieldSource         = "source"
	FieldValue          = "value"
	FieldFunction       = "function"
	FieldArguments      = "arguments"
	FieldObject         = "object"
	FieldProperty       = "property"
	FieldLeft           = "left"
	FieldRight          = "right"
	FieldKey            = "key"
	FieldPattern        = "pattern"
	FieldParameters     = "parameters"
	FieldParameter      = "parameter"
	FieldBody           = "body"
	FieldTypeParameters = "type_parameters"
	FieldReturnType     = "return_type"
	FieldKind           = "kind"
)

// Node is one element of an immutable syntax tree.
//
// Nodes are copied out of the tree-sitter tree at parse time so the engine
// never holds C-owned memory. Start and End are byte offsets into
// Tree.Source, End exclusive.
type Node struct {
	// Kind is the tree-sitter node type, e.g. "call_expression".
	// Anonymous tokens carry their literal text ("async", "*", "=>").
	Kind string

	// Field is the grammar field under which the parent holds this node,
	// or "" when the child is not a field.
	Field string

	// Named is false for anonymous tokens (punctuation and keywords).
	Named bool

	Start int
	End   int

	Children []*Node
}

// Is reports whether the node kind is one of kinds.
func (n *Node) Is(kinds ...string) bool {
	if n == nil {
		return false
	}
	for _, k := range kinds {
		if n.Kind == k {
			return true
		}
	}
	return false
}

// ChildByField returns the first child held under field, or nil.
func (n *Node) ChildByField(field string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Field == field {
			return c
		}
	}
	return nil
}

// NamedChildren returns the named children, skipping comments.
func (n *Node) NamedChildren() []*Node {
	if n == nil {
		return nil
	}
	out := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		if c.Named && c.Kind != KindComment {
			out = append(out, c)
		}
	}
	return out
}

// HasToken reports whether an anonymous token of the given text is a
// direct child. Used for modifiers such as "async" and "*".
func (n *Node) HasToken(token string) bool {
	if n == nil {
		return false
	}
	for _, c := range n.Children {
		if !c.Named && c.Kind == token {
			return true
		}
	}
	return false
}

// Tree is an immutable syntax tree over a source buffer.
type Tree struct {
	// Path is the file path the source was read from, used in errors.
	Path string

	// Source is the original source text. It must not be modified.
	Source []byte

	// Root is the program node.
	Root *Node
}

// Text returns the source text covered by n.
func (t *Tree) Text(n *Node) string {
	if n == nil {
		return ""
	}
	return string(t.Source[n.Start:n.End])
}

// Position converts a byte offset into a 1-based line and column.
func (t *Tree) Position(offset int) (line, column int) {
	if offset > len(t.Source) {
		offset = len(t.Source)
	}
	prefix := t.Source[:offset]
	line = bytes.Count(prefix, []byte{'\n'}) + 1
	column = offset - (bytes.LastIndexByte(prefix, '\n') + 1) + 1
	return line, column
}

// StringValue returns the contents of a string literal node without its
// surrounding quotes. Escape sequences are returned verbatim.
func (t *Tree) StringValue(n *Node) string {
	text := t.Text(n)
	if len(text) >= 2 {
		q := text[0]
		if (q == '\'' || q == '"' || q == '`') && text[len(text)-1] == q {
			return text[1 : len(text)-1]
		}
	}
	return text
}
