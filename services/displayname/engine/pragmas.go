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
	"github.com/AleutianAI/displayname/services/displayname/syntax"
)

// Imported names that bind the memo and forwardRef pragmas.
const (
	memoExport       = "memo"
	forwardRefExport = "forwardRef"
)

// Pragmas holds the local names bound to the recognized pragmas.
// An empty string means the pragma is not imported.
type Pragmas struct {
	// Namespace is the local name of the default (or namespace) import,
	// e.g. React in `import React from 'react'`.
	Namespace string

	// Memo is the local name of the memo import, after aliasing.
	Memo string

	// ForwardRef is the local name of the forwardRef import, after aliasing.
	ForwardRef string
}

// Empty reports whether no pragma was imported.
func (p Pragmas) Empty() bool {
	return p.Namespace == "" && p.Memo == "" && p.ForwardRef == ""
}

// Has reports whether name is the local name of any pragma.
func (p Pragmas) Has(name string) bool {
	if name == "" {
		return false
	}
	return name == p.Namespace || name == p.Memo || name == p.ForwardRef
}

// DetectPragmas resolves pragma bindings from the import declarations of
// tree that import from source.
//
// A default import or a namespace import binds the namespace pragma. Named
// imports of memo and forwardRef bind their local alias. When a module is
// imported several times, later imports win.
func DetectPragmas(tree *syntax.Tree, source string) Pragmas {
	var p Pragmas

	for _, stmt := range tree.Root.NamedChildren() {
		if !stmt.Is(syntax.KindImportStatement) {
			continue
		}
		if tree.StringValue(stmt.ChildByField(syntax.FieldSource)) != source {
			continue
		}

		for _, clause := range stmt.NamedChildren() {
			if !clause.Is(syntax.KindImportClause) {
				continue
			}
			for _, spec := range clause.NamedChildren() {
				switch spec.Kind {
				case syntax.KindIdentifier:
					p.Namespace = tree.Text(spec)
				case syntax.KindNamespaceImport:
					for _, id := range spec.NamedChildren() {
						if id.Is(syntax.KindIdentifier) {
							p.Namespace = tree.Text(id)
						}
					}
				case syntax.KindNamedImports:
					detectNamedImports(tree, spec, &p)
				}
			}
		}
	}

	return p
}

func detectNamedImports(tree *syntax.Tree, named *syntax.Node, p *Pragmas) {
	for _, spec := range named.NamedChildren() {
		if !spec.Is(syntax.KindImportSpecifier) {
			continue
		}
		imported := spec.ChildByField(syntax.FieldName)
		if !imported.Is(syntax.KindIdentifier) {
			continue
		}
		local := imported
		if alias := spec.ChildByField(syntax.FieldAlias); alias != nil {
			local = alias
		}

		switch tree.Text(imported) {
		case memoExport:
			p.Memo = tree.Text(local)
		case forwardRefExport:
			p.ForwardRef = tree.Text(local)
		}
	}
}
