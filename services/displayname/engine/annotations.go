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

const displayNameProperty = "displayName"

// NameSet is a set of (possibly dotted) names carrying a displayName.
type NameSet map[string]struct{}

// Has reports whether name is in the set.
func (s NameSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Add inserts name into the set.
func (s NameSet) Add(name string) {
	s[name] = struct{}{}
}

// CollectDisplayNames returns every name that is already the target of a
// `X.displayName = ...` assignment in tree. Logical and compound
// assignments such as `X.displayName ??= ...` count as well.
//
// For a plain identifier X the identifier is recorded. For a member
// expression X such as Foo.Bar the object's source text is recorded
// verbatim, so `Foo.Bar.displayName = ...` yields "Foo.Bar".
func CollectDisplayNames(tree *syntax.Tree) NameSet {
	found := make(NameSet)

	syntax.Walk(tree.Root, syntax.Visitor{
		Enter: func(n *syntax.Node, _ []*syntax.Node) bool {
			if !n.Is(syntax.KindAssignmentExpression, syntax.KindAugmentedAssignmentExpression) {
				return true
			}
			left := n.ChildByField(syntax.FieldLeft)
			if !left.Is(syntax.KindMemberExpression) {
				return true
			}
			prop := left.ChildByField(syntax.FieldProperty)
			if !prop.Is(syntax.KindPropertyIdentifier) || tree.Text(prop) != displayNameProperty {
				return true
			}

			object := left.ChildByField(syntax.FieldObject)
			switch {
			case object.Is(syntax.KindIdentifier):
				found.Add(tree.Text(object))
			case object.Is(syntax.KindMemberExpression):
				found.Add(tree.Text(object))
			}
			return true
		},
	})

	return found
}
