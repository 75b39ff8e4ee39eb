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

// Visitor holds the callbacks of an ancestor-aware walk.
//
// The ancestors slice runs from the root to the visited node inclusive, so
// ancestors[len(ancestors)-1] is the node itself and ancestors[len-2] its
// parent. The slice is reused between calls; callers that keep it must copy.
type Visitor struct {
	// Enter is called before the children are visited. Returning false
	// skips the children (Leave is still called).
	Enter func(n *Node, ancestors []*Node) bool

	// Leave is called after the children have been visited.
	Leave func(n *Node, ancestors []*Node)
}

// Walk visits every node under root depth-first, in source order.
func Walk(root *Node, v Visitor) {
	if root == nil {
		return
	}
	stack := make([]*Node, 0, 64)
	walk(root, v, stack)
}

func walk(n *Node, v Visitor, stack []*Node) {
	stack = append(stack, n)

	descend := true
	if v.Enter != nil {
		descend = v.Enter(n, stack)
	}
	if descend {
		for _, c := range n.Children {
			walk(c, v, stack)
		}
	}
	if v.Leave != nil {
		v.Leave(n, stack)
	}
}
