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

const anonymousScope = "anonymous"

// scope is the shadowing record of one function body.
type scope struct {
	name    string
	rebound map[string]struct{}
}

func newScope(name string) *scope {
	return &scope{name: name, rebound: make(map[string]struct{})}
}

func (s *scope) rebind(name string) {
	s.rebound[name] = struct{}{}
}

// scopeStack tracks function scopes only. Blocks (if, for, bare braces)
// do not get their own entry, so a pragma rebound anywhere inside a
// function is shadowed for the whole function.
type scopeStack []*scope

func (st *scopeStack) push(s *scope) {
	*st = append(*st, s)
}

func (st *scopeStack) pop() {
	if n := len(*st); n > 0 {
		(*st)[n-1] = nil
		*st = (*st)[:n-1]
	}
}

// top returns the innermost scope, or nil at module level.
func (st scopeStack) top() *scope {
	if len(st) == 0 {
		return nil
	}
	return st[len(st)-1]
}

// shadowed reports whether any active scope rebinds name.
func (st scopeStack) shadowed(name string) bool {
	for _, s := range st {
		if _, ok := s.rebound[name]; ok {
			return true
		}
	}
	return false
}
