// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package typegraph

// This file defines dominance over the reversed CFG.
//
// The solver walks the graph backwards, from a query node towards the
// origins of bindings. A node with a condition matters to a backwards
// walk only if every path to the origin passes through it, that is, if
// it dominates the origin in the reversed graph rooted at the query
// node. Nodes at which a goal variable is reassigned block the walk:
// they can be reached, but not walked through.
//
// Dominators are computed with the iterative algorithm of Cooper,
// Harvey and Kennedy, A Simple, Fast Dominance Algorithm, 2001.

import (
	"golang.org/x/tools/container/intsets"
)

// domTree is the dominator tree of the reversed CFG, as seen from root.
type domTree struct {
	prog    *Program
	root    int
	blocked *intsets.Sparse

	// idom maps node IDs to the ID of their immediate dominator. It
	// is -1 for nodes that cannot be reached. The root is its own
	// immediate dominator.
	idom []int
	// post is the postorder number of each reachable node.
	post []int
	// order lists the reachable nodes in reverse postorder.
	order []int
}

// succs returns the successors of the node in the reversed graph.
func (t *domTree) succs(id int) []int {
	if t.blocked.Has(id) {
		return nil
	}
	return t.prog.nodes[id].incoming
}

// preds calls fn for each predecessor of the node in the reversed graph.
func (t *domTree) preds(id int, fn func(int)) {
	for _, p := range t.prog.nodes[id].outgoing {
		if t.idom[p] == -1 && p != t.root {
			// not reachable
			continue
		}
		if t.blocked.Has(p) {
			continue
		}
		fn(p)
	}
}

func buildDomTree(prog *Program, root *CFGNode, blocked *intsets.Sparse) *domTree {
	n := len(prog.nodes)
	t := &domTree{
		prog:    prog,
		root:    root.id,
		blocked: blocked,
		idom:    make([]int, n),
		post:    make([]int, n),
	}
	for i := range t.idom {
		t.idom[i] = -1
	}

	// Postorder numbering, without recursion; CFGs of large functions
	// are deep.
	type item struct {
		node int
		next int
	}
	var seen intsets.Sparse
	seen.Insert(t.root)
	stack := []item{{node: t.root}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		succs := t.succs(top.node)
		if top.next < len(succs) {
			succ := succs[top.next]
			top.next++
			if seen.Insert(succ) {
				stack = append(stack, item{node: succ})
			}
			continue
		}
		t.post[top.node] = len(t.order)
		t.order = append(t.order, top.node)
		stack = stack[:len(stack)-1]
	}
	for i := 0; i < len(t.order)/2; i++ {
		o := len(t.order) - i - 1
		t.order[i], t.order[o] = t.order[o], t.order[i]
	}

	// Mark everything reachable before computing dominators, so that
	// preds can tell reachable nodes apart. The placeholder value is
	// overwritten by the fixpoint below.
	for _, id := range t.order {
		t.idom[id] = t.root
	}
	undecided := make([]bool, n)
	for _, id := range t.order[1:] {
		undecided[id] = true
	}

	changed := true
	for changed {
		changed = false
		// iterate over all nodes in reverse postorder, except for the
		// root
		for _, b := range t.order[1:] {
			newIdom := -1
			t.preds(b, func(p int) {
				if undecided[p] {
					return
				}
				if newIdom == -1 {
					newIdom = p
					return
				}
				finger1 := p
				finger2 := newIdom
				for finger1 != finger2 {
					for t.post[finger1] < t.post[finger2] {
						finger1 = t.idom[finger1]
					}
					for t.post[finger2] < t.post[finger1] {
						finger2 = t.idom[finger2]
					}
				}
				newIdom = finger1
			})
			if newIdom == -1 {
				continue
			}
			if undecided[b] || t.idom[b] != newIdom {
				undecided[b] = false
				t.idom[b] = newIdom
				changed = true
			}
		}
	}
	return t
}

// reaches reports whether the node can be reached from the root.
func (t *domTree) reaches(id int) bool { return t.idom[id] != -1 }

// dominates reports whether a dominates b. Both must be reachable.
func (t *domTree) dominates(a, b int) bool {
	for {
		if a == b {
			return true
		}
		if b == t.root {
			return false
		}
		b = t.idom[b]
	}
}

// conditions returns the nodes that carry a condition and lie on every
// path from the root to the node, nearest to the root first. The root
// itself is never included.
func (t *domTree) conditions(id int) []*CFGNode {
	var out []*CFGNode
	for ; id != t.root; id = t.idom[id] {
		if node := t.prog.nodes[id]; node.condition != nil {
			out = append(out, node)
		}
	}
	for i := 0; i < len(out)/2; i++ {
		o := len(out) - i - 1
		out[i], out[o] = out[o], out[i]
	}
	return out
}
