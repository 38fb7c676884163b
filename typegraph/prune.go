package typegraph

import (
	"honnef.co/go/typegraph/analysis/dfa"

	"golang.org/x/tools/container/intsets"
)

// ancestors is the subgraph of all nodes from which a node can be
// reached, including the node itself.
type ancestors struct {
	nodes   []*CFGNode
	members intsets.Sparse
}

func newAncestors(viewpoint *CFGNode) *ancestors {
	g := &ancestors{}
	g.members.Insert(viewpoint.id)
	stack := []*CFGNode{viewpoint}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, id := range node.incoming {
			if g.members.Insert(id) {
				stack = append(stack, node.prog.nodes[id])
			}
		}
	}
	// Node IDs roughly follow program order, which makes for a good
	// initial visiting order.
	for _, id := range g.members.AppendTo(nil) {
		g.nodes = append(g.nodes, viewpoint.prog.nodes[id])
	}
	return g
}

func (g *ancestors) Nodes() []*CFGNode            { return g.nodes }
func (g *ancestors) Preds(n *CFGNode) []*CFGNode { return n.Incoming() }

func (g *ancestors) Succs(n *CFGNode) []*CFGNode {
	var out []*CFGNode
	for _, id := range n.outgoing {
		if g.members.Has(id) {
			out = append(out, n.prog.nodes[id])
		}
	}
	return out
}

// Prune returns the bindings of v that reach viewpoint according to a
// reaching-definitions analysis of v alone: a node at which v has
// bindings replaces everything reaching it with those bindings, any
// other node passes on the union of what reaches it.
//
// Prune ignores conditions, source sets and other variables. It is a
// cheap approximation of Filter and may return bindings that Filter
// would reject.
func (v *Variable) Prune(viewpoint *CFGNode) []*Binding {
	v.prog.mustOwnNode(viewpoint)
	if len(v.bindings) == 0 {
		return nil
	}

	// The lattice is the powerset of v's bindings, as a bit set
	// indexed by each binding's position in v.
	all := ^uint64(0) >> (64 - len(v.bindings))
	fw := &dfa.Framework[*CFGNode, uint64]{
		Join: dfa.BitJoin[uint64],
		Transfer: func(_ *dfa.Instance[*CFGNode, uint64], node *CFGNode, in uint64) uint64 {
			bs, ok := v.nodeBindings[node.id]
			if !ok {
				return in
			}
			var gen uint64
			for _, b := range bs {
				gen |= 1 << b.index
			}
			return gen
		},
		Bottom: 0,
		Top:    all,
	}
	ins := fw.Forward(newAncestors(viewpoint))

	var out []*Binding
	for _, i := range dfa.Members(ins.Out(viewpoint)) {
		out = append(out, v.bindings[i])
	}
	return out
}
