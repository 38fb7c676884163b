package typegraph

import (
	"fmt"
	"slices"
)

// A CFGNode is a program point. Edges between nodes are stored as node
// IDs; the owning Program resolves them.
type CFGNode struct {
	prog *Program
	id   int
	name string

	outgoing []int
	incoming []int

	condition *Binding
	bindings  []*Binding
}

// ID returns the node's ID. IDs are assigned sequentially, starting at 0.
func (n *CFGNode) ID() int { return n.id }

// Name returns the name the node was created with.
func (n *CFGNode) Name() string { return n.name }

// Program returns the program owning the node.
func (n *CFGNode) Program() *Program { return n.prog }

func (n *CFGNode) String() string { return fmt.Sprintf("<%d>%s", n.id, n.name) }

// ConnectNew creates a new node and adds an edge from n to it.
func (n *CFGNode) ConnectNew(name string) *CFGNode {
	succ := n.prog.NewCFGNode(name)
	n.ConnectTo(succ)
	return succ
}

// ConnectTo adds an edge from n to other. Adding an existing edge is a
// no-op; adding a new one discards the cached solver.
func (n *CFGNode) ConnectTo(other *CFGNode) {
	n.prog.mustOwnNode(other)
	if slices.Contains(n.outgoing, other.id) {
		return
	}
	n.outgoing = append(n.outgoing, other.id)
	other.incoming = append(other.incoming, n.id)
	n.prog.InvalidateSolver()
}

// Outgoing returns the successors of n, in the order the edges were added.
func (n *CFGNode) Outgoing() []*CFGNode { return n.prog.resolve(n.outgoing) }

// Incoming returns the predecessors of n, in the order the edges were added.
func (n *CFGNode) Incoming() []*CFGNode { return n.prog.resolve(n.incoming) }

// Bindings returns the bindings that have an origin at n, in the order
// the origins were added.
func (n *CFGNode) Bindings() []*Binding { return slices.Clone(n.bindings) }

// Condition returns the node's condition, or nil.
func (n *CFGNode) Condition() *Binding { return n.condition }

// SetCondition sets the binding that has to be part of every
// combination passing through n. A nil binding removes the condition.
// Changing the condition discards the cached solver.
func (n *CFGNode) SetCondition(b *Binding) {
	if b != nil {
		n.prog.mustOwnBinding(b)
	}
	if n.condition == b {
		return
	}
	n.condition = b
	n.prog.InvalidateSolver()
}

// HasCombination reports whether all of goals can hold at the same
// time at n.
func (n *CFGNode) HasCombination(goals []*Binding) bool {
	return n.prog.getSolver().Solve(goals, n)
}

// CanHaveCombination is a fast, incomplete version of HasCombination.
// If it returns false, HasCombination is guaranteed to return false as
// well. If it returns true, HasCombination may still return false.
func (n *CFGNode) CanHaveCombination(goals []*Binding) bool {
	return n.prog.getSolver().CanHaveSolution(goals, n)
}
