// Package dfa provides types and functions for implementing data-flow analyses over directed graphs.
package dfa

import (
	"fmt"
	"log"
	"math/bits"
	"strings"
	"sync"

	"golang.org/x/exp/constraints"
)

const debugging = false

func debugf(f string, args ...any) {
	if debugging {
		log.Printf(f, args...)
	}
}

// Join defines the [∨] operation for a [join-semilattice]. It must implement a commutative and associative binary operation
// that returns the least upper bound of two states from S.
//
// Code that calls Join functions is expected to handle the [⊥ and ⊤ elements], as well as implement idempotency. That is,
// the following properties will be enforced:
//
//   - x ∨ ⊥ = x
//   - x ∨ ⊤ = ⊤
//   - x ∨ x = x
//
// [∨]: https://en.wikipedia.org/wiki/Join_and_meet
// [join-semilattice]: https://en.wikipedia.org/wiki/Semilattice
// [⊥ and ⊤ elements]: https://en.wikipedia.org/wiki/Greatest_element_and_least_element#Top_and_bottom
type Join[S comparable] func(S, S) S

// Graph is a directed graph with nodes of type N.
//
// Preds may only return nodes that are also returned by Nodes. The order of Nodes determines the initial order in which
// nodes are visited; listing nodes in topological order, where one exists, minimizes the number of iterations.
type Graph[N comparable] interface {
	Nodes() []N
	Preds(N) []N
	Succs(N) []N
}

// Framework describes a monotone data-flow framework ⟨S, ∨, Transfer⟩ using a bounded join-semilattice ⟨S, ∨⟩ and a
// monotonic transfer function.
//
// Transfer implements the transfer function. Given a node and the join of the states leaving its predecessors, it
// returns the state leaving the node. Transfer must be monotonic.
//
// The set S is defined implicitly by the values returned by Join and Transfer and needn't be finite. In addition, it
// contains the elements ⊥ and ⊤ (Bottom and Top) with Join(x, ⊥) = x and Join(x, ⊤) = ⊤. The provided Join function is
// wrapped to handle these elements automatically. All nodes start in the ⊥ state.
type Framework[N comparable, S comparable] struct {
	Join     Join[S]
	Transfer func(ins *Instance[N, S], node N, in S) S
	Bottom   S
	Top      S
}

// Start returns a new instance of the framework. See also [Framework.Forward].
func (fw *Framework[N, S]) Start() *Instance[N, S] {
	if fw.Bottom == fw.Top {
		panic("framework's ⊥ and ⊤ are identical; did you forget to specify them?")
	}

	return &Instance[N, S]{
		Framework: fw,
		in:        map[N]S{},
		out:       map[N]S{},
	}
}

// Forward runs a forward data flow analysis, using an iterative fixed-point algorithm, given the functions specified in
// the framework. It combines [Framework.Start] and [Instance.Forward].
func (fw *Framework[N, S]) Forward(g Graph[N]) *Instance[N, S] {
	ins := fw.Start()
	ins.Forward(g)
	return ins
}

// Dot returns a directed graph in [Graphviz] format that represents the finite join-semilattice ⟨S, ≤⟩.
// Vertices represent elements in S and edges represent the ≤ relation between elements.
// We map from ⟨S, ∨⟩ to ⟨S, ≤⟩ by computing x ∨ y for all elements in [S]², where x ≤ y iff x ∨ y == y.
//
// The resulting graph can be filtered through [tred] to compute the transitive reduction of the graph, the
// visualisation of which corresponds to the Hasse diagram of the semilattice.
//
// The set of states should not include the ⊥ and ⊤ elements.
//
// [Graphviz]: https://graphviz.org/
// [tred]: https://graphviz.org/docs/cli/tred/
func Dot[S comparable](fn Join[S], states []S, bottom, top S) string {
	var sb strings.Builder
	sb.WriteString("digraph{\n")
	sb.WriteString("rankdir=\"BT\"\n")

	for i, v := range states {
		if vs, ok := any(v).(fmt.Stringer); ok {
			fmt.Fprintf(&sb, "n%d [label=%q]\n", i, vs)
		} else {
			fmt.Fprintf(&sb, "n%d [label=%q]\n", i, fmt.Sprintf("%v", v))
		}
	}

	for dx, x := range states {
		for dy, y := range states {
			if dx == dy {
				continue
			}

			if join(fn, x, y, bottom, top) == y {
				fmt.Fprintf(&sb, "n%d -> n%d\n", dx, dy)
			}
		}
	}

	sb.WriteString("}")
	return sb.String()
}

// Instance is an instance of a data-flow analysis. It is created by [Framework.Forward].
type Instance[N comparable, S comparable] struct {
	Framework *Framework[N, S]

	in  map[N]S
	out map[N]S
}

// In returns the state entering n. If none was computed, it returns ⊥.
func (ins *Instance[N, S]) In(n N) S {
	if s, ok := ins.in[n]; ok {
		return s
	}
	return ins.Framework.Bottom
}

// Out returns the state leaving n. If none was computed, it returns ⊥.
func (ins *Instance[N, S]) Out(n N) S {
	if s, ok := ins.out[n]; ok {
		return s
	}
	return ins.Framework.Bottom
}

var dfsDebugMu sync.Mutex

func join[S comparable](fn Join[S], a, b, bottom, top S) S {
	switch {
	case a == top || b == top:
		return top
	case a == bottom:
		return b
	case b == bottom:
		return a
	case a == b:
		return a
	default:
		return fn(a, b)
	}
}

// Forward runs a forward data-flow analysis on g.
func (ins *Instance[N, S]) Forward(g Graph[N]) {
	if debugging {
		dfsDebugMu.Lock()
		defer dfsDebugMu.Unlock()
	}

	fw := ins.Framework
	nodes := g.Nodes()
	debugf("Analyzing %d nodes\n", len(nodes))

	// The worklist is processed in FIFO order, so that results don't
	// depend on map iteration order.
	worklist := append([]N(nil), nodes...)
	queued := make(map[N]struct{}, len(nodes))
	for _, n := range nodes {
		queued[n] = struct{}{}
	}
	for len(worklist) > 0 {
		n := worklist[0]
		worklist = worklist[1:]
		delete(queued, n)

		in := fw.Bottom
		for _, p := range g.Preds(n) {
			in = join(fw.Join, in, ins.Out(p), fw.Bottom, fw.Top)
		}
		ins.in[n] = in

		old := ins.Out(n)
		out := fw.Transfer(ins, n, in)
		debugf("transfer(%v, %v) = %v", n, in, out)
		if out == old {
			continue
		}
		if j := join(fw.Join, old, out, fw.Bottom, fw.Top); j != out {
			panic(fmt.Sprintf("transfer function isn't monotonic; Transfer(%v, %v) = %v; join(%v, %v) = %v", n, in, out, old, out, j))
		}
		ins.out[n] = out

		for _, s := range g.Succs(n) {
			if _, ok := queued[s]; !ok {
				queued[s] = struct{}{}
				worklist = append(worklist, s)
			}
		}
	}
}

// BitJoin is the [Join] of the powerset lattice of a set of at most 64 elements, represented as a bit set.
func BitJoin[S constraints.Integer](a, b S) S { return a | b }

// Members returns the positions of the bits set in set, in increasing order.
func Members[S constraints.Integer](set S) []int {
	var out []int
	for x := uint64(set); x != 0; x &= x - 1 {
		out = append(out, bits.TrailingZeros64(x))
	}
	return out
}
