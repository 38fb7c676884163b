package debug

import (
	"fmt"
	"io"
	"strings"

	"honnef.co/go/typegraph/analysis/dfa"
	"honnef.co/go/typegraph/typegraph"
)

// MaxLatticeSize is the largest variable WriteLattice renders. The
// lattice of a variable with n bindings has 2ⁿ-1 non-empty elements.
const MaxLatticeSize = 6

// bindingSet is an element of the lattice Prune computes over: a bit
// set of binding positions in one variable.
type bindingSet struct {
	bits   uint64
	labels *[]string
}

func (s bindingSet) String() string {
	var names []string
	for _, i := range dfa.Members(s.bits) {
		names = append(names, (*s.labels)[i])
	}
	return "{" + strings.Join(names, " ") + "}"
}

// WriteLattice writes the join-semilattice that Variable.Prune
// propagates for v in GraphViz format. There is one vertex per
// non-empty set of v's bindings and an edge from every set to each of
// its supersets; tred reduces the graph to the Hasse diagram.
// label may be nil, in which case DefaultLabel is used.
func WriteLattice(w io.Writer, v *typegraph.Variable, label Labeler) error {
	if label == nil {
		label = DefaultLabel
	}
	bs := v.Bindings()
	if len(bs) > MaxLatticeSize {
		return fmt.Errorf("variable %s has %d bindings, can render at most %d", v, len(bs), MaxLatticeSize)
	}
	labels := make([]string, len(bs))
	for i, b := range bs {
		labels[i] = label(b)
	}

	join := func(a, b bindingSet) bindingSet {
		return bindingSet{bits: a.bits | b.bits, labels: a.labels}
	}
	var states []bindingSet
	for bits := uint64(1); bits < 1<<len(bs); bits++ {
		states = append(states, bindingSet{bits: bits, labels: &labels})
	}
	bottom := bindingSet{labels: &labels}
	top := bindingSet{bits: ^uint64(0), labels: &labels}

	_, err := fmt.Fprintln(w, dfa.Dot(join, states, bottom, top))
	return err
}
