package typegraph

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// A SourceSet is a set of bindings that must all hold for an origin to
// justify its binding. It is sorted by binding ID and free of duplicates.
type SourceSet []*Binding

func newSourceSet(bs []*Binding) SourceSet {
	set := slices.Clone(bs)
	slices.SortFunc(set, func(a, b *Binding) int { return cmp.Compare(a.id, b.id) })
	return slices.Compact(set)
}

func (ss SourceSet) String() string {
	parts := make([]string, len(ss))
	for i, b := range ss {
		parts[i] = b.String()
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// An Origin states that a binding becomes true at Where if all
// bindings of any one of its source sets hold there.
type Origin struct {
	Where      *CFGNode
	SourceSets []SourceSet
}

func (o *Origin) addSourceSet(sources []*Binding) {
	set := newSourceSet(sources)
	for _, ss := range o.SourceSets {
		if slices.Equal(ss, set) {
			return
		}
	}
	o.SourceSets = append(o.SourceSets, set)
}

// A Binding is one candidate value of a Variable.
type Binding struct {
	id int
	// index is the binding's position in its variable.
	index    int
	variable *Variable
	data     any
	origins  []*Origin
}

// ID returns the binding's ID. IDs increase across the whole program in
// allocation order.
func (b *Binding) ID() int { return b.id }

// Variable returns the variable the binding belongs to.
func (b *Binding) Variable() *Variable { return b.variable }

// Data returns the binding's opaque data.
func (b *Binding) Data() any { return b.data }

// Origins returns the binding's origins, at most one per node, in the
// order they were first added.
func (b *Binding) Origins() []*Origin { return slices.Clone(b.origins) }

func (b *Binding) String() string { return fmt.Sprintf("%s#%d", b.variable, b.id) }

// FindOrigin returns the origin at where, or nil.
func (b *Binding) FindOrigin(where *CFGNode) *Origin {
	for _, o := range b.origins {
		if o.Where == where {
			return o
		}
	}
	return nil
}

// AddOrigin records that b holds at where if all of sources hold. An
// empty source set makes b hold unconditionally once where is reached.
// New premises can turn earlier negative answers positive, so the
// cached solver is always discarded.
func (b *Binding) AddOrigin(where *CFGNode, sources ...*Binding) *Origin {
	prog := b.variable.prog
	prog.mustOwnNode(where)
	for _, s := range sources {
		prog.mustOwnBinding(s)
	}
	o := b.FindOrigin(where)
	if o == nil {
		o = &Origin{Where: where}
		b.origins = append(b.origins, o)
		where.bindings = append(where.bindings, b)
		b.variable.registerOrigin(where, b)
	}
	o.addSourceSet(sources)
	prog.InvalidateSolver()
	return o
}

// IsVisible reports whether b can hold at viewpoint.
func (b *Binding) IsVisible(viewpoint *CFGNode) bool {
	return viewpoint.HasCombination([]*Binding{b})
}

// HasSource reports whether other is b or is part of b's source sets,
// directly or transitively.
func (b *Binding) HasSource(other *Binding) bool {
	seen := map[*Binding]struct{}{b: {}}
	stack := []*Binding{b}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == other {
			return true
		}
		for _, o := range cur.origins {
			for _, ss := range o.SourceSets {
				for _, s := range ss {
					if _, ok := seen[s]; !ok {
						seen[s] = struct{}{}
						stack = append(stack, s)
					}
				}
			}
		}
	}
	return false
}

// AssignToNewVariable creates a new variable holding b's data, with an
// origin at where justified by b.
func (b *Binding) AssignToNewVariable(where *CFGNode) *Variable {
	v := b.variable.prog.NewVariable()
	v.AddBinding(b.data, where, b)
	return v
}
