package typegraph

import (
	"fmt"
	"slices"
)

// A Variable is the set of bindings one analyzed program variable takes
// on across the whole graph. Bindings are unique by data.
type Variable struct {
	prog     *Program
	id       int
	bindings []*Binding

	dataToBinding map[any]*Binding
	// nodes lists the distinct origin nodes of all bindings, in the
	// order they first appeared.
	nodes        []*CFGNode
	nodeBindings map[int][]*Binding
}

// ID returns the variable's ID. IDs are assigned sequentially, starting at 0.
func (v *Variable) ID() int { return v.id }

// Program returns the program owning the variable.
func (v *Variable) Program() *Program { return v.prog }

func (v *Variable) String() string { return fmt.Sprintf("v%d", v.id) }

// Bindings returns the variable's bindings in creation order.
func (v *Variable) Bindings() []*Binding { return slices.Clone(v.bindings) }

// Size returns the number of bindings.
func (v *Variable) Size() int { return len(v.bindings) }

// Data returns the data of all bindings, in creation order.
func (v *Variable) Data() []any {
	out := make([]any, len(v.bindings))
	for i, b := range v.bindings {
		out[i] = b.data
	}
	return out
}

// Nodes returns the distinct nodes at which any binding of v has an origin.
func (v *Variable) Nodes() []*CFGNode { return slices.Clone(v.nodes) }

// AddBinding returns the binding for data, creating it if necessary.
// If where is not nil, an origin at where, justified by sources, is
// added to the binding.
//
// Once the variable holds MaxVarSize-1 bindings, new data is replaced
// by the program's default data, so that the variable never grows
// beyond MaxVarSize bindings.
func (v *Variable) AddBinding(data any, where *CFGNode, sources ...*Binding) *Binding {
	b := v.findOrAddBinding(data)
	if where != nil {
		b.AddOrigin(where, sources...)
	}
	return b
}

func (v *Variable) findOrAddBinding(data any) *Binding {
	if b, ok := v.dataToBinding[data]; ok {
		return b
	}
	if len(v.bindings) >= v.prog.maxVarSize-1 {
		data = v.prog.defaultData
		if b, ok := v.dataToBinding[data]; ok {
			return b
		}
		if len(v.bindings) >= v.prog.maxVarSize {
			// The default data changed after the variable overflowed.
			return v.bindings[len(v.bindings)-1]
		}
	}
	b := &Binding{
		id:       v.prog.nextBindingID,
		index:    len(v.bindings),
		variable: v,
		data:     data,
	}
	v.prog.nextBindingID++
	v.bindings = append(v.bindings, b)
	v.dataToBinding[data] = b
	return b
}

func (v *Variable) registerOrigin(where *CFGNode, b *Binding) {
	bs, ok := v.nodeBindings[where.id]
	if !ok {
		v.nodes = append(v.nodes, where)
	}
	v.nodeBindings[where.id] = append(bs, b)
}

// Filter returns the bindings that are visible at viewpoint, taking
// conditions, source sets and all other variables into account.
func (v *Variable) Filter(viewpoint *CFGNode) []*Binding {
	var out []*Binding
	for _, b := range v.bindings {
		if b.IsVisible(viewpoint) {
			out = append(out, b)
		}
	}
	return out
}

// FilteredData returns the data of the bindings returned by Filter.
func (v *Variable) FilteredData(viewpoint *CFGNode) []any {
	return bindingData(v.Filter(viewpoint))
}

// PruneData returns the data of the bindings returned by Prune.
func (v *Variable) PruneData(viewpoint *CFGNode) []any {
	return bindingData(v.Prune(viewpoint))
}

// PasteVariable adds the data of all of other's bindings to v. See
// PasteBinding for how origins are assigned.
func (v *Variable) PasteVariable(other *Variable, where *CFGNode, additionalSources ...*Binding) {
	for _, b := range other.Bindings() {
		v.PasteBinding(b, where, additionalSources...)
	}
}

// PasteBinding adds b's data to v. If where is not nil, the new binding
// gets an origin at where, justified by b and additionalSources.
// Otherwise, it receives all of b's origins, each source set extended
// by additionalSources.
func (v *Variable) PasteBinding(b *Binding, where *CFGNode, additionalSources ...*Binding) *Binding {
	v.prog.mustOwnBinding(b)
	nb := v.findOrAddBinding(b.data)
	if where != nil {
		sources := additionalSources
		if nb != b {
			sources = append([]*Binding{b}, additionalSources...)
		}
		nb.AddOrigin(where, sources...)
		return nb
	}
	if nb == b {
		return nb
	}
	for _, o := range b.Origins() {
		for _, ss := range o.SourceSets {
			sources := append(slices.Clone(ss), additionalSources...)
			nb.AddOrigin(o.Where, sources...)
		}
	}
	return nb
}

func bindingData(bs []*Binding) []any {
	if bs == nil {
		return nil
	}
	out := make([]any, len(bs))
	for i, b := range bs {
		out[i] = b.data
	}
	return out
}
