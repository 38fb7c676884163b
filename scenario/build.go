package scenario

import (
	"fmt"

	"honnef.co/go/typegraph/typegraph"

	"github.com/hashicorp/go-multierror"
)

// A Scenario is a File turned into a typegraph.Program, with its
// queries resolved against the program.
type Scenario struct {
	Name    string
	Program *typegraph.Program

	nodes    map[string]*typegraph.CFGNode
	vars     map[string]*typegraph.Variable
	varNames map[*typegraph.Variable]string
	bindings map[string]*typegraph.Binding
	queries  []query
}

type query struct {
	Query
	node     *typegraph.CFGNode
	target   *typegraph.CFGNode
	variable *typegraph.Variable
	bindings []*typegraph.Binding
}

// Build creates the program described by f. Errors name the offending
// node, variable, binding or query. Once all nodes and variables have
// been declared, Build keeps going after an unresolved reference and
// reports all of them together.
func Build(name string, f *File, opts ...typegraph.Option) (*Scenario, error) {
	s := &Scenario{
		Name:     name,
		Program:  typegraph.NewProgram(opts...),
		nodes:    map[string]*typegraph.CFGNode{},
		vars:     map[string]*typegraph.Variable{},
		varNames: map[*typegraph.Variable]string{},
		bindings: map[string]*typegraph.Binding{},
	}

	for _, n := range f.Nodes {
		if n.Name == "" {
			return nil, fmt.Errorf("%s: node without a name", name)
		}
		if _, ok := s.nodes[n.Name]; ok {
			return nil, fmt.Errorf("%s: duplicate node %q", name, n.Name)
		}
		s.nodes[n.Name] = s.Program.NewCFGNode(n.Name)
	}
	var errs *multierror.Error
	for _, n := range f.Nodes {
		from := s.nodes[n.Name]
		for _, succ := range n.Succ {
			to, err := s.node(succ)
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("%s: successor of node %q: %w", name, n.Name, err))
				continue
			}
			from.ConnectTo(to)
		}
	}

	for _, v := range f.Variables {
		if v.Name == "" {
			return nil, fmt.Errorf("%s: variable without a name", name)
		}
		if _, ok := s.vars[v.Name]; ok {
			return nil, fmt.Errorf("%s: duplicate variable %q", name, v.Name)
		}
		tv := s.Program.NewVariable()
		s.vars[v.Name] = tv
		s.varNames[tv] = v.Name
		for _, b := range v.Bindings {
			label := v.Name + "=" + b.Data
			if _, ok := s.bindings[label]; ok {
				return nil, fmt.Errorf("%s: duplicate binding %q", name, label)
			}
			s.bindings[label] = tv.AddBinding(b.Data, nil)
		}
	}
	for _, v := range f.Variables {
		for _, b := range v.Bindings {
			label := v.Name + "=" + b.Data
			tb := s.bindings[label]
			sources, err := s.resolveBindings(b.Sources)
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("%s: sources of %q: %w", name, label, err))
				continue
			}
			for _, at := range b.At {
				where, err := s.node(at)
				if err != nil {
					errs = multierror.Append(errs, fmt.Errorf("%s: origin of %q: %w", name, label, err))
					continue
				}
				tb.AddOrigin(where, sources...)
			}
		}
	}

	for _, n := range f.Nodes {
		if n.Condition == "" {
			continue
		}
		b, err := s.binding(n.Condition)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: condition of node %q: %w", name, n.Name, err))
			continue
		}
		s.nodes[n.Name].SetCondition(b)
	}

	for i, q := range f.Queries {
		cq, err := s.compile(q)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: query %d: %w", name, i, err))
			continue
		}
		s.queries = append(s.queries, cq)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scenario) compile(q Query) (query, error) {
	cq := query{Query: q}
	var err error
	if cq.node, err = s.node(q.Node); err != nil {
		return query{}, err
	}
	switch q.Kind {
	case KindFilter, KindPrune:
		v, ok := s.vars[q.Variable]
		if !ok {
			return query{}, fmt.Errorf("unknown variable %q", q.Variable)
		}
		cq.variable = v
		if q.WantResult != nil {
			return query{}, fmt.Errorf("%s queries expect bindings, not want_result", q.Kind)
		}
	case KindCombination, KindVisible:
		if cq.bindings, err = s.resolveBindings(q.Bindings); err != nil {
			return query{}, err
		}
		if q.Kind == KindVisible && len(cq.bindings) != 1 {
			return query{}, fmt.Errorf("visible queries need exactly one binding, got %d", len(cq.bindings))
		}
		if q.Want != nil {
			return query{}, fmt.Errorf("%s queries expect want_result, not bindings", q.Kind)
		}
	case KindReachable:
		if cq.target, err = s.node(q.Target); err != nil {
			return query{}, err
		}
		if q.Want != nil {
			return query{}, fmt.Errorf("%s queries expect want_result, not bindings", q.Kind)
		}
	default:
		return query{}, fmt.Errorf("unknown query kind %q", q.Kind)
	}
	return cq, nil
}

func (s *Scenario) node(name string) (*typegraph.CFGNode, error) {
	n, ok := s.nodes[name]
	if !ok {
		return nil, fmt.Errorf("unknown node %q", name)
	}
	return n, nil
}

func (s *Scenario) binding(label string) (*typegraph.Binding, error) {
	if _, _, err := splitLabel(label); err != nil {
		return nil, err
	}
	b, ok := s.bindings[label]
	if !ok {
		return nil, fmt.Errorf("unknown binding %q", label)
	}
	return b, nil
}

func (s *Scenario) resolveBindings(labels []string) ([]*typegraph.Binding, error) {
	out := make([]*typegraph.Binding, 0, len(labels))
	for _, l := range labels {
		b, err := s.binding(l)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// Node returns the node called name, or nil.
func (s *Scenario) Node(name string) *typegraph.CFGNode { return s.nodes[name] }

// Variable returns the variable called name, or nil.
func (s *Scenario) Variable(name string) *typegraph.Variable { return s.vars[name] }

// Binding returns the binding referred to by label, or nil.
func (s *Scenario) Binding(label string) *typegraph.Binding { return s.bindings[label] }

// Label returns the "variable=data" reference of b.
func (s *Scenario) Label(b *typegraph.Binding) string {
	name, ok := s.varNames[b.Variable()]
	if !ok {
		name = b.Variable().String()
	}
	return fmt.Sprintf("%s=%v", name, b.Data())
}
