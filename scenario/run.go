package scenario

import (
	"fmt"
	"strings"

	"honnef.co/go/typegraph/typegraph"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// A Result is the outcome of one query.
type Result struct {
	Scenario string `json:"scenario"`
	// Index is the query's position in the file.
	Index int    `json:"index"`
	Kind  string `json:"kind"`
	Query string `json:"query"`

	// Bindings is the result of filter and prune queries.
	Bindings []string `json:"bindings"`
	// Value is the result of all other queries.
	Value bool `json:"value"`

	// Checked is true if the query had an expectation.
	Checked bool `json:"checked"`
	// Diff describes how the result differs from the expectation. It
	// is empty if the expectation held.
	Diff string `json:"diff,omitempty"`
}

// Failed reports whether the query had an expectation that didn't hold.
func (r Result) Failed() bool { return r.Checked && r.Diff != "" }

func (r Result) String() string {
	if r.Kind == KindFilter || r.Kind == KindPrune {
		return fmt.Sprintf("%s = [%s]", r.Query, strings.Join(r.Bindings, " "))
	}
	return fmt.Sprintf("%s = %t", r.Query, r.Value)
}

var bindingsOpts = []cmp.Option{
	cmpopts.EquateEmpty(),
	cmpopts.SortSlices(func(a, b string) bool { return a < b }),
}

// Run evaluates all queries in file order.
func (s *Scenario) Run() []Result {
	out := make([]Result, 0, len(s.queries))
	for i, q := range s.queries {
		out = append(out, s.run(i, q))
	}
	return out
}

func (s *Scenario) run(i int, q query) Result {
	r := Result{
		Scenario: s.Name,
		Index:    i,
		Kind:     q.Kind,
		Query:    s.describe(q),
	}
	switch q.Kind {
	case KindFilter, KindPrune:
		var bs []*typegraph.Binding
		if q.Kind == KindFilter {
			bs = q.variable.Filter(q.node)
		} else {
			bs = q.variable.Prune(q.node)
		}
		r.Bindings = s.labels(bs)
		if q.Want != nil {
			r.Checked = true
			r.Diff = cmp.Diff(*q.Want, r.Bindings, bindingsOpts...)
		}
	default:
		switch q.Kind {
		case KindCombination:
			r.Value = q.node.HasCombination(q.bindings)
		case KindVisible:
			r.Value = q.bindings[0].IsVisible(q.node)
		case KindReachable:
			r.Value = s.Program.IsReachable(q.node, q.target)
		}
		if q.WantResult != nil {
			r.Checked = true
			if r.Value != *q.WantResult {
				r.Diff = fmt.Sprintf("got %t, want %t", r.Value, *q.WantResult)
			}
		}
	}
	return r
}

func (s *Scenario) labels(bs []*typegraph.Binding) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = s.Label(b)
	}
	return out
}

func (s *Scenario) describe(q query) string {
	switch q.Kind {
	case KindFilter, KindPrune:
		return fmt.Sprintf("%s(%s, %s)", q.Kind, q.Variable, q.Node)
	case KindReachable:
		return fmt.Sprintf("%s(%s, %s)", q.Kind, q.Node, q.Target)
	default:
		return fmt.Sprintf("%s(%s, {%s})", q.Kind, q.Node, strings.Join(q.Bindings, " "))
	}
}

// Load parses, builds and returns the scenario stored at path.
func Load(path string, opts ...typegraph.Option) (*Scenario, error) {
	f, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	return Build(path, f, opts...)
}
