// Package debug contains helpers for inspecting typegraph programs.
package debug

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"honnef.co/go/typegraph/typegraph"
)

// A Labeler returns the text shown for a binding.
type Labeler func(*typegraph.Binding) string

// DefaultLabel labels a binding with its variable and data.
func DefaultLabel(b *typegraph.Binding) string {
	return fmt.Sprintf("%s=%v", b.Variable(), b.Data())
}

// WriteDot writes the control-flow graph of prog in GraphViz format.
// Every node lists the bindings that have an origin at it. Nodes with a
// condition are drawn as boxes and show the condition in brackets.
// label may be nil, in which case DefaultLabel is used.
func WriteDot(w io.Writer, prog *typegraph.Program, label Labeler) error {
	if label == nil {
		label = DefaultLabel
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "digraph typegraph {")
	for _, n := range prog.CFGNodes() {
		lines := []string{n.Name()}
		if c := n.Condition(); c != nil {
			lines = append(lines, "["+label(c)+"]")
		}
		var bs []string
		for _, b := range n.Bindings() {
			bs = append(bs, label(b))
		}
		if len(bs) > 0 {
			lines = append(lines, strings.Join(bs, " "))
		}
		shape := "ellipse"
		if n.Condition() != nil {
			shape = "box"
		}
		fmt.Fprintf(bw, "\tn%d [label=%s, shape=%s];\n", n.ID(), quote(strings.Join(lines, "\n")), shape)
	}
	for _, n := range prog.CFGNodes() {
		for _, succ := range n.Outgoing() {
			fmt.Fprintf(bw, "\tn%d -> n%d;\n", n.ID(), succ.ID())
		}
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}

// quote returns s as a GraphViz string literal.
func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}
