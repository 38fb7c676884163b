// Package scenario loads programs and queries for the typegraph
// package from TOML files.
//
// A scenario file describes a control-flow graph, the variables and
// bindings defined on it, and a list of queries with optional expected
// results:
//
//	[[node]]
//	name = "n0"
//	succ = ["n1"]
//
//	[[node]]
//	name = "n1"
//	condition = "c=true"
//
//	[[variable]]
//	name = "x"
//	  [[variable.binding]]
//	  data = "int"
//	  at = ["n0"]
//	  sources = ["c=true"]
//
//	[[query]]
//	kind = "filter"
//	node = "n1"
//	variable = "x"
//	want = ["x=int"]
//
// Bindings are referred to as "variable=data". Nodes are created in
// file order, so their IDs follow the file. All bindings exist before
// any origin is added, which lets source sets refer to bindings that
// are defined later in the file. Conditions are set last.
package scenario

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// File is the decoded form of a scenario file.
type File struct {
	Nodes     []Node     `toml:"node"`
	Variables []Variable `toml:"variable"`
	Queries   []Query    `toml:"query"`
}

type Node struct {
	Name string `toml:"name"`
	// Succ lists the names of the node's successors.
	Succ      []string `toml:"succ"`
	Condition string   `toml:"condition"`
}

type Variable struct {
	Name     string    `toml:"name"`
	Bindings []Binding `toml:"binding"`
}

type Binding struct {
	Data string `toml:"data"`
	// At lists the nodes at which the binding has an origin. Every
	// origin is justified by Sources.
	At      []string `toml:"at"`
	Sources []string `toml:"sources"`
}

// Query kinds.
const (
	KindFilter      = "filter"
	KindPrune       = "prune"
	KindCombination = "combination"
	KindVisible     = "visible"
	KindReachable   = "reachable"
)

type Query struct {
	Kind     string   `toml:"kind"`
	Node     string   `toml:"node"`
	Variable string   `toml:"variable"`
	Bindings []string `toml:"bindings"`
	Target   string   `toml:"target"`

	// Want is the expected result of filter and prune queries.
	Want *[]string `toml:"want"`
	// WantResult is the expected result of all other queries.
	WantResult *bool `toml:"want_result"`
}

// Parse decodes a scenario. name is used in error messages.
func Parse(r io.Reader, name string) (*File, error) {
	var f File
	meta, err := toml.DecodeReader(r, &f)
	if err != nil {
		return nil, fmt.Errorf("couldn't parse %s: %w", name, err)
	}
	if keys := meta.Undecoded(); len(keys) > 0 {
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys %s", name, strings.Join(names, ", "))
	}
	return &f, nil
}

// ParseFile decodes the scenario stored at path.
func ParseFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f, path)
}

// splitLabel splits a "variable=data" binding reference.
func splitLabel(label string) (variable, data string, err error) {
	variable, data, ok := strings.Cut(label, "=")
	if !ok || variable == "" {
		return "", "", fmt.Errorf("malformed binding reference %q, want variable=data", label)
	}
	return variable, data, nil
}
