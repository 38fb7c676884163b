package typegraph

import (
	"fmt"
	"log"
	"slices"
)

// MaxVarSize is the default and largest number of bindings a single
// Variable can hold. The last slot is reserved for the binding of the
// program's default data, onto which all further values collapse.
const MaxVarSize = 64

// An Option configures a Program.
type Option func(*Program)

// WithMaxVarSize limits the number of bindings per Variable to n,
// which must be between 1 and MaxVarSize.
func WithMaxVarSize(n int) Option {
	if n < 1 || n > MaxVarSize {
		panic(fmt.Sprintf("typegraph: max var size %d out of range [1, %d]", n, MaxVarSize))
	}
	return func(prog *Program) { prog.maxVarSize = n }
}

// WithDefaultData sets the data used for the overflow binding of
// variables that reached their size limit.
func WithDefaultData(data any) Option {
	return func(prog *Program) { prog.defaultData = data }
}

// WithLogger makes the program log solver activity to l.
func WithLogger(l *log.Logger) Option {
	return func(prog *Program) { prog.logger = l }
}

// A Program owns a control-flow graph, the variables analyzed over it
// and the solver answering queries about them.
type Program struct {
	nodes         []*CFGNode
	variables     []*Variable
	nextBindingID int

	defaultData any
	maxVarSize  int

	solver *Solver
	logger *log.Logger
}

// NewProgram returns an empty program.
func NewProgram(opts ...Option) *Program {
	prog := &Program{maxVarSize: MaxVarSize}
	for _, opt := range opts {
		opt(prog)
	}
	return prog
}

// NewCFGNode adds a node without any edges to the graph. Because a new
// node changes reachability, the cached solver is discarded.
func (prog *Program) NewCFGNode(name string) *CFGNode {
	node := &CFGNode{
		prog: prog,
		id:   len(prog.nodes),
		name: name,
	}
	prog.nodes = append(prog.nodes, node)
	prog.InvalidateSolver()
	return node
}

// NewVariable returns a new variable without bindings. An empty
// variable cannot affect any query, so the solver is kept.
func (prog *Program) NewVariable() *Variable {
	v := &Variable{
		prog:          prog,
		id:            len(prog.variables),
		dataToBinding: map[any]*Binding{},
		nodeBindings:  map[int][]*Binding{},
	}
	prog.variables = append(prog.variables, v)
	return v
}

// CFGNodes returns all nodes, indexed by their ID.
func (prog *Program) CFGNodes() []*CFGNode { return slices.Clone(prog.nodes) }

// CountCFGNodes returns the number of nodes in the graph.
func (prog *Program) CountCFGNodes() int { return len(prog.nodes) }

// Variables returns all variables, indexed by their ID.
func (prog *Program) Variables() []*Variable { return slices.Clone(prog.variables) }

// NextVariableID returns the ID the next variable will be assigned.
func (prog *Program) NextVariableID() int { return len(prog.variables) }

// NextBindingID returns the ID the next binding will be assigned.
func (prog *Program) NextBindingID() int { return prog.nextBindingID }

// SetDefaultData sets the data of the overflow binding. It only
// affects variables that overflow after the call.
func (prog *Program) SetDefaultData(data any) { prog.defaultData = data }

// DefaultData returns the data of the overflow binding.
func (prog *Program) DefaultData() any { return prog.defaultData }

// MaxVarSize returns the maximum number of bindings per variable.
func (prog *Program) MaxVarSize() int { return prog.maxVarSize }

// Solver returns the cached solver, or nil if there is none. A solver
// is built by the first query after construction or invalidation.
func (prog *Program) Solver() *Solver { return prog.solver }

// InvalidateSolver discards the cached solver and everything it has
// memoized.
func (prog *Program) InvalidateSolver() {
	if prog.solver == nil {
		return
	}
	prog.logf("invalidating solver after %d queries", prog.solver.stats.Queries)
	prog.solver = nil
}

func (prog *Program) getSolver() *Solver {
	if prog.solver == nil {
		prog.solver = newSolver(prog)
	}
	return prog.solver
}

// IsReachable reports whether there is a path from src to dst. Every
// node reaches itself. Conditions and bindings are not considered.
func (prog *Program) IsReachable(src, dst *CFGNode) bool {
	prog.mustOwnNode(src)
	prog.mustOwnNode(dst)
	return reachable(src, dst)
}

func (prog *Program) logf(format string, args ...any) {
	if prog.logger != nil {
		prog.logger.Printf(format, args...)
	}
}

func (prog *Program) mustOwnNode(node *CFGNode) {
	if node.prog != prog {
		panic(fmt.Sprintf("typegraph: node %s belongs to a different program", node))
	}
}

func (prog *Program) mustOwnBinding(b *Binding) {
	if b.variable.prog != prog {
		panic(fmt.Sprintf("typegraph: binding %s belongs to a different program", b))
	}
}

func (prog *Program) resolve(ids []int) []*CFGNode {
	out := make([]*CFGNode, len(ids))
	for i, id := range ids {
		out[i] = prog.nodes[id]
	}
	return out
}
