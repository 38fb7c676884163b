// Package typegraph implements the control-flow graph and binding
// solver that back an abstract-interpretation type checker.
//
// A Program owns a graph of CFGNodes and a set of Variables. Each
// Variable holds Bindings: candidate values for the variable, each
// justified by one or more Origins. An Origin names the CFGNode at
// which the binding becomes true and the source sets (sets of other
// bindings that must hold simultaneously) that justify it there.
//
// The central query is CFGNode.HasCombination: can a given set of
// bindings hold at the same time at a node? Answering it requires
// walking the graph backwards towards the bindings' origins, honoring
// later assignments that supersede earlier ones, branch conditions
// attached to nodes, and the source sets of every binding involved.
// The Solver answering these queries is built lazily and thrown away
// whenever the graph changes shape.
//
// Data attached to bindings is opaque to this package. It is compared
// with ==, so it must be of a comparable type; pointers are the usual
// choice. The package never copies or modifies it.
//
// A Program is not safe for concurrent use.
package typegraph
