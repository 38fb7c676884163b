package typegraph

import (
	"golang.org/x/tools/container/intsets"
)

type treeKey struct {
	root    int
	blocked string
}

// A pathFinder answers backwards reachability queries on the CFG. It
// caches one dominator tree per combination of start node and blocked
// nodes, and so must be discarded whenever the graph changes.
type pathFinder struct {
	prog  *Program
	trees map[treeKey]*domTree
	stats *Stats
}

func newPathFinder(prog *Program, stats *Stats) *pathFinder {
	return &pathFinder{
		prog:  prog,
		trees: map[treeKey]*domTree{},
		stats: stats,
	}
}

func (pf *pathFinder) tree(start *CFGNode, blocked *intsets.Sparse) *domTree {
	key := treeKey{start.id, blocked.String()}
	if t, ok := pf.trees[key]; ok {
		return t
	}
	t := buildDomTree(pf.prog, start, blocked)
	pf.trees[key] = t
	return t
}

// findNodeBackwards reports whether finish can be reached by walking
// edges backwards from start without passing through a blocked node.
// Blocked nodes, including start, can be arrived at but not left. It
// also returns the nodes with conditions that every such walk passes,
// in the order they are passed.
func (pf *pathFinder) findNodeBackwards(start, finish *CFGNode, blocked *intsets.Sparse) (bool, []*CFGNode) {
	pf.stats.PathQueries++
	t := pf.tree(start, blocked)
	if !t.reaches(finish.id) {
		return false, nil
	}
	return true, t.conditions(finish.id)
}

// reaches reports whether there is an unblocked path from src to dst.
func (pf *pathFinder) reaches(src, dst *CFGNode) bool {
	var none intsets.Sparse
	return pf.tree(dst, &none).reaches(src.id)
}

// reachable reports whether there is a path from src to dst.
func reachable(src, dst *CFGNode) bool {
	var seen intsets.Sparse
	queue := []*CFGNode{src}
	seen.Insert(src.id)
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		if node == dst {
			return true
		}
		for _, id := range node.outgoing {
			if seen.Insert(id) {
				queue = append(queue, node.prog.nodes[id])
			}
		}
	}
	return false
}
