package typegraph

import (
	"strconv"

	"golang.org/x/tools/container/intsets"
)

// Stats counts the work done by a Solver.
type Stats struct {
	// Queries is the number of calls to Solve.
	Queries int
	// MemoHits is the number of states whose result was recalled
	// instead of computed.
	MemoHits int
	// States is the number of states that were explored.
	States int
	// PathQueries is the number of backwards reachability queries.
	PathQueries int
}

// A state is a node together with the goals that have to hold there.
type state struct {
	pos   *CFGNode
	goals goalSet
}

func (st state) key() string {
	buf := strconv.AppendInt(nil, int64(st.pos.id), 10)
	buf = append(buf, ':')
	return string(st.goals.appendKey(buf))
}

// A frame is a state on the search stack whose successors are being
// tried, one at a time.
type frame struct {
	key string
	st  state
	// alts are the goal sets left after removing finished goals.
	alts []goalSet
	alt  int
	// next are the nodes to move to for alts[alt-1].
	next []*CFGNode
	i    int
}

// A Solver answers combination queries for a Program. Results are
// memoized for the lifetime of the solver, which ends with any change
// to the graph; the Program then builds a new one.
type Solver struct {
	prog  *Program
	paths *pathFinder
	stats Stats

	memo map[string]bool
	// inProgress contains the states on the current search stack.
	inProgress map[string]struct{}
}

func newSolver(prog *Program) *Solver {
	s := &Solver{
		prog:       prog,
		memo:       map[string]bool{},
		inProgress: map[string]struct{}{},
	}
	s.paths = newPathFinder(prog, &s.stats)
	prog.logf("building solver for %d nodes", len(prog.nodes))
	return s
}

// Stats returns the solver's counters.
func (s *Solver) Stats() Stats { return s.stats }

// CanHaveSolution is a fast check for whether goals can hold at pos.
// It reports false if two goals conflict or if a goal has no origin at
// or before pos. Conditions, source sets and reassignments are ignored.
func (s *Solver) CanHaveSolution(goals []*Binding, pos *CFGNode) bool {
	s.checkQuery(goals, pos)
	return s.canHaveSolution(newGoalSet(goals), pos)
}

func (s *Solver) canHaveSolution(goals goalSet, pos *CFGNode) bool {
	if goals.conflict() {
		return false
	}
	for _, g := range goals {
		ok := false
		for _, o := range g.origins {
			if s.paths.reaches(o.Where, pos) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// Solve reports whether all of goals can hold at the same time at pos.
func (s *Solver) Solve(goals []*Binding, pos *CFGNode) bool {
	s.checkQuery(goals, pos)
	s.stats.Queries++
	gs := newGoalSet(goals)
	if len(gs) > 1 && !s.canHaveSolution(gs, pos) {
		s.prog.logf("solve %s at %s: rejected early", gs, pos)
		return false
	}
	result := s.search(state{pos: pos, goals: gs})
	s.prog.logf("solve %s at %s: %t", gs, pos, result)
	return result
}

func (s *Solver) checkQuery(goals []*Binding, pos *CFGNode) {
	s.prog.mustOwnNode(pos)
	for _, g := range goals {
		s.prog.mustOwnBinding(g)
	}
}

// search explores the states reachable from start depth-first, using
// an explicit stack. A state holds if any of its successors holds.
// Running into a state that is already on the stack means the search
// has gone around a loop; such a state adds no new constraint and
// counts as satisfiable.
func (s *Solver) search(start state) bool {
	key := start.key()
	if r, ok := s.memo[key]; ok {
		s.stats.MemoHits++
		return r
	}
	f, result, done := s.enter(start, key)
	if done {
		return result
	}
	stack := []*frame{f}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		child, ok := s.nextChild(top)
		if !ok {
			s.leave(top, false)
			stack = stack[:len(stack)-1]
			continue
		}
		ckey := child.key()
		if _, ok := s.inProgress[ckey]; ok {
			s.prog.logf("state %s at %s is on the stack; assuming it holds", child.goals, child.pos)
			return s.succeed(stack)
		}
		if r, ok := s.memo[ckey]; ok {
			s.stats.MemoHits++
			if r {
				return s.succeed(stack)
			}
			continue
		}
		cf, r, done := s.enter(child, ckey)
		if done {
			if r {
				return s.succeed(stack)
			}
			continue
		}
		stack = append(stack, cf)
	}
	return false
}

// enter starts exploring st. If the result is known without looking at
// successors, it is memoized and returned with done set. Otherwise, the
// state is pushed as in progress and its frame returned.
func (s *Solver) enter(st state, key string) (f *frame, result, done bool) {
	s.stats.States++
	goals := st.goals
	if c := st.pos.condition; c != nil {
		goals = goals.union([]*Binding{c})
	}
	if len(goals) == 0 {
		s.memo[key] = true
		return nil, true, true
	}
	if goals.conflict() {
		s.memo[key] = false
		return nil, false, true
	}
	alts, solved := removeFinishedGoals(st.pos, goals)
	if solved || len(alts) == 0 {
		s.memo[key] = solved
		return nil, solved, true
	}
	s.inProgress[key] = struct{}{}
	return &frame{key: key, st: st, alts: alts}, false, false
}

func (s *Solver) leave(f *frame, result bool) {
	delete(s.inProgress, f.key)
	s.memo[f.key] = result
}

// succeed resolves every state on the stack as satisfiable: each of
// them is satisfiable if the state above it is.
func (s *Solver) succeed(stack []*frame) bool {
	for _, f := range stack {
		s.leave(f, true)
	}
	return true
}

func (s *Solver) nextChild(f *frame) (state, bool) {
	for {
		if f.i < len(f.next) {
			pos := f.next[f.i]
			f.i++
			return state{pos: pos, goals: f.alts[f.alt-1]}, true
		}
		if f.alt >= len(f.alts) {
			return state{}, false
		}
		f.next = s.positions(f.st.pos, f.alts[f.alt])
		f.alt++
		f.i = 0
	}
}

// positions returns the nodes the search moves to from pos in order to
// find the origins of goals: for every origin that can be reached, the
// first unavoidable node with a condition on the way, or the origin's
// node itself. Nodes at which any goal variable is assigned block the
// way, as a later assignment supersedes all earlier ones.
func (s *Solver) positions(pos *CFGNode, goals goalSet) []*CFGNode {
	blocked := &intsets.Sparse{}
	for _, g := range goals {
		for _, n := range g.variable.nodes {
			blocked.Insert(n.id)
		}
	}
	var out []*CFGNode
	var seen intsets.Sparse
	for _, g := range goals {
		for _, o := range g.origins {
			ok, conds := s.paths.findNodeBackwards(pos, o.Where, blocked)
			if !ok {
				continue
			}
			where := o.Where
			if len(conds) > 0 {
				where = conds[0]
			}
			if seen.Insert(where.id) {
				out = append(out, where)
			}
		}
	}
	return out
}
