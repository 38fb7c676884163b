package typegraph

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

// A goalSet is a set of bindings, sorted by ID.
type goalSet []*Binding

func newGoalSet(bs []*Binding) goalSet {
	return goalSet(newSourceSet(bs))
}

func (gs goalSet) String() string {
	parts := make([]string, len(gs))
	for i, b := range gs {
		parts[i] = b.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func (gs goalSet) appendKey(buf []byte) []byte {
	for i, b := range gs {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendInt(buf, int64(b.id), 10)
	}
	return buf
}

func (gs goalSet) key() string { return string(gs.appendKey(nil)) }

// union returns the union of gs and other. Neither input is modified.
func (gs goalSet) union(other []*Binding) goalSet {
	out := make(goalSet, 0, len(gs)+len(other))
	i, j := 0, 0
	for i < len(gs) && j < len(other) {
		switch c := cmp.Compare(gs[i].id, other[j].id); {
		case c < 0:
			out = append(out, gs[i])
			i++
		case c > 0:
			out = append(out, other[j])
			j++
		default:
			out = append(out, gs[i])
			i++
			j++
		}
	}
	out = append(out, gs[i:]...)
	out = append(out, other[j:]...)
	return out
}

// minus returns the goals in gs that are not in other.
func (gs goalSet) minus(other goalSet) goalSet {
	var out goalSet
	for _, b := range gs {
		if _, found := slices.BinarySearchFunc(other, b.id, func(x *Binding, id int) int { return cmp.Compare(x.id, id) }); !found {
			out = append(out, b)
		}
	}
	return out
}

// conflict reports whether gs contains two different bindings of the
// same variable.
func (gs goalSet) conflict() bool {
	if len(gs) < 2 {
		return false
	}
	seen := make(map[*Variable]struct{}, len(gs))
	for _, b := range gs {
		if _, ok := seen[b.variable]; ok {
			return true
		}
		seen[b.variable] = struct{}{}
	}
	return false
}

// removeFinishedGoals replaces the goals that have an origin at pos by
// one of the source sets of that origin, repeating until no goal with an
// origin at pos remains. It returns every distinct set of remaining
// goals. solved is true if one of the alternatives leaves no goals at
// all. Goals replaced at the same node hold at the same time, so
// alternatives in which they conflict are dropped.
func removeFinishedGoals(pos *CFGNode, goals goalSet) (alts []goalSet, solved bool) {
	type item struct {
		removed goalSet
		goals   goalSet
	}
	queue := []item{{goals: goals}}
	seen := map[string]struct{}{}
	seenAlts := map[string]struct{}{}
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]

		var finished []*Origin
		var finishedGoals, rest goalSet
		for _, g := range it.goals {
			if o := g.FindOrigin(pos); o != nil {
				finished = append(finished, o)
				finishedGoals = append(finishedGoals, g)
			} else {
				rest = append(rest, g)
			}
		}
		if len(finished) == 0 {
			if len(it.goals) == 0 {
				return nil, true
			}
			k := it.goals.key()
			if _, ok := seenAlts[k]; !ok {
				seenAlts[k] = struct{}{}
				alts = append(alts, it.goals)
			}
			continue
		}

		removed := it.removed.union(finishedGoals)
		if removed.conflict() {
			continue
		}
		// Iterate over the cartesian product of the finished goals'
		// source sets.
		idx := make([]int, len(finished))
		for {
			next := rest
			for i, o := range finished {
				next = next.union(o.SourceSets[idx[i]])
			}
			next = next.minus(removed)
			k := removed.key() + "|" + next.key()
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				queue = append(queue, item{removed: removed, goals: next})
			}

			j := 0
			for ; j < len(idx); j++ {
				idx[j]++
				if idx[j] < len(finished[j].SourceSets) {
					break
				}
				idx[j] = 0
			}
			if j == len(idx) {
				break
			}
		}
	}
	return alts, false
}
