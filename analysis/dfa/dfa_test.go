package dfa

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type graph struct {
	nodes []int
	edges map[int][]int
}

func newGraph(n int, edges ...[2]int) *graph {
	g := &graph{edges: map[int][]int{}}
	for i := 0; i < n; i++ {
		g.nodes = append(g.nodes, i)
	}
	for _, e := range edges {
		g.edges[e[0]] = append(g.edges[e[0]], e[1])
	}
	return g
}

func (g *graph) Nodes() []int       { return g.nodes }
func (g *graph) Succs(n int) []int { return g.edges[n] }
func (g *graph) Preds(n int) []int {
	var out []int
	for _, src := range g.nodes {
		for _, dst := range g.edges[src] {
			if dst == n {
				out = append(out, src)
			}
		}
	}
	return out
}

func TestForwardReachingDefinitions(t *testing.T) {
	// 0 -> 1 -> 2 -> 1, 2 -> 3
	g := newGraph(4, [2]int{0, 1}, [2]int{1, 2}, [2]int{2, 1}, [2]int{2, 3})
	defs := map[int]uint8{0: 1 << 0, 2: 1 << 1}
	fw := &Framework[int, uint8]{
		Join: BitJoin[uint8],
		Transfer: func(_ *Instance[int, uint8], node int, in uint8) uint8 {
			if d, ok := defs[node]; ok {
				return d
			}
			return in
		},
		Bottom: 0,
		Top:    0xFF,
	}
	ins := fw.Forward(g)

	want := map[int][]int{
		0: {0},
		1: {0, 1},
		2: {1},
		3: {1},
	}
	for n, w := range want {
		if diff := cmp.Diff(w, Members(ins.Out(n))); diff != "" {
			t.Errorf("Out(%d) mismatch (-want +got):\n%s", n, diff)
		}
	}
	if got := ins.In(0); got != fw.Bottom {
		t.Errorf("In(0) = %d, want ⊥", got)
	}
	if got := ins.Out(42); got != fw.Bottom {
		t.Errorf("Out of an unknown node = %d, want ⊥", got)
	}
}

func TestJoin(t *testing.T) {
	const bottom, top = 0, 0xFF
	tests := []struct {
		x, y, want uint8
	}{
		{1, 1, 1},
		{1, 2, 3},
		{1, bottom, 1},
		{bottom, 2, 2},
		{1, top, top},
	}
	for _, tt := range tests {
		if got := join(BitJoin[uint8], tt.x, tt.y, bottom, top); got != tt.want {
			t.Errorf("join(%d, %d) = %d, want %d", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestDot(t *testing.T) {
	out := Dot(BitJoin[uint8], []uint8{1, 2, 3}, 0, 0xFF)
	for _, edge := range []string{"n0 -> n2", "n1 -> n2"} {
		if !strings.Contains(out, edge) {
			t.Errorf("Dot output lacks %q:\n%s", edge, out)
		}
	}
	if strings.Contains(out, "n2 -> n0") {
		t.Errorf("Dot output has an edge from a larger to a smaller element:\n%s", out)
	}
}

func TestMembers(t *testing.T) {
	if diff := cmp.Diff([]int{0, 3, 63}, Members(uint64(1|1<<3|1<<63))); diff != "" {
		t.Errorf("Members mismatch (-want +got):\n%s", diff)
	}
	if got := Members(uint64(0)); got != nil {
		t.Errorf("Members(0) = %v, want nil", got)
	}
}

func TestNonMonotonicTransfer(t *testing.T) {
	g := newGraph(2, [2]int{0, 1}, [2]int{1, 0})
	flip := map[int]uint8{}
	fw := &Framework[int, uint8]{
		Join: BitJoin[uint8],
		Transfer: func(_ *Instance[int, uint8], node int, in uint8) uint8 {
			// Alternates between two incomparable states.
			flip[node]++
			return 1 << (flip[node] % 2)
		},
		Bottom: 0,
		Top:    0xFF,
	}
	defer func() {
		if recover() == nil {
			t.Error("Forward didn't panic for a non-monotonic transfer function")
		}
	}()
	fw.Forward(g)
}
