package typegraph

import (
	"testing"
)

type solverTest struct {
	goals []*Binding
	at    *CFGNode
	want  bool
}

func runSolverTests(t *testing.T, tests []solverTest) {
	t.Helper()
	for _, tt := range tests {
		if got := tt.at.HasCombination(tt.goals); got != tt.want {
			t.Errorf("HasCombination(%s) at %s = %t, want %t", newGoalSet(tt.goals), tt.at, got, tt.want)
		}
	}
}

func TestSourceSets(t *testing.T) {
	p := NewProgram()
	n0 := p.NewCFGNode("n0")
	n1 := n0.ConnectNew("n1")
	y := p.NewVariable()
	yb := y.AddBinding("b", n0)
	yc := y.AddBinding("c", n0)
	x := p.NewVariable()
	xa := x.AddBinding("a", n1, yb)

	runSolverTests(t, []solverTest{
		{[]*Binding{xa}, n1, true},
		{[]*Binding{xa, yb}, n1, true},
		{[]*Binding{xa, yc}, n1, false},
		{[]*Binding{yb, yc}, n1, false},
		{[]*Binding{xa}, n0, false},
	})

	// A second source set makes the combination possible.
	xa.AddOrigin(n1, yc)
	if got := len(xa.FindOrigin(n1).SourceSets); got != 2 {
		t.Fatalf("origin has %d source sets, want 2", got)
	}
	runSolverTests(t, []solverTest{
		{[]*Binding{xa, yc}, n1, true},
	})

	// Adding the same source set again is a no-op.
	xa.AddOrigin(n1, yc)
	if got := len(xa.FindOrigin(n1).SourceSets); got != 2 {
		t.Errorf("origin has %d source sets after adding a duplicate, want 2", got)
	}
}

func TestTransitiveSources(t *testing.T) {
	p := NewProgram()
	n0 := p.NewCFGNode("n0")
	n1 := n0.ConnectNew("n1")
	n2 := n1.ConnectNew("n2")
	z := p.NewVariable()
	z1 := z.AddBinding(1, n0)
	z2 := z.AddBinding(2, n0)
	y := p.NewVariable()
	y1 := y.AddBinding(1, n1, z1)
	x := p.NewVariable()
	x1 := x.AddBinding(1, n2, y1)

	runSolverTests(t, []solverTest{
		{[]*Binding{x1}, n2, true},
		{[]*Binding{x1, z1}, n2, true},
		{[]*Binding{x1, z2}, n2, false},
	})

	if !x1.HasSource(z1) {
		t.Error("x1 should have z1 as a transitive source")
	}
	if !x1.HasSource(x1) {
		t.Error("a binding should be its own source")
	}
	if x1.HasSource(z2) {
		t.Error("x1 shouldn't have z2 as a source")
	}
	if z1.HasSource(x1) {
		t.Error("z1 shouldn't have x1 as a source")
	}
}

func TestConditions(t *testing.T) {
	p := NewProgram()
	n0 := p.NewCFGNode("n0")
	n1 := n0.ConnectNew("n1")
	n2 := n1.ConnectNew("n2")
	y := p.NewVariable()
	yt := y.AddBinding(true, n0)
	yf := y.AddBinding(false, n0)
	x := p.NewVariable()
	xa := x.AddBinding("a", n0)
	n1.SetCondition(yt)

	runSolverTests(t, []solverTest{
		{[]*Binding{xa}, n2, true},
		{[]*Binding{xa, yt}, n2, true},
		{[]*Binding{xa, yf}, n2, false},
		{[]*Binding{yf}, n2, false},
		{[]*Binding{yf}, n1, false},
		{[]*Binding{yf}, n0, true},
	})

	// CanHaveCombination only looks at origins.
	if !n2.CanHaveCombination([]*Binding{xa, yf}) {
		t.Error("CanHaveCombination(xa, yf) = false, want true")
	}
	if n2.CanHaveCombination([]*Binding{yt, yf}) {
		t.Error("CanHaveCombination(yt, yf) = true, want false")
	}
}

func TestConditionOnOnePath(t *testing.T) {
	//    +-> n1 (y=true) -+
	// n0                  +-> n3
	//    +-> n2 ----------+
	p := NewProgram()
	n0 := p.NewCFGNode("n0")
	n1 := n0.ConnectNew("n1")
	n2 := n0.ConnectNew("n2")
	n3 := n1.ConnectNew("n3")
	n2.ConnectTo(n3)
	y := p.NewVariable()
	yt := y.AddBinding(true, n0)
	yf := y.AddBinding(false, n0)
	n1.SetCondition(yt)

	runSolverTests(t, []solverTest{
		{[]*Binding{yf}, n3, true},
		{[]*Binding{yt}, n3, true},
		{[]*Binding{yf}, n1, false},
		{[]*Binding{yf}, n2, true},
	})
}

func TestReassignment(t *testing.T) {
	p := NewProgram()
	n0 := p.NewCFGNode("n0")
	n1 := n0.ConnectNew("n1")
	n2 := n1.ConnectNew("n2")
	x := p.NewVariable()
	xa := x.AddBinding("a", n0)
	xb := x.AddBinding("b", n1)

	runSolverTests(t, []solverTest{
		{[]*Binding{xa}, n0, true},
		{[]*Binding{xa}, n1, false},
		{[]*Binding{xa}, n2, false},
		{[]*Binding{xb}, n2, true},
		{[]*Binding{xb}, n0, false},
	})

	// An assignment on only one branch doesn't hide the earlier one.
	q := NewProgram()
	m0 := q.NewCFGNode("m0")
	m1 := m0.ConnectNew("m1")
	m2 := m0.ConnectNew("m2")
	m3 := m1.ConnectNew("m3")
	m2.ConnectTo(m3)
	v := q.NewVariable()
	v.AddBinding("a", m0)
	v.AddBinding("b", m1)
	if got := v.FilteredData(m3); len(got) != 2 {
		t.Errorf("Filter(m3) = %v, want both bindings", got)
	}
	if got := v.FilteredData(m2); len(got) != 1 || got[0] != "a" {
		t.Errorf("Filter(m2) = %v, want [a]", got)
	}
}

func TestLoopCondition(t *testing.T) {
	// c = ...       # n0
	// x = "a"       # n0
	// while c:      # n1
	//   x = "b"     # n2, condition c=true
	// print(x)      # n3, condition c=false
	p := NewProgram()
	n0 := p.NewCFGNode("n0")
	n1 := n0.ConnectNew("n1")
	n2 := n1.ConnectNew("n2")
	n2.ConnectTo(n1)
	n3 := n1.ConnectNew("n3")
	c := p.NewVariable()
	ct := c.AddBinding(true, n0)
	cf := c.AddBinding(false, n0)
	x := p.NewVariable()
	xa := x.AddBinding("a", n0)
	xb := x.AddBinding("b", n2)
	n2.SetCondition(ct)
	n3.SetCondition(cf)

	runSolverTests(t, []solverTest{
		{[]*Binding{xa}, n1, true},
		{[]*Binding{xb}, n1, true},
		{[]*Binding{xb}, n2, true},
		{[]*Binding{xa}, n2, false},
		{[]*Binding{xa}, n3, true},
		// c never changes, so the loop body never runs if c is false.
		{[]*Binding{xb}, n3, false},
		{[]*Binding{xb, ct}, n1, true},
		{[]*Binding{xb, cf}, n1, false},
	})

	// Prune doesn't know about conditions.
	if got := len(x.Prune(n3)); got != 2 {
		t.Errorf("Prune(n3) has %d bindings, want 2", got)
	}
	if got := x.Filter(n3); len(got) != 1 || got[0] != xa {
		t.Errorf("Filter(n3) = %v, want [%s]", got, xa)
	}
}

func TestSolverTerminatesOnCycles(t *testing.T) {
	// Two entries into a loop whose nodes both carry conditions, so
	// that the search keeps revisiting them.
	p := NewProgram()
	o1 := p.NewCFGNode("o1")
	o2 := p.NewCFGNode("o2")
	a := p.NewCFGNode("a")
	b := p.NewCFGNode("b")
	o1.ConnectTo(b)
	o2.ConnectTo(a)
	a.ConnectTo(b)
	b.ConnectTo(a)
	ca := p.NewVariable().AddBinding(true, o2)
	cb := p.NewVariable().AddBinding(true, o1)
	a.SetCondition(ca)
	b.SetCondition(cb)
	g1 := p.NewVariable().AddBinding(1, o1)
	g2 := p.NewVariable().AddBinding(2, o2)

	a.HasCombination([]*Binding{g1, g2})
	b.HasCombination([]*Binding{g1, g2})
	if s := p.Solver().Stats(); s.Queries != 2 || s.States == 0 {
		t.Errorf("unexpected stats %+v", s)
	}
}

func TestMultipleVariables(t *testing.T) {
	f := newFixture()
	xc := f.x.Bindings()[2]
	runSolverTests(t, []solverTest{
		{[]*Binding{f.xval, f.yval}, f.n[0], true},
		{[]*Binding{f.xval, f.yval, f.zval}, f.n[0], true},
		{[]*Binding{xc, f.yval}, f.n[3], true},
		{[]*Binding{f.xval, f.yval}, f.n[3], false},
		{[]*Binding{}, f.n[4], true},
	})
}

func TestMemoization(t *testing.T) {
	f := newFixture()
	xc := f.x.Bindings()[2]
	f.n[4].HasCombination([]*Binding{xc})
	s := f.prog.Solver()
	before := s.Stats()
	if before.Queries != 1 || before.States == 0 || before.PathQueries == 0 {
		t.Fatalf("unexpected stats after the first query: %+v", before)
	}
	f.n[4].HasCombination([]*Binding{xc})
	after := s.Stats()
	if after.Queries != 2 {
		t.Errorf("Queries = %d, want 2", after.Queries)
	}
	if after.MemoHits != before.MemoHits+1 {
		t.Errorf("MemoHits = %d, want %d", after.MemoHits, before.MemoHits+1)
	}
	if after.States != before.States {
		t.Errorf("States = %d, want %d", after.States, before.States)
	}
}

func TestIsReachable(t *testing.T) {
	f := newFixture()
	tests := []struct {
		src, dst int
		want     bool
	}{
		{0, 4, true},
		{1, 0, false},
		{2, 1, true},
		{3, 3, true},
		{4, 3, false},
		{5, 4, true},
	}
	for _, tt := range tests {
		if got := f.prog.IsReachable(f.n[tt.src], f.n[tt.dst]); got != tt.want {
			t.Errorf("IsReachable(n%d, n%d) = %t, want %t", tt.src, tt.dst, got, tt.want)
		}
	}
}

func TestPaste(t *testing.T) {
	p := NewProgram()
	n0 := p.NewCFGNode("n0")
	n1 := n0.ConnectNew("n1")
	y := p.NewVariable()
	yc := y.AddBinding("c", n0)
	x := p.NewVariable()
	xa := x.AddBinding("a", n0)
	x.AddBinding("b", n0)

	v := p.NewVariable()
	nb := v.PasteBinding(xa, nil, yc)
	origins := nb.Origins()
	if len(origins) != 1 || origins[0].Where != n0 {
		t.Fatalf("pasted binding has origins %v, want one at n0", origins)
	}
	if ss := origins[0].SourceSets; len(ss) != 1 || len(ss[0]) != 1 || ss[0][0] != yc {
		t.Errorf("pasted binding has source sets %v, want [{%s}]", ss, yc)
	}

	w := p.NewVariable()
	w.PasteVariable(x, n1)
	if w.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", w.Size())
	}
	for i, b := range w.Bindings() {
		o := b.FindOrigin(n1)
		if o == nil {
			t.Errorf("binding %d has no origin at n1", i)
			continue
		}
		if !b.HasSource(x.Bindings()[i]) {
			t.Errorf("binding %d isn't sourced by %s", i, x.Bindings()[i])
		}
		if !b.IsVisible(n1) {
			t.Errorf("binding %d isn't visible at n1", i)
		}
	}
	if got := w.Bindings()[0].Data(); got != "a" {
		t.Errorf("first pasted binding has data %v, want a", got)
	}
}

func TestAssignToNewVariable(t *testing.T) {
	p := NewProgram()
	n0 := p.NewCFGNode("n0")
	n1 := n0.ConnectNew("n1")
	x := p.NewVariable()
	xa := x.AddBinding("a", n0)

	v := xa.AssignToNewVariable(n1)
	if v.ID() != x.ID()+1 {
		t.Errorf("new variable has ID %d, want %d", v.ID(), x.ID()+1)
	}
	bs := v.Bindings()
	if len(bs) != 1 || bs[0].Data() != "a" {
		t.Fatalf("new variable has bindings %v, want one with data a", bs)
	}
	if !bs[0].HasSource(xa) {
		t.Error("new binding isn't sourced by the original")
	}
	if !bs[0].IsVisible(n1) {
		t.Error("new binding isn't visible at n1")
	}
	if bs[0].IsVisible(n0) {
		t.Error("new binding is visible before its origin")
	}
}
