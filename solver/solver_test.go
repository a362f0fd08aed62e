package solver

import (
	"go/token"
	"testing"

	"github.com/rangevrp/rangevrp/cgraph"
	"github.com/rangevrp/rangevrp/essa"
	"github.com/rangevrp/rangevrp/ext"
	"github.com/rangevrp/rangevrp/interval"
	"github.com/rangevrp/rangevrp/irface"
	"github.com/rangevrp/rangevrp/sccfind"
)

var w32 = interval.Width{Bits: 32}

func TestSolveStraightLine(t *testing.T) {
	fn := &irface.Function{Name: "f"}
	b := &irface.BasicBlock{Index: 0}
	fn.Blocks = []*irface.BasicBlock{b}
	typ := irface.Type{Bits: 32}
	c5 := irface.NewConst(b, typ, "5")
	c7 := irface.NewConst(b, typ, "7")
	sum := irface.NewBinOp(b, "t0", typ, token.ADD, c5, c7, false)
	diff := irface.NewBinOp(b, "t1", typ, token.SUB, sum, c5, false)

	g := cgraph.BuildGraph(fn, w32)
	sccfind.Find(g)
	Solve(g, nil, true, 0)

	if got := g.Range(diff); !got.Equal(interval.Singleton(ext.Int(7))) {
		t.Errorf("(5+7)-5 = %s, want [7,7]", got)
	}
}

// reachDominance approximates dominance by forward reachability. Around a
// loop back edge it overstates dominance (the body reaches, but does not
// dominate, the header); in the loops these tests build, the only header
// use this repoints is the loop comparison, which the constraint graph
// never reads.
type reachDominance struct{}

func (reachDominance) Dominates(a, b *irface.BasicBlock) bool {
	if a == b {
		return true
	}
	seen := map[*irface.BasicBlock]bool{}
	var walk func(n *irface.BasicBlock) bool
	walk = func(n *irface.BasicBlock) bool {
		if seen[n] {
			return false
		}
		seen[n] = true
		for _, s := range n.Succs {
			if s == b || walk(s) {
				return true
			}
		}
		return false
	}
	return walk(a)
}

func TestSolveBoundedLoopNarrowsUpperBound(t *testing.T) {
	// for i := 0; i < 10; i++ {}
	fn := &irface.Function{Name: "f"}
	entry := &irface.BasicBlock{Index: 0}
	header := &irface.BasicBlock{Index: 1}
	body := &irface.BasicBlock{Index: 2}
	exit := &irface.BasicBlock{Index: 3}
	entry.Succs = []*irface.BasicBlock{header}
	header.Preds = []*irface.BasicBlock{entry, body}
	header.Succs = []*irface.BasicBlock{body, exit}
	body.Preds = []*irface.BasicBlock{header}
	body.Succs = []*irface.BasicBlock{header}
	exit.Preds = []*irface.BasicBlock{header}
	fn.Blocks = []*irface.BasicBlock{entry, header, body, exit}

	typ := irface.Type{Bits: 32}
	zero := irface.NewConst(entry, typ, "0")
	one := irface.NewConst(entry, typ, "1")
	ten := irface.NewConst(entry, typ, "10")

	phi := irface.NewPhi(header, "i", typ, []irface.Value{zero, nil})
	cond := irface.NewBinOp(header, "t0", irface.Type{Bits: 1}, token.LSS, phi, ten, false)
	irface.NewIf(header, cond)

	next := irface.NewBinOp(body, "i.next", typ, token.ADD, phi, one, false)
	phi.Edges[1] = next

	essa.Build(fn, reachDominance{})

	g := cgraph.BuildGraph(fn, w32)
	sccfind.Find(g)
	Solve(g, []ext.Ext{ext.Int(0), ext.Int(1), ext.Int(9), ext.Int(10)}, true, 0)

	// The phi itself ranges over [0, 10]: that is the value i actually
	// takes on loop exit, not just the values that satisfy the guard.
	got := g.Range(phi)
	if got.Empty {
		t.Fatal("phi range is empty")
	}
	if got.Lower.Cmp(ext.Int(0)) != 0 || got.Upper.Cmp(ext.Int(10)) != 0 {
		t.Errorf("phi range = %s, want [0, 10]", got)
	}

	// The sigma refining i inside the loop body sees the guard: it never
	// observes the exiting value 10.
	sigma, ok := body.Instrs[0].(*irface.SigmaInstr)
	if !ok {
		t.Fatal("no sigma inserted at front of body")
	}
	sigmaRange := g.Range(sigma)
	if sigmaRange.Lower.Cmp(ext.Int(0)) != 0 || sigmaRange.Upper.Cmp(ext.Int(9)) != 0 {
		t.Errorf("sigma range = %s, want [0, 9]", sigmaRange)
	}
}

// buildBoundedLoop builds for i := 0; i < 10; i++ {}, the same shape
// TestSolveBoundedLoopNarrowsUpperBound builds: phi's upper bound goes
// from Empty to 0 when the entry value arrives, then through three
// finite-to-finite widening steps (1, 9, 10) against the jump set
// [0, 1, 9, 10].
func buildBoundedLoop() (fn *irface.Function, phi *irface.PhiInstr) {
	fn = &irface.Function{Name: "f"}
	entry := &irface.BasicBlock{Index: 0}
	header := &irface.BasicBlock{Index: 1}
	body := &irface.BasicBlock{Index: 2}
	exit := &irface.BasicBlock{Index: 3}
	entry.Succs = []*irface.BasicBlock{header}
	header.Preds = []*irface.BasicBlock{entry, body}
	header.Succs = []*irface.BasicBlock{body, exit}
	body.Preds = []*irface.BasicBlock{header}
	body.Succs = []*irface.BasicBlock{header}
	exit.Preds = []*irface.BasicBlock{header}
	fn.Blocks = []*irface.BasicBlock{entry, header, body, exit}

	typ := irface.Type{Bits: 32}
	zero := irface.NewConst(entry, typ, "0")
	one := irface.NewConst(entry, typ, "1")
	ten := irface.NewConst(entry, typ, "10")

	phi = irface.NewPhi(header, "i", typ, []irface.Value{zero, nil})
	cond := irface.NewBinOp(header, "t0", irface.Type{Bits: 1}, token.LSS, phi, ten, false)
	irface.NewIf(header, cond)

	next := irface.NewBinOp(body, "i.next", typ, token.ADD, phi, one, false)
	phi.Edges[1] = next

	essa.Build(fn, reachDominance{})
	return fn, phi
}

func TestMaxWidenStepsCapsGrowth(t *testing.T) {
	fn, phi := buildBoundedLoop()
	g := cgraph.BuildGraph(fn, w32)
	sccfind.Find(g)
	Solve(g, []ext.Ext{ext.Int(0), ext.Int(1), ext.Int(9), ext.Int(10)}, false, 2)

	got := g.Range(phi)
	if got.Empty {
		t.Fatal("phi range is empty")
	}
	// With narrowing disabled and a two-step budget, widening is cut off
	// before it reaches the jump set's later entries: the same graph run
	// to completion (see TestSolveBoundedLoopNarrowsUpperBound) reaches
	// upper bound 10, but two steps only carries it to 1.
	if got.Upper.Cmp(ext.Int(10)) >= 0 {
		t.Errorf("phi upper = %s, want capped short of the uncapped result", got.Upper)
	}
}

// buildUnguardedLoop builds x := 0; for { x = x + 1 }: a phi/increment
// cycle with no sigma refining x itself, so widening alone must pick a
// bound and narrowing can only ever keep that bound or tighten it, never
// widen it further.
func buildUnguardedLoop() (fn *irface.Function, phi *irface.PhiInstr) {
	fn = &irface.Function{Name: "f"}
	entry := &irface.BasicBlock{Index: 0}
	loop := &irface.BasicBlock{Index: 1}
	entry.Succs = []*irface.BasicBlock{loop}
	loop.Preds = []*irface.BasicBlock{entry, loop}
	loop.Succs = []*irface.BasicBlock{loop}
	fn.Blocks = []*irface.BasicBlock{entry, loop}

	typ := irface.Type{Bits: 32}
	zero := irface.NewConst(entry, typ, "0")
	one := irface.NewConst(entry, typ, "1")
	phi = irface.NewPhi(loop, "x", typ, []irface.Value{zero, nil})
	next := irface.NewBinOp(loop, "x.next", typ, token.ADD, phi, one, false)
	phi.Edges[1] = next
	return fn, phi
}

func TestNarrowingNeverWidensBeyondTheWidenedResult(t *testing.T) {
	fnNarrowed, phiNarrowed := buildUnguardedLoop()
	gNarrowed := cgraph.BuildGraph(fnNarrowed, w32)
	sccfind.Find(gNarrowed)
	Solve(gNarrowed, []ext.Ext{ext.Int(0), ext.Int(1)}, true, 0)
	narrowed := gNarrowed.Range(phiNarrowed)

	fnPlain, phiPlain := buildUnguardedLoop()
	gPlain := cgraph.BuildGraph(fnPlain, w32)
	sccfind.Find(gPlain)
	Solve(gPlain, []ext.Ext{ext.Int(0), ext.Int(1)}, false, 0)
	widenedOnly := gPlain.Range(phiPlain)

	if narrowed.Lower.Cmp(widenedOnly.Lower) < 0 {
		t.Errorf("narrowing lowered the lower bound: narrowed=%s widened-only=%s", narrowed, widenedOnly)
	}
	if narrowed.Upper.Cmp(widenedOnly.Upper) > 0 {
		t.Errorf("narrowing raised the upper bound: narrowed=%s widened-only=%s", narrowed, widenedOnly)
	}
}
