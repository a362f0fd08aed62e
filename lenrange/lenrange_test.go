package lenrange

import (
	"testing"

	"github.com/rangevrp/rangevrp/cgraph"
	"github.com/rangevrp/rangevrp/ext"
	"github.com/rangevrp/rangevrp/interval"
	"github.com/rangevrp/rangevrp/irface"
	"github.com/rangevrp/rangevrp/sccfind"
	"github.com/rangevrp/rangevrp/solver"
)

func emptyGraph() *cgraph.Graph {
	fn := &irface.Function{Name: "f"}
	return cgraph.BuildGraph(fn, Width)
}

func mustEqual(t *testing.T, name string, got, want interval.Interval) {
	t.Helper()
	if !got.Equal(want) {
		t.Errorf("%s = %s, want %s", name, got, want)
	}
}

func TestConcatAddsLengths(t *testing.T) {
	g := emptyGraph()
	a := NewVar("a", irface.Type{Bits: 64})
	b := NewVar("b", irface.Type{Bits: 64})
	g.SetRange(a, interval.New(ext.Int(3), ext.Int(5)))
	g.SetRange(b, interval.New(ext.Int(2), ext.Int(2)))

	op := &ConcatOp{A: a, B: b, To: NewVar("c", irface.Type{Bits: 64})}
	mustEqual(t, "a+b", op.Eval(g), interval.New(ext.Int(5), ext.Int(7)))
}

func TestSliceWithKnownBounds(t *testing.T) {
	g := emptyGraph()
	x := NewVar("x", irface.Type{Bits: 64})
	lower := NewVar("lower", irface.Type{Bits: 64})
	g.SetRange(x, interval.New(ext.Int(10), ext.Int(10)))
	g.SetRange(lower, interval.New(ext.Int(2), ext.Int(2)))

	op := &SliceOp{X: x, Lower: lower, To: NewVar("s", irface.Type{Bits: 64})}
	mustEqual(t, "x[2:]", op.Eval(g), interval.New(ext.Int(8), ext.Int(8)))
}

func TestSliceClampsNegativeCornersToZero(t *testing.T) {
	// x's length is only known to be somewhere in [0, 5]; sliced from a
	// known index 3 onward, the result ranges over [0, 2]: a negative
	// corner (an unprovable low<=len(x)) is imprecision, not a
	// contradiction, so it truncates to 0 rather than making the whole
	// interval empty.
	g := emptyGraph()
	x := NewVar("x", irface.Type{Bits: 64})
	lower := NewVar("lower", irface.Type{Bits: 64})
	g.SetRange(x, interval.New(ext.Int(0), ext.Int(5)))
	g.SetRange(lower, interval.New(ext.Int(3), ext.Int(3)))

	op := &SliceOp{X: x, Lower: lower, To: NewVar("s", irface.Type{Bits: 64})}
	mustEqual(t, "x[3:]", op.Eval(g), interval.New(ext.Int(0), ext.Int(2)))
}

func TestSliceWithNoBoundsIsWholeLength(t *testing.T) {
	g := emptyGraph()
	x := NewVar("x", irface.Type{Bits: 64})
	g.SetRange(x, interval.New(ext.Int(4), ext.Int(4)))

	op := &SliceOp{X: x, To: NewVar("s", irface.Type{Bits: 64})}
	mustEqual(t, "x[:]", op.Eval(g), interval.New(ext.Int(4), ext.Int(4)))
}

func TestLenOfKnownString(t *testing.T) {
	g := emptyGraph()
	x := NewVar("x", irface.Type{Bits: 64})
	g.SetRange(x, interval.New(ext.Int(7), ext.Int(7)))

	op := &LenOp{X: x, To: NewVar("n", irface.Type{Bits: 64})}
	mustEqual(t, "len(x)", op.Eval(g), interval.New(ext.Int(7), ext.Int(7)))
}

func TestLenOfUnknownStringDefaultsToNonNegative(t *testing.T) {
	g := emptyGraph()
	x := NewVar("x", irface.Type{Bits: 64}) // never given a range: Bottom

	op := &LenOp{X: x, To: NewVar("n", irface.Type{Bits: 64})}
	mustEqual(t, "len(x)", op.Eval(g), interval.New(ext.Int(0), ext.PosInf))
}

func TestMakeChanCapacityFromKnownSize(t *testing.T) {
	g := emptyGraph()
	size := NewVar("size", irface.Type{Bits: 64})
	g.SetRange(size, interval.New(ext.Int(5), ext.Int(5)))

	op := &MakeChanOp{Size: size, To: NewVar("ch", irface.Type{Bits: 64})}
	mustEqual(t, "make(chan, size)", op.Eval(g), interval.New(ext.Int(5), ext.Int(5)))
}

func TestMakeChanCapacityClampsUnknownSizeToNonNegative(t *testing.T) {
	g := emptyGraph()
	size := NewVar("size", irface.Type{Bits: 64})
	g.SetRange(size, interval.Top)

	op := &MakeChanOp{Size: size, To: NewVar("ch", irface.Type{Bits: 64})}
	mustEqual(t, "make(chan, size)", op.Eval(g), interval.New(ext.Int(0), ext.PosInf))
}

func TestMakeChanUnbufferedIsZero(t *testing.T) {
	g := emptyGraph()
	op := &MakeChanOp{To: NewVar("ch", irface.Type{Bits: 64})}
	mustEqual(t, "make(chan)", op.Eval(g), interval.New(ext.Int(0), ext.Int(0)))
}

// phiOp is a standalone copy of cgraph's own unexported phiOp, just
// enough to exercise a length computation flowing through a merge point
// without reaching into cgraph's internals.
type phiOp struct {
	edges []irface.Value
	to    irface.Value
}

func (o *phiOp) Sink() irface.Value       { return o.to }
func (o *phiOp) Operands() []irface.Value { return o.edges }
func (o *phiOp) Eval(g *cgraph.Graph) interval.Interval {
	r := interval.Bottom
	for _, e := range o.edges {
		r = r.UnionWith(g.Range(e))
	}
	return r
}
func (o *phiOp) String() string { return "phi" }

// TestUnboundedConcatLoopWidens builds s := ""; for { s = s + "x" } by
// hand, wiring AddKnownLength/AddConcat directly into a cgraph.Graph the
// way an adapter would, and confirms the growing length widens to
// [0, +∞] rather than looping forever — the same shape as
// solver.TestSolveBoundedLoopNarrowsUpperBound's loop, but for a length
// domain node instead of an ordinary integer BinOp.
func TestUnboundedConcatLoopWidens(t *testing.T) {
	g := emptyGraph()

	s0 := NewVar("s0", irface.Type{Bits: 64})
	suffix := NewVar("suffix", irface.Type{Bits: 64})
	s := NewVar("s", irface.Type{Bits: 64})   // the phi
	sNext := NewVar("s.next", irface.Type{Bits: 64}) // s + suffix

	AddKnownLength(g, s0, interval.Singleton(ext.Int(0)))
	AddKnownLength(g, suffix, interval.Singleton(ext.Int(1)))

	phi := &phiOp{edges: []irface.Value{s0, sNext}, to: s}
	g.AddEdge(s0, phi)
	g.AddEdge(sNext, phi)
	g.AddEdge(phi, s)

	AddConcat(g, sNext, s, suffix)

	sccfind.Find(g)
	solver.Solve(g, []ext.Ext{ext.Int(0), ext.Int(1)}, true, 0)

	got := g.Range(s)
	if got.Lower.Cmp(ext.Int(0)) != 0 {
		t.Errorf("s.Lower = %s, want 0", got.Lower)
	}
	if got.Upper.Cmp(ext.PosInf) != 0 {
		t.Errorf("s.Upper = %s, want +∞", got.Upper)
	}
}

func TestResultReadsBackNewtypes(t *testing.T) {
	g := emptyGraph()
	str := NewVar("s", irface.Type{Bits: 64})
	ch := NewVar("c", irface.Type{Bits: 64})
	AddKnownLength(g, str, interval.Singleton(ext.Int(3)))
	AddKnownCapacity(g, ch, interval.Singleton(ext.Int(8)))

	sccfind.Find(g)
	solver.Solve(g, nil, true, 0)

	r := NewResult(g)
	mustEqual(t, "String(s).Length", r.String(str).Length, interval.Singleton(ext.Int(3)))
	mustEqual(t, "Channel(c).Capacity", r.Channel(ch).Capacity, interval.Singleton(ext.Int(8)))
}
