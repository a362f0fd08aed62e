// Package lenrange adds length-domain operation nodes on top of the same
// core: string concatenation, slicing, len(), and make(chan T, n). It is
// grounded on staticcheck/vrp/string.go's
// StringConcatConstraint/StringSliceConstraint/StringLengthConstraint,
// generalized from that package's polymorphic Range/StringInterval pair
// to plain interval.Interval nodes wired into the same cgraph.Graph
// package vrp already builds — these are ordinary cgraph.Operation
// implementations, so package solver never needs to know they exist.
package lenrange

import (
	"fmt"

	"github.com/rangevrp/rangevrp/cgraph"
	"github.com/rangevrp/rangevrp/ext"
	"github.com/rangevrp/rangevrp/interval"
	"github.com/rangevrp/rangevrp/irface"
)

// Width is the width string lengths and channel capacities are computed
// at. 64 bits is wide enough that no real length ever saturates it; the
// nonNegative clamp below, not this width, is what keeps the domain
// honest.
var Width = interval.Width{Bits: 64}

var nonNegRange = interval.New(ext.Int(0), ext.PosInf)

// nonNegative intersects i with [0, +∞]: string lengths and channel
// capacities are never negative, even when the underlying arithmetic
// would otherwise report Top or Bottom.
func nonNegative(i interval.Interval) interval.Interval {
	if i.Empty {
		return nonNegRange
	}
	return i.IntersectWith(nonNegRange)
}

// Var is a minimal irface.Value for a length/capacity node with no
// backing irface.Instruction of its own: a string or channel parameter,
// or the result of a concat/slice/len/make(chan) expression. An adapter
// with its own Value implementation (see package ssaview) has no need
// for it.
type Var struct {
	name string
	typ  irface.Type
}

// NewVar returns a fresh Var; name is used only for printing.
func NewVar(name string, typ irface.Type) *Var { return &Var{name: name, typ: typ} }

func (v *Var) Name() string      { return v.name }
func (v *Var) Type() irface.Type { return v.typ }

// literalOp seeds a sink with a fixed interval, mirroring
// cgraph's own literalOp for ConstInstr: it has no operands, so package
// solver's seedLiterals assigns it before the fixed point begins.
type literalOp struct {
	sink irface.Value
	i    interval.Interval
}

func (o *literalOp) Sink() irface.Value                      { return o.sink }
func (o *literalOp) Operands() []irface.Value                 { return nil }
func (o *literalOp) Eval(*cgraph.Graph) interval.Interval     { return o.i }
func (o *literalOp) String() string                           { return fmt.Sprintf("%s = %s", o.sink.Name(), o.i) }

// AddUnknownLength wires v into g as a string with no known definition —
// a parameter, or a value read from somewhere nothing here models — at
// [0, +∞] rather than cgraph's ordinary ±∞ Top, since a length is never
// negative.
func AddUnknownLength(g *cgraph.Graph, v irface.Value) {
	g.AddEdge(&literalOp{sink: v, i: nonNegRange}, v)
}

// AddUnknownCapacity is AddUnknownLength's channel-capacity counterpart.
func AddUnknownCapacity(g *cgraph.Graph, v irface.Value) {
	AddUnknownLength(g, v)
}

// AddKnownLength seeds v with a fixed length interval known outright — a
// string literal's byte length, computed once before the fixed point
// begins, the same way cgraph treats an irface.ConstInstr.
func AddKnownLength(g *cgraph.Graph, v irface.Value, length interval.Interval) {
	g.AddEdge(&literalOp{sink: v, i: nonNegative(length)}, v)
}

// AddKnownCapacity is AddKnownLength's channel-capacity counterpart.
func AddKnownCapacity(g *cgraph.Graph, v irface.Value, capacity interval.Interval) {
	AddKnownLength(g, v, capacity)
}

// ConcatOp computes a string concatenation's length as the sum of its
// operands' lengths, per StringConcatConstraint.Eval.
type ConcatOp struct {
	A, B irface.Value
	To   irface.Value
}

func (o *ConcatOp) Sink() irface.Value       { return o.To }
func (o *ConcatOp) Operands() []irface.Value { return []irface.Value{o.A, o.B} }
func (o *ConcatOp) Eval(g *cgraph.Graph) interval.Interval {
	return nonNegative(interval.Add(g.Range(o.A), g.Range(o.B), Width))
}
func (o *ConcatOp) String() string {
	return fmt.Sprintf("%s = len(%s) + len(%s)", o.To.Name(), o.A.Name(), o.B.Name())
}

// AddConcat wires a+b's length into g: to's range becomes a's length
// plus b's length.
func AddConcat(g *cgraph.Graph, to, a, b irface.Value) {
	op := &ConcatOp{A: a, B: b, To: to}
	g.AddEdge(a, op)
	g.AddEdge(b, op)
	g.AddEdge(op, to)
}

// SliceOp computes a slice expression's length from the sliced value's
// own length and optional lower/upper index operands, following
// StringSliceConstraint.Eval exactly: every corner of upper−lower is
// computed, and any corner that comes out negative is truncated to 0
// rather than treated as a high<low contradiction (an unprovable slice
// bound is imprecision, not unsoundness).
type SliceOp struct {
	X            irface.Value
	Lower, Upper irface.Value // either may be nil
	To           irface.Value
}

func (o *SliceOp) Sink() irface.Value { return o.To }
func (o *SliceOp) Operands() []irface.Value {
	vs := []irface.Value{o.X}
	if o.Lower != nil {
		vs = append(vs, o.Lower)
	}
	if o.Upper != nil {
		vs = append(vs, o.Upper)
	}
	return vs
}
func (o *SliceOp) Eval(g *cgraph.Graph) interval.Interval {
	lr := interval.Singleton(ext.Int(0))
	if o.Lower != nil {
		lr = g.Range(o.Lower)
	}
	ur := g.Range(o.X)
	if o.Upper != nil {
		ur = g.Range(o.Upper)
	}
	if lr.Empty || ur.Empty {
		return interval.Bottom
	}

	corners := []ext.Ext{
		ur.Lower.Sub(lr.Lower),
		ur.Upper.Sub(lr.Lower),
		ur.Lower.Sub(lr.Upper),
		ur.Upper.Sub(lr.Upper),
	}
	for i, c := range corners {
		if c.Sign() < 0 {
			corners[i] = ext.Int(0)
		}
	}
	return interval.New(ext.Min(corners...), ext.Max(corners...))
}
func (o *SliceOp) String() string {
	var lname, uname string
	if o.Lower != nil {
		lname = o.Lower.Name()
	}
	if o.Upper != nil {
		uname = o.Upper.Name()
	}
	return fmt.Sprintf("%s = %s[%s:%s]", o.To.Name(), o.X.Name(), lname, uname)
}

// AddSlice wires x[lower:upper]'s length into g. lower and upper may
// both be nil (a bare x[:]), defaulting to 0 and x's own length.
func AddSlice(g *cgraph.Graph, to, x, lower, upper irface.Value) {
	op := &SliceOp{X: x, Lower: lower, Upper: upper, To: to}
	g.AddEdge(x, op)
	if lower != nil {
		g.AddEdge(lower, op)
	}
	if upper != nil {
		g.AddEdge(upper, op)
	}
	g.AddEdge(op, to)
}

// LenOp evaluates len(x): x's own length interval, or [0, +∞] if x's
// length isn't known yet, per StringLengthConstraint.Eval.
type LenOp struct {
	X  irface.Value
	To irface.Value
}

func (o *LenOp) Sink() irface.Value       { return o.To }
func (o *LenOp) Operands() []irface.Value { return []irface.Value{o.X} }
func (o *LenOp) Eval(g *cgraph.Graph) interval.Interval {
	i := g.Range(o.X)
	if i.Empty {
		return nonNegRange
	}
	return i
}
func (o *LenOp) String() string { return fmt.Sprintf("%s = len(%s)", o.To.Name(), o.X.Name()) }

// AddLen wires len(x) into g.
func AddLen(g *cgraph.Graph, to, x irface.Value) {
	op := &LenOp{X: x, To: to}
	g.AddEdge(x, op)
	g.AddEdge(op, to)
}

// MakeChanOp evaluates make(chan T, size): the channel's buffer capacity
// is size's own interval clamped to ≥0, or the singleton 0 for an
// unbuffered channel (size == nil).
type MakeChanOp struct {
	Size irface.Value // nil for an unbuffered channel
	To   irface.Value
}

func (o *MakeChanOp) Sink() irface.Value { return o.To }
func (o *MakeChanOp) Operands() []irface.Value {
	if o.Size == nil {
		return nil
	}
	return []irface.Value{o.Size}
}
func (o *MakeChanOp) Eval(g *cgraph.Graph) interval.Interval {
	if o.Size == nil {
		return interval.Singleton(ext.Int(0))
	}
	return nonNegative(g.Range(o.Size))
}
func (o *MakeChanOp) String() string {
	if o.Size == nil {
		return fmt.Sprintf("%s = make(chan)", o.To.Name())
	}
	return fmt.Sprintf("%s = make(chan, %s)", o.To.Name(), o.Size.Name())
}

// AddMakeChan wires make(chan T, size)'s capacity into g. size may be
// nil for an unbuffered channel.
func AddMakeChan(g *cgraph.Graph, to, size irface.Value) {
	op := &MakeChanOp{Size: size, To: to}
	if size != nil {
		g.AddEdge(size, op)
	}
	g.AddEdge(op, to)
}

// StringInterval is the length domain's read-side newtype: a string
// value's range is a length, not an arbitrary integer, and callers
// should not need to know it happens to be stored as a plain
// interval.Interval internally.
type StringInterval struct{ Length interval.Interval }

func (s StringInterval) String() string { return s.Length.String() }

// ChannelInterval is StringInterval's channel-capacity counterpart.
type ChannelInterval struct{ Capacity interval.Interval }

func (c ChannelInterval) String() string { return c.Capacity.String() }

// Result reads string lengths and channel capacities back out of a
// solved graph, wrapping cgraph.Graph.Range in the newtypes callers of
// this package expect.
type Result struct {
	g *cgraph.Graph
}

// NewResult wraps g, which must already have been solved (see package
// solver).
func NewResult(g *cgraph.Graph) Result { return Result{g: g} }

func (r Result) String(v irface.Value) StringInterval   { return StringInterval{Length: r.g.Range(v)} }
func (r Result) Channel(v irface.Value) ChannelInterval { return ChannelInterval{Capacity: r.g.Range(v)} }
