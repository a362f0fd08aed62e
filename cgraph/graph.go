// Package cgraph builds the bipartite constraint graph the range-analysis
// solver fixes a point over: one vertex per VarNode (an irface.Value) and
// one per Operation, edges from an operation's operands to the operation
// and from the operation to its sink. It mirrors the shape of
// staticcheck/vrp's Graph/Vertex/Constraint, generalized from ssa.Value to
// irface.Value and from per-opcode constraint types to a single
// token-dispatched Binary operation.
package cgraph

import (
	"fmt"
	"go/token"
	"math/big"

	"github.com/rangevrp/rangevrp/ext"
	"github.com/rangevrp/rangevrp/interval"
	"github.com/rangevrp/rangevrp/irface"
)

// Operation is one constraint-graph node that isn't a VarNode: something
// that computes a sink's interval from its operands' current intervals.
type Operation interface {
	Sink() irface.Value
	Operands() []irface.Value
	Eval(g *Graph) interval.Interval
	String() string
}

// Vertex is a node in the bipartite graph: either an irface.Value or an
// Operation, never both. SCC is filled in by package sccfind; it is
// meaningless until then.
type Vertex struct {
	Value interface{} // irface.Value or Operation
	SCC   int
	Succs []Edge
}

// Edge is From->To in the dependency direction: data flows from From into
// To. Control marks an edge added only so that the component holding the
// bound a symbolic sigma reads is ordered before the sigma's own; package
// sccfind consults these only for component membership and order, and
// they are never mistaken for data edges during Eval.
type Edge struct {
	From, To *Vertex
	Control  bool
}

func (e Edge) String() string {
	return fmt.Sprintf("%s -> %s", vertexString(e.From), vertexString(e.To))
}

func vertexString(v *Vertex) string {
	switch val := v.Value.(type) {
	case Operation:
		return val.String()
	case irface.Value:
		return val.Name()
	default:
		return "?"
	}
}

// Graph is the constraint graph for one Function, plus the solver's
// working set of ranges.
type Graph struct {
	Vertices map[interface{}]*Vertex
	Edges    []Edge
	// ControlEdges are transient control-dependence edges, built alongside
	// the graph but consulted only by package sccfind, never by Eval.
	ControlEdges []Edge
	SCCs         [][]*Vertex

	Width interval.Width

	ranges map[irface.Value]interval.Interval
	inputs map[irface.Value]bool
}

func newGraph(w interval.Width) *Graph {
	return &Graph{
		Vertices: map[interface{}]*Vertex{},
		Width:    w,
		ranges:   map[irface.Value]interval.Interval{},
		inputs:   map[irface.Value]bool{},
	}
}

// MarkInput records that v is an external input (a Parameter, or any value
// the builder found no definition for): its range starts at interval.Top,
// never interval.Bottom.
func (g *Graph) MarkInput(v irface.Value) {
	g.inputs[v] = true
}

// Range returns v's current interval: whatever the solver has recorded,
// interval.Top if v was marked an input and nothing more specific is
// known yet, or interval.Bottom for an ordinary internal value nothing
// has computed a range for yet. The Go zero value of interval.Interval is
// never returned: calling big.Int methods on it would panic.
func (g *Graph) Range(v irface.Value) interval.Interval {
	if i, ok := g.ranges[v]; ok {
		return i
	}
	if g.inputs[v] {
		return interval.Top
	}
	return interval.Bottom
}

// SetRange overwrites v's current interval.
func (g *Graph) SetRange(v irface.Value, i interval.Interval) {
	g.ranges[v] = i
}

func (g *Graph) vertex(key interface{}) *Vertex {
	v, ok := g.Vertices[key]
	if !ok {
		v = &Vertex{Value: key}
		g.Vertices[key] = v
	}
	return v
}

// AddEdge records a data dependency from->to, creating vertices for
// either side on first use.
func (g *Graph) AddEdge(from, to interface{}) {
	vf, vt := g.vertex(from), g.vertex(to)
	e := Edge{From: vf, To: vt}
	g.Edges = append(g.Edges, e)
	vf.Succs = append(vf.Succs, e)
}

// addControlEdge records a transient edge consulted only for SCC
// membership.
func (g *Graph) addControlEdge(from, to interface{}) {
	vf, vt := g.vertex(from), g.vertex(to)
	e := Edge{From: vf, To: vt, Control: true}
	g.ControlEdges = append(g.ControlEdges, e)
	vf.Succs = append(vf.Succs, e)
}

// BuildGraph walks every block and instruction of fn and produces the
// constraint graph that package solver will fix a point over. w is the
// function-wide analysis width: the bit width of the widest integer
// operand in fn.
func BuildGraph(fn *irface.Function, w interval.Width) *Graph {
	g := newGraph(w)

	for _, block := range fn.Blocks {
		for _, instr := range block.Instrs {
			switch ins := instr.(type) {
			case *irface.ParameterInstr:
				g.MarkInput(ins)
				g.vertex(ins)

			case *irface.ConstInstr:
				op := newLiteral(ins)
				g.AddEdge(op, ins)

			case *irface.ConvertInstr:
				op := &convertOp{x: ins.X, to: ins}
				g.AddEdge(ins.X, op)
				g.AddEdge(op, ins)

			case *irface.BinOpInstr:
				if isComparison(ins.Op) {
					// Comparisons are never a VarNode sink on their own;
					// they are only read back out of the IfInstr that
					// uses them while building Sigma refinements.
					continue
				}
				op := &binaryOp{op: ins.Op, unsigned: ins.Unsigned, x: ins.X, y: ins.Y, to: ins}
				g.AddEdge(ins.X, op)
				g.AddEdge(ins.Y, op)
				g.AddEdge(op, ins)

			case *irface.PhiInstr:
				op := &phiOp{edges: ins.Edges, to: ins}
				for _, e := range ins.Edges {
					g.AddEdge(e, op)
				}
				g.AddEdge(op, ins)

			case *irface.SigmaInstr:
				op := &sigmaOp{x: ins.X, refinement: ins.Refinement, to: ins}
				g.AddEdge(ins.X, op)
				g.AddEdge(op, ins)
				if ins.Refinement.Symbolic {
					g.addControlEdge(ins.Refinement.Bound, op)
				}
			}
		}
	}
	return g
}

func isComparison(op token.Token) bool {
	switch op {
	case token.LSS, token.LEQ, token.GTR, token.GEQ, token.EQL, token.NEQ:
		return true
	default:
		return false
	}
}

// literalOp is the constant-folding Operation for a ConstInstr: its Eval
// never consults g, since a literal is a fixed interval seeded before the
// fixed point begins.
type literalOp struct {
	sink irface.Value
	i    interval.Interval
}

func newLiteral(c *irface.ConstInstr) *literalOp {
	v := new(big.Int)
	v.SetString(c.Val.Text, 10)
	return &literalOp{sink: c, i: interval.Singleton(ext.Big(v))}
}

func (o *literalOp) Sink() irface.Value            { return o.sink }
func (o *literalOp) Operands() []irface.Value      { return nil }
func (o *literalOp) Eval(g *Graph) interval.Interval { return o.i }
func (o *literalOp) String() string                { return fmt.Sprintf("%s = %s", o.sink.Name(), o.i) }

type convertOp struct {
	x  irface.Value
	to *irface.ConvertInstr
}

func (o *convertOp) Sink() irface.Value       { return o.to }
func (o *convertOp) Operands() []irface.Value { return []irface.Value{o.x} }
func (o *convertOp) Eval(g *Graph) interval.Interval {
	from := interval.Width{Bits: o.x.Type().Bits, Unsigned: o.x.Type().Unsigned}
	to := interval.Width{Bits: o.to.Type().Bits, Unsigned: o.to.Type().Unsigned}
	return interval.Convert(g.Range(o.x), from, to)
}
func (o *convertOp) String() string { return fmt.Sprintf("%s = convert(%s)", o.to.Name(), o.x.Name()) }

type binaryOp struct {
	op       token.Token
	unsigned bool
	x, y     irface.Value
	to       *irface.BinOpInstr
}

func (o *binaryOp) Sink() irface.Value       { return o.to }
func (o *binaryOp) Operands() []irface.Value { return []irface.Value{o.x, o.y} }
func (o *binaryOp) Eval(g *Graph) interval.Interval {
	// w is built from this operation's own result type/signedness, not
	// g.Width: g.Width is the function-wide maximum, whose Unsigned flag
	// reflects whichever value of that maximal bit width vrp's width()
	// met first, not this operation's own operands. A signed
	// add saturating against an unsigned function-wide width (or vice
	// versa) would silently compute the wrong bounds.
	x, y := g.Range(o.x), g.Range(o.y)
	w := interval.Width{Bits: o.to.Type().Bits, Unsigned: o.unsigned}
	switch o.op {
	case token.ADD:
		return interval.Add(x, y, w)
	case token.SUB:
		return interval.Sub(x, y, w)
	case token.MUL:
		return interval.Mul(x, y, w)
	case token.QUO:
		if o.unsigned {
			return interval.Udiv(x, y, w)
		}
		return interval.Sdiv(x, y, w)
	case token.REM:
		if o.unsigned {
			return interval.Urem(x, y, w)
		}
		return interval.Srem(x, y, w)
	case token.SHL:
		return interval.Shl(x, y, w)
	case token.SHR:
		if o.unsigned {
			return interval.Lshr(x, y, w)
		}
		return interval.Ashr(x, y, w)
	case token.AND:
		return interval.And(x, y, w)
	case token.OR:
		return interval.Or(x, y, w)
	case token.XOR:
		return interval.Xor(x, y, w)
	default:
		return interval.Top
	}
}
func (o *binaryOp) String() string {
	return fmt.Sprintf("%s = %s %s %s", o.to.Name(), o.x.Name(), o.op, o.y.Name())
}

type phiOp struct {
	edges []irface.Value
	to    *irface.PhiInstr
}

func (o *phiOp) Sink() irface.Value       { return o.to }
func (o *phiOp) Operands() []irface.Value { return o.edges }
func (o *phiOp) Eval(g *Graph) interval.Interval {
	r := interval.Bottom
	for _, e := range o.edges {
		r = r.UnionWith(g.Range(e))
	}
	return r
}
func (o *phiOp) String() string { return fmt.Sprintf("%s = phi(...)", o.to.Name()) }

// sigmaOp evaluates a refinement copy: the operand's current range
// intersected with either a fixed interval (refinement.Interval) or, for
// a symbolic refinement, whatever the bound currently evaluates to under
// refinement.Pred.
type sigmaOp struct {
	x          irface.Value
	refinement irface.Refinement
	to         *irface.SigmaInstr
}

func (o *sigmaOp) Sink() irface.Value { return o.to }
func (o *sigmaOp) Operands() []irface.Value {
	if o.refinement.Symbolic {
		return []irface.Value{o.x, o.refinement.Bound}
	}
	return []irface.Value{o.x}
}
func (o *sigmaOp) Eval(g *Graph) interval.Interval {
	x := g.Range(o.x)
	if o.refinement.Symbolic {
		return x.IntersectWith(interval.Refine(o.refinement.Pred, g.Range(o.refinement.Bound)))
	}
	return x.IntersectWith(o.refinement.Interval)
}
func (o *sigmaOp) String() string { return fmt.Sprintf("%s = sigma(%s)", o.to.Name(), o.x.Name()) }
