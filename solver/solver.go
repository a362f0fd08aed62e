// Package solver runs the widening/narrowing fixed point over a
// constraint graph whose components package sccfind has already ordered.
// It is grounded on staticcheck/vrp.Graph.Solve/widen/narrow, generalized
// from that package's single IntInterval Range type to interval.Interval
// and from its ssa.Value keys to irface.Value.
package solver

import (
	"sort"

	"github.com/rangevrp/rangevrp/cgraph"
	"github.com/rangevrp/rangevrp/ext"
	"github.com/rangevrp/rangevrp/interval"
	"github.com/rangevrp/rangevrp/irface"
)

// Solve fixes a point over g's graph, whose SCCs must already be
// populated (see package sccfind). widenBounds are the "jump-to" set the
// widening operator snaps a growing bound to — typically the distinct
// constant literals that occur in the function; pass nil to fall back to
// jumping straight to ±∞ on every growth. narrowEnabled matches
// config.Config.EnableNarrowing; callers with no config pass true.
// maxWidenSteps matches config.Config.Limits.MaxWidenSteps: 0 means
// unbounded, otherwise each component's widening worklist stops after
// that many growth steps, leaving whatever bounds it has reached so far
// (still sound, since widening only ever grows a bound).
func Solve(g *cgraph.Graph, widenBounds []ext.Ext, narrowEnabled bool, maxWidenSteps int) {
	sort.Slice(widenBounds, func(i, j int) bool { return widenBounds[i].Cmp(widenBounds[j]) < 0 })

	seedLiterals(g)

	for _, vertices := range g.SCCs {
		if len(vertices) == 1 {
			solveSingleton(g, vertices[0])
		} else {
			widenComponent(g, vertices, widenBounds, maxWidenSteps)
			if narrowEnabled {
				narrowComponent(g, vertices)
			}
		}
		propagateOut(g, vertices)
	}
}

// propagateOut re-evaluates every Operation that reads a value this
// component just finished computing, even when that Operation's own sink
// belongs to a later component. Without this, a later multi-vertex
// component's entries (package solver's widening worklist seed) would
// never see anything but interval.Bottom for the values it depends on
// from earlier, already-solved components.
func propagateOut(g *cgraph.Graph, vertices []*cgraph.Vertex) {
	for _, v := range vertices {
		for _, e := range v.Succs {
			if e.Control {
				continue
			}
			if op, ok := e.To.Value.(cgraph.Operation); ok {
				g.SetRange(op.Sink(), op.Eval(g))
			}
		}
	}
}

// seedLiterals assigns every literal operation's fixed interval before
// the fixed point begins; literals never depend on anything, so there is
// nothing to iterate.
func seedLiterals(g *cgraph.Graph) {
	for _, v := range g.Vertices {
		op, ok := v.Value.(cgraph.Operation)
		if !ok {
			continue
		}
		if len(op.Operands()) == 0 {
			g.SetRange(op.Sink(), op.Eval(g))
		}
	}
}

func solveSingleton(g *cgraph.Graph, v *cgraph.Vertex) {
	op, ok := v.Value.(cgraph.Operation)
	if !ok {
		return
	}
	g.SetRange(op.Sink(), op.Eval(g))
}

// entries returns the component's sinks whose range is already known
// (an input, or defined by an operation with no in-component operand) —
// the worklist seed for widening.
func entries(g *cgraph.Graph, vertices []*cgraph.Vertex) []irface.Value {
	var es []irface.Value
	for _, v := range vertices {
		val, ok := v.Value.(irface.Value)
		if !ok {
			continue
		}
		if !g.Range(val).Equal(interval.Bottom) {
			es = append(es, val)
		}
	}
	return es
}

// useIndex maps each VarNode in the component to the Operations, also in
// the component, that read it — the same shape as
// staticcheck/vrp.Graph.uses, restricted to non-control edges.
func useIndex(vertices []*cgraph.Vertex) map[irface.Value][]cgraph.Operation {
	inComponent := map[*cgraph.Vertex]bool{}
	for _, v := range vertices {
		inComponent[v] = true
	}
	m := map[irface.Value][]cgraph.Operation{}
	for _, v := range vertices {
		for _, e := range v.Succs {
			if e.Control || !inComponent[e.To] {
				continue
			}
			op, ok := e.To.Value.(cgraph.Operation)
			if !ok {
				continue
			}
			val, ok := v.Value.(irface.Value)
			if !ok {
				continue
			}
			m[val] = append(m[val], op)
		}
	}
	return m
}

func widenComponent(g *cgraph.Graph, vertices []*cgraph.Vertex, bounds []ext.Ext, maxSteps int) {
	uses := useIndex(vertices)
	worklist := entries(g, vertices)
	steps := 0
	for len(worklist) > 0 {
		v := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		for _, op := range uses[v] {
			if !widen(g, op, bounds) {
				continue
			}
			steps++
			if maxSteps > 0 && steps >= maxSteps {
				return
			}
			worklist = append(worklist, op.Sink())
		}
	}
}

// widen applies the widening operator ∇: a growing bound jumps straight
// to the nearest jump-to constant beyond the new value (or ±∞ if none
// exists), rather than converging one step at a time and risking
// non-termination.
func widen(g *cgraph.Graph, op cgraph.Operation, bounds []ext.Ext) bool {
	old := g.Range(op.Sink())
	next := op.Eval(g)
	if next.Empty {
		return false
	}
	if old.Empty {
		g.SetRange(op.Sink(), next)
		return true
	}
	lower, upper := old.Lower, old.Upper
	changed := false
	if next.Lower.Cmp(old.Lower) < 0 {
		lower = jumpDown(next.Lower, bounds)
		changed = true
	}
	if next.Upper.Cmp(old.Upper) > 0 {
		upper = jumpUp(next.Upper, bounds)
		changed = true
	}
	if !changed {
		return false
	}
	g.SetRange(op.Sink(), interval.New(lower, upper))
	return true
}

func jumpDown(v ext.Ext, bounds []ext.Ext) ext.Ext {
	best := ext.NegInf
	for _, b := range bounds {
		if b.Cmp(v) <= 0 && b.Cmp(best) > 0 {
			best = b
		}
	}
	return best
}

func jumpUp(v ext.Ext, bounds []ext.Ext) ext.Ext {
	best := ext.PosInf
	for _, b := range bounds {
		if b.Cmp(v) >= 0 && b.Cmp(best) < 0 {
			best = b
		}
	}
	return best
}

// narrowComponent applies the narrowing pass Δ: after widening has
// reached a (possibly too coarse, ±∞-heavy) fixed point, re-evaluate each
// operation and tighten any bound, infinite or finite, toward whatever
// tighter bound the operation now actually computes; a bound is never
// loosened.
func narrowComponent(g *cgraph.Graph, vertices []*cgraph.Vertex) {
	uses := useIndex(vertices)
	var worklist []irface.Value
	for _, v := range vertices {
		if val, ok := v.Value.(irface.Value); ok {
			worklist = append(worklist, val)
		}
	}
	for len(worklist) > 0 {
		v := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		for _, op := range uses[v] {
			if narrow(g, op) {
				worklist = append(worklist, op.Sink())
			}
		}
	}
}

func narrow(g *cgraph.Graph, op cgraph.Operation) bool {
	old := g.Range(op.Sink())
	next := op.Eval(g)
	if old.Empty || next.Empty {
		return false
	}
	lower, upper := old.Lower, old.Upper
	changed := false
	if old.Lower.Cmp(ext.NegInf) == 0 && next.Lower.Cmp(ext.NegInf) != 0 {
		lower = next.Lower
		changed = true
	} else if next.Lower.Cmp(old.Lower) > 0 {
		lower = next.Lower
		changed = true
	}
	if old.Upper.Cmp(ext.PosInf) == 0 && next.Upper.Cmp(ext.PosInf) != 0 {
		upper = next.Upper
		changed = true
	} else if next.Upper.Cmp(old.Upper) < 0 {
		upper = next.Upper
		changed = true
	}
	if !changed {
		return false
	}
	g.SetRange(op.Sink(), interval.New(lower, upper))
	return true
}
