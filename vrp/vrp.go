// Package vrp is the public facade of the range-analysis core: it wires
// together the e-SSA builder, constraint graph, SCC finder and solver
// into a single entry point from a function to a map of ranges, the way
// staticcheck/vrp.BuildGraph+Graph.Solve are wired together by their one
// caller in staticcheck's own analysis passes.
package vrp

import (
	"math/big"

	"github.com/rangevrp/rangevrp/cgraph"
	"github.com/rangevrp/rangevrp/config"
	"github.com/rangevrp/rangevrp/essa"
	"github.com/rangevrp/rangevrp/ext"
	"github.com/rangevrp/rangevrp/interval"
	"github.com/rangevrp/rangevrp/irface"
	"github.com/rangevrp/rangevrp/sccfind"
	"github.com/rangevrp/rangevrp/solver"
)

// Result is the per-function analysis output: a mapping from every
// integer-typed value to its computed interval, plus the width the
// analysis ran at.
type Result struct {
	Width  interval.Width
	ranges map[irface.Value]interval.Interval
}

// Range looks up v's computed interval. Values the analysis never saw
// (impossible for anything reachable from fn, but the lookup must still
// be total) report interval.Bottom, matching cgraph.Graph.Range's own
// default.
func (r Result) Range(v irface.Value) interval.Interval {
	if i, ok := r.ranges[v]; ok {
		return i
	}
	return interval.Bottom
}

// Analyze runs the full pipeline over fn: e-SSA construction,
// constraint-graph build, SCC enumeration, then the widening/narrowing
// fixed point. cfg may be nil, matching defaults (narrowing enabled, no
// extra widen bounds, no step limit).
func Analyze(fn *irface.Function, dom irface.Dominance, cfg *config.Config) Result {
	if cfg == nil {
		cfg = &config.Config{EnableNarrowing: true}
	}

	essa.Build(fn, dom)

	w := width(fn)
	g := cgraph.BuildGraph(fn, w)
	sccfind.Find(g)

	bounds := widenBounds(fn, cfg)
	solver.Solve(g, bounds, cfg.EnableNarrowing, cfg.Limits.MaxWidenSteps)

	out := make(map[irface.Value]interval.Interval, len(g.Vertices))
	for _, v := range g.Vertices {
		val, ok := v.Value.(irface.Value)
		if !ok {
			continue
		}
		out[val] = g.Range(val)
	}
	return Result{Width: w, ranges: out}
}

// width computes the function-wide analysis width W: the maximum bit
// width of any integer-typed value in fn (minimum 1, so an empty
// function doesn't divide by a zero width downstream).
func width(fn *irface.Function) interval.Width {
	w := interval.Width{Bits: 1}
	unsigned := false
	for _, b := range fn.Blocks {
		for _, ins := range b.Instrs {
			val, ok := ins.(irface.Value)
			if !ok {
				continue
			}
			t := val.Type()
			if grown := interval.MaxOf(t.Bits, w.Bits); grown != w.Bits {
				w.Bits = grown
				unsigned = t.Unsigned
			}
		}
	}
	w.Unsigned = unsigned
	return w
}

// widenBounds collects the distinct integer literals appearing in fn —
// typically the constants already present in the function — plus any
// caller-supplied extras from cfg.Widen.ExtraBounds.
func widenBounds(fn *irface.Function, cfg *config.Config) []ext.Ext {
	seen := map[string]bool{}
	var bounds []ext.Ext
	for _, b := range fn.Blocks {
		for _, ins := range b.Instrs {
			c, ok := ins.(*irface.ConstInstr)
			if !ok || seen[c.Val.Text] {
				continue
			}
			seen[c.Val.Text] = true
			v := &big.Int{}
			if _, ok := v.SetString(c.Val.Text, 10); !ok {
				continue
			}
			bounds = append(bounds, ext.Big(v))
		}
	}
	for _, extra := range cfg.Widen.ExtraBounds {
		bounds = append(bounds, ext.Int(extra))
	}
	return bounds
}
