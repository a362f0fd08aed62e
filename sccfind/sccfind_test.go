package sccfind

import (
	"go/token"
	"testing"

	"github.com/rangevrp/rangevrp/cgraph"
	"github.com/rangevrp/rangevrp/interval"
	"github.com/rangevrp/rangevrp/irface"
)

var w32 = interval.Width{Bits: 32}

func TestAcyclicGraphIsTopologicallyOrdered(t *testing.T) {
	fn := &irface.Function{Name: "f"}
	b := &irface.BasicBlock{Index: 0}
	fn.Blocks = []*irface.BasicBlock{b}
	typ := irface.Type{Bits: 32}
	c1 := irface.NewConst(b, typ, "1")
	c2 := irface.NewConst(b, typ, "2")
	sum := irface.NewBinOp(b, "t0", typ, token.ADD, c1, c2, false)
	_ = irface.NewBinOp(b, "t1", typ, token.SUB, sum, c1, false)

	g := cgraph.BuildGraph(fn, w32)
	sccs := Find(g)

	if len(sccs) == 0 {
		t.Fatal("no components found")
	}
	pos := map[interface{}]int{}
	for i, component := range sccs {
		for _, v := range component {
			pos[v.Value] = i
		}
	}
	if pos[c1] > pos[sum] {
		t.Errorf("constant 1 (SCC %d) should not come after its use (SCC %d)", pos[c1], pos[sum])
	}
}

func TestLoopFormsSingleComponent(t *testing.T) {
	fn := &irface.Function{Name: "f"}
	entry := &irface.BasicBlock{Index: 0}
	loop := &irface.BasicBlock{Index: 1}
	entry.Succs = []*irface.BasicBlock{loop}
	loop.Preds = []*irface.BasicBlock{entry, loop}
	loop.Succs = []*irface.BasicBlock{loop}
	fn.Blocks = []*irface.BasicBlock{entry, loop}

	typ := irface.Type{Bits: 32}
	zero := irface.NewConst(entry, typ, "0")
	one := irface.NewConst(entry, typ, "1")
	phi := irface.NewPhi(loop, "i", typ, []irface.Value{zero, nil})
	next := irface.NewBinOp(loop, "i.next", typ, token.ADD, phi, one, false)
	phi.Edges[1] = next

	g := cgraph.BuildGraph(fn, w32)
	sccs := Find(g)

	var phiSCC, nextSCC int = -1, -1
	for i, component := range sccs {
		for _, v := range component {
			if v.Value == irface.Value(phi) {
				phiSCC = i
			}
			if v.Value == irface.Value(next) {
				nextSCC = i
			}
		}
	}
	if phiSCC == -1 || nextSCC == -1 {
		t.Fatal("phi or next not found in any component")
	}
	if phiSCC != nextSCC {
		t.Errorf("loop-carried phi and its increment landed in different components (%d vs %d)", phiSCC, nextSCC)
	}
}
