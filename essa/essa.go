// Package essa builds the extended-SSA form the constraint-graph builder
// needs: for every comparison-guarded branch, a refinement copy (Sigma)
// of each compared operand is inserted at the top of the corresponding
// successor block, and every use the branch dominates is rewritten onto
// that copy. It is grounded on staticcheck/vrp's sigmaInteger/
// sigmaIntegerConst/sigmaIntegerFuture and invertToken, generalized from
// ssa.Value to irface.Value and from a handful of hardcoded predicate
// cases to interval.Refine/InvertPredicate/SwapPredicate.
package essa

import (
	"fmt"
	"go/token"
	"math/big"

	"github.com/rangevrp/rangevrp/ext"
	"github.com/rangevrp/rangevrp/interval"
	"github.com/rangevrp/rangevrp/irface"
)

// rewriter is satisfied by every irface.Instruction that owns operand
// slots essa might need to repoint at a freshly inserted Sigma.
type rewriter interface {
	ReplaceOperand(old, new irface.Value) bool
}

// Build inserts Sigma instructions for every comparison-guarded branch of
// fn and rewrites the uses dom reports as dominated by the branch target.
// It is the sole producer of irface.Refinement values: once Build
// returns, every Sigma's Refinement field holds either a concrete
// interval (the compared operand was a constant) or a symbolic one
// naming the other operand as the bound.
func Build(fn *irface.Function, dom irface.Dominance) {
	b := &builder{fn: fn, dom: dom}
	for _, block := range fn.Blocks {
		for _, instr := range block.Instrs {
			ifInstr, ok := instr.(*irface.IfInstr)
			if !ok {
				continue
			}
			cond, ok := ifInstr.Cond.(*irface.BinOpInstr)
			if !ok || !isComparison(cond.Op) {
				continue
			}
			if len(block.Succs) != 2 {
				continue
			}
			b.insertSigmas(block, ifInstr, cond)
		}
	}
}

type builder struct {
	fn      *irface.Function
	dom     irface.Dominance
	counter int
}

func isComparison(op token.Token) bool {
	switch op {
	case token.LSS, token.LEQ, token.GTR, token.GEQ, token.EQL, token.NEQ:
		return true
	default:
		return false
	}
}

// insertSigmas handles both successors of a comparison-guarded branch,
// refining both cond.X and cond.Y on each side (each from its own point
// of view: the operand being refined is always the sigma's X, the other
// operand is always the bound).
func (b *builder) insertSigmas(block *irface.BasicBlock, ifInstr *irface.IfInstr, cond *irface.BinOpInstr) {
	trueBlock, falseBlock := block.Succs[0], block.Succs[1]

	// cond.X/cond.Y are snapshotted once: the first sigmaFor call's
	// rewriteDominatedUses can repoint cond.X/cond.Y in place (via
	// BinOpInstr.ReplaceOperand) whenever block itself ends up in the
	// dominated set, which a self-looping single-block branch makes
	// possible. Re-reading the fields after that would refine the
	// already-refined sigma instead of the original operand.
	origX, origY := cond.X, cond.Y

	b.sigmaFor(trueBlock, ifInstr, true, origX, origY, cond.Op)
	b.sigmaFor(trueBlock, ifInstr, true, origY, origX, interval.SwapPredicate(cond.Op))

	falsePred := interval.InvertPredicate(cond.Op)
	b.sigmaFor(falseBlock, ifInstr, false, origX, origY, falsePred)
	b.sigmaFor(falseBlock, ifInstr, false, origY, origX, interval.SwapPredicate(falsePred))
}

// sigmaFor inserts a Sigma refining x (as "x pred bound") at the top of
// target, unless x is a constant (constants never need refining).
func (b *builder) sigmaFor(target *irface.BasicBlock, from *irface.IfInstr, branch bool, x, bound irface.Value, pred token.Token) {
	if _, ok := x.(*irface.ConstInstr); ok {
		return
	}
	b.counter++
	name := fmt.Sprintf("%s.sigma%d", x.Name(), b.counter)
	sigma := irface.NewSigma(target, name, x.Type(), x, from, branch)
	sigma.Refinement = refinementFor(bound, pred)
	b.rewriteDominatedUses(target, x, sigma)
}

// refinementFor builds a concrete BasicInterval refinement when bound is
// a literal (its value is already known at build time, so there's
// nothing left to resolve during solving), or a SymbInterval naming bound
// and pred otherwise.
func refinementFor(bound irface.Value, pred token.Token) irface.Refinement {
	if c, ok := bound.(*irface.ConstInstr); ok {
		v, ok := new(big.Int).SetString(c.Val.Text, 10)
		if !ok {
			return irface.Refinement{Symbolic: false, Interval: interval.Top}
		}
		return irface.Refinement{
			Symbolic: false,
			Interval: interval.Refine(pred, interval.Singleton(ext.Big(v))),
		}
	}
	return irface.Refinement{Symbolic: true, Bound: bound, Pred: pred}
}

// rewriteDominatedUses repoints every use of orig that target's branch
// dominates onto sigma. The search is function-wide: an e-SSA refinement
// can be live across many blocks below its insertion point, not just
// target itself.
func (b *builder) rewriteDominatedUses(target *irface.BasicBlock, orig irface.Value, sigma *irface.SigmaInstr) {
	for _, block := range b.fn.Blocks {
		if !b.dom.Dominates(target, block) {
			continue
		}
		for _, instr := range block.Instrs {
			if si, ok := instr.(*irface.SigmaInstr); ok && si == sigma {
				continue
			}
			if r, ok := instr.(rewriter); ok {
				r.ReplaceOperand(orig, sigma)
			}
		}
	}
}
