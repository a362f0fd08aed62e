package interval

import (
	"go/token"

	"github.com/rangevrp/rangevrp/ext"
)

// Refine turns a comparison predicate together with the current range of
// the compared-against operand into the interval a sigma's operand is
// known to satisfy, whether the bound is a concrete literal or another
// value's already-computed range: X EQL bound narrows to bound itself;
// X GTR/GEQ bound narrows its lower edge; X LSS/LEQ bound narrows its
// upper edge. Any other predicate (NEQ, or a condition that wasn't a
// comparison at all) carries no information.
func Refine(pred token.Token, bound Interval) Interval {
	if bound.Empty {
		return Bottom
	}
	switch pred {
	case token.EQL:
		return bound
	case token.GTR:
		return New(bound.Lower.Add(ext.Int(1)), ext.PosInf)
	case token.GEQ:
		return New(bound.Lower, ext.PosInf)
	case token.LSS:
		return New(ext.NegInf, bound.Upper.Sub(ext.Int(1)))
	case token.LEQ:
		return New(ext.NegInf, bound.Upper)
	default:
		return Top
	}
}

// InvertPredicate returns the predicate satisfied on the complementary
// branch of a comparison, e.g. the false-edge of "x < y" satisfies
// "x >= y".
func InvertPredicate(pred token.Token) token.Token {
	switch pred {
	case token.LSS:
		return token.GEQ
	case token.GTR:
		return token.LEQ
	case token.EQL:
		return token.NEQ
	case token.NEQ:
		return token.EQL
	case token.GEQ:
		return token.LSS
	case token.LEQ:
		return token.GTR
	default:
		return pred
	}
}

// SwapPredicate returns the predicate that holds when the two operands of
// a comparison are exchanged, e.g. "y > x" holds exactly when "x < y"
// holds.
func SwapPredicate(pred token.Token) token.Token {
	switch pred {
	case token.LSS:
		return token.GTR
	case token.GTR:
		return token.LSS
	case token.LEQ:
		return token.GEQ
	case token.GEQ:
		return token.LEQ
	default:
		return pred
	}
}
