package interval

import (
	"math/big"

	"github.com/rangevrp/rangevrp/ext"
)

func maxAbs(i Interval) ext.Ext {
	return ext.Max(i.Lower.Abs(), i.Upper.Abs())
}

// Urem bounds an unsigned remainder as [0, max(|c|,|d|)−1], intersected
// with the dividend's own (non-negative) range.
func Urem(i, j Interval, w Width) Interval {
	if i.Empty || j.Empty {
		return Bottom
	}
	if divisorIsZero(j) {
		return Top
	}
	m := saturate(maxAbs(j).Sub(ext.Int(1)), w)
	return New(ext.Int(0), m).IntersectWith(i)
}

// Srem implements "srem": [−(max(|c|,|d|)−1), max(|c|,|d|)−1], intersected
// with the dividend's range.
func Srem(i, j Interval, w Width) Interval {
	if i.Empty || j.Empty {
		return Bottom
	}
	if divisorIsZero(j) {
		return Top
	}
	m := saturate(maxAbs(j).Sub(ext.Int(1)), w)
	return New(m.Neg(), m).IntersectWith(i)
}

// pow2 returns 2^e, or +∞ if e is unbounded or implausibly large (large
// enough that the shift amount itself can no longer be trusted to be a
// sane machine shift).
func pow2(e ext.Ext) ext.Ext {
	if e.IsInfinite() {
		if e.Sign() > 0 {
			return ext.PosInf
		}
		return ext.Int(1)
	}
	v, ok := e.Int64()
	if !ok || v < 0 {
		return ext.PosInf
	}
	if v < 0 || v > 1024 {
		return ext.PosInf
	}
	return ext.Big(new(big.Int).Lsh(big.NewInt(1), uint(v)))
}

// shiftFactor turns a shift-amount interval into the corresponding
// multiplier interval 2^k, k ∈ [lower, upper]. Negative shift amounts don't
// occur in well-typed IR; a lower bound below 0 is clamped to 0.
func shiftFactor(amount Interval) Interval {
	lo := amount.Lower
	if lo.Sign() < 0 {
		lo = ext.Int(0)
	}
	return New(pow2(lo), pow2(amount.Upper))
}

// Shl implements "shl": multiplication by 2^k.
func Shl(i, amount Interval, w Width) Interval {
	if i.Empty || amount.Empty {
		return Bottom
	}
	return Mul(i, shiftFactor(amount), w)
}

// Lshr implements "lshr": unsigned division by 2^k, clamped at 0 below.
func Lshr(i, amount Interval, w Width) Interval {
	if i.Empty || amount.Empty {
		return Bottom
	}
	r := Udiv(i, shiftFactor(amount), w)
	if r.Empty {
		return r
	}
	if r.Lower.Sign() < 0 {
		r.Lower = ext.Int(0)
	}
	return r
}

// Ashr implements "ashr": signed division by 2^k.
func Ashr(i, amount Interval, w Width) Interval {
	if i.Empty || amount.Empty {
		return Bottom
	}
	return Sdiv(i, shiftFactor(amount), w)
}

// nonNegBoundMask returns the smallest mask of the form 2^k−1 covering u,
// with ok false if u isn't a known, finite, non-negative bound.
func nonNegBoundMask(u ext.Ext) (ext.Ext, bool) {
	if u.IsInfinite() {
		return ext.Ext{}, false
	}
	b, ok := u.BigInt()
	if !ok || b.Sign() < 0 {
		return ext.Ext{}, false
	}
	m := new(big.Int).Lsh(big.NewInt(1), uint(b.BitLen()))
	m.Sub(m, big.NewInt(1))
	return ext.Big(m), true
}

func bigOr(a, b ext.Ext) ext.Ext {
	ab, _ := a.BigInt()
	bb, _ := b.BigInt()
	return ext.Big(new(big.Int).Or(ab, bb))
}

// And is a conservative bitwise AND: Top unless at least one operand is
// known non-negative with a finite upper bound, in which case the result
// is bounded by that operand's covering bitmask.
func And(i, j Interval, w Width) Interval {
	if i.Empty || j.Empty {
		return Bottom
	}
	if i.Lower.Sign() >= 0 {
		if m, ok := nonNegBoundMask(i.Upper); ok {
			return New(ext.Int(0), m)
		}
	}
	if j.Lower.Sign() >= 0 {
		if m, ok := nonNegBoundMask(j.Upper); ok {
			return New(ext.Int(0), m)
		}
	}
	return Top
}

// Or implements the conservative bitwise "Or": when both operands are
// known non-negative with finite upper bounds, the result is bounded below
// by the larger of the two lower bounds and above by the union of their
// covering bitmasks.
func Or(i, j Interval, w Width) Interval {
	if i.Empty || j.Empty {
		return Bottom
	}
	if i.Lower.Sign() < 0 || j.Lower.Sign() < 0 {
		return Top
	}
	m1, ok1 := nonNegBoundMask(i.Upper)
	m2, ok2 := nonNegBoundMask(j.Upper)
	if !ok1 || !ok2 {
		return Top
	}
	return New(ext.Max(i.Lower, j.Lower), bigOr(m1, m2))
}

// Xor implements the conservative bitwise "Xor": like Or, but the lower
// bound cannot be bounded away from 0 (differing bits may cancel).
func Xor(i, j Interval, w Width) Interval {
	if i.Empty || j.Empty {
		return Bottom
	}
	if i.Lower.Sign() < 0 || j.Lower.Sign() < 0 {
		return Top
	}
	m1, ok1 := nonNegBoundMask(i.Upper)
	m2, ok2 := nonNegBoundMask(j.Upper)
	if !ok1 || !ok2 {
		return Top
	}
	return New(ext.Int(0), bigOr(m1, m2))
}
