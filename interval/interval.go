// Package interval implements the closed-interval abstract domain over
// ext.Ext used by the range-analysis solver: construction, the lattice
// operations (intersection, union), and saturating arithmetic transfer
// functions for every opcode the constraint graph can emit.
package interval

import (
	"fmt"

	"github.com/rangevrp/rangevrp/ext"
)

// Interval is Empty, or the closed range [Lower, Upper] with Lower ≤ Upper
// under the extended order.
type Interval struct {
	Empty bool
	Lower ext.Ext
	Upper ext.Ext
}

// Top is the maximal interval, [-∞, +∞].
var Top = Interval{Lower: ext.NegInf, Upper: ext.PosInf}

// Bottom is the empty interval, the identity element for Union.
var Bottom = Interval{Empty: true}

// New returns [l, u], or Bottom if l > u.
func New(l, u ext.Ext) Interval {
	if l.Cmp(u) > 0 {
		return Bottom
	}
	return Interval{Lower: l, Upper: u}
}

// Singleton returns the one-point interval [n, n].
func Singleton(n ext.Ext) Interval {
	return Interval{Lower: n, Upper: n}
}

// IsMaxRange reports whether i is exactly Top.
func (i Interval) IsMaxRange() bool {
	return !i.Empty && i.Lower == ext.NegInf && i.Upper == ext.PosInf
}

func (i Interval) String() string {
	if i.Empty {
		return "{}"
	}
	return fmt.Sprintf("[%s, %s]", i.Lower, i.Upper)
}

// IntersectWith returns i ∩ j. Empty is absorbing.
func (i Interval) IntersectWith(j Interval) Interval {
	if i.Empty || j.Empty {
		return Bottom
	}
	return New(ext.Max(i.Lower, j.Lower), ext.Min(i.Upper, j.Upper))
}

// UnionWith returns i ∪ j in the interval-lattice sense (the smallest
// interval covering both); Empty is the identity.
func (i Interval) UnionWith(j Interval) Interval {
	if i.Empty {
		return j
	}
	if j.Empty {
		return i
	}
	return New(ext.Min(i.Lower, j.Lower), ext.Max(i.Upper, j.Upper))
}

// Equal reports value equality, not identity.
func (i Interval) Equal(j Interval) bool {
	if i.Empty || j.Empty {
		return i.Empty == j.Empty
	}
	return i.Lower.Cmp(j.Lower) == 0 && i.Upper.Cmp(j.Upper) == 0
}

// Add computes [a, b] + [c, d] as [a+c, b+d], saturating at w's bounds.
func Add(i, j Interval, w Width) Interval {
	if i.Empty || j.Empty {
		return Bottom
	}
	return New(saturate(i.Lower.Add(j.Lower), w), saturate(i.Upper.Add(j.Upper), w))
}

// Sub implements "sub": [a−d, b−c], saturating.
func Sub(i, j Interval, w Width) Interval {
	if i.Empty || j.Empty {
		return Bottom
	}
	return New(saturate(i.Lower.Sub(j.Upper), w), saturate(i.Upper.Sub(j.Lower), w))
}

// Mul implements "mul": the min/max of the four corner products.
func Mul(i, j Interval, w Width) Interval {
	if i.Empty || j.Empty {
		return Bottom
	}
	ac := i.Lower.Mul(j.Lower)
	ad := i.Lower.Mul(j.Upper)
	bc := i.Upper.Mul(j.Lower)
	bd := i.Upper.Mul(j.Upper)
	return New(saturate(ext.Min(ac, ad, bc, bd), w), saturate(ext.Max(ac, ad, bc, bd), w))
}

// splitAtZero removes the singleton {0} from [l,u] (if it straddles zero)
// and returns the negative and/or positive remainders. Either may be absent
// (reported via ok).
func splitAtZero(l, u ext.Ext) (neg Interval, negOK bool, pos Interval, posOK bool) {
	if l.Sign() < 0 {
		negUpper := u
		if u.Sign() >= 0 {
			negUpper = ext.Int(-1)
		}
		if l.Cmp(negUpper) <= 0 {
			neg, negOK = New(l, negUpper), true
		}
	}
	if u.Sign() > 0 {
		posLower := l
		if l.Sign() <= 0 {
			posLower = ext.Int(1)
		}
		if posLower.Cmp(u) <= 0 {
			pos, posOK = New(posLower, u), true
		}
	}
	return
}

// divisorIsZero reports whether the only value the divisor interval can
// take is the singleton {0}.
func divisorIsZero(d Interval) bool {
	return d.Lower.Sign() == 0 && d.Upper.Sign() == 0
}

// Udiv implements "udiv": splits the divisor across zero and unions.
func Udiv(i, j Interval, w Width) Interval {
	if i.Empty || j.Empty {
		return Bottom
	}
	if divisorIsZero(j) {
		return Top
	}
	neg, negOK, pos, posOK := splitAtZero(j.Lower, j.Upper)
	result := Bottom
	if negOK {
		result = result.UnionWith(udiv1(i, neg, w))
	}
	if posOK {
		result = result.UnionWith(udiv1(i, pos, w))
	}
	return result
}

func udiv1(i, j Interval, w Width) Interval {
	// Unsigned division: quotient is largest when dividend is large and
	// divisor is small, smallest when dividend is small and divisor large.
	lo := saturate(quo(i.Lower, j.Upper), w)
	hi := saturate(quo(i.Upper, j.Lower), w)
	return New(ext.Min(lo, hi), ext.Max(lo, hi))
}

// Sdiv implements "sdiv", including the INT_MIN / -1 overflow case.
func Sdiv(i, j Interval, w Width) Interval {
	if i.Empty || j.Empty {
		return Bottom
	}
	if divisorIsZero(j) {
		return Top
	}
	neg, negOK, pos, posOK := splitAtZero(j.Lower, j.Upper)
	result := Bottom
	if negOK {
		result = result.UnionWith(sdiv1(i, neg, w))
	}
	if posOK {
		result = result.UnionWith(sdiv1(i, pos, w))
	}
	return result
}

func sdiv1(i, j Interval, w Width) Interval {
	corners := []ext.Ext{
		quo(i.Lower, j.Lower), quo(i.Lower, j.Upper),
		quo(i.Upper, j.Lower), quo(i.Upper, j.Upper),
	}
	lo, hi := ext.Min(corners...), ext.Max(corners...)
	// MinInt(W) / -1 overflows; it is covered by i.Lower/MinInt and a
	// divisor of exactly -1, in which case the "quotient" magnitude exceeds
	// the representable range and must pin to +∞ rather than wrap.
	minW, _ := w.Bounds()
	if w.Bits > 0 && !w.Unsigned && i.Lower.Cmp(minW) == 0 && j.Lower.Sign() < 0 && j.Upper.Cmp(ext.Int(-1)) >= 0 {
		hi = ext.PosInf
	}
	return New(saturate(lo, w), saturate(hi, w))
}

// quo divides two extended integers, treating ±∞ the way a limit would.
func quo(a, b ext.Ext) ext.Ext {
	return a.Quo(b)
}
