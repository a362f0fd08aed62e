package interval

import (
	"math/big"

	"github.com/rangevrp/rangevrp/ext"
)

// Width is the bit width and signedness a function's integers have been
// normalized to. It is derived by the caller (the maximum bit width of any
// integer operand in the function being analyzed), never configured.
type Width struct {
	Bits     int
	Unsigned bool
}

// Bounds returns the smallest and largest finite values representable at w.
func (w Width) Bounds() (lo, hi ext.Ext) {
	if w.Bits <= 0 {
		return ext.NegInf, ext.PosInf
	}
	if w.Unsigned {
		max := new(big.Int).Lsh(big.NewInt(1), uint(w.Bits))
		max.Sub(max, big.NewInt(1))
		return ext.Int(0), ext.Big(max)
	}
	max := new(big.Int).Lsh(big.NewInt(1), uint(w.Bits-1))
	min := new(big.Int).Neg(max)
	max.Sub(max, big.NewInt(1))
	return ext.Big(min), ext.Big(max)
}

// saturate pins z to ±∞ if it falls outside w's representable range. It
// never wraps.
func saturate(z ext.Ext, w Width) ext.Ext {
	if z.IsInfinite() {
		return z
	}
	lo, hi := w.Bounds()
	if z.Cmp(hi) > 0 {
		return ext.PosInf
	}
	if z.Cmp(lo) < 0 {
		return ext.NegInf
	}
	return z
}
