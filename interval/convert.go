package interval

import "github.com/rangevrp/rangevrp/ext"

// Truncate narrows a bit width: i is preserved if it fits inside to's
// representable range, otherwise it collapses to the full range of to.
func Truncate(i Interval, to Width) Interval {
	if i.Empty {
		return Bottom
	}
	lo, hi := to.Bounds()
	if i.Lower.Cmp(lo) >= 0 && i.Upper.Cmp(hi) <= 0 {
		return i
	}
	return New(lo, hi)
}

// SExt implements "sext": widening a signed value never loses information,
// so the bounds are preserved exactly.
func SExt(i Interval) Interval {
	return i
}

// ZExt implements "zext": negative lower bounds are impossible for the
// source's unsigned bit pattern, and an unknown (+∞) upper bound is
// replaced by the largest value representable in the source width.
func ZExt(i Interval, from Width) Interval {
	if i.Empty {
		return Bottom
	}
	lo := i.Lower
	if lo.Sign() < 0 {
		lo = ext.Int(0)
	}
	hi := i.Upper
	if hi.Cmp(ext.PosInf) == 0 {
		unsignedFrom := Width{Bits: from.Bits, Unsigned: true}
		_, hi = unsignedFrom.Bounds()
	}
	return New(lo, hi)
}

// Convert implements the combined sext/zext/truncate dispatch used by the
// constraint graph's Convert operation: pick the transfer function that
// matches the direction and signedness of the conversion, falling back to
// the identity when neither widening nor narrowing rule applies (e.g.
// same-width reinterpretation).
func Convert(i Interval, from, to Width) Interval {
	if i.Empty {
		return Bottom
	}
	switch {
	case to.Bits < from.Bits:
		return Truncate(i, to)
	case to.Bits > from.Bits && from.Unsigned:
		return ZExt(i, from)
	case to.Bits > from.Bits && !from.Unsigned && !to.Unsigned:
		return SExt(i)
	default:
		return i
	}
}
