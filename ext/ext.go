// Package ext implements the extended integers used as interval bounds:
// arbitrary-precision signed integers plus −∞ and +∞. Arithmetic here never
// saturates or wraps; callers that need a fixed bit width (see package
// interval) are responsible for clamping the results.
package ext

import (
	"fmt"
	"math/big"
)

// sign tags a non-finite Ext; zero means finite.
type sign int8

const (
	finite sign = 0
	negInf sign = -1
	posInf sign = 1
)

// Ext is an element of ℤ ∪ {−∞, +∞}.
type Ext struct {
	inf sign
	n   *big.Int // valid only when inf == finite
}

var (
	NegInf = Ext{inf: negInf}
	PosInf = Ext{inf: posInf}
)

// Int returns the extended integer for n.
func Int(n int64) Ext {
	return Big(big.NewInt(n))
}

// Big returns the extended integer for n.
func Big(n *big.Int) Ext {
	return Ext{n: n}
}

// IsInfinite reports whether z is −∞ or +∞.
func (z Ext) IsInfinite() bool {
	return z.inf != finite
}

// Sign returns -1, 0 or 1.
func (z Ext) Sign() int {
	if z.inf != finite {
		return int(z.inf)
	}
	return z.n.Sign()
}

// Cmp returns -1, 0 or 1 as z is less than, equal to, or greater than w, using
// the extended order −∞ < n < +∞.
func (z Ext) Cmp(w Ext) int {
	if z.inf == w.inf && z.inf != finite {
		return 0
	}
	if z.inf == posInf || w.inf == negInf {
		return 1
	}
	if z.inf == negInf || w.inf == posInf {
		return -1
	}
	return z.n.Cmp(w.n)
}

func (z Ext) Equal(w Ext) bool { return z.Cmp(w) == 0 }

// Neg returns −z.
func (z Ext) Neg() Ext {
	switch z.inf {
	case posInf:
		return NegInf
	case negInf:
		return PosInf
	default:
		return Big(new(big.Int).Neg(z.n))
	}
}

// Add returns z+w. It panics on −∞+∞, which is never a legal operand pair
// for sound interval arithmetic (it would only arise from an Empty interval,
// which callers must special-case before calling Add).
func (z Ext) Add(w Ext) Ext {
	if z.inf == finite && w.inf == finite {
		return Big(new(big.Int).Add(z.n, w.n))
	}
	if z.inf != finite && w.inf != finite && z.inf != w.inf {
		panic(fmt.Sprintf("%s + %s is undefined", z, w))
	}
	if z.inf != finite {
		return Ext{inf: z.inf}
	}
	return Ext{inf: w.inf}
}

// Sub returns z−w.
func (z Ext) Sub(w Ext) Ext {
	return z.Add(w.Neg())
}

// Mul returns z*w. 0 absorbs any infinity, matching the convention that an
// empty or singleton-zero operand never introduces unboundedness.
func (z Ext) Mul(w Ext) Ext {
	if (z.inf == finite && z.n.Sign() == 0) || (w.inf == finite && w.n.Sign() == 0) {
		return Int(0)
	}
	if z.inf != finite || w.inf != finite {
		return Ext{inf: sign(z.Sign() * w.Sign())}
	}
	return Big(new(big.Int).Mul(z.n, w.n))
}

// Abs returns |z|.
func (z Ext) Abs() Ext {
	if z.Sign() < 0 {
		return z.Neg()
	}
	return z
}

// Int64 returns z as an int64 if z is finite and representable, with ok
// reporting success. It is used only by opcodes (shifts) whose shift amount
// must be a small machine integer regardless of the interval's own width.
func (z Ext) Int64() (v int64, ok bool) {
	if z.inf != finite || !z.n.IsInt64() {
		return 0, false
	}
	return z.n.Int64(), true
}

// BigInt returns the underlying big.Int for a finite z, with ok reporting
// whether z is finite. The caller must not mutate the returned value.
func (z Ext) BigInt() (*big.Int, bool) {
	if z.inf != finite {
		return nil, false
	}
	return z.n, true
}

// Quo returns the truncated (toward zero) quotient z/w. Either operand may
// be infinite; z/0 is left to the caller, which must never invoke Quo with a
// zero finite divisor.
func (z Ext) Quo(w Ext) Ext {
	switch {
	case z.inf != finite && w.inf != finite:
		return Ext{inf: sign(z.Sign() * w.Sign())}
	case w.inf != finite:
		return Int(0)
	case z.inf != finite:
		return Ext{inf: sign(z.Sign() * w.Sign())}
	default:
		return Big(new(big.Int).Quo(z.n, w.n))
	}
}

// Rem returns the truncated remainder of z/w, analogous to Quo.
func (z Ext) Rem(w Ext) Ext {
	switch {
	case z.inf != finite || w.inf != finite:
		// The remainder of a division involving an unbounded operand is
		// itself unbounded; callers intersect with a concrete bound
		// computed independently (see interval.Srem/Urem).
		return Ext{inf: sign(z.Sign())}
	default:
		return Big(new(big.Int).Rem(z.n, w.n))
	}
}

func (z Ext) String() string {
	switch z.inf {
	case negInf:
		return "-∞"
	case posInf:
		return "+∞"
	default:
		return z.n.String()
	}
}

// Min returns the least of zs.
func Min(zs ...Ext) Ext {
	m := zs[0]
	for _, z := range zs[1:] {
		if z.Cmp(m) < 0 {
			m = z
		}
	}
	return m
}

// Max returns the greatest of zs.
func Max(zs ...Ext) Ext {
	m := zs[0]
	for _, z := range zs[1:] {
		if z.Cmp(m) > 0 {
			m = z
		}
	}
	return m
}
