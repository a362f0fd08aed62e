package interval

import "golang.org/x/exp/constraints"

// MaxOf is a small generic numeric helper, grounded on
// golang.org/x/exp/constraints's own use for generic numeric code:
// Width.Bits comparisons have nothing to do with the Ext domain itself,
// so they don't belong on ext.Ext's own (Cmp-based, not <-based)
// ordering.
func MaxOf[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// MinOf is MaxOf's counterpart.
func MinOf[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}
