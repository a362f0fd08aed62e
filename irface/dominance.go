package irface

// Dominance answers "does a dominate b" queries over a Function's CFG. The
// e-SSA builder (package essa) uses it only to decide which existing uses of
// a refined value must be rewritten to the new Sigma; dominator computation
// itself is a caller concern, supplied by whatever adapter built the
// Function (see package ssaview for one backed by a real compiler).
type Dominance interface {
	Dominates(a, b *BasicBlock) bool
}
