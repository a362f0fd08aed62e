package irface

// Operands returns the values an instruction reads, for generic walkers.
// Package essa and package cgraph read the typed operand fields directly
// and do not call it.
func (i *ConstInstr) Operands() []Value     { return nil }
func (i *ParameterInstr) Operands() []Value { return nil }
func (i *IfInstr) Operands() []Value        { return []Value{i.Cond} }
func (i *BinOpInstr) Operands() []Value     { return []Value{i.X, i.Y} }
func (i *ConvertInstr) Operands() []Value   { return []Value{i.X} }
func (i *SigmaInstr) Operands() []Value     { return []Value{i.X} }
func (i *PhiInstr) Operands() []Value       { return append([]Value(nil), i.Edges...) }

// ReplaceOperand rewrites every occurrence of old to new among an
// instruction's operands, reporting whether anything changed. Used only by
// package essa while rewriting dominated uses onto a freshly inserted
// Sigma.
func (i *BinOpInstr) ReplaceOperand(old, new Value) bool {
	changed := false
	if i.X == old {
		i.X = new
		changed = true
	}
	if i.Y == old {
		i.Y = new
		changed = true
	}
	return changed
}

func (i *ConvertInstr) ReplaceOperand(old, new Value) bool {
	if i.X == old {
		i.X = new
		return true
	}
	return false
}

func (i *SigmaInstr) ReplaceOperand(old, new Value) bool {
	if i.X == old {
		i.X = new
		return true
	}
	return false
}

func (i *PhiInstr) ReplaceOperand(old, new Value) bool {
	changed := false
	for idx, v := range i.Edges {
		if v == old {
			i.Edges[idx] = new
			changed = true
		}
	}
	return changed
}

func (i *IfInstr) ReplaceOperand(old, new Value) bool {
	if i.Cond == old {
		i.Cond = new
		return true
	}
	return false
}
