// Package irface names the IR-access capability the range-analysis core
// consumes: integer-typed values, basic blocks, and the handful of
// instruction shapes the constraint graph builder recognizes.
// Parsing real source into this shape, and computing the dominator
// relation used by package essa, are both external concerns — see
// package ssaview for a reference adapter backed by golang.org/x/tools.
package irface

import (
	"go/token"

	"github.com/rangevrp/rangevrp/interval"
)

// Kind tags the opcode family of an Instruction.
type Kind int8

const (
	// Const is a literal integer value, materialized once per distinct
	// constant.
	Const Kind = iota
	// Parameter is an unconstrained external input: a function argument,
	// or any value the builder has no definition for.
	Parameter
	// BinOp is a binary arithmetic, shift, bitwise, or comparison
	// instruction; Token distinguishes the operation. Comparisons never
	// appear as VarNode sinks themselves — they are only ever the
	// controlling value of an If.
	BinOp
	// Convert is truncation, sign extension, or zero extension, picked by
	// comparing the bit widths and signedness of X and the instruction's
	// own type.
	Convert
	// Phi merges the values flowing in along Edges, one per predecessor
	// block, in the same order as Block().Preds.
	Phi
	// Sigma is an e-SSA refinement copy inserted by package essa on the
	// true/false edge of a comparison-guarded branch.
	Sigma
	// If is a conditional branch; it is not itself a Value.
	If
)

// Type describes the integer type of a Value: its bit width and
// signedness. Width is the type's own declared width, not the function-
// wide analysis width W (see interval.Width), though the two coincide for
// the widest operand in the function.
type Type struct {
	Bits     int
	Unsigned bool
}

// Value is anything that can be a VarNode: every Instruction that defines a
// result is also a Value.
type Value interface {
	// Name is a stable, human-readable identifier used only for printing.
	Name() string
	Type() Type
}

// Instruction is an operation the constraint-graph builder turns into an
// Operation node (or, for If, into branch metadata consumed while building
// Sigma nodes).
type Instruction interface {
	Block() *BasicBlock
	Kind() Kind
}

// ConstInstr is a materialized integer literal.
type ConstInstr struct {
	Val   *ConstValue
	block *BasicBlock
}

// BinOpInstr computes X Op Y, where Op is either an arithmetic/bitwise/
// shift token (ADD, SUB, MUL, QUO, REM, SHL, SHR, AND, OR, XOR) or a
// comparison token (LSS, LEQ, GTR, GEQ, EQL, NEQ) when it is the Cond of an
// If. Unsigned distinguishes udiv/urem/lshr from sdiv/srem/ashr for QUO,
// REM and SHR respectively; it is meaningless for other tokens.
type BinOpInstr struct {
	name     string
	typ      Type
	block    *BasicBlock
	Op       token.Token
	X, Y     Value
	Unsigned bool
}

// ConvertInstr changes X's representation from its own type to the
// instruction's type.
type ConvertInstr struct {
	name  string
	typ   Type
	block *BasicBlock
	X     Value
}

// PhiInstr merges one value per predecessor block.
type PhiInstr struct {
	name  string
	typ   Type
	block *BasicBlock
	Edges []Value
}

// Refinement is the interval that package essa has proven holds for a
// Sigma's result: either a concrete interval, or a symbolic one denoting
// "satisfies X Pred Bound" for a Bound whose own interval isn't known
// yet.
type Refinement struct {
	Symbolic bool
	Interval interval.Interval // valid when !Symbolic
	Bound    Value             // valid when Symbolic
	Pred     token.Token       // valid when Symbolic
}

// SigmaInstr is a single-operand refinement copy. Branch reports whether
// this copy sits on the true (as opposed to false) successor of From.
// Refinement is populated by package essa at the moment the copy is
// inserted; it is never left in its zero value once essa.Build returns.
type SigmaInstr struct {
	name       string
	typ        Type
	block      *BasicBlock
	X          Value
	From       *IfInstr
	Branch     bool
	Refinement Refinement
}

// IfInstr is a conditional branch. Cond, when it is a *BinOpInstr with a
// comparison token, lets essa.Build attach refinement intervals; any other
// Cond makes both successors unconstrained.
type IfInstr struct {
	block *BasicBlock
	Cond  Value
}

// ParameterInstr is an unconstrained external input.
type ParameterInstr struct {
	name  string
	typ   Type
	block *BasicBlock
}

func (i *ConstInstr) Block() *BasicBlock     { return i.block }
func (i *BinOpInstr) Block() *BasicBlock     { return i.block }
func (i *ConvertInstr) Block() *BasicBlock   { return i.block }
func (i *PhiInstr) Block() *BasicBlock       { return i.block }
func (i *SigmaInstr) Block() *BasicBlock     { return i.block }
func (i *IfInstr) Block() *BasicBlock        { return i.block }
func (i *ParameterInstr) Block() *BasicBlock { return i.block }

func (i *ConstInstr) Kind() Kind     { return Const }
func (i *BinOpInstr) Kind() Kind     { return BinOp }
func (i *ConvertInstr) Kind() Kind   { return Convert }
func (i *PhiInstr) Kind() Kind       { return Phi }
func (i *SigmaInstr) Kind() Kind     { return Sigma }
func (i *IfInstr) Kind() Kind        { return If }
func (i *ParameterInstr) Kind() Kind { return Parameter }

func (i *ConstInstr) Name() string     { return i.Val.String() }
func (i *BinOpInstr) Name() string     { return i.name }
func (i *ConvertInstr) Name() string   { return i.name }
func (i *PhiInstr) Name() string       { return i.name }
func (i *SigmaInstr) Name() string     { return i.name }
func (i *ParameterInstr) Name() string { return i.name }

func (i *ConstInstr) Type() Type     { return i.Val.Type }
func (i *BinOpInstr) Type() Type     { return i.typ }
func (i *ConvertInstr) Type() Type   { return i.typ }
func (i *PhiInstr) Type() Type       { return i.typ }
func (i *SigmaInstr) Type() Type     { return i.typ }
func (i *ParameterInstr) Type() Type { return i.typ }

// ConstValue is the literal payload of a ConstInstr, kept distinct from
// ext.Ext so this package has no dependency on the analysis domain.
type ConstValue struct {
	Type Type
	Text string // decimal text, arbitrary precision
}

func (c *ConstValue) String() string { return c.Text }

// BasicBlock is a straight-line sequence of instructions ending, if it has
// two successors, in exactly one IfInstr; a block with a single successor
// has no branch instruction.
type BasicBlock struct {
	Index  int
	Instrs []Instruction
	Preds  []*BasicBlock
	Succs  []*BasicBlock
}

// Function is the unit of analysis: a CFG of BasicBlocks.
type Function struct {
	Name   string
	Blocks []*BasicBlock
}

// NewSigma creates a refinement copy of x and inserts it at the front of
// block's instruction list, so it dominates every other instruction already
// in block. Used only by package essa, which owns the decision of where
// refinement copies go and what Refinement they carry.
func NewSigma(block *BasicBlock, name string, typ Type, x Value, from *IfInstr, branch bool) *SigmaInstr {
	s := &SigmaInstr{name: name, typ: typ, block: block, X: x, From: from, Branch: branch}
	block.Instrs = append([]Instruction{s}, block.Instrs...)
	return s
}

// NewConst, NewBinOp, NewConvert, NewPhi, NewParameter are the builder
// constructors used by adapters (see ssaview) and tests to assemble a
// Function.

func NewConst(block *BasicBlock, typ Type, text string) *ConstInstr {
	c := &ConstInstr{block: block, Val: &ConstValue{Type: typ, Text: text}}
	block.Instrs = append(block.Instrs, c)
	return c
}

func NewBinOp(block *BasicBlock, name string, typ Type, op token.Token, x, y Value, unsigned bool) *BinOpInstr {
	b := &BinOpInstr{name: name, typ: typ, block: block, Op: op, X: x, Y: y, Unsigned: unsigned}
	block.Instrs = append(block.Instrs, b)
	return b
}

func NewConvert(block *BasicBlock, name string, typ Type, x Value) *ConvertInstr {
	c := &ConvertInstr{name: name, typ: typ, block: block, X: x}
	block.Instrs = append(block.Instrs, c)
	return c
}

func NewPhi(block *BasicBlock, name string, typ Type, edges []Value) *PhiInstr {
	p := &PhiInstr{name: name, typ: typ, block: block, Edges: edges}
	block.Instrs = append(block.Instrs, p)
	return p
}

func NewIf(block *BasicBlock, cond Value) *IfInstr {
	f := &IfInstr{block: block, Cond: cond}
	block.Instrs = append(block.Instrs, f)
	return f
}

func NewParameter(block *BasicBlock, name string, typ Type) *ParameterInstr {
	p := &ParameterInstr{name: name, typ: typ, block: block}
	block.Instrs = append(block.Instrs, p)
	return p
}
