// Package ssaview is a reference irface.Function adapter: it walks real
// Go source, compiled to SSA form by
// golang.org/x/tools/go/ssa, into the shape package irface (and, through
// it, essa/cgraph/solver/vrp) consumes. It is grounded on
// golang.org/x/tools/go/ssa's own example tests for Example_buildPackage and
// Example_loadPackages: the same parser+importer and go/packages entry
// points those examples use to build SSA, adapted from a fixed
// hello-world string to arbitrary caller-supplied source.
//
// Only integer-typed values are adapted. An integer-typed value produced
// by an instruction this adapter does not model (calls, field/array/map
// access, closures) becomes an unconstrained irface.ParameterInstr the
// first time something reads it, the same fallback irface.Parameter's own
// doc comment describes for "any value the builder has no definition
// for." Non-integer values (strings, structs) are not adapted at all, and
// an instruction that reads one is skipped. This
// keeps the adapter sound for the core's integer range analysis without
// needing to understand every SSA opcode.
package ssaview

import (
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/rangevrp/rangevrp/irface"
)

// FromSource parses src as a single Go file, type-checks it against the
// standard library via go/importer, builds SSA for the whole package,
// and adapts funcName's body into irface — the single-file fast path
// ssaview_test.go uses for its end-to-end scenarios, grounded on
// golang.org/x/tools/go/ssa's own Example_buildPackage.
func FromSource(src, funcName string) (*irface.Function, irface.Dominance, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "src.go", src, parser.ParseComments)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing source: %w", err)
	}
	files := []*ast.File{f}

	pkgName := "p"
	if f.Name != nil {
		pkgName = f.Name.Name
	}
	pkg := types.NewPackage(pkgName, "")

	ssaPkg, _, err := ssautil.BuildPackage(&types.Config{Importer: importer.Default()}, fset, pkg, files, ssa.SanityCheckFunctions)
	if err != nil {
		return nil, nil, fmt.Errorf("type-checking source: %w", err)
	}

	fn := ssaPkg.Func(funcName)
	if fn == nil {
		return nil, nil, fmt.Errorf("no function %q in source", funcName)
	}
	return convertFunction(fn)
}

// FromPackage loads the Go package rooted at dir via golang.org/x/tools/go/packages,
// builds SSA for it, and adapts funcName's body into irface — the
// real-on-disk-package path, grounded on
// golang.org/x/tools/go/ssa's own Example_loadPackages.
func FromPackage(dir, funcName string) (*irface.Function, irface.Dominance, error) {
	cfg := &packages.Config{Mode: packages.LoadSyntax, Dir: dir}
	initial, err := packages.Load(cfg, ".")
	if err != nil {
		return nil, nil, fmt.Errorf("loading package at %s: %w", dir, err)
	}
	if packages.PrintErrors(initial) > 0 {
		return nil, nil, fmt.Errorf("package at %s has errors", dir)
	}

	_, pkgs := ssautil.Packages(initial, ssa.SanityCheckFunctions)
	for _, ssaPkg := range pkgs {
		if ssaPkg == nil {
			continue
		}
		ssaPkg.Build()
		if fn := ssaPkg.Func(funcName); fn != nil {
			return convertFunction(fn)
		}
	}
	return nil, nil, fmt.Errorf("no function %q in package at %s", funcName, dir)
}

// dominance adapts ssa.BasicBlock's own dominator-tree query (built by
// golang.org/x/tools/go/ssa itself via Lengauer-Tarjan while constructing
// the function) to irface.Dominance: package essa never needs to compute
// dominance itself when the caller already has it.
type dominance struct {
	ssaBlocks map[*irface.BasicBlock]*ssa.BasicBlock
}

func (d dominance) Dominates(a, b *irface.BasicBlock) bool {
	return d.ssaBlocks[a].Dominates(d.ssaBlocks[b])
}

// builder carries the per-function state needed to adapt one
// ssa.Function's blocks and values into an irface.Function: a value
// translation table built incrementally (SSA guarantees every
// definition is processed before its uses, except across Phi
// back-edges, which are patched in a second pass), and the entry block
// new placeholder values (materialized constants, unmodeled parameters)
// get attached to.
type builder struct {
	entry     *irface.BasicBlock
	values    map[ssa.Value]irface.Value
	blocks    map[*ssa.BasicBlock]*irface.BasicBlock
	ssaBlocks map[*irface.BasicBlock]*ssa.BasicBlock
	fresh     int
}

func convertFunction(fn *ssa.Function) (*irface.Function, irface.Dominance, error) {
	if len(fn.Blocks) == 0 {
		return nil, nil, fmt.Errorf("function %s has no body (external or intrinsic)", fn.Name())
	}

	out := &irface.Function{Name: fn.Name()}
	b := &builder{
		values:    map[ssa.Value]irface.Value{},
		blocks:    map[*ssa.BasicBlock]*irface.BasicBlock{},
		ssaBlocks: map[*irface.BasicBlock]*ssa.BasicBlock{},
	}

	for _, sb := range fn.Blocks {
		ib := &irface.BasicBlock{Index: sb.Index}
		b.blocks[sb] = ib
		b.ssaBlocks[ib] = sb
		out.Blocks = append(out.Blocks, ib)
	}
	b.entry = out.Blocks[0]
	for _, sb := range fn.Blocks {
		ib := b.blocks[sb]
		for _, p := range sb.Preds {
			ib.Preds = append(ib.Preds, b.blocks[p])
		}
		for _, s := range sb.Succs {
			ib.Succs = append(ib.Succs, b.blocks[s])
		}
	}

	for _, p := range fn.Params {
		typ, ok := integerType(p.Type())
		if !ok {
			continue
		}
		b.values[p] = irface.NewParameter(b.entry, paramName(p), typ)
	}

	var phis []*ssa.Phi
	for _, sb := range fn.Blocks {
		ib := b.blocks[sb]
		for _, instr := range sb.Instrs {
			switch v := instr.(type) {
			case *ssa.BinOp:
				b.convertBinOp(ib, v)
			case *ssa.Convert:
				b.convertConvert(ib, v)
			case *ssa.Phi:
				typ, ok := integerType(v.Type())
				if !ok {
					continue
				}
				edges := make([]irface.Value, len(v.Edges))
				p := irface.NewPhi(ib, valueName(v, &b.fresh), typ, edges)
				b.values[v] = p
				phis = append(phis, v)
			case *ssa.If:
				b.convertIf(ib, v)
			}
		}
	}

	// Phi edges can reference values defined later in program order (a
	// loop body's increment, fed back to the header); patch them in
	// once every instruction has a translation.
	for _, v := range phis {
		p := b.values[v].(*irface.PhiInstr)
		for i, e := range v.Edges {
			p.Edges[i] = b.resolve(e)
		}
	}

	return out, dominance{ssaBlocks: b.ssaBlocks}, nil
}

func (b *builder) convertBinOp(block *irface.BasicBlock, v *ssa.BinOp) {
	x := b.resolve(v.X)
	y := b.resolve(v.Y)
	if x == nil || y == nil {
		return
	}
	typ, unsigned, ok := binOpType(v)
	if !ok {
		return
	}
	b.values[v] = irface.NewBinOp(block, valueName(v, &b.fresh), typ, v.Op, x, y, unsigned)
}

func (b *builder) convertConvert(block *irface.BasicBlock, v *ssa.Convert) {
	typ, ok := integerType(v.Type())
	if !ok {
		return
	}
	x := b.resolve(v.X)
	if x == nil {
		return
	}
	b.values[v] = irface.NewConvert(block, valueName(v, &b.fresh), typ, x)
}

func (b *builder) convertIf(block *irface.BasicBlock, v *ssa.If) {
	cond := b.resolve(v.Cond)
	if cond == nil {
		return
	}
	irface.NewIf(block, cond)
}

// resolve returns v's irface translation, materializing a placeholder
// irface.ParameterInstr in the function's entry block the first time an
// integer-typed value has no translation yet — a literal constant
// (ssa.Const is a Value, never an Instruction, so it's never visited by
// the block walk above) or anything this adapter doesn't model. It
// returns nil for non-integer values: callers skip the instruction that
// would have read them, the same way cgraph.BuildGraph skips opcodes it
// doesn't recognize.
func (b *builder) resolve(v ssa.Value) irface.Value {
	if iv, ok := b.values[v]; ok {
		return iv
	}
	if c, ok := v.(*ssa.Const); ok {
		return b.resolveConst(c)
	}
	typ, ok := integerType(v.Type())
	if !ok {
		return nil
	}
	p := irface.NewParameter(b.entry, valueName(v, &b.fresh), typ)
	b.values[v] = p
	return p
}

func (b *builder) resolveConst(c *ssa.Const) irface.Value {
	typ, ok := integerType(c.Type())
	if !ok {
		return nil
	}
	text := "0"
	if c.Value != nil {
		text = c.Value.String()
	}
	iv := irface.NewConst(b.entry, typ, text)
	b.values[c] = iv
	return iv
}

func paramName(p *ssa.Parameter) string {
	if p.Name() != "" {
		return p.Name()
	}
	return "arg"
}

func valueName(v ssa.Value, fresh *int) string {
	if n := v.Name(); n != "" {
		return n
	}
	*fresh++
	return fmt.Sprintf("t%d", *fresh)
}

// binOpType reports the irface.Type a BinOp's result should carry: for
// a comparison token, the 1-bit boolean type cgraph.BuildGraph's
// isComparison recognizes; otherwise the operation's own integer result
// type. unsigned is taken from the left operand's type, matching
// irface.BinOpInstr.Unsigned's doc ("meaningless for other tokens").
func binOpType(v *ssa.BinOp) (irface.Type, bool, bool) {
	switch v.Op {
	case token.LSS, token.LEQ, token.GTR, token.GEQ, token.EQL, token.NEQ:
		operand, ok := integerType(v.X.Type())
		if !ok {
			return irface.Type{}, false, false
		}
		return irface.Type{Bits: 1}, operand.Unsigned, true
	default:
		typ, ok := integerType(v.Type())
		if !ok {
			return irface.Type{}, false, false
		}
		return typ, typ.Unsigned, true
	}
}

// integerType reports the irface.Type for t if t's underlying type is an
// integer basic kind, treating the platform-dependent int/uint as 64-bit,
// matching any 64-bit compilation target.
func integerType(t types.Type) (irface.Type, bool) {
	basic, ok := t.Underlying().(*types.Basic)
	if !ok {
		return irface.Type{}, false
	}
	bits, unsigned, ok := basicIntWidth(basic.Kind())
	if !ok {
		return irface.Type{}, false
	}
	return irface.Type{Bits: bits, Unsigned: unsigned}, true
}

func basicIntWidth(k types.BasicKind) (bits int, unsigned bool, ok bool) {
	switch k {
	case types.Int8:
		return 8, false, true
	case types.Uint8:
		return 8, true, true
	case types.Int16:
		return 16, false, true
	case types.Uint16:
		return 16, true, true
	case types.Int32, types.UntypedRune:
		return 32, false, true
	case types.Uint32:
		return 32, true, true
	case types.Int64:
		return 64, false, true
	case types.Uint64:
		return 64, true, true
	case types.Int, types.UntypedInt:
		return 64, false, true
	case types.Uint, types.Uintptr:
		return 64, true, true
	default:
		return 0, false, false
	}
}
