package sexpr

import (
	"ilwasm/internal/diag"
	"ilwasm/internal/ir"
	"ilwasm/internal/types"
)

var binaryMnemonics = map[ir.BinaryOp]string{
	ir.OpAdd:    "add",
	ir.OpSub:    "sub",
	ir.OpMul:    "mul",
	ir.OpDiv:    "div",
	ir.OpRem:    "rem",
	ir.OpBitAnd: "and",
	ir.OpBitOr:  "or",
	ir.OpBitXor: "xor",
	ir.OpShl:    "shl",
	ir.OpShr:    "shr",
	ir.OpEq:     "eq",
	ir.OpNe:     "ne",
	ir.OpLt:     "lt",
	ir.OpLe:     "le",
	ir.OpGt:     "gt",
	ir.OpGe:     "ge",
}

// mnemonic selects the instruction for op on operands of type t. Integer
// division, remainder, right shift and ordering comparisons carry the
// signedness of the left operand.
func (fe *funcEmitter) mnemonic(op ir.BinaryOp, kw types.Keyword, t types.TypeID) (string, bool) {
	base, ok := binaryMnemonics[op]
	if !ok {
		return "", false
	}
	if kw.IsFloat() {
		switch op {
		case ir.OpRem, ir.OpBitAnd, ir.OpBitOr, ir.OpBitXor, ir.OpShl, ir.OpShr:
			return "", false
		}
		return string(kw) + "." + base, true
	}
	switch op {
	case ir.OpDiv, ir.OpRem, ir.OpShr, ir.OpLt, ir.OpLe, ir.OpGt, ir.OpGe:
		if fe.e.types.IsSigned(t) {
			base += "_s"
		} else {
			base += "_u"
		}
	}
	return string(kw) + "." + base, true
}

func (fe *funcEmitter) binary(e *ir.Expr, d *ir.BinaryData) (string, error) {
	switch {
	case d.Op == ir.OpAssign:
		value, err := fe.expr(d.Right)
		if err != nil {
			return "", err
		}
		return fe.store(d.Left, value)
	case d.Op.IsAssignment():
		base, _ := d.Op.CompoundBase()
		value, err := fe.arith(e, base, d.Left, d.Right)
		if err != nil {
			return "", err
		}
		return fe.store(d.Left, value)
	case d.Op == ir.OpLogicalAnd, d.Op == ir.OpLogicalOr:
		l, err := fe.expr(d.Left)
		if err != nil {
			return "", err
		}
		r, err := fe.expr(d.Right)
		if err != nil {
			return "", err
		}
		if d.Op == ir.OpLogicalAnd {
			return form("if", l, r, intConst(types.KeywordI32, 0)), nil
		}
		return form("if", l, intConst(types.KeywordI32, 1), r), nil
	}
	return fe.arith(e, d.Op, d.Left, d.Right)
}

func (fe *funcEmitter) arith(e *ir.Expr, op ir.BinaryOp, left, right *ir.Expr) (string, error) {
	in := fe.e.types
	t := left.Type
	// Address arithmetic on a string yields an i32 offset.
	if in.IsString(t) && !op.IsComparison() && in.IsIntegral(e.Type) {
		t = e.Type
	}
	kw, ok := fe.e.valueKeyword(t)
	if !ok {
		return fe.untranslatable(e, "operator "+op.String()+" on "+in.String(t)), nil
	}
	if in.IsString(t) && op != ir.OpEq && op != ir.OpNe {
		return fe.untranslatable(e, "string operator "+op.String()+" is not supported"), nil
	}
	name, ok := fe.mnemonic(op, kw, t)
	if !ok {
		return fe.untranslatable(e, "operator "+op.String()+" on "+string(kw)+" is not supported"), nil
	}
	l, err := fe.expr(left)
	if err != nil {
		return "", err
	}
	r, err := fe.expr(right)
	if err != nil {
		return "", err
	}
	if op == ir.OpShl || op == ir.OpShr {
		if rk, ok := fe.e.valueKeyword(right.Type); ok && rk == types.KeywordI32 && kw == types.KeywordI64 {
			r = form("i64.extend_u/i32", r)
		}
	}
	return form(name, l, r), nil
}

func (fe *funcEmitter) unary(e *ir.Expr, d *ir.UnaryData, wantValue bool) (string, error) {
	if d.Op.IsIncrement() {
		return fe.increment(d, wantValue)
	}
	kw, ok := fe.e.valueKeyword(d.Operand.Type)
	if !ok {
		return fe.untranslatable(e, "operator "+d.Op.String()+" on "+fe.e.types.String(d.Operand.Type)), nil
	}
	x, err := fe.expr(d.Operand)
	if err != nil {
		return "", err
	}
	switch d.Op {
	case ir.OpPlus:
		return x, nil
	case ir.OpNeg:
		if kw.IsFloat() {
			return form(string(kw)+".neg", x), nil
		}
		return form(string(kw)+".sub", intConst(kw, 0), x), nil
	case ir.OpNot:
		if kw.IsFloat() {
			break
		}
		return form(string(kw)+".eqz", x), nil
	case ir.OpBitNot:
		if kw.IsFloat() {
			break
		}
		return form(string(kw)+".xor", x, intConst(kw, -1)), nil
	}
	return fe.untranslatable(e, "operator "+d.Op.String()+" on "+string(kw)+" is not supported"), nil
}

// increment lowers ++/--. In value position a postfix update yields the
// stored value minus the step.
func (fe *funcEmitter) increment(d *ir.UnaryData, wantValue bool) (string, error) {
	target := d.Operand
	kw, ok := fe.e.valueKeyword(target.Type)
	if !ok {
		return fe.untranslatable(target, "increment of "+fe.e.types.String(target.Type)), nil
	}
	one := intConst(kw, 1)
	if kw.IsFloat() {
		one = constForm(kw, "1")
	}
	step, undo := ".add", ".sub"
	if d.Op == ir.OpPreDec || d.Op == ir.OpPostDec {
		step, undo = undo, step
	}
	cur, err := fe.expr(target)
	if err != nil {
		return "", err
	}
	next := fe.narrow(form(string(kw)+step, cur, one), target.Type, target.Type, true)
	stored, err := fe.store(target, next)
	if err != nil {
		return "", err
	}
	if wantValue && (d.Op == ir.OpPostInc || d.Op == ir.OpPostDec) {
		return form(string(kw)+undo, stored, one), nil
	}
	return stored, nil
}

// store assigns value to target: locals by set_local, static fields by a
// store to their slot, properties by calling the setter.
func (fe *funcEmitter) store(target *ir.Expr, value string) (string, error) {
	switch d := target.Data.(type) {
	case *ir.VariableData:
		if !fe.topLevel() {
			if _, ok := fe.locals[d.Name]; !ok {
				return fe.untranslatable(target, "variable "+d.Name+" is not declared"), nil
			}
		}
		return form("set_local", localName(d.Name), value), nil
	case *ir.FieldData:
		return fe.fieldStore(target, d, value), nil
	case *ir.PropertyData:
		return fe.propertySet(target, d, value)
	}
	return "", diag.Errorf(diag.EmiInvalidAssignTarget, target.Span, "cannot assign to %s", target.Kind)
}
