package intrinsic

import (
	"ilwasm/internal/diag"
	"ilwasm/internal/ir"
	"ilwasm/internal/types"
)

func exportName(e *ir.Expr) (string, error) {
	name, ok := e.StringConstant()
	if !ok {
		return "", diag.Errorf(diag.RwNonLiteralExportName, e.Span, "export name must be a string literal")
	}
	return name, nil
}

// unpackArgs returns the elements of a params array. An array without an
// initializer list is only accepted when it is empty.
func (rw *rewriter) unpackArgs(e *ir.Expr) ([]*ir.Expr, error) {
	arr, ok := e.Data.(*ir.ArrayInitData)
	if !ok {
		return nil, diag.Errorf(diag.RwNonLiteralArgArray, e.Span, "argument list must be an array creation expression")
	}
	if !arr.HasInit {
		if n, ok := arr.Size.IntConstant(); ok && n == 0 {
			return nil, nil
		}
		return nil, diag.Errorf(diag.RwNonLiteralArgArray, e.Span, "argument array has no initializer")
	}
	out := make([]*ir.Expr, len(arr.Elements))
	for i, el := range arr.Elements {
		out[i] = rw.unbox(el)
	}
	return out, nil
}

// unbox strips conversions to object that the front end inserts around
// params arguments.
func (rw *rewriter) unbox(e *ir.Expr) *ir.Expr {
	for e != nil && e.Type == rw.builtins.Object {
		c, ok := e.Data.(*ir.CastData)
		if !ok || c.Operand == nil {
			return e
		}
		e = c.Operand
	}
	return e
}

func (rw *rewriter) intLit(v int64, at *ir.Expr) *ir.Expr {
	return &ir.Expr{
		Kind: ir.ExprLiteral,
		Type: rw.builtins.Int32,
		Span: at.Span,
		Data: &ir.LiteralData{Kind: ir.LiteralInt, IntValue: v},
	}
}

// add builds a+b, folded when both sides are integer literals.
func (rw *rewriter) add(a, b *ir.Expr) *ir.Expr {
	if x, ok := a.IntConstant(); ok {
		if y, ok := b.IntConstant(); ok {
			return rw.intLit(int64(int32(x+y)), a)
		}
	}
	return rw.binary(ir.OpAdd, a, b)
}

// mul builds a*b, folded when both sides are integer literals.
func (rw *rewriter) mul(a, b *ir.Expr) *ir.Expr {
	if x, ok := a.IntConstant(); ok {
		if y, ok := b.IntConstant(); ok {
			return rw.intLit(int64(int32(x*y)), a)
		}
	}
	return rw.binary(ir.OpMul, a, b)
}

func (rw *rewriter) binary(op ir.BinaryOp, a, b *ir.Expr) *ir.Expr {
	return &ir.Expr{
		Kind: ir.ExprBinary,
		Type: rw.addressType(a),
		Span: a.Span,
		Data: &ir.BinaryData{Op: op, Left: a, Right: b},
	}
}

// addressType keeps address arithmetic in i32 even when an operand is a
// narrower integer or a string.
func (rw *rewriter) addressType(a *ir.Expr) types.TypeID {
	if rw.prog.Types.IsIntegral(a.Type) && rw.prog.Types.WidthOf(a.Type) == types.Width32 {
		return a.Type
	}
	return rw.builtins.Int32
}
