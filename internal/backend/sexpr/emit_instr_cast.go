package sexpr

import (
	"ilwasm/internal/ir"
	"ilwasm/internal/types"
)

func (fe *funcEmitter) signSuffix(t types.TypeID) string {
	if fe.e.types.IsSigned(t) {
		return "s"
	}
	return "u"
}

func (fe *funcEmitter) cast(e *ir.Expr, d *ir.CastData) (string, error) {
	from, to := d.Operand.Type, e.Type
	x, err := fe.expr(d.Operand)
	if err != nil {
		return "", err
	}
	if from == to {
		return x, nil
	}
	fk, ok1 := fe.e.valueKeyword(from)
	tk, ok2 := fe.e.valueKeyword(to)
	if !ok1 || !ok2 {
		return fe.untranslatable(e, "cast from "+fe.e.types.String(from)+" to "+fe.e.types.String(to)), nil
	}
	out := x
	switch {
	case fk == tk:
	case fk == types.KeywordI32 && tk == types.KeywordI64:
		out = form("i64.extend_"+fe.signSuffix(from)+"/i32", x)
	case fk == types.KeywordI64 && tk == types.KeywordI32:
		out = form("i32.wrap/i64", x)
	case !fk.IsFloat() && tk.IsFloat():
		out = form(string(tk)+".convert_"+fe.signSuffix(from)+"/"+string(fk), x)
	case fk.IsFloat() && !tk.IsFloat():
		out = form(string(tk)+".trunc_"+fe.signSuffix(to)+"/"+string(fk), x)
	case fk == types.KeywordF32 && tk == types.KeywordF64:
		out = form("f64.promote/f32", x)
	case fk == types.KeywordF64 && tk == types.KeywordF32:
		out = form("f32.demote/f64", x)
	}
	if tk == types.KeywordI32 {
		out = fe.narrow(out, from, to, false)
	}
	return out, nil
}

// narrow truncates an i32 value to the 8 or 16 bits of to: masking for
// unsigned targets, a shift pair for signed ones. Conversions that cannot
// change the value are left alone unless wrapped says the value may have
// overflowed the width.
func (fe *funcEmitter) narrow(x string, from, to types.TypeID, wrapped bool) string {
	in := fe.e.types
	tw := in.WidthOf(to)
	if tw == 0 || tw >= types.Width32 || in.IsFloat(to) {
		return x
	}
	ts := in.IsSigned(to)
	if !wrapped && in.IsIntegral(from) {
		fw := in.WidthOf(from)
		fs := in.IsSigned(from)
		if fw < tw && (!fs || ts) {
			return x
		}
		if fw == tw && fs == ts {
			return x
		}
	}
	if ts {
		shift := intConst(types.KeywordI32, int64(32-int(tw)))
		return form("i32.shr_s", form("i32.shl", x, shift), shift)
	}
	mask := int64(1)<<uint(tw) - 1
	return form("i32.and", x, intConst(types.KeywordI32, mask))
}
