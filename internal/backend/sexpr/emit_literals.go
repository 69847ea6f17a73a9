package sexpr

import (
	"math"
	"strconv"

	"ilwasm/internal/diag"
	"ilwasm/internal/ir"
	"ilwasm/internal/types"
)

func itoa(n int64) string   { return strconv.FormatInt(n, 10) }
func uitoa(n uint32) string { return strconv.FormatUint(uint64(n), 10) }

func constForm(kw types.Keyword, value string) string {
	return "(" + string(kw) + ".const " + value + ")"
}

func intConst(kw types.Keyword, n int64) string {
	return constForm(kw, itoa(n))
}

// formatFloat prints the shortest text that parses back to v.
func formatFloat(v float64, bits int) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "infinity"
	case math.IsInf(v, -1):
		return "-infinity"
	}
	return strconv.FormatFloat(v, 'g', -1, bits)
}

func (fe *funcEmitter) literal(e *ir.Expr, d *ir.LiteralData) (string, error) {
	switch d.Kind {
	case ir.LiteralString:
		return fe.stringRef(e, d.StringValue)
	case ir.LiteralNull, ir.LiteralDefault:
		if fe.e.types.IsString(e.Type) {
			return fe.stringRef(e, "")
		}
		kw, ok := fe.e.valueKeyword(e.Type)
		if !ok {
			kw = types.KeywordI32
		}
		if kw.IsFloat() {
			return constForm(kw, "0"), nil
		}
		return intConst(kw, 0), nil
	case ir.LiteralBool:
		if d.BoolValue {
			return intConst(types.KeywordI32, 1), nil
		}
		return intConst(types.KeywordI32, 0), nil
	case ir.LiteralChar:
		return intConst(types.KeywordI32, d.IntValue), nil
	case ir.LiteralFloat:
		kw, ok := fe.e.valueKeyword(e.Type)
		if !ok || !kw.IsFloat() {
			kw = types.KeywordF64
		}
		bits := 64
		if kw == types.KeywordF32 {
			bits = 32
		}
		return constForm(kw, formatFloat(d.FloatValue, bits)), nil
	case ir.LiteralInt:
		kw, ok := fe.e.valueKeyword(e.Type)
		if !ok {
			kw = types.KeywordI32
		}
		if kw.IsFloat() {
			return constForm(kw, formatFloat(float64(d.IntValue), 64)), nil
		}
		return intConst(kw, d.IntValue), nil
	}
	return fe.untranslatable(e, "unknown literal kind"), nil
}

// stringRef refers to a string by the address of its first character.
func (fe *funcEmitter) stringRef(e *ir.Expr, content string) (string, error) {
	entry, ok := fe.e.arena.LookupString(content)
	if !ok {
		return "", diag.Errorf(diag.EmiMissingTableEntry, e.Span, "string %q has no table entry", content)
	}
	return form("call", stringFirstName(entry.Offset)), nil
}
