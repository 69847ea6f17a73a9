package harness

import (
	"math"
	"strconv"

	"ilwasm/internal/types"
)

// Value is a typed wasm value. Integers keep their bits in the low end;
// floats store their IEEE bits. The zero Value is "no value".
type Value struct {
	Type types.Keyword
	Bits uint64
}

func I32(v int32) Value { return Value{Type: types.KeywordI32, Bits: uint64(uint32(v))} }
func I64(v int64) Value { return Value{Type: types.KeywordI64, Bits: uint64(v)} }
func F32(v float32) Value { return Value{Type: types.KeywordF32, Bits: uint64(math.Float32bits(v))} }
func F64(v float64) Value { return Value{Type: types.KeywordF64, Bits: math.Float64bits(v)} }

func u32(v uint32) Value { return Value{Type: types.KeywordI32, Bits: uint64(v)} }

func boolValue(b bool) Value {
	if b {
		return I32(1)
	}
	return I32(0)
}

// IsVoid reports whether v carries no value.
func (v Value) IsVoid() bool { return v.Type == "" }

func (v Value) i32() int32 { return int32(uint32(v.Bits)) }
func (v Value) u32() uint32 { return uint32(v.Bits) }
func (v Value) i64() int64 { return int64(v.Bits) }
func (v Value) f32() float32 { return math.Float32frombits(uint32(v.Bits)) }
func (v Value) f64() float64 { return math.Float64frombits(v.Bits) }
func (v Value) truthy() bool { return v.Bits != 0 }

// String renders the value the way directives print results.
func (v Value) String() string {
	switch v.Type {
	case types.KeywordI32:
		return strconv.FormatInt(int64(v.i32()), 10)
	case types.KeywordI64:
		return strconv.FormatInt(v.i64(), 10)
	case types.KeywordF32:
		return formatFloat(float64(v.f32()), 32)
	case types.KeywordF64:
		return formatFloat(v.f64(), 64)
	}
	return ""
}

func formatFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "infinity"
	case math.IsInf(f, -1):
		return "-infinity"
	}
	if a := math.Abs(f); a == 0 || (a >= 1e-5 && a < 1e21) {
		return strconv.FormatFloat(f, 'f', -1, bits)
	}
	return strconv.FormatFloat(f, 'g', -1, bits)
}

// parseConst reads the operand of kw.const.
func parseConst(kw types.Keyword, text string) (Value, error) {
	switch kw {
	case types.KeywordI32:
		n, err := strconv.ParseInt(text, 0, 64)
		if err != nil || n < math.MinInt32 || n > math.MaxUint32 {
			return Value{}, trapf(TrapBadOperand, "bad i32 constant %q", text)
		}
		return u32(uint32(n)), nil
	case types.KeywordI64:
		n, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			u, uerr := strconv.ParseUint(text, 0, 64)
			if uerr != nil {
				return Value{}, trapf(TrapBadOperand, "bad i64 constant %q", text)
			}
			return Value{Type: types.KeywordI64, Bits: u}, nil
		}
		return I64(n), nil
	case types.KeywordF32, types.KeywordF64:
		f, err := parseFloat(text)
		if err != nil {
			return Value{}, trapf(TrapBadOperand, "bad %s constant %q", kw, text)
		}
		if kw == types.KeywordF32 {
			return F32(float32(f)), nil
		}
		return F64(f), nil
	}
	return Value{}, trapf(TrapBadOperand, "constant of unknown type %q", kw)
}

func parseFloat(text string) (float64, error) {
	switch text {
	case "nan":
		return math.NaN(), nil
	case "infinity":
		return math.Inf(1), nil
	case "-infinity":
		return math.Inf(-1), nil
	}
	return strconv.ParseFloat(text, 64)
}
