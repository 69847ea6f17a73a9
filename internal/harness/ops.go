package harness

import (
	"math"
	"math/bits"

	"ilwasm/internal/types"
)

// splitOp splits "i32.add" into its keyword and operation.
func splitOp(name string) (types.Keyword, string, bool) {
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			return types.Keyword(name[:i]), name[i+1:], true
		}
	}
	return "", "", false
}

func isValueKeyword(kw types.Keyword) bool {
	switch kw {
	case types.KeywordI32, types.KeywordI64, types.KeywordF32, types.KeywordF64:
		return true
	}
	return false
}

func binaryOp(kw types.Keyword, op string, a, b Value) (Value, bool, error) {
	switch kw {
	case types.KeywordI32:
		return binary32(op, a.u32(), b.u32())
	case types.KeywordI64:
		return binary64(op, a.Bits, b.Bits)
	case types.KeywordF32:
		v, ok := binaryFloat(op, float64(a.f32()), float64(b.f32()))
		if ok && v.Type == types.KeywordF64 {
			v = F32(float32(v.f64()))
		}
		return v, ok, nil
	case types.KeywordF64:
		v, ok := binaryFloat(op, a.f64(), b.f64())
		return v, ok, nil
	}
	return Value{}, false, nil
}

func binary32(op string, x, y uint32) (Value, bool, error) {
	sx, sy := int32(x), int32(y)
	switch op {
	case "add":
		return u32(x + y), true, nil
	case "sub":
		return u32(x - y), true, nil
	case "mul":
		return u32(x * y), true, nil
	case "div_s":
		if y == 0 {
			return Value{}, true, trapf(TrapDivideByZero, "i32.div_s by zero")
		}
		if sx == math.MinInt32 && sy == -1 {
			return Value{}, true, trapf(TrapOverflow, "i32.div_s overflow")
		}
		return I32(sx / sy), true, nil
	case "div_u":
		if y == 0 {
			return Value{}, true, trapf(TrapDivideByZero, "i32.div_u by zero")
		}
		return u32(x / y), true, nil
	case "rem_s":
		if y == 0 {
			return Value{}, true, trapf(TrapDivideByZero, "i32.rem_s by zero")
		}
		if sy == -1 {
			return I32(0), true, nil
		}
		return I32(sx % sy), true, nil
	case "rem_u":
		if y == 0 {
			return Value{}, true, trapf(TrapDivideByZero, "i32.rem_u by zero")
		}
		return u32(x % y), true, nil
	case "and":
		return u32(x & y), true, nil
	case "or":
		return u32(x | y), true, nil
	case "xor":
		return u32(x ^ y), true, nil
	case "shl":
		return u32(x << (y & 31)), true, nil
	case "shr_s":
		return I32(sx >> (y & 31)), true, nil
	case "shr_u":
		return u32(x >> (y & 31)), true, nil
	case "eq":
		return boolValue(x == y), true, nil
	case "ne":
		return boolValue(x != y), true, nil
	case "lt_s":
		return boolValue(sx < sy), true, nil
	case "lt_u":
		return boolValue(x < y), true, nil
	case "le_s":
		return boolValue(sx <= sy), true, nil
	case "le_u":
		return boolValue(x <= y), true, nil
	case "gt_s":
		return boolValue(sx > sy), true, nil
	case "gt_u":
		return boolValue(x > y), true, nil
	case "ge_s":
		return boolValue(sx >= sy), true, nil
	case "ge_u":
		return boolValue(x >= y), true, nil
	}
	return Value{}, false, nil
}

func binary64(op string, x, y uint64) (Value, bool, error) {
	sx, sy := int64(x), int64(y)
	w := func(v uint64) Value { return Value{Type: types.KeywordI64, Bits: v} }
	switch op {
	case "add":
		return w(x + y), true, nil
	case "sub":
		return w(x - y), true, nil
	case "mul":
		return w(x * y), true, nil
	case "div_s":
		if y == 0 {
			return Value{}, true, trapf(TrapDivideByZero, "i64.div_s by zero")
		}
		if sx == math.MinInt64 && sy == -1 {
			return Value{}, true, trapf(TrapOverflow, "i64.div_s overflow")
		}
		return I64(sx / sy), true, nil
	case "div_u":
		if y == 0 {
			return Value{}, true, trapf(TrapDivideByZero, "i64.div_u by zero")
		}
		return w(x / y), true, nil
	case "rem_s":
		if y == 0 {
			return Value{}, true, trapf(TrapDivideByZero, "i64.rem_s by zero")
		}
		if sy == -1 {
			return I64(0), true, nil
		}
		return I64(sx % sy), true, nil
	case "rem_u":
		if y == 0 {
			return Value{}, true, trapf(TrapDivideByZero, "i64.rem_u by zero")
		}
		return w(x % y), true, nil
	case "and":
		return w(x & y), true, nil
	case "or":
		return w(x | y), true, nil
	case "xor":
		return w(x ^ y), true, nil
	case "shl":
		return w(x << (y & 63)), true, nil
	case "shr_s":
		return I64(sx >> (y & 63)), true, nil
	case "shr_u":
		return w(x >> (y & 63)), true, nil
	case "eq":
		return boolValue(x == y), true, nil
	case "ne":
		return boolValue(x != y), true, nil
	case "lt_s":
		return boolValue(sx < sy), true, nil
	case "lt_u":
		return boolValue(x < y), true, nil
	case "le_s":
		return boolValue(sx <= sy), true, nil
	case "le_u":
		return boolValue(x <= y), true, nil
	case "gt_s":
		return boolValue(sx > sy), true, nil
	case "gt_u":
		return boolValue(x > y), true, nil
	case "ge_s":
		return boolValue(sx >= sy), true, nil
	case "ge_u":
		return boolValue(x >= y), true, nil
	}
	return Value{}, false, nil
}

// binaryFloat computes in float64; comparisons yield i32.
func binaryFloat(op string, x, y float64) (Value, bool) {
	switch op {
	case "add":
		return F64(x + y), true
	case "sub":
		return F64(x - y), true
	case "mul":
		return F64(x * y), true
	case "div":
		return F64(x / y), true
	case "min":
		return F64(math.Min(x, y)), true
	case "max":
		return F64(math.Max(x, y)), true
	case "eq":
		return boolValue(x == y), true
	case "ne":
		return boolValue(x != y), true
	case "lt":
		return boolValue(x < y), true
	case "le":
		return boolValue(x <= y), true
	case "gt":
		return boolValue(x > y), true
	case "ge":
		return boolValue(x >= y), true
	}
	return Value{}, false
}

func unary(kw types.Keyword, op string, a Value) (Value, bool, error) {
	switch kw {
	case types.KeywordI32:
		switch op {
		case "eqz":
			return boolValue(a.u32() == 0), true, nil
		case "clz":
			return u32(uint32(bits.LeadingZeros32(a.u32()))), true, nil
		case "ctz":
			return u32(uint32(bits.TrailingZeros32(a.u32()))), true, nil
		case "popcnt":
			return u32(uint32(bits.OnesCount32(a.u32()))), true, nil
		}
	case types.KeywordI64:
		switch op {
		case "eqz":
			return boolValue(a.Bits == 0), true, nil
		case "clz":
			return I64(int64(bits.LeadingZeros64(a.Bits))), true, nil
		case "ctz":
			return I64(int64(bits.TrailingZeros64(a.Bits))), true, nil
		case "popcnt":
			return I64(int64(bits.OnesCount64(a.Bits))), true, nil
		}
	case types.KeywordF32, types.KeywordF64:
		var f float64
		if kw == types.KeywordF32 {
			f = float64(a.f32())
		} else {
			f = a.f64()
		}
		r, ok := unaryFloat(op, f)
		if !ok {
			break
		}
		if kw == types.KeywordF32 {
			return F32(float32(r)), true, nil
		}
		return F64(r), true, nil
	}
	if v, ok, err := convert(kw, op, a); ok {
		return v, true, err
	}
	return Value{}, false, nil
}

func unaryFloat(op string, f float64) (float64, bool) {
	switch op {
	case "neg":
		return -f, true
	case "abs":
		return math.Abs(f), true
	case "sqrt":
		return math.Sqrt(f), true
	case "floor":
		return math.Floor(f), true
	case "ceil":
		return math.Ceil(f), true
	case "trunc":
		return math.Trunc(f), true
	case "nearest":
		return math.RoundToEven(f), true
	}
	return 0, false
}

// convert handles "extend_s/i32", "wrap/i64", "convert_u/i64",
// "trunc_s/f64", "promote/f32" and "demote/f64".
func convert(kw types.Keyword, op string, a Value) (Value, bool, error) {
	switch op {
	case "extend_s/i32":
		return I64(int64(a.i32())), true, nil
	case "extend_u/i32":
		return I64(int64(a.u32())), true, nil
	case "wrap/i64":
		return u32(uint32(a.Bits)), true, nil
	case "promote/f32":
		return F64(float64(a.f32())), true, nil
	case "demote/f64":
		return F32(float32(a.f64())), true, nil
	case "convert_s/i32", "convert_u/i32", "convert_s/i64", "convert_u/i64":
		var f float64
		switch op {
		case "convert_s/i32":
			f = float64(a.i32())
		case "convert_u/i32":
			f = float64(a.u32())
		case "convert_s/i64":
			f = float64(a.i64())
		default:
			f = float64(a.Bits)
		}
		if kw == types.KeywordF32 {
			return F32(float32(f)), true, nil
		}
		return F64(f), true, nil
	case "trunc_s/f32", "trunc_u/f32", "trunc_s/f64", "trunc_u/f64":
		f := a.f64()
		if op[len(op)-3:] == "f32" {
			f = float64(a.f32())
		}
		v, err := truncate(kw, op[:7] == "trunc_s", f)
		return v, true, err
	}
	return Value{}, false, nil
}

func truncate(kw types.Keyword, signed bool, f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, trapf(TrapOverflow, "invalid conversion of %v to integer", f)
	}
	t := math.Trunc(f)
	switch {
	case kw == types.KeywordI32 && signed:
		if t < math.MinInt32 || t > math.MaxInt32 {
			return Value{}, trapf(TrapOverflow, "%v out of i32 range", f)
		}
		return I32(int32(t)), nil
	case kw == types.KeywordI32:
		if t < 0 || t > math.MaxUint32 {
			return Value{}, trapf(TrapOverflow, "%v out of u32 range", f)
		}
		return u32(uint32(t)), nil
	case signed:
		if t < math.MinInt64 || t >= math.MaxInt64 {
			return Value{}, trapf(TrapOverflow, "%v out of i64 range", f)
		}
		return I64(int64(t)), nil
	default:
		if t < 0 || t >= math.MaxUint64 {
			return Value{}, trapf(TrapOverflow, "%v out of u64 range", f)
		}
		return Value{Type: types.KeywordI64, Bits: uint64(t)}, nil
	}
}
