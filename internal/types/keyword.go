package types

// Keyword is a wasm value type keyword.
type Keyword string

const (
	KeywordVoid Keyword = "void"
	KeywordI32  Keyword = "i32"
	KeywordI64  Keyword = "i64"
	KeywordF32  Keyword = "f32"
	KeywordF64  Keyword = "f64"
)

// IsVoid reports whether k denotes the absence of a value.
func (k Keyword) IsVoid() bool {
	return k == KeywordVoid
}

// IsFloat reports whether k is f32 or f64.
func (k Keyword) IsFloat() bool {
	return k == KeywordF32 || k == KeywordF64
}

// Keyword maps a managed type to its wasm keyword. The second result is false
// for types with no wasm representation (structs by value, arrays, generics,
// reference types other than string); callers skip or report those.
func (in *Interner) Keyword(id TypeID) (Keyword, bool) {
	t, ok := in.Lookup(id)
	if !ok {
		return "", false
	}
	switch t.Kind {
	case KindVoid:
		return KeywordVoid, true
	case KindBool, KindChar, KindPointer, KindDelegate, KindString:
		return KeywordI32, true
	case KindInt, KindUint:
		if t.Width == Width64 {
			return KeywordI64, true
		}
		return KeywordI32, true
	case KindFloat:
		if t.Width == Width32 {
			return KeywordF32, true
		}
		return KeywordF64, true
	default:
		return "", false
	}
}

// MemorySuffix returns the width/sign suffix for a load or store of id:
// 8-bit types load as "8_u"/"8_s" and store as "8", 16-bit types likewise,
// everything else uses the natural width and gets no suffix.
func (in *Interner) MemorySuffix(id TypeID, store bool) string {
	t, ok := in.Lookup(id)
	if !ok {
		return ""
	}
	var width Width
	switch t.Kind {
	case KindBool:
		width = Width8
	case KindChar:
		width = Width16
	case KindInt, KindUint:
		width = t.Width
	default:
		return ""
	}
	var base string
	switch width {
	case Width8:
		base = "8"
	case Width16:
		base = "16"
	default:
		return ""
	}
	if store {
		return base
	}
	if t.Kind == KindInt {
		return base + "_s"
	}
	return base + "_u"
}

// IsIntegral reports whether id is an integer, char or bool type.
func (in *Interner) IsIntegral(id TypeID) bool {
	t, ok := in.Lookup(id)
	if !ok {
		return false
	}
	switch t.Kind {
	case KindInt, KindUint, KindChar, KindBool:
		return true
	}
	return false
}

// IsSigned reports whether comparisons on id use the signed instruction form.
func (in *Interner) IsSigned(id TypeID) bool {
	t, ok := in.Lookup(id)
	return ok && t.Kind == KindInt
}

// IsFloat reports whether id is a floating-point type.
func (in *Interner) IsFloat(id TypeID) bool {
	t, ok := in.Lookup(id)
	return ok && t.Kind == KindFloat
}

// IsString reports whether id is the string type.
func (in *Interner) IsString(id TypeID) bool {
	t, ok := in.Lookup(id)
	return ok && t.Kind == KindString
}

// IsVoid reports whether id is void.
func (in *Interner) IsVoid(id TypeID) bool {
	t, ok := in.Lookup(id)
	return ok && t.Kind == KindVoid
}

// WidthOf returns the bit width of a numeric or char type, 0 otherwise.
func (in *Interner) WidthOf(id TypeID) Width {
	t, ok := in.Lookup(id)
	if !ok {
		return 0
	}
	switch t.Kind {
	case KindInt, KindUint, KindFloat:
		return t.Width
	case KindChar:
		return Width16
	case KindBool:
		return Width8
	}
	return 0
}
