package types

import (
	"fmt"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for the primitive types every program can use.
type Builtins struct {
	Invalid  TypeID
	Void     TypeID
	Bool     TypeID
	Char     TypeID
	Int8     TypeID
	Uint8    TypeID
	Int16    TypeID
	Uint16   TypeID
	Int32    TypeID
	Uint32   TypeID
	Int64    TypeID
	Uint64   TypeID
	Float32  TypeID
	Float64  TypeID
	String   TypeID
	Delegate TypeID
	Object   TypeID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
type Interner struct {
	types    []Type
	index    map[Type]TypeID
	builtins Builtins
	nominals []NominalInfo
}

// NewInterner constructs an interner seeded with built-in primitives.
func NewInterner() *Interner {
	in := &Interner{
		index: make(map[Type]TypeID, 64),
	}
	in.nominals = append(in.nominals, NominalInfo{}) // reserve 0 as invalid sentinel
	in.builtins.Invalid = in.internRaw(Type{Kind: KindInvalid})
	in.builtins.Void = in.Intern(Type{Kind: KindVoid})
	in.builtins.Bool = in.Intern(Type{Kind: KindBool})
	in.builtins.Char = in.Intern(Type{Kind: KindChar})
	in.builtins.Int8 = in.Intern(MakeInt(Width8))
	in.builtins.Uint8 = in.Intern(MakeUint(Width8))
	in.builtins.Int16 = in.Intern(MakeInt(Width16))
	in.builtins.Uint16 = in.Intern(MakeUint(Width16))
	in.builtins.Int32 = in.Intern(MakeInt(Width32))
	in.builtins.Uint32 = in.Intern(MakeUint(Width32))
	in.builtins.Int64 = in.Intern(MakeInt(Width64))
	in.builtins.Uint64 = in.Intern(MakeUint(Width64))
	in.builtins.Float32 = in.Intern(MakeFloat(Width32))
	in.builtins.Float64 = in.Intern(MakeFloat(Width64))
	in.builtins.String = in.Intern(Type{Kind: KindString})
	in.builtins.Delegate = in.Intern(Type{Kind: KindDelegate})
	in.builtins.Object = in.RegisterObject("System.Object")
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	if id, ok := in.index[t]; ok {
		return id
	}
	return in.internRaw(t)
}

func (in *Interner) internRaw(t Type) TypeID {
	n, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(n)
	in.types = append(in.types, t)
	in.index[t] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if in == nil || id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// Len returns the number of interned descriptors, the invalid sentinel included.
func (in *Interner) Len() int {
	return len(in.types)
}

// Descriptors returns a copy of the descriptor table in TypeID order.
func (in *Interner) Descriptors() []Type {
	out := make([]Type, len(in.types))
	copy(out, in.types)
	return out
}

// Nominals returns a copy of the nominal table in slot order.
func (in *Interner) Nominals() []NominalInfo {
	out := make([]NominalInfo, len(in.nominals))
	for i, info := range in.nominals {
		info.Fields = append([]StructField(nil), info.Fields...)
		out[i] = info
	}
	return out
}

// Restore rebuilds an interner from tables produced by Descriptors and
// Nominals. TypeIDs are preserved so IR nodes keep pointing at the same types.
func Restore(descs []Type, nominals []NominalInfo) (*Interner, error) {
	if len(descs) == 0 || descs[0].Kind != KindInvalid {
		return nil, fmt.Errorf("type table must start with the invalid sentinel")
	}
	in := &Interner{
		index:    make(map[Type]TypeID, len(descs)),
		types:    make([]Type, 0, len(descs)),
		nominals: append([]NominalInfo(nil), nominals...),
	}
	if len(in.nominals) == 0 {
		in.nominals = append(in.nominals, NominalInfo{})
	}
	for i, t := range descs {
		if t.Payload != 0 && int(t.Payload) >= len(in.nominals) {
			return nil, fmt.Errorf("type #%d refers to missing nominal slot %d", i, t.Payload)
		}
		in.internRaw(t)
	}
	ref := NewInterner()
	in.builtins = ref.builtins
	for _, id := range []TypeID{in.builtins.Int32, in.builtins.String, in.builtins.Object} {
		if int(id) >= len(in.types) || in.types[id] != ref.types[id] {
			return nil, fmt.Errorf("type table does not start with the builtin types")
		}
	}
	return in, nil
}

// String renders a type for diagnostics and IR dumps.
func (in *Interner) String(id TypeID) string {
	t, ok := in.Lookup(id)
	if !ok {
		return "<none>"
	}
	switch t.Kind {
	case KindInt:
		return fmt.Sprintf("int%d", t.Width)
	case KindUint:
		return fmt.Sprintf("uint%d", t.Width)
	case KindFloat:
		return fmt.Sprintf("float%d", t.Width)
	case KindPointer:
		return in.String(t.Elem) + "*"
	case KindArray:
		return in.String(t.Elem) + "[]"
	case KindStruct, KindObject, KindGeneric:
		if info := in.nominal(t.Payload); info != nil {
			return info.Name
		}
		return t.Kind.String()
	default:
		return t.Kind.String()
	}
}
