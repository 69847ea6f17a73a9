package ir

import "ilwasm/internal/types"

// Well-known declaring types of the wasm support library.
const (
	TypeHeap    = "Wasm.Heap"
	TypeHeapU8  = "Wasm.HeapU8"
	TypeHeapI32 = "Wasm.HeapI32"
	TypeTest    = "Wasm.Test"
	TypeMath    = "System.Math"
	TypeString  = "System.String"
)

func (b *Builder) heapView(name string) *Expr {
	t := b.Types().NominalID(name)
	if t == types.NoTypeID {
		t = b.Types().RegisterObject(name)
	}
	return &Expr{Kind: ExprField, Type: t, Data: &FieldData{
		Field:  MemberRef{Type: TypeHeap, Name: name[len("Wasm.Heap"):]},
		Static: true,
	}}
}

// HeapGet reads Heap.U8[idx...] or Heap.I32[idx...] (one or two indices).
func (b *Builder) HeapGet(view string, idx ...*Expr) *Expr {
	result := b.T.Int32
	if view == TypeHeapU8 {
		result = b.T.Uint8
	}
	params := make([]types.TypeID, len(idx))
	for i := range params {
		params[i] = b.T.Int32
	}
	return b.MethodSig(MemberRef{Type: view, Name: "get_Item"}, result, params, b.heapView(view), idx...)
}

// HeapSet writes Heap.U8[idx...] = value or Heap.I32[idx...] = value.
func (b *Builder) HeapSet(view string, value *Expr, idx ...*Expr) *Expr {
	elem := b.T.Int32
	if view == TypeHeapU8 {
		elem = b.T.Uint8
	}
	params := make([]types.TypeID, 0, len(idx)+1)
	for range idx {
		params = append(params, b.T.Int32)
	}
	params = append(params, elem)
	args := append(append([]*Expr(nil), idx...), value)
	return b.MethodSig(MemberRef{Type: view, Name: "set_Item"}, b.T.Void, params, b.heapView(view), args...)
}

// SetHeapSize declares the heap size of the calling type.
func (b *Builder) SetHeapSize(size *Expr) *Expr {
	return b.CallSig(MemberRef{Type: TypeHeap, Name: "SetHeapSize"}, b.T.Void, []types.TypeID{b.T.Int32}, size)
}

func (b *Builder) testArgs(args []*Expr) *Expr {
	return b.ArrayOf(b.T.Object, args...)
}

// Invoke calls an export from the harness.
func (b *Builder) Invoke(export string, args ...*Expr) *Expr {
	return b.CallSig(MemberRef{Type: TypeTest, Name: "Invoke"}, b.T.Void,
		[]types.TypeID{b.T.String, b.objectArray()}, b.Str(export), b.testArgs(args))
}

// AssertEq checks an export's result (legacy directive).
func (b *Builder) AssertEq(expected *Expr, export string, args ...*Expr) *Expr {
	return b.CallSig(MemberRef{Type: TypeTest, Name: "AssertEq"}, b.T.Void,
		[]types.TypeID{b.T.Object, b.T.String, b.objectArray()}, expected, b.Str(export), b.testArgs(args))
}

// AssertReturn checks an export's result.
func (b *Builder) AssertReturn(expected *Expr, export string, args ...*Expr) *Expr {
	return b.CallSig(MemberRef{Type: TypeTest, Name: "AssertReturn"}, b.T.Void,
		[]types.TypeID{b.T.Object, b.T.String, b.objectArray()}, expected, b.Str(export), b.testArgs(args))
}

// AssertHeapEq checks heap bytes starting at offset.
func (b *Builder) AssertHeapEq(offset int64, expected string) *Expr {
	return b.CallSig(MemberRef{Type: TypeTest, Name: "AssertHeapEq"}, b.T.Void,
		[]types.TypeID{b.T.Int32, b.T.String}, b.I32(offset), b.Str(expected))
}

// SetStdout opens the harness output file.
func (b *Builder) SetStdout(name *Expr) *Expr {
	return b.CallSig(MemberRef{Type: TypeTest, Name: "SetStdout"}, b.T.Void, []types.TypeID{b.T.String}, name)
}

// Write copies count heap bytes at offset to the harness output file.
func (b *Builder) Write(offset, count *Expr) *Expr {
	return b.CallSig(MemberRef{Type: TypeTest, Name: "Write"}, b.T.Void, []types.TypeID{b.T.Int32, b.T.Int32}, offset, count)
}

// Printf is a host-side trace call.
func (b *Builder) Printf(format string, args ...*Expr) *Expr {
	return b.CallSig(MemberRef{Type: TypeTest, Name: "Printf"}, b.T.Void,
		[]types.TypeID{b.T.String, b.objectArray()}, b.Str(format), b.testArgs(args))
}

// MathCall calls a System.Math function over doubles.
func (b *Builder) MathCall(name string, args ...*Expr) *Expr {
	params := make([]types.TypeID, len(args))
	for i := range params {
		params[i] = b.T.Float64
	}
	return b.CallSig(MemberRef{Type: TypeMath, Name: name}, b.T.Float64, params, args...)
}

// StrLen reads s.Length.
func (b *Builder) StrLen(s *Expr) *Expr {
	return b.MethodSig(MemberRef{Type: TypeString, Name: "get_Length"}, b.T.Int32, nil, s)
}

// StrChar reads s[i].
func (b *Builder) StrChar(s, i *Expr) *Expr {
	return b.MethodSig(MemberRef{Type: TypeString, Name: "get_Chars"}, b.T.Char, []types.TypeID{b.T.Int32}, s, i)
}

func (b *Builder) objectArray() types.TypeID {
	return b.Types().Intern(types.MakeArray(b.T.Object))
}
