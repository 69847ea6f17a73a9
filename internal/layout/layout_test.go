package layout

import (
	"bytes"
	"errors"
	"testing"

	"ilwasm/internal/diag"
	"ilwasm/internal/ir"
	"ilwasm/internal/types"
)

func newArena(heap uint32) (*Arena, *types.Interner) {
	in := types.NewInterner()
	return NewArena(New(Wasm32(), in), heap), in
}

func TestReserveRoundsToSlots(t *testing.T) {
	a, _ := newArena(100)
	cases := []struct {
		size uint64
		want uint32
	}{
		{0, 100},
		{1, 108},
		{8, 116},
		{9, 124},
		{16, 140},
	}
	for _, tc := range cases {
		got, err := a.Reserve(tc.size)
		if err != nil {
			t.Fatalf("reserve(%d): %v", tc.size, err)
		}
		if got != tc.want {
			t.Errorf("reserve(%d) = %d, want %d", tc.size, got, tc.want)
		}
	}
	if a.Total() != 156 {
		t.Errorf("total = %d, want 156", a.Total())
	}
}

func TestStringsDedupAndDisjoint(t *testing.T) {
	a, _ := newArena(0)
	contents := []string{"hello", "world!", "hello", "", "\x00\r\n\x07", "world!"}
	seen := map[string]*StringEntry{}
	for _, c := range contents {
		e, err := a.StringOffset(c)
		if err != nil {
			t.Fatalf("string %q: %v", c, err)
		}
		if prev, ok := seen[c]; ok && prev != e {
			t.Errorf("string %q reserved twice", c)
		}
		seen[c] = e
	}
	entries := a.Strings()
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		prev := entries[i-1]
		if prev.Offset+prev.Size > entries[i].Offset {
			t.Errorf("entries %q and %q overlap", prev.Content, entries[i].Content)
		}
	}
	for _, e := range entries {
		if e.Size%8 != 0 || e.Size < uint32(len(e.Bytes))+8 {
			t.Errorf("entry %q has size %d", e.Content, e.Size)
		}
	}
	null, err := a.NullString()
	if err != nil {
		t.Fatalf("null string: %v", err)
	}
	if null != seen[""] {
		t.Errorf("null string must share the empty entry")
	}
}

func TestStringSegment(t *testing.T) {
	a, _ := newArena(16)
	e, err := a.StringOffset("hié")
	if err != nil {
		t.Fatalf("string: %v", err)
	}
	if e.Offset != 16 || e.FirstChar() != 20 {
		t.Fatalf("offset = %d first = %d", e.Offset, e.FirstChar())
	}
	want := []byte{3, 0, 0, 0, 'h', 'i', 0xe9}
	if got := e.Segment(); !bytes.Equal(got, want) {
		t.Fatalf("segment = %v, want %v", got, want)
	}
}

func TestStringOutsideLatin1(t *testing.T) {
	a, _ := newArena(0)
	_, err := a.StringOffset("snow ☃")
	var le *LayoutError
	if !errors.As(err, &le) || le.Code() != diag.LayUnencodableString {
		t.Fatalf("expected unencodable error, got %v", err)
	}
}

func TestSizeOfPackedStruct(t *testing.T) {
	in := types.NewInterner()
	b := in.Builtins()
	inner := in.RegisterStruct("Inner")
	in.SetStructFields(inner, []types.StructField{{Name: "a", Type: b.Uint8}, {Name: "b", Type: b.Int32}})
	outer := in.RegisterStruct("Outer")
	in.SetStructFields(outer, []types.StructField{{Name: "x", Type: inner}, {Name: "y", Type: b.Char}, {Name: "s", Type: b.String}})
	eng := New(Wasm32(), in)

	cases := []struct {
		id   types.TypeID
		want uint32
	}{
		{b.Bool, 1},
		{b.Char, 2},
		{b.Int64, 8},
		{b.Float32, 4},
		{b.String, 4},
		{in.Intern(types.MakePointer(b.Int64)), 4},
		{inner, 5},
		{outer, 11},
	}
	for _, tc := range cases {
		got, err := eng.SizeOf(tc.id)
		if err != nil {
			t.Fatalf("%s: %v", in.String(tc.id), err)
		}
		if got != tc.want {
			t.Errorf("SizeOf(%s) = %d, want %d", in.String(tc.id), got, tc.want)
		}
	}
}

func TestSizeOfRecursiveStruct(t *testing.T) {
	in := types.NewInterner()
	node := in.RegisterStruct("Node")
	in.SetStructFields(node, []types.StructField{{Name: "next", Type: node}})
	_, err := New(Wasm32(), in).SizeOf(node)
	var le *LayoutError
	if !errors.As(err, &le) || le.Kind != LayoutErrRecursiveStruct {
		t.Fatalf("expected recursive struct error, got %v", err)
	}
}

func TestAllocateEncounterOrder(t *testing.T) {
	b := ir.NewBuilder("P")
	b.StaticField("P", "Count", b.T.Int32, false)
	b.StaticField("P", "Name", b.T.String, true)
	b.StaticField("P", "Items", b.Types().Intern(types.MakeArray(b.T.Int32)), false)
	fn := b.Func("P", "f", b.T.Void, 0).Body(
		b.Eval(b.Assign(b.Field("P", "Name"), b.Str("abc"))),
		b.Eval(b.Assign(b.Field("P", "Count"), b.I32(1))),
		b.Eval(b.Assign(b.Field("P", "Items"), b.Null(b.T.Object))),
		b.Eval(b.Assign(b.Field("P", "Name"), b.Null(b.T.String))),
		b.Eval(b.Str("abc")),
	)
	prog := b.Program()
	arena := NewArena(New(Wasm32(), prog.Types), 64)
	bag := diag.NewBag(10)
	err := Allocate(arena, prog, []ir.Body{{Func: fn, Root: fn.Body}}, diag.BagReporter{Bag: bag})
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	name, _ := arena.LookupField(ir.MemberRef{Type: "P", Name: "Name"})
	abc, _ := arena.LookupString("abc")
	count, _ := arena.LookupField(ir.MemberRef{Type: "P", Name: "Count"})
	empty, _ := arena.LookupString("")
	if name == nil || abc == nil || count == nil || empty == nil {
		t.Fatalf("missing reservations")
	}
	order := []uint32{name.Offset, abc.Offset, count.Offset, empty.Offset}
	want := []uint32{64, 72, 88, 96}
	for i := range order {
		if order[i] != want[i] {
			t.Errorf("reservation %d at %d, want %d", i, order[i], want[i])
		}
	}
	if !name.ReadOnly {
		t.Errorf("read-only flag lost")
	}
	if _, ok := arena.LookupField(ir.MemberRef{Type: "P", Name: "Items"}); ok {
		t.Errorf("array field must not be reserved")
	}
	if bag.Len() != 1 || bag.Items()[0].Code != diag.LayUnsupportedFieldType {
		t.Fatalf("expected one unsupported-field warning, got %+v", bag.Items())
	}
}
