package layout

import (
	"encoding/binary"
	"fmt"
	"sort"

	"fortio.org/safecast"
	"golang.org/x/text/encoding/charmap"

	"ilwasm/internal/ir"
	"ilwasm/internal/types"
)

// StringEntry is one string-table slot. Offset points at the 4-byte length
// header; the characters start at Offset+4.
type StringEntry struct {
	Content string
	Bytes   []byte // Latin-1
	Offset  uint32
	Size    uint32
}

// FirstChar is the address a string value refers to.
func (s *StringEntry) FirstChar() uint32 { return s.Offset + 4 }

// Segment is the initializer of the slot: little-endian length then bytes.
func (s *StringEntry) Segment() []byte {
	out := make([]byte, 4+len(s.Bytes))
	binary.LittleEndian.PutUint32(out, uint32(len(s.Bytes))) // #nosec G115 -- bounded by Size
	copy(out[4:], s.Bytes)
	return out
}

// FieldEntry is one static-field slot.
type FieldEntry struct {
	Field    ir.MemberRef
	Type     types.TypeID
	ReadOnly bool
	Offset   uint32
	Size     uint32
}

// Arena lays out the string and static-field tables after the user heap.
// The heap occupies [0, HeapSize); reservations follow in encounter order.
type Arena struct {
	engine   *Engine
	heapSize uint32
	used     uint64

	strings map[string]*StringEntry
	fields  map[ir.MemberRef]*FieldEntry
}

// NewArena creates an arena placed after a heap of heapSize bytes.
func NewArena(engine *Engine, heapSize uint32) *Arena {
	return &Arena{
		engine:   engine,
		heapSize: heapSize,
		strings:  make(map[string]*StringEntry),
		fields:   make(map[ir.MemberRef]*FieldEntry),
	}
}

// HeapSize returns the declared heap size.
func (a *Arena) HeapSize() uint32 { return a.heapSize }

// Total is the heap size plus every reservation.
func (a *Arena) Total() uint32 {
	n, err := safecast.Conv[uint32](uint64(a.heapSize) + a.used)
	if err != nil {
		panic(fmt.Errorf("arena total overflow: %w", err)) // Reserve keeps this in range
	}
	return n
}

// Reserve allocates size bytes, rounded up to a whole number of slots, and
// returns the absolute offset of the block.
func (a *Arena) Reserve(size uint64) (uint32, error) {
	rounded := a.engine.Target.RoundUp(size)
	offset, err := safecast.Conv[uint32](uint64(a.heapSize) + a.used)
	if err != nil {
		return 0, &LayoutError{Kind: LayoutErrOverflow, Err: err}
	}
	if _, err := safecast.Conv[uint32](uint64(offset) + rounded); err != nil {
		return 0, &LayoutError{Kind: LayoutErrOverflow, Err: err}
	}
	a.used += rounded
	return offset, nil
}

// StringOffset returns the table entry for content, reserving it on first
// use.
func (a *Arena) StringOffset(content string) (*StringEntry, error) {
	if e, ok := a.strings[content]; ok {
		return e, nil
	}
	encoded, err := charmap.ISO8859_1.NewEncoder().String(content)
	if err != nil {
		return nil, &LayoutError{Kind: LayoutErrUnencodable, Name: content, Err: err}
	}
	size := uint64(len(encoded)) + 8
	offset, err := a.Reserve(size)
	if err != nil {
		return nil, err
	}
	e := &StringEntry{
		Content: content,
		Bytes:   []byte(encoded),
		Offset:  offset,
		Size:    uint32(a.engine.Target.RoundUp(size)), // #nosec G115 -- checked by Reserve
	}
	a.strings[content] = e
	return e, nil
}

// NullString returns the canonical entry shared by null and "".
func (a *Arena) NullString() (*StringEntry, error) {
	return a.StringOffset("")
}

// LookupString returns an existing entry without reserving.
func (a *Arena) LookupString(content string) (*StringEntry, bool) {
	e, ok := a.strings[content]
	return e, ok
}

// FieldOffset returns the slot of a static field, reserving it on first use.
func (a *Arena) FieldOffset(field ir.MemberRef, t types.TypeID, readOnly bool) (*FieldEntry, error) {
	if e, ok := a.fields[field]; ok {
		return e, nil
	}
	size, err := a.engine.SizeOf(t)
	if err != nil {
		return nil, err
	}
	offset, err := a.Reserve(uint64(size))
	if err != nil {
		return nil, err
	}
	e := &FieldEntry{Field: field, Type: t, ReadOnly: readOnly, Offset: offset, Size: size}
	a.fields[field] = e
	return e, nil
}

// LookupField returns an existing entry without reserving.
func (a *Arena) LookupField(field ir.MemberRef) (*FieldEntry, bool) {
	e, ok := a.fields[field]
	return e, ok
}

// Strings returns the string table sorted by offset.
func (a *Arena) Strings() []*StringEntry {
	out := make([]*StringEntry, 0, len(a.strings))
	for _, e := range a.strings {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}

// Fields returns the field table sorted by offset.
func (a *Arena) Fields() []*FieldEntry {
	out := make([]*FieldEntry, 0, len(a.fields))
	for _, e := range a.fields {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}
