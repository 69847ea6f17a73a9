package harness

import (
	"encoding/binary"

	"fortio.org/safecast"
)

// Heap is the module's linear memory: the program heap followed by the
// string table and static field slots.
type Heap struct {
	buf []byte
}

// NewHeap allocates size zeroed bytes.
func NewHeap(size uint32) *Heap {
	return &Heap{buf: make([]byte, size)}
}

// SetSize replaces the memory with size zeroed bytes.
func (h *Heap) SetSize(size uint32) {
	h.buf = make([]byte, size)
}

// Size returns the memory size in bytes.
func (h *Heap) Size() uint32 {
	n, err := safecast.Conv[uint32](len(h.buf))
	if err != nil {
		panic(err) // sizes come from uint32
	}
	return n
}

// U8 is the byte view.
func (h *Heap) U8() View { return View{heap: h, width: 1} }

// I32 is the 32-bit view. Its indices count elements, not bytes.
func (h *Heap) I32() View { return View{heap: h, width: 4} }

func (h *Heap) check(addr uint64, n int) error {
	if addr+uint64(n) > uint64(len(h.buf)) {
		return trapf(TrapOutOfBounds, "access of %d bytes at %d but memory size is %d", n, addr, len(h.buf))
	}
	return nil
}

// Bytes returns a copy of n bytes at addr.
func (h *Heap) Bytes(addr uint32, n int) ([]byte, error) {
	if err := h.check(uint64(addr), n); err != nil {
		return nil, err
	}
	return append([]byte(nil), h.buf[addr:int(addr)+n]...), nil
}

// Init copies data to addr; used for data segments.
func (h *Heap) Init(addr uint32, data []byte) error {
	if err := h.check(uint64(addr), len(data)); err != nil {
		return err
	}
	copy(h.buf[addr:], data)
	return nil
}

// load reads an n-byte little-endian integer.
func (h *Heap) load(addr uint32, n int) (uint64, error) {
	if err := h.check(uint64(addr), n); err != nil {
		return 0, err
	}
	b := h.buf[addr:]
	switch n {
	case 1:
		return uint64(b[0]), nil
	case 2:
		return uint64(binary.LittleEndian.Uint16(b)), nil
	case 4:
		return uint64(binary.LittleEndian.Uint32(b)), nil
	default:
		return binary.LittleEndian.Uint64(b), nil
	}
}

// store writes the low n bytes of bits.
func (h *Heap) store(addr uint32, n int, bits uint64) error {
	if err := h.check(uint64(addr), n); err != nil {
		return err
	}
	b := h.buf[addr:]
	switch n {
	case 1:
		b[0] = byte(bits)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(bits))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(bits))
	default:
		binary.LittleEndian.PutUint64(b, bits)
	}
	return nil
}

// View reads and writes one element width. Two-index forms address
// base+offset, scaled by the width.
type View struct {
	heap  *Heap
	width uint32
}

func (v View) addr(index int32) (uint32, error) {
	if index < 0 {
		return 0, trapf(TrapOutOfBounds, "negative heap index %d", index)
	}
	addr := uint64(index) * uint64(v.width)
	if addr >= uint64(len(v.heap.buf)) {
		return 0, trapf(TrapOutOfBounds, "attempted to access offset %d but heap size is %d", addr, len(v.heap.buf))
	}
	return uint32(addr), nil // #nosec G115 -- below len(buf)
}

// Get reads element index.
func (v View) Get(index int32) (int32, error) {
	addr, err := v.addr(index)
	if err != nil {
		return 0, err
	}
	bits, err := v.heap.load(addr, int(v.width))
	if err != nil {
		return 0, err
	}
	if v.width == 1 {
		return int32(bits), nil
	}
	return int32(uint32(bits)), nil
}

// Get2 reads element base+offset.
func (v View) Get2(base, offset int32) (int32, error) {
	return v.Get(base + offset)
}

// Set writes element index. The byte view keeps the low 8 bits.
func (v View) Set(index, value int32) error {
	addr, err := v.addr(index)
	if err != nil {
		return err
	}
	return v.heap.store(addr, int(v.width), uint64(uint32(value)))
}

// Set2 writes element base+offset.
func (v View) Set2(base, offset, value int32) error {
	return v.Set(base+offset, value)
}
