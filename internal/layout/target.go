package layout

// Target describes the linear-memory model the backend emits for.
type Target struct {
	Name      string
	PtrSize   uint32 // bytes
	SlotAlign uint32 // every arena reservation is a multiple of this
}

// Wasm32 is the only supported target: 32-bit addresses, 8-byte slots.
func Wasm32() Target {
	return Target{Name: "wasm32", PtrSize: 4, SlotAlign: 8}
}

// RoundUp rounds n up to the target's slot alignment, with a minimum of one
// slot.
func (t Target) RoundUp(n uint64) uint64 {
	align := uint64(t.SlotAlign)
	if n == 0 {
		return align
	}
	return (n + align - 1) / align * align
}
