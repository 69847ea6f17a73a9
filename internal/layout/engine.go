package layout

import (
	"fortio.org/safecast"

	"ilwasm/internal/types"
)

// Engine computes the in-memory size of managed types. Structs are the packed
// sum of their members; there is no padding.
type Engine struct {
	Target Target
	Types  *types.Interner

	cache *cache
}

// New creates an engine for target over the given type table.
func New(target Target, typesIn *types.Interner) *Engine {
	return &Engine{Target: target, Types: typesIn, cache: newCache()}
}

type sizeState struct {
	stack []types.TypeID
	index map[types.TypeID]int
}

// SizeOf returns the size of t in bytes.
func (e *Engine) SizeOf(t types.TypeID) (uint32, error) {
	state := &sizeState{index: make(map[types.TypeID]int, 8)}
	size, err := e.sizeOf(t, state)
	if err != nil {
		return 0, err
	}
	return size, nil
}

func (e *Engine) sizeOf(t types.TypeID, state *sizeState) (uint32, *LayoutError) {
	if cached, ok := e.cache.get(t); ok {
		return cached.size, cached.err
	}
	if idx, ok := state.index[t]; ok {
		cycle := append(append([]types.TypeID(nil), state.stack[idx:]...), t)
		err := &LayoutError{Kind: LayoutErrRecursiveStruct, Type: t, Name: e.Types.String(t), Cycle: cycle}
		e.cache.put(t, cacheEntry{err: err})
		return 0, err
	}
	state.index[t] = len(state.stack)
	state.stack = append(state.stack, t)
	size, err := e.computeSize(t, state)
	state.stack = state.stack[:len(state.stack)-1]
	delete(state.index, t)

	e.cache.put(t, cacheEntry{size: size, err: err})
	return size, err
}

func (e *Engine) computeSize(id types.TypeID, state *sizeState) (uint32, *LayoutError) {
	tt, ok := e.Types.Lookup(id)
	if !ok {
		return 0, e.unsupported(id)
	}
	switch tt.Kind {
	case types.KindVoid:
		return 0, nil
	case types.KindBool:
		return 1, nil
	case types.KindChar:
		return 2, nil
	case types.KindInt, types.KindUint, types.KindFloat:
		return uint32(tt.Width) / 8, nil
	case types.KindPointer, types.KindDelegate, types.KindString:
		return e.Target.PtrSize, nil
	case types.KindStruct:
		info, ok := e.Types.StructInfo(id)
		if !ok {
			return 0, e.unsupported(id)
		}
		var total uint64
		for _, f := range info.Fields {
			size, err := e.sizeOf(f.Type, state)
			if err != nil {
				return 0, err
			}
			total += uint64(size)
		}
		n, convErr := safecast.Conv[uint32](total)
		if convErr != nil {
			return 0, &LayoutError{Kind: LayoutErrOverflow, Type: id, Name: info.Name, Err: convErr}
		}
		return n, nil
	default:
		return 0, e.unsupported(id)
	}
}

func (e *Engine) unsupported(id types.TypeID) *LayoutError {
	return &LayoutError{Kind: LayoutErrUnsupported, Type: id, Name: e.Types.String(id)}
}
