package types

import (
	"fmt"

	"fortio.org/safecast"
)

// StructField is one instance member of a value type.
type StructField struct {
	Name string
	Type TypeID
}

// NominalInfo stores the name (and members, for structs) of a named type.
type NominalInfo struct {
	Name   string
	Fields []StructField
}

// RegisterStruct declares a value type. Members are attached with
// SetStructFields so self-referential declarations can be expressed.
func (in *Interner) RegisterStruct(name string) TypeID {
	slot := in.appendNominal(NominalInfo{Name: name})
	return in.internRaw(Type{Kind: KindStruct, Payload: slot})
}

// RegisterObject declares a reference type other than string.
func (in *Interner) RegisterObject(name string) TypeID {
	slot := in.appendNominal(NominalInfo{Name: name})
	return in.internRaw(Type{Kind: KindObject, Payload: slot})
}

// RegisterGeneric declares an open generic parameter.
func (in *Interner) RegisterGeneric(name string) TypeID {
	slot := in.appendNominal(NominalInfo{Name: name})
	return in.internRaw(Type{Kind: KindGeneric, Payload: slot})
}

// SetStructFields stores the member descriptors for the struct type.
func (in *Interner) SetStructFields(typeID TypeID, fields []StructField) {
	info := in.structInfo(typeID)
	if info == nil {
		return
	}
	info.Fields = append([]StructField(nil), fields...)
}

// StructInfo returns metadata for the provided struct TypeID.
func (in *Interner) StructInfo(typeID TypeID) (*NominalInfo, bool) {
	info := in.structInfo(typeID)
	if info == nil {
		return nil, false
	}
	return info, true
}

// NominalName returns the declared name of a struct, object or generic type.
func (in *Interner) NominalName(typeID TypeID) string {
	t, ok := in.Lookup(typeID)
	if !ok {
		return ""
	}
	if info := in.nominal(t.Payload); info != nil {
		return info.Name
	}
	return ""
}

func (in *Interner) appendNominal(info NominalInfo) uint32 {
	n, err := safecast.Conv[uint32](len(in.nominals))
	if err != nil {
		panic(fmt.Errorf("nominal table overflow: %w", err))
	}
	in.nominals = append(in.nominals, info)
	return n
}

func (in *Interner) nominal(slot uint32) *NominalInfo {
	if slot == 0 || int(slot) >= len(in.nominals) {
		return nil
	}
	return &in.nominals[slot]
}

func (in *Interner) structInfo(typeID TypeID) *NominalInfo {
	if typeID == NoTypeID {
		return nil
	}
	tt, ok := in.Lookup(typeID)
	if !ok || tt.Kind != KindStruct {
		return nil
	}
	return in.nominal(tt.Payload)
}

// NominalID finds a registered struct, object or generic type by name.
func (in *Interner) NominalID(name string) TypeID {
	for i, t := range in.types {
		switch t.Kind {
		case KindStruct, KindObject, KindGeneric:
			if info := in.nominal(t.Payload); info != nil && info.Name == name {
				return TypeID(i) // #nosec G115 -- bounded by internRaw
			}
		}
	}
	return NoTypeID
}
