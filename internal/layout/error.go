package layout

import (
	"fmt"
	"strings"

	"ilwasm/internal/diag"
	"ilwasm/internal/types"
)

// LayoutErrorKind enumerates layout failures.
type LayoutErrorKind uint8

const (
	// LayoutErrRecursiveStruct is a struct that contains itself by value.
	LayoutErrRecursiveStruct LayoutErrorKind = iota + 1
	// LayoutErrUnsupported is a type with no memory representation.
	LayoutErrUnsupported
	// LayoutErrOverflow means the arena grew past the 32-bit address space.
	LayoutErrOverflow
	// LayoutErrUnencodable is a string with characters outside Latin-1.
	LayoutErrUnencodable
)

// LayoutError describes a failed size computation or reservation.
type LayoutError struct {
	Kind  LayoutErrorKind
	Type  types.TypeID
	Name  string         // type or string content, for messages
	Cycle []types.TypeID // for LayoutErrRecursiveStruct
	Err   error
}

func (e *LayoutError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case LayoutErrRecursiveStruct:
		parts := make([]string, 0, len(e.Cycle))
		for _, id := range e.Cycle {
			parts = append(parts, fmt.Sprintf("type#%d", id))
		}
		if len(parts) == 0 {
			return fmt.Sprintf("struct %s contains itself by value", e.Name)
		}
		return fmt.Sprintf("struct %s contains itself by value (cycle: %s)", e.Name, strings.Join(parts, " -> "))
	case LayoutErrUnsupported:
		return fmt.Sprintf("type %s has no memory representation", e.Name)
	case LayoutErrOverflow:
		return fmt.Sprintf("linear memory overflow: %v", e.Err)
	case LayoutErrUnencodable:
		return fmt.Sprintf("string %q cannot be encoded as Latin-1: %v", e.Name, e.Err)
	default:
		return fmt.Sprintf("layout error kind=%d type#%d", e.Kind, e.Type)
	}
}

func (e *LayoutError) Unwrap() error { return e.Err }

// Code maps the error to its diagnostic code.
func (e *LayoutError) Code() diag.Code {
	switch e.Kind {
	case LayoutErrRecursiveStruct:
		return diag.LayRecursiveStruct
	case LayoutErrUnsupported:
		return diag.LayUnsupportedFieldType
	case LayoutErrOverflow:
		return diag.LayArenaOverflow
	case LayoutErrUnencodable:
		return diag.LayUnencodableString
	}
	return diag.UnknownCode
}
