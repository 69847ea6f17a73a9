package sexpr

import (
	"strings"

	"ilwasm/internal/ir"
)

// escapeIdent keeps letters, digits and '_'; every other rune becomes '_'.
func escapeIdent(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// shortTypeName drops the namespace: "Wasm.Test" -> "Test".
func shortTypeName(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// funcName is the internal name of a method. Overloads share it.
func funcName(ref ir.MemberRef) string {
	return "$" + escapeIdent(shortTypeName(ref.Type)+"_"+ref.Name)
}

func localName(name string) string {
	return "$" + escapeIdent(name)
}

func stringFirstName(offset uint32) string {
	return "$__string_" + uitoa(offset) + "_first"
}

func stringLengthName(offset uint32) string {
	return "$__string_" + uitoa(offset) + "_length"
}

func fieldGetterName(ref ir.MemberRef) string {
	return "$__get_" + escapeIdent(shortTypeName(ref.Type)+"_"+ref.Name)
}

func fieldSetterName(ref ir.MemberRef) string {
	return "$__set_" + escapeIdent(shortTypeName(ref.Type)+"_"+ref.Name)
}

func loopLabel(idx ir.LoopIndex) string {
	return "$loop_" + itoa(int64(idx))
}

func continueLabel(idx ir.LoopIndex) string {
	return "$loop_" + itoa(int64(idx)) + "_continue"
}

func switchLabel(idx ir.LoopIndex) string {
	return "$switch_" + itoa(int64(idx))
}

func currentLabelLocal(group int) string {
	return "$currentLabel_" + itoa(int64(group))
}

const (
	staticInitName   = "$__static_init"
	staticInitExport = "__static_init"
	stringLengthFunc = "$__string_length"
)
