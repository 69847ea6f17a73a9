package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// IR interchange
	IRInfo             Code = 1000
	IRDecodeFailed     Code = 1001
	IRUnknownKind      Code = 1002
	IRSchemaMismatch   Code = 1003
	IRMissingEntry     Code = 1004
	IRDuplicateNodeID  Code = 1005
	IRUnknownFieldType Code = 1006

	// intrinsic rewriting
	RwInfo                 Code = 2000
	RwNonLiteralExportName Code = 2001
	RwNonLiteralHeapSize   Code = 2002
	RwDuplicateHeapSize    Code = 2003
	RwNonLiteralArgArray   Code = 2004
	RwBadHarnessArgs       Code = 2005
	RwBadArity             Code = 2006

	// layout
	LayInfo                 Code = 3000
	LayUnsupportedFieldType Code = 3001
	LayRecursiveStruct      Code = 3002
	LayArenaOverflow        Code = 3003
	LayUnencodableString    Code = 3004

	// emission
	EmiInfo                Code = 4000
	EmiUnsupportedType     Code = 4001
	EmiUntranslatable      Code = 4002
	EmiInstanceCall        Code = 4003
	EmiInvalidAssignTarget Code = 4004
	EmiUndeclaredLabel     Code = 4005
	EmiSwitchCaseNoValues  Code = 4006
	EmiSwitchCaseNotConst  Code = 4007
	EmiLabelGroupMismatch  Code = 4008
	EmiNoEnclosingLoop     Code = 4009
	EmiUnknownFunction     Code = 4010
	EmiSkippedFunction     Code = 4011
	EmiMissingTableEntry   Code = 4012

	// harness
	HarInfo          Code = 5000
	HarParse         Code = 5001
	HarTrap          Code = 5002
	HarAssertFailed  Code = 5003
	HarUnknownExport Code = 5004
	HarStdout        Code = 5005
)

var (
	codeDescription = map[Code]string{
		UnknownCode: "Unknown error",

		IRInfo:             "IR information",
		IRDecodeFailed:     "IR document could not be decoded",
		IRUnknownKind:      "Unknown IR node kind",
		IRSchemaMismatch:   "IR schema version mismatch",
		IRMissingEntry:     "Entry point refers to a missing function",
		IRDuplicateNodeID:  "Statement node id used twice in one function",
		IRUnknownFieldType: "Static field has no type",

		RwInfo:                 "Rewrite information",
		RwNonLiteralExportName: "Export name must be a string literal",
		RwNonLiteralHeapSize:   "Heap size must be an integer literal",
		RwDuplicateHeapSize:    "Heap size declared twice for one type",
		RwNonLiteralArgArray:   "Argument array must use an initializer list",
		RwBadHarnessArgs:       "Malformed test harness call",
		RwBadArity:             "Intrinsic called with the wrong number of arguments",

		LayInfo:                 "Layout information",
		LayUnsupportedFieldType: "Static field type has no memory representation",
		LayRecursiveStruct:      "Struct contains itself by value",
		LayArenaOverflow:        "Linear memory exceeds 4 GiB",
		LayUnencodableString:    "String literal has characters outside Latin-1",

		EmiInfo:                "Emission information",
		EmiUnsupportedType:     "Type has no wasm representation",
		EmiUntranslatable:      "Node cannot be translated",
		EmiInstanceCall:        "Instance method calls are not supported",
		EmiInvalidAssignTarget: "Invalid assignment target",
		EmiUndeclaredLabel:     "Goto targets a label outside every enclosing label group",
		EmiSwitchCaseNoValues:  "Non-default switch case has no values",
		EmiSwitchCaseNotConst:  "Switch case value is not a numeric literal",
		EmiLabelGroupMismatch:  "Label group was not registered by the pre-pass",
		EmiNoEnclosingLoop:     "Break or continue outside of a loop",
		EmiUnknownFunction:     "Call to a function outside the program",
		EmiSkippedFunction:     "Function skipped",
		EmiMissingTableEntry:   "Value has no linear-memory slot",

		HarInfo:          "Harness information",
		HarParse:         "Script could not be parsed",
		HarTrap:          "Execution trapped",
		HarAssertFailed:  "Assertion failed",
		HarUnknownExport: "Unknown export",
		HarStdout:        "Output sink error",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("IR%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("RWR%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("LAY%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("EMI%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("HAR%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
