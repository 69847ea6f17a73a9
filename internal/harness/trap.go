package harness

import (
	"fmt"
	"strings"
)

// TrapCode identifies why execution stopped.
type TrapCode int

// Stable trap codes.
const (
	TrapOutOfBounds    TrapCode = 1 // memory access past the heap
	TrapDivideByZero   TrapCode = 2 // integer division or remainder by zero
	TrapOverflow       TrapCode = 3 // signed division overflow, bad float truncation
	TrapUntranslatable TrapCode = 4 // placeholder for a construct the compiler dropped
	TrapUnknownName    TrapCode = 5 // call, local or label that does not exist
	TrapBadOperand     TrapCode = 6 // malformed instruction
	TrapStepLimit      TrapCode = 7 // step budget exhausted
	TrapCallDepth      TrapCode = 8 // recursion too deep
	TrapStdout         TrapCode = 9 // output sink misuse
)

func (c TrapCode) String() string {
	switch c {
	case TrapOutOfBounds:
		return "out of bounds"
	case TrapDivideByZero:
		return "divide by zero"
	case TrapOverflow:
		return "overflow"
	case TrapUntranslatable:
		return "untranslatable"
	case TrapUnknownName:
		return "unknown name"
	case TrapBadOperand:
		return "bad operand"
	case TrapStepLimit:
		return "step limit"
	case TrapCallDepth:
		return "call depth"
	case TrapStdout:
		return "stdout"
	}
	return fmt.Sprintf("trap %d", int(c))
}

// Trap is a runtime failure. It aborts the current directive only.
type Trap struct {
	Code      TrapCode
	Message   string
	Line      uint32
	Backtrace []string // function names, innermost first
}

func (t *Trap) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "trap (%s): %s", t.Code, t.Message)
	if t.Line != 0 {
		fmt.Fprintf(&sb, " at line %d", t.Line)
	}
	if len(t.Backtrace) > 0 {
		sb.WriteString(" in ")
		sb.WriteString(strings.Join(t.Backtrace, " <- "))
	}
	return sb.String()
}

func trapf(code TrapCode, format string, args ...any) *Trap {
	return &Trap{Code: code, Message: fmt.Sprintf(format, args...)}
}
