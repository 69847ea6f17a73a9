package diag

import (
	"errors"
	"fmt"

	"ilwasm/internal/source"
)

// Error is a structural compile error. Passes return it to abort emission of
// the current program; the driver converts it back into a diagnostic.
type Error struct {
	Diagnostic
}

// Errorf builds an *Error with a formatted message.
func Errorf(code Code, primary source.Span, format string, args ...any) *Error {
	return &Error{Diagnostic: NewError(code, primary, fmt.Sprintf(format, args...))}
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Member != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code.ID(), e.Member, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code.ID(), e.Message)
}

// InMember returns a copy of e tagged with member unless it already has one.
func (e *Error) InMember(member string) *Error {
	if e == nil || e.Member != "" {
		return e
	}
	cp := *e
	cp.Member = member
	return &cp
}

// AsDiagnostic extracts the diagnostic carried by err. Plain errors become
// UnknownCode errors so nothing is lost when reporting.
func AsDiagnostic(err error) (Diagnostic, bool) {
	if err == nil {
		return Diagnostic{}, false
	}
	var de *Error
	if errors.As(err, &de) && de != nil {
		return de.Diagnostic, true
	}
	return NewError(UnknownCode, source.Span{}, err.Error()), true
}

// CodeOf returns the code carried by err, or UnknownCode.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) && de != nil {
		return de.Code
	}
	return UnknownCode
}
