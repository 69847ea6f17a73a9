package layout

import (
	"errors"
	"fmt"

	"ilwasm/internal/diag"
	"ilwasm/internal/ir"
)

// Allocate walks bodies depth-first in order and reserves every string
// literal and static field they reference. Fields whose type has no memory
// representation are reported and left unreserved.
func Allocate(arena *Arena, prog *ir.Program, bodies []ir.Body, reporter diag.Reporter) error {
	var firstErr error
	for _, b := range bodies {
		member := b.Func.QualifiedName()
		ir.WalkStmt(b.Root, ir.Visitor{Expr: func(e *ir.Expr) bool {
			if firstErr != nil {
				return false
			}
			if err := allocateExpr(arena, prog, e, member, reporter); err != nil {
				firstErr = err
				return false
			}
			return true
		}})
		if firstErr != nil {
			return firstErr
		}
	}
	return nil
}

func allocateExpr(arena *Arena, prog *ir.Program, e *ir.Expr, member string, reporter diag.Reporter) error {
	switch d := e.Data.(type) {
	case *ir.LiteralData:
		switch {
		case d.Kind == ir.LiteralString:
			_, err := arena.StringOffset(d.StringValue)
			return wrap(err, e, member)
		case (d.Kind == ir.LiteralNull || d.Kind == ir.LiteralDefault) && prog.Types.IsString(e.Type):
			_, err := arena.NullString()
			return wrap(err, e, member)
		}
	case *ir.FieldData:
		if !d.Static {
			return nil
		}
		decl := prog.LookupField(d.Field)
		if decl == nil {
			return nil
		}
		if _, err := arena.FieldOffset(d.Field, decl.Type, decl.ReadOnly); err != nil {
			var le *LayoutError
			if errors.As(err, &le) && le.Kind == LayoutErrUnsupported {
				diag.ReportWarning(reporter, diag.LayUnsupportedFieldType, decl.Span,
					fmt.Sprintf("static field %s skipped: %v", d.Field, err)).ForMember(member).Emit()
				return nil
			}
			return wrap(err, e, member)
		}
	}
	return nil
}

func wrap(err error, e *ir.Expr, member string) error {
	if err == nil {
		return nil
	}
	var le *LayoutError
	if errors.As(err, &le) {
		return diag.Errorf(le.Code(), e.Span, "%s", le.Error()).InMember(member)
	}
	return err
}
