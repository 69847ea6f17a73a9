package sexpr

import (
	"ilwasm/internal/diag"
	"ilwasm/internal/ir"
)

// expr renders e as a single inline form.
func (fe *funcEmitter) expr(e *ir.Expr) (string, error) {
	if e == nil {
		return "", nil
	}
	switch d := e.Data.(type) {
	case *ir.LiteralData:
		return fe.literal(e, d)
	case *ir.VariableData:
		return fe.variable(e, d), nil
	case *ir.BinaryData:
		return fe.binary(e, d)
	case *ir.UnaryData:
		return fe.unary(e, d, true)
	case *ir.CallData:
		return fe.call(e, d)
	case *ir.FieldData:
		return fe.fieldLoad(e, d), nil
	case *ir.PropertyData:
		return fe.propertyGet(e, d)
	case *ir.CastData:
		return fe.cast(e, d)
	case *ir.ReferenceData:
		if !d.Referent.IsConstant() {
			return fe.untranslatable(e, "references to non-constant values are not supported"), nil
		}
		return fe.expr(d.Referent)
	case *ir.CommaData:
		return fe.comma(d)
	case *ir.ConditionalData:
		return fe.conditional(d)
	case *ir.MemoryData:
		if e.Kind == ir.ExprSetMemory {
			return fe.memoryStore(d)
		}
		return fe.memoryLoad(d)
	case *ir.StringLengthData:
		s, err := fe.expr(d.String)
		if err != nil {
			return "", err
		}
		return form("call", stringLengthFunc, s), nil
	case *ir.IntrinsicData:
		args, err := fe.exprs(d.Args)
		if err != nil {
			return "", err
		}
		return form(d.Op, args...), nil
	case *ir.InvokeData:
		return fe.invoke(d.Export, d.Args)
	case *ir.AssertData:
		return fe.assert(e, d)
	case *ir.AssertHeapData:
		return fe.assertHeap(e, d)
	case *ir.HarnessCallData:
		args, err := fe.exprs(d.Args)
		if err != nil {
			return "", err
		}
		return form("call_import", append([]string{"$" + d.Op.ImportName()}, args...)...), nil
	}
	return fe.untranslatable(e, e.Kind.String()+" expressions are not supported"), nil
}

func (fe *funcEmitter) exprs(list []*ir.Expr) ([]string, error) {
	out := make([]string, 0, len(list))
	for _, e := range list {
		text, err := fe.expr(e)
		if err != nil {
			return nil, err
		}
		out = append(out, text)
	}
	return out, nil
}

// effect renders e evaluated for its side effects only. Removed calls yield
// the empty string and postfix updates use their cheaper prefix form.
func (fe *funcEmitter) effect(e *ir.Expr) (string, error) {
	switch d := e.Data.(type) {
	case *ir.CommaData:
		if len(d.Exprs) == 0 {
			return "", nil
		}
	case *ir.UnaryData:
		if d.Op.IsIncrement() {
			return fe.unary(e, d, false)
		}
	}
	return fe.expr(e)
}

func (fe *funcEmitter) untranslatable(e *ir.Expr, msg string) string {
	fe.e.warn(diag.EmiUntranslatable, fe.member, e, "%s", msg)
	return "(untranslatable." + e.Kind.String() + ")"
}

func (fe *funcEmitter) variable(e *ir.Expr, d *ir.VariableData) string {
	if !fe.topLevel() {
		t, ok := fe.locals[d.Name]
		if !ok {
			return fe.untranslatable(e, "variable "+d.Name+" is not declared")
		}
		if _, ok := fe.e.valueKeyword(t); !ok {
			return fe.untranslatable(e, "variable "+d.Name+" has unsupported type "+fe.e.types.String(t))
		}
	}
	return form("get_local", localName(d.Name))
}

// comma evaluates every expression but the last for effect.
func (fe *funcEmitter) comma(d *ir.CommaData) (string, error) {
	parts := make([]string, 0, len(d.Exprs))
	for i, e := range d.Exprs {
		var text string
		var err error
		if i+1 < len(d.Exprs) {
			text, err = fe.effect(e)
		} else {
			text, err = fe.expr(e)
		}
		if err != nil {
			return "", err
		}
		if text != "" {
			parts = append(parts, text)
		}
	}
	switch len(parts) {
	case 0:
		return "", nil
	case 1:
		return parts[0], nil
	}
	return form("block", parts...), nil
}

func (fe *funcEmitter) conditional(d *ir.ConditionalData) (string, error) {
	parts, err := fe.exprs([]*ir.Expr{d.Cond, d.Then, d.Else})
	if err != nil {
		return "", err
	}
	return form("if", parts...), nil
}
