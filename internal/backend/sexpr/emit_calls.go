package sexpr

import (
	"ilwasm/internal/diag"
	"ilwasm/internal/ir"
	"ilwasm/internal/types"
)

func (fe *funcEmitter) call(e *ir.Expr, d *ir.CallData) (string, error) {
	if !d.Static || d.Receiver != nil {
		fe.e.warn(diag.EmiInstanceCall, fe.member, e, "instance call to %s is not supported", d.Target)
		return "(untranslatable." + e.Kind.String() + ")", nil
	}
	return fe.callFunc(e, d.Target, d.ParamTypes, d.Args, nil)
}

// callFunc emits a direct call to a function of this program. extra is
// appended after the rendered args (setter values).
func (fe *funcEmitter) callFunc(e *ir.Expr, ref ir.MemberRef, params []types.TypeID, args []*ir.Expr, extra []string) (string, error) {
	fn := fe.e.prog.Lookup(ref, params)
	if fn == nil && params != nil {
		fn = fe.e.prog.Lookup(ref, nil)
	}
	switch {
	case fn == nil:
		fe.e.warn(diag.EmiUnknownFunction, fe.member, e, "call to %s, which is not part of the program", ref)
		return "(untranslatable." + e.Kind.String() + ")", nil
	case fe.e.skipped[fn]:
		fe.e.warn(diag.EmiSkippedFunction, fe.member, e, "call to skipped function %s", ref)
		return "(untranslatable." + e.Kind.String() + ")", nil
	case fn == fe.e.entry:
		return fe.untranslatable(e, "the entry point cannot be called"), nil
	}
	texts, err := fe.exprs(args)
	if err != nil {
		return "", err
	}
	parts := append([]string{funcName(fn.Ref())}, texts...)
	return form("call", append(parts, extra...)...), nil
}

func (fe *funcEmitter) propertyGet(e *ir.Expr, d *ir.PropertyData) (string, error) {
	if !d.Static || d.Receiver != nil {
		fe.e.warn(diag.EmiInstanceCall, fe.member, e, "instance property %s is not supported", d.Property)
		return "(untranslatable." + e.Kind.String() + ")", nil
	}
	return fe.callFunc(e, d.Getter, nil, nil, nil)
}

func (fe *funcEmitter) propertySet(e *ir.Expr, d *ir.PropertyData, value string) (string, error) {
	if !d.Static || d.Receiver != nil {
		fe.e.warn(diag.EmiInstanceCall, fe.member, e, "instance property %s is not supported", d.Property)
		return "(untranslatable." + e.Kind.String() + ")", nil
	}
	if d.Setter.IsZero() {
		return "", diag.Errorf(diag.EmiInvalidAssignTarget, e.Span, "property %s has no setter", d.Property)
	}
	return fe.callFunc(e, d.Setter, nil, nil, []string{value})
}

// fieldSlot resolves a static field to its slot and keyword; the returned
// string is a placeholder when the field cannot be accessed.
func (fe *funcEmitter) fieldSlot(e *ir.Expr, d *ir.FieldData) (uint32, types.TypeID, types.Keyword, string) {
	if !d.Static || d.Receiver != nil {
		return 0, 0, "", fe.untranslatable(e, "instance field "+d.Field.String()+" is not supported")
	}
	entry, ok := fe.e.arena.LookupField(d.Field)
	if !ok {
		return 0, 0, "", fe.untranslatable(e, "static field "+d.Field.String()+" has no slot")
	}
	kw, ok := fe.e.valueKeyword(entry.Type)
	if !ok {
		return 0, 0, "", fe.untranslatable(e, "static field "+d.Field.String()+" has unsupported type "+fe.e.types.String(entry.Type))
	}
	return entry.Offset, entry.Type, kw, ""
}

func (fe *funcEmitter) fieldLoad(e *ir.Expr, d *ir.FieldData) string {
	off, t, kw, placeholder := fe.fieldSlot(e, d)
	if placeholder != "" {
		return placeholder
	}
	return fieldLoadForm(fe.e.types, off, t, kw)
}

func (fe *funcEmitter) fieldStore(e *ir.Expr, d *ir.FieldData, value string) string {
	off, t, kw, placeholder := fe.fieldSlot(e, d)
	if placeholder != "" {
		return placeholder
	}
	return fieldStoreForm(fe.e.types, off, t, kw, value)
}

func fieldLoadForm(in *types.Interner, off uint32, t types.TypeID, kw types.Keyword) string {
	return form(string(kw)+".load"+in.MemorySuffix(t, false), intConst(types.KeywordI32, int64(off)))
}

func fieldStoreForm(in *types.Interner, off uint32, t types.TypeID, kw types.Keyword, value string) string {
	return form(string(kw)+".store"+in.MemorySuffix(t, true), intConst(types.KeywordI32, int64(off)), value)
}
