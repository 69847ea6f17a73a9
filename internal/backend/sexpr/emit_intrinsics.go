package sexpr

import (
	"golang.org/x/text/encoding/charmap"

	"ilwasm/internal/diag"
	"ilwasm/internal/ir"
	"ilwasm/internal/types"
)

func (fe *funcEmitter) memoryOp(d *ir.MemoryData, store bool) string {
	kw, ok := fe.e.valueKeyword(d.Target)
	if !ok {
		kw = types.KeywordI32
	}
	op := string(kw) + ".load"
	if store {
		op = string(kw) + ".store"
	}
	op += fe.e.types.MemorySuffix(d.Target, store)
	if !d.Aligned {
		op += "/1"
	}
	return op
}

func (fe *funcEmitter) memoryLoad(d *ir.MemoryData) (string, error) {
	addr, err := fe.expr(d.Address)
	if err != nil {
		return "", err
	}
	return form(fe.memoryOp(d, false), addr), nil
}

func (fe *funcEmitter) memoryStore(d *ir.MemoryData) (string, error) {
	addr, err := fe.expr(d.Address)
	if err != nil {
		return "", err
	}
	value, err := fe.expr(d.Value)
	if err != nil {
		return "", err
	}
	return form(fe.memoryOp(d, true), addr, value), nil
}

func (fe *funcEmitter) invoke(export string, args []*ir.Expr) (string, error) {
	texts, err := fe.exprs(args)
	if err != nil {
		return "", err
	}
	return form("invoke", append([]string{quote([]byte(export))}, texts...)...), nil
}

func (fe *funcEmitter) assert(e *ir.Expr, d *ir.AssertData) (string, error) {
	inv, err := fe.invoke(d.Export, d.Args)
	if err != nil {
		return "", err
	}
	expected, err := fe.expr(d.Expected)
	if err != nil {
		return "", err
	}
	if e.Kind == ir.ExprAssertEq {
		return form("assert_eq", inv, expected), nil
	}
	return form("assert_return", expected, inv), nil
}

func (fe *funcEmitter) assertHeap(e *ir.Expr, d *ir.AssertHeapData) (string, error) {
	if d.FromFile {
		return form("assert_heap_eq_file", itoa(d.Offset), itoa(d.Count), quote([]byte(d.Expected))), nil
	}
	encoded, err := charmap.ISO8859_1.NewEncoder().String(d.Expected)
	if err != nil {
		return "", diag.Errorf(diag.LayUnencodableString, e.Span, "expected heap contents %q are not Latin-1: %v", d.Expected, err)
	}
	return form("assert_heap_eq", itoa(d.Offset), quote([]byte(encoded))), nil
}
