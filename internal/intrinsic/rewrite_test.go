package intrinsic

import (
	"context"
	"testing"

	"ilwasm/internal/diag"
	"ilwasm/internal/ir"
)

func rewriteOne(t *testing.T, b *ir.Builder, fn *ir.Func) (*Result, []*ir.Stmt) {
	t.Helper()
	res, err := Rewrite(context.Background(), b.Program(), diag.NopReporter{})
	if err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	root := res.Body(fn)
	if root == nil {
		t.Fatalf("no body for %s", fn.QualifiedName())
	}
	return res, root.Data.(*ir.BlockData).Stmts
}

func exprOf(t *testing.T, s *ir.Stmt) *ir.Expr {
	t.Helper()
	es, ok := s.Data.(*ir.ExprStmtData)
	if !ok {
		t.Fatalf("statement %s is not an expression", s.Kind)
	}
	return es.Expr
}

func TestHeapIndexFolding(t *testing.T) {
	b := ir.NewBuilder("P")
	fb := b.Func("P", "f", b.T.Void, 0)
	base := fb.Param("base", b.T.Int32)
	fn := fb.Body(
		b.Eval(b.HeapGet(ir.TypeHeapI32, b.I32(16), b.I32(3))),
		b.Eval(b.HeapGet(ir.TypeHeapU8, b.I32(16), b.I32(3))),
		b.Eval(b.HeapGet(ir.TypeHeapI32, base, b.I32(3))),
		b.Eval(b.HeapSet(ir.TypeHeapU8, b.U8(7), base)),
	)
	_, stmts := rewriteOne(t, b, fn)

	i32 := exprOf(t, stmts[0])
	mem := i32.Data.(*ir.MemoryData)
	if i32.Kind != ir.ExprGetMemory || mem.Target != b.T.Int32 || mem.Aligned {
		t.Fatalf("unexpected i32 load %+v", i32)
	}
	if v, ok := mem.Address.IntConstant(); !ok || v != 76 {
		t.Fatalf("I32[16,3] address = %v (folded %v), want 76", v, ok)
	}

	u8 := exprOf(t, stmts[1]).Data.(*ir.MemoryData)
	if v, ok := u8.Address.IntConstant(); !ok || v != 19 || u8.Target != b.T.Uint8 {
		t.Fatalf("U8[16,3] address = %v, want 19", v)
	}

	dyn := exprOf(t, stmts[2]).Data.(*ir.MemoryData)
	mul, ok := dyn.Address.Data.(*ir.BinaryData)
	if !ok || mul.Op != ir.OpMul {
		t.Fatalf("I32[base,3] should scale by 4, got %+v", dyn.Address)
	}
	if add, ok := mul.Left.Data.(*ir.BinaryData); !ok || add.Op != ir.OpAdd {
		t.Fatalf("expected (base+3)*4, got %+v", mul.Left)
	}

	store := exprOf(t, stmts[3])
	sd := store.Data.(*ir.MemoryData)
	if store.Kind != ir.ExprSetMemory || sd.Value == nil || sd.Address.Data.(*ir.VariableData).Name != "base" {
		t.Fatalf("unexpected store %+v", store)
	}
}

func TestStringAccessors(t *testing.T) {
	b := ir.NewBuilder("P")
	fb := b.Func("P", "f", b.T.Int32, 0)
	s := fb.Param("s", b.T.String)
	fn := fb.Body(
		b.Eval(b.StrChar(s, b.I32(2))),
		b.Return(b.StrLen(s)),
	)
	_, stmts := rewriteOne(t, b, fn)
	ch := exprOf(t, stmts[0])
	if ch.Kind != ir.ExprGetMemory || ch.Type != b.T.Char {
		t.Fatalf("s[2] = %+v", ch)
	}
	if add := ch.Data.(*ir.MemoryData).Address.Data.(*ir.BinaryData); add.Op != ir.OpAdd {
		t.Fatalf("expected s+2")
	}
	ret := stmts[1].Data.(*ir.ReturnData).Value
	if ret.Kind != ir.ExprStringLength {
		t.Fatalf("s.Length = %s", ret.Kind)
	}
}

func TestDirectives(t *testing.T) {
	b := ir.NewBuilder("P")
	fn := b.Func("P", "Main", b.T.Void, ir.FuncEntryPoint).Body(
		b.Eval(b.SetHeapSize(b.I32(4096))),
		b.Eval(b.Invoke("countUp", b.I32(0), b.I32(32))),
		b.Eval(b.AssertEq(b.Cast(b.T.Object, b.I32(31)), "readI32", b.I32(0), b.Cast(b.T.Object, b.I32(31)))),
		b.Eval(b.AssertReturn(b.I32(1), "get")),
		b.Eval(b.AssertHeapEq(8, "abc")),
		b.Eval(b.Printf("ignored %d", b.I32(1))),
		b.Eval(b.SetStdout(b.Str("out.log"))),
		b.Eval(b.Write(b.I32(0), b.I32(4))),
	)
	res, stmts := rewriteOne(t, b, fn)
	if res.HeapSizeFor(fn) != 4096 {
		t.Fatalf("heap size = %d", res.HeapSizeFor(fn))
	}
	if c := exprOf(t, stmts[0]).Data.(*ir.CommaData); len(c.Exprs) != 0 {
		t.Fatalf("SetHeapSize should be removed")
	}
	inv := exprOf(t, stmts[1]).Data.(*ir.InvokeData)
	if inv.Export != "countUp" || len(inv.Args) != 2 {
		t.Fatalf("invoke = %+v", inv)
	}
	eq := exprOf(t, stmts[2])
	ad := eq.Data.(*ir.AssertData)
	if eq.Kind != ir.ExprAssertEq || ad.Export != "readI32" || len(ad.Args) != 2 {
		t.Fatalf("assert_eq = %+v", ad)
	}
	if ad.Expected.Kind != ir.ExprLiteral || ad.Args[1].Kind != ir.ExprLiteral {
		t.Fatalf("boxing casts should be stripped")
	}
	if ar := exprOf(t, stmts[3]); ar.Kind != ir.ExprAssertReturn || len(ar.Data.(*ir.AssertData).Args) != 0 {
		t.Fatalf("assert_return = %+v", ar)
	}
	heap := exprOf(t, stmts[4]).Data.(*ir.AssertHeapData)
	if heap.Offset != 8 || heap.Expected != "abc" || heap.Count != 3 {
		t.Fatalf("assert_heap_eq = %+v", heap)
	}
	if c := exprOf(t, stmts[5]).Data.(*ir.CommaData); len(c.Exprs) != 0 {
		t.Fatalf("Printf should be removed")
	}
	if len(res.Imports) != 2 || res.Imports[0] != ir.HarnessStdoutOpen {
		t.Fatalf("imports = %v", res.Imports)
	}
}

func TestMathIntrinsics(t *testing.T) {
	b := ir.NewBuilder("P")
	fb := b.Func("P", "f", b.T.Float64, 0)
	x := fb.Param("x", b.T.Float64)
	fn := fb.Body(
		b.Eval(b.MathCall("Sqrt", b.F64(16))),
		b.Eval(b.MathCall("Max", x, b.F64(1))),
		b.Eval(b.Call(ir.MemberRef{Type: ir.TypeMath, Name: "Abs"}, b.T.Int32, b.I32(-1))),
	)
	_, stmts := rewriteOne(t, b, fn)
	sqrt := exprOf(t, stmts[0])
	if sqrt.Kind != ir.ExprIntrinsic || sqrt.Data.(*ir.IntrinsicData).Op != "f64.sqrt" || !sqrt.IsConstant() {
		t.Fatalf("sqrt = %+v", sqrt)
	}
	if max := exprOf(t, stmts[1]); max.IsConstant() || max.Data.(*ir.IntrinsicData).Op != "f64.max" {
		t.Fatalf("max = %+v", max)
	}
	if abs := exprOf(t, stmts[2]); abs.Kind != ir.ExprCall {
		t.Fatalf("integer Abs must stay a call, got %s", abs.Kind)
	}
}

func TestRewriteErrors(t *testing.T) {
	cases := []struct {
		name  string
		build func(b *ir.Builder, fb *ir.FuncBuilder) []*ir.Stmt
		code  diag.Code
	}{
		{"duplicate heap size", func(b *ir.Builder, _ *ir.FuncBuilder) []*ir.Stmt {
			return []*ir.Stmt{b.Eval(b.SetHeapSize(b.I32(1))), b.Eval(b.SetHeapSize(b.I32(2)))}
		}, diag.RwDuplicateHeapSize},
		{"non-literal heap size", func(b *ir.Builder, fb *ir.FuncBuilder) []*ir.Stmt {
			n := fb.Param("n", b.T.Int32)
			return []*ir.Stmt{b.Eval(b.SetHeapSize(n))}
		}, diag.RwNonLiteralHeapSize},
		{"non-literal export", func(b *ir.Builder, fb *ir.FuncBuilder) []*ir.Stmt {
			s := fb.Param("s", b.T.String)
			call := b.Invoke("x")
			call.Data.(*ir.CallData).Args[0] = s
			return []*ir.Stmt{b.Eval(call)}
		}, diag.RwNonLiteralExportName},
		{"array without initializer", func(b *ir.Builder, fb *ir.FuncBuilder) []*ir.Stmt {
			n := fb.Param("n", b.T.Int32)
			call := b.Invoke("x")
			call.Data.(*ir.CallData).Args[1] = b.NewArray(b.T.Object, n)
			return []*ir.Stmt{b.Eval(call)}
		}, diag.RwNonLiteralArgArray},
		{"bad heap arity", func(b *ir.Builder, _ *ir.FuncBuilder) []*ir.Stmt {
			return []*ir.Stmt{b.Eval(b.HeapGet(ir.TypeHeapI32, b.I32(1), b.I32(2), b.I32(3)))}
		}, diag.RwBadArity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := ir.NewBuilder("P")
			fb := b.Func("P", "f", b.T.Void, 0)
			fb.Body(tc.build(b, fb)...)
			_, err := Rewrite(context.Background(), b.Program(), diag.NopReporter{})
			if diag.CodeOf(err) != tc.code {
				t.Fatalf("expected %s, got %v", tc.code.ID(), err)
			}
			if d, _ := diag.AsDiagnostic(err); d.Member != "P::f" {
				t.Errorf("member = %q", d.Member)
			}
		})
	}
}

func TestHeapSizeWithoutEntryPointUsesLargest(t *testing.T) {
	res := &Result{HeapSizes: map[string]uint32{"A": 64, "B": 1024, "C": 8}}
	if got := res.HeapSizeFor(nil); got != 1024 {
		t.Fatalf("heap size = %d, want 1024", got)
	}
}
