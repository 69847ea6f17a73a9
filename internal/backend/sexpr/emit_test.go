package sexpr

import (
	"context"
	"strings"
	"testing"

	"ilwasm/internal/diag"
	"ilwasm/internal/fixtures"
	"ilwasm/internal/ir"
	"ilwasm/internal/types"
)

func emitProgram(t *testing.T, prog *ir.Program) (*Output, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag(100)
	out, err := EmitModule(context.Background(), prog, Options{Reporter: diag.BagReporter{Bag: bag}})
	if err != nil {
		t.Fatalf("emit %s: %v", prog.Name, err)
	}
	return out, bag
}

func mustContain(t *testing.T, text string, parts ...string) {
	t.Helper()
	for _, p := range parts {
		if !strings.Contains(text, p) {
			t.Errorf("output is missing %q\n%s", p, text)
		}
	}
}

func hasCode(bag *diag.Bag, code diag.Code) bool {
	for _, d := range bag.Items() {
		if d.Code == code {
			return true
		}
	}
	return false
}

func TestEmitSmallModule(t *testing.T) {
	b := ir.NewBuilder("Add")
	fb := b.Func("Program", "add", b.T.Int32, 0).Export("")
	x := fb.Param("x", b.T.Int32)
	y := fb.Param("y", b.T.Int32)
	fb.Body(b.Return(b.Binary(ir.OpAdd, x, y)))

	out, _ := emitProgram(t, b.Program())
	want := ";; Add\n" +
		"\n" +
		"(module\n" +
		"\n" +
		"  (func $Program_add (param $x i32) (param $y i32) (result i32)\n" +
		"    (return (i32.add (get_local $x) (get_local $y)))\n" +
		"  )\n" +
		"\n" +
		"  (export \"add\" $Program_add)\n" +
		")\n"
	if out.Text != want {
		t.Fatalf("unexpected module text:\n%s\nwant:\n%s", out.Text, want)
	}
	if out.MemorySize != 0 || strings.Contains(out.Text, "(memory") {
		t.Fatalf("module without heap or strings must not declare memory")
	}
	if len(out.Exports) != 1 || out.Exports[0] != "add" {
		t.Fatalf("exports = %v", out.Exports)
	}
}

func TestEmitIsIdempotent(t *testing.T) {
	for _, name := range []string{"Sieve", "Goto", "Strings"} {
		f, _ := fixtures.Lookup(name)
		first, _ := emitProgram(t, f.Build())
		second, _ := emitProgram(t, f.Build())
		if first.Text != second.Text {
			t.Errorf("%s: two emissions differ", name)
		}
	}
}

func TestFoldedHeapAddress(t *testing.T) {
	b := ir.NewBuilder("P")
	b.Func("P", "read", b.T.Int32, 0).Body(
		b.Return(b.HeapGet(ir.TypeHeapI32, b.I32(16), b.I32(15))),
	)
	b.Func("P", "write", b.T.Void, 0).Body(
		b.Eval(b.HeapSet(ir.TypeHeapU8, b.U8(9), b.I32(4), b.I32(3))),
	)
	out, _ := emitProgram(t, b.Program())
	mustContain(t, out.Text,
		"(return (i32.load/1 (i32.const 124)))",
		"(i32.store8/1 (i32.const 7) (i32.const 9))",
	)
}

func TestEmitSieveLoops(t *testing.T) {
	out, _ := emitProgram(t, fixtures.Sieve())
	mustContain(t, out.Text,
		"(loop $loop_4096",
		"(block $loop_4096_continue",
		"(br $loop_4097_continue)",
		"(f64.sqrt (f64.convert_s/i32 (get_local $target)))",
		"(export \"sieve\" $Program_Sieve)",
		"(memory 131072 131072",
	)
	if out.HeapSize != 131072 {
		t.Fatalf("heap size = %d", out.HeapSize)
	}
	// The entry point follows the module at top level.
	mod := strings.LastIndex(out.Text, "\n)\n")
	inv := strings.Index(out.Text, `(invoke "sieve" (i32.const 24))`)
	if mod < 0 || inv < mod {
		t.Fatalf("directives must follow the module:\n%s", out.Text)
	}
	mustContain(t, out.Text, `(assert_eq (invoke "getResult" (i32.const 8)) (i32.const 23))`)
}

func TestEmitLabelDispatch(t *testing.T) {
	out, _ := emitProgram(t, fixtures.Goto())
	mustContain(t, out.Text,
		"(local $currentLabel_0 i32) (local $currentLabel_1 i32)",
		"(set_local $currentLabel_0 (i32.const 0))",
		"(loop $labelgroup_0",
		"(block $labelgroup_0_dispatch",
		"(if (i32.eq (get_local $currentLabel_1) (i32.const 1))",
		"(block (set_local $currentLabel_0 (i32.const 0)) (br $labelgroup_0_dispatch))",
		"(block (set_local $currentLabel_1 (i32.const 1)) (br $labelgroup_1_dispatch))",
		"(br $labelgroup_1)",
		"(call $Program_set_ResultCount (i32.add (get_local $count) (i32.const 1)))",
		`(assert_return (i32.const 16) (invoke "get_ResultCount"))`,
	)
}

func TestGotoOutsideGroupFails(t *testing.T) {
	b := ir.NewBuilder("P")
	b.Func("P", "f", b.T.Void, 0).Body(
		b.LabelGroup(b.Labeled("a", b.Return(nil))),
		b.Goto("a"),
	)
	_, err := EmitModule(context.Background(), b.Program(), Options{})
	if diag.CodeOf(err) != diag.EmiUndeclaredLabel {
		t.Fatalf("expected %s, got %v", diag.EmiUndeclaredLabel, err)
	}
}

func TestEmitStringTable(t *testing.T) {
	out, _ := emitProgram(t, fixtures.Strings())
	mustContain(t, out.Text,
		"(i32.switch (get_local $index)",
		"(default",
		`"\04\00\00\00\00\0d\0a\07"`,
		`"\05\00\00\00hello"`,
		"(func $__string_length (param $str i32) (result i32) (return (i32.load (i32.sub (get_local $str) (i32.const 4)))))",
		"(i32.load8_u/1 (i32.add (get_local $lhs) (get_local $i)))",
		`(assert_eq (invoke "readStringChar" (i32.const 3) (i32.const 1)) (i32.const 13))`,
	)
	if strings.Index(out.Text, "(case 3") > strings.Index(out.Text, "(default") {
		t.Fatalf("default arm must come last")
	}
}

func TestSwitchDefaultGoesLast(t *testing.T) {
	b := ir.NewBuilder("P")
	fb := b.Func("P", "pick", b.T.Int32, 0)
	k := fb.Param("k", b.T.Int32)
	fb.Body(
		b.Switch(k,
			b.DefaultCase(b.Return(b.I32(0))),
			b.Case([]*ir.Expr{b.I32(1), b.I32(2)}, b.Return(b.I32(12))),
		),
		b.Return(b.I32(-1)),
	)
	out, _ := emitProgram(t, b.Program())
	want := "    (block $switch_4096\n" +
		"      (i32.switch (get_local $k)\n" +
		"        (case 1)\n" +
		"        (case 2\n" +
		"          (return (i32.const 12))\n" +
		"        )\n" +
		"        (default\n" +
		"          (return (i32.const 0))\n" +
		"        )\n" +
		"      )\n" +
		"    )\n"
	mustContain(t, out.Text, want)
}

func TestSwitchRejectsNonConstantCase(t *testing.T) {
	b := ir.NewBuilder("P")
	fb := b.Func("P", "pick", b.T.Int32, 0)
	k := fb.Param("k", b.T.Int32)
	fb.Body(b.Switch(k, b.Case([]*ir.Expr{k}, b.Return(b.I32(1)))), b.Return(b.I32(0)))
	_, err := EmitModule(context.Background(), b.Program(), Options{})
	if diag.CodeOf(err) != diag.EmiSwitchCaseNotConst {
		t.Fatalf("expected %s, got %v", diag.EmiSwitchCaseNotConst, err)
	}
}

func TestSkippedFunction(t *testing.T) {
	b := ir.NewBuilder("P")
	arr := b.Types().Intern(types.MakeArray(b.T.Int32))
	skipped := b.Func("P", "sum", b.T.Int32, 0)
	skipped.Param("values", arr)
	skipped.Body(b.Return(b.I32(0)))
	caller := b.Func("P", "caller", b.T.Void, 0)
	caller.Body(b.Eval(b.CallFunc(skipped.Func(), b.NewArray(b.T.Int32, b.I32(2)))))

	out, bag := emitProgram(t, b.Program())
	if len(out.Skipped) != 1 || out.Skipped[0] != "P::sum" {
		t.Fatalf("skipped = %v", out.Skipped)
	}
	if strings.Contains(out.Text, "(func $P_sum") {
		t.Fatalf("skipped function was emitted")
	}
	mustContain(t, out.Text, "(untranslatable.Call)")
	if !hasCode(bag, diag.EmiSkippedFunction) {
		t.Fatalf("expected %s warning, got %v", diag.EmiSkippedFunction, bag.Items())
	}
}

func TestCallFormsKeepEveryArgument(t *testing.T) {
	b := ir.NewBuilder("P")
	g := b.Func("P", "g", b.T.Int32, 0)
	ga := g.Param("a", b.T.Int32)
	gb := g.Param("b", b.T.Int32)
	g.Body(b.Return(b.Binary(ir.OpSub, ga, gb)))
	f := b.Func("P", "f", b.T.Int32, 0).Export("")
	x := f.Param("x", b.T.Int32)
	f.Body(
		b.Eval(b.Write(x, b.I32(4))),
		b.Return(b.CallFunc(g.Func(), x, b.I32(2))),
	)
	b.Func("P", "Main", b.T.Void, ir.FuncEntryPoint).Body(
		b.Eval(b.Invoke("f", b.I32(9))),
	)

	out, _ := emitProgram(t, b.Program())
	mustContain(t, out.Text,
		"(call_import $__stdout_write (get_local $x) (i32.const 4))",
		"(return (call $P_g (get_local $x) (i32.const 2)))",
		`(invoke "f" (i32.const 9))`,
	)
}

func TestReferenceToConstant(t *testing.T) {
	b := ir.NewBuilder("P")
	fb := b.Func("P", "seven", b.T.Int32, 0).Export("")
	fb.Body(b.Return(b.Ref(b.I32(7))))
	gb := b.Func("P", "addr", b.T.Int32, 0).Export("")
	x := gb.Param("x", b.T.Int32)
	gb.Body(b.Return(b.Ref(x)))

	out, bag := emitProgram(t, b.Program())
	mustContain(t, out.Text, "(return (i32.const 7))", "(return (untranslatable.Reference))")
	if n := strings.Count(out.Text, "untranslatable"); n != 1 {
		t.Fatalf("untranslatable forms = %d, want 1\n%s", n, out.Text)
	}
	if !hasCode(bag, diag.EmiUntranslatable) {
		t.Fatalf("expected %s warning, got %v", diag.EmiUntranslatable, bag.Items())
	}
}

func TestRemovedCallsLeaveNoLine(t *testing.T) {
	b := ir.NewBuilder("P")
	b.Func("P", "f", b.T.Int32, 0).Export("").Body(
		b.Eval(b.Printf("value {0}", b.I32(3))),
		b.Return(b.I32(1)),
	)
	out, _ := emitProgram(t, b.Program())
	mustContain(t, out.Text, "(result i32)\n    (return (i32.const 1))\n  )")
	if strings.Contains(out.Text, "(nop)") {
		t.Fatalf("removed call emitted a placeholder:\n%s", out.Text)
	}
}

func TestInvalidAssignTarget(t *testing.T) {
	b := ir.NewBuilder("P")
	b.Func("P", "f", b.T.Void, 0).Body(b.Eval(b.Assign(b.I32(1), b.I32(2))))
	out, err := EmitModule(context.Background(), b.Program(), Options{})
	if out != nil {
		t.Fatalf("structural error must not produce output")
	}
	if diag.CodeOf(err) != diag.EmiInvalidAssignTarget {
		t.Fatalf("expected %s, got %v", diag.EmiInvalidAssignTarget, err)
	}
}

func TestCastNarrowing(t *testing.T) {
	b := ir.NewBuilder("P")
	fb := b.Func("P", "f", b.T.Void, 0)
	x := fb.Param("x", b.T.Int32)
	s8 := fb.Local("s8", b.T.Int8)
	u8 := fb.Local("u8", b.T.Uint8)
	wide := fb.Local("wide", b.T.Int32)
	big := fb.Local("big", b.T.Int64)
	fb.Body(
		b.Declare(b.Init(s8, b.Cast(b.T.Int8, x))),
		b.Declare(b.Init(u8, b.Cast(b.T.Uint8, x))),
		b.Declare(b.Init(wide, b.Cast(b.T.Int32, u8))),
		b.Declare(b.Init(big, b.Cast(b.T.Int64, x))),
		b.Declare(b.Init(wide, b.Cast(b.T.Int32, big))),
		b.Eval(b.Unary(ir.OpPreInc, u8)),
	)
	out, _ := emitProgram(t, b.Program())
	mustContain(t, out.Text,
		"(set_local $s8 (i32.shr_s (i32.shl (get_local $x) (i32.const 24)) (i32.const 24)))",
		"(set_local $u8 (i32.and (get_local $x) (i32.const 255)))",
		"(set_local $wide (get_local $u8))",
		"(set_local $big (i64.extend_s/i32 (get_local $x)))",
		"(set_local $wide (i32.wrap/i64 (get_local $big)))",
		"(set_local $u8 (i32.and (i32.add (get_local $u8) (i32.const 1)) (i32.const 255)))",
	)
}

func TestOperators(t *testing.T) {
	b := ir.NewBuilder("P")
	fb := b.Func("P", "f", b.T.Void, 0)
	u := fb.Param("u", b.T.Uint32)
	l := fb.Param("l", b.T.Int64)
	d := fb.Param("d", b.T.Float64)
	r := fb.Local("r", b.T.Bool)
	fb.Body(
		b.Declare(b.Init(r, b.Binary(ir.OpLt, u, u))),
		b.Eval(b.Binary(ir.OpShrAssign, l, b.I32(3))),
		b.Eval(b.Assign(d, b.Unary(ir.OpNeg, d))),
		b.Declare(b.Init(r, b.Binary(ir.OpLogicalAnd, r, b.Bool(true)))),
		b.Eval(b.Assign(d, b.Binary(ir.OpRem, d, d))),
	)
	out, bag := emitProgram(t, b.Program())
	mustContain(t, out.Text,
		"(set_local $r (i32.lt_u (get_local $u) (get_local $u)))",
		"(set_local $l (i64.shr_s (get_local $l) (i64.extend_u/i32 (i32.const 3))))",
		"(set_local $d (f64.neg (get_local $d)))",
		"(set_local $r (if (get_local $r) (i32.const 1) (i32.const 0)))",
		"(set_local $d (untranslatable.BinaryOp))",
	)
	if !hasCode(bag, diag.EmiUntranslatable) {
		t.Fatalf("float remainder must be reported")
	}
}

func TestStaticInitAndFieldAccessors(t *testing.T) {
	out, _ := emitProgram(t, fixtures.StaticInit())
	mustContain(t, out.Text,
		"(func $__static_init",
		"(call $Counter__cctor)",
		`(export "__static_init" $__static_init)`,
		"(i32.store (i32.const 0) (i32.const 10))",
		"(func $__get_Counter_Start (result i32) (return (i32.load (i32.const 0))))",
		"(func $__set_Counter_Start (param $value i32) (i32.store (i32.const 0) (get_local $value)))",
		"(func $__get_Counter_Step",
	)
	if strings.Contains(out.Text, "$__set_Counter_Step") {
		t.Fatalf("read-only field must not get a setter")
	}
	top := out.Text[strings.LastIndex(out.Text, "\n)\n"):]
	if !strings.HasPrefix(strings.TrimSpace(top[3:]), `(invoke "__static_init")`) {
		t.Fatalf("static init must run before the first directive:\n%s", top)
	}
	if strings.Contains(out.Text, "(segment") {
		t.Fatalf("field slots get no segment")
	}
}

func TestEmitImports(t *testing.T) {
	out, _ := emitProgram(t, fixtures.Strcat())
	mustContain(t, out.Text,
		`(import $__stdout_open "harness" "stdout_open" (param i32))`,
		`(import $__stdout_write "harness" "stdout_write" (param i32 i32))`,
		"(call_import $__stdout_write (i32.const 0) (get_local $offset))",
		`(assert_heap_eq 0 "hello, world!")`,
	)
	if len(out.Imports) != 2 {
		t.Fatalf("imports = %v", out.Imports)
	}
}
