package ir

import (
	"bytes"
	"strings"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"ilwasm/internal/diag"
)

func sampleProgram() *Program {
	b := NewBuilder("Sample")
	b.StaticField("Program", "Counter", b.T.Int32, false)
	fb := b.Func("Program", "sum", b.T.Int32, 0).Export("")
	n := fb.Param("n", b.T.Int32)
	acc := fb.Local("acc", b.T.Int32)
	i := fb.Local("i", b.T.Int32)
	fb.Body(
		b.Declare(b.Init(acc, b.I32(0))),
		b.For([]*Stmt{b.Declare(b.Init(i, b.I32(0)))},
			b.Binary(OpLt, i, n),
			[]*Expr{b.Unary(OpPostInc, i)},
			b.Eval(b.Binary(OpAddAssign, acc, i)),
		),
		b.Eval(b.Assign(b.Field("Program", "Counter"), acc)),
		b.Return(acc),
	)
	main := b.Func("Program", "Main", b.T.Void, FuncEntryPoint)
	main.Body(
		b.Eval(b.SetHeapSize(b.I32(64))),
		b.Eval(b.AssertReturn(b.I32(6), "sum", b.I32(4))),
	)
	return b.Program()
}

func dumpString(t *testing.T, prog *Program) string {
	t.Helper()
	var buf bytes.Buffer
	if err := Dump(&buf, prog); err != nil {
		t.Fatalf("dump: %v", err)
	}
	return buf.String()
}

func TestCodecPreservesTree(t *testing.T) {
	prog := sampleProgram()
	data, err := Marshal(prog)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := dumpString(t, prog)
	if have := dumpString(t, got); have != want {
		t.Fatalf("decoded program differs:\n--- want\n%s\n--- got\n%s", want, have)
	}
	if got.EntryPoint() == nil || got.EntryPoint().Name != "Main" {
		t.Fatalf("entry point lost")
	}
	if got.Types.String(got.Funcs()[0].Result) != "int32" {
		t.Fatalf("result type = %s", got.Types.String(got.Funcs()[0].Result))
	}
}

func TestDecodeRejectsDuplicateIDs(t *testing.T) {
	prog := sampleProgram()
	body := prog.Type("Program").Funcs[0].Body.Data.(*BlockData)
	body.Stmts[1].ID = body.Stmts[0].ID
	data, err := Marshal(prog)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	_, err = Unmarshal(data)
	if diag.CodeOf(err) != diag.IRDuplicateNodeID {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
}

func TestDecodeRejectsUnknownKind(t *testing.T) {
	prog := sampleProgram()
	ret := prog.Type("Program").Funcs[0].Body.Data.(*BlockData).Stmts[3]
	ret.Data.(*ReturnData).Value = &Expr{Kind: ExprKind(200), Data: &LiteralData{Kind: LiteralInt}}
	data, err := Marshal(prog)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	_, err = Unmarshal(data)
	if diag.CodeOf(err) != diag.IRUnknownKind {
		t.Fatalf("expected unknown kind error, got %v", err)
	}
}

func TestDecodeRejectsSchema(t *testing.T) {
	data, err := msgpack.Marshal(&document{Schema: SchemaVersion + 1})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := Unmarshal(data); diag.CodeOf(err) != diag.IRSchemaMismatch {
		t.Fatalf("expected schema error, got %v", err)
	}
}

func TestTransformSharesUntouchedSubtrees(t *testing.T) {
	prog := sampleProgram()
	fn := prog.Type("Program").Funcs[0]
	out, err := TransformStmt(fn.Body, func(e *Expr) (*Expr, error) {
		if v, ok := e.IntConstant(); ok && v == 0 {
			return &Expr{Kind: ExprLiteral, Type: e.Type, Data: &LiteralData{Kind: LiteralInt, IntValue: 100}}, nil
		}
		return e, nil
	})
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if out == fn.Body {
		t.Fatalf("expected a new body")
	}
	orig := fn.Body.Data.(*BlockData).Stmts
	rewritten := out.Data.(*BlockData).Stmts
	if rewritten[3] != orig[3] {
		t.Errorf("return statement should be shared")
	}
	if rewritten[0] == orig[0] || rewritten[0].ID != orig[0].ID {
		t.Errorf("declaration should be copied with its id")
	}
	if !strings.Contains(dumpString(t, prog), "acc = 0") {
		t.Errorf("input tree was modified")
	}
}

func TestWalkVisitsInSourceOrder(t *testing.T) {
	prog := sampleProgram()
	var names []string
	WalkStmt(prog.Type("Program").Funcs[0].Body, Visitor{Expr: func(e *Expr) bool {
		if v, ok := e.Data.(*VariableData); ok {
			names = append(names, v.Name)
		}
		return true
	}})
	want := "i n acc i i acc acc"
	if got := strings.Join(names, " "); got != want {
		t.Fatalf("visit order = %q, want %q", got, want)
	}
}

func TestIsTerminal(t *testing.T) {
	b := NewBuilder("T")
	cases := []struct {
		stmt *Stmt
		want bool
	}{
		{b.Goto("a"), true},
		{b.Return(nil), true},
		{b.Block(b.Eval(b.I32(1)), b.Break()), true},
		{b.Block(b.Break(), b.Eval(b.I32(1))), false},
		{b.Eval(b.I32(1)), false},
		{b.Block(), false},
	}
	for i, tc := range cases {
		if got := tc.stmt.IsTerminal(); got != tc.want {
			t.Errorf("case %d: IsTerminal = %v, want %v", i, got, tc.want)
		}
	}
}
