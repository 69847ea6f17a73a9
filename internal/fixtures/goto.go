package fixtures

import "ilwasm/internal/ir"

const (
	gotoResultA   = 1
	gotoResultC   = 3
	gotoMaxResult = 128
)

// Goto jumps from a label group nested in a loop back to a label of the
// enclosing group, recording which labels ran in the byte heap.
func Goto() *ir.Program {
	b := ir.NewBuilder("Goto")
	t := b.T
	src := newLines(b, "Goto.cs")

	b.StaticField(program, "_ResultCount", t.Int32, false)
	resultCount := b.Property(program, "ResultCount", t.Int32)

	getter := b.Func(program, "get_ResultCount", t.Int32, 0).Export("")
	getter.Body(b.Return(b.Field(program, "_ResultCount")))
	setter := b.Func(program, "set_ResultCount", t.Void, 0)
	value := setter.Param("value", t.Int32)
	setter.Body(b.Eval(b.Assign(b.Field(program, "_ResultCount"), value)))

	clear := clearFunc(b)

	addResult := b.Func(program, "AddResult", t.Void, 0)
	result := addResult.Param("result", t.Uint8)
	count := addResult.Local("count", t.Int32)
	addResult.Body(
		b.Declare(b.Init(count, resultCount)),
		b.Eval(b.HeapSet(ir.TypeHeapU8, result, b.I32(0), count)),
		b.Eval(b.Assign(resultCount, b.Binary(ir.OpAdd, count, b.I32(1)))),
	)

	inner := b.Func(program, "GotosInner", t.Void, 0)
	i := inner.Local("i", t.Int32)
	inner.Body(
		b.Declare(b.Init(i, b.I32(0))),
		ir.At(b.LabelGroup(
			b.Labeled("a",
				b.Eval(b.Binary(ir.OpAddAssign, i, b.I32(1))),
				b.Eval(b.CallFunc(addResult.Func(), b.U8(gotoResultA))),
				b.For(nil, b.Binary(ir.OpLt, i, b.I32(16)), []*ir.Expr{b.Unary(ir.OpPostInc, i)},
					ir.At(b.LabelGroup(
						b.Labeled("entry",
							b.If(b.Binary(ir.OpEq, i, b.I32(8)), b.Goto("a"), b.Goto("c")),
						),
						b.Labeled("c",
							b.Eval(b.CallFunc(addResult.Func(), b.U8(gotoResultC))),
						),
					), src.at(38)),
				),
			),
		), src.at(31)),
	)

	gotos := b.Func(program, "Gotos", t.Void, 0).Export("gotos")
	gotos.Body(
		b.Eval(b.Assign(resultCount, b.I32(0))),
		b.Eval(b.CallFunc(clear, b.I32(0), b.I32(gotoMaxResult))),
		b.Eval(b.CallFunc(inner.Func())),
	)

	getResult := b.Func(program, "GetResult", t.Int32, 0).Export("getResult")
	index := getResult.Param("index", t.Int32)
	getResult.Body(b.Return(b.Cast(t.Int32, b.HeapGet(ir.TypeHeapU8, b.I32(0), index))))

	stmts := []*ir.Stmt{
		b.Eval(b.SetHeapSize(b.I32(1024))),
		b.Eval(b.Invoke("gotos")),
		b.Eval(b.AssertReturn(b.I32(16), "get_ResultCount")),
	}
	for n := int64(0); n < 16; n++ {
		want := gotoResultC
		if n == 0 || n == 8 {
			want = gotoResultA
		}
		stmts = append(stmts, b.Eval(b.AssertReturn(b.I32(int64(want)), "getResult", b.I32(n))))
	}
	stmts = append(stmts, b.Eval(b.AssertReturn(b.I32(0), "getResult", b.I32(16))))
	b.Func(program, "Main", t.Void, ir.FuncEntryPoint).Body(stmts...)
	return b.Program()
}

// clearFunc declares Clear(offset, count), zeroing count heap bytes.
func clearFunc(b *ir.Builder) *ir.Func {
	t := b.T
	fb := b.Func(program, "Clear", t.Void, 0)
	offset := fb.Param("offset", t.Int32)
	count := fb.Param("count", t.Int32)
	i := fb.Local("i", t.Int32)
	return fb.Body(
		b.For(
			[]*ir.Stmt{b.Declare(b.Init(i, b.I32(0)))},
			b.Binary(ir.OpLt, i, count),
			[]*ir.Expr{b.Unary(ir.OpPostInc, i)},
			b.Eval(b.HeapSet(ir.TypeHeapU8, b.U8(0), offset, i)),
		),
	)
}
