package fixtures

import "ilwasm/internal/ir"

// CountUp writes 0..count-1 into consecutive i32 heap slots.
func CountUp() *ir.Program {
	b := ir.NewBuilder("CountUp")
	t := b.T
	src := newLines(b, "CountUp.cs")

	countUp := b.Func(program, "countUp", t.Void, 0).Export("")
	outOffset := countUp.Param("outOffset", t.Int32)
	count := countUp.Param("count", t.Int32)
	i := countUp.Local("i", t.Int32)
	countUp.Body(
		ir.At(b.For(
			[]*ir.Stmt{b.Declare(b.Init(i, b.I32(0)))},
			b.Binary(ir.OpLt, i, count),
			[]*ir.Expr{b.Unary(ir.OpPostInc, i)},
			b.Eval(b.HeapSet(ir.TypeHeapI32, i, outOffset, i)),
		), src.at(10)),
	)

	readI32 := b.Func(program, "readI32", t.Int32, 0).Export("")
	base := readI32.Param("base", t.Int32)
	offset := readI32.Param("offset", t.Int32)
	readI32.Body(ir.At(b.Return(b.HeapGet(ir.TypeHeapI32, base, offset)), src.at(16)))

	check := func(want, base, offset int64) *ir.Stmt {
		return b.Eval(b.AssertEq(b.I32(want), "readI32", b.I32(base), b.I32(offset)))
	}
	b.Func(program, "Main", t.Void, ir.FuncEntryPoint).Body(
		ir.At(b.Eval(b.SetHeapSize(b.I32(4096))), src.at(20)),
		b.Eval(b.Invoke("countUp", b.I32(0), b.I32(32))),
		b.Eval(b.Invoke("countUp", b.I32(16), b.I32(4))),
		check(0, 0, 0),
		check(2, 0, 2),
		check(31, 0, 31),
		check(0, 16, 0),
		check(3, 16, 3),
	)
	return b.Program()
}
