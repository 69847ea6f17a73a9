package fixtures

import "ilwasm/internal/ir"

// Strcat concatenates string literals into the byte heap and writes the
// result through the harness output sink.
func Strcat() *ir.Program {
	b := ir.NewBuilder("Strcat")
	t := b.T
	src := newLines(b, "Strcat.cs")

	strcat := b.Func(program, "strcat", t.Int32, 0)
	dest := strcat.Param("dest", t.Int32)
	str := strcat.Param("src", t.String)
	i := strcat.Local("i", t.Int32)
	l := strcat.Local("l", t.Int32)
	strcat.Body(
		ir.At(b.For(
			[]*ir.Stmt{b.Declare(b.Init(i, b.I32(0)), b.Init(l, b.StrLen(str)))},
			b.Binary(ir.OpLt, i, l),
			[]*ir.Expr{b.Unary(ir.OpPostInc, i)},
			b.Eval(b.HeapSet(ir.TypeHeapU8, b.Cast(t.Uint8, b.StrChar(str, i)), dest, i)),
		), src.at(9)),
		b.Eval(b.HeapSet(ir.TypeHeapU8, b.U8(0), dest, b.StrLen(str))),
		b.Return(b.Binary(ir.OpAdd, dest, b.StrLen(str))),
	)

	build := b.Func(program, "buildString", t.Void, 0).Export("")
	offset := build.Local("offset", t.Int32)
	build.Body(
		b.Declare(b.Init(offset, b.CallFunc(strcat.Func(), b.I32(0), b.Str("hello")))),
		b.Eval(b.Assign(offset, b.CallFunc(strcat.Func(), offset, b.Str(", ")))),
		b.Eval(b.Assign(offset, b.CallFunc(strcat.Func(), offset, b.Str("world")))),
		b.Eval(b.Assign(offset, b.CallFunc(strcat.Func(), offset, b.Str("!")))),
		ir.At(b.Eval(b.SetStdout(b.Str("strcat.log"))), src.at(24)),
		b.Eval(b.Write(b.I32(0), offset)),
	)

	b.Func(program, "Main", t.Void, ir.FuncEntryPoint).Body(
		b.Eval(b.SetHeapSize(b.I32(1024))),
		b.Eval(b.Invoke("buildString")),
		b.Eval(b.AssertHeapEq(0, "hello, world!")),
	)
	return b.Program()
}
