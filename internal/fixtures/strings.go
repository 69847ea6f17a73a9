package fixtures

import "ilwasm/internal/ir"

// Strings reads lengths and characters out of the string table and
// compares strings, including null.
func Strings() *ir.Program {
	b := ir.NewBuilder("Strings")
	t := b.T
	src := newLines(b, "Strings.cs")

	getAString := b.Func(program, "getAString", t.String, 0)
	index := getAString.Param("index", t.Int32)
	getAString.Body(ir.At(b.Switch(index,
		b.Case([]*ir.Expr{b.I32(1)}, b.Return(b.Str("hello"))),
		b.Case([]*ir.Expr{b.I32(2)}, b.Return(b.Str("world!"))),
		b.Case([]*ir.Expr{b.I32(3)}, b.Return(b.Str("\x00\r\n\x07"))),
		b.DefaultCase(b.Return(b.Null(t.String))),
	), src.at(9)))

	strcmp := b.Func(program, "strcmp", t.Int32, 0)
	lhs := strcmp.Param("lhs", t.String)
	rhs := strcmp.Param("rhs", t.String)
	length := strcmp.Local("length", t.Int32)
	i := strcmp.Local("i", t.Int32)
	chL := strcmp.Local("chL", t.Char)
	chR := strcmp.Local("chR", t.Char)
	null := b.Null(t.String)
	strcmp.Body(
		b.If(b.Binary(ir.OpEq, lhs, null),
			b.If(b.Binary(ir.OpEq, rhs, null), b.Return(b.I32(0)), b.Return(b.I32(-1))),
			b.If(b.Binary(ir.OpEq, rhs, null), b.Return(b.I32(1)), nil),
		),
		b.Declare(b.Init(length, b.StrLen(lhs))),
		b.If(b.Binary(ir.OpLt, b.StrLen(rhs), length), b.Eval(b.Assign(length, b.StrLen(rhs))), nil),
		ir.At(b.For(
			[]*ir.Stmt{b.Declare(b.Init(i, b.I32(0)))},
			b.Binary(ir.OpLt, i, length),
			[]*ir.Expr{b.Unary(ir.OpPostInc, i)},
			b.Declare(b.Init(chL, b.StrChar(lhs, i))),
			b.Declare(b.Init(chR, b.StrChar(rhs, i))),
			b.If(b.Binary(ir.OpLt, chL, chR),
				b.Return(b.I32(-1)),
				b.If(b.Binary(ir.OpGt, chL, chR), b.Return(b.I32(1)), nil)),
		), src.at(35)),
		b.Return(b.I32(0)),
	)

	compare := b.Func(program, "compareStrings", t.Int32, 0).Export("")
	lhsIndex := compare.Param("lhsIndex", t.Int32)
	rhsIndex := compare.Param("rhsIndex", t.Int32)
	compare.Body(b.Return(b.CallFunc(strcmp.Func(),
		b.CallFunc(getAString.Func(), lhsIndex),
		b.CallFunc(getAString.Func(), rhsIndex))))

	getLength := b.Func(program, "getStringLength", t.Int32, 0).Export("")
	stringIndex := getLength.Param("stringIndex", t.Int32)
	str := getLength.Local("str", t.String)
	getLength.Body(
		b.Declare(b.Init(str, b.CallFunc(getAString.Func(), stringIndex))),
		b.Return(b.StrLen(str)),
	)

	readChar := b.Func(program, "readStringChar", t.Char, 0).Export("")
	charIndex := readChar.Param("stringIndex", t.Int32)
	offset := readChar.Param("offset", t.Int32)
	charStr := readChar.Local("str", t.String)
	readChar.Body(
		b.Declare(b.Init(charStr, b.CallFunc(getAString.Func(), charIndex))),
		b.Return(b.StrChar(charStr, offset)),
	)

	length2 := func(want, idx int64) *ir.Stmt {
		return b.Eval(b.AssertEq(b.I32(want), "getStringLength", b.I32(idx)))
	}
	char := func(want rune, idx, off int64) *ir.Stmt {
		return b.Eval(b.AssertEq(b.Char(want), "readStringChar", b.I32(idx), b.I32(off)))
	}
	cmp := func(want, l, r int64) *ir.Stmt {
		return b.Eval(b.AssertEq(b.I32(want), "compareStrings", b.I32(l), b.I32(r)))
	}
	b.Func(program, "Main", t.Void, ir.FuncEntryPoint).Body(
		length2(5, 1),
		length2(6, 2),
		char('h', 1, 0),
		char('l', 1, 2),
		char('w', 2, 0),
		char('l', 2, 3),
		char('!', 2, 5),
		cmp(0, 0, 0),
		cmp(-1, 0, 1),
		cmp(1, 2, 0),
		cmp(0, 1, 1),
		cmp(-1, 1, 2),
		cmp(1, 2, 1),
		char(0, 3, 0),
		char('\r', 3, 1),
		char('\n', 3, 2),
		char(7, 3, 3),
	)
	return b.Program()
}
