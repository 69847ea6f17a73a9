package fixtures

import "ilwasm/internal/ir"

const (
	sieveHeapSize       = 1024 * 128
	sieveMaxResultCount = 4096
	sieveResultCount    = 0
	sieveResult         = 4
	sieveScratch        = sieveMaxResultCount*4 + 4
)

// Sieve finds the primes below its argument.
func Sieve() *ir.Program {
	b := ir.NewBuilder("Sieve")
	t := b.T
	src := newLines(b, "Sieve.cs")

	clear := clearFunc(b)

	addResult := b.Func(program, "AddResult", t.Void, 0)
	result := addResult.Param("result", t.Int32)
	count := addResult.Local("count", t.Int32)
	addResult.Body(
		b.Declare(b.Init(count, b.HeapGet(ir.TypeHeapI32, b.I32(sieveResultCount)))),
		b.Eval(b.HeapSet(ir.TypeHeapI32, result, b.I32(sieveResult), count)),
		b.Eval(b.HeapSet(ir.TypeHeapI32, b.Binary(ir.OpAdd, count, b.I32(1)), b.I32(sieveResultCount))),
	)

	sieve := b.Func(program, "Sieve", t.Void, 0).Export("sieve")
	target := sieve.Param("target", t.Int32)
	squareRoot := sieve.Local("squareRoot", t.Float64)
	candidate := sieve.Local("candidate", t.Int32)
	multiple := sieve.Local("multiple", t.Int32)
	sieve.Body(
		b.Eval(b.HeapSet(ir.TypeHeapI32, b.I32(0), b.I32(sieveResultCount))),
		b.Eval(b.CallFunc(clear, b.I32(sieveResult), b.I32(sieveMaxResultCount*4))),
		b.Eval(b.CallFunc(clear, b.I32(sieveScratch), target)),
		b.Declare(b.Init(squareRoot, b.MathCall("Sqrt", b.Cast(t.Float64, target)))),
		b.Eval(b.CallFunc(addResult.Func(), b.I32(2))),
		ir.At(b.For(
			[]*ir.Stmt{b.Declare(b.Init(candidate, b.I32(3)))},
			b.Binary(ir.OpLt, candidate, target),
			[]*ir.Expr{b.Binary(ir.OpAddAssign, candidate, b.I32(2))},
			b.If(
				b.Binary(ir.OpNe, b.Cast(t.Int32, b.HeapGet(ir.TypeHeapU8, b.I32(sieveScratch), candidate)), b.I32(0)),
				b.Continue(), nil),
			b.If(b.Binary(ir.OpLt, b.Cast(t.Float64, candidate), squareRoot),
				b.Block(b.For(
					[]*ir.Stmt{b.Declare(b.Init(multiple, b.Binary(ir.OpMul, candidate, candidate)))},
					b.Binary(ir.OpLt, multiple, target),
					[]*ir.Expr{b.Binary(ir.OpAddAssign, multiple, b.Binary(ir.OpMul, b.I32(2), candidate))},
					b.Eval(b.HeapSet(ir.TypeHeapU8, b.U8(1), b.I32(sieveScratch), multiple)),
				)), nil),
			b.Eval(b.CallFunc(addResult.Func(), candidate)),
		), src.at(37)),
	)

	b.Func(program, "GetResultCount", t.Int32, 0).Export("getResultCount").
		Body(b.Return(b.HeapGet(ir.TypeHeapI32, b.I32(sieveResultCount))))

	getResult := b.Func(program, "GetResult", t.Int32, 0).Export("getResult")
	index := getResult.Param("index", t.Int32)
	getResult.Body(b.Return(b.HeapGet(ir.TypeHeapI32, b.I32(sieveResult), index)))

	stmts := []*ir.Stmt{
		b.Eval(b.SetHeapSize(b.I32(sieveHeapSize))),
		b.Eval(b.Invoke("sieve", b.I32(24))),
		b.Eval(b.AssertEq(b.I32(9), "getResultCount")),
	}
	for n, p := range []int64{2, 3, 5, 7, 11, 13, 17, 19, 23} {
		stmts = append(stmts, b.Eval(b.AssertEq(b.I32(p), "getResult", b.I32(int64(n)))))
	}
	b.Func(program, "Main", t.Void, ir.FuncEntryPoint).Body(stmts...)
	return b.Program()
}
