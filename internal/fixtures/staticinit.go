package fixtures

import "ilwasm/internal/ir"

// StaticInit runs a static constructor before the first directive and
// reads a read-only field it initialized.
func StaticInit() *ir.Program {
	b := ir.NewBuilder("StaticInit")
	t := b.T

	const counter = "Counter"
	b.StaticField(counter, "Start", t.Int32, false)
	b.StaticField(counter, "Step", t.Int32, true)
	start := b.Field(counter, "Start")
	step := b.Field(counter, "Step")

	b.Func(counter, ".cctor", t.Void, ir.FuncStaticCtor).Body(
		b.Eval(b.Assign(start, b.I32(10))),
		b.Eval(b.Assign(step, b.I32(3))),
	)
	b.Func(counter, "Next", t.Int32, 0).Export("next").Body(
		b.Eval(b.Binary(ir.OpAddAssign, start, step)),
		b.Return(start),
	)

	b.Func(program, "Main", t.Void, ir.FuncEntryPoint).Body(
		b.Eval(b.AssertReturn(b.I32(13), "next")),
		b.Eval(b.AssertReturn(b.I32(16), "next")),
	)
	return b.Program()
}
