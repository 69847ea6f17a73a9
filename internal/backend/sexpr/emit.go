package sexpr

import (
	"context"
	"errors"
	"fmt"

	"ilwasm/internal/diag"
	"ilwasm/internal/intrinsic"
	"ilwasm/internal/ir"
	"ilwasm/internal/layout"
	"ilwasm/internal/observ"
	"ilwasm/internal/trace"
	"ilwasm/internal/types"
)

// firstSyntheticLoop is where loop indices for loops without a source index
// start. Front ends number their loops from zero and stay far below it.
const firstSyntheticLoop ir.LoopIndex = 4096

// Options configures one module emission.
type Options struct {
	// Reporter receives warnings. Repeats per member are collapsed.
	Reporter diag.Reporter
	// Timer, if set, records the rewrite, layout and emit phases.
	Timer *observ.Timer
	// Target defaults to layout.Wasm32.
	Target *layout.Target
}

// Output is an emitted module.
type Output struct {
	Text       string
	HeapSize   uint32
	MemorySize uint32
	Exports    []string
	Imports    []ir.HarnessOp
	// Skipped lists functions left out because of unsupported signatures.
	Skipped []string
}

// Emitter owns every piece of per-program state: the rewritten bodies, the
// arena, the loop counter and the analysis results.
type Emitter struct {
	prog     *ir.Program
	types    *types.Interner
	builtins types.Builtins
	rewrite  *intrinsic.Result
	arena    *layout.Arena
	reporter diag.Reporter

	w        writer
	entry    *ir.Func
	skipped  map[*ir.Func]bool
	ctors    []*ir.Func
	nextLoop ir.LoopIndex
	exports  []string
}

// EmitModule lowers prog to module text. Structural errors abort the whole
// program and return a nil Output; unsupported constructs are reported and
// replaced by placeholders.
func EmitModule(ctx context.Context, prog *ir.Program, opts Options) (*Output, error) {
	if prog == nil {
		return nil, errors.New("sexpr: nil program")
	}
	span, ctx := trace.StartSpan(ctx, trace.ScopeProgram, prog.Name)
	defer span.End("")

	reporter := diag.NewDedupReporter(opts.Reporter)
	target := layout.Wasm32()
	if opts.Target != nil {
		target = *opts.Target
	}

	var res *intrinsic.Result
	if err := opts.Timer.Measure("rewrite", func() error {
		var err error
		res, err = intrinsic.Rewrite(ctx, prog, reporter)
		return err
	}); err != nil {
		return nil, err
	}

	entry := prog.EntryPoint()
	arena := layout.NewArena(layout.New(target, prog.Types), res.HeapSizeFor(entry))
	if err := opts.Timer.Measure("layout", func() error {
		lspan, _ := trace.StartSpan(ctx, trace.ScopePass, "layout")
		err := layout.Allocate(arena, prog, res.Bodies, reporter)
		lspan.WithCount("strings", len(arena.Strings())).WithCount("fields", len(arena.Fields())).End("")
		return err
	}); err != nil {
		return nil, err
	}

	e := &Emitter{
		prog:     prog,
		types:    prog.Types,
		builtins: prog.Types.Builtins(),
		rewrite:  res,
		arena:    arena,
		reporter: reporter,
		entry:    entry,
		skipped:  make(map[*ir.Func]bool),
		nextLoop: firstSyntheticLoop,
	}
	if err := opts.Timer.Measure("emit", func() error {
		return e.emit(ctx)
	}); err != nil {
		return nil, err
	}

	out := &Output{
		Text:       e.w.String(),
		HeapSize:   arena.HeapSize(),
		MemorySize: arena.Total(),
		Exports:    e.exports,
		Imports:    res.Imports,
	}
	for _, fn := range prog.Funcs() {
		if e.skipped[fn] {
			out.Skipped = append(out.Skipped, fn.QualifiedName())
		}
	}
	return out, nil
}

func (e *Emitter) emit(ctx context.Context) error {
	span, ctx := trace.StartSpan(ctx, trace.ScopePass, "emit")
	defer span.End("")

	e.analyze()
	e.emitHeader()
	e.emitImports()
	for _, b := range e.rewrite.Bodies {
		if b.Func == e.entry || e.skipped[b.Func] {
			continue
		}
		if err := e.emitFunction(ctx, b); err != nil {
			return err
		}
	}
	e.emitStaticInit()
	total := e.arena.Total()
	if total > 0 {
		e.emitStringAccessors()
		e.emitFieldAccessors()
	}
	e.emitExports()
	if total > 0 {
		e.emitMemory()
	}
	e.w.depth = 0
	e.w.line(")")
	if e.entry != nil {
		if err := e.emitEntryPoint(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (e *Emitter) emitHeader() {
	e.w.linef(";; %s", e.prog.Name)
	e.w.blank()
	e.w.open("(module")
}

// syntheticLoopIndex hands out the next index from the program-wide counter.
func (e *Emitter) syntheticLoopIndex() ir.LoopIndex {
	idx := e.nextLoop
	e.nextLoop++
	return idx
}

// warn reports a non-fatal problem against member.
func (e *Emitter) warn(code diag.Code, member string, at *ir.Expr, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	b := diag.ReportWarning(e.reporter, code, at.Span, msg)
	if member != "" {
		b = b.ForMember(member)
	}
	b.Emit()
}
