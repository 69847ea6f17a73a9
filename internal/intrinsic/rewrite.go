package intrinsic

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"fortio.org/safecast"

	"ilwasm/internal/diag"
	"ilwasm/internal/ir"
	"ilwasm/internal/trace"
	"ilwasm/internal/types"
)

// Result is the rewritten program.
type Result struct {
	// Bodies holds every function in program order with its rewritten tree.
	Bodies []ir.Body
	// HeapSizes maps a declaring type to the size its SetHeapSize call asked for.
	HeapSizes map[string]uint32
	// Imports lists the harness calls the program uses, sorted.
	Imports []ir.HarnessOp
}

// HeapSizeFor returns the declared heap size of the entry point's type, or
// the largest declared size when there is no entry point.
func (r *Result) HeapSizeFor(entry *ir.Func) uint32 {
	if entry != nil {
		return r.HeapSizes[entry.DeclaringType]
	}
	var max uint32
	for _, n := range r.HeapSizes {
		if n > max {
			max = n
		}
	}
	return max
}

// Body returns the rewritten tree of fn.
func (r *Result) Body(fn *ir.Func) *ir.Stmt {
	for _, b := range r.Bodies {
		if b.Func == fn {
			return b.Root
		}
	}
	return nil
}

type rewriter struct {
	prog      *ir.Program
	builtins  types.Builtins
	reporter  diag.Reporter
	caller    *ir.Func
	heapSizes map[string]uint32
	imports   map[ir.HarnessOp]struct{}
}

// Rewrite runs over every function body, the entry point and static
// constructors included. Calls it does not recognize are left alone.
func Rewrite(ctx context.Context, prog *ir.Program, reporter diag.Reporter) (*Result, error) {
	span, ctx := trace.StartSpan(ctx, trace.ScopePass, "rewrite")
	defer span.End("")

	rw := &rewriter{
		prog:      prog,
		builtins:  prog.Types.Builtins(),
		reporter:  reporter,
		heapSizes: make(map[string]uint32),
		imports:   make(map[ir.HarnessOp]struct{}),
	}
	res := &Result{HeapSizes: rw.heapSizes}
	for _, b := range prog.Bodies() {
		rw.caller = b.Func
		root, err := ir.TransformStmt(b.Root, rw.rewriteExpr)
		if err != nil {
			var de *diag.Error
			if errors.As(err, &de) {
				return nil, de.InMember(b.Func.QualifiedName())
			}
			return nil, fmt.Errorf("%s: %w", b.Func.QualifiedName(), err)
		}
		res.Bodies = append(res.Bodies, ir.Body{Func: b.Func, Root: root})
	}
	for op := range rw.imports {
		res.Imports = append(res.Imports, op)
	}
	sort.Slice(res.Imports, func(i, j int) bool { return res.Imports[i] < res.Imports[j] })
	trace.Point(ctx, trace.ScopePass, "rewrite.done", fmt.Sprintf("%d functions", len(res.Bodies)))
	return res, nil
}

func (rw *rewriter) rewriteExpr(e *ir.Expr) (*ir.Expr, error) {
	call, ok := e.Data.(*ir.CallData)
	if !ok {
		return e, nil
	}
	handler, ok := handlers[call.Target.String()]
	if !ok {
		return e, nil
	}
	return handler(rw, e, call)
}

func (rw *rewriter) setHeapSize(e *ir.Expr, size *ir.Expr) error {
	owner := rw.caller.DeclaringType
	if _, dup := rw.heapSizes[owner]; dup {
		return diag.Errorf(diag.RwDuplicateHeapSize, e.Span, "heap size for type %s already set", owner)
	}
	v, ok := size.IntConstant()
	if !ok {
		return diag.Errorf(diag.RwNonLiteralHeapSize, e.Span, "SetHeapSize's argument must be an int literal")
	}
	n, err := safecast.Conv[uint32](v)
	if err != nil {
		return diag.Errorf(diag.RwNonLiteralHeapSize, e.Span, "heap size %d out of range", v)
	}
	rw.heapSizes[owner] = n
	return nil
}
