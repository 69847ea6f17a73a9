package sexpr

import (
	"context"
	"strings"

	"ilwasm/internal/ir"
	"ilwasm/internal/trace"
	"ilwasm/internal/types"
)

type scopeKind uint8

const (
	scopeLoop scopeKind = iota + 1
	scopeSwitch
)

// branchScope is an enclosing loop or switch that break/continue can target.
type branchScope struct {
	kind  scopeKind
	index ir.LoopIndex
}

type funcEmitter struct {
	e      *Emitter
	fn     *ir.Func
	member string
	w      *writer

	// locals maps declared names to their types. Nil at top level, where
	// every name is accepted.
	locals      map[string]types.TypeID
	labels      *labelTable
	activeGroup []int
	scopes      []branchScope
	loopIndex   map[ir.NodeID]ir.LoopIndex
}

func (e *Emitter) newFuncEmitter(fn *ir.Func, labels *labelTable) *funcEmitter {
	return &funcEmitter{
		e:         e,
		fn:        fn,
		member:    fn.QualifiedName(),
		w:         &e.w,
		labels:    labels,
		loopIndex: make(map[ir.NodeID]ir.LoopIndex),
	}
}

func (e *Emitter) emitFunction(ctx context.Context, b ir.Body) error {
	fn := b.Func
	span, _ := trace.StartSpan(ctx, trace.ScopeFunction, fn.QualifiedName())
	defer span.End("")

	labels, err := collectLabels(b.Root)
	if err != nil {
		return inMember(err, fn)
	}
	fe := e.newFuncEmitter(fn, labels)
	fe.locals = make(map[string]types.TypeID, len(fn.Params)+len(fn.Locals))

	header := []string{"func", funcName(fn.Ref())}
	for _, p := range fn.Params {
		kw, _ := e.valueKeyword(p.Type)
		fe.locals[p.Name] = p.Type
		header = append(header, form("param", localName(p.Name), string(kw)))
	}
	for _, l := range fn.Locals {
		if _, dup := fe.locals[l.Name]; dup {
			continue
		}
		kw, ok := e.valueKeyword(l.Type)
		if !ok {
			continue
		}
		fe.locals[l.Name] = l.Type
		header = append(header, form("local", localName(l.Name), string(kw)))
	}
	for g := 0; g < labels.groups; g++ {
		header = append(header, form("local", currentLabelLocal(g), "i32"))
	}
	if kw, ok := e.valueKeyword(fn.Result); ok {
		header = append(header, form("result", string(kw)))
	}

	e.w.blank()
	e.w.open("(" + strings.Join(header, " "))
	if err := fe.stmtList(bodyStmts(b.Root)); err != nil {
		return inMember(err, fn)
	}
	e.w.close()
	return nil
}

// emitEntryPoint writes the entry point's statements at top level, after
// the module.
func (e *Emitter) emitEntryPoint(ctx context.Context) error {
	root := e.rewrite.Body(e.entry)
	span, _ := trace.StartSpan(ctx, trace.ScopeFunction, e.entry.QualifiedName())
	defer span.End("")

	labels, err := collectLabels(root)
	if err != nil {
		return inMember(err, e.entry)
	}
	fe := e.newFuncEmitter(e.entry, labels)
	e.w.blank()
	if len(e.ctors) > 0 {
		e.w.line(form("invoke", `"`+staticInitExport+`"`))
	}
	if err := fe.stmtList(bodyStmts(root)); err != nil {
		return inMember(err, e.entry)
	}
	return nil
}

// bodyStmts returns the statements of a function body without its outer
// block.
func bodyStmts(root *ir.Stmt) []*ir.Stmt {
	if root == nil {
		return nil
	}
	if b, ok := root.Data.(*ir.BlockData); ok {
		return b.Stmts
	}
	return []*ir.Stmt{root}
}

// topLevel reports whether fe emits the entry point.
func (fe *funcEmitter) topLevel() bool {
	return fe.locals == nil
}
