package sexpr

import (
	"ilwasm/internal/diag"
	"ilwasm/internal/ir"
	"ilwasm/internal/types"
)

// analyze finds the functions that cannot be emitted because a parameter or
// the result has no wasm type, and the static constructors the dispatcher
// must call.
func (e *Emitter) analyze() {
	for _, d := range e.prog.Decls {
		if ctor := d.StaticCtor(); ctor != nil {
			e.ctors = append(e.ctors, ctor)
		}
	}
	for _, fn := range e.prog.Funcs() {
		if fn == e.entry {
			continue
		}
		if reason, ok := e.unsupportedSignature(fn); ok {
			e.skipped[fn] = true
			diag.ReportWarning(e.reporter, diag.EmiSkippedFunction, fn.Span,
				"function "+fn.QualifiedName()+" skipped: "+reason).
				ForMember(fn.QualifiedName()).Emit()
		}
	}
	kept := e.ctors[:0]
	for _, ctor := range e.ctors {
		if !e.skipped[ctor] {
			kept = append(kept, ctor)
		}
	}
	e.ctors = kept
}

func (e *Emitter) unsupportedSignature(fn *ir.Func) (string, bool) {
	if !fn.IsStatic() {
		return "instance methods are not supported", true
	}
	for _, p := range fn.Params {
		if kw, ok := e.types.Keyword(p.Type); !ok || kw.IsVoid() {
			return "parameter " + p.Name + " has unsupported type " + e.types.String(p.Type), true
		}
	}
	if _, ok := e.types.Keyword(fn.Result); !ok {
		return "result type " + e.types.String(fn.Result) + " is unsupported", true
	}
	return "", false
}

// valueKeyword is the keyword of a value of type t, or false for void and
// unsupported types.
func (e *Emitter) valueKeyword(t types.TypeID) (types.Keyword, bool) {
	kw, ok := e.types.Keyword(t)
	if !ok || kw.IsVoid() {
		return "", false
	}
	return kw, true
}
