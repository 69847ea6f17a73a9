package sexpr

import (
	"strings"

	"ilwasm/internal/ir"
	"ilwasm/internal/types"
)

var importParams = map[ir.HarnessOp]string{
	ir.HarnessStdoutOpen:  "(param i32)",
	ir.HarnessStdoutWrite: "(param i32 i32)",
}

func (e *Emitter) emitImports() {
	if len(e.rewrite.Imports) == 0 {
		return
	}
	e.w.blank()
	for _, op := range e.rewrite.Imports {
		name := op.ImportName()
		e.w.line(form("import", "$"+name, `"harness"`, quote([]byte(strings.TrimPrefix(name, "__"))), importParams[op]))
	}
}

// emitStaticInit writes the dispatcher that runs static constructors in
// type declaration order.
func (e *Emitter) emitStaticInit() {
	if len(e.ctors) == 0 {
		return
	}
	e.w.blank()
	e.w.open("(func " + staticInitName)
	for _, ctor := range e.ctors {
		e.w.line(form("call", funcName(ctor.Ref())))
	}
	e.w.close()
	e.w.line(form("export", quote([]byte(staticInitExport)), staticInitName))
	e.exports = append(e.exports, staticInitExport)
}

func (e *Emitter) emitStringAccessors() {
	i32 := types.KeywordI32
	e.w.blank()
	for _, s := range e.arena.Strings() {
		e.w.line(form("func", stringFirstName(s.Offset), "(result i32)",
			form("return", intConst(i32, int64(s.FirstChar())))))
		e.w.line(form("func", stringLengthName(s.Offset), "(result i32)",
			form("return", form("i32.load", intConst(i32, int64(s.Offset))))))
	}
	e.w.line(form("func", stringLengthFunc, "(param $str i32)", "(result i32)",
		form("return", form("i32.load", form("i32.sub", "(get_local $str)", intConst(i32, 4))))))
}

func (e *Emitter) emitFieldAccessors() {
	fields := e.arena.Fields()
	if len(fields) == 0 {
		return
	}
	e.w.blank()
	for _, f := range fields {
		kw, ok := e.valueKeyword(f.Type)
		if !ok {
			continue
		}
		e.w.line(form("func", fieldGetterName(f.Field), form("result", string(kw)),
			form("return", fieldLoadForm(e.types, f.Offset, f.Type, kw))))
		if f.ReadOnly {
			continue
		}
		e.w.line(form("func", fieldSetterName(f.Field), form("param", "$value", string(kw)),
			fieldStoreForm(e.types, f.Offset, f.Type, kw, "(get_local $value)")))
	}
}

func (e *Emitter) emitExports() {
	first := true
	for _, b := range e.rewrite.Bodies {
		fn := b.Func
		if !fn.IsExported() || fn == e.entry || e.skipped[fn] {
			continue
		}
		if first {
			e.w.blank()
			first = false
		}
		e.w.line(form("export", quote([]byte(fn.Export())), funcName(fn.Ref())))
		e.exports = append(e.exports, fn.Export())
	}
}

// emitMemory declares linear memory with one segment per string. Field slots
// start zeroed and get no segment.
func (e *Emitter) emitMemory() {
	total := uitoa(e.arena.Total())
	e.w.blank()
	e.w.open("(memory " + total + " " + total)
	for _, s := range e.arena.Strings() {
		e.w.line(form("segment", uitoa(s.Offset), quote(s.Segment())))
	}
	e.w.close()
}
