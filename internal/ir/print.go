package ir

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"ilwasm/internal/types"
)

// Printer dumps a program as an indented tree.
type Printer struct {
	w        io.Writer
	interner *types.Interner
	indent   int
	err      error
}

// NewPrinter creates a printer resolving type names through interner.
func NewPrinter(w io.Writer, interner *types.Interner) *Printer {
	return &Printer{w: w, interner: interner}
}

// Dump writes prog to w.
func Dump(w io.Writer, prog *Program) error {
	return NewPrinter(w, prog.Types).PrintProgram(prog)
}

// PrintProgram prints every declaration of prog.
func (p *Printer) PrintProgram(prog *Program) error {
	p.printf("program %s\n", prog.Name)
	for _, d := range prog.Decls {
		p.printf("\ntype %s\n", d.Name)
		p.indent++
		for _, f := range d.Fields {
			ro := ""
			if f.ReadOnly {
				ro = " readonly"
			}
			p.line("static%s %s: %s", ro, f.Name, p.typeStr(f.Type))
		}
		for _, fn := range d.Funcs {
			p.printFunc(fn)
		}
		p.indent--
	}
	return p.err
}

func (p *Printer) printFunc(fn *Func) {
	params := make([]string, len(fn.Params))
	for i, l := range fn.Params {
		params[i] = l.Name + ": " + p.typeStr(l.Type)
	}
	var attrs []string
	if fn.IsExported() {
		attrs = append(attrs, "export="+strconv.Quote(fn.Export()))
	}
	if fn.IsEntryPoint() {
		attrs = append(attrs, "entry")
	}
	if fn.IsStaticCtor() {
		attrs = append(attrs, "cctor")
	}
	suffix := ""
	if len(attrs) > 0 {
		suffix = " [" + strings.Join(attrs, " ") + "]"
	}
	p.line("func %s(%s) %s%s", fn.Name, strings.Join(params, ", "), p.typeStr(fn.Result), suffix)
	p.indent++
	for _, l := range fn.Locals {
		p.line("local %s: %s", l.Name, p.typeStr(l.Type))
	}
	p.printStmt(fn.Body)
	p.indent--
}

func (p *Printer) printStmt(s *Stmt) {
	if s == nil {
		return
	}
	switch d := s.Data.(type) {
	case *BlockData:
		p.line("#%d block", s.ID)
		p.printStmts(d.Stmts)
	case *ExprStmtData:
		p.line("#%d %s", s.ID, p.exprStr(d.Expr))
	case *IfData:
		p.line("#%d if %s", s.ID, p.exprStr(d.Cond))
		p.nested(d.Then)
		if d.Else != nil {
			p.line("else")
			p.nested(d.Else)
		}
	case *ForData:
		p.line("#%d for%s %s; %s", s.ID, loopTag(d.Index), p.exprStr(d.Cond), p.exprList(d.Post))
		p.printStmts(d.Init)
		p.nested(d.Body)
	case *WhileData:
		kw := "while"
		if s.Kind == StmtDo {
			kw = "do-while"
		}
		p.line("#%d %s%s %s", s.ID, kw, loopTag(d.Index), p.exprStr(d.Cond))
		p.nested(d.Body)
	case *LabelGroupData:
		p.line("#%d labelgroup", s.ID)
		p.indent++
		for _, l := range d.Labels {
			p.line("%s:", l.Name)
			p.printStmts(l.Body)
		}
		p.indent--
	case *GotoData:
		p.line("#%d goto %s", s.ID, d.Label)
	case *BranchData:
		kw := "break"
		if s.Kind == StmtContinue {
			kw = "continue"
		}
		p.line("#%d %s%s", s.ID, kw, loopTag(d.Target))
	case *ReturnData:
		if d.Value == nil {
			p.line("#%d return", s.ID)
		} else {
			p.line("#%d return %s", s.ID, p.exprStr(d.Value))
		}
	case *SwitchData:
		p.line("#%d switch%s %s", s.ID, loopTag(d.Index), p.exprStr(d.Key))
		p.indent++
		for _, c := range d.Cases {
			if c.Default {
				p.line("default:")
			} else {
				p.line("case %s:", p.exprList(c.Values))
			}
			p.printStmts(c.Body)
		}
		p.indent--
	case *VarDeclData:
		parts := make([]string, len(d.Vars))
		for i, v := range d.Vars {
			parts[i] = v.Name
			if v.Init != nil {
				parts[i] += " = " + p.exprStr(v.Init)
			}
		}
		p.line("#%d var %s", s.ID, strings.Join(parts, ", "))
	default:
		p.line("#%d <%s>", s.ID, s.Kind)
	}
}

func (p *Printer) nested(s *Stmt) {
	p.indent++
	p.printStmt(s)
	p.indent--
}

func (p *Printer) printStmts(list []*Stmt) {
	p.indent++
	for _, s := range list {
		p.printStmt(s)
	}
	p.indent--
}

func loopTag(idx LoopIndex) string {
	if !idx.IsValid() {
		return ""
	}
	return "#" + strconv.Itoa(int(idx))
}

func (p *Printer) exprList(list []*Expr) string {
	parts := make([]string, len(list))
	for i, e := range list {
		parts[i] = p.exprStr(e)
	}
	return strings.Join(parts, ", ")
}

func (p *Printer) exprStr(e *Expr) string {
	if e == nil {
		return "_"
	}
	switch d := e.Data.(type) {
	case *LiteralData:
		return literalStr(d)
	case *VariableData:
		return d.Name
	case *BinaryData:
		return fmt.Sprintf("(%s %s %s)", p.exprStr(d.Left), d.Op, p.exprStr(d.Right))
	case *UnaryData:
		switch d.Op {
		case OpPostInc:
			return p.exprStr(d.Operand) + "++"
		case OpPostDec:
			return p.exprStr(d.Operand) + "--"
		case OpPreInc:
			return "++" + p.exprStr(d.Operand)
		case OpPreDec:
			return "--" + p.exprStr(d.Operand)
		}
		return d.Op.String() + p.exprStr(d.Operand)
	case *CallData:
		recv := ""
		if d.Receiver != nil {
			recv = p.exprStr(d.Receiver) + "."
		}
		return fmt.Sprintf("%s%s(%s)", recv, d.Target, p.exprList(d.Args))
	case *FieldData:
		if d.Receiver != nil {
			return p.exprStr(d.Receiver) + "." + d.Field.Name
		}
		return d.Field.String()
	case *PropertyData:
		return d.Property.String()
	case *CastData:
		return fmt.Sprintf("(%s)%s", p.typeStr(e.Type), p.exprStr(d.Operand))
	case *ReferenceData:
		return "&" + p.exprStr(d.Referent)
	case *CommaData:
		return "(" + p.exprList(d.Exprs) + ")"
	case *ConditionalData:
		return fmt.Sprintf("(%s ? %s : %s)", p.exprStr(d.Cond), p.exprStr(d.Then), p.exprStr(d.Else))
	case *ArrayInitData:
		if d.HasInit {
			return fmt.Sprintf("new %s[] {%s}", p.typeStr(d.Elem), p.exprList(d.Elements))
		}
		return fmt.Sprintf("new %s[%s]", p.typeStr(d.Elem), p.exprStr(d.Size))
	case *MemoryData:
		if e.Kind == ExprSetMemory {
			return fmt.Sprintf("store.%s[%s] = %s", p.typeStr(d.Target), p.exprStr(d.Address), p.exprStr(d.Value))
		}
		return fmt.Sprintf("load.%s[%s]", p.typeStr(d.Target), p.exprStr(d.Address))
	case *StringLengthData:
		return "len(" + p.exprStr(d.String) + ")"
	case *IntrinsicData:
		return fmt.Sprintf("%s(%s)", d.Op, p.exprList(d.Args))
	case *InvokeData:
		return fmt.Sprintf("invoke %q(%s)", d.Export, p.exprList(d.Args))
	case *AssertData:
		return fmt.Sprintf("%s %s == %q(%s)", strings.ToLower(e.Kind.String()), p.exprStr(d.Expected), d.Export, p.exprList(d.Args))
	case *AssertHeapData:
		if d.FromFile {
			return fmt.Sprintf("assertheapeq %d[%d] == file %q", d.Offset, d.Count, d.Expected)
		}
		return fmt.Sprintf("assertheapeq %d == %q", d.Offset, d.Expected)
	case *HarnessCallData:
		return fmt.Sprintf("harness.%s(%s)", d.Op.ImportName(), p.exprList(d.Args))
	}
	return "<" + e.Kind.String() + ">"
}

func literalStr(d *LiteralData) string {
	switch d.Kind {
	case LiteralInt:
		return strconv.FormatInt(d.IntValue, 10)
	case LiteralFloat:
		return strconv.FormatFloat(d.FloatValue, 'g', -1, 64)
	case LiteralBool:
		return strconv.FormatBool(d.BoolValue)
	case LiteralChar:
		return strconv.QuoteRune(rune(d.IntValue))
	case LiteralString:
		return strconv.Quote(d.StringValue)
	case LiteralNull:
		return "null"
	case LiteralDefault:
		return "default"
	}
	return "?"
}

func (p *Printer) typeStr(id types.TypeID) string {
	if p.interner == nil {
		return fmt.Sprintf("type#%d", id)
	}
	return p.interner.String(id)
}

func (p *Printer) line(format string, args ...any) {
	p.printf("%s", strings.Repeat("  ", p.indent))
	p.printf(format, args...)
	p.printf("\n")
}

func (p *Printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
