package ir

import (
	"ilwasm/internal/source"
	"ilwasm/internal/types"
)

// Builder constructs programs in Go. It is used by tests and the built-in
// example programs; it assigns statement IDs and infers simple result types.
type Builder struct {
	prog   *Program
	T      types.Builtins
	nextID NodeID
}

// NewBuilder starts an empty program.
func NewBuilder(name string) *Builder {
	prog := NewProgram(name)
	return &Builder{prog: prog, T: prog.Types.Builtins()}
}

// Program returns the program under construction.
func (b *Builder) Program() *Program { return b.prog }

// Types returns the program's type interner.
func (b *Builder) Types() *types.Interner { return b.prog.Types }

// Type returns the declaration named name, creating it on first use.
func (b *Builder) Type(name string) *TypeDecl {
	if d := b.prog.Type(name); d != nil {
		return d
	}
	d := &TypeDecl{Name: name}
	b.prog.Decls = append(b.prog.Decls, d)
	return d
}

// StaticField declares a static field on typeName.
func (b *Builder) StaticField(typeName, name string, t types.TypeID, readOnly bool) *FieldDecl {
	d := b.Type(typeName)
	f := &FieldDecl{Name: name, Type: t, ReadOnly: readOnly}
	d.Fields = append(d.Fields, f)
	return f
}

// FuncBuilder accumulates one function.
type FuncBuilder struct {
	b  *Builder
	fn *Func
}

// Func declares a function on typeName. FuncStatic is implied.
func (b *Builder) Func(typeName, name string, result types.TypeID, flags FuncFlags) *FuncBuilder {
	if result == types.NoTypeID {
		result = b.T.Void
	}
	d := b.Type(typeName)
	fn := &Func{
		Name:          name,
		DeclaringType: typeName,
		Result:        result,
		Flags:         flags | FuncStatic,
	}
	d.Funcs = append(d.Funcs, fn)
	return &FuncBuilder{b: b, fn: fn}
}

// Param appends a parameter and returns an expression reading it.
func (fb *FuncBuilder) Param(name string, t types.TypeID) *Expr {
	fb.fn.Params = append(fb.fn.Params, Local{Name: name, Type: t})
	return &Expr{Kind: ExprVariable, Type: t, Data: &VariableData{Name: name, IsParam: true}}
}

// Local appends a local variable and returns an expression reading it.
func (fb *FuncBuilder) Local(name string, t types.TypeID) *Expr {
	fb.fn.Locals = append(fb.fn.Locals, Local{Name: name, Type: t})
	return &Expr{Kind: ExprVariable, Type: t, Data: &VariableData{Name: name}}
}

// Export marks the function exported under name ("" keeps the method name).
func (fb *FuncBuilder) Export(name string) *FuncBuilder {
	fb.fn.Flags |= FuncExported
	fb.fn.ExportName = name
	return fb
}

// Body sets the function body and returns the finished function.
func (fb *FuncBuilder) Body(stmts ...*Stmt) *Func {
	fb.fn.Body = fb.b.Block(stmts...)
	return fb.fn
}

// Func returns the function being built.
func (fb *FuncBuilder) Func() *Func { return fb.fn }

func (b *Builder) stmt(kind StmtKind, data StmtData) *Stmt {
	b.nextID++
	return &Stmt{Kind: kind, ID: b.nextID, Data: data}
}

func (b *Builder) literal(t types.TypeID, lit *LiteralData) *Expr {
	return &Expr{Kind: ExprLiteral, Type: t, Data: lit}
}

// I32 is an int32 literal.
func (b *Builder) I32(v int64) *Expr {
	return b.literal(b.T.Int32, &LiteralData{Kind: LiteralInt, IntValue: v})
}

// I64 is an int64 literal.
func (b *Builder) I64(v int64) *Expr {
	return b.literal(b.T.Int64, &LiteralData{Kind: LiteralInt, IntValue: v})
}

// U8 is a byte literal.
func (b *Builder) U8(v uint8) *Expr {
	return b.literal(b.T.Uint8, &LiteralData{Kind: LiteralInt, IntValue: int64(v)})
}

// F64 is a double literal.
func (b *Builder) F64(v float64) *Expr {
	return b.literal(b.T.Float64, &LiteralData{Kind: LiteralFloat, FloatValue: v})
}

// F32 is a float literal.
func (b *Builder) F32(v float32) *Expr {
	return b.literal(b.T.Float32, &LiteralData{Kind: LiteralFloat, FloatValue: float64(v)})
}

// Bool is a bool literal.
func (b *Builder) Bool(v bool) *Expr {
	return b.literal(b.T.Bool, &LiteralData{Kind: LiteralBool, BoolValue: v})
}

// Char is a char literal.
func (b *Builder) Char(r rune) *Expr {
	return b.literal(b.T.Char, &LiteralData{Kind: LiteralChar, IntValue: int64(r)})
}

// Str is a string literal.
func (b *Builder) Str(s string) *Expr {
	return b.literal(b.T.String, &LiteralData{Kind: LiteralString, StringValue: s})
}

// Null is the null literal of type t.
func (b *Builder) Null(t types.TypeID) *Expr {
	return b.literal(t, &LiteralData{Kind: LiteralNull})
}

// Zero is default(t).
func (b *Builder) Zero(t types.TypeID) *Expr {
	return b.literal(t, &LiteralData{Kind: LiteralDefault})
}

// Binary builds l op r. Comparisons and logical operators yield bool;
// everything else takes the left operand's type.
func (b *Builder) Binary(op BinaryOp, l, r *Expr) *Expr {
	t := l.Type
	if op.IsComparison() || op == OpLogicalAnd || op == OpLogicalOr {
		t = b.T.Bool
	}
	return &Expr{Kind: ExprBinary, Type: t, Data: &BinaryData{Op: op, Left: l, Right: r}}
}

// Assign builds l = r.
func (b *Builder) Assign(l, r *Expr) *Expr {
	return b.Binary(OpAssign, l, r)
}

// Unary builds op x.
func (b *Builder) Unary(op UnaryOp, x *Expr) *Expr {
	t := x.Type
	if op == OpNot {
		t = b.T.Bool
	}
	return &Expr{Kind: ExprUnary, Type: t, Data: &UnaryData{Op: op, Operand: x}}
}

// Call builds a static call. Parameter types are taken from the arguments.
func (b *Builder) Call(target MemberRef, result types.TypeID, args ...*Expr) *Expr {
	return b.call(target, result, nil, args, argTypes(args))
}

// CallFunc builds a static call to a function declared in this program.
func (b *Builder) CallFunc(fn *Func, args ...*Expr) *Expr {
	params := make([]types.TypeID, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = p.Type
	}
	return b.call(fn.Ref(), fn.Result, nil, args, params)
}

// CallSig builds a static call with explicit parameter types.
func (b *Builder) CallSig(target MemberRef, result types.TypeID, params []types.TypeID, args ...*Expr) *Expr {
	return b.call(target, result, nil, args, params)
}

// Method builds an instance call on recv.
func (b *Builder) Method(target MemberRef, result types.TypeID, recv *Expr, args ...*Expr) *Expr {
	return b.call(target, result, recv, args, argTypes(args))
}

// MethodSig builds an instance call with explicit parameter types.
func (b *Builder) MethodSig(target MemberRef, result types.TypeID, params []types.TypeID, recv *Expr, args ...*Expr) *Expr {
	return b.call(target, result, recv, args, params)
}

func (b *Builder) call(target MemberRef, result types.TypeID, recv *Expr, args []*Expr, params []types.TypeID) *Expr {
	if result == types.NoTypeID {
		result = b.T.Void
	}
	return &Expr{Kind: ExprCall, Type: result, Data: &CallData{
		Target:     target,
		ParamTypes: params,
		Static:     recv == nil,
		Receiver:   recv,
		Args:       args,
	}}
}

func argTypes(args []*Expr) []types.TypeID {
	out := make([]types.TypeID, len(args))
	for i, a := range args {
		out[i] = a.Type
	}
	return out
}

// Field reads (or, as an assignment target, writes) a static field.
func (b *Builder) Field(typeName, name string) *Expr {
	t := types.NoTypeID
	if d := b.prog.Type(typeName); d != nil {
		if f := d.Field(name); f != nil {
			t = f.Type
		}
	}
	return &Expr{Kind: ExprField, Type: t, Data: &FieldData{
		Field:  MemberRef{Type: typeName, Name: name},
		Static: true,
	}}
}

// Property accesses a static property through its get_/set_ accessors.
func (b *Builder) Property(typeName, name string, t types.TypeID) *Expr {
	return &Expr{Kind: ExprProperty, Type: t, Data: &PropertyData{
		Property: MemberRef{Type: typeName, Name: name},
		Getter:   MemberRef{Type: typeName, Name: "get_" + name},
		Setter:   MemberRef{Type: typeName, Name: "set_" + name},
		Static:   true,
	}}
}

// Cast converts x to t.
func (b *Builder) Cast(t types.TypeID, x *Expr) *Expr {
	return &Expr{Kind: ExprCast, Type: t, Data: &CastData{Operand: x}}
}

// Ref takes a reference to x.
func (b *Builder) Ref(x *Expr) *Expr {
	ptr := b.prog.Types.Intern(types.MakePointer(x.Type))
	return &Expr{Kind: ExprReference, Type: ptr, Data: &ReferenceData{Referent: x}}
}

// Comma evaluates exprs in order and yields the last.
func (b *Builder) Comma(exprs ...*Expr) *Expr {
	t := b.T.Void
	if len(exprs) > 0 {
		t = exprs[len(exprs)-1].Type
	}
	return &Expr{Kind: ExprComma, Type: t, Data: &CommaData{Exprs: exprs}}
}

// Cond builds c ? a : e.
func (b *Builder) Cond(c, a, e *Expr) *Expr {
	return &Expr{Kind: ExprConditional, Type: a.Type, Data: &ConditionalData{Cond: c, Then: a, Else: e}}
}

// ArrayOf builds new elem[] { elems... }.
func (b *Builder) ArrayOf(elem types.TypeID, elems ...*Expr) *Expr {
	arr := b.prog.Types.Intern(types.MakeArray(elem))
	return &Expr{Kind: ExprArrayInit, Type: arr, Data: &ArrayInitData{
		Elem:     elem,
		Size:     b.I32(int64(len(elems))),
		Elements: elems,
		HasInit:  true,
	}}
}

// NewArray builds new elem[size].
func (b *Builder) NewArray(elem types.TypeID, size *Expr) *Expr {
	arr := b.prog.Types.Intern(types.MakeArray(elem))
	return &Expr{Kind: ExprArrayInit, Type: arr, Data: &ArrayInitData{Elem: elem, Size: size}}
}

// Block groups statements.
func (b *Builder) Block(stmts ...*Stmt) *Stmt {
	return b.stmt(StmtBlock, &BlockData{Stmts: stmts})
}

// Eval evaluates e for its side effects.
func (b *Builder) Eval(e *Expr) *Stmt {
	return b.stmt(StmtExpr, &ExprStmtData{Expr: e})
}

// If builds an if statement; els may be nil.
func (b *Builder) If(cond *Expr, then, els *Stmt) *Stmt {
	return b.stmt(StmtIf, &IfData{Cond: cond, Then: then, Else: els})
}

// For builds a for loop without a source loop index.
func (b *Builder) For(init []*Stmt, cond *Expr, post []*Expr, body ...*Stmt) *Stmt {
	return b.stmt(StmtFor, &ForData{Index: NoLoopIndex, Init: init, Cond: cond, Post: post, Body: b.Block(body...)})
}

// While builds a while loop.
func (b *Builder) While(cond *Expr, body ...*Stmt) *Stmt {
	return b.stmt(StmtWhile, &WhileData{Index: NoLoopIndex, Cond: cond, Body: b.Block(body...)})
}

// DoWhile builds a do/while loop.
func (b *Builder) DoWhile(cond *Expr, body ...*Stmt) *Stmt {
	return b.stmt(StmtDo, &WhileData{Index: NoLoopIndex, Cond: cond, Body: b.Block(body...)})
}

// Labeled builds one section of a label group.
func (b *Builder) Labeled(name string, body ...*Stmt) Label {
	return Label{Name: name, Body: body}
}

// LabelGroup builds a label group.
func (b *Builder) LabelGroup(labels ...Label) *Stmt {
	return b.stmt(StmtLabelGroup, &LabelGroupData{Labels: labels})
}

// Goto jumps to a label.
func (b *Builder) Goto(label string) *Stmt {
	return b.stmt(StmtGoto, &GotoData{Label: label})
}

// Break exits the innermost loop or switch.
func (b *Builder) Break() *Stmt {
	return b.stmt(StmtBreak, &BranchData{Target: NoLoopIndex})
}

// Continue restarts the innermost loop.
func (b *Builder) Continue() *Stmt {
	return b.stmt(StmtContinue, &BranchData{Target: NoLoopIndex})
}

// Return returns value (nil in void functions).
func (b *Builder) Return(value *Expr) *Stmt {
	return b.stmt(StmtReturn, &ReturnData{Value: value})
}

// Case builds a switch arm.
func (b *Builder) Case(values []*Expr, body ...*Stmt) SwitchCase {
	return SwitchCase{Values: values, Body: body}
}

// DefaultCase builds the default switch arm.
func (b *Builder) DefaultCase(body ...*Stmt) SwitchCase {
	return SwitchCase{Default: true, Body: body}
}

// Switch builds a switch statement.
func (b *Builder) Switch(key *Expr, cases ...SwitchCase) *Stmt {
	return b.stmt(StmtSwitch, &SwitchData{Index: NoLoopIndex, Key: key, Cases: cases})
}

// Declare initializes declared locals.
func (b *Builder) Declare(vars ...VarInit) *Stmt {
	return b.stmt(StmtVarDecl, &VarDeclData{Vars: vars})
}

// Init pairs a local with its initializer for Declare.
func (b *Builder) Init(v, init *Expr) VarInit {
	name := ""
	if vd, ok := v.Data.(*VariableData); ok {
		name = vd.Name
	}
	return VarInit{Name: name, Init: init}
}

// At sets the span of s and returns it.
func At(s *Stmt, span source.Span) *Stmt {
	s.Span = span
	return s
}
