package ir

import (
	"ilwasm/internal/source"
	"ilwasm/internal/types"
)

// FuncFlags describes function attributes.
type FuncFlags uint8

const (
	FuncStatic FuncFlags = 1 << iota
	FuncExported
	FuncEntryPoint
	FuncStaticCtor
)

// HasFlag reports whether the flag is set.
func (f FuncFlags) HasFlag(flag FuncFlags) bool {
	return f&flag != 0
}

// Local is a parameter or local variable.
type Local struct {
	Name string
	Type types.TypeID
}

// Func is a method body.
type Func struct {
	Name          string
	DeclaringType string
	Params        []Local
	Locals        []Local
	Result        types.TypeID
	Flags         FuncFlags
	ExportName    string // defaults to Name when exported
	Body          *Stmt
	Span          source.Span
}

// Ref returns the member reference naming f.
func (f *Func) Ref() MemberRef {
	return MemberRef{Type: f.DeclaringType, Name: f.Name}
}

// QualifiedName is "Type::Name".
func (f *Func) QualifiedName() string {
	return f.Ref().String()
}

func (f *Func) IsStatic() bool     { return f.Flags.HasFlag(FuncStatic) }
func (f *Func) IsExported() bool   { return f.Flags.HasFlag(FuncExported) }
func (f *Func) IsEntryPoint() bool { return f.Flags.HasFlag(FuncEntryPoint) }
func (f *Func) IsStaticCtor() bool { return f.Flags.HasFlag(FuncStaticCtor) }

// Export returns the exported name of f.
func (f *Func) Export() string {
	if f.ExportName != "" {
		return f.ExportName
	}
	return f.Name
}

// FieldDecl is a static field of a type.
type FieldDecl struct {
	Name     string
	Type     types.TypeID
	ReadOnly bool
	Span     source.Span
}

// TypeDecl is a declared type with its static fields and methods.
type TypeDecl struct {
	Name   string
	Fields []*FieldDecl
	Funcs  []*Func
	Span   source.Span
}

// Field finds a field by name.
func (t *TypeDecl) Field(name string) *FieldDecl {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// StaticCtor returns the type's static constructor, or nil.
func (t *TypeDecl) StaticCtor() *Func {
	for _, f := range t.Funcs {
		if f.IsStaticCtor() {
			return f
		}
	}
	return nil
}

// Program is one assembly: its type table and declarations in source order.
type Program struct {
	Name  string
	Types *types.Interner
	Files *source.FileSet
	Decls []*TypeDecl
}

// NewProgram creates an empty program with fresh type and file tables.
func NewProgram(name string) *Program {
	return &Program{
		Name:  name,
		Types: types.NewInterner(),
		Files: source.NewFileSet(),
	}
}

// Type finds a type declaration by name.
func (p *Program) Type(name string) *TypeDecl {
	for _, d := range p.Decls {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// Funcs returns every function in program order: types in declaration order,
// static constructor first within each type.
func (p *Program) Funcs() []*Func {
	var out []*Func
	for _, d := range p.Decls {
		if ctor := d.StaticCtor(); ctor != nil {
			out = append(out, ctor)
		}
		for _, f := range d.Funcs {
			if !f.IsStaticCtor() {
				out = append(out, f)
			}
		}
	}
	return out
}

// EntryPoint returns the function flagged as entry point, or nil.
func (p *Program) EntryPoint() *Func {
	for _, d := range p.Decls {
		for _, f := range d.Funcs {
			if f.IsEntryPoint() {
				return f
			}
		}
	}
	return nil
}

// Lookup finds a function by reference. When several overloads share the
// name, the first whose parameter types match params wins; a nil params
// matches the first overload.
func (p *Program) Lookup(ref MemberRef, params []types.TypeID) *Func {
	d := p.Type(ref.Type)
	if d == nil {
		return nil
	}
	var first *Func
	for _, f := range d.Funcs {
		if f.Name != ref.Name {
			continue
		}
		if first == nil {
			first = f
		}
		if params == nil || sameParams(f.Params, params) {
			return f
		}
	}
	if params == nil {
		return first
	}
	return nil
}

// LookupField finds a static field by reference.
func (p *Program) LookupField(ref MemberRef) *FieldDecl {
	d := p.Type(ref.Type)
	if d == nil {
		return nil
	}
	return d.Field(ref.Name)
}

func sameParams(locals []Local, params []types.TypeID) bool {
	if len(locals) != len(params) {
		return false
	}
	for i, l := range locals {
		if l.Type != params[i] {
			return false
		}
	}
	return true
}

// Body pairs a function with the tree passes produced for it. Rewriting
// never mutates Func.Body, so later passes carry the new root alongside.
type Body struct {
	Func *Func
	Root *Stmt
}

// Bodies returns the original bodies of every function in program order.
func (p *Program) Bodies() []Body {
	funcs := p.Funcs()
	out := make([]Body, len(funcs))
	for i, f := range funcs {
		out[i] = Body{Func: f, Root: f.Body}
	}
	return out
}
