package ir

import (
	"ilwasm/internal/source"
	"ilwasm/internal/types"
)

// ExprKind enumerates expression kinds. Kinds from ExprGetMemory on are only
// produced by the intrinsic rewriter.
type ExprKind uint8

const (
	ExprLiteral ExprKind = iota + 1
	ExprVariable
	ExprBinary
	ExprUnary
	ExprCall
	ExprField
	ExprProperty
	ExprCast
	ExprReference
	ExprComma
	ExprConditional
	ExprArrayInit

	ExprGetMemory
	ExprSetMemory
	ExprStringLength
	ExprIntrinsic
	ExprInvoke
	ExprAssertReturn
	ExprAssertEq
	ExprAssertHeapEq
	ExprHarnessCall
)

// String returns a human-readable name for the expression kind.
func (k ExprKind) String() string {
	switch k {
	case ExprLiteral:
		return "Literal"
	case ExprVariable:
		return "Variable"
	case ExprBinary:
		return "BinaryOp"
	case ExprUnary:
		return "UnaryOp"
	case ExprCall:
		return "Call"
	case ExprField:
		return "FieldAccess"
	case ExprProperty:
		return "PropertyAccess"
	case ExprCast:
		return "Cast"
	case ExprReference:
		return "Reference"
	case ExprComma:
		return "Comma"
	case ExprConditional:
		return "Conditional"
	case ExprArrayInit:
		return "ArrayInit"
	case ExprGetMemory:
		return "GetMemory"
	case ExprSetMemory:
		return "SetMemory"
	case ExprStringLength:
		return "StringLength"
	case ExprIntrinsic:
		return "Intrinsic"
	case ExprInvoke:
		return "Invoke"
	case ExprAssertReturn:
		return "AssertReturn"
	case ExprAssertEq:
		return "AssertEq"
	case ExprAssertHeapEq:
		return "AssertHeapEq"
	case ExprHarnessCall:
		return "HarnessCall"
	default:
		return "Unknown"
	}
}

// Expr is a typed expression node.
type Expr struct {
	Kind ExprKind
	Type types.TypeID // value type, used for keyword selection
	Span source.Span
	Data ExprData // kind-specific payload
}

// ExprData is implemented by every expression payload.
type ExprData interface {
	exprData()
}

// LiteralKind enumerates literal value kinds.
type LiteralKind uint8

const (
	LiteralInt LiteralKind = iota + 1
	LiteralFloat
	LiteralBool
	LiteralChar
	LiteralString
	LiteralNull
	LiteralDefault
)

// LiteralData holds data for ExprLiteral.
type LiteralData struct {
	Kind        LiteralKind
	IntValue    int64 // ints and chars
	FloatValue  float64
	BoolValue   bool
	StringValue string
}

func (*LiteralData) exprData() {}

// VariableData holds data for ExprVariable (a parameter or local).
type VariableData struct {
	Name    string
	IsParam bool
}

func (*VariableData) exprData() {}

// BinaryData holds data for ExprBinary.
type BinaryData struct {
	Op    BinaryOp
	Left  *Expr
	Right *Expr
}

func (*BinaryData) exprData() {}

// UnaryData holds data for ExprUnary.
type UnaryData struct {
	Op      UnaryOp
	Operand *Expr
}

func (*UnaryData) exprData() {}

// MemberRef names a method or field by declaring type and member name.
type MemberRef struct {
	Type string
	Name string
}

func (m MemberRef) String() string {
	return m.Type + "::" + m.Name
}

func (m MemberRef) IsZero() bool {
	return m.Type == "" && m.Name == ""
}

// CallData holds data for ExprCall.
type CallData struct {
	Target MemberRef
	// ParamTypes are the declared parameter types of the target, used to
	// tell overloads apart.
	ParamTypes []types.TypeID
	Static     bool
	Receiver   *Expr // nil for static calls
	Args       []*Expr
}

func (*CallData) exprData() {}

// FieldData holds data for ExprField.
type FieldData struct {
	Field    MemberRef
	Static   bool
	Receiver *Expr
}

func (*FieldData) exprData() {}

// PropertyData holds data for ExprProperty. Reads call Getter, assignments
// call Setter.
type PropertyData struct {
	Property MemberRef
	Getter   MemberRef
	Setter   MemberRef
	Static   bool
	Receiver *Expr
}

func (*PropertyData) exprData() {}

// CastData holds data for ExprCast; the target type is Expr.Type.
type CastData struct {
	Operand *Expr
}

func (*CastData) exprData() {}

// ReferenceData holds data for ExprReference (ref/out arguments, address-of).
type ReferenceData struct {
	Referent *Expr
}

func (*ReferenceData) exprData() {}

// CommaData holds data for ExprComma; the value is the last expression.
type CommaData struct {
	Exprs []*Expr
}

func (*CommaData) exprData() {}

// ConditionalData holds data for ExprConditional (c ? a : b).
type ConditionalData struct {
	Cond *Expr
	Then *Expr
	Else *Expr
}

func (*ConditionalData) exprData() {}

// ArrayInitData holds data for ExprArrayInit. Either Elements is set
// (initializer list) or only Size is.
type ArrayInitData struct {
	Elem     types.TypeID
	Size     *Expr
	Elements []*Expr
	HasInit  bool
}

func (*ArrayInitData) exprData() {}

// MemoryData holds data for ExprGetMemory and ExprSetMemory. Address is a
// byte offset; Value is only set for stores. Target is the accessed type.
type MemoryData struct {
	Target  types.TypeID
	Aligned bool
	Address *Expr
	Value   *Expr
}

func (*MemoryData) exprData() {}

// StringLengthData holds data for ExprStringLength.
type StringLengthData struct {
	String *Expr
}

func (*StringLengthData) exprData() {}

// IntrinsicData holds data for ExprIntrinsic, a pure instruction applied to
// its arguments ("f64.sqrt").
type IntrinsicData struct {
	Op   string
	Args []*Expr
}

func (*IntrinsicData) exprData() {}

// InvokeData holds data for ExprInvoke.
type InvokeData struct {
	Export string
	Args   []*Expr
}

func (*InvokeData) exprData() {}

// AssertData holds data for ExprAssertReturn and ExprAssertEq.
type AssertData struct {
	Expected *Expr
	Export   string
	Args     []*Expr
}

func (*AssertData) exprData() {}

// AssertHeapData holds data for ExprAssertHeapEq. When FromFile is set,
// Expected is a path whose first Count bytes are compared.
type AssertHeapData struct {
	Offset   int64
	Count    int64
	Expected string
	FromFile bool
}

func (*AssertHeapData) exprData() {}

// HarnessOp enumerates calls into the harness output sink.
type HarnessOp uint8

const (
	HarnessStdoutOpen HarnessOp = iota + 1
	HarnessStdoutWrite
)

// ImportName is the internal name of the import backing op.
func (op HarnessOp) ImportName() string {
	switch op {
	case HarnessStdoutOpen:
		return "__stdout_open"
	case HarnessStdoutWrite:
		return "__stdout_write"
	}
	return "__unknown"
}

// HarnessCallData holds data for ExprHarnessCall.
type HarnessCallData struct {
	Op   HarnessOp
	Args []*Expr
}

func (*HarnessCallData) exprData() {}

// Literal returns the literal payload, or nil.
func (e *Expr) Literal() *LiteralData {
	if e == nil {
		return nil
	}
	lit, _ := e.Data.(*LiteralData)
	return lit
}

// IntConstant reports the value of an integer or char literal.
func (e *Expr) IntConstant() (int64, bool) {
	lit := e.Literal()
	if lit == nil {
		return 0, false
	}
	switch lit.Kind {
	case LiteralInt, LiteralChar:
		return lit.IntValue, true
	case LiteralBool:
		if lit.BoolValue {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// StringConstant reports the value of a string literal.
func (e *Expr) StringConstant() (string, bool) {
	lit := e.Literal()
	if lit == nil || lit.Kind != LiteralString {
		return "", false
	}
	return lit.StringValue, true
}

// IsConstant reports whether e has no side effects and depends only on
// literals. Pure intrinsics are constant when all their arguments are.
func (e *Expr) IsConstant() bool {
	if e == nil {
		return false
	}
	switch d := e.Data.(type) {
	case *LiteralData:
		return true
	case *IntrinsicData:
		for _, a := range d.Args {
			if !a.IsConstant() {
				return false
			}
		}
		return true
	case *CastData:
		return d.Operand.IsConstant()
	case *UnaryData:
		return !d.Op.IsIncrement() && d.Operand.IsConstant()
	case *BinaryData:
		return !d.Op.IsAssignment() && d.Left.IsConstant() && d.Right.IsConstant()
	}
	return false
}
