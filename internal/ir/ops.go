package ir

// BinaryOp enumerates binary operators, assignments included.
type BinaryOp uint8

const (
	OpAdd BinaryOp = iota + 1
	OpSub
	OpMul
	OpDiv
	OpRem
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpLogicalAnd
	OpLogicalOr
	OpAssign
	OpAddAssign
	OpSubAssign
	OpMulAssign
	OpDivAssign
	OpRemAssign
	OpBitAndAssign
	OpBitOrAssign
	OpBitXorAssign
	OpShlAssign
	OpShrAssign
)

var binaryTokens = map[BinaryOp]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpRem: "%",
	OpBitAnd: "&", OpBitOr: "|", OpBitXor: "^", OpShl: "<<", OpShr: ">>",
	OpEq: "==", OpNe: "!=", OpLt: "<", OpLe: "<=", OpGt: ">", OpGe: ">=",
	OpLogicalAnd: "&&", OpLogicalOr: "||",
	OpAssign: "=", OpAddAssign: "+=", OpSubAssign: "-=", OpMulAssign: "*=",
	OpDivAssign: "/=", OpRemAssign: "%=", OpBitAndAssign: "&=", OpBitOrAssign: "|=",
	OpBitXorAssign: "^=", OpShlAssign: "<<=", OpShrAssign: ">>=",
}

func (op BinaryOp) String() string {
	if tok, ok := binaryTokens[op]; ok {
		return tok
	}
	return "?"
}

// IsComparison reports whether op yields a boolean from two operands.
func (op BinaryOp) IsComparison() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return true
	}
	return false
}

// IsAssignment reports whether op stores into its left operand.
func (op BinaryOp) IsAssignment() bool {
	return op >= OpAssign
}

// CompoundBase returns the arithmetic operator behind a compound assignment
// ("+=" -> "+").
func (op BinaryOp) CompoundBase() (BinaryOp, bool) {
	switch op {
	case OpAddAssign:
		return OpAdd, true
	case OpSubAssign:
		return OpSub, true
	case OpMulAssign:
		return OpMul, true
	case OpDivAssign:
		return OpDiv, true
	case OpRemAssign:
		return OpRem, true
	case OpBitAndAssign:
		return OpBitAnd, true
	case OpBitOrAssign:
		return OpBitOr, true
	case OpBitXorAssign:
		return OpBitXor, true
	case OpShlAssign:
		return OpShl, true
	case OpShrAssign:
		return OpShr, true
	}
	return 0, false
}

// UnaryOp enumerates unary operators.
type UnaryOp uint8

const (
	OpNeg UnaryOp = iota + 1
	OpPlus
	OpNot
	OpBitNot
	OpPreInc
	OpPreDec
	OpPostInc
	OpPostDec
)

func (op UnaryOp) String() string {
	switch op {
	case OpNeg:
		return "-"
	case OpPlus:
		return "+"
	case OpNot:
		return "!"
	case OpBitNot:
		return "~"
	case OpPreInc:
		return "++x"
	case OpPreDec:
		return "--x"
	case OpPostInc:
		return "x++"
	case OpPostDec:
		return "x--"
	}
	return "?"
}

// IsIncrement reports whether op is one of the ++/-- forms.
func (op UnaryOp) IsIncrement() bool {
	return op >= OpPreInc
}
