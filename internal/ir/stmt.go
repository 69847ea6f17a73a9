package ir

import "ilwasm/internal/source"

// StmtKind enumerates statement kinds.
type StmtKind uint8

const (
	StmtBlock StmtKind = iota + 1
	StmtExpr
	StmtIf
	StmtFor
	StmtWhile
	StmtDo
	StmtLabelGroup
	StmtGoto
	StmtBreak
	StmtContinue
	StmtReturn
	StmtSwitch
	StmtVarDecl
)

// String returns a human-readable name for the statement kind.
func (k StmtKind) String() string {
	switch k {
	case StmtBlock:
		return "Block"
	case StmtExpr:
		return "ExprStmt"
	case StmtIf:
		return "If"
	case StmtFor:
		return "ForLoop"
	case StmtWhile:
		return "WhileLoop"
	case StmtDo:
		return "DoLoop"
	case StmtLabelGroup:
		return "LabelGroup"
	case StmtGoto:
		return "Goto"
	case StmtBreak:
		return "Break"
	case StmtContinue:
		return "Continue"
	case StmtReturn:
		return "Return"
	case StmtSwitch:
		return "Switch"
	case StmtVarDecl:
		return "VariableDeclaration"
	default:
		return "Unknown"
	}
}

// Stmt is a statement node. ID is unique within the program.
type Stmt struct {
	Kind StmtKind
	ID   NodeID
	Span source.Span
	Data StmtData
}

// StmtData is implemented by every statement payload.
type StmtData interface {
	stmtData()
}

// BlockData holds data for StmtBlock.
type BlockData struct {
	Stmts []*Stmt
}

func (*BlockData) stmtData() {}

// ExprStmtData holds data for StmtExpr.
type ExprStmtData struct {
	Expr *Expr
}

func (*ExprStmtData) stmtData() {}

// IfData holds data for StmtIf. Else may be nil.
type IfData struct {
	Cond *Expr
	Then *Stmt
	Else *Stmt
}

func (*IfData) stmtData() {}

// ForData holds data for StmtFor. Cond may be nil (infinite loop).
type ForData struct {
	Index LoopIndex
	Init  []*Stmt
	Cond  *Expr
	Post  []*Expr
	Body  *Stmt
}

func (*ForData) stmtData() {}

// WhileData holds data for StmtWhile and StmtDo.
type WhileData struct {
	Index LoopIndex
	Cond  *Expr
	Body  *Stmt
}

func (*WhileData) stmtData() {}

// Label is one labeled section of a label group.
type Label struct {
	Name string
	Body []*Stmt
}

// LabelGroupData holds data for StmtLabelGroup: a run of labeled sections
// that gotos may jump between. Control enters at the first label.
type LabelGroupData struct {
	Labels []Label
}

func (*LabelGroupData) stmtData() {}

// GotoData holds data for StmtGoto.
type GotoData struct {
	Label string
}

func (*GotoData) stmtData() {}

// BranchData holds data for StmtBreak and StmtContinue. A target of
// NoLoopIndex refers to the innermost enclosing loop (or switch, for break).
type BranchData struct {
	Target LoopIndex
}

func (*BranchData) stmtData() {}

// ReturnData holds data for StmtReturn. Value is nil in void functions.
type ReturnData struct {
	Value *Expr
}

func (*ReturnData) stmtData() {}

// SwitchCase is one arm of a switch. Values must be literals.
type SwitchCase struct {
	Values  []*Expr
	Default bool
	Body    []*Stmt
}

// SwitchData holds data for StmtSwitch.
type SwitchData struct {
	Index LoopIndex
	Key   *Expr
	Cases []SwitchCase
}

func (*SwitchData) stmtData() {}

// VarInit declares one local, optionally initialized.
type VarInit struct {
	Name string
	Init *Expr
}

// VarDeclData holds data for StmtVarDecl.
type VarDeclData struct {
	Vars []VarInit
}

func (*VarDeclData) stmtData() {}

// IsTerminal reports whether control never falls through s.
func (s *Stmt) IsTerminal() bool {
	if s == nil {
		return false
	}
	switch s.Kind {
	case StmtGoto, StmtReturn, StmtBreak, StmtContinue:
		return true
	case StmtBlock:
		if b, ok := s.Data.(*BlockData); ok && len(b.Stmts) > 0 {
			return b.Stmts[len(b.Stmts)-1].IsTerminal()
		}
	}
	return false
}
