package ir

// Children returns the direct sub-expressions of e in evaluation order.
func (e *Expr) Children() []*Expr {
	if e == nil {
		return nil
	}
	switch d := e.Data.(type) {
	case *BinaryData:
		return []*Expr{d.Left, d.Right}
	case *UnaryData:
		return []*Expr{d.Operand}
	case *CallData:
		return prepend(d.Receiver, d.Args)
	case *FieldData:
		return nonNil(d.Receiver)
	case *PropertyData:
		return nonNil(d.Receiver)
	case *CastData:
		return []*Expr{d.Operand}
	case *ReferenceData:
		return []*Expr{d.Referent}
	case *CommaData:
		return d.Exprs
	case *ConditionalData:
		return []*Expr{d.Cond, d.Then, d.Else}
	case *ArrayInitData:
		if d.HasInit {
			return d.Elements
		}
		return nonNil(d.Size)
	case *MemoryData:
		return nonNil(d.Address, d.Value)
	case *StringLengthData:
		return []*Expr{d.String}
	case *IntrinsicData:
		return d.Args
	case *InvokeData:
		return d.Args
	case *AssertData:
		return prepend(d.Expected, d.Args)
	case *HarnessCallData:
		return d.Args
	}
	return nil
}

func prepend(first *Expr, rest []*Expr) []*Expr {
	if first == nil {
		return rest
	}
	return append([]*Expr{first}, rest...)
}

func nonNil(exprs ...*Expr) []*Expr {
	out := exprs[:0:0]
	for _, e := range exprs {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

// Visitor receives nodes during Walk. Returning false skips the node's
// children. Either callback may be nil.
type Visitor struct {
	Stmt func(*Stmt) bool
	Expr func(*Expr) bool
}

// WalkExpr visits e and its sub-expressions depth-first, pre-order.
func WalkExpr(e *Expr, v Visitor) {
	if e == nil {
		return
	}
	if v.Expr != nil && !v.Expr(e) {
		return
	}
	for _, c := range e.Children() {
		WalkExpr(c, v)
	}
}

// WalkStmt visits s, nested statements and their expressions depth-first in
// source order.
func WalkStmt(s *Stmt, v Visitor) {
	if s == nil {
		return
	}
	if v.Stmt != nil && !v.Stmt(s) {
		return
	}
	walkStmts := func(list []*Stmt) {
		for _, c := range list {
			WalkStmt(c, v)
		}
	}
	switch d := s.Data.(type) {
	case *BlockData:
		walkStmts(d.Stmts)
	case *ExprStmtData:
		WalkExpr(d.Expr, v)
	case *IfData:
		WalkExpr(d.Cond, v)
		WalkStmt(d.Then, v)
		WalkStmt(d.Else, v)
	case *ForData:
		walkStmts(d.Init)
		WalkExpr(d.Cond, v)
		WalkStmt(d.Body, v)
		for _, p := range d.Post {
			WalkExpr(p, v)
		}
	case *WhileData:
		if s.Kind == StmtDo {
			WalkStmt(d.Body, v)
			WalkExpr(d.Cond, v)
		} else {
			WalkExpr(d.Cond, v)
			WalkStmt(d.Body, v)
		}
	case *LabelGroupData:
		for _, l := range d.Labels {
			walkStmts(l.Body)
		}
	case *ReturnData:
		WalkExpr(d.Value, v)
	case *SwitchData:
		WalkExpr(d.Key, v)
		for _, c := range d.Cases {
			for _, val := range c.Values {
				WalkExpr(val, v)
			}
			walkStmts(c.Body)
		}
	case *VarDeclData:
		for _, vi := range d.Vars {
			WalkExpr(vi.Init, v)
		}
	}
}
