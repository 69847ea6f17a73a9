package sexpr

import (
	"ilwasm/internal/diag"
	"ilwasm/internal/ir"
)

// flatten collapses a block whose only child is a block or an expression
// statement, repeatedly.
func flatten(s *ir.Stmt) *ir.Stmt {
	for s != nil && s.Kind == ir.StmtBlock {
		b, ok := s.Data.(*ir.BlockData)
		if !ok || len(b.Stmts) != 1 {
			return s
		}
		child := b.Stmts[0]
		if child == nil || (child.Kind != ir.StmtBlock && child.Kind != ir.StmtExpr) {
			return s
		}
		s = child
	}
	return s
}

func (fe *funcEmitter) stmtList(list []*ir.Stmt) error {
	for _, s := range list {
		if err := fe.stmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (fe *funcEmitter) stmt(s *ir.Stmt) error {
	s = flatten(s)
	if s == nil {
		return nil
	}
	switch d := s.Data.(type) {
	case *ir.BlockData:
		if len(d.Stmts) == 0 {
			return nil
		}
		fe.w.open("(block")
		if err := fe.stmtList(d.Stmts); err != nil {
			return err
		}
		fe.w.close()
		return nil
	case *ir.ExprStmtData:
		text, err := fe.effect(d.Expr)
		if err != nil {
			return err
		}
		// Rewritten-away calls (Printf, SetHeapSize) leave nothing.
		if text != "" {
			fe.w.line(text)
		}
		return nil
	case *ir.IfData:
		return fe.ifStmt(d)
	case *ir.ForData:
		return fe.forLoop(s, d)
	case *ir.WhileData:
		if s.Kind == ir.StmtDo {
			return fe.doLoop(s, d)
		}
		return fe.whileLoop(s, d)
	case *ir.LabelGroupData:
		return fe.labelGroup(s, d)
	case *ir.GotoData:
		return fe.gotoStmt(s, d)
	case *ir.BranchData:
		if s.Kind == ir.StmtContinue {
			return fe.continueStmt(s, d)
		}
		return fe.breakStmt(s, d)
	case *ir.ReturnData:
		return fe.returnStmt(d)
	case *ir.SwitchData:
		return fe.switchStmt(s, d)
	case *ir.VarDeclData:
		return fe.varDecl(d)
	}
	diag.ReportWarning(fe.e.reporter, diag.EmiUntranslatable, s.Span,
		"statement "+s.Kind.String()+" is not supported").ForMember(fe.member).Emit()
	fe.w.line("(untranslatable." + s.Kind.String() + ")")
	return nil
}

// arm emits s as exactly one form, wrapping multi-form statements in a
// block.
func (fe *funcEmitter) arm(s *ir.Stmt) error {
	s = flatten(s)
	if s == nil {
		fe.w.line("(nop)")
		return nil
	}
	switch d := s.Data.(type) {
	case *ir.ExprStmtData:
		text, err := fe.effect(d.Expr)
		if err != nil {
			return err
		}
		if text == "" {
			text = "(nop)"
		}
		fe.w.line(text)
		return nil
	case *ir.BlockData, *ir.VarDeclData, *ir.ForData, *ir.LabelGroupData:
		fe.w.open("(block")
		var err error
		if b, ok := d.(*ir.BlockData); ok {
			err = fe.stmtList(b.Stmts)
		} else {
			err = fe.stmt(s)
		}
		if err != nil {
			return err
		}
		fe.w.close()
		return nil
	}
	return fe.stmt(s)
}

func (fe *funcEmitter) ifStmt(d *ir.IfData) error {
	cond, err := fe.expr(d.Cond)
	if err != nil {
		return err
	}
	fe.w.open("(if " + cond)
	if err := fe.arm(d.Then); err != nil {
		return err
	}
	if d.Else != nil {
		if err := fe.arm(d.Else); err != nil {
			return err
		}
	}
	fe.w.close()
	return nil
}

func (fe *funcEmitter) returnStmt(d *ir.ReturnData) error {
	if d.Value == nil {
		if !fe.topLevel() {
			fe.w.line("(return)")
		}
		return nil
	}
	v, err := fe.expr(d.Value)
	if err != nil {
		return err
	}
	fe.w.line(form("return", v))
	return nil
}

func (fe *funcEmitter) varDecl(d *ir.VarDeclData) error {
	for _, v := range d.Vars {
		if v.Init == nil {
			continue
		}
		target := &ir.Expr{Kind: ir.ExprVariable, Type: v.Init.Type, Span: v.Init.Span, Data: &ir.VariableData{Name: v.Name}}
		if t, ok := fe.locals[v.Name]; ok {
			target.Type = t
		}
		value, err := fe.expr(v.Init)
		if err != nil {
			return err
		}
		text, err := fe.store(target, value)
		if err != nil {
			return err
		}
		fe.w.line(text)
	}
	return nil
}
