package sexpr

import (
	"sort"
	"strconv"

	"ilwasm/internal/diag"
	"ilwasm/internal/ir"
)

// indexOf returns the label index of a loop or switch: the source index when
// there is one, otherwise a synthetic index recorded against the node.
func (fe *funcEmitter) indexOf(s *ir.Stmt, source ir.LoopIndex) ir.LoopIndex {
	if source.IsValid() {
		return source
	}
	if idx, ok := fe.loopIndex[s.ID]; ok {
		return idx
	}
	idx := fe.e.syntheticLoopIndex()
	fe.loopIndex[s.ID] = idx
	return idx
}

func (fe *funcEmitter) push(kind scopeKind, idx ir.LoopIndex) {
	fe.scopes = append(fe.scopes, branchScope{kind: kind, index: idx})
}

func (fe *funcEmitter) pop() {
	fe.scopes = fe.scopes[:len(fe.scopes)-1]
}

// guard leaves the loop when cond is false.
func (fe *funcEmitter) guard(cond *ir.Expr, idx ir.LoopIndex) error {
	if cond == nil {
		return nil
	}
	c, err := fe.expr(cond)
	if err != nil {
		return err
	}
	fe.w.line(form("if", c, "(nop)", form("br", loopLabel(idx))))
	return nil
}

func (fe *funcEmitter) loopBody(body *ir.Stmt, idx ir.LoopIndex) error {
	fe.push(scopeLoop, idx)
	defer fe.pop()
	fe.w.open("(block " + continueLabel(idx))
	if err := fe.stmtList(bodyStmts(flatten(body))); err != nil {
		return err
	}
	fe.w.close()
	return nil
}

func (fe *funcEmitter) forLoop(s *ir.Stmt, d *ir.ForData) error {
	if err := fe.stmtList(d.Init); err != nil {
		return err
	}
	idx := fe.indexOf(s, d.Index)
	fe.w.open("(loop " + loopLabel(idx))
	if err := fe.guard(d.Cond, idx); err != nil {
		return err
	}
	if err := fe.loopBody(d.Body, idx); err != nil {
		return err
	}
	for _, p := range d.Post {
		text, err := fe.effect(p)
		if err != nil {
			return err
		}
		fe.w.line(text)
	}
	fe.w.close()
	return nil
}

func (fe *funcEmitter) whileLoop(s *ir.Stmt, d *ir.WhileData) error {
	idx := fe.indexOf(s, d.Index)
	fe.w.open("(loop " + loopLabel(idx))
	if err := fe.guard(d.Cond, idx); err != nil {
		return err
	}
	if err := fe.loopBody(d.Body, idx); err != nil {
		return err
	}
	fe.w.close()
	return nil
}

func (fe *funcEmitter) doLoop(s *ir.Stmt, d *ir.WhileData) error {
	idx := fe.indexOf(s, d.Index)
	fe.w.open("(loop " + loopLabel(idx))
	if err := fe.loopBody(d.Body, idx); err != nil {
		return err
	}
	if err := fe.guard(d.Cond, idx); err != nil {
		return err
	}
	fe.w.close()
	return nil
}

func (fe *funcEmitter) breakStmt(s *ir.Stmt, d *ir.BranchData) error {
	for i := len(fe.scopes) - 1; i >= 0; i-- {
		sc := fe.scopes[i]
		if d.Target.IsValid() && sc.index != d.Target {
			continue
		}
		if sc.kind == scopeSwitch {
			fe.w.line(form("br", switchLabel(sc.index)))
		} else {
			fe.w.line(form("br", loopLabel(sc.index)))
		}
		return nil
	}
	return diag.Errorf(diag.EmiNoEnclosingLoop, s.Span, "break outside of a loop or switch")
}

func (fe *funcEmitter) continueStmt(s *ir.Stmt, d *ir.BranchData) error {
	for i := len(fe.scopes) - 1; i >= 0; i-- {
		sc := fe.scopes[i]
		if sc.kind != scopeLoop || (d.Target.IsValid() && sc.index != d.Target) {
			continue
		}
		fe.w.line(form("br", continueLabel(sc.index)))
		return nil
	}
	return diag.Errorf(diag.EmiNoEnclosingLoop, s.Span, "continue outside of a loop")
}

// switchStmt emits a native switch. A case with several values becomes empty
// cases falling through into the last one; the default arm always goes last.
func (fe *funcEmitter) switchStmt(s *ir.Stmt, d *ir.SwitchData) error {
	key, err := fe.expr(d.Key)
	if err != nil {
		return err
	}
	kw, ok := fe.e.valueKeyword(d.Key.Type)
	if !ok || kw.IsFloat() {
		return diag.Errorf(diag.EmiSwitchCaseNotConst, s.Span, "switch key of type %s is not an integer", fe.e.types.String(d.Key.Type))
	}
	arms := make([]ir.SwitchCase, 0, len(d.Cases))
	arms = append(arms, d.Cases...)
	sort.SliceStable(arms, func(i, j int) bool { return !arms[i].Default && arms[j].Default })

	idx := fe.indexOf(s, d.Index)
	fe.w.open("(block " + switchLabel(idx))
	fe.w.open("(" + string(kw) + ".switch " + key)
	fe.push(scopeSwitch, idx)
	defer fe.pop()
	for _, c := range arms {
		if !c.Default && len(c.Values) == 0 {
			return diag.Errorf(diag.EmiSwitchCaseNoValues, s.Span, "non-default switch case has no values")
		}
		values := make([]string, len(c.Values))
		for i, v := range c.Values {
			n, ok := v.IntConstant()
			if !ok {
				return diag.Errorf(diag.EmiSwitchCaseNotConst, v.Span, "switch case value must be a numeric literal")
			}
			values[i] = strconv.FormatInt(n, 10)
		}
		head := "(default"
		if !c.Default {
			head = "(case " + values[len(values)-1]
			values = values[:len(values)-1]
		}
		for _, v := range values {
			fe.w.line(form("case", v))
		}
		fe.w.open(head)
		if err := fe.stmtList(c.Body); err != nil {
			return err
		}
		fe.w.close()
	}
	fe.w.close()
	fe.w.close()
	return nil
}
