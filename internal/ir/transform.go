package ir

// ExprMapper replaces an expression whose children have already been mapped.
// Returning the argument unchanged keeps the node.
type ExprMapper func(*Expr) (*Expr, error)

// TransformExpr rebuilds e bottom-up through fn. Nodes are copied only when
// one of their children changed, so untouched subtrees stay shared with the
// input.
func TransformExpr(e *Expr, fn ExprMapper) (*Expr, error) {
	if e == nil {
		return nil, nil
	}
	children := e.Children()
	mapped := make([]*Expr, len(children))
	changed := false
	for i, c := range children {
		m, err := TransformExpr(c, fn)
		if err != nil {
			return nil, err
		}
		mapped[i] = m
		changed = changed || m != c
	}
	if changed {
		e = e.withChildren(mapped)
	}
	return fn(e)
}

func mapList(list []*Expr, fn ExprMapper) ([]*Expr, bool, error) {
	if len(list) == 0 {
		return list, false, nil
	}
	out := make([]*Expr, len(list))
	changed := false
	for i, e := range list {
		m, err := TransformExpr(e, fn)
		if err != nil {
			return nil, false, err
		}
		out[i] = m
		changed = changed || m != e
	}
	if !changed {
		return list, false, nil
	}
	return out, true, nil
}

// withChildren returns a shallow copy of e with its children replaced, in
// the order Children reports them.
func (e *Expr) withChildren(c []*Expr) *Expr {
	cp := *e
	take := func() *Expr {
		x := c[0]
		c = c[1:]
		return x
	}
	switch d := e.Data.(type) {
	case *BinaryData:
		cp.Data = &BinaryData{Op: d.Op, Left: c[0], Right: c[1]}
	case *UnaryData:
		cp.Data = &UnaryData{Op: d.Op, Operand: c[0]}
	case *CallData:
		nd := *d
		if d.Receiver != nil {
			nd.Receiver = take()
		}
		nd.Args = c
		cp.Data = &nd
	case *FieldData:
		nd := *d
		nd.Receiver = take()
		cp.Data = &nd
	case *PropertyData:
		nd := *d
		nd.Receiver = take()
		cp.Data = &nd
	case *CastData:
		cp.Data = &CastData{Operand: c[0]}
	case *ReferenceData:
		cp.Data = &ReferenceData{Referent: c[0]}
	case *CommaData:
		cp.Data = &CommaData{Exprs: c}
	case *ConditionalData:
		cp.Data = &ConditionalData{Cond: c[0], Then: c[1], Else: c[2]}
	case *ArrayInitData:
		nd := *d
		if d.HasInit {
			nd.Elements = c
		} else {
			nd.Size = take()
		}
		cp.Data = &nd
	case *MemoryData:
		nd := *d
		nd.Address = take()
		if d.Value != nil {
			nd.Value = take()
		}
		cp.Data = &nd
	case *StringLengthData:
		cp.Data = &StringLengthData{String: c[0]}
	case *IntrinsicData:
		cp.Data = &IntrinsicData{Op: d.Op, Args: c}
	case *InvokeData:
		cp.Data = &InvokeData{Export: d.Export, Args: c}
	case *AssertData:
		nd := *d
		if d.Expected != nil {
			nd.Expected = take()
		}
		nd.Args = c
		cp.Data = &nd
	case *HarnessCallData:
		cp.Data = &HarnessCallData{Op: d.Op, Args: c}
	}
	return &cp
}

// TransformStmt applies fn to every expression under s. Statements keep
// their IDs; a statement is copied only when something beneath it changed.
func TransformStmt(s *Stmt, fn ExprMapper) (*Stmt, error) {
	if s == nil {
		return nil, nil
	}
	var (
		data    StmtData
		changed bool
	)
	switch d := s.Data.(type) {
	case *BlockData:
		list, ch, err := transformStmts(d.Stmts, fn)
		if err != nil {
			return nil, err
		}
		data, changed = &BlockData{Stmts: list}, ch
	case *ExprStmtData:
		e, err := TransformExpr(d.Expr, fn)
		if err != nil {
			return nil, err
		}
		data, changed = &ExprStmtData{Expr: e}, e != d.Expr
	case *IfData:
		cond, err := TransformExpr(d.Cond, fn)
		if err != nil {
			return nil, err
		}
		then, err := TransformStmt(d.Then, fn)
		if err != nil {
			return nil, err
		}
		els, err := TransformStmt(d.Else, fn)
		if err != nil {
			return nil, err
		}
		data = &IfData{Cond: cond, Then: then, Else: els}
		changed = cond != d.Cond || then != d.Then || els != d.Else
	case *ForData:
		init, ch1, err := transformStmts(d.Init, fn)
		if err != nil {
			return nil, err
		}
		cond, err := TransformExpr(d.Cond, fn)
		if err != nil {
			return nil, err
		}
		body, err := TransformStmt(d.Body, fn)
		if err != nil {
			return nil, err
		}
		post, ch2, err := mapList(d.Post, fn)
		if err != nil {
			return nil, err
		}
		data = &ForData{Index: d.Index, Init: init, Cond: cond, Post: post, Body: body}
		changed = ch1 || ch2 || cond != d.Cond || body != d.Body
	case *WhileData:
		cond, err := TransformExpr(d.Cond, fn)
		if err != nil {
			return nil, err
		}
		body, err := TransformStmt(d.Body, fn)
		if err != nil {
			return nil, err
		}
		data = &WhileData{Index: d.Index, Cond: cond, Body: body}
		changed = cond != d.Cond || body != d.Body
	case *LabelGroupData:
		labels := make([]Label, len(d.Labels))
		for i, l := range d.Labels {
			body, ch, err := transformStmts(l.Body, fn)
			if err != nil {
				return nil, err
			}
			labels[i] = Label{Name: l.Name, Body: body}
			changed = changed || ch
		}
		data = &LabelGroupData{Labels: labels}
	case *ReturnData:
		v, err := TransformExpr(d.Value, fn)
		if err != nil {
			return nil, err
		}
		data, changed = &ReturnData{Value: v}, v != d.Value
	case *SwitchData:
		key, err := TransformExpr(d.Key, fn)
		if err != nil {
			return nil, err
		}
		changed = key != d.Key
		cases := make([]SwitchCase, len(d.Cases))
		for i, c := range d.Cases {
			vals, ch1, err := mapList(c.Values, fn)
			if err != nil {
				return nil, err
			}
			body, ch2, err := transformStmts(c.Body, fn)
			if err != nil {
				return nil, err
			}
			cases[i] = SwitchCase{Values: vals, Default: c.Default, Body: body}
			changed = changed || ch1 || ch2
		}
		data = &SwitchData{Index: d.Index, Key: key, Cases: cases}
	case *VarDeclData:
		vars := make([]VarInit, len(d.Vars))
		for i, vi := range d.Vars {
			init, err := TransformExpr(vi.Init, fn)
			if err != nil {
				return nil, err
			}
			vars[i] = VarInit{Name: vi.Name, Init: init}
			changed = changed || init != vi.Init
		}
		data = &VarDeclData{Vars: vars}
	}
	if !changed {
		return s, nil
	}
	cp := *s
	cp.Data = data
	return &cp, nil
}

func transformStmts(list []*Stmt, fn ExprMapper) ([]*Stmt, bool, error) {
	out := make([]*Stmt, len(list))
	changed := false
	for i, s := range list {
		m, err := TransformStmt(s, fn)
		if err != nil {
			return nil, false, err
		}
		out[i] = m
		changed = changed || m != s
	}
	if !changed {
		return list, false, nil
	}
	return out, true, nil
}
