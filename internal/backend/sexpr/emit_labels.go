package sexpr

import (
	"errors"
	"fmt"
	"slices"

	"ilwasm/internal/diag"
	"ilwasm/internal/ir"
)

type labelInfo struct {
	name  string
	group int
	index int
}

// labelTable is the result of the label pre-pass over one function: group
// indices in traversal order and label indices within each group.
type labelTable struct {
	groups  int
	byName  map[string]labelInfo
	groupOf map[ir.NodeID]int
}

func collectLabels(root *ir.Stmt) (*labelTable, error) {
	t := &labelTable{
		byName:  make(map[string]labelInfo),
		groupOf: make(map[ir.NodeID]int),
	}
	var err error
	ir.WalkStmt(root, ir.Visitor{Stmt: func(s *ir.Stmt) bool {
		if err != nil {
			return false
		}
		lg, ok := s.Data.(*ir.LabelGroupData)
		if !ok {
			return true
		}
		g := t.groups
		t.groups++
		t.groupOf[s.ID] = g
		for i, l := range lg.Labels {
			if prev, dup := t.byName[l.Name]; dup {
				err = diag.Errorf(diag.EmiLabelGroupMismatch, s.Span,
					"label %q declared in group %d and again in group %d", l.Name, prev.group, g)
				return false
			}
			t.byName[l.Name] = labelInfo{name: l.Name, group: g, index: i}
		}
		return true
	}})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func gotoForm(info labelInfo) string {
	return fmt.Sprintf("(block (set_local %s (i32.const %d)) (br $labelgroup_%d_dispatch))",
		currentLabelLocal(info.group), info.index, info.group)
}

// labelGroup lowers a label group to a dispatch loop: the current-label
// local selects one section per iteration, a goto stores the target index
// and restarts the loop, and falling off the last section leaves it.
func (fe *funcEmitter) labelGroup(s *ir.Stmt, d *ir.LabelGroupData) error {
	g, ok := fe.labels.groupOf[s.ID]
	if !ok {
		return diag.Errorf(diag.EmiLabelGroupMismatch, s.Span, "label group #%d was not registered", s.ID)
	}
	if len(d.Labels) == 0 {
		return nil
	}
	for i, l := range d.Labels {
		info := fe.labels.byName[l.Name]
		if info.group != g || info.index != i {
			return diag.Errorf(diag.EmiLabelGroupMismatch, s.Span,
				"expected label %s to be in label group %d at %d but got %d at %d", l.Name, g, i, info.group, info.index)
		}
	}

	w := fe.w
	w.line(form("set_local", currentLabelLocal(g), "(i32.const 0)"))
	w.openf("(loop $labelgroup_%d", g)
	w.openf("(block $labelgroup_%d_dispatch", g)
	fe.activeGroup = append(fe.activeGroup, g)
	for i, l := range d.Labels {
		w.openf("(if (i32.eq (get_local %s) (i32.const %d))", currentLabelLocal(g), i)
		w.open("(block")
		if err := fe.stmtList(l.Body); err != nil {
			return err
		}
		if i+1 < len(d.Labels) && !endsInJump(l.Body) {
			w.line(gotoForm(labelInfo{group: g, index: i + 1}))
		}
		w.close()
		w.close()
	}
	fe.activeGroup = fe.activeGroup[:len(fe.activeGroup)-1]
	w.linef("(br $labelgroup_%d)", g)
	w.close()
	w.close()
	return nil
}

func endsInJump(body []*ir.Stmt) bool {
	return len(body) > 0 && body[len(body)-1].IsTerminal()
}

func (fe *funcEmitter) gotoStmt(s *ir.Stmt, d *ir.GotoData) error {
	info, ok := fe.labels.byName[d.Label]
	if !ok {
		return diag.Errorf(diag.EmiUndeclaredLabel, s.Span, "goto %s: no such label", d.Label)
	}
	if !slices.Contains(fe.activeGroup, info.group) {
		return diag.Errorf(diag.EmiUndeclaredLabel, s.Span,
			"goto %s: label group %d does not enclose the goto", d.Label, info.group)
	}
	fe.w.line(gotoForm(info))
	return nil
}

func inMember(err error, fn *ir.Func) error {
	var de *diag.Error
	if errors.As(err, &de) {
		return de.InMember(fn.QualifiedName())
	}
	return fmt.Errorf("%s: %w", fn.QualifiedName(), err)
}
