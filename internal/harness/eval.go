package harness

import (
	"fmt"
	"strings"

	"ilwasm/internal/types"
)

const (
	defaultMaxSteps = 50_000_000
	maxCallDepth    = 512
)

// branchSignal unwinds to the block or loop named label.
type branchSignal struct {
	label string
}

func (b *branchSignal) Error() string { return "br " + b.label + " outside its target" }

// returnSignal unwinds to the enclosing function.
type returnSignal struct {
	value Value
}

func (r *returnSignal) Error() string { return "return outside a function" }

type frame struct {
	fn     *function // nil for directives
	locals map[string]Value
}

func (f *frame) name() string {
	if f.fn == nil {
		return "<top>"
	}
	return f.fn.name
}

type machine struct {
	mod      *Module
	heap     *Heap
	sink     *Sink
	out      strings.Builder
	steps    int64
	maxSteps int64
	depth    int

	// top holds directive locals, created on first use.
	top *frame
	dir string

	// pending is set once a directive has printed its header line.
	pending bool
	passed  int
	failed  int
	traps   int
}

func newMachine(mod *Module, sink *Sink, maxSteps int64) (*machine, error) {
	if maxSteps <= 0 {
		maxSteps = defaultMaxSteps
	}
	m := &machine{
		mod:      mod,
		heap:     NewHeap(mod.memory),
		sink:     sink,
		maxSteps: maxSteps,
		top:      &frame{locals: make(map[string]Value)},
	}
	for _, s := range mod.segments {
		if err := m.heap.Init(s.offset, s.data); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *machine) call(fn *function, args []Value) (Value, error) {
	if len(args) != len(fn.params) {
		return Value{}, trapf(TrapBadOperand, "%s expects %d arguments, got %d", fn.name, len(fn.params), len(args))
	}
	if m.depth >= maxCallDepth {
		return Value{}, trapf(TrapCallDepth, "call depth %d exceeded calling %s", maxCallDepth, fn.name)
	}
	m.depth++
	defer func() { m.depth-- }()

	f := &frame{fn: fn, locals: make(map[string]Value, len(fn.params)+len(fn.locals))}
	for i, p := range fn.params {
		f.locals[p.name] = args[i]
	}
	for _, l := range fn.locals {
		f.locals[l.name] = Value{Type: l.kw}
	}
	v, err := m.seq(f, fn.body)
	if err != nil {
		switch sig := err.(type) {
		case *returnSignal:
			v = sig.value
		case *branchSignal:
			return Value{}, m.backtrace(trapf(TrapUnknownName, "br to unknown label %s", sig.label), fn)
		default:
			return Value{}, m.backtrace(err, fn)
		}
	}
	if fn.result == "" {
		return Value{}, nil
	}
	return v, nil
}

func (m *machine) backtrace(err error, fn *function) error {
	if t, ok := err.(*Trap); ok {
		t.Backtrace = append(t.Backtrace, fn.name)
	}
	return err
}

// seq evaluates forms in order and yields the last value.
func (m *machine) seq(f *frame, forms []*Node) (Value, error) {
	var last Value
	for _, n := range forms {
		v, err := m.eval(f, n)
		if err != nil {
			return Value{}, err
		}
		last = v
	}
	return last, nil
}

func (m *machine) evalArgs(f *frame, args []*Node) ([]Value, error) {
	out := make([]Value, len(args))
	for i, a := range args {
		v, err := m.eval(f, a)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *machine) eval(f *frame, n *Node) (Value, error) {
	m.steps++
	if m.steps > m.maxSteps {
		return Value{}, trapf(TrapStepLimit, "step budget of %d exhausted", m.maxSteps)
	}
	v, err := m.form(f, n)
	if t, ok := err.(*Trap); ok && t.Line == 0 {
		t.Line = n.Line
	}
	return v, err
}

func (m *machine) form(f *frame, n *Node) (Value, error) {
	if !n.IsList() {
		return Value{}, trapf(TrapBadOperand, "expected a form, found %s", n)
	}
	head := n.Head()
	args := n.Args()
	switch head {
	case "nop":
		return Value{}, nil
	case "block":
		return m.block(f, args)
	case "loop":
		return m.loop(f, args)
	case "if":
		return m.ifForm(f, args)
	case "br":
		if len(args) != 1 {
			return Value{}, trapf(TrapBadOperand, "malformed br")
		}
		return Value{}, &branchSignal{label: args[0].Atom}
	case "return":
		var v Value
		if len(args) > 0 {
			var err error
			if v, err = m.eval(f, args[0]); err != nil {
				return Value{}, err
			}
		}
		return Value{}, &returnSignal{value: v}
	case "get_local":
		return m.getLocal(f, args)
	case "set_local":
		return m.setLocal(f, args)
	case "call":
		return m.callForm(f, args)
	case "call_import":
		return m.callImport(f, args)
	case "invoke":
		return m.invoke(f, n, true)
	case "assert_eq", "assert_return":
		return Value{}, m.assertReturn(f, n)
	case "assert_heap_eq":
		return Value{}, m.assertHeap(n)
	case "assert_heap_eq_file":
		return Value{}, m.assertHeapFile(n)
	}
	if strings.HasPrefix(head, "untranslatable.") {
		return Value{}, trapf(TrapUntranslatable, "reached %s", head)
	}
	kw, op, ok := splitOp(head)
	if !ok || !isValueKeyword(kw) {
		return Value{}, trapf(TrapUnknownName, "unknown instruction %q", head)
	}
	switch {
	case op == "const":
		if len(args) != 1 {
			return Value{}, trapf(TrapBadOperand, "malformed %s", head)
		}
		return parseConst(kw, args[0].Atom)
	case op == "switch":
		return m.switchForm(f, kw, args)
	case strings.HasPrefix(op, "load"):
		return m.load(f, kw, strings.TrimPrefix(op, "load"), args)
	case strings.HasPrefix(op, "store"):
		return m.store(f, kw, strings.TrimPrefix(op, "store"), args)
	}
	vals, err := m.evalArgs(f, args)
	if err != nil {
		return Value{}, err
	}
	switch len(vals) {
	case 1:
		if v, ok, err := unary(kw, op, vals[0]); ok {
			return v, err
		}
	case 2:
		if v, ok, err := binaryOp(kw, op, vals[0], vals[1]); ok {
			return v, err
		}
	}
	return Value{}, trapf(TrapUnknownName, "unknown instruction %q with %d operands", head, len(vals))
}

// labelOf splits an optional leading $label from a block or loop body.
func labelOf(args []*Node) (string, []*Node) {
	if len(args) > 0 && !args[0].IsList() && !args[0].IsText && strings.HasPrefix(args[0].Atom, "$") {
		return args[0].Atom, args[1:]
	}
	return "", args
}

func (m *machine) block(f *frame, args []*Node) (Value, error) {
	label, body := labelOf(args)
	v, err := m.seq(f, body)
	if br, ok := err.(*branchSignal); ok && label != "" && br.label == label {
		return Value{}, nil
	}
	return v, err
}

// loop repeats its body until a br names the loop.
func (m *machine) loop(f *frame, args []*Node) (Value, error) {
	label, body := labelOf(args)
	for {
		_, err := m.seq(f, body)
		if err == nil {
			if len(body) == 0 {
				return Value{}, trapf(TrapStepLimit, "empty loop %s never exits", label)
			}
			continue
		}
		if br, ok := err.(*branchSignal); ok && label != "" && br.label == label {
			return Value{}, nil
		}
		return Value{}, err
	}
}

func (m *machine) ifForm(f *frame, args []*Node) (Value, error) {
	if len(args) < 2 || len(args) > 3 {
		return Value{}, trapf(TrapBadOperand, "malformed if with %d operands", len(args))
	}
	c, err := m.eval(f, args[0])
	if err != nil {
		return Value{}, err
	}
	if c.truthy() {
		return m.eval(f, args[1])
	}
	if len(args) == 3 {
		return m.eval(f, args[2])
	}
	return Value{}, nil
}

func (m *machine) getLocal(f *frame, args []*Node) (Value, error) {
	if len(args) != 1 {
		return Value{}, trapf(TrapBadOperand, "malformed get_local")
	}
	v, ok := f.locals[args[0].Atom]
	if !ok {
		if f.fn != nil {
			return Value{}, trapf(TrapUnknownName, "unknown local %s in %s", args[0].Atom, f.name())
		}
		return I32(0), nil
	}
	if v.IsVoid() {
		return I32(0), nil
	}
	return v, nil
}

func (m *machine) setLocal(f *frame, args []*Node) (Value, error) {
	if len(args) != 2 {
		return Value{}, trapf(TrapBadOperand, "malformed set_local")
	}
	name := args[0].Atom
	if f.fn != nil {
		if _, ok := f.locals[name]; !ok {
			return Value{}, trapf(TrapUnknownName, "unknown local %s in %s", name, f.name())
		}
	}
	v, err := m.eval(f, args[1])
	if err != nil {
		return Value{}, err
	}
	f.locals[name] = v
	return v, nil
}

func (m *machine) callForm(f *frame, args []*Node) (Value, error) {
	if len(args) == 0 {
		return Value{}, trapf(TrapBadOperand, "call without a target")
	}
	fn, ok := m.mod.funcs[args[0].Atom]
	if !ok {
		return Value{}, trapf(TrapUnknownName, "call to unknown function %s", args[0].Atom)
	}
	vals, err := m.evalArgs(f, args[1:])
	if err != nil {
		return Value{}, err
	}
	return m.call(fn, vals)
}

func (m *machine) callImport(f *frame, args []*Node) (Value, error) {
	if len(args) == 0 {
		return Value{}, trapf(TrapBadOperand, "call_import without a target")
	}
	imp, ok := m.mod.imports[args[0].Atom]
	if !ok {
		return Value{}, trapf(TrapUnknownName, "call to undeclared import %s", args[0].Atom)
	}
	vals, err := m.evalArgs(f, args[1:])
	if err != nil {
		return Value{}, err
	}
	if len(vals) != imp.params {
		return Value{}, trapf(TrapBadOperand, "import %s expects %d arguments, got %d", imp.name, imp.params, len(vals))
	}
	return Value{}, m.sink.call(m.heap, imp, vals)
}

// switchForm runs the first non-empty arm at or after the matching case,
// or at the default arm when nothing matches.
func (m *machine) switchForm(f *frame, kw types.Keyword, args []*Node) (Value, error) {
	if len(args) == 0 {
		return Value{}, trapf(TrapBadOperand, "switch without a key")
	}
	key, err := m.eval(f, args[0])
	if err != nil {
		return Value{}, err
	}
	arms := args[1:]
	start := -1
	for i, arm := range arms {
		if arm.Head() != "case" || len(arm.Args()) == 0 {
			continue
		}
		v, err := parseConst(kw, arm.Args()[0].Atom)
		if err != nil {
			return Value{}, err
		}
		if v.Bits == key.Bits {
			start = i
			break
		}
	}
	if start < 0 {
		for i, arm := range arms {
			if arm.Head() == "default" {
				start = i
				break
			}
		}
	}
	if start < 0 {
		return Value{}, nil
	}
	for _, arm := range arms[start:] {
		body := arm.Args()
		if arm.Head() == "case" && len(body) > 0 {
			body = body[1:]
		}
		if len(body) == 0 {
			continue
		}
		_, err := m.seq(f, body)
		return Value{}, err
	}
	return Value{}, nil
}

// access decodes a load or store suffix such as "8_u" or "16" together with
// an optional "/1" alignment hint.
func access(kw types.Keyword, suffix string) (width int, signed bool, err error) {
	suffix = strings.TrimSuffix(suffix, "/1")
	switch suffix {
	case "":
		if kw == types.KeywordI64 || kw == types.KeywordF64 {
			return 8, false, nil
		}
		return 4, false, nil
	case "8", "8_u":
		return 1, false, nil
	case "8_s":
		return 1, true, nil
	case "16", "16_u":
		return 2, false, nil
	case "16_s":
		return 2, true, nil
	case "32", "32_u":
		return 4, false, nil
	case "32_s":
		return 4, true, nil
	}
	return 0, false, trapf(TrapUnknownName, "unknown memory access %s.%s", kw, suffix)
}

func (m *machine) load(f *frame, kw types.Keyword, suffix string, args []*Node) (Value, error) {
	width, signed, err := access(kw, suffix)
	if err != nil {
		return Value{}, err
	}
	if len(args) != 1 {
		return Value{}, trapf(TrapBadOperand, "load expects one address")
	}
	addr, err := m.eval(f, args[0])
	if err != nil {
		return Value{}, err
	}
	bits, err := m.heap.load(addr.u32(), width)
	if err != nil {
		return Value{}, err
	}
	if signed {
		shift := 64 - 8*width
		bits = uint64(int64(bits<<shift) >> shift)
	}
	if kw == types.KeywordI32 {
		return u32(uint32(bits)), nil
	}
	return Value{Type: kw, Bits: bits}, nil
}

// store writes the value and yields it.
func (m *machine) store(f *frame, kw types.Keyword, suffix string, args []*Node) (Value, error) {
	width, _, err := access(kw, suffix)
	if err != nil {
		return Value{}, err
	}
	if len(args) != 2 {
		return Value{}, trapf(TrapBadOperand, "store expects an address and a value")
	}
	vals, err := m.evalArgs(f, args)
	if err != nil {
		return Value{}, err
	}
	if err := m.heap.store(vals[0].u32(), width, vals[1].Bits); err != nil {
		return Value{}, err
	}
	return vals[1], nil
}

// invoke calls an export. Printed invocations write their header and
// result line.
func (m *machine) invoke(f *frame, n *Node, print bool) (Value, error) {
	fn, header, vals, err := m.resolveInvoke(f, n)
	if err != nil {
		return Value{}, err
	}
	if print {
		m.header(header)
	}
	v, err := m.call(fn, vals)
	if err != nil {
		return Value{}, err
	}
	if print {
		m.result(v.String())
	}
	return v, nil
}

func (m *machine) resolveInvoke(f *frame, n *Node) (*function, string, []Value, error) {
	args := n.Args()
	if n.Head() != "invoke" || len(args) == 0 || !args[0].IsText {
		return nil, "", nil, trapf(TrapBadOperand, "malformed invoke %s", n)
	}
	name := string(args[0].Text)
	fn, ok := m.mod.exports[name]
	if !ok {
		return nil, "", nil, trapf(TrapUnknownName, "no export named '%s'", name)
	}
	vals, err := m.evalArgs(f, args[1:])
	if err != nil {
		return nil, "", nil, err
	}
	parts := make([]string, 0, len(vals)+1)
	parts = append(parts, fmt.Sprintf("%q", name))
	for _, v := range vals {
		parts = append(parts, v.String())
	}
	return fn, "(invoke " + strings.Join(parts, " ") + ")", vals, nil
}

func (m *machine) header(text string) {
	m.out.WriteString(text)
	m.out.WriteByte('\n')
	m.pending = true
}

func (m *machine) result(text string) {
	m.out.WriteString("-> ")
	m.out.WriteString(text)
	m.out.WriteByte('\n')
	m.pending = false
}

func (m *machine) verdict(pass bool, expected, actual string) {
	word := "fail"
	if pass {
		word = "pass"
		m.passed++
	} else {
		m.failed++
	}
	m.result(fmt.Sprintf("%s '%s' == '%s'", word, expected, actual))
}

// assertReturn handles (assert_eq (invoke ...) expected) and
// (assert_return expected (invoke ...)). Values compare by their text.
func (m *machine) assertReturn(f *frame, n *Node) error {
	args := n.Args()
	if len(args) != 2 {
		return trapf(TrapBadOperand, "malformed %s", n.Head())
	}
	inv, exp := args[0], args[1]
	if n.Head() == "assert_return" {
		inv, exp = args[1], args[0]
	}
	fn, header, vals, err := m.resolveInvoke(f, inv)
	if err != nil {
		return err
	}
	m.header(header)
	actual, err := m.call(fn, vals)
	if err != nil {
		return err
	}
	expected, err := m.eval(f, exp)
	if err != nil {
		return err
	}
	e, a := expected.String(), actual.String()
	m.verdict(e == a, e, a)
	return nil
}
