package harness

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"ilwasm/internal/trace"
)

// Options configures a run.
type Options struct {
	// StdoutDir receives the files a program writes after stdout_open.
	// Empty keeps them in memory only.
	StdoutDir string
	// Dir resolves the file names of assert_heap_eq_file.
	Dir string
	// MaxSteps bounds the number of evaluated forms. Zero uses the default.
	MaxSteps int64
}

// Report summarizes a run.
type Report struct {
	Passed int
	Failed int
	Traps  int
	// Output is the directive log: each invocation followed by its result.
	Output string
	// Files holds everything written through the output sink.
	Files map[string][]byte
	// Written lists the paths flushed into StdoutDir.
	Written []string
}

// ExitCode is 1 when an assertion failed or a directive trapped.
func (r *Report) ExitCode() int {
	if r.Failed > 0 || r.Traps > 0 {
		return 1
	}
	return 0
}

// Run instantiates the module in text and executes its directives in
// order. A trap aborts the current directive only; malformed text is
// returned as an error.
func Run(ctx context.Context, text string, opts Options) (*Report, error) {
	span, ctx := trace.StartSpan(ctx, trace.ScopePass, "run")
	forms, err := Parse(text)
	if err != nil {
		span.End("parse failed")
		return nil, err
	}
	mod, directives, err := Instantiate(forms)
	if err != nil {
		span.End("instantiate failed")
		return nil, err
	}
	sink := NewSink(opts.StdoutDir)
	m, err := newMachine(mod, sink, opts.MaxSteps)
	if err != nil {
		span.End("instantiate failed")
		return nil, err
	}
	m.dir = opts.Dir
	for _, d := range directives {
		if err := ctx.Err(); err != nil {
			span.End("canceled")
			return nil, err
		}
		if stop := m.directive(d); stop {
			break
		}
	}
	report := &Report{
		Passed: m.passed,
		Failed: m.failed,
		Traps:  m.traps,
		Output: m.out.String(),
		Files:  sink.Files(),
	}
	report.Written, err = sink.Flush()
	span.End(fmt.Sprintf("passed=%d failed=%d traps=%d", report.Passed, report.Failed, report.Traps))
	if err != nil {
		return report, fmt.Errorf("write output: %w", err)
	}
	return report, nil
}

// directive runs one top-level form. It reports true when the form returned
// from the entry point.
func (m *machine) directive(n *Node) bool {
	m.pending = false
	m.steps = 0
	_, err := m.eval(m.top, n)
	if err == nil {
		return false
	}
	if _, ok := err.(*returnSignal); ok {
		return true
	}
	if br, ok := err.(*branchSignal); ok {
		err = trapf(TrapUnknownName, "br to unknown label %s", br.label)
	}
	if !m.pending {
		m.header("(" + n.Head() + " ...)")
	}
	m.traps++
	m.result("trap: " + err.Error())
	return false
}

// assertHeap handles (assert_heap_eq offset "bytes").
func (m *machine) assertHeap(n *Node) error {
	args := n.Args()
	if len(args) != 2 || !args[1].IsText {
		return trapf(TrapBadOperand, "malformed assert_heap_eq")
	}
	off, err := parseSize(args[0])
	if err != nil {
		return trapf(TrapBadOperand, "bad heap offset %s", args[0])
	}
	m.header(n.String())
	want := args[1].Text
	got, err := m.heap.Bytes(off, len(want))
	if err != nil {
		return err
	}
	m.verdict(bytes.Equal(want, got), decodeLatin1(want), decodeLatin1(got))
	return nil
}

// assertHeapFile handles (assert_heap_eq_file offset count "file"). The
// file is looked up among the program's own output first, then in Dir.
func (m *machine) assertHeapFile(n *Node) error {
	args := n.Args()
	if len(args) != 3 || !args[2].IsText {
		return trapf(TrapBadOperand, "malformed assert_heap_eq_file")
	}
	off, err := parseSize(args[0])
	if err != nil {
		return trapf(TrapBadOperand, "bad heap offset %s", args[0])
	}
	count, err := strconv.Atoi(args[1].Atom)
	if err != nil || count < 0 {
		return trapf(TrapBadOperand, "bad byte count %s", args[1])
	}
	m.header(n.String())
	name := string(args[2].Text)
	want, err := m.expectedFile(name)
	if err != nil {
		return trapf(TrapStdout, "read %s: %v", name, err)
	}
	if len(want) > count {
		want = want[:count]
	}
	got, err := m.heap.Bytes(off, count)
	if err != nil {
		return err
	}
	m.verdict(bytes.Equal(want, got), decodeLatin1(want), decodeLatin1(got))
	return nil
}

func (m *machine) expectedFile(name string) ([]byte, error) {
	if buf, ok := m.sink.files[name]; ok {
		return buf.Bytes(), nil
	}
	return os.ReadFile(filepath.Join(m.dir, filepath.Clean(name)))
}
