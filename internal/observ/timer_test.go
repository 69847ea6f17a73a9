package observ

import (
	"errors"
	"strings"
	"testing"
)

func TestMeasureRecordsFailures(t *testing.T) {
	tm := NewTimer()
	if err := tm.Measure("rewrite", func() error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	boom := errors.New("boom")
	if err := tm.Measure("emit", func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("error not propagated: %v", err)
	}
	r := tm.Report()
	if len(r.Phases) != 2 || r.Phases[1].Note != "failed" {
		t.Fatalf("unexpected report %+v", r)
	}
	if !strings.Contains(tm.Summary(), "rewrite") {
		t.Fatalf("summary misses phase:\n%s", tm.Summary())
	}
}

func TestMergeSumsByName(t *testing.T) {
	a := Report{TotalMS: 3, Phases: []PhaseReport{{Name: "rewrite", DurationMS: 1}, {Name: "emit", DurationMS: 2}}}
	b := Report{TotalMS: 5, Phases: []PhaseReport{{Name: "emit", DurationMS: 4}, {Name: "layout", DurationMS: 1}}}
	m := Merge(a, b)
	if m.TotalMS != 8 || len(m.Phases) != 3 {
		t.Fatalf("unexpected merge %+v", m)
	}
	if m.Phases[1].Name != "emit" || m.Phases[1].DurationMS != 6 {
		t.Fatalf("emit not summed: %+v", m.Phases[1])
	}
	if top := m.Slowest(1); len(top) != 1 || top[0].Name != "emit" {
		t.Fatalf("slowest = %+v", top)
	}
}

func TestNilTimerMeasure(t *testing.T) {
	var tm *Timer
	ran := false
	_ = tm.Measure("x", func() error { ran = true; return nil })
	if !ran {
		t.Fatal("nil timer must still run fn")
	}
}
