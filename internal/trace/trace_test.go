package trace

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestStartSpanParentsToContext(t *testing.T) {
	ring := NewRingTracer(16, LevelDebug)
	ctx := WithTracer(context.Background(), ring)

	outer, ctx := StartSpan(ctx, ScopePass, "emit")
	inner, _ := StartSpan(ctx, ScopeFunction, "func:P::f")
	inner.End("")
	outer.End("ok")

	events := ring.Snapshot()
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}
	if events[1].ParentID != outer.ID() {
		t.Errorf("inner parent = %d, want %d", events[1].ParentID, outer.ID())
	}
	if events[3].Kind != KindSpanEnd || events[3].Detail != "ok" {
		t.Errorf("unexpected last event %+v", events[3])
	}
}

func TestLevelFiltersScopes(t *testing.T) {
	cases := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelPhase, ScopePass, true},
		{LevelPhase, ScopeProgram, false},
		{LevelDetail, ScopeProgram, true},
		{LevelDetail, ScopeFunction, false},
		{LevelDebug, ScopeFunction, true},
	}
	for _, tc := range cases {
		if got := tc.level.ShouldEmit(tc.scope); got != tc.want {
			t.Errorf("%s.ShouldEmit(%s) = %v, want %v", tc.level, tc.scope, got, tc.want)
		}
	}
}

func TestRingWrapsAndDumps(t *testing.T) {
	ring := NewRingTracer(2, LevelDebug)
	for _, name := range []string{"a", "b", "c"} {
		ring.Emit(&Event{Kind: KindPoint, Scope: ScopePass, Name: name})
	}
	var buf bytes.Buffer
	if err := ring.Dump(&buf, FormatNDJSON); err != nil {
		t.Fatalf("dump: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.Contains(lines[0], `"name":"b"`) || !strings.Contains(lines[1], `"name":"c"`) {
		t.Fatalf("unexpected dump:\n%s", buf.String())
	}
}

func TestStreamTextFormat(t *testing.T) {
	var buf bytes.Buffer
	st := NewStreamTracer(&buf, LevelPhase, FormatText)
	ctx := WithTracer(context.Background(), st)
	span, _ := StartSpan(ctx, ScopePass, "layout")
	span.WithExtra("strings", "3").End("")
	out := buf.String()
	if !strings.Contains(out, "→ layout") || !strings.Contains(out, "← layout {strings=3}") {
		t.Fatalf("unexpected text trace:\n%s", out)
	}
}

func TestProgramSpansTrackInFlight(t *testing.T) {
	ring := NewRingTracer(16, LevelPhase)
	ctx := WithTracer(context.Background(), ring)

	file, ctx := StartSpan(ctx, ScopeProgram, "inflight/countup.irmp")
	emit, _ := StartSpan(ctx, ScopeProgram, "CountUp")
	if got := strings.Join(InFlight(), ","); !strings.Contains(got, "inflight/countup.irmp") || strings.Contains(got, "CountUp") {
		t.Fatalf("in flight = %q", got)
	}
	emit.End("")
	file.End("")
	for _, name := range InFlight() {
		if name == "inflight/countup.irmp" {
			t.Fatalf("ended program still in flight")
		}
	}
	if n := len(ring.Snapshot()); n != 0 {
		t.Fatalf("program spans recorded at phase level: %d events", n)
	}
}

func TestHeartbeatDetail(t *testing.T) {
	cases := []struct {
		beat     int
		programs []string
		want     string
	}{
		{1, nil, "#1 idle"},
		{3, []string{"a.irmp", "b.irmp"}, "#3 in flight: a.irmp, b.irmp"},
	}
	for _, tc := range cases {
		if got := heartbeatDetail(tc.beat, tc.programs); got != tc.want {
			t.Errorf("heartbeatDetail(%d, %v) = %q, want %q", tc.beat, tc.programs, got, tc.want)
		}
	}
}

func TestHeartbeatStops(t *testing.T) {
	ring := NewRingTracer(64, LevelPhase)
	hb := StartHeartbeat(context.Background(), ring, time.Millisecond)
	if hb == nil {
		t.Fatal("expected a heartbeat")
	}
	time.Sleep(10 * time.Millisecond)
	hb.Stop()
	n := len(ring.Snapshot())
	if n == 0 {
		t.Fatal("no heartbeat events")
	}
	time.Sleep(5 * time.Millisecond)
	if len(ring.Snapshot()) != n {
		t.Fatal("heartbeat kept running after Stop")
	}
	if StartHeartbeat(context.Background(), Nop, time.Millisecond) != nil {
		t.Fatal("disabled tracer started a heartbeat")
	}
}

type failingTracer struct {
	nopTracer
	err error
}

func (f failingTracer) Close() error { return f.err }

func TestMultiTracerJoinsCloseErrors(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")
	multi := NewMultiTracer(LevelPhase, failingTracer{err: first}, nil, failingTracer{err: second})
	err := multi.Close()
	if !errors.Is(err, first) || !errors.Is(err, second) {
		t.Fatalf("close error = %v", err)
	}
	if multi.Ring() != nil {
		t.Fatal("unexpected ring")
	}
}

func TestNewPicksTracer(t *testing.T) {
	off, err := New(Config{Level: LevelOff})
	if err != nil || off.Enabled() {
		t.Fatalf("off tracer = %v, %v", off, err)
	}
	var buf bytes.Buffer
	both, err := New(Config{Level: LevelPhase, Mode: ModeBoth, Output: &buf, OutputPath: "run.ndjson"})
	if err != nil {
		t.Fatal(err)
	}
	multi, ok := both.(*MultiTracer)
	if !ok || multi.Ring() == nil {
		t.Fatalf("both mode built %T", both)
	}
	both.Emit(&Event{Kind: KindPoint, Scope: ScopePass, Name: "emit"})
	if !strings.HasPrefix(buf.String(), "{") {
		t.Fatalf("expected NDJSON output, got %q", buf.String())
	}
	if _, err := ParseMode("sideways"); err == nil {
		t.Fatal("expected a mode error")
	}
	if m, err := ParseMode("Both"); err != nil || m != ModeBoth {
		t.Fatalf("ParseMode(Both) = %v, %v", m, err)
	}
}
