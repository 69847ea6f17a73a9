package trace

import (
	"bytes"
	"context"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

var (
	globalSeq   atomic.Uint64
	globalSpans atomic.Uint64
)

// NextSeq returns the next event sequence number.
func NextSeq() uint64 { return globalSeq.Add(1) }

// NextSpanID returns a fresh span ID.
func NextSpanID() uint64 { return globalSpans.Add(1) }

// goroutineID parses the id out of "goroutine 123 [running]:".
func goroutineID() uint64 {
	var buf [64]byte
	line := buf[:runtime.Stack(buf[:], false)]
	line = bytes.TrimPrefix(line, []byte("goroutine "))
	end := bytes.IndexByte(line, ' ')
	if end < 0 {
		return 0
	}
	gid, err := strconv.ParseUint(string(line[:end]), 10, 64)
	if err != nil {
		return 0
	}
	return gid
}

// inflight holds the outermost program spans that have begun but not ended.
// Heartbeats read it to name programs a stuck build is still working on.
var inflight = struct {
	sync.Mutex
	names map[uint64]string
	next  uint64
}{names: make(map[uint64]string)}

func enterProgram(name string) uint64 {
	inflight.Lock()
	defer inflight.Unlock()
	inflight.next++
	inflight.names[inflight.next] = name
	return inflight.next
}

func leaveProgram(key uint64) {
	inflight.Lock()
	delete(inflight.names, key)
	inflight.Unlock()
}

// InFlight lists the programs currently being compiled or run, sorted.
func InFlight() []string {
	inflight.Lock()
	out := make([]string, 0, len(inflight.names))
	for _, name := range inflight.names {
		out = append(out, name)
	}
	inflight.Unlock()
	sort.Strings(out)
	return out
}

// Span is one begin/end pair. A disabled span still tracks in-flight
// programs so heartbeats work at every level.
type Span struct {
	tracer   Tracer
	id       uint64
	parentID uint64
	gid      uint64
	scope    Scope
	name     string
	started  time.Time
	extra    map[string]string
	program  uint64
}

// Begin starts a span under parent (0 for a root) and emits its begin event.
func Begin(t Tracer, scope Scope, name string, parent uint64) *Span {
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return &Span{tracer: Nop, scope: scope, name: name}
	}
	s := &Span{
		tracer:   t,
		id:       NextSpanID(),
		parentID: parent,
		gid:      goroutineID(),
		scope:    scope,
		name:     name,
		started:  time.Now(),
	}
	t.Emit(s.event(KindSpanBegin, s.started, ""))
	return s
}

func (s *Span) event(kind Kind, at time.Time, detail string) *Event {
	ev := &Event{
		Time:     at,
		Seq:      NextSeq(),
		Kind:     kind,
		Scope:    s.scope,
		SpanID:   s.id,
		ParentID: s.parentID,
		GID:      s.gid,
		Name:     s.name,
		Detail:   detail,
	}
	if kind == KindSpanEnd {
		ev.Extra = s.extra
	}
	return ev
}

// StartSpan begins a span with the context's tracer, parented to the
// context's current span. A program span nested in another program span
// (the emitter inside a file compile) is not counted as in flight twice.
func StartSpan(ctx context.Context, scope Scope, name string) (*Span, context.Context) {
	parent := CurrentSpan(ctx)
	span := Begin(FromContext(ctx), scope, name, parent.SpanID)
	if scope == ScopeProgram && parent.Scope != ScopeProgram {
		span.program = enterProgram(name)
	}
	if span.id == 0 && span.program == 0 {
		return span, ctx
	}
	return span, WithSpanContext(ctx, SpanContext{SpanID: span.id, GID: span.gid, Scope: scope})
}

// End emits the end event and returns the span's duration.
func (s *Span) End(detail string) time.Duration {
	if s == nil {
		return 0
	}
	if s.program != 0 {
		leaveProgram(s.program)
		s.program = 0
	}
	if s.tracer == nil || !s.tracer.Enabled() {
		return 0
	}
	now := time.Now()
	s.tracer.Emit(s.event(KindSpanEnd, now, detail))
	return now.Sub(s.started)
}

// WithExtra attaches a key-value pair to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil || s.tracer == nil || !s.tracer.Enabled() {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string)
	}
	s.extra[key] = value
	return s
}

// WithCount attaches a counter, such as the number of strings laid out.
func (s *Span) WithCount(key string, n int) *Span {
	return s.WithExtra(key, strconv.Itoa(n))
}

// ID returns the span ID, 0 for disabled spans.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

// Point emits an instant event under the context's current span.
func Point(ctx context.Context, scope Scope, name, detail string) {
	t := FromContext(ctx)
	if !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return
	}
	t.Emit(&Event{
		Time:     time.Now(),
		Seq:      NextSeq(),
		Kind:     KindPoint,
		Scope:    scope,
		ParentID: CurrentSpan(ctx).SpanID,
		GID:      goroutineID(),
		Name:     name,
		Detail:   detail,
	})
}
