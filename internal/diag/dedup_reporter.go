package diag

type dedupKey struct {
	code   Code
	sev    Severity
	member string
	msg    string
}

// DedupReporter forwards each (code, severity, member, message) once. Emitters
// use it so an unsupported member is warned about once however often it is
// referenced.
type DedupReporter struct {
	next Reporter
	seen map[dedupKey]struct{}
}

func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{
		next: next,
		seen: make(map[dedupKey]struct{}),
	}
}

func (r *DedupReporter) Report(d Diagnostic) {
	if r == nil {
		return
	}
	key := dedupKey{code: d.Code, sev: d.Severity, member: d.Member, msg: d.Message}
	if d.Member == "" {
		// Without a member identity only exact position repeats collapse.
		key.msg = d.Primary.String() + "|" + d.Message
	}
	if _, ok := r.seen[key]; ok {
		return
	}
	r.seen[key] = struct{}{}
	if r.next != nil {
		r.next.Report(d)
	}
}
