package driver

import "time"

// PhaseStatus reports whether a phase started or finished.
type PhaseStatus int

const (
	// PhaseStart indicates that a compilation phase has begun.
	PhaseStart PhaseStatus = iota
	PhaseEnd
	// PhaseFailed ends a phase that returned an error.
	PhaseFailed
)

// Phase names reported to observers.
const (
	PhaseRead   = "read"
	PhaseDecode = "decode"
	PhaseEmit   = "emit"
	PhaseCache  = "cache"
)

// PhaseEvent describes a phase boundary for one input.
type PhaseEvent struct {
	Path    string
	Name    string
	Status  PhaseStatus
	Elapsed time.Duration
	Err     error
}

// PhaseObserver receives phase events emitted during CompileFile. It may be
// called from several goroutines at once.
type PhaseObserver func(PhaseEvent)

func (o PhaseObserver) measure(path, name string, fn func() error) error {
	if o == nil {
		return fn()
	}
	o(PhaseEvent{Path: path, Name: name, Status: PhaseStart})
	start := time.Now()
	err := fn()
	status := PhaseEnd
	if err != nil {
		status = PhaseFailed
	}
	o(PhaseEvent{Path: path, Name: name, Status: status, Elapsed: time.Since(start), Err: err})
	return err
}
