package trace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Tracer receives compiler events. Emit must be safe for concurrent use:
// batch builds trace every input from its own goroutine.
type Tracer interface {
	Emit(ev *Event)
	Flush() error
	Close() error
	Level() Level
	// Enabled reports Level() > LevelOff.
	Enabled() bool
}

// StorageMode selects where events go: straight to the trace output, into
// the in-memory ring dumped on failure, or both.
type StorageMode uint8

const (
	ModeStream StorageMode = iota + 1
	ModeRing
	ModeBoth
)

var modeNames = map[StorageMode]string{
	ModeStream: "stream",
	ModeRing:   "ring",
	ModeBoth:   "both",
}

func (m StorageMode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return "unknown"
}

// ParseMode converts a --trace-mode value to a StorageMode.
func ParseMode(s string) (StorageMode, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for mode, name := range modeNames {
		if name == want {
			return mode, nil
		}
	}
	return ModeRing, fmt.Errorf("invalid storage mode: %q (expected: stream|ring|both)", s)
}

// DefaultRingSize is the ring capacity used when Config.RingSize is unset.
const DefaultRingSize = 4096

// Config describes the tracer built from the command line.
type Config struct {
	Level      Level
	Mode       StorageMode
	Format     Format    // FormatAuto picks from OutputPath
	Output     io.Writer // stream destination; OutputPath when nil
	OutputPath string    // "-" or "" for stderr
	RingSize   int
}

// formatFor picks NDJSON for .ndjson and .json trace files, text otherwise.
func formatFor(path string) Format {
	switch filepath.Ext(path) {
	case ".ndjson", ".json":
		return FormatNDJSON
	}
	return FormatText
}

// New creates the tracer cfg describes. LevelOff yields Nop.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	if cfg.RingSize <= 0 {
		cfg.RingSize = DefaultRingSize
	}
	if cfg.Format == FormatAuto {
		cfg.Format = formatFor(cfg.OutputPath)
	}

	var stream, ring Tracer
	if cfg.Mode == ModeStream || cfg.Mode == ModeBoth {
		w, err := openOutput(cfg)
		if err != nil {
			return nil, err
		}
		stream = NewStreamTracer(w, cfg.Level, cfg.Format)
	}
	if cfg.Mode == ModeRing || cfg.Mode == ModeBoth {
		ring = NewRingTracer(cfg.RingSize, cfg.Level)
	}

	switch cfg.Mode {
	case ModeStream:
		return stream, nil
	case ModeRing:
		return ring, nil
	case ModeBoth:
		return NewMultiTracer(cfg.Level, stream, ring), nil
	}
	return nil, fmt.Errorf("unknown storage mode: %v", cfg.Mode)
}

// stderrWriter hides os.Stderr's Close so closing the tracer leaves it open.
type stderrWriter struct{}

func (stderrWriter) Write(p []byte) (int, error) { return os.Stderr.Write(p) }

func openOutput(cfg Config) (io.Writer, error) {
	if cfg.Output != nil {
		return cfg.Output, nil
	}
	if cfg.OutputPath == "" || cfg.OutputPath == "-" {
		return stderrWriter{}, nil
	}
	f, err := os.Create(cfg.OutputPath) // #nosec G304 -- path comes from the --trace flag
	if err != nil {
		return nil, fmt.Errorf("failed to open trace output: %w", err)
	}
	return f, nil
}
