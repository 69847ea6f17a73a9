package buildpipeline

import (
	"path/filepath"
	"sort"
	"strings"
	"time"

	"ilwasm/internal/driver"
)

// displayName renders path relative to baseDir when it lies beneath it.
func displayName(path, baseDir string) string {
	path = filepath.Clean(path)
	base := strings.TrimSpace(baseDir)
	if base != "" {
		if abs, err := filepath.Abs(base); err == nil {
			base = abs
		}
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		if rel, err := filepath.Rel(base, path); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
			path = rel
		}
	}
	return filepath.ToSlash(path)
}

func normalizeProgressFiles(files []string, baseDir string) []string {
	if len(files) == 0 {
		return files
	}
	normalized := make([]string, 0, len(files))
	seen := make(map[string]struct{}, len(files))
	for _, file := range files {
		if file == "" {
			continue
		}
		path := displayName(file, baseDir)
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		normalized = append(normalized, path)
	}
	sort.Strings(normalized)
	return normalized
}

func emitQueued(sink ProgressSink, files []string) {
	if sink == nil {
		return
	}
	for _, file := range files {
		sink.OnEvent(Event{File: file, Stage: StageDecode, Status: StatusQueued})
	}
}

func emitStage(sink ProgressSink, files []string, stage Stage, status Status, err error, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{Stage: stage, Status: status, Err: err, Elapsed: elapsed})
	for _, file := range files {
		sink.OnEvent(Event{File: file, Stage: stage, Status: status, Err: err, Elapsed: elapsed})
	}
}

// phaseObserver translates per-file driver phases into progress events.
type phaseObserver struct {
	sink    ProgressSink
	baseDir string
}

func (p *phaseObserver) OnPhase(ev driver.PhaseEvent) {
	if p == nil || p.sink == nil {
		return
	}
	var stage Stage
	switch ev.Name {
	case driver.PhaseRead, driver.PhaseDecode:
		stage = StageDecode
	case driver.PhaseEmit:
		stage = StageEmit
	case driver.PhaseCache:
		stage = StageWrite
	default:
		return
	}
	out := Event{File: displayName(ev.Path, p.baseDir), Stage: stage, Elapsed: ev.Elapsed, Err: ev.Err}
	switch ev.Status {
	case driver.PhaseStart:
		out.Status = StatusWorking
	case driver.PhaseFailed:
		out.Status = StatusError
	default:
		// the next phase or the write step reports progress
		return
	}
	p.sink.OnEvent(out)
}

// ProgressFiles lists the inputs a build of inputs would compile, named the
// way progress events name them.
func ProgressFiles(inputs []string, baseDir string) ([]string, error) {
	paths, err := driver.ListInputs(inputs)
	if err != nil {
		return nil, err
	}
	return normalizeProgressFiles(paths, baseDir), nil
}
