// Package buildpipeline orchestrates batch compilation and execution of IR
// documents and reports progress per file.
package buildpipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ilwasm/internal/driver"
	"ilwasm/internal/observ"
)

// ModuleExt is the extension of written module text.
const ModuleExt = ".wast"

// BuildRequest configures a batch build.
type BuildRequest struct {
	// Inputs are IR files or directories searched for *.irmp.
	Inputs []string
	// BaseDir is used to shorten displayed paths and to mirror the input
	// tree under OutDir.
	BaseDir string
	// OutDir receives the modules. Empty writes each module next to its input.
	OutDir         string
	Jobs           int
	MaxDiagnostics int
	Cache          *driver.DiskCache
	Timings        bool
	Progress       ProgressSink
}

// Artifact is one compiled input.
type Artifact struct {
	Input  string
	Output string
	Result *driver.Result
}

// BuildResult captures build artefacts and timings.
type BuildResult struct {
	Artifacts []Artifact
	Files     []string
	Failed    int
	Timings   Timings
	// Phases merges the per-program phase timings.
	Phases observ.Report
}

// ErrBuildFailed is returned when at least one input did not compile.
var ErrBuildFailed = errors.New("build failed")

// Build compiles every input and writes the module text of each program
// that compiled. Programs that fail are reported in their Artifact and do
// not stop the others.
func Build(ctx context.Context, req *BuildRequest) (BuildResult, error) {
	var result BuildResult
	if req == nil {
		return result, fmt.Errorf("missing build request")
	}
	paths, err := driver.ListInputs(req.Inputs)
	if err != nil {
		return result, err
	}
	if len(paths) == 0 {
		return result, fmt.Errorf("no %s inputs found", driver.InputExt)
	}
	result.Files = normalizeProgressFiles(paths, req.BaseDir)
	emitQueued(req.Progress, result.Files)

	phase := &phaseObserver{sink: req.Progress, baseDir: req.BaseDir}
	opts := driver.Options{
		MaxDiagnostics: req.MaxDiagnostics,
		Timings:        req.Timings,
		Cache:          req.Cache,
		Observer:       phase.OnPhase,
	}

	compileStart := time.Now()
	results, err := driver.CompileFiles(ctx, paths, opts, req.Jobs)
	result.Timings.Set(StageEmit, time.Since(compileStart))
	if err != nil {
		emitStage(req.Progress, nil, StageEmit, StatusError, err, 0)
		return result, err
	}

	writeStart := time.Now()
	reports := make([]observ.Report, 0, len(results))
	for i, res := range results {
		art := Artifact{Input: paths[i], Result: res}
		file := displayName(paths[i], req.BaseDir)
		reports = append(reports, res.Timing)
		if res.Failed() {
			result.Failed++
			result.Artifacts = append(result.Artifacts, art)
			sendEvent(req.Progress, Event{File: file, Stage: StageEmit, Status: StatusError, Err: res.Err})
			continue
		}
		art.Output = outputPath(paths[i], req.BaseDir, req.OutDir)
		if werr := writeModule(art.Output, res.Output.Text); werr != nil {
			res.Err = werr
			result.Failed++
			sendEvent(req.Progress, Event{File: file, Stage: StageWrite, Status: StatusError, Err: werr})
		} else {
			sendEvent(req.Progress, Event{File: file, Stage: StageWrite, Status: StatusDone})
		}
		result.Artifacts = append(result.Artifacts, art)
	}
	result.Timings.Set(StageWrite, time.Since(writeStart))
	result.Phases = observ.Merge(reports...)

	if result.Failed > 0 {
		err = fmt.Errorf("%w: %d of %d inputs", ErrBuildFailed, result.Failed, len(paths))
		emitStage(req.Progress, nil, StageWrite, StatusError, err, result.Timings.Duration(StageWrite))
		return result, err
	}
	emitStage(req.Progress, nil, StageWrite, StatusDone, nil, result.Timings.Duration(StageWrite))
	return result, nil
}

// outputPath places input's module under outDir, mirroring its position
// below baseDir when possible.
func outputPath(input, baseDir, outDir string) string {
	name := strings.TrimSuffix(input, filepath.Ext(input)) + ModuleExt
	if outDir == "" {
		return name
	}
	rel := filepath.Base(name)
	if baseDir != "" {
		if r, err := filepath.Rel(baseDir, name); err == nil && !strings.HasPrefix(r, "..") && !filepath.IsAbs(r) {
			rel = r
		}
	}
	return filepath.Join(outDir, rel)
}

func writeModule(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		return fmt.Errorf("failed to write module %q: %w", path, err)
	}
	return nil
}

func sendEvent(sink ProgressSink, evt Event) {
	if sink != nil {
		sink.OnEvent(evt)
	}
}
