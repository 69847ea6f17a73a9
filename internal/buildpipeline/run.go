package buildpipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ilwasm/internal/driver"
	"ilwasm/internal/harness"
	"ilwasm/internal/ir"
)

// RunRequest configures compiling and executing one program.
type RunRequest struct {
	// Input is an IR document. Ignored when Program is set.
	Input string
	// Program is an in-memory program such as a built-in example.
	Program *ir.Program
	// StdoutDir receives files the program opens through the harness.
	StdoutDir string
	// Dir resolves assert_heap_eq_file paths. Defaults to Input's directory.
	Dir            string
	MaxSteps       int64
	MaxDiagnostics int
	Timings        bool
	Progress       ProgressSink
}

// RunResult captures the compiled module and the harness report.
type RunResult struct {
	Compile *driver.Result
	Report  *harness.Report
	Timings Timings
}

// Run decodes, compiles and executes one program. A program that fails to
// compile is an error; failing assertions are only reflected in the report.
func Run(ctx context.Context, req *RunRequest) (RunResult, error) {
	var result RunResult
	if req == nil {
		return result, fmt.Errorf("missing run request")
	}
	file := req.Input
	prog := req.Program
	if prog != nil {
		file = prog.Name
	}
	files := []string{file}
	emitQueued(req.Progress, files)

	decodeStart := time.Now()
	if prog == nil {
		emitStage(req.Progress, files, StageDecode, StatusWorking, nil, 0)
		data, err := os.ReadFile(req.Input)
		if err != nil {
			err = fmt.Errorf("read %s: %w", req.Input, err)
			emitStage(req.Progress, files, StageDecode, StatusError, err, 0)
			return result, err
		}
		if prog, err = ir.Unmarshal(data); err != nil {
			emitStage(req.Progress, files, StageDecode, StatusError, err, 0)
			return result, err
		}
	}
	if err := ValidateEntrypoint(prog); err != nil {
		emitStage(req.Progress, files, StageDecode, StatusError, err, 0)
		return result, err
	}
	result.Timings.Set(StageDecode, time.Since(decodeStart))

	emitStart := time.Now()
	emitStage(req.Progress, files, StageEmit, StatusWorking, nil, 0)
	res, err := driver.Compile(ctx, prog, driver.Options{MaxDiagnostics: req.MaxDiagnostics, Timings: req.Timings})
	if err != nil {
		emitStage(req.Progress, files, StageEmit, StatusError, err, 0)
		return result, err
	}
	res.Path = req.Input
	result.Compile = res
	result.Timings.Set(StageEmit, time.Since(emitStart))
	if res.Failed() {
		emitStage(req.Progress, files, StageEmit, StatusError, res.Err, 0)
		return result, res.Err
	}

	dir := req.Dir
	if dir == "" && req.Input != "" {
		dir = filepath.Dir(req.Input)
	}
	runStart := time.Now()
	emitStage(req.Progress, files, StageRun, StatusWorking, nil, 0)
	report, err := harness.Run(ctx, res.Output.Text, harness.Options{
		StdoutDir: req.StdoutDir,
		Dir:       dir,
		MaxSteps:  req.MaxSteps,
	})
	result.Report = report
	result.Timings.Set(StageRun, time.Since(runStart))
	if err != nil {
		emitStage(req.Progress, files, StageRun, StatusError, err, 0)
		return result, err
	}
	status := StatusDone
	if report.ExitCode() != 0 {
		status = StatusError
	}
	emitStage(req.Progress, files, StageRun, status, nil, result.Timings.Duration(StageRun))
	return result, nil
}
