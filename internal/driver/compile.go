// Package driver compiles IR documents to module text: one program at a
// time through Compile, or whole batches of files in parallel through
// CompileFiles, with an optional on-disk cache of finished modules.
package driver

import (
	"context"
	"fmt"
	"os"

	"ilwasm/internal/backend/sexpr"
	"ilwasm/internal/diag"
	"ilwasm/internal/ir"
	"ilwasm/internal/observ"
	"ilwasm/internal/source"
	"ilwasm/internal/trace"
	"ilwasm/internal/version"
)

// Options configures compilation.
type Options struct {
	// MaxDiagnostics bounds each program's bag. Zero means 100.
	MaxDiagnostics int
	// Timings records the rewrite, layout and emit phases per program.
	Timings bool
	// Cache, if set, serves and stores finished modules by content hash.
	Cache *DiskCache
	// Mem dedupes inputs within one process.
	Mem *MemCache
	// Observer receives per-file phase events.
	Observer PhaseObserver
}

func (o Options) maxDiagnostics() int {
	if o.MaxDiagnostics <= 0 {
		return 100
	}
	return o.MaxDiagnostics
}

// Result is one compiled program.
type Result struct {
	Path   string
	Name   string
	Output *sexpr.Output
	Bag    *diag.Bag
	Files  *source.FileSet
	Timing observ.Report
	Cached bool
	// Err is set when the program could not be compiled at all. Its
	// diagnostic, if any, is also in Bag.
	Err error
}

// Failed reports whether no module was produced.
func (r *Result) Failed() bool {
	return r == nil || r.Err != nil || r.Output == nil
}

// Compile lowers prog to module text. Structural errors are returned in
// Result.Err and recorded in Result.Bag; the error return is reserved for
// cancellation.
func Compile(ctx context.Context, prog *ir.Program, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := &Result{Name: prog.Name, Bag: diag.NewBag(opts.maxDiagnostics()), Files: prog.Files}
	var timer *observ.Timer
	if opts.Timings {
		timer = observ.NewTimer()
	}
	out, err := sexpr.EmitModule(ctx, prog, sexpr.Options{
		Reporter: diag.BagReporter{Bag: res.Bag},
		Timer:    timer,
	})
	res.Timing = timer.Report()
	if err != nil {
		res.Err = err
		if d, ok := diag.AsDiagnostic(err); ok {
			res.Bag.Add(d)
		}
		return res, nil
	}
	res.Output = out
	res.Bag.Sort()
	return res, nil
}

// CompileFile reads and compiles one msgpack IR document.
func CompileFile(ctx context.Context, path string, opts Options) (*Result, error) {
	span, ctx := trace.StartSpan(ctx, trace.ScopeProgram, path)
	defer span.End("")

	var data []byte
	err := opts.Observer.measure(path, PhaseRead, func() error {
		var err error
		data, err = os.ReadFile(path)
		return err
	})
	if err != nil {
		return failed(path, opts, fmt.Errorf("read %s: %w", path, err)), nil
	}

	key := CacheKey(data, fingerprint())
	if r, ok := opts.Mem.Get(path, key); ok {
		return r, nil
	}
	if r, ok := cachedResult(path, key, opts); ok {
		opts.Mem.Put(path, key, r)
		return r, nil
	}

	var prog *ir.Program
	err = opts.Observer.measure(path, PhaseDecode, func() error {
		var err error
		prog, err = ir.Unmarshal(data)
		return err
	})
	if err != nil {
		return failed(path, opts, err), nil
	}

	var res *Result
	err = opts.Observer.measure(path, PhaseEmit, func() error {
		var err error
		if res, err = Compile(ctx, prog, opts); err != nil {
			return err
		}
		return res.Err
	})
	if res == nil {
		return nil, err
	}
	res.Path = path
	if !res.Failed() && opts.Cache != nil {
		payload := outputToDiskPayload(res.Name, res.Output, res.Bag, res.Files)
		_ = opts.Observer.measure(path, PhaseCache, func() error {
			return opts.Cache.Put(key, payload)
		})
	}
	opts.Mem.Put(path, key, res)
	return res, nil
}

func cachedResult(path string, key Digest, opts Options) (*Result, bool) {
	if opts.Cache == nil {
		return nil, false
	}
	var payload DiskPayload
	ok, err := opts.Cache.Get(key, &payload)
	if err != nil || !ok {
		return nil, false
	}
	res := &Result{
		Path:   path,
		Name:   payload.Name,
		Bag:    diag.NewBag(opts.maxDiagnostics()),
		Files:  source.NewFileSet(),
		Cached: true,
	}
	res.Output = diskPayloadToOutput(&payload, res.Bag, res.Files)
	return res, res.Output != nil
}

func failed(path string, opts Options, err error) *Result {
	res := &Result{Path: path, Bag: diag.NewBag(opts.maxDiagnostics()), Files: source.NewFileSet(), Err: err}
	if d, ok := diag.AsDiagnostic(err); ok {
		res.Bag.Add(d)
	}
	return res
}

// fingerprint salts cache keys with everything that changes the output.
func fingerprint() string {
	return fmt.Sprintf("ilwasm %s ir%d cache%d", version.Plain(), ir.SchemaVersion, diskCacheSchemaVersion)
}
