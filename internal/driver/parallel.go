package driver

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"ilwasm/internal/trace"
)

// InputExt is the extension of msgpack IR documents.
const InputExt = ".irmp"

// ListInputs expands paths into a sorted list of IR documents. Directories
// are walked recursively for *.irmp files; plain files are kept as given.
func ListInputs(paths []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	add := func(p string) {
		p = filepath.Clean(p)
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(path, InputExt) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(out)
	return out, nil
}

// CompileFiles compiles every path with at most jobs workers. Results keep
// the order of paths. A file that fails to compile is reported through its
// Result; only cancellation aborts the batch.
func CompileFiles(ctx context.Context, paths []string, opts Options, jobs int) ([]*Result, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	span, ctx := trace.StartSpan(ctx, trace.ScopeDriver, "compile_files")
	defer span.End("")

	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	if opts.Mem == nil {
		opts.Mem = NewMemCache(len(paths))
	}

	// each goroutine writes its own index
	results := make([]*Result, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))
	for i, path := range paths {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			res, err := CompileFile(gctx, path, opts)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
