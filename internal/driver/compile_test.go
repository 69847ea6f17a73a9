package driver_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"ilwasm/internal/diag"
	"ilwasm/internal/driver"
	"ilwasm/internal/fixtures"
	"ilwasm/internal/ir"
	"ilwasm/internal/testkit"
)

func writeProgram(t *testing.T, dir, name string, prog *ir.Program) string {
	t.Helper()
	data, err := ir.Marshal(prog)
	if err != nil {
		t.Fatalf("marshal %s: %v", name, err)
	}
	path := filepath.Join(dir, name+driver.InputExt)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func brokenProgram() *ir.Program {
	b := ir.NewBuilder("Broken")
	b.Func("Broken", "f", b.T.Void, 0).Body(
		b.LabelGroup(b.Labeled("a", b.Return(nil))),
		b.Goto("a"),
	)
	return b.Program()
}

func TestCompileFixtures(t *testing.T) {
	for _, fx := range fixtures.All() {
		t.Run(fx.Name, func(t *testing.T) {
			res, err := driver.Compile(context.Background(), fx.Build(), driver.Options{Timings: true})
			if err != nil {
				t.Fatal(err)
			}
			if res.Failed() {
				t.Fatalf("compile failed: %v", res.Err)
			}
			if !strings.HasPrefix(res.Output.Text, ";; "+fx.Name+"\n") || !strings.Contains(res.Output.Text, "\n(module\n") {
				t.Fatalf("unexpected module text:\n%s", res.Output.Text)
			}
			if err := testkit.CheckOutputInvariants(res.Output); err != nil {
				t.Fatal(err)
			}
			if len(res.Timing.Phases) == 0 {
				t.Fatal("expected phase timings")
			}
		})
	}
}

func TestCompileStructuralError(t *testing.T) {
	res, err := driver.Compile(context.Background(), brokenProgram(), driver.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Failed() {
		t.Fatal("expected failure")
	}
	if diag.CodeOf(res.Err) != diag.EmiUndeclaredLabel {
		t.Fatalf("expected %s, got %v", diag.EmiUndeclaredLabel, res.Err)
	}
	if !res.Bag.HasErrors() {
		t.Fatal("expected the error to be recorded in the bag")
	}
}

func TestCompileCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := driver.Compile(ctx, fixtures.CountUp(), driver.Options{}); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestCompileFileUsesDiskCache(t *testing.T) {
	dir := t.TempDir()
	path := writeProgram(t, dir, "countup", fixtures.CountUp())
	cache, err := driver.NewDiskCache(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatal(err)
	}

	first, err := driver.CompileFile(context.Background(), path, driver.Options{Cache: cache})
	if err != nil {
		t.Fatal(err)
	}
	if first.Failed() || first.Cached {
		t.Fatalf("first compile: failed=%v cached=%v err=%v", first.Failed(), first.Cached, first.Err)
	}

	second, err := driver.CompileFile(context.Background(), path, driver.Options{Cache: cache})
	if err != nil {
		t.Fatal(err)
	}
	if !second.Cached {
		t.Fatal("expected a disk cache hit")
	}
	if second.Output.Text != first.Output.Text {
		t.Fatal("cached module text differs")
	}
	if second.Name != first.Name {
		t.Fatalf("name %q, want %q", second.Name, first.Name)
	}

	if err := cache.DropAll(); err != nil {
		t.Fatal(err)
	}
	third, err := driver.CompileFile(context.Background(), path, driver.Options{Cache: cache})
	if err != nil {
		t.Fatal(err)
	}
	if third.Cached {
		t.Fatal("expected a miss after DropAll")
	}
}

func TestCompileFileDecodeError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "junk"+driver.InputExt)
	if err := os.WriteFile(path, []byte{0xc1, 0x00}, 0o600); err != nil {
		t.Fatal(err)
	}
	res, err := driver.CompileFile(context.Background(), path, driver.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if diag.CodeOf(res.Err) != diag.IRDecodeFailed {
		t.Fatalf("expected %s, got %v", diag.IRDecodeFailed, res.Err)
	}
}

func TestCompileFilesKeepsOrderAndIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, fx := range fixtures.All() {
		paths = append(paths, writeProgram(t, dir, fx.Name, fx.Build()))
	}
	paths = append(paths, writeProgram(t, dir, "zz_broken", brokenProgram()))

	listed, err := driver.ListInputs([]string{dir})
	if err != nil {
		t.Fatal(err)
	}
	if len(listed) != len(paths) {
		t.Fatalf("ListInputs found %d files, want %d", len(listed), len(paths))
	}

	var mu sync.Mutex
	events := map[string]int{}
	opts := driver.Options{Observer: func(ev driver.PhaseEvent) {
		if ev.Status == driver.PhaseStart {
			return
		}
		mu.Lock()
		events[ev.Name]++
		mu.Unlock()
	}}
	results, err := driver.CompileFiles(context.Background(), listed, opts, 3)
	if err != nil {
		t.Fatal(err)
	}
	failures := 0
	for i, res := range results {
		if res.Path != listed[i] {
			t.Errorf("result %d path %q, want %q", i, res.Path, listed[i])
		}
		if res.Failed() {
			failures++
			if !strings.Contains(res.Path, "zz_broken") {
				t.Errorf("unexpected failure for %s: %v", res.Path, res.Err)
			}
		}
	}
	if failures != 1 {
		t.Fatalf("expected 1 failure, got %d", failures)
	}
	if events[driver.PhaseEmit] != len(listed) {
		t.Fatalf("emit events %d, want %d", events[driver.PhaseEmit], len(listed))
	}
}
