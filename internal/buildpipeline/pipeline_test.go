package buildpipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"ilwasm/internal/diag"
	"ilwasm/internal/driver"
	"ilwasm/internal/fixtures"
	"ilwasm/internal/ir"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) OnEvent(evt Event) {
	s.mu.Lock()
	s.events = append(s.events, evt)
	s.mu.Unlock()
}

func (s *recordingSink) last(file string) (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.events) - 1; i >= 0; i-- {
		if s.events[i].File == file {
			return s.events[i], true
		}
	}
	return Event{}, false
}

func writeInput(t *testing.T, dir, name string, prog *ir.Program) string {
	t.Helper()
	data, err := ir.Marshal(prog)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name+driver.InputExt)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuildWritesModules(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	if err := os.MkdirAll(filepath.Join(src, "nested"), 0o750); err != nil {
		t.Fatal(err)
	}
	writeInput(t, src, "countup", fixtures.CountUp())
	writeInput(t, filepath.Join(src, "nested"), "sieve", fixtures.Sieve())

	sink := &recordingSink{}
	res, err := Build(context.Background(), &BuildRequest{
		Inputs:   []string{src},
		BaseDir:  src,
		OutDir:   out,
		Jobs:     2,
		Progress: sink,
		Timings:  true,
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"countup.irmp", "nested/sieve.irmp"}
	if strings.Join(res.Files, ",") != strings.Join(want, ",") {
		t.Fatalf("files = %v, want %v", res.Files, want)
	}
	for _, rel := range []string{"countup.wast", filepath.Join("nested", "sieve.wast")} {
		data, err := os.ReadFile(filepath.Join(out, rel))
		if err != nil {
			t.Fatalf("missing %s: %v", rel, err)
		}
		if !strings.Contains(string(data), "\n(module\n") {
			t.Fatalf("%s does not hold a module", rel)
		}
	}
	for _, f := range want {
		evt, ok := sink.last(f)
		if !ok || evt.Stage != StageWrite || evt.Status != StatusDone {
			t.Fatalf("last event for %s = %+v", f, evt)
		}
	}
	if !res.Timings.Has(StageEmit) || !res.Timings.Has(StageWrite) {
		t.Fatal("expected stage timings")
	}
	if len(res.Phases.Phases) == 0 {
		t.Fatal("expected merged phase timings")
	}
}

func TestBuildReportsFailuresWithoutStopping(t *testing.T) {
	src := t.TempDir()
	writeInput(t, src, "goto", fixtures.Goto())
	b := ir.NewBuilder("Broken")
	b.Func("Broken", "f", b.T.Void, 0).Body(
		b.LabelGroup(b.Labeled("a", b.Return(nil))),
		b.Goto("a"),
	)
	writeInput(t, src, "broken", b.Program())

	sink := &recordingSink{}
	res, err := Build(context.Background(), &BuildRequest{Inputs: []string{src}, BaseDir: src, Progress: sink})
	if !errors.Is(err, ErrBuildFailed) {
		t.Fatalf("expected ErrBuildFailed, got %v", err)
	}
	if res.Failed != 1 {
		t.Fatalf("failed = %d, want 1", res.Failed)
	}
	if _, err := os.Stat(filepath.Join(src, "goto.wast")); err != nil {
		t.Fatalf("goto module not written next to its input: %v", err)
	}
	if _, err := os.Stat(filepath.Join(src, "broken.wast")); err == nil {
		t.Fatal("broken module should not be written")
	}
	evt, _ := sink.last("broken.irmp")
	if evt.Status != StatusError {
		t.Fatalf("broken file status %s, want error", evt.Status)
	}
}

func TestBuildWithoutInputs(t *testing.T) {
	if _, err := Build(context.Background(), &BuildRequest{Inputs: []string{t.TempDir()}}); err == nil {
		t.Fatal("expected an error for an empty input set")
	}
}

func TestRunFixtures(t *testing.T) {
	for _, fx := range fixtures.All() {
		t.Run(fx.Name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeInput(t, dir, fx.Name, fx.Build())
			res, err := Run(context.Background(), &RunRequest{Input: path, StdoutDir: dir})
			if err != nil {
				t.Fatal(err)
			}
			if code := res.Report.ExitCode(); code != 0 {
				t.Fatalf("exit code %d\n%s", code, res.Report.Output)
			}
			for name, want := range fx.Outputs {
				got, err := os.ReadFile(filepath.Join(dir, name))
				if err != nil {
					t.Fatalf("missing output %s: %v", name, err)
				}
				if string(got) != want {
					t.Fatalf("%s = %q, want %q", name, got, want)
				}
			}
			if !res.Timings.Has(StageRun) {
				t.Fatal("expected run timing")
			}
		})
	}
}

func TestRunInMemoryProgram(t *testing.T) {
	sink := &recordingSink{}
	res, err := Run(context.Background(), &RunRequest{Program: fixtures.CountUp(), Progress: sink})
	if err != nil {
		t.Fatal(err)
	}
	if res.Report.Passed == 0 {
		t.Fatalf("expected passing assertions:\n%s", res.Report.Output)
	}
	evt, ok := sink.last("CountUp")
	if !ok || evt.Stage != StageRun || evt.Status != StatusDone {
		t.Fatalf("last event = %+v", evt)
	}
}

func TestValidateEntrypoint(t *testing.T) {
	b := ir.NewBuilder("NoEntry")
	b.Func("NoEntry", "f", b.T.Void, 0).Body()
	err := ValidateEntrypoint(b.Program())
	if diag.CodeOf(err) != diag.IRMissingEntry {
		t.Fatalf("expected %s, got %v", diag.IRMissingEntry, err)
	}
	if err := ValidateEntrypoint(fixtures.CountUp()); err != nil {
		t.Fatal(err)
	}
}

func TestOutputPath(t *testing.T) {
	base := filepath.FromSlash("/src")
	tests := []struct {
		input, out, want string
	}{
		{"/src/a.irmp", "", "/src/a.wast"},
		{"/src/sub/b.irmp", "/out", "/out/sub/b.wast"},
		{"/elsewhere/c.irmp", "/out", "/out/c.wast"},
	}
	for _, tt := range tests {
		got := outputPath(filepath.FromSlash(tt.input), base, filepath.FromSlash(tt.out))
		if got != filepath.FromSlash(tt.want) {
			t.Errorf("outputPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeProgressFiles(t *testing.T) {
	got := normalizeProgressFiles([]string{"/p/b.irmp", "/p/a.irmp", "/p/a.irmp", "", "/q/c.irmp"}, "/p")
	want := []string{"/q/c.irmp", "a.irmp", "b.irmp"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("got %v, want %v", got, want)
	}
}
