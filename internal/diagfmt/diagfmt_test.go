package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"ilwasm/internal/diag"
	"ilwasm/internal/source"
)

func sampleBag() (*diag.Bag, *source.FileSet) {
	fs := source.NewFileSetWithBase("/home/user/project")
	id := fs.Add("/home/user/project/src/Sieve.cs")
	bag := diag.NewBag(10)
	bag.Add(diag.NewWarning(diag.EmiUntranslatable, source.Span{File: id, Line: 12, Col: 5},
		"untranslatable expression").WithMember("Program::Sieve"))
	bag.Add(diag.NewError(diag.EmiUndeclaredLabel, source.Span{File: id, Line: 30},
		"goto target 'done' is not declared").WithNote(source.Span{}, "label groups cannot be entered from outside"))
	return bag, fs
}

func TestPrettyPlain(t *testing.T) {
	bag, fs := sampleBag()
	var buf bytes.Buffer
	if err := Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeRelative, ShowNotes: true, Summary: true}); err != nil {
		t.Fatal(err)
	}
	want := "src/Sieve.cs:12:5: warning EMI4002: untranslatable expression [Program::Sieve]\n" +
		"src/Sieve.cs:30: error EMI4005: goto target 'done' is not declared\n" +
		"  note: <program>: label groups cannot be entered from outside\n" +
		"1 error, 1 warning\n"
	if got := buf.String(); got != want {
		t.Fatalf("pretty output mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestPrettyColorAndLimit(t *testing.T) {
	bag, fs := sampleBag()
	var buf bytes.Buffer
	if err := Pretty(&buf, bag, fs, PrettyOpts{Color: true, Max: 1, PathMode: PathModeBasename}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "\x1b[") {
		t.Fatalf("expected ANSI escapes, got %q", out)
	}
	if strings.Count(out, "\n") != 1 {
		t.Fatalf("expected a single line, got %q", out)
	}
	if !strings.Contains(out, "Sieve.cs") || strings.Contains(out, "src/") {
		t.Fatalf("basename path not applied: %q", out)
	}
}

func TestPathModes(t *testing.T) {
	_, fs := sampleBag()
	id, _ := fs.Lookup("/home/user/project/src/Sieve.cs")
	tests := []struct {
		mode PathMode
		want string
	}{
		{PathModeAuto, "/home/user/project/src/Sieve.cs"},
		{PathModeAbsolute, "/home/user/project/src/Sieve.cs"},
		{PathModeRelative, "src/Sieve.cs"},
		{PathModeBasename, "Sieve.cs"},
	}
	for _, tt := range tests {
		if got := formatPath(fs, id, tt.mode); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.mode, got, tt.want)
		}
		parsed, ok := ParsePathMode(tt.mode.String())
		if !ok || parsed != tt.mode {
			t.Errorf("ParsePathMode(%q) = %v, %v", tt.mode.String(), parsed, ok)
		}
	}
	if _, ok := ParsePathMode("bogus"); ok {
		t.Fatal("bogus mode accepted")
	}
}

func TestJSON(t *testing.T) {
	bag, fs := sampleBag()
	var buf bytes.Buffer
	opts := JSONOpts{IncludePositions: true, IncludeNotes: true, PathMode: PathModeRelative, Max: 5}
	if err := JSON(&buf, bag, fs, opts); err != nil {
		t.Fatal(err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if out.Count != 2 || len(out.Diagnostics) != 2 {
		t.Fatalf("count = %d", out.Count)
	}
	first := out.Diagnostics[0]
	if first.Severity != "WARNING" || first.Code != "EMI4002" || first.Member != "Program::Sieve" {
		t.Fatalf("unexpected first diagnostic: %+v", first)
	}
	if first.Location != (LocationJSON{File: "src/Sieve.cs", Line: 12, Col: 5}) {
		t.Fatalf("location = %+v", first.Location)
	}
	if len(out.Diagnostics[1].Notes) != 1 {
		t.Fatalf("expected one note, got %+v", out.Diagnostics[1].Notes)
	}
}

func TestJSONTruncates(t *testing.T) {
	bag, fs := sampleBag()
	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{Max: 1})
	if out.Count != 1 || out.Dropped != 1 {
		t.Fatalf("count=%d dropped=%d", out.Count, out.Dropped)
	}
	if out.Diagnostics[0].Location.Line != 0 {
		t.Fatal("positions should be omitted")
	}
}
