package diag

import (
	"testing"

	"ilwasm/internal/source"
)

func TestFormatGoldenDiagnostics(t *testing.T) {
	fs := source.NewFileSetWithBase("/workspace")
	file := fs.Add("/workspace/tests/Goto.cs")

	diags := []Diagnostic{
		{
			Severity: SevWarning,
			Code:     EmiInstanceCall,
			Message:  "call to\ninstance method",
			Primary:  source.Span{File: file, Line: 12, Col: 5},
			Member:   "Program::Gotos",
		},
		{
			Severity: SevError,
			Code:     RwDuplicateHeapSize,
			Message:  "heap size already set",
			Primary:  source.Span{File: file, Line: 3, Col: 9},
			Notes: []Note{
				{Span: source.Span{File: file, Line: 2, Col: 9}, Msg: "first declared here"},
			},
		},
	}

	expected := "note RWR2003 tests/Goto.cs:2:9 first declared here\n" +
		"error RWR2003 tests/Goto.cs:3:9 heap size already set\n" +
		"warning EMI4003 tests/Goto.cs:12:5 Program::Gotos: call to instance method"

	if got := FormatGoldenDiagnostics(diags, fs, true); got != expected {
		t.Fatalf("unexpected golden diagnostics:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}
}

func TestDedupReporterCollapsesPerMember(t *testing.T) {
	bag := NewBag(10)
	r := NewDedupReporter(BagReporter{Bag: bag})

	for range 3 {
		ReportWarning(r, EmiUnsupportedType, source.Span{Line: 1}, "unsupported parameter type").
			ForMember("Program::Blend").
			Emit()
	}
	ReportWarning(r, EmiUnsupportedType, source.Span{Line: 1}, "unsupported parameter type").
		ForMember("Program::Other").
		Emit()

	if bag.Len() != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", bag.Len())
	}
}

func TestBagLimitAndErrors(t *testing.T) {
	bag := NewBag(2)
	bag.Add(NewWarning(EmiUntranslatable, source.Span{}, "a"))
	if bag.HasErrors() {
		t.Fatalf("warning counted as error")
	}
	bag.Add(NewError(EmiUndeclaredLabel, source.Span{}, "b"))
	if bag.Add(NewError(EmiUndeclaredLabel, source.Span{}, "c")) {
		t.Fatalf("limit not enforced")
	}
	if !bag.HasErrors() || bag.Dropped() != 1 {
		t.Fatalf("HasErrors=%v Dropped=%d", bag.HasErrors(), bag.Dropped())
	}
}

func TestAsDiagnosticUnwraps(t *testing.T) {
	err := Errorf(EmiSwitchCaseNoValues, source.Span{Line: 4}, "case %d has no values", 2).InMember("Program::getAString")
	d, ok := AsDiagnostic(err)
	if !ok || d.Code != EmiSwitchCaseNoValues || d.Member != "Program::getAString" {
		t.Fatalf("AsDiagnostic = %+v, %v", d, ok)
	}
	if CodeOf(err) != EmiSwitchCaseNoValues {
		t.Fatalf("CodeOf = %v", CodeOf(err))
	}
}
