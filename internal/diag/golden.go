package diag

import (
	"fmt"
	"sort"
	"strings"

	"ilwasm/internal/source"
)

type goldenDiagnostic struct {
	Severity string
	Code     string
	Path     string
	Line     uint32
	Column   uint32
	Member   string
	Message  string
}

// FormatGoldenDiagnostics renders diagnostics one per line in a stable order,
// suitable for comparing against expected text in tests.
func FormatGoldenDiagnostics(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	if len(diags) == 0 {
		return ""
	}
	rendered := make([]goldenDiagnostic, 0, len(diags))
	for i := range diags {
		rendered = appendDiagnostic(rendered, &diags[i], fs, includeNotes)
	}

	sort.SliceStable(rendered, func(i, j int) bool {
		di, dj := rendered[i], rendered[j]
		if di.Path != dj.Path {
			return di.Path < dj.Path
		}
		if di.Line != dj.Line {
			return di.Line < dj.Line
		}
		if di.Column != dj.Column {
			return di.Column < dj.Column
		}
		if di.Severity != dj.Severity {
			return di.Severity < dj.Severity
		}
		if di.Code != dj.Code {
			return di.Code < dj.Code
		}
		return di.Message < dj.Message
	})

	var b strings.Builder
	for i, d := range rendered {
		fmt.Fprintf(&b, "%s %s %s:%d:%d", d.Severity, d.Code, d.Path, d.Line, d.Column)
		if d.Member != "" {
			fmt.Fprintf(&b, " %s:", d.Member)
		}
		fmt.Fprintf(&b, " %s", d.Message)
		if i < len(rendered)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func appendDiagnostic(out []goldenDiagnostic, d *Diagnostic, fs *source.FileSet, includeNotes bool) []goldenDiagnostic {
	out = append(out, goldenDiagnostic{
		Severity: severityLabel(d.Severity),
		Code:     d.Code.ID(),
		Path:     spanPath(fs, d.Primary),
		Line:     d.Primary.Line,
		Column:   d.Primary.Col,
		Member:   d.Member,
		Message:  sanitizeMessage(d.Message),
	})
	if includeNotes {
		for _, note := range d.Notes {
			out = append(out, goldenDiagnostic{
				Severity: "note",
				Code:     d.Code.ID(),
				Path:     spanPath(fs, note.Span),
				Line:     note.Span.Line,
				Column:   note.Span.Col,
				Message:  sanitizeMessage(note.Msg),
			})
		}
	}
	return out
}

func spanPath(fs *source.FileSet, span source.Span) string {
	if f := fs.Get(span.File); f != nil {
		return f.FormatPath("relative", fs.BaseDir())
	}
	return "<ir>"
}

func severityLabel(sev Severity) string {
	switch sev {
	case SevError:
		return "error"
	case SevWarning:
		return "warning"
	default:
		return "info"
	}
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}
