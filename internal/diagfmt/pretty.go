package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"ilwasm/internal/diag"
	"ilwasm/internal/source"
)

type palette struct {
	err, warn, info, code, loc, note *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:  color.New(color.FgRed, color.Bold),
		warn: color.New(color.FgYellow, color.Bold),
		info: color.New(color.FgCyan),
		code: color.New(color.Faint),
		loc:  color.New(color.Bold),
		note: color.New(color.FgBlue),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.code, p.loc, p.note} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty writes one line per diagnostic in bag order:
//
//	<path>:<line>:<col>: <severity> <CODE>: <message> [<member>]
//
// followed by indented notes when ShowNotes is set.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	items := bag.Items()
	if opts.Max > 0 && opts.Max < len(items) {
		items = items[:opts.Max]
	}
	for i := range items {
		d := &items[i]
		var sb strings.Builder
		sb.WriteString(p.loc.Sprint(location(fs, d.Primary, opts.PathMode)))
		sb.WriteString(": ")
		sb.WriteString(p.severity(d.Severity).Sprint(strings.ToLower(d.Severity.String())))
		sb.WriteString(" ")
		sb.WriteString(p.code.Sprint(d.Code.ID()))
		sb.WriteString(": ")
		sb.WriteString(d.Message)
		if d.Member != "" {
			fmt.Fprintf(&sb, " [%s]", d.Member)
		}
		sb.WriteString("\n")
		if opts.ShowNotes {
			for _, n := range d.Notes {
				fmt.Fprintf(&sb, "  %s %s: %s\n", p.note.Sprint("note:"), location(fs, n.Span, opts.PathMode), n.Msg)
			}
		}
		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}
	if opts.Summary {
		if _, err := fmt.Fprintln(w, summary(bag)); err != nil {
			return err
		}
	}
	return nil
}

func summary(bag *diag.Bag) string {
	var errs, warns int
	for _, d := range bag.Items() {
		switch d.Severity {
		case diag.SevError:
			errs++
		case diag.SevWarning:
			warns++
		}
	}
	out := fmt.Sprintf("%s, %s", plural(errs, "error"), plural(warns, "warning"))
	if dropped := bag.Dropped(); dropped > 0 {
		out += fmt.Sprintf(" (%d more not shown)", dropped)
	}
	return out
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
