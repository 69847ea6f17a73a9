package sexpr

import (
	"fmt"
	"strings"
)

// writer accumulates indented S-expression lines. Statements take one or
// more lines; expressions are rendered inline as strings.
type writer struct {
	buf   strings.Builder
	depth int
}

func (w *writer) line(s string) {
	if s == "" {
		return
	}
	for i := 0; i < w.depth; i++ {
		w.buf.WriteString("  ")
	}
	w.buf.WriteString(s)
	w.buf.WriteByte('\n')
}

func (w *writer) linef(format string, args ...any) {
	w.line(fmt.Sprintf(format, args...))
}

// open writes head and indents until the matching close.
func (w *writer) open(head string) {
	w.line(head)
	w.depth++
}

func (w *writer) openf(format string, args ...any) {
	w.open(fmt.Sprintf(format, args...))
}

func (w *writer) close() {
	if w.depth > 0 {
		w.depth--
	}
	w.line(")")
}

func (w *writer) blank() {
	w.buf.WriteByte('\n')
}

func (w *writer) String() string {
	return w.buf.String()
}

// form renders (head arg...) on one line, skipping empty arguments.
func form(head string, args ...string) string {
	var sb strings.Builder
	sb.WriteByte('(')
	sb.WriteString(head)
	for _, a := range args {
		if a == "" {
			continue
		}
		sb.WriteByte(' ')
		sb.WriteString(a)
	}
	sb.WriteByte(')')
	return sb.String()
}

// quote renders b as a string literal: printable ASCII other than '"' and
// '\' is kept, every other byte becomes \xx.
func quote(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b) + 2)
	sb.WriteByte('"')
	for _, c := range b {
		if c >= 0x20 && c < 0x7f && c != '"' && c != '\\' {
			sb.WriteByte(c)
			continue
		}
		fmt.Fprintf(&sb, "\\%02x", c)
	}
	sb.WriteByte('"')
	return sb.String()
}
