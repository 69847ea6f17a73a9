package harness

import (
	"strconv"
	"strings"

	"ilwasm/internal/diag"
	"ilwasm/internal/source"
)

// Node is one S-expression: a list, an atom, or a string literal.
type Node struct {
	List   []*Node
	Atom   string
	Text   []byte
	IsText bool
	Line   uint32
}

// IsList reports whether n is a parenthesized list.
func (n *Node) IsList() bool { return n != nil && n.List != nil }

// Head returns the leading atom of a list, or "".
func (n *Node) Head() string {
	if !n.IsList() || len(n.List) == 0 || n.List[0].IsList() {
		return ""
	}
	return n.List[0].Atom
}

// Args returns the elements after the head.
func (n *Node) Args() []*Node {
	if !n.IsList() || len(n.List) == 0 {
		return nil
	}
	return n.List[1:]
}

func (n *Node) String() string {
	switch {
	case n == nil:
		return "<nil>"
	case n.IsText:
		return strconv.Quote(string(n.Text))
	case n.IsList():
		parts := make([]string, len(n.List))
		for i, c := range n.List {
			parts[i] = c.String()
		}
		return "(" + strings.Join(parts, " ") + ")"
	}
	return n.Atom
}

type reader struct {
	src  string
	pos  int
	line uint32
}

// Parse reads every top-level form of src. Comments run from ';;' to the
// end of the line.
func Parse(src string) ([]*Node, error) {
	r := &reader{src: src, line: 1}
	var out []*Node
	for {
		r.skipSpace()
		if r.pos >= len(r.src) {
			return out, nil
		}
		n, err := r.node()
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
}

func (r *reader) errorf(format string, args ...any) error {
	return diag.Errorf(diag.HarParse, source.Span{Line: r.line}, format, args...)
}

func (r *reader) skipSpace() {
	for r.pos < len(r.src) {
		c := r.src[r.pos]
		switch {
		case c == '\n':
			r.line++
			r.pos++
		case c == ' ' || c == '\t' || c == '\r':
			r.pos++
		case c == ';' && r.pos+1 < len(r.src) && r.src[r.pos+1] == ';':
			for r.pos < len(r.src) && r.src[r.pos] != '\n' {
				r.pos++
			}
		default:
			return
		}
	}
}

func (r *reader) node() (*Node, error) {
	switch r.src[r.pos] {
	case '(':
		return r.list()
	case ')':
		return nil, r.errorf("unexpected ')'")
	case '"':
		return r.text()
	}
	return r.atom(), nil
}

func (r *reader) list() (*Node, error) {
	n := &Node{List: []*Node{}, Line: r.line}
	r.pos++
	for {
		r.skipSpace()
		if r.pos >= len(r.src) {
			return nil, r.errorf("unterminated list opened on line %d", n.Line)
		}
		if r.src[r.pos] == ')' {
			r.pos++
			return n, nil
		}
		child, err := r.node()
		if err != nil {
			return nil, err
		}
		n.List = append(n.List, child)
	}
}

func (r *reader) atom() *Node {
	start := r.pos
	for r.pos < len(r.src) {
		c := r.src[r.pos]
		if c == '(' || c == ')' || c == '"' || c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			break
		}
		r.pos++
	}
	return &Node{Atom: r.src[start:r.pos], Line: r.line}
}

// text reads a string literal. Escapes are two hex digits or one of
// \n \t \" \\.
func (r *reader) text() (*Node, error) {
	n := &Node{IsText: true, Text: []byte{}, Line: r.line}
	r.pos++
	for r.pos < len(r.src) {
		c := r.src[r.pos]
		switch c {
		case '"':
			r.pos++
			return n, nil
		case '\n':
			return nil, r.errorf("newline in string literal")
		case '\\':
			if r.pos+1 >= len(r.src) {
				return nil, r.errorf("unterminated escape")
			}
			switch e := r.src[r.pos+1]; e {
			case 'n':
				n.Text = append(n.Text, '\n')
				r.pos += 2
			case 't':
				n.Text = append(n.Text, '\t')
				r.pos += 2
			case '"', '\\', '\'':
				n.Text = append(n.Text, e)
				r.pos += 2
			default:
				if r.pos+3 > len(r.src) {
					return nil, r.errorf("truncated escape")
				}
				b, err := strconv.ParseUint(r.src[r.pos+1:r.pos+3], 16, 8)
				if err != nil {
					return nil, r.errorf("bad escape \\%s", r.src[r.pos+1:r.pos+3])
				}
				n.Text = append(n.Text, byte(b))
				r.pos += 3
			}
		default:
			n.Text = append(n.Text, c)
			r.pos++
		}
	}
	return nil, r.errorf("unterminated string literal")
}
