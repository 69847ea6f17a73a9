package source

import (
	"fmt"
)

// Span is the position of an IR node in the managed-language source.
// The front end only records starting positions, so a span is a point.
type Span struct {
	File FileID
	Line uint32
	Col  uint32
}

func (s Span) IsZero() bool {
	return s.File == NoFileID && s.Line == 0 && s.Col == 0
}

func (s Span) LineCol() LineCol {
	return LineCol{Line: s.Line, Col: s.Col}
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d:%d", s.File, s.Line, s.Col)
}

// Before orders spans by file, then line, then column.
func (s Span) Before(other Span) bool {
	if s.File != other.File {
		return s.File < other.File
	}
	if s.Line != other.Line {
		return s.Line < other.Line
	}
	return s.Col < other.Col
}
