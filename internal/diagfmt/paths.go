package diagfmt

import (
	"fmt"

	"ilwasm/internal/source"
)

func formatPath(fs *source.FileSet, id source.FileID, mode PathMode) string {
	f := fs.Get(id)
	if f == nil {
		return ""
	}
	switch mode {
	case PathModeAbsolute:
		return f.FormatPath("absolute", "")
	case PathModeRelative:
		return f.FormatPath("relative", fs.BaseDir())
	case PathModeBasename:
		return f.FormatPath("basename", "")
	default:
		return f.Path
	}
}

// location renders path:line:col, dropping the parts that are unknown.
func location(fs *source.FileSet, span source.Span, mode PathMode) string {
	path := formatPath(fs, span.File, mode)
	if path == "" {
		path = "<program>"
	}
	switch {
	case span.Line == 0:
		return path
	case span.Col == 0:
		return fmt.Sprintf("%s:%d", path, span.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", path, span.Line, span.Col)
	}
}
