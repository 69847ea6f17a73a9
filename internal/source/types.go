package source

// FileID identifies a source document within a FileSet.
// The zero value is reserved for "no location".
type FileID uint32

// NoFileID marks nodes that carry no source position (synthesized by a pass).
const NoFileID FileID = 0

// File describes one front-end source document referenced by IR positions.
type File struct {
	ID   FileID
	Path string
}

// LineCol represents a human-readable position in a source file.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based
}
