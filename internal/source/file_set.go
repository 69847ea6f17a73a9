package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fortio.org/safecast"
)

// FileSet interns the document paths referenced by an IR program.
type FileSet struct {
	files   []File
	index   map[string]FileID // path -> id
	baseDir string
}

// NewFileSet creates a new empty FileSet. ID 0 is reserved for NoFileID.
func NewFileSet() *FileSet {
	return &FileSet{
		files: []File{{ID: NoFileID}},
		index: make(map[string]FileID),
	}
}

// NewFileSetWithBase creates a FileSet that formats paths relative to baseDir.
func NewFileSetWithBase(baseDir string) *FileSet {
	fs := NewFileSet()
	fs.baseDir = baseDir
	return fs
}

func (fileSet *FileSet) SetBaseDir(dir string) {
	fileSet.baseDir = dir
}

// BaseDir returns the base directory, falling back to the working directory.
func (fileSet *FileSet) BaseDir() string {
	if fileSet.baseDir == "" {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
	}
	return fileSet.baseDir
}

// Add returns the ID for path, registering it on first use.
func (fileSet *FileSet) Add(path string) FileID {
	normalized := normalizePath(path)
	if id, ok := fileSet.index[normalized]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(fileSet.files))
	if err != nil {
		panic(fmt.Errorf("file set overflow: %w", err))
	}
	id := FileID(n)
	fileSet.files = append(fileSet.files, File{ID: id, Path: normalized})
	fileSet.index[normalized] = id
	return id
}

// Len returns the number of registered documents.
func (fileSet *FileSet) Len() int {
	return len(fileSet.files) - 1
}

// Get returns the file for id, or nil when the id is unknown.
func (fileSet *FileSet) Get(id FileID) *File {
	if fileSet == nil || id == NoFileID || int(id) >= len(fileSet.files) {
		return nil
	}
	return &fileSet.files[id]
}

// Lookup finds the ID previously assigned to path.
func (fileSet *FileSet) Lookup(path string) (FileID, bool) {
	id, ok := fileSet.index[normalizePath(path)]
	return id, ok
}

// Paths lists registered paths in ID order.
func (fileSet *FileSet) Paths() []string {
	out := make([]string, 0, len(fileSet.files)-1)
	for _, f := range fileSet.files[1:] {
		out = append(out, f.Path)
	}
	return out
}

// FormatPath renders a file path in one of the modes "absolute", "relative", "basename".
func (f *File) FormatPath(mode, baseDir string) string {
	switch mode {
	case "absolute":
		if abs, err := filepath.Abs(f.Path); err == nil {
			return abs
		}
		return f.Path
	case "relative":
		if baseDir == "" || !filepath.IsAbs(f.Path) {
			return f.Path
		}
		if rel, err := filepath.Rel(baseDir, f.Path); err == nil && !strings.HasPrefix(rel, "..") {
			return rel
		}
		return f.Path
	case "basename":
		return filepath.Base(f.Path)
	default:
		return f.Path
	}
}

func normalizePath(path string) string {
	if path == "" {
		return path
	}
	return filepath.ToSlash(filepath.Clean(path))
}
