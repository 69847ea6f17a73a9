package harness

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/text/encoding/charmap"
)

// Sink collects what a program writes after redirecting its output with
// stdout_open. Files are kept in memory and, when Dir is set, also written
// there once the run finishes.
type Sink struct {
	Dir string

	current string
	files   map[string]*bytes.Buffer
}

// NewSink creates a sink that flushes into dir; an empty dir keeps output
// in memory only.
func NewSink(dir string) *Sink {
	return &Sink{Dir: dir, files: make(map[string]*bytes.Buffer)}
}

// Open redirects output to name. It can only be redirected once.
func (s *Sink) Open(name string) error {
	if s.current != "" {
		return trapf(TrapStdout, "stdout already redirected to %q", s.current)
	}
	if name == "" || filepath.IsAbs(name) || filepath.Base(name) != name {
		return trapf(TrapStdout, "invalid output file name %q", name)
	}
	s.current = name
	s.files[name] = &bytes.Buffer{}
	return nil
}

// Write appends data to the redirected output.
func (s *Sink) Write(data []byte) error {
	if s.current == "" {
		return trapf(TrapStdout, "write before stdout was redirected")
	}
	s.files[s.current].Write(data)
	return nil
}

// Files returns a copy of every written file.
func (s *Sink) Files() map[string][]byte {
	out := make(map[string][]byte, len(s.files))
	for name, buf := range s.files {
		out[name] = append([]byte(nil), buf.Bytes()...)
	}
	return out
}

// Flush writes every file into Dir.
func (s *Sink) Flush() ([]string, error) {
	if s.Dir == "" || len(s.files) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(s.files))
	for name := range s.files {
		names = append(names, name)
	}
	sort.Strings(names)
	written := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(s.Dir, name)
		if err := os.WriteFile(path, s.files[name].Bytes(), 0o600); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// call dispatches an import from the "harness" module.
func (s *Sink) call(heap *Heap, imp *importFunc, args []Value) error {
	if imp.module != "harness" {
		return trapf(TrapUnknownName, "import %s from unknown module %q", imp.name, imp.module)
	}
	switch imp.field {
	case "stdout_open":
		name, err := readString(heap, args[0].u32())
		if err != nil {
			return err
		}
		return s.Open(name)
	case "stdout_write":
		count := args[1].i32()
		if count < 0 {
			return trapf(TrapStdout, "negative write count %d", count)
		}
		data, err := heap.Bytes(args[0].u32(), int(count))
		if err != nil {
			return err
		}
		return s.Write(data)
	}
	return trapf(TrapUnknownName, "unknown harness import %q", imp.field)
}

// readString decodes the string whose first character is at ptr. Its
// length sits in the four bytes before it.
func readString(heap *Heap, ptr uint32) (string, error) {
	if ptr < 4 {
		return "", trapf(TrapOutOfBounds, "string pointer %d has no length prefix", ptr)
	}
	prefix, err := heap.Bytes(ptr-4, 4)
	if err != nil {
		return "", err
	}
	n := binary.LittleEndian.Uint32(prefix)
	raw, err := heap.Bytes(ptr, int(n))
	if err != nil {
		return "", err
	}
	return decodeLatin1(raw), nil
}

func decodeLatin1(raw []byte) string {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(out)
}
