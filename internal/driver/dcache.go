package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"ilwasm/internal/backend/sexpr"
	"ilwasm/internal/diag"
	"ilwasm/internal/ir"
	"ilwasm/internal/source"
)

// Current schema version - increment when DiskPayload format changes
const diskCacheSchemaVersion uint16 = 1

// DiskCache stores compiled modules on disk by CacheKey.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// DiskPayload is one cached compilation: the module text and what the
// emitter reported about it.
type DiskPayload struct {
	// Schema version for safe invalidation when format changes
	Schema uint16

	Name       string
	Text       string
	HeapSize   uint32
	MemorySize uint32
	Exports    []string
	Imports    []uint8
	Skipped    []string

	// Diagnostics are replayed on a hit. Spans keep their document path
	// instead of a FileID.
	Diagnostics []CachedDiagnostic
}

// CachedDiagnostic is the serializable form of a diag.Diagnostic.
type CachedDiagnostic struct {
	Severity uint8
	Code     uint16
	Message  string
	Member   string
	Path     string
	Line     uint32
	Col      uint32
}

// OpenDiskCache initializes and returns a disk cache at the standard location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return NewDiskCache(filepath.Join(base, app))
}

// NewDiskCache opens a cache rooted at dir, creating it if needed.
func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *DiskCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *DiskCache) pathFor(key Digest) string {
	return filepath.Join(c.dir, "modules", key.String()+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *DiskCache) Put(key Digest, payload *DiskPayload) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = fmt.Errorf("remove temp file: %w", rmErr)
		}
	}()

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(payload); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// atomic replace
	return os.Rename(f.Name(), p)
}

// Get reads and deserializes a payload from the disk cache. Payloads of
// another schema count as misses.
func (c *DiskCache) Get(key Digest, out *DiskPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()
	dec := msgpack.NewDecoder(f)
	if err := dec.Decode(out); err != nil {
		return false, err
	}
	return out.Schema == diskCacheSchemaVersion, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return os.RemoveAll(old)
}

// outputToDiskPayload converts an emitted module to its cached form.
func outputToDiskPayload(name string, out *sexpr.Output, bag *diag.Bag, files *source.FileSet) *DiskPayload {
	payload := &DiskPayload{
		Schema:     diskCacheSchemaVersion,
		Name:       name,
		Text:       out.Text,
		HeapSize:   out.HeapSize,
		MemorySize: out.MemorySize,
		Exports:    append([]string(nil), out.Exports...),
		Skipped:    append([]string(nil), out.Skipped...),
	}
	payload.Imports = make([]uint8, len(out.Imports))
	for i, op := range out.Imports {
		payload.Imports[i] = uint8(op)
	}
	for _, d := range bag.Items() {
		cd := CachedDiagnostic{
			Severity: uint8(d.Severity),
			Code:     uint16(d.Code),
			Message:  d.Message,
			Member:   d.Member,
			Line:     d.Primary.Line,
			Col:      d.Primary.Col,
		}
		if f := files.Get(d.Primary.File); f != nil {
			cd.Path = f.Path
		}
		payload.Diagnostics = append(payload.Diagnostics, cd)
	}
	return payload
}

// diskPayloadToOutput restores a cached module. Diagnostics are added to
// bag with spans re-registered in files.
func diskPayloadToOutput(payload *DiskPayload, bag *diag.Bag, files *source.FileSet) *sexpr.Output {
	if payload == nil || payload.Schema != diskCacheSchemaVersion {
		return nil
	}
	out := &sexpr.Output{
		Text:       payload.Text,
		HeapSize:   payload.HeapSize,
		MemorySize: payload.MemorySize,
		Exports:    append([]string(nil), payload.Exports...),
		Skipped:    append([]string(nil), payload.Skipped...),
	}
	out.Imports = make([]ir.HarnessOp, len(payload.Imports))
	for i, op := range payload.Imports {
		out.Imports[i] = ir.HarnessOp(op)
	}
	for _, cd := range payload.Diagnostics {
		span := source.Span{Line: cd.Line, Col: cd.Col}
		if cd.Path != "" {
			span.File = files.Add(cd.Path)
		}
		d := diag.New(diag.Severity(cd.Severity), diag.Code(cd.Code), span, cd.Message)
		bag.Add(d.WithMember(cd.Member))
	}
	return out
}
