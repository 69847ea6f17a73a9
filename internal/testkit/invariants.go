// Package testkit checks structural invariants of emitted modules. It is
// shared by tests that produce module text from different entry points.
package testkit

import (
	"fmt"
	"slices"
	"strings"

	"ilwasm/internal/backend/sexpr"
	"ilwasm/internal/harness"
)

// CheckOutputInvariants validates an emitted module against its metadata:
//  1. the heap fits inside linear memory
//  2. the text parses and instantiates, so segments lie within memory
//  3. the declared memory size matches MemorySize
//  4. the exported names match Exports
//  5. no memory form is emitted when MemorySize is zero
func CheckOutputInvariants(out *sexpr.Output) error {
	if out == nil {
		return fmt.Errorf("nil output")
	}
	if out.HeapSize > out.MemorySize {
		return fmt.Errorf("heap size %d exceeds memory size %d", out.HeapSize, out.MemorySize)
	}
	forms, err := harness.Parse(out.Text)
	if err != nil {
		return fmt.Errorf("module text does not parse: %w", err)
	}
	mod, _, err := harness.Instantiate(forms)
	if err != nil {
		return fmt.Errorf("module does not instantiate: %w", err)
	}
	if mod.MemorySize() != out.MemorySize {
		return fmt.Errorf("declared memory %d, metadata says %d", mod.MemorySize(), out.MemorySize)
	}
	if out.MemorySize == 0 && strings.Contains(out.Text, "(memory") {
		return fmt.Errorf("memory form emitted for an empty arena")
	}
	got := mod.Exports()
	want := append([]string(nil), out.Exports...)
	slices.Sort(got)
	slices.Sort(want)
	if !slices.Equal(got, want) {
		return fmt.Errorf("exports %v, metadata says %v", got, want)
	}
	return nil
}
