package buildpipeline

import (
	"fmt"
	"strings"

	"ilwasm/internal/diag"
	"ilwasm/internal/ir"
	"ilwasm/internal/source"
)

// ValidateEntrypoint ensures prog has exactly one entry point, which is what
// drives the directives of a runnable module.
func ValidateEntrypoint(prog *ir.Program) error {
	if prog == nil {
		return fmt.Errorf("missing program")
	}
	var entries []*ir.Func
	for _, fn := range prog.Funcs() {
		if fn.IsEntryPoint() {
			entries = append(entries, fn)
		}
	}
	switch len(entries) {
	case 1:
		return nil
	case 0:
		return diag.Errorf(diag.IRMissingEntry, source.Span{}, "program %s has no entry point", prog.Name)
	default:
		return diag.Errorf(diag.IRMissingEntry, entries[1].Span,
			"multiple entry points found: %s", formatEntrypointList(entries))
	}
}

func formatEntrypointList(entries []*ir.Func) string {
	names := make([]string, 0, len(entries))
	for _, fn := range entries {
		names = append(names, fn.QualifiedName())
	}
	return strings.Join(names, ", ")
}
