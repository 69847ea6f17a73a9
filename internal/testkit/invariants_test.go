package testkit

import (
	"context"
	"testing"

	"ilwasm/internal/backend/sexpr"
	"ilwasm/internal/fixtures"
)

func TestFixturesSatisfyInvariants(t *testing.T) {
	for _, fx := range fixtures.All() {
		t.Run(fx.Name, func(t *testing.T) {
			out, err := sexpr.EmitModule(context.Background(), fx.Build(), sexpr.Options{})
			if err != nil {
				t.Fatal(err)
			}
			if err := CheckOutputInvariants(out); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestInvariantViolations(t *testing.T) {
	out, err := sexpr.EmitModule(context.Background(), fixtures.Strings(), sexpr.Options{})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		mutate func(o *sexpr.Output)
	}{
		{"heap overflow", func(o *sexpr.Output) { o.HeapSize = o.MemorySize + 1 }},
		{"memory mismatch", func(o *sexpr.Output) { o.MemorySize++ }},
		{"missing export", func(o *sexpr.Output) { o.Exports = append(o.Exports, "ghost") }},
		{"broken text", func(o *sexpr.Output) { o.Text = o.Text[:len(o.Text)/2] }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cp := *out
			cp.Exports = append([]string(nil), out.Exports...)
			tt.mutate(&cp)
			if err := CheckOutputInvariants(&cp); err == nil {
				t.Fatal("expected a violation")
			}
		})
	}
	if err := CheckOutputInvariants(nil); err == nil {
		t.Fatal("nil output accepted")
	}
}
