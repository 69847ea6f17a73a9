package fixtures

import (
	"bytes"
	"testing"

	"ilwasm/internal/ir"
)

func TestRegistry(t *testing.T) {
	names := Names()
	want := []string{"CountUp", "Goto", "Sieve", "Strcat", "Strings", "StaticInit"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v", names)
	}
	for _, n := range want {
		if _, ok := Lookup(n); !ok {
			t.Errorf("fixture %q not registered", n)
		}
	}
	if _, ok := Lookup("missing"); ok {
		t.Fatalf("Lookup(missing) succeeded")
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("Names() not sorted: %v", names)
		}
	}
}

func TestFixturesHaveEntryPoint(t *testing.T) {
	for _, f := range All() {
		prog := f.Build()
		if prog.EntryPoint() == nil {
			t.Errorf("%s: no entry point", f.Name)
		}
		exported := 0
		for _, fn := range prog.Funcs() {
			if fn.IsExported() {
				exported++
			}
		}
		if exported == 0 {
			t.Errorf("%s: no exported functions", f.Name)
		}
	}
}

func TestFixturesRoundTripCodec(t *testing.T) {
	for _, f := range All() {
		prog := f.Build()
		data, err := ir.Marshal(prog)
		if err != nil {
			t.Fatalf("%s: marshal: %v", f.Name, err)
		}
		back, err := ir.Unmarshal(data)
		if err != nil {
			t.Fatalf("%s: unmarshal: %v", f.Name, err)
		}
		var want, got bytes.Buffer
		if err := ir.Dump(&want, prog); err != nil {
			t.Fatalf("%s: dump: %v", f.Name, err)
		}
		if err := ir.Dump(&got, back); err != nil {
			t.Fatalf("%s: dump decoded: %v", f.Name, err)
		}
		if want.String() != got.String() {
			t.Errorf("%s: decoded program differs\nwant:\n%s\ngot:\n%s", f.Name, want.String(), got.String())
		}
	}
}
