// Package fixtures holds the built-in example programs. Each one is a small
// wasm test program whose entry point drives exported functions through
// Invoke and Assert* calls, so compiling and running it checks itself.
package fixtures

import (
	"sort"
	"strings"

	"ilwasm/internal/ir"
	"ilwasm/internal/source"
)

// Fixture is a named example program.
type Fixture struct {
	Name    string
	Summary string
	Build   func() *ir.Program
	// Outputs maps files the program writes through SetStdout to their
	// expected contents.
	Outputs map[string]string
}

var registry = map[string]Fixture{}

func register(f Fixture) {
	registry[f.Name] = f
}

func init() {
	register(Fixture{Name: "CountUp", Summary: "fills the i32 heap view and reads it back", Build: CountUp})
	register(Fixture{Name: "Goto", Summary: "goto between nested label groups and an exported property", Build: Goto})
	register(Fixture{Name: "Sieve", Summary: "sieve of Eratosthenes over the byte heap", Build: Sieve})
	register(Fixture{Name: "Strings", Summary: "string table, length and char access, null strings", Build: Strings})
	register(Fixture{
		Name:    "Strcat",
		Summary: "copies string literals into the heap and writes them to a file",
		Build:   Strcat,
		Outputs: map[string]string{"strcat.log": "hello, world!"},
	})
	register(Fixture{Name: "StaticInit", Summary: "static constructors and field accessors", Build: StaticInit})
}

// Lookup finds a fixture by name, ignoring case.
func Lookup(name string) (Fixture, bool) {
	if f, ok := registry[name]; ok {
		return f, true
	}
	for key, f := range registry {
		if strings.EqualFold(key, name) {
			return f, true
		}
	}
	return Fixture{}, false
}

// All returns every fixture sorted by name.
func All() []Fixture {
	out := make([]Fixture, 0, len(registry))
	for _, f := range registry {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the fixture names sorted.
func Names() []string {
	all := All()
	out := make([]string, len(all))
	for i, f := range all {
		out[i] = f.Name
	}
	return out
}

const program = "Program"

// lines hands out spans in one document.
type lines struct {
	file source.FileID
}

func newLines(b *ir.Builder, path string) lines {
	return lines{file: b.Program().Files.Add(path)}
}

func (l lines) at(line uint32) source.Span {
	return source.Span{File: l.file, Line: line, Col: 9}
}
