package harness

import (
	"strconv"

	"fortio.org/safecast"

	"ilwasm/internal/diag"
	"ilwasm/internal/source"
	"ilwasm/internal/types"
)

type local struct {
	name string
	kw   types.Keyword
}

type function struct {
	name   string
	params []local
	locals []local
	result types.Keyword
	body   []*Node
}

type importFunc struct {
	name   string
	module string
	field  string
	params int
}

type segment struct {
	offset uint32
	data   []byte
}

// Module is an instantiated module: its functions by internal name, its
// exports, its imports and the memory layout.
type Module struct {
	funcs    map[string]*function
	exports  map[string]*function
	names    []string
	imports  map[string]*importFunc
	memory   uint32
	segments []segment
}

// Exports lists export names in declaration order.
func (m *Module) Exports() []string {
	return append([]string(nil), m.names...)
}

// MemorySize is the declared memory size in bytes.
func (m *Module) MemorySize() uint32 { return m.memory }

// Instantiate reads the single (module ...) form among forms and returns it
// with the directives that follow it.
func Instantiate(forms []*Node) (*Module, []*Node, error) {
	var mod *Module
	var directives []*Node
	for _, f := range forms {
		if f.Head() != "module" {
			directives = append(directives, f)
			continue
		}
		if mod != nil {
			return nil, nil, structural(f, "more than one module")
		}
		var err error
		if mod, err = buildModule(f); err != nil {
			return nil, nil, err
		}
	}
	if mod == nil {
		return nil, nil, diag.Errorf(diag.HarParse, source.Span{}, "no module form")
	}
	return mod, directives, nil
}

func structural(n *Node, format string, args ...any) error {
	return diag.Errorf(diag.HarParse, source.Span{Line: n.Line}, format, args...)
}

func buildModule(n *Node) (*Module, error) {
	mod := &Module{
		funcs:   make(map[string]*function),
		exports: make(map[string]*function),
		imports: make(map[string]*importFunc),
	}
	type export struct {
		name   string
		target string
		at     *Node
	}
	var exports []export
	for _, item := range n.Args() {
		switch item.Head() {
		case "func":
			fn, err := buildFunction(item)
			if err != nil {
				return nil, err
			}
			if _, dup := mod.funcs[fn.name]; dup {
				return nil, structural(item, "duplicate function %s", fn.name)
			}
			mod.funcs[fn.name] = fn
		case "export":
			args := item.Args()
			if len(args) != 2 || !args[0].IsText {
				return nil, structural(item, "malformed export")
			}
			exports = append(exports, export{name: string(args[0].Text), target: args[1].Atom, at: item})
		case "import":
			imp, err := buildImport(item)
			if err != nil {
				return nil, err
			}
			mod.imports[imp.name] = imp
		case "memory":
			if err := mod.buildMemory(item); err != nil {
				return nil, err
			}
		default:
			return nil, structural(item, "unexpected module item %s", item)
		}
	}
	// Exports may precede the functions they name.
	for _, e := range exports {
		fn, ok := mod.funcs[e.target]
		if !ok {
			return nil, structural(e.at, "export %q names unknown function %s", e.name, e.target)
		}
		mod.exports[e.name] = fn
		mod.names = append(mod.names, e.name)
	}
	return mod, nil
}

func buildFunction(n *Node) (*function, error) {
	args := n.Args()
	if len(args) == 0 || args[0].IsList() {
		return nil, structural(n, "function without a name")
	}
	fn := &function{name: args[0].Atom}
	rest := args[1:]
	for len(rest) > 0 {
		h := rest[0].Head()
		if h != "param" && h != "local" && h != "result" {
			break
		}
		decl := rest[0].Args()
		switch {
		case h == "result" && len(decl) == 1:
			fn.result = types.Keyword(decl[0].Atom)
		case h != "result" && len(decl) == 2:
			l := local{name: decl[0].Atom, kw: types.Keyword(decl[1].Atom)}
			if h == "param" {
				fn.params = append(fn.params, l)
			} else {
				fn.locals = append(fn.locals, l)
			}
		default:
			return nil, structural(rest[0], "malformed %s in %s", h, fn.name)
		}
		rest = rest[1:]
	}
	fn.body = rest
	return fn, nil
}

// buildImport reads (import $name "module" "field" (param ...)).
func buildImport(n *Node) (*importFunc, error) {
	args := n.Args()
	if len(args) < 3 || !args[1].IsText || !args[2].IsText {
		return nil, structural(n, "malformed import")
	}
	imp := &importFunc{name: args[0].Atom, module: string(args[1].Text), field: string(args[2].Text)}
	for _, a := range args[3:] {
		if a.Head() == "param" {
			imp.params += len(a.Args())
		}
	}
	return imp, nil
}

// buildMemory reads (memory initial max (segment offset "bytes")...).
func (mod *Module) buildMemory(n *Node) error {
	args := n.Args()
	if len(args) < 2 {
		return structural(n, "malformed memory")
	}
	size, err := parseSize(args[0])
	if err != nil {
		return structural(n, "bad memory size %s", args[0])
	}
	mod.memory = size
	for _, s := range args[2:] {
		sa := s.Args()
		if s.Head() != "segment" || len(sa) != 2 || !sa[1].IsText {
			return structural(s, "malformed segment")
		}
		off, err := parseSize(sa[0])
		if err != nil {
			return structural(s, "bad segment offset %s", sa[0])
		}
		if uint64(off)+uint64(len(sa[1].Text)) > uint64(size) {
			return structural(s, "segment at %d overruns memory of %d bytes", off, size)
		}
		mod.segments = append(mod.segments, segment{offset: off, data: sa[1].Text})
	}
	return nil
}

func parseSize(n *Node) (uint32, error) {
	v, err := strconv.ParseUint(n.Atom, 10, 64)
	if err != nil {
		return 0, err
	}
	return safecast.Conv[uint32](v)
}
