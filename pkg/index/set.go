package index

import (
	"fmt"
	"strings"

	"spectralviz/internal/models"
	"spectralviz/pkg/bands"
	"spectralviz/pkg/expr"
)

// Custom is an index defined by an arithmetic expression over bands,
// parameters and other declared indices.
type Custom struct {
	Name string
	Expr string
}

type entry struct {
	name    string
	builtin *Builtin
	pos     [bands.NumRoles]int
	node    expr.Node
}

func (e *entry) eval(f *Frame) float64 {
	if e.node != nil {
		return e.node.Eval(f)
	}
	return e.builtin.Compute(Sample{values: f.values, pos: &e.pos})
}

// Set is the compiled collection of indices one algorithm declares, bound to
// that algorithm's band layout.
type Set struct {
	layout  *bands.Layout
	entries []*entry
	slots   map[string]int
}

// NewSet compiles built-in and custom indices against a layout. Built-in
// formulas have their roles resolved through binding; custom expressions may
// reference layout bands, names resolved by params, and any index in the set.
// Unknown formulas, unbound roles, unknown identifiers and reference cycles
// are reported as ConfigurationError naming the formula.
func NewSet(layout *bands.Layout, binding bands.Binding, builtinNames []string, custom []Custom, params expr.Scope) (*Set, error) {
	s := &Set{
		layout: layout,
		slots:  make(map[string]int),
	}
	positions := layout.Resolve(binding)

	for _, name := range builtinNames {
		b, ok := LookupBuiltin(name)
		if !ok {
			return nil, models.ConfigErrorf(models.KindFormula, name, "unknown built-in formula")
		}
		if _, dup := s.slots[b.Name]; dup {
			return nil, models.ConfigErrorf(models.KindFormula, b.Name, "declared twice")
		}
		for _, r := range b.Roles {
			if positions[r] < 0 {
				return nil, models.ConfigErrorf(models.KindFormula, b.Name,
					"role %s is bound to band %s which is not among the algorithm bands %v", r, binding[r], layout.Names())
			}
		}
		s.slots[b.Name] = len(s.entries)
		s.entries = append(s.entries, &entry{name: b.Name, builtin: b, pos: positions})
	}

	// Reserve slots first so custom formulas may reference each other in any order
	for _, c := range custom {
		if strings.TrimSpace(c.Name) == "" {
			return nil, models.ConfigErrorf(models.KindFormula, c.Expr, "custom formula has no name")
		}
		if _, dup := s.slots[c.Name]; dup {
			return nil, models.ConfigErrorf(models.KindFormula, c.Name, "declared twice")
		}
		if _, clash := layout.Position(c.Name); clash {
			return nil, models.ConfigErrorf(models.KindFormula, c.Name, "name shadows a band")
		}
		s.slots[c.Name] = len(s.entries)
		s.entries = append(s.entries, &entry{name: c.Name})
	}

	scope := expr.Chain(params, s.Scope(), BandScope(layout))
	for _, c := range custom {
		node, err := expr.ParseNumeric(c.Expr, scope)
		if err != nil {
			return nil, &models.ConfigurationError{Kind: models.KindFormula, Name: c.Name, Err: err}
		}
		s.entries[s.slots[c.Name]].node = node
	}

	if err := s.checkCycles(); err != nil {
		return nil, err
	}
	return s, nil
}

// checkCycles rejects custom formulas that depend on themselves.
func (s *Set) checkCycles() error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, len(s.entries))

	var visit func(i int, path []string) error
	visit = func(i int, path []string) error {
		switch state[i] {
		case visiting:
			return models.ConfigErrorf(models.KindFormula, s.entries[i].name,
				"circular reference %s", strings.Join(append(path, s.entries[i].name), " -> "))
		case done:
			return nil
		}
		state[i] = visiting
		if n := s.entries[i].node; n != nil {
			for _, dep := range expr.IndexRefs(n) {
				if err := visit(s.slots[dep], append(path, s.entries[i].name)); err != nil {
					return err
				}
			}
		}
		state[i] = done
		return nil
	}

	for i := range s.entries {
		if err := visit(i, nil); err != nil {
			return err
		}
	}
	return nil
}

// Layout returns the band layout the set was compiled against.
func (s *Set) Layout() *bands.Layout { return s.layout }

// Len returns the number of indices in the set.
func (s *Set) Len() int { return len(s.entries) }

// Names returns index names in slot order.
func (s *Set) Names() []string {
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.name
	}
	return out
}

// Slot returns the slot of a declared index.
func (s *Set) Slot(name string) (int, bool) {
	if i, ok := s.slots[name]; ok {
		return i, true
	}
	i, ok := s.slots[strings.ToLower(name)]
	return i, ok
}

// Describe returns the formula text of an index.
func (s *Set) Describe(name string) string {
	i, ok := s.Slot(name)
	if !ok {
		return ""
	}
	e := s.entries[i]
	if e.node != nil {
		return e.node.String()
	}
	return e.builtin.Description
}

// Scope resolves declared index names to IndexRef nodes. Built-in names also
// match in upper case, so guards may say NDVI or ndvi.
func (s *Set) Scope() expr.Scope {
	return expr.ScopeFunc(func(name string) (expr.Node, error) {
		i, ok := s.Slot(name)
		if !ok {
			return nil, fmt.Errorf("undeclared index %q", name)
		}
		return expr.IndexRef{Name: s.entries[i].name, Slot: i}, nil
	})
}

// BandScope resolves layout band names to BandRef nodes.
func BandScope(layout *bands.Layout) expr.Scope {
	return expr.ScopeFunc(func(name string) (expr.Node, error) {
		p, ok := layout.Position(name)
		if !ok {
			return nil, fmt.Errorf("band %q is not among %v", name, layout.Names())
		}
		return expr.BandRef{Name: name, Slot: p}, nil
	})
}

// Evaluate computes one built-in formula for a vector using the default
// Sentinel-2 binding. The only failures are configuration problems: an
// unknown formula or a band the formula needs missing from the vector.
func Evaluate(v bands.Vector, formula string) (float64, error) {
	layout := v.Layout()
	if layout == nil {
		return 0, models.ConfigErrorf(models.KindFormula, formula, "vector has no layout")
	}
	s, err := NewSet(layout, bands.DefaultBinding(), []string{formula}, nil, nil)
	if err != nil {
		return 0, err
	}
	f := s.NewFrame(0)
	f.Load(v.Values())
	return f.Index(0), nil
}
