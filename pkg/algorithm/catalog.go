package algorithm

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"spectralviz/internal/models"
	"spectralviz/pkg/bands"
	"spectralviz/pkg/index"
)

//go:embed catalog/*.yaml
var catalogFS embed.FS

// IndexAlgorithms are the built-in formulas exposed as single-channel
// algorithms named "index-<formula>", with the domain each one is clamped to.
var IndexAlgorithms = map[string][2]float64{
	"ndvi":        {-1, 1},
	"ndwi":        {-1, 1},
	"mndwi":       {-1, 1},
	"fai":         {-1, 1},
	"ndci":        {-1, 1},
	"chlorophyll": {0, 1000},
}

// Catalog is a named collection of compiled algorithms.
type Catalog struct {
	algs  map[string]*Algorithm
	order []string
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{algs: make(map[string]*Algorithm)}
}

// Builtin returns a catalog holding the embedded visualizations followed by
// the index algorithms.
func Builtin() (*Catalog, error) {
	c := NewCatalog()

	defs, err := BuiltinDefinitions()
	if err != nil {
		return nil, err
	}
	for _, d := range defs {
		if err := c.Add(d); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// BuiltinDefinitions returns the embedded definitions and the generated index
// definitions, in catalog order.
func BuiltinDefinitions() ([]Definition, error) {
	files, err := fs.Glob(catalogFS, "catalog/*.yaml")
	if err != nil {
		return nil, err
	}

	var defs []Definition
	for _, name := range files {
		f, err := catalogFS.Open(name)
		if err != nil {
			return nil, err
		}
		d, err := Decode(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("embedded %s: %w", name, err)
		}
		defs = append(defs, d...)
	}

	names := make([]string, 0, len(IndexAlgorithms))
	for n := range IndexAlgorithms {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		d, err := IndexDefinition(n)
		if err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	return defs, nil
}

// IndexDefinition builds a single-channel definition that outputs one built-in
// formula. Its bands are the ones the formula's roles bind to by default.
func IndexDefinition(formula string) (Definition, error) {
	b, ok := index.LookupBuiltin(formula)
	if !ok {
		return Definition{}, models.ConfigErrorf(models.KindFormula, formula, "unknown built-in formula")
	}

	domain, ok := IndexAlgorithms[b.Name]
	if !ok {
		domain = [2]float64{-1, 1}
	}

	binding := bands.DefaultBinding()
	var names []string
	seen := make(map[string]bool)
	for _, r := range b.Roles {
		if band := binding[r]; !seen[band] {
			seen[band] = true
			names = append(names, band)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		bi, _ := bands.Lookup(names[i])
		bj, _ := bands.Lookup(names[j])
		return bi.Wavelength < bj.Wavelength
	})

	hidden := false
	return Definition{
		Name:        "index-" + b.Name,
		Title:       strings.ToUpper(b.Name),
		Description: b.Description,
		Bands:       names,
		Indices:     []string{b.Name},
		Rules:       []RuleDef{{Name: "value", OutputDef: OutputDef{Value: b.Name}}},
		InputRange:  domain[:],
		OutputRange: domain[:],
		Visible:     &hidden,
	}, nil
}

// Add compiles a definition and registers it. Names must be unique.
func (c *Catalog) Add(def Definition) error {
	if _, dup := c.algs[def.Name]; dup {
		return models.ConfigErrorf(models.KindDefinition, def.Name, "algorithm defined twice")
	}
	a, err := Compile(def)
	if err != nil {
		return err
	}
	c.algs[a.Name()] = a
	c.order = append(c.order, a.Name())
	return nil
}

// AddFile compiles and registers every definition in a YAML file.
func (c *Catalog) AddFile(path string) error {
	defs, err := LoadFile(path)
	if err != nil {
		return err
	}
	for _, d := range defs {
		if err := c.Add(d); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

// Get finds an algorithm by name.
func (c *Catalog) Get(name string) (*Algorithm, bool) {
	a, ok := c.algs[name]
	return a, ok
}

// Lookup resolves several names, failing on the first unknown one.
func (c *Catalog) Lookup(names ...string) ([]*Algorithm, error) {
	out := make([]*Algorithm, 0, len(names))
	for _, n := range names {
		a, ok := c.algs[n]
		if !ok {
			return nil, fmt.Errorf("unknown algorithm %q (available: %s)", n, strings.Join(c.order, ", "))
		}
		out = append(out, a)
	}
	return out, nil
}

// Names lists algorithm names in registration order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.order...)
}

// All returns every algorithm in registration order.
func (c *Catalog) All() []*Algorithm {
	out := make([]*Algorithm, len(c.order))
	for i, n := range c.order {
		out[i] = c.algs[n]
	}
	return out
}

// Len returns the number of algorithms.
func (c *Catalog) Len() int { return len(c.order) }
