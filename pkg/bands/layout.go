package bands

import (
	"fmt"
	"strings"
)

// Layout is the fixed, ordered list of bands an algorithm reads from each
// pixel. Name to position resolution happens once, here, so evaluation code
// only ever indexes by precomputed positions.
type Layout struct {
	names     []string
	positions map[string]int
}

// NewLayout builds a layout from an ordered list of band names.
func NewLayout(names ...string) (*Layout, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("layout needs at least one band")
	}
	l := &Layout{
		names:     make([]string, len(names)),
		positions: make(map[string]int, len(names)),
	}
	for i, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			return nil, fmt.Errorf("band %d has an empty name", i)
		}
		if _, dup := l.positions[n]; dup {
			return nil, fmt.Errorf("band %s listed twice", n)
		}
		l.names[i] = n
		l.positions[n] = i
	}
	return l, nil
}

// Len returns the number of bands in the layout.
func (l *Layout) Len() int { return len(l.names) }

// Names returns a copy of the ordered band names.
func (l *Layout) Names() []string {
	out := make([]string, len(l.names))
	copy(out, l.names)
	return out
}

// Position returns the vector position of a band.
func (l *Layout) Position(name string) (int, bool) {
	p, ok := l.positions[name]
	return p, ok
}

// Resolve maps every role of a binding to a layout position. Roles bound to
// bands absent from the layout resolve to -1.
func (l *Layout) Resolve(b Binding) [NumRoles]int {
	var pos [NumRoles]int
	for r := Role(0); r < NumRoles; r++ {
		p, ok := l.positions[b[r]]
		if !ok {
			p = -1
		}
		pos[r] = p
	}
	return pos
}

// Vector wraps a value slice after checking its length against the layout.
func (l *Layout) Vector(values []float64) (Vector, error) {
	if len(values) != len(l.names) {
		return Vector{}, fmt.Errorf("band vector has %d values, layout %v expects %d", len(values), l.names, len(l.names))
	}
	return Vector{layout: l, values: values}, nil
}

// VectorOf builds a vector from a name -> value map. Every layout band must
// be present.
func (l *Layout) VectorOf(samples map[string]float64) (Vector, error) {
	values := make([]float64, len(l.names))
	for i, n := range l.names {
		v, ok := samples[n]
		if !ok {
			return Vector{}, fmt.Errorf("missing sample for band %s", n)
		}
		values[i] = v
	}
	return Vector{layout: l, values: values}, nil
}

// Vector is one pixel's band samples bound to a layout.
type Vector struct {
	layout *Layout
	values []float64
}

// Layout returns the layout the vector was built against.
func (v Vector) Layout() *Layout { return v.layout }

// Values returns the underlying samples in layout order.
func (v Vector) Values() []float64 { return v.values }

// Get looks a sample up by band name.
func (v Vector) Get(name string) (float64, bool) {
	if v.layout == nil {
		return 0, false
	}
	p, ok := v.layout.positions[name]
	if !ok {
		return 0, false
	}
	return v.values[p], true
}
