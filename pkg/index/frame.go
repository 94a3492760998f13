package index

// Frame is the per-pixel evaluation state of one worker. It memoizes index
// values so each index is computed at most once per pixel, and only when
// something first asks for it. A Frame must not be shared between goroutines.
type Frame struct {
	set    *Set
	values []float64
	cache  []float64
	stamp  []uint32
	gen    uint32
	vars   []float64
}

// NewFrame allocates evaluation state with room for numVars stage variables.
func (s *Set) NewFrame(numVars int) *Frame {
	return &Frame{
		set:   s,
		cache: make([]float64, len(s.entries)),
		stamp: make([]uint32, len(s.entries)),
		vars:  make([]float64, numVars),
	}
}

// Load switches the frame to a new pixel. values must follow the set's layout
// and is only read, never written.
func (f *Frame) Load(values []float64) {
	f.values = values
	f.gen++
	if f.gen == 0 {
		// Stamp counter wrapped; forget every cached value
		for i := range f.stamp {
			f.stamp[i] = 0
		}
		f.gen = 1
	}
	for i := range f.vars {
		f.vars[i] = Undefined()
	}
}

// Values returns the band samples of the current pixel.
func (f *Frame) Values() []float64 { return f.values }

// Band returns a raw band sample.
func (f *Frame) Band(slot int) float64 { return f.values[slot] }

// Index returns an index value, computing it on first use for this pixel.
func (f *Frame) Index(slot int) float64 {
	if f.stamp[slot] == f.gen {
		return f.cache[slot]
	}
	v := f.set.entries[slot].eval(f)
	f.cache[slot] = v
	f.stamp[slot] = f.gen
	return v
}

// Computed reports whether an index has been evaluated for the current pixel.
func (f *Frame) Computed(slot int) bool { return f.stamp[slot] == f.gen }

// Var returns a stage variable.
func (f *Frame) Var(slot int) float64 { return f.vars[slot] }

// SetVar writes a stage variable.
func (f *Frame) SetVar(slot int, v float64) { f.vars[slot] = v }
