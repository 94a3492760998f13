package models

import "fmt"

// BandStack is a rectangular grid of per-pixel band vectors for one scene.
type BandStack struct {
	// Width and Height are the grid dimensions in pixels
	Width  int
	Height int

	// Bands is the ordered list of band names stored for every pixel
	Bands []string

	// Data holds the samples pixel-interleaved in row-major order:
	// pixel i, band b lives at Data[i*len(Bands)+b]
	Data []float64
}

// NewBandStack allocates an empty stack for the given dimensions and bands.
func NewBandStack(width, height int, bands []string) *BandStack {
	names := make([]string, len(bands))
	copy(names, bands)
	return &BandStack{
		Width:  width,
		Height: height,
		Bands:  names,
		Data:   make([]float64, width*height*len(bands)),
	}
}

// Validate checks that the sample buffer matches the declared dimensions.
func (s *BandStack) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("invalid stack dimensions %dx%d", s.Width, s.Height)
	}
	if len(s.Bands) == 0 {
		return fmt.Errorf("stack declares no bands")
	}
	want := s.Width * s.Height * len(s.Bands)
	if len(s.Data) != want {
		return fmt.Errorf("stack holds %d samples, expected %d (%dx%d pixels, %d bands)",
			len(s.Data), want, s.Width, s.Height, len(s.Bands))
	}
	return nil
}

// BandIndex returns the position of a band inside every pixel vector.
func (s *BandStack) BandIndex(name string) (int, bool) {
	for i, b := range s.Bands {
		if b == name {
			return i, true
		}
	}
	return -1, false
}

// Pixel returns the band vector of the pixel at (x, y). The returned slice
// aliases the stack data.
func (s *BandStack) Pixel(x, y int) []float64 {
	nb := len(s.Bands)
	i := (y*s.Width + x) * nb
	return s.Data[i : i+nb]
}

// SetBand writes a full band plane (Width*Height values, row-major) into the stack.
func (s *BandStack) SetBand(name string, plane []float64) error {
	b, ok := s.BandIndex(name)
	if !ok {
		return fmt.Errorf("band %s is not part of the stack", name)
	}
	if len(plane) != s.Width*s.Height {
		return fmt.Errorf("band %s has %d values, expected %d", name, len(plane), s.Width*s.Height)
	}
	nb := len(s.Bands)
	for i, v := range plane {
		s.Data[i*nb+b] = v
	}
	return nil
}

// Pixel is one evaluated output vector: 3 channels for colour
// visualizations, 1 for scalar index algorithms.
type Pixel []float64

// Layer is a named rectangular grid of output pixels produced by one algorithm.
type Layer struct {
	// Name identifies the algorithm that produced the layer
	Name string

	// Title is the human readable layer label
	Title string

	Width    int
	Height   int
	Channels int

	// Data holds Channels values per pixel in row-major order,
	// already scaled to the algorithm's output range
	Data []float64

	// Domain is the output range Data was scaled to
	Domain [2]float64

	// Visible marks layers that should be shown by default
	Visible bool

	// RuleHits counts how many pixels each output rule selected
	RuleHits map[string]int
}

// NewLayer allocates an output layer.
func NewLayer(name string, width, height, channels int) *Layer {
	return &Layer{
		Name:     name,
		Width:    width,
		Height:   height,
		Channels: channels,
		Data:     make([]float64, width*height*channels),
		Domain:   [2]float64{0, 255},
		Visible:  true,
		RuleHits: make(map[string]int),
	}
}

// At returns the output vector of the pixel at (x, y). The returned slice
// aliases the layer data.
func (l *Layer) At(x, y int) Pixel {
	i := (y*l.Width + x) * l.Channels
	return Pixel(l.Data[i : i+l.Channels])
}

// Channel copies one channel out of the layer as a plane.
func (l *Layer) Channel(c int) ([]float64, error) {
	if c < 0 || c >= l.Channels {
		return nil, fmt.Errorf("channel %d out of range for %d-channel layer %s", c, l.Channels, l.Name)
	}
	n := l.Width * l.Height
	plane := make([]float64, n)
	for i := 0; i < n; i++ {
		plane[i] = l.Data[i*l.Channels+c]
	}
	return plane, nil
}

// Partition is a half-open band of rows [StartRow, EndRow) processed by one
// task. Partitions never overlap, so writes from different tasks are disjoint.
type Partition struct {
	Index    int
	StartRow int
	EndRow   int
}

// Partitions splits height rows into tasks of at most rowsPerTask rows.
func Partitions(height, rowsPerTask int) []Partition {
	if rowsPerTask <= 0 {
		rowsPerTask = 1
	}
	parts := make([]Partition, 0, (height+rowsPerTask-1)/rowsPerTask)
	for start := 0; start < height; start += rowsPerTask {
		end := start + rowsPerTask
		if end > height {
			end = height
		}
		parts = append(parts, Partition{Index: len(parts), StartRow: start, EndRow: end})
	}
	return parts
}
