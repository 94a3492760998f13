// Package raster loads single-band rasters and assembles them into a band
// stack for rendering.
package raster

import (
	"fmt"
	"image"
	"image/color"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/tiff"

	"spectralviz/internal/models"
)

// Options controls the digital number to reflectance conversion:
// reflectance = (DN + Offset) / Quantification.
type Options struct {
	Quantification float64
	Offset         float64
}

// DefaultOptions returns the Sentinel-2 L2A conversion (quantification 10000,
// no offset).
func DefaultOptions() Options {
	return Options{Quantification: 10000}
}

// Reflectance converts one digital number.
func (o Options) Reflectance(dn float64) float64 {
	return (dn + o.Offset) / o.Quantification
}

// Plane is one band decoded to reflectance, row-major.
type Plane struct {
	Name   string
	Width  int
	Height int
	Values []float64
}

// DimensionError is returned when band rasters of one stack differ in size.
type DimensionError struct {
	Band          string
	Width, Height int
	WantWidth     int
	WantHeight    int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("band %s is %dx%d, expected %dx%d", e.Band, e.Width, e.Height, e.WantWidth, e.WantHeight)
}

// Decode reads a grayscale PNG or TIFF image as a reflectance plane.
func Decode(name string, r io.Reader, opts Options) (*Plane, error) {
	if opts.Quantification == 0 {
		return nil, fmt.Errorf("quantification value must not be zero")
	}

	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode band %s: %w", name, err)
	}

	b := img.Bounds()
	p := &Plane{
		Name:   name,
		Width:  b.Dx(),
		Height: b.Dy(),
		Values: make([]float64, b.Dx()*b.Dy()),
	}

	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			p.Values[i] = opts.Reflectance(digitalNumber(img, x, y))
			i++
		}
	}
	return p, nil
}

// digitalNumber reads a pixel's raw value without rescaling 8-bit samples
// to 16 bits.
func digitalNumber(img image.Image, x, y int) float64 {
	switch im := img.(type) {
	case *image.Gray16:
		return float64(im.Gray16At(x, y).Y)
	case *image.Gray:
		return float64(im.GrayAt(x, y).Y)
	}
	return float64(color.Gray16Model.Convert(img.At(x, y)).(color.Gray16).Y)
}

// LoadBand decodes a band raster from disk.
func LoadBand(name, path string, opts Options) (*Plane, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open band %s: %w", name, err)
	}
	defer f.Close()
	return Decode(name, f, opts)
}

// Source names the file holding one band.
type Source struct {
	Band string
	Path string
}

// LoadStack loads every source and assembles them, in order, into a stack.
func LoadStack(sources []Source, opts Options) (*models.BandStack, error) {
	planes := make([]*Plane, 0, len(sources))
	for _, s := range sources {
		p, err := LoadBand(s.Band, s.Path, opts)
		if err != nil {
			return nil, err
		}
		planes = append(planes, p)
	}
	return Stack(planes...)
}

// Stack assembles planes of identical dimensions into a band stack.
func Stack(planes ...*Plane) (*models.BandStack, error) {
	if len(planes) == 0 {
		return nil, fmt.Errorf("no bands to stack")
	}

	first := planes[0]
	names := make([]string, len(planes))
	seen := make(map[string]bool)
	for i, p := range planes {
		if seen[p.Name] {
			return nil, fmt.Errorf("band %s loaded twice", p.Name)
		}
		seen[p.Name] = true
		if p.Width != first.Width || p.Height != first.Height {
			return nil, &DimensionError{
				Band:       p.Name,
				Width:      p.Width,
				Height:     p.Height,
				WantWidth:  first.Width,
				WantHeight: first.Height,
			}
		}
		names[i] = p.Name
	}

	stack := models.NewBandStack(first.Width, first.Height, names)
	for _, p := range planes {
		if err := stack.SetBand(p.Name, p.Values); err != nil {
			return nil, err
		}
	}
	if err := stack.Validate(); err != nil {
		return nil, err
	}
	return stack, nil
}
