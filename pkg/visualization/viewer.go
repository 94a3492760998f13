package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"spectralviz/internal/models"
)

// Viewer turns rendered layers into images. Layer values are mapped from the
// layer's output domain onto the 0-255 byte range, so RGB layers scaled to
// [0, 255] pass through unchanged and scalar index layers are stretched
// across the full grey range.
type Viewer struct {
	// layer holds the rendered values
	layer *models.Layer

	// lo and hi are the layer domain bounds mapped to 0 and 255
	lo float64
	hi float64
}

// NewViewer creates a viewer for one layer
func NewViewer(layer *models.Layer) *Viewer {
	return &Viewer{
		layer: layer,
		lo:    layer.Domain[0],
		hi:    layer.Domain[1],
	}
}

// toByte maps a layer value to a byte, saturating at both ends
func (v *Viewer) toByte(x float64) uint8 {
	if v.hi == v.lo || math.IsNaN(x) {
		return 0
	}
	t := (x - v.lo) / (v.hi - v.lo)
	return uint8(math.Round(math.Max(0, math.Min(1, t)) * 255))
}

// Image renders the layer: RGB layers become *image.RGBA, single channel
// layers become *image.Gray
func (v *Viewer) Image() (image.Image, error) {
	l := v.layer
	switch l.Channels {
	case 1:
		return v.ExtractChannel(0)

	case 3:
		img := image.NewRGBA(image.Rect(0, 0, l.Width, l.Height))
		for y := 0; y < l.Height; y++ {
			for x := 0; x < l.Width; x++ {
				px := l.At(x, y)
				img.SetRGBA(x, y, color.RGBA{
					R: v.toByte(px[0]),
					G: v.toByte(px[1]),
					B: v.toByte(px[2]),
					A: 255, // Full opacity
				})
			}
		}
		return img, nil
	}
	return nil, fmt.Errorf("layer %s has %d channels, only 1 or 3 can be drawn", l.Name, l.Channels)
}

// ExtractChannel renders one channel of the layer as a grey image
func (v *Viewer) ExtractChannel(c int) (*image.Gray, error) {
	l := v.layer
	if c < 0 || c >= l.Channels {
		return nil, fmt.Errorf("channel %d out of range for %d-channel layer %s", c, l.Channels, l.Name)
	}

	img := image.NewGray(image.Rect(0, 0, l.Width, l.Height))
	for y := 0; y < l.Height; y++ {
		for x := 0; x < l.Width; x++ {
			img.SetGray(x, y, color.Gray{Y: v.toByte(l.At(x, y)[c])})
		}
	}
	return img, nil
}

// Save writes an image, choosing the encoder from the file extension
func Save(img image.Image, filename string) error {
	var encode func(f *os.File) error
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		encode = func(f *os.File) error { return png.Encode(f, img) }
	case ".jpg", ".jpeg":
		encode = func(f *os.File) error { return jpeg.Encode(f, img, &jpeg.Options{Quality: 90}) }
	default:
		return fmt.Errorf("unsupported image format %q", filepath.Ext(filename))
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return encode(file)
}

// SaveLayers writes every layer as <name>.<format> into outputDir. Hidden
// layers are skipped unless includeHidden is set. It returns the written paths.
func SaveLayers(layers []*models.Layer, outputDir, format string, includeHidden bool) ([]string, error) {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	switch format {
	case "png", "jpg", "jpeg":
	default:
		return nil, fmt.Errorf("invalid format: %s (must be png or jpeg)", format)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, err
	}

	var written []string
	for _, l := range layers {
		if !l.Visible && !includeHidden {
			continue
		}

		img, err := NewViewer(l).Image()
		if err != nil {
			return written, err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("%s.%s", l.Name, format))
		if err := Save(img, filename); err != nil {
			return written, fmt.Errorf("failed to save layer %s: %w", l.Name, err)
		}
		written = append(written, filename)
	}

	return written, nil
}
