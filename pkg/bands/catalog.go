// Package bands describes spectral bands and binds band names to positions
// inside per-pixel band vectors.
package bands

import (
	"sort"
	"strings"
)

// Band holds the metadata of one Sentinel-2 MSI band.
type Band struct {
	// Name is the band identifier used in formulas (e.g. "B02")
	Name string

	// Label is a human readable name (e.g. "Blue")
	Label string

	// CommonName follows the STAC eo extension (e.g. "blue")
	CommonName string

	// Wavelength is the centre wavelength in nanometres
	Wavelength float64

	// Resolution is the ground sample distance in metres
	Resolution int
}

// Sentinel-2A centre wavelengths. The FAI baseline coefficients are derived
// from the B04, B08 and B11 entries.
var sentinel2 = []Band{
	{"B01", "Coastal aerosol", "coastal", 442.7, 60},
	{"B02", "Blue", "blue", 492.4, 10},
	{"B03", "Green", "green", 559.8, 10},
	{"B04", "Red", "red", 664.6, 10},
	{"B05", "Red edge 1", "rededge", 704.1, 20},
	{"B06", "Red edge 2", "rededge", 740.5, 20},
	{"B07", "Red edge 3", "rededge", 782.8, 20},
	{"B08", "NIR", "nir", 832.8, 10},
	{"B8A", "Narrow NIR", "nir08", 864.7, 20},
	{"B09", "Water vapour", "nir09", 945.1, 60},
	{"B11", "SWIR 1", "swir16", 1613.7, 20},
	{"B12", "SWIR 2", "swir22", 2202.4, 20},
}

var catalog = func() map[string]Band {
	m := make(map[string]Band, len(sentinel2))
	for _, b := range sentinel2 {
		m[b.Name] = b
	}
	return m
}()

// Lookup returns catalog metadata for a band. Names are matched case
// insensitively, so "b8a" finds B8A.
func Lookup(name string) (Band, bool) {
	b, ok := catalog[strings.ToUpper(name)]
	return b, ok
}

// Catalog returns all known bands ordered by wavelength.
func Catalog() []Band {
	out := make([]Band, len(sentinel2))
	copy(out, sentinel2)
	sort.Slice(out, func(i, j int) bool { return out[i].Wavelength < out[j].Wavelength })
	return out
}
