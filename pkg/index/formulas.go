// Package index computes spectral band indices such as NDVI, NDWI and FAI.
//
// Every formula is a pure function of one pixel's band samples. A zero
// denominator in a normalized difference yields Undefined (NaN) rather than
// an infinity, and guards downstream treat Undefined as never matching.
package index

import (
	"sort"
	"strings"

	"spectralviz/pkg/bands"
	"spectralviz/pkg/expr"
)

// Undefined returns the sentinel for values without meaning.
func Undefined() float64 { return expr.Undefined() }

// IsUndefined reports whether v is the Undefined sentinel.
func IsUndefined(v float64) bool { return expr.IsUndefined(v) }

// Band centres (nm) the Floating Algae Index baseline is drawn through.
var (
	faiRed   = 664.6
	faiNIR   = 832.8
	faiSWIR1 = 1613.7
)

// FAIBaseline is the linear baseline weight of the Floating Algae Index,
// interpolating between the red and SWIR1 band centres at the NIR centre.
// It is computed in float64 so it equals the same expression written in a
// formula.
var FAIBaseline = (faiNIR - faiRed) / (faiSWIR1 - faiRed)

// Chlorophyll-a polynomial coefficients over NDCI.
const (
	chlA3 = 826.57
	chlA2 = -176.43
	chlA1 = 19
	chlA0 = 4.071
)

// NormalizedDifference returns (x - y) / (x + y), or Undefined when x + y == 0.
func NormalizedDifference(x, y float64) float64 {
	sum := x + y
	if sum == 0 {
		return Undefined()
	}
	return (x - y) / sum
}

// NDVI is the normalized difference vegetation index.
func NDVI(nir, red float64) float64 { return NormalizedDifference(nir, red) }

// NDWI is the McFeeters normalized difference water index.
func NDWI(green, nir float64) float64 { return NormalizedDifference(green, nir) }

// MNDWI is the modified NDWI using SWIR1 instead of NIR.
func MNDWI(green, swir1 float64) float64 { return NormalizedDifference(green, swir1) }

// AWEISH is the automated water extraction index for scenes with shadows.
func AWEISH(blue, green, nir2, swir1, swir2 float64) float64 {
	return blue + 2.5*green - 1.5*(nir2+swir1) - 0.25*swir2
}

// AWEINSH is the automated water extraction index for scenes without shadows.
func AWEINSH(green, nir2, swir1 float64) float64 {
	return 4*(green-swir1) - (0.25*nir2 + 2.75*swir1)
}

// DBSI is the dry bare-soil index.
func DBSI(green, swir1, nir, red float64) float64 {
	return NormalizedDifference(swir1, green) - NDVI(nir, red)
}

// FAI is the Floating Algae Index: NIR minus the red/SWIR1 baseline.
func FAI(red, nir, swir1 float64) float64 {
	return nir - (red + (swir1-red)*FAIBaseline)
}

// NDCI is the normalized difference chlorophyll index.
func NDCI(redEdge1, red float64) float64 { return NormalizedDifference(redEdge1, red) }

// Chlorophyll estimates chlorophyll-a concentration (mg/m3) from NDCI.
func Chlorophyll(ndci float64) float64 {
	return chlA3*ndci*ndci*ndci + chlA2*ndci*ndci + chlA1*ndci + chlA0
}

// Sample reads role-bound band values out of one pixel vector.
type Sample struct {
	values []float64
	pos    *[bands.NumRoles]int
}

// Get returns the sample bound to a role.
func (s Sample) Get(r bands.Role) float64 { return s.values[s.pos[r]] }

// Builtin is a named formula written against spectral roles.
type Builtin struct {
	Name        string
	Description string
	Roles       []bands.Role
	Compute     func(s Sample) float64
}

var builtins = map[string]*Builtin{
	"ndvi": {
		Name:        "ndvi",
		Description: "(nir - red) / (nir + red)",
		Roles:       []bands.Role{bands.NIR, bands.Red},
		Compute:     func(s Sample) float64 { return NDVI(s.Get(bands.NIR), s.Get(bands.Red)) },
	},
	"ndwi": {
		Name:        "ndwi",
		Description: "(green - nir) / (green + nir)",
		Roles:       []bands.Role{bands.Green, bands.NIR},
		Compute:     func(s Sample) float64 { return NDWI(s.Get(bands.Green), s.Get(bands.NIR)) },
	},
	"mndwi": {
		Name:        "mndwi",
		Description: "(green - swir1) / (green + swir1)",
		Roles:       []bands.Role{bands.Green, bands.SWIR1},
		Compute:     func(s Sample) float64 { return MNDWI(s.Get(bands.Green), s.Get(bands.SWIR1)) },
	},
	"aweish": {
		Name:        "aweish",
		Description: "blue + 2.5*green - 1.5*(nir2 + swir1) - 0.25*swir2",
		Roles:       []bands.Role{bands.Blue, bands.Green, bands.NIR2, bands.SWIR1, bands.SWIR2},
		Compute: func(s Sample) float64 {
			return AWEISH(s.Get(bands.Blue), s.Get(bands.Green), s.Get(bands.NIR2), s.Get(bands.SWIR1), s.Get(bands.SWIR2))
		},
	},
	"aweinsh": {
		Name:        "aweinsh",
		Description: "4*(green - swir1) - (0.25*nir2 + 2.75*swir1)",
		Roles:       []bands.Role{bands.Green, bands.NIR2, bands.SWIR1},
		Compute: func(s Sample) float64 {
			return AWEINSH(s.Get(bands.Green), s.Get(bands.NIR2), s.Get(bands.SWIR1))
		},
	},
	"dbsi": {
		Name:        "dbsi",
		Description: "(swir1 - green) / (swir1 + green) - ndvi",
		Roles:       []bands.Role{bands.Green, bands.SWIR1, bands.NIR, bands.Red},
		Compute: func(s Sample) float64 {
			return DBSI(s.Get(bands.Green), s.Get(bands.SWIR1), s.Get(bands.NIR), s.Get(bands.Red))
		},
	},
	"fai": {
		Name:        "fai",
		Description: "nir - (red + (swir1 - red) * ((832.8 - 664.6) / (1613.7 - 664.6)))",
		Roles:       []bands.Role{bands.Red, bands.NIR, bands.SWIR1},
		Compute:     func(s Sample) float64 { return FAI(s.Get(bands.Red), s.Get(bands.NIR), s.Get(bands.SWIR1)) },
	},
	"ndci": {
		Name:        "ndci",
		Description: "(rededge1 - red) / (rededge1 + red)",
		Roles:       []bands.Role{bands.RedEdge1, bands.Red},
		Compute:     func(s Sample) float64 { return NDCI(s.Get(bands.RedEdge1), s.Get(bands.Red)) },
	},
	"chlorophyll": {
		Name:        "chlorophyll",
		Description: "826.57*ndci^3 - 176.43*ndci^2 + 19*ndci + 4.071",
		Roles:       []bands.Role{bands.RedEdge1, bands.Red},
		Compute: func(s Sample) float64 {
			return Chlorophyll(NDCI(s.Get(bands.RedEdge1), s.Get(bands.Red)))
		},
	},
	"ndwi_leaves": {
		Name:        "ndwi_leaves",
		Description: "(nir - swir1) / (nir + swir1)",
		Roles:       []bands.Role{bands.NIR, bands.SWIR1},
		Compute:     func(s Sample) float64 { return NormalizedDifference(s.Get(bands.NIR), s.Get(bands.SWIR1)) },
	},
	"moisture": {
		Name:        "moisture",
		Description: "(nir2 - swir1) / (nir2 + swir1)",
		Roles:       []bands.Role{bands.NIR2, bands.SWIR1},
		Compute:     func(s Sample) float64 { return NormalizedDifference(s.Get(bands.NIR2), s.Get(bands.SWIR1)) },
	},
	"ndgr": {
		Name:        "ndgr",
		Description: "(green - red) / (green + red)",
		Roles:       []bands.Role{bands.Green, bands.Red},
		Compute:     func(s Sample) float64 { return NormalizedDifference(s.Get(bands.Green), s.Get(bands.Red)) },
	},
	"water_plants": {
		Name:        "water_plants",
		Description: "(rededge1 - red) / (rededge1 + red)",
		Roles:       []bands.Role{bands.RedEdge1, bands.Red},
		Compute:     func(s Sample) float64 { return NDCI(s.Get(bands.RedEdge1), s.Get(bands.Red)) },
	},
}

// LookupBuiltin finds a built-in formula by name, case insensitively.
func LookupBuiltin(name string) (*Builtin, bool) {
	b, ok := builtins[strings.ToLower(name)]
	return b, ok
}

// Builtins lists the built-in formulas sorted by name.
func Builtins() []*Builtin {
	out := make([]*Builtin, 0, len(builtins))
	for _, b := range builtins {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
