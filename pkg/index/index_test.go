package index

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"

	"spectralviz/internal/models"
	"spectralviz/pkg/bands"
	"spectralviz/pkg/expr"
)

const tol = 1e-12

// sentinelLayout holds every band the built-in formulas can bind to
func sentinelLayout(t *testing.T) *bands.Layout {
	t.Helper()
	layout, err := bands.NewLayout("B02", "B03", "B04", "B05", "B08", "B8A", "B11", "B12")
	if err != nil {
		t.Fatalf("Failed to build layout: %v", err)
	}
	return layout
}

// TestFormulas checks each built-in against a hand computed value
func TestFormulas(t *testing.T) {
	layout := sentinelLayout(t)
	samples := map[string]float64{
		"B02": 0.05, "B03": 0.08, "B04": 0.06, "B05": 0.09,
		"B08": 0.30, "B8A": 0.28, "B11": 0.15, "B12": 0.10,
	}
	v, err := layout.VectorOf(samples)
	if err != nil {
		t.Fatalf("Failed to build vector: %v", err)
	}

	b02, b03, b04, b05 := 0.05, 0.08, 0.06, 0.09
	b08, b8a, b11, b12 := 0.30, 0.28, 0.15, 0.10
	ndci := (b05 - b04) / (b05 + b04)

	want := map[string]float64{
		"ndvi":        (b08 - b04) / (b08 + b04),
		"ndwi":        (b03 - b08) / (b03 + b08),
		"mndwi":       (b03 - b11) / (b03 + b11),
		"aweish":      b02 + 2.5*b03 - 1.5*(b8a+b11) - 0.25*b12,
		"aweinsh":     4*(b03-b11) - (0.25*b8a + 2.75*b11),
		"dbsi":        (b11-b03)/(b11+b03) - (b08-b04)/(b08+b04),
		"fai":         b08 - (b04 + (b11-b04)*((832.8-664.6)/(1613.7-664.6))),
		"ndci":        ndci,
		"chlorophyll": 826.57*math.Pow(ndci, 3) - 176.43*math.Pow(ndci, 2) + 19*ndci + 4.071,
		"ndwi_leaves": (b08 - b11) / (b08 + b11),
		"moisture":    (b8a - b11) / (b8a + b11),
		"ndgr":        (b03 - b04) / (b03 + b04),
	}

	for name, expected := range want {
		got, err := Evaluate(v, name)
		if err != nil {
			t.Fatalf("Failed to evaluate %s: %v", name, err)
		}
		if !scalar.EqualWithinAbs(got, expected, tol) {
			t.Errorf("%s: expected %v, got %v", name, expected, got)
		}
	}
}

// TestFAIBaselineMatchesCatalog ties the FAI constants to the band centres
func TestFAIBaselineMatchesCatalog(t *testing.T) {
	red, _ := bands.Lookup("B04")
	nir, _ := bands.Lookup("B08")
	swir1, _ := bands.Lookup("B11")

	fromCatalog := (nir.Wavelength - red.Wavelength) / (swir1.Wavelength - red.Wavelength)
	if FAIBaseline != fromCatalog {
		t.Errorf("Expected baseline %v, got %v", fromCatalog, FAIBaseline)
	}

	// The same ratio written in a definition folds to the identical value
	n, err := expr.ParseNumeric("(832.8 - 664.6) / (1613.7 - 664.6)", nil)
	if err != nil {
		t.Fatalf("Failed to parse baseline: %v", err)
	}
	lit, ok := n.(expr.Literal)
	if !ok {
		t.Fatalf("Expected a folded literal, got %T", n)
	}
	if lit.Value != FAIBaseline {
		t.Errorf("Expected folded baseline %v, got %v", FAIBaseline, lit.Value)
	}
}

// TestNDVIProperties checks range and the NDVI(x,x) = 0 identity
func TestNDVIProperties(t *testing.T) {
	for i := 1; i <= 20; i++ {
		x := float64(i) / 20
		if v := NDVI(x, x); v != 0 {
			t.Errorf("NDVI(%v,%v): expected 0, got %v", x, x, v)
		}
	}

	for nir := 0.0; nir <= 1.0; nir += 0.05 {
		for red := 0.0; red <= 1.0; red += 0.05 {
			if nir+red == 0 {
				continue
			}
			v := NDVI(nir, red)
			if v < -1 || v > 1 {
				t.Errorf("NDVI(%v,%v) = %v outside [-1, 1]", nir, red, v)
			}
		}
	}
}

// TestZeroDenominator verifies the undefined sentinel for every normalized difference
func TestZeroDenominator(t *testing.T) {
	checks := map[string]float64{
		"ndvi":  NDVI(0, 0),
		"ndwi":  NDWI(0.1, -0.1),
		"mndwi": MNDWI(0, 0),
		"ndci":  NDCI(0, 0),
		"dbsi":  DBSI(0, 0, 0.5, 0.1),
		"chl":   Chlorophyll(NDCI(0, 0)),
	}
	for name, v := range checks {
		if !IsUndefined(v) {
			t.Errorf("%s: expected undefined, got %v", name, v)
		}
	}

	if v := NormalizedDifference(0.3, 0.1); !scalar.EqualWithinAbs(v, 0.5, tol) {
		t.Errorf("Expected 0.5, got %v", v)
	}
}

// TestNewSetErrors covers the configuration failures
func TestNewSetErrors(t *testing.T) {
	layout, _ := bands.NewLayout("B04", "B08")
	binding := bands.DefaultBinding()

	cases := []struct {
		name     string
		builtins []string
		custom   []Custom
		formula  string
	}{
		{"unknown builtin", []string{"evi"}, nil, "evi"},
		{"missing band", []string{"mndwi"}, nil, "mndwi"},
		{"duplicate", []string{"ndvi", "NDVI"}, nil, "ndvi"},
		{"bad expression", nil, []Custom{{Name: "ratio", Expr: "B08 / B03"}}, "ratio"},
		{"shadows band", nil, []Custom{{Name: "B04", Expr: "B08"}}, "B04"},
		{"cycle", nil, []Custom{{Name: "a", Expr: "b + 1"}, {Name: "b", Expr: "a * 2"}}, "a"},
		{"self reference", nil, []Custom{{Name: "a", Expr: "a + B04"}}, "a"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSet(layout, binding, tc.builtins, tc.custom, nil)
			var ce *models.ConfigurationError
			if !errors.As(err, &ce) {
				t.Fatalf("Expected ConfigurationError, got %v", err)
			}
			if ce.Kind != models.KindFormula {
				t.Errorf("Expected kind formula, got %s", ce.Kind)
			}
			if ce.Name != tc.formula {
				t.Errorf("Expected formula %q named, got %q", tc.formula, ce.Name)
			}
		})
	}
}

// TestCustomFormulas checks references between custom and built-in indices
func TestCustomFormulas(t *testing.T) {
	layout, _ := bands.NewLayout("B03", "B04", "B08", "B8A", "B11")
	custom := []Custom{
		{Name: "water_bodies", Expr: "(ndwi - moisture) / (ndwi + moisture)"},
		{Name: "bratio", Expr: "(B03 - 0.175) / (0.39 - 0.175)"},
		{Name: "scaled", Expr: "NDWI * gain"},
	}
	params := expr.Constants{"gain": 2}

	s, err := NewSet(layout, bands.DefaultBinding(), []string{"ndwi", "moisture"}, custom, params)
	if err != nil {
		t.Fatalf("Failed to build set: %v", err)
	}

	values := []float64{0.08, 0.06, 0.30, 0.28, 0.15}
	f := s.NewFrame(0)
	f.Load(values)

	ndwi := (0.08 - 0.30) / (0.08 + 0.30)
	moisture := (0.28 - 0.15) / (0.28 + 0.15)

	slot, _ := s.Slot("water_bodies")
	if got, want := f.Index(slot), (ndwi-moisture)/(ndwi+moisture); !scalar.EqualWithinAbs(got, want, tol) {
		t.Errorf("water_bodies: expected %v, got %v", want, got)
	}

	slot, _ = s.Slot("bratio")
	if got, want := f.Index(slot), (0.08-0.175)/(0.39-0.175); !scalar.EqualWithinAbs(got, want, tol) {
		t.Errorf("bratio: expected %v, got %v", want, got)
	}

	slot, _ = s.Slot("scaled")
	if got := f.Index(slot); !scalar.EqualWithinAbs(got, ndwi*2, tol) {
		t.Errorf("scaled: expected %v, got %v", ndwi*2, got)
	}
}

// TestFrameLaziness verifies indices are only computed on demand, once per pixel
func TestFrameLaziness(t *testing.T) {
	layout, _ := bands.NewLayout("B03", "B04", "B08", "B11")
	s, err := NewSet(layout, bands.DefaultBinding(), []string{"ndvi", "dbsi"}, nil, nil)
	if err != nil {
		t.Fatalf("Failed to build set: %v", err)
	}

	f := s.NewFrame(1)
	f.Load([]float64{0.1, 0.2, 0.6, 0.3})

	ndvi, _ := s.Slot("ndvi")
	dbsi, _ := s.Slot("dbsi")

	if f.Computed(ndvi) || f.Computed(dbsi) {
		t.Fatalf("Expected nothing computed after Load")
	}

	if got := f.Index(ndvi); !scalar.EqualWithinAbs(got, 0.5, tol) {
		t.Errorf("Expected ndvi 0.5, got %v", got)
	}
	if f.Computed(dbsi) {
		t.Errorf("dbsi computed without being requested")
	}

	f.SetVar(0, 1)
	f.Load([]float64{0.1, 0.6, 0.2, 0.3})
	if f.Computed(ndvi) {
		t.Errorf("Cached value leaked into the next pixel")
	}
	if !IsUndefined(f.Var(0)) {
		t.Errorf("Expected stage variable reset to undefined, got %v", f.Var(0))
	}
	if got := f.Index(ndvi); !scalar.EqualWithinAbs(got, -0.5, tol) {
		t.Errorf("Expected ndvi -0.5, got %v", got)
	}
}

// TestAlternateBinding evaluates NDVI with nir bound to B8A
func TestAlternateBinding(t *testing.T) {
	layout, _ := bands.NewLayout("B04", "B08", "B8A")
	binding, _ := bands.DefaultBinding().WithOverrides(map[string]string{"nir": "B8A"})

	s, err := NewSet(layout, binding, []string{"ndvi"}, nil, nil)
	if err != nil {
		t.Fatalf("Failed to build set: %v", err)
	}
	f := s.NewFrame(0)
	f.Load([]float64{0.1, 0.9, 0.3})

	if got := f.Index(0); !scalar.EqualWithinAbs(got, 0.5, tol) {
		t.Errorf("Expected ndvi from B8A = 0.5, got %v", got)
	}
}
