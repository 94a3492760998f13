package bands

import "testing"

// TestNewLayout verifies ordered name resolution
func TestNewLayout(t *testing.T) {
	layout, err := NewLayout("B02", "B03", "B04")
	if err != nil {
		t.Fatalf("Failed to build layout: %v", err)
	}

	if layout.Len() != 3 {
		t.Errorf("Expected 3 bands, got %d", layout.Len())
	}

	for i, name := range []string{"B02", "B03", "B04"} {
		p, ok := layout.Position(name)
		if !ok || p != i {
			t.Errorf("Expected %s at position %d, got %d (found=%v)", name, i, p, ok)
		}
	}

	if _, ok := layout.Position("B08"); ok {
		t.Errorf("Expected B08 to be absent from layout")
	}
}

// TestNewLayoutRejectsBadNames checks duplicate and empty band names
func TestNewLayoutRejectsBadNames(t *testing.T) {
	cases := map[string][]string{
		"empty list": {},
		"duplicate":  {"B02", "B02"},
		"blank name": {"B02", " "},
	}

	for name, names := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := NewLayout(names...); err == nil {
				t.Errorf("Expected error for %v", names)
			}
		})
	}
}

// TestVector verifies length validation and lookup by name
func TestVector(t *testing.T) {
	layout, _ := NewLayout("B04", "B08")

	if _, err := layout.Vector([]float64{0.1}); err == nil {
		t.Errorf("Expected length mismatch error")
	}

	v, err := layout.Vector([]float64{0.2, 0.6})
	if err != nil {
		t.Fatalf("Failed to build vector: %v", err)
	}

	nir, ok := v.Get("B08")
	if !ok || nir != 0.6 {
		t.Errorf("Expected B08=0.6, got %f (found=%v)", nir, ok)
	}

	if _, err := layout.VectorOf(map[string]float64{"B04": 0.2}); err == nil {
		t.Errorf("Expected missing band error")
	}
}

// TestResolveBinding checks role to position resolution
func TestResolveBinding(t *testing.T) {
	layout, _ := NewLayout("B04", "B08")
	pos := layout.Resolve(DefaultBinding())

	if pos[Red] != 0 {
		t.Errorf("Expected red at 0, got %d", pos[Red])
	}
	if pos[NIR] != 1 {
		t.Errorf("Expected nir at 1, got %d", pos[NIR])
	}
	if pos[SWIR1] != -1 {
		t.Errorf("Expected swir1 unresolved, got %d", pos[SWIR1])
	}
}

// TestBindingOverrides verifies role overrides by name
func TestBindingOverrides(t *testing.T) {
	b, err := DefaultBinding().WithOverrides(map[string]string{"nir": "B8A"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if b[NIR] != "B8A" {
		t.Errorf("Expected nir bound to B8A, got %s", b[NIR])
	}
	if DefaultBinding()[NIR] != "B08" {
		t.Errorf("Override leaked into the default binding")
	}

	if _, err := DefaultBinding().WithOverrides(map[string]string{"thermal": "B10"}); err == nil {
		t.Errorf("Expected unknown role error")
	}
}

// TestCatalog checks lookups and wavelength ordering
func TestCatalog(t *testing.T) {
	b, ok := Lookup("b8a")
	if !ok {
		t.Fatalf("Expected B8A in catalog")
	}
	if b.Resolution != 20 {
		t.Errorf("Expected B8A resolution 20, got %d", b.Resolution)
	}

	all := Catalog()
	for i := 1; i < len(all); i++ {
		if all[i].Wavelength < all[i-1].Wavelength {
			t.Errorf("Catalog not sorted at %s", all[i].Name)
		}
	}
}
