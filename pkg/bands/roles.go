package bands

import (
	"fmt"
	"strings"
)

// Role is the spectral function a band plays inside a formula. Formulas are
// written against roles so one formula can be bound to different bands.
type Role int

const (
	Blue Role = iota
	Green
	Red
	RedEdge1
	NIR
	NIR2
	SWIR1
	SWIR2

	// NumRoles is the number of defined roles
	NumRoles
)

var roleNames = [NumRoles]string{"blue", "green", "red", "rededge1", "nir", "nir2", "swir1", "swir2"}

func (r Role) String() string {
	if r < 0 || r >= NumRoles {
		return fmt.Sprintf("role(%d)", int(r))
	}
	return roleNames[r]
}

// ParseRole converts a role name to a Role.
func ParseRole(s string) (Role, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range roleNames {
		if n == s {
			return Role(i), nil
		}
	}
	return 0, fmt.Errorf("unknown spectral role %q", s)
}

// Binding maps each role to a band name.
type Binding [NumRoles]string

// DefaultBinding is the Sentinel-2 L2A assignment of bands to roles.
func DefaultBinding() Binding {
	return Binding{
		Blue:     "B02",
		Green:    "B03",
		Red:      "B04",
		RedEdge1: "B05",
		NIR:      "B08",
		NIR2:     "B8A",
		SWIR1:    "B11",
		SWIR2:    "B12",
	}
}

// WithOverrides returns a copy of b with roles replaced by the given
// role-name -> band-name pairs.
func (b Binding) WithOverrides(overrides map[string]string) (Binding, error) {
	out := b
	for name, band := range overrides {
		r, err := ParseRole(name)
		if err != nil {
			return out, err
		}
		if strings.TrimSpace(band) == "" {
			return out, fmt.Errorf("role %s bound to an empty band name", r)
		}
		out[r] = band
	}
	return out, nil
}
