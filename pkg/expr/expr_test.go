package expr

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
)

// testEnv serves fixed slot values
type testEnv struct {
	bands   []float64
	indices []float64
	vars    []float64
}

func (e *testEnv) Band(i int) float64  { return e.bands[i] }
func (e *testEnv) Index(i int) float64 { return e.indices[i] }
func (e *testEnv) Var(i int) float64   { return e.vars[i] }

// testScope resolves B04/B08 to bands, ndvi to an index and water to a variable
func testScope() Scope {
	return ScopeFunc(func(name string) (Node, error) {
		switch name {
		case "B04":
			return BandRef{Name: name, Slot: 0}, nil
		case "B08":
			return BandRef{Name: name, Slot: 1}, nil
		case "ndvi":
			return IndexRef{Name: name, Slot: 0}, nil
		case "water":
			return VarRef{Name: name, Slot: 0}, nil
		}
		return nil, fmt.Errorf("unknown identifier %q", name)
	})
}

// TestParseNumeric evaluates arithmetic expressions against a fixed pixel
func TestParseNumeric(t *testing.T) {
	env := &testEnv{bands: []float64{0.2, 0.6}, indices: []float64{0.5}, vars: []float64{1}}

	cases := []struct {
		src  string
		want float64
	}{
		{"(B08 - B04) / (B08 + B04)", 0.5},
		{"B04 * 3", 0.6000000000000001},
		{"-B04 + 1", 0.8},
		{"abs(B04 - B08)", 0.39999999999999997},
		{"pow(ndvi, 3)", 0.125},
		{"max(B04, B08) - min(B04, B08)", 0.39999999999999997},
		{"sqrt(4)", 2},
		{"water * 2", 2},
	}

	for _, tc := range cases {
		n, err := ParseNumeric(tc.src, testScope())
		if err != nil {
			t.Fatalf("Failed to parse %q: %v", tc.src, err)
		}
		if got := n.Eval(env); math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("%q: expected %v, got %v", tc.src, tc.want, got)
		}
	}
}

// TestConstantFolding checks that literal-only sub-expressions collapse
func TestConstantFolding(t *testing.T) {
	n, err := ParseNumeric("(832.8 - 664.6) / (1613.7 - 664.6)", nil)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	lit, ok := n.(Literal)
	if !ok {
		t.Fatalf("Expected a folded literal, got %T", n)
	}
	// Folding runs in float64, not exact constant arithmetic
	red, nir, swir1 := 664.6, 832.8, 1613.7
	want := (nir - red) / (swir1 - red)
	if lit.Value != want {
		t.Errorf("Expected %v, got %v", want, lit.Value)
	}
}

// TestDivisionByZeroIsUndefined verifies the zero-denominator policy
func TestDivisionByZeroIsUndefined(t *testing.T) {
	env := &testEnv{bands: []float64{0, 0}}
	n, _ := ParseNumeric("(B08 - B04) / (B08 + B04)", testScope())

	if v := n.Eval(env); !IsUndefined(v) {
		t.Errorf("Expected undefined, got %v", v)
	}
}

// TestUndefinedComparisonsAreFalse checks every comparison operator against NaN
func TestUndefinedComparisonsAreFalse(t *testing.T) {
	env := &testEnv{indices: []float64{Undefined()}}

	for _, src := range []string{"ndvi > 0", "ndvi < 0", "ndvi >= 0", "ndvi <= 0", "ndvi == 0", "ndvi != 0", "0 < ndvi"} {
		c, err := ParseCondition(src, testScope())
		if err != nil {
			t.Fatalf("Failed to parse %q: %v", src, err)
		}
		if c.Test(env) {
			t.Errorf("%q matched an undefined value", src)
		}
	}
}

// TestParseCondition exercises conjunctions and disjunctions
func TestParseCondition(t *testing.T) {
	env := &testEnv{bands: []float64{0.2, 0.6}, indices: []float64{0.5}, vars: []float64{1}}

	cases := []struct {
		src  string
		want bool
	}{
		{"water == 1 && ndvi > 0.4", true},
		{"water == 1 && ndvi > 0.6", false},
		{"water == 0 || ndvi > 0.4", true},
		{"(water == 0 || B04 > 0.5) && ndvi > 0", false},
		{"true", true},
		{"1 < 2", true},
		{"false || B08 >= 0.6", true},
	}

	for _, tc := range cases {
		c, err := ParseCondition(tc.src, testScope())
		if err != nil {
			t.Fatalf("Failed to parse %q: %v", tc.src, err)
		}
		if got := c.Test(env); got != tc.want {
			t.Errorf("%q: expected %v, got %v", tc.src, tc.want, got)
		}
	}
}

// TestFlattening verifies nested conjunctions become one And
func TestFlattening(t *testing.T) {
	c, err := ParseCondition("B04 > 0 && B08 > 0 && ndvi > 0", testScope())
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	and, ok := c.(And)
	if !ok {
		t.Fatalf("Expected And, got %T", c)
	}
	if len(and.Terms) != 3 {
		t.Errorf("Expected 3 terms, got %d", len(and.Terms))
	}
}

// TestParseErrors checks malformed and mistyped expressions
func TestParseErrors(t *testing.T) {
	numeric := []string{"", "B04 >", "unknown + 1", "B04 > 1", "pow(B04)", "foo(B04)", "\"text\"", "true"}
	for _, src := range numeric {
		if _, err := ParseNumeric(src, testScope()); err == nil {
			t.Errorf("Expected numeric parse error for %q", src)
		}
	}

	conds := []string{"B04", "B04 + 1", "!water", "ndvi > missing"}
	for _, src := range conds {
		if _, err := ParseCondition(src, testScope()); err == nil {
			t.Errorf("Expected condition parse error for %q", src)
		}
	}
}

// TestChainAndConstants checks scope chaining order
func TestChainAndConstants(t *testing.T) {
	scope := Chain(Constants{"threshold": 0.42}, testScope())

	c, err := ParseCondition("ndvi > threshold", scope)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	cmp, ok := c.(Comparison)
	if !ok {
		t.Fatalf("Expected Comparison, got %T", c)
	}
	if lit, ok := cmp.R.(Literal); !ok || lit.Value != 0.42 {
		t.Errorf("Expected threshold folded to 0.42, got %v", cmp.R)
	}

	if _, err := scope.Resolve("nothing"); err == nil {
		t.Errorf("Expected unresolved identifier error")
	}
}

// TestChainKeepsCause reports why the last scope failed
func TestChainKeepsCause(t *testing.T) {
	cause := errors.New(`band "B99" is not among [B04 B08]`)
	bandsOnly := ScopeFunc(func(name string) (Node, error) { return nil, cause })
	scope := Chain(Constants{"threshold": 0.42}, nil, bandsOnly)

	_, err := ParseNumeric("B99 * 2", scope)
	if err == nil {
		t.Fatalf("Expected unresolved identifier error")
	}
	if !errors.Is(err, cause) {
		t.Errorf("Expected cause in error chain, got %v", err)
	}
	if msg := err.Error(); !strings.Contains(msg, `unknown identifier "B99"`) || !strings.Contains(msg, "is not among") {
		t.Errorf("Unexpected message %q", msg)
	}

	if _, err := Chain(nil).Resolve("x"); err == nil {
		t.Errorf("Expected error from an empty chain")
	}
}

// TestIsAlways covers default guard detection
func TestIsAlways(t *testing.T) {
	if !IsAlways(nil) || !IsAlways(Constant{Value: true}) {
		t.Errorf("Expected nil and true to be unconditional")
	}
	if IsAlways(Constant{Value: false}) {
		t.Errorf("Expected false not to be unconditional")
	}
}
