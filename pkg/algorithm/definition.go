package algorithm

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Definition is the declarative form of an algorithm as written in YAML.
type Definition struct {
	Name        string `yaml:"name"`
	Title       string `yaml:"title,omitempty"`
	Description string `yaml:"description,omitempty"`

	// Bands is the ordered band layout every input vector must follow
	Bands []string `yaml:"bands"`

	// Binding overrides the default role -> band assignment for built-in formulas
	Binding map[string]string `yaml:"binding,omitempty"`

	// Params are named constants folded into every expression
	Params map[string]float64 `yaml:"params,omitempty"`

	// Indices lists the built-in formulas the algorithm uses
	Indices []string `yaml:"indices,omitempty"`

	// Formulas are custom indices written as expressions
	Formulas []FormulaDef `yaml:"formulas,omitempty"`

	// Stages run before the output rules, each one writing a variable
	Stages []StageDef `yaml:"stages,omitempty"`

	// Rules is the ordered output rule list; the last rule must be a default
	Rules []RuleDef `yaml:"rules"`

	InputRange  []float64 `yaml:"inputRange,omitempty"`
	OutputRange []float64 `yaml:"outputRange,omitempty"`

	// Visible defaults to true
	Visible *bool `yaml:"visible,omitempty"`
}

// FormulaDef is a custom index.
type FormulaDef struct {
	Name string `yaml:"name"`
	Expr string `yaml:"expr"`
}

// StageDef is a scalar rule list whose result is stored in Var.
type StageDef struct {
	Var   string    `yaml:"var"`
	Rules []RuleDef `yaml:"rules"`
}

// RuleDef is one guarded output. A rule without When is the default.
type RuleDef struct {
	Name      string `yaml:"name,omitempty"`
	When      string `yaml:"when,omitempty"`
	OutputDef `yaml:",inline"`
}

// OutputDef holds exactly one way of producing an output vector.
type OutputDef struct {
	// Color is a constant vector in the [0, 1] domain
	Color []float64 `yaml:"color,omitempty"`

	// RGB255 is a constant colour given in 0-255 components
	RGB255 []float64 `yaml:"rgb255,omitempty"`

	// Channels holds one expression per output channel
	Channels []string `yaml:"channels,omitempty"`

	// Value is a single scalar expression
	Value string `yaml:"value,omitempty"`

	Ladder *LadderDef `yaml:"ladder,omitempty"`
}

// LadderDef maps a scalar expression through exclusive upper bounds.
type LadderDef struct {
	Value string    `yaml:"value"`
	Steps []StepDef `yaml:"steps"`
	Else  OutputDef `yaml:"else"`
}

// StepDef is one ladder rung.
type StepDef struct {
	Below     float64 `yaml:"below"`
	OutputDef `yaml:",inline"`
}

// IsVisible reports the layer visibility, defaulting to true.
func (d *Definition) IsVisible() bool {
	return d.Visible == nil || *d.Visible
}

// Decode reads every YAML document in r as a Definition. Unknown keys are
// rejected so typos in rule files surface immediately.
func Decode(r io.Reader) ([]Definition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var defs []Definition
	for {
		var d Definition
		err := dec.Decode(&d)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error parsing definition %d: %w", len(defs)+1, err)
		}
		defs = append(defs, d)
	}
	return defs, nil
}

// LoadFile reads the algorithm definitions stored in a YAML file.
func LoadFile(path string) ([]Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening definitions file: %w", err)
	}
	defer f.Close()

	defs, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("%s: no algorithm definitions found", path)
	}
	return defs, nil
}

// Marshal renders a definition back to YAML.
func (d *Definition) Marshal() ([]byte, error) {
	return yaml.Marshal(d)
}
