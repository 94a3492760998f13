// Package algorithm turns declarative definitions into executable band-math
// algorithms: a band layout, the indices it derives, optional refinement
// stages, an output rule list and a range scaler.
package algorithm

import (
	"fmt"
	"strings"

	"spectralviz/internal/models"
	"spectralviz/pkg/bands"
	"spectralviz/pkg/classify"
	"spectralviz/pkg/expr"
	"spectralviz/pkg/index"
	"spectralviz/pkg/scale"
)

// Default ranges applied when a definition leaves them out.
var (
	DefaultInputRange  = scale.Range{Min: 0, Max: 1}
	DefaultOutputRange = scale.Range{Min: 0, Max: 255}
)

// Algorithm is a compiled, immutable definition. It is safe for concurrent
// use; per-goroutine state lives in an Evaluator.
type Algorithm struct {
	def     Definition
	layout  *bands.Layout
	binding bands.Binding
	set     *index.Set
	vars    []string
	stages  []*classify.Stage
	tree    *classify.Tree
	scaler  *scale.Scaler
}

// Compile validates a definition and builds the algorithm. Every failure is
// a ConfigurationError carrying the algorithm name and the offending rule,
// formula, band or stage.
func Compile(def Definition) (*Algorithm, error) {
	a, err := compile(def)
	if err != nil {
		return nil, models.WithAlgorithm(err, def.Name)
	}
	return a, nil
}

func compile(def Definition) (*Algorithm, error) {
	if strings.TrimSpace(def.Name) == "" {
		return nil, models.ConfigErrorf(models.KindDefinition, "", "algorithm has no name")
	}

	layout, err := bands.NewLayout(def.Bands...)
	if err != nil {
		return nil, &models.ConfigurationError{Kind: models.KindBand, Err: err}
	}

	binding, err := bands.DefaultBinding().WithOverrides(def.Binding)
	if err != nil {
		return nil, &models.ConfigurationError{Kind: models.KindBinding, Err: err}
	}

	a := &Algorithm{def: def, layout: layout, binding: binding}

	params := expr.Constants(def.Params)
	for name := range def.Params {
		if _, clash := layout.Position(name); clash {
			return nil, models.ConfigErrorf(models.KindDefinition, name, "parameter name shadows a band")
		}
	}

	custom := make([]index.Custom, len(def.Formulas))
	for i, f := range def.Formulas {
		custom[i] = index.Custom{Name: f.Name, Expr: f.Expr}
	}
	a.set, err = index.NewSet(layout, binding, def.Indices, custom, params)
	if err != nil {
		return nil, err
	}
	// Parameters resolve before indices, so a clash would silently replace
	// the index with a constant
	for name := range def.Params {
		if _, clash := a.set.Slot(name); clash {
			return nil, models.ConfigErrorf(models.KindDefinition, name, "parameter name shadows an index")
		}
	}

	// Stage variables become visible to later stages and to the output rules
	varSlots := make(map[string]int)
	varScope := expr.ScopeFunc(func(name string) (expr.Node, error) {
		if slot, ok := varSlots[name]; ok {
			return expr.VarRef{Name: name, Slot: slot}, nil
		}
		return nil, fmt.Errorf("undeclared variable %q", name)
	})
	scope := expr.Chain(params, varScope, a.set.Scope(), index.BandScope(layout))

	for i, sd := range def.Stages {
		name := strings.TrimSpace(sd.Var)
		if name == "" {
			return nil, models.ConfigErrorf(models.KindStage, fmt.Sprintf("stage-%d", i), "stage has no variable")
		}
		if _, ok := a.set.Slot(name); ok {
			return nil, models.ConfigErrorf(models.KindStage, name, "variable name shadows an index")
		}
		if _, ok := layout.Position(name); ok {
			return nil, models.ConfigErrorf(models.KindStage, name, "variable name shadows a band")
		}
		if _, ok := def.Params[name]; ok {
			return nil, models.ConfigErrorf(models.KindStage, name, "variable name shadows a parameter")
		}
		slot, seen := varSlots[name]
		if !seen {
			slot = len(a.vars)
			varSlots[name] = slot
			a.vars = append(a.vars, name)
		}

		rules, err := compileRules(sd.Rules, scope)
		if err != nil {
			return nil, err
		}
		tree, err := classify.Compile(name, rules)
		if err != nil {
			return nil, err
		}
		stage, err := classify.NewStage(name, slot, tree)
		if err != nil {
			return nil, err
		}
		a.stages = append(a.stages, stage)
	}

	rules, err := compileRules(def.Rules, scope)
	if err != nil {
		return nil, err
	}
	a.tree, err = classify.Compile(def.Name, rules)
	if err != nil {
		return nil, err
	}

	in, err := parseRange("inputRange", def.InputRange, DefaultInputRange)
	if err != nil {
		return nil, err
	}
	out, err := parseRange("outputRange", def.OutputRange, DefaultOutputRange)
	if err != nil {
		return nil, err
	}
	a.scaler, err = scale.New(in, out)
	if err != nil {
		return nil, err
	}

	return a, nil
}

func parseRange(field string, v []float64, fallback scale.Range) (scale.Range, error) {
	switch len(v) {
	case 0:
		return fallback, nil
	case 2:
		return scale.Range{Min: v[0], Max: v[1]}, nil
	}
	return scale.Range{}, models.ConfigErrorf(models.KindScale, field, "expected [min, max], got %v", v)
}

func compileRules(defs []RuleDef, scope expr.Scope) ([]classify.Rule, error) {
	rules := make([]classify.Rule, len(defs))
	for i, rd := range defs {
		name := rd.Name
		if name == "" {
			name = fmt.Sprintf("rule-%d", i)
		}
		r := classify.Rule{Name: name}

		if strings.TrimSpace(rd.When) != "" {
			cond, err := expr.ParseCondition(rd.When, scope)
			if err != nil {
				return nil, &models.ConfigurationError{Kind: models.KindRule, Name: name, Err: err}
			}
			r.When = cond
		}

		then, err := compileOutput(rd.OutputDef, scope)
		if err != nil {
			return nil, &models.ConfigurationError{Kind: models.KindRule, Name: name, Err: err}
		}
		r.Then = then
		rules[i] = r
	}
	return rules, nil
}

func compileOutput(od OutputDef, scope expr.Scope) (classify.Assignment, error) {
	forms := 0
	for _, set := range []bool{od.Color != nil, od.RGB255 != nil, od.Channels != nil, od.Value != "", od.Ladder != nil} {
		if set {
			forms++
		}
	}
	if forms != 1 {
		return nil, fmt.Errorf("rule must set exactly one of color, rgb255, channels, value or ladder (found %d)", forms)
	}

	switch {
	case od.Color != nil:
		return classify.Constant{Values: append([]float64(nil), od.Color...)}, nil

	case od.RGB255 != nil:
		v := make([]float64, len(od.RGB255))
		for i, c := range od.RGB255 {
			v[i] = c / 255
		}
		return classify.Constant{Values: v}, nil

	case od.Channels != nil:
		nodes := make([]expr.Node, len(od.Channels))
		for i, src := range od.Channels {
			n, err := expr.ParseNumeric(src, scope)
			if err != nil {
				return nil, fmt.Errorf("channel %d: %w", i, err)
			}
			nodes[i] = n
		}
		return constantOrDerived(nodes), nil

	case od.Value != "":
		n, err := expr.ParseNumeric(od.Value, scope)
		if err != nil {
			return nil, err
		}
		return constantOrDerived([]expr.Node{n}), nil
	}

	ld := od.Ladder
	value, err := expr.ParseNumeric(ld.Value, scope)
	if err != nil {
		return nil, fmt.Errorf("ladder value: %w", err)
	}
	steps := make([]classify.Step, len(ld.Steps))
	for i, sd := range ld.Steps {
		then, err := compileOutput(sd.OutputDef, scope)
		if err != nil {
			return nil, fmt.Errorf("ladder step below %g: %w", sd.Below, err)
		}
		steps[i] = classify.Step{Below: sd.Below, Then: then}
	}
	otherwise, err := compileOutput(ld.Else, scope)
	if err != nil {
		return nil, fmt.Errorf("ladder catch-all: %w", err)
	}
	return classify.NewLadder(value, steps, otherwise)
}

// constantOrDerived collapses expressions that folded to literals.
func constantOrDerived(nodes []expr.Node) classify.Assignment {
	values := make([]float64, len(nodes))
	for i, n := range nodes {
		lit, ok := n.(expr.Literal)
		if !ok {
			return classify.Derived{Exprs: nodes}
		}
		values[i] = lit.Value
	}
	return classify.Constant{Values: values}
}

// Name returns the algorithm name.
func (a *Algorithm) Name() string { return a.def.Name }

// Title returns the display title, falling back to the name.
func (a *Algorithm) Title() string {
	if a.def.Title != "" {
		return a.def.Title
	}
	return a.def.Name
}

// Description returns the free-form description.
func (a *Algorithm) Description() string { return a.def.Description }

// Definition returns the source definition.
func (a *Algorithm) Definition() Definition { return a.def }

// Layout returns the band layout input vectors must follow.
func (a *Algorithm) Layout() *bands.Layout { return a.layout }

// Bands returns the band names in layout order.
func (a *Algorithm) Bands() []string { return a.layout.Names() }

// Binding returns the role binding used by built-in formulas.
func (a *Algorithm) Binding() bands.Binding { return a.binding }

// Indices returns the compiled index set.
func (a *Algorithm) Indices() *index.Set { return a.set }

// Vars returns the stage variable names.
func (a *Algorithm) Vars() []string { return a.vars }

// Stages returns the refinement stages in execution order.
func (a *Algorithm) Stages() []*classify.Stage { return a.stages }

// Rules returns the output rule tree.
func (a *Algorithm) Rules() *classify.Tree { return a.tree }

// Scaler returns the output range scaler.
func (a *Algorithm) Scaler() *scale.Scaler { return a.scaler }

// Channels returns the output vector length.
func (a *Algorithm) Channels() int { return a.tree.Channels() }

// Visible reports whether the layer is shown by default.
func (a *Algorithm) Visible() bool { return a.def.IsVisible() }
