package algorithm

import (
	"fmt"

	"spectralviz/internal/models"
	"spectralviz/pkg/index"
)

// Evaluator holds the per-pixel scratch state of one worker. It must not be
// shared between goroutines; create one per worker with NewEvaluator.
type Evaluator struct {
	alg   *Algorithm
	frame *index.Frame
}

// NewEvaluator allocates evaluation state for one worker.
func (a *Algorithm) NewEvaluator() *Evaluator {
	return &Evaluator{alg: a, frame: a.set.NewFrame(len(a.vars))}
}

// Evaluate runs the stages and output rules for one band vector in layout
// order, writes the scaled output into dst and returns the position of the
// output rule that matched. dst must hold Channels() values. Evaluate never
// fails: undefined index values simply fail every guard they appear in.
func (e *Evaluator) Evaluate(values, dst []float64) int {
	e.frame.Load(values)
	for _, s := range e.alg.stages {
		s.Run(e.frame)
	}
	rule := e.alg.tree.Classify(e.frame, dst)
	e.alg.scaler.ScaleAll(dst)
	return rule
}

// Evaluate computes the output pixel for named band samples. Missing bands are
// reported as an error; extra samples are ignored.
func (a *Algorithm) Evaluate(samples map[string]float64) (models.Pixel, error) {
	v, err := a.layout.VectorOf(samples)
	if err != nil {
		return nil, fmt.Errorf("algorithm %s: %w", a.Name(), err)
	}
	out := make(models.Pixel, a.Channels())
	a.NewEvaluator().Evaluate(v.Values(), out)
	return out, nil
}

// NamedValue is one labelled number in an Explanation.
type NamedValue struct {
	Name  string
	Value float64

	// Computed is false for indices the rules never needed for this pixel
	Computed bool
}

// StageStep records what one refinement stage decided.
type StageStep struct {
	Var   string
	Rule  string
	Value float64
}

// Explanation is a full trace of one pixel evaluation.
type Explanation struct {
	Algorithm string
	Bands     []NamedValue
	Indices   []NamedValue
	Stages    []StageStep
	Rule      string
	Raw       []float64
	Scaled    []float64
}

// Explain evaluates one pixel and reports every intermediate value. Indices
// the rules did not need are still computed for display but flagged as not
// Computed.
func (a *Algorithm) Explain(samples map[string]float64) (*Explanation, error) {
	v, err := a.layout.VectorOf(samples)
	if err != nil {
		return nil, fmt.Errorf("algorithm %s: %w", a.Name(), err)
	}

	frame := a.set.NewFrame(len(a.vars))
	frame.Load(v.Values())

	ex := &Explanation{Algorithm: a.Name()}
	for i, name := range a.layout.Names() {
		ex.Bands = append(ex.Bands, NamedValue{Name: name, Value: v.Values()[i], Computed: true})
	}

	for _, s := range a.stages {
		i, val := s.Run(frame)
		ex.Stages = append(ex.Stages, StageStep{Var: s.Var, Rule: s.Tree.Rules()[i].Name, Value: val})
	}

	ex.Raw = make([]float64, a.Channels())
	rule := a.tree.Classify(frame, ex.Raw)
	ex.Rule = a.tree.Rules()[rule].Name

	ex.Scaled = append([]float64(nil), ex.Raw...)
	a.scaler.ScaleAll(ex.Scaled)

	computed := make([]bool, a.set.Len())
	for i := range computed {
		computed[i] = frame.Computed(i)
	}
	for i, name := range a.set.Names() {
		ex.Indices = append(ex.Indices, NamedValue{Name: name, Value: frame.Index(i), Computed: computed[i]})
	}
	return ex, nil
}
