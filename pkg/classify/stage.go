package classify

import (
	"spectralviz/internal/models"
)

// VarSetter is implemented by environments that hold stage variables.
type VarSetter interface {
	SetVar(slot int, v float64)
}

// Stage is a single-channel rule set whose result is stored in a variable
// that later stages and the final rule set can read. Stages run in order, so
// a later stage may refine a variable an earlier one produced.
type Stage struct {
	Var  string
	Slot int
	Tree *Tree
}

// NewStage checks that a stage's rules produce a scalar.
func NewStage(variable string, slot int, tree *Tree) (*Stage, error) {
	if tree.Channels() != 1 {
		return nil, models.ConfigErrorf(models.KindStage, variable,
			"stage rules must write one value, they write %d", tree.Channels())
	}
	return &Stage{Var: variable, Slot: slot, Tree: tree}, nil
}

// Env is the evaluation environment stages need.
type Env interface {
	Band(slot int) float64
	Index(slot int) float64
	Var(slot int) float64
	VarSetter
}

// Run evaluates the stage and stores its result. It returns the matching rule
// position and the stored value.
func (s *Stage) Run(env Env) (int, float64) {
	var out [1]float64
	i := s.Tree.Classify(env, out[:])
	env.SetVar(s.Slot, out[0])
	return i, out[0]
}
