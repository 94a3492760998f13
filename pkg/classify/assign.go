// Package classify interprets ordered rule lists that route each pixel to
// exactly one output assignment. Rules behave like an if / else-if chain:
// the first rule whose guard holds wins, and the last rule is always an
// unconditional default.
package classify

import (
	"fmt"
	"strings"

	"spectralviz/pkg/expr"
)

// Assignment writes a rule's output vector for the current pixel.
type Assignment interface {
	// Channels is the length of the written vector
	Channels() int

	// Assign writes Channels() values into dst
	Assign(env expr.Env, dst []float64)

	String() string
}

// Constant assigns a fixed vector, such as an RGB triplet in [0, 1].
type Constant struct {
	Values []float64
}

func (a Constant) Channels() int { return len(a.Values) }

func (a Constant) Assign(_ expr.Env, dst []float64) { copy(dst, a.Values) }

func (a Constant) String() string { return formatVector(a.Values) }

// Derived computes every channel from its own expression.
type Derived struct {
	Exprs []expr.Node
}

func (a Derived) Channels() int { return len(a.Exprs) }

func (a Derived) Assign(env expr.Env, dst []float64) {
	for i, e := range a.Exprs {
		dst[i] = e.Eval(env)
	}
}

func (a Derived) String() string {
	parts := make([]string, len(a.Exprs))
	for i, e := range a.Exprs {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Step is one rung of a threshold ladder: values strictly below Below take Then.
type Step struct {
	Below float64
	Then  Assignment
}

// Ladder maps a scalar through exclusive upper bounds, checked low to high.
// A value equal to a bound falls into the next rung. Values above every bound,
// and Undefined values, take Else.
type Ladder struct {
	Value expr.Node
	Steps []Step
	Else  Assignment
}

// NewLadder validates a ladder: bounds must be strictly increasing and every
// rung must write the same number of channels.
func NewLadder(value expr.Node, steps []Step, otherwise Assignment) (*Ladder, error) {
	if value == nil {
		return nil, fmt.Errorf("ladder has no value expression")
	}
	if otherwise == nil {
		return nil, fmt.Errorf("ladder has no catch-all assignment")
	}
	channels := otherwise.Channels()
	for i, s := range steps {
		if s.Then == nil {
			return nil, fmt.Errorf("ladder step %d has no assignment", i)
		}
		if s.Then.Channels() != channels {
			return nil, fmt.Errorf("ladder step %d writes %d channels, catch-all writes %d", i, s.Then.Channels(), channels)
		}
		if expr.IsUndefined(s.Below) {
			return nil, fmt.Errorf("ladder step %d has an undefined bound", i)
		}
		if i > 0 && s.Below <= steps[i-1].Below {
			return nil, fmt.Errorf("ladder bounds must increase: %v after %v", s.Below, steps[i-1].Below)
		}
	}
	return &Ladder{Value: value, Steps: steps, Else: otherwise}, nil
}

func (a *Ladder) Channels() int { return a.Else.Channels() }

func (a *Ladder) Assign(env expr.Env, dst []float64) {
	a.Select(a.Value.Eval(env)).Assign(env, dst)
}

// Select returns the assignment for value v.
func (a *Ladder) Select(v float64) Assignment {
	if !expr.IsUndefined(v) {
		for _, s := range a.Steps {
			if v < s.Below {
				return s.Then
			}
		}
	}
	return a.Else
}

func (a *Ladder) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ladder(%s:", a.Value)
	for _, s := range a.Steps {
		fmt.Fprintf(&b, " <%g %s", s.Below, s.Then)
	}
	fmt.Fprintf(&b, " else %s)", a.Else)
	return b.String()
}

func formatVector(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = fmt.Sprintf("%.4g", x)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
