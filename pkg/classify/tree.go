package classify

import (
	"fmt"

	"spectralviz/internal/models"
	"spectralviz/pkg/expr"
)

// Rule is one guarded branch. A nil When is an unconditional default.
type Rule struct {
	Name string
	When expr.Cond
	Then Assignment
}

// Tree is a validated, ordered rule list.
type Tree struct {
	name     string
	rules    []Rule
	channels int
}

// Compile validates a rule list. It fails with a ConfigurationError when the
// list is empty, does not end in an unconditional default, has rules that can
// never be reached, or mixes channel counts.
func Compile(name string, rules []Rule) (*Tree, error) {
	if len(rules) == 0 {
		return nil, models.ConfigErrorf(models.KindRule, name, "rule set is empty")
	}

	last := rules[len(rules)-1]
	if !expr.IsAlways(last.When) {
		return nil, models.ConfigErrorf(models.KindRule, ruleName(last, len(rules)-1),
			"rule set %s does not end with an unconditional default", name)
	}

	channels := -1
	for i, r := range rules {
		if r.Then == nil {
			return nil, models.ConfigErrorf(models.KindRule, ruleName(r, i), "rule has no assignment")
		}
		if channels < 0 {
			channels = r.Then.Channels()
		} else if r.Then.Channels() != channels {
			return nil, models.ConfigErrorf(models.KindRule, ruleName(r, i),
				"writes %d channels, earlier rules write %d", r.Then.Channels(), channels)
		}
		if i < len(rules)-1 && expr.IsAlways(r.When) {
			return nil, models.ConfigErrorf(models.KindRule, ruleName(r, i),
				"unconditional rule makes the %d rule(s) after it unreachable", len(rules)-1-i)
		}
	}
	if channels <= 0 {
		return nil, models.ConfigErrorf(models.KindRule, name, "rules write no channels")
	}

	out := make([]Rule, len(rules))
	copy(out, rules)
	for i := range out {
		out[i].Name = ruleName(out[i], i)
	}
	return &Tree{name: name, rules: out, channels: channels}, nil
}

func ruleName(r Rule, i int) string {
	if r.Name != "" {
		return r.Name
	}
	return fmt.Sprintf("rule-%d", i)
}

// Name returns the rule set name.
func (t *Tree) Name() string { return t.name }

// Channels returns the output vector length.
func (t *Tree) Channels() int { return t.channels }

// Rules returns the compiled rules in evaluation order.
func (t *Tree) Rules() []Rule { return t.rules }

// Classify writes the output of the first matching rule into dst and returns
// that rule's position. Guards are tested strictly in order.
func (t *Tree) Classify(env expr.Env, dst []float64) int {
	last := len(t.rules) - 1
	for i := 0; i < last; i++ {
		if t.rules[i].When.Test(env) {
			t.rules[i].Then.Assign(env, dst)
			return i
		}
	}
	t.rules[last].Then.Assign(env, dst)
	return last
}

// Evaluate is Classify returning a freshly allocated pixel.
func (t *Tree) Evaluate(env expr.Env) (models.Pixel, string) {
	out := make(models.Pixel, t.channels)
	i := t.Classify(env, out)
	return out, t.rules[i].Name
}
