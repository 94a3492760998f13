// Package expr implements the small arithmetic and guard language used by
// band formulas and classification rules.
//
// Expressions are compiled once against a Scope that resolves identifiers to
// band, index or variable slots. Evaluation then runs against an Env that
// serves those slots for the current pixel, without any map lookups or
// allocations.
//
// Undefined values are NaN. Division by an exact zero yields Undefined, and
// every comparison involving Undefined is false.
package expr

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Undefined returns the sentinel used for values that have no meaning, such
// as a normalized difference whose denominator is zero.
func Undefined() float64 { return math.NaN() }

// IsUndefined reports whether v is the Undefined sentinel.
func IsUndefined(v float64) bool { return math.IsNaN(v) }

// Env serves slot values while one pixel is evaluated.
type Env interface {
	Band(slot int) float64
	Index(slot int) float64
	Var(slot int) float64
}

// Node is a compiled numeric expression.
type Node interface {
	Eval(env Env) float64
	String() string
}

// Literal is a constant number.
type Literal struct {
	Value float64
}

func (n Literal) Eval(Env) float64 { return n.Value }

func (n Literal) String() string { return strconv.FormatFloat(n.Value, 'g', -1, 64) }

// BandRef reads a raw band sample.
type BandRef struct {
	Name string
	Slot int
}

func (n BandRef) Eval(env Env) float64 { return env.Band(n.Slot) }

func (n BandRef) String() string { return n.Name }

// IndexRef reads a derived index value.
type IndexRef struct {
	Name string
	Slot int
}

func (n IndexRef) Eval(env Env) float64 { return env.Index(n.Slot) }

func (n IndexRef) String() string { return n.Name }

// VarRef reads a variable written by an earlier classification stage.
type VarRef struct {
	Name string
	Slot int
}

func (n VarRef) Eval(env Env) float64 { return env.Var(n.Slot) }

func (n VarRef) String() string { return n.Name }

// Op is an arithmetic operator.
type Op int

const (
	Add Op = iota
	Sub
	Mul
	Div
)

var opSymbols = [...]string{Add: "+", Sub: "-", Mul: "*", Div: "/"}

func (o Op) String() string { return opSymbols[o] }

func (o Op) apply(l, r float64) float64 {
	switch o {
	case Add:
		return l + r
	case Sub:
		return l - r
	case Mul:
		return l * r
	default:
		if r == 0 {
			return Undefined()
		}
		return l / r
	}
}

// Binary applies an arithmetic operator to two operands.
type Binary struct {
	Op   Op
	L, R Node
}

func (n Binary) Eval(env Env) float64 { return n.Op.apply(n.L.Eval(env), n.R.Eval(env)) }

func (n Binary) String() string { return fmt.Sprintf("(%s %s %s)", n.L, n.Op, n.R) }

// Neg negates its operand.
type Neg struct {
	X Node
}

func (n Neg) Eval(env Env) float64 { return -n.X.Eval(env) }

func (n Neg) String() string { return "-" + n.X.String() }

// Func identifies a built-in function.
type Func int

const (
	Abs Func = iota
	Sqrt
	Pow
	Min
	Max
)

var funcs = map[string]struct {
	fn    Func
	arity int
}{
	"abs":  {Abs, 1},
	"sqrt": {Sqrt, 1},
	"pow":  {Pow, 2},
	"min":  {Min, 2},
	"max":  {Max, 2},
}

var funcNames = [...]string{Abs: "abs", Sqrt: "sqrt", Pow: "pow", Min: "min", Max: "max"}

// Call invokes a built-in function.
type Call struct {
	Func Func
	Args []Node
}

func (n Call) Eval(env Env) float64 {
	a := n.Args[0].Eval(env)
	switch n.Func {
	case Abs:
		return math.Abs(a)
	case Sqrt:
		if a < 0 {
			return Undefined()
		}
		return math.Sqrt(a)
	}

	b := n.Args[1].Eval(env)
	if IsUndefined(a) || IsUndefined(b) {
		return Undefined()
	}
	switch n.Func {
	case Pow:
		return math.Pow(a, b)
	case Min:
		return math.Min(a, b)
	default:
		return math.Max(a, b)
	}
}

func (n Call) String() string {
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", funcNames[n.Func], strings.Join(args, ", "))
}

// Cond is a compiled guard.
type Cond interface {
	Test(env Env) bool
	String() string
}

// CmpOp is a comparison operator.
type CmpOp int

const (
	Less CmpOp = iota
	LessEq
	Greater
	GreaterEq
	Equal
	NotEqual
)

var cmpSymbols = [...]string{Less: "<", LessEq: "<=", Greater: ">", GreaterEq: ">=", Equal: "==", NotEqual: "!="}

func (o CmpOp) String() string { return cmpSymbols[o] }

func (o CmpOp) compare(l, r float64) bool {
	// Undefined never satisfies a guard, including !=
	if IsUndefined(l) || IsUndefined(r) {
		return false
	}
	switch o {
	case Less:
		return l < r
	case LessEq:
		return l <= r
	case Greater:
		return l > r
	case GreaterEq:
		return l >= r
	case Equal:
		return l == r
	default:
		return l != r
	}
}

// Comparison compares two numeric expressions.
type Comparison struct {
	Op   CmpOp
	L, R Node
}

func (c Comparison) Test(env Env) bool { return c.Op.compare(c.L.Eval(env), c.R.Eval(env)) }

func (c Comparison) String() string { return fmt.Sprintf("%s %s %s", c.L, c.Op, c.R) }

// And is true when every term is true. Terms are evaluated left to right and
// evaluation stops at the first false term.
type And struct {
	Terms []Cond
}

func (c And) Test(env Env) bool {
	for _, t := range c.Terms {
		if !t.Test(env) {
			return false
		}
	}
	return true
}

func (c And) String() string { return joinConds(c.Terms, " && ") }

// Or is true when any term is true, stopping at the first true term.
type Or struct {
	Terms []Cond
}

func (c Or) Test(env Env) bool {
	for _, t := range c.Terms {
		if t.Test(env) {
			return true
		}
	}
	return false
}

func (c Or) String() string { return joinConds(c.Terms, " || ") }

// Constant is a guard with a fixed outcome.
type Constant struct {
	Value bool
}

func (c Constant) Test(Env) bool { return c.Value }

func (c Constant) String() string { return strconv.FormatBool(c.Value) }

// IsAlways reports whether a guard always matches. A nil guard counts as
// always matching.
func IsAlways(c Cond) bool {
	if c == nil {
		return true
	}
	k, ok := c.(Constant)
	return ok && k.Value
}

func joinConds(terms []Cond, sep string) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		s := t.String()
		switch t.(type) {
		case And, Or:
			s = "(" + s + ")"
		}
		parts[i] = s
	}
	return strings.Join(parts, sep)
}
