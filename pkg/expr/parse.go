package expr

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
	"strings"
)

// Scope resolves identifiers while an expression is compiled.
type Scope interface {
	Resolve(name string) (Node, error)
}

// ScopeFunc adapts a function to the Scope interface.
type ScopeFunc func(name string) (Node, error)

func (f ScopeFunc) Resolve(name string) (Node, error) { return f(name) }

// Chain tries each scope in order and returns the first successful resolution.
// When every scope fails, the error of the last one is kept as the cause.
func Chain(scopes ...Scope) Scope {
	return ScopeFunc(func(name string) (Node, error) {
		var last error
		for _, s := range scopes {
			if s == nil {
				continue
			}
			n, err := s.Resolve(name)
			if err == nil {
				return n, nil
			}
			last = err
		}
		if last == nil {
			return nil, fmt.Errorf("unknown identifier %q", name)
		}
		return nil, fmt.Errorf("unknown identifier %q: %w", name, last)
	})
}

// Constants resolves identifiers from a fixed name -> value table.
type Constants map[string]float64

func (c Constants) Resolve(name string) (Node, error) {
	if v, ok := c[name]; ok {
		return Literal{Value: v}, nil
	}
	return nil, fmt.Errorf("unknown constant %q", name)
}

// ParseNumeric compiles an arithmetic expression such as
// "(B08 - B04) / (B08 + B04)".
func ParseNumeric(src string, scope Scope) (Node, error) {
	e, err := parse(src)
	if err != nil {
		return nil, err
	}
	return (&compiler{scope: scope}).numeric(e)
}

// ParseCondition compiles a guard such as "water == 1 && fai > 0.08".
func ParseCondition(src string, scope Scope) (Cond, error) {
	e, err := parse(src)
	if err != nil {
		return nil, err
	}
	return (&compiler{scope: scope}).cond(e)
}

func parse(src string) (ast.Expr, error) {
	if strings.TrimSpace(src) == "" {
		return nil, fmt.Errorf("empty expression")
	}
	e, err := parser.ParseExpr(src)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", src, err)
	}
	return e, nil
}

type compiler struct {
	scope Scope
}

var arithmetic = map[token.Token]Op{
	token.ADD: Add,
	token.SUB: Sub,
	token.MUL: Mul,
	token.QUO: Div,
}

var comparisons = map[token.Token]CmpOp{
	token.LSS: Less,
	token.LEQ: LessEq,
	token.GTR: Greater,
	token.GEQ: GreaterEq,
	token.EQL: Equal,
	token.NEQ: NotEqual,
}

func (c *compiler) numeric(e ast.Expr) (Node, error) {
	switch e := e.(type) {
	case *ast.ParenExpr:
		return c.numeric(e.X)

	case *ast.BasicLit:
		if e.Kind != token.INT && e.Kind != token.FLOAT {
			return nil, fmt.Errorf("unsupported literal %s", e.Value)
		}
		v, err := strconv.ParseFloat(e.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %s: %w", e.Value, err)
		}
		return Literal{Value: v}, nil

	case *ast.Ident:
		if e.Name == "true" || e.Name == "false" {
			return nil, fmt.Errorf("boolean %s used where a number is expected", e.Name)
		}
		if c.scope == nil {
			return nil, fmt.Errorf("unknown identifier %q", e.Name)
		}
		return c.scope.Resolve(e.Name)

	case *ast.UnaryExpr:
		x, err := c.numeric(e.X)
		if err != nil {
			return nil, err
		}
		switch e.Op {
		case token.ADD:
			return x, nil
		case token.SUB:
			if lit, ok := x.(Literal); ok {
				return Literal{Value: -lit.Value}, nil
			}
			return Neg{X: x}, nil
		}
		return nil, fmt.Errorf("unsupported unary operator %s", e.Op)

	case *ast.BinaryExpr:
		op, ok := arithmetic[e.Op]
		if !ok {
			return nil, fmt.Errorf("operator %s yields a condition where a number is expected", e.Op)
		}
		l, err := c.numeric(e.X)
		if err != nil {
			return nil, err
		}
		r, err := c.numeric(e.Y)
		if err != nil {
			return nil, err
		}
		ll, lok := l.(Literal)
		rl, rok := r.(Literal)
		if lok && rok {
			return Literal{Value: op.apply(ll.Value, rl.Value)}, nil
		}
		return Binary{Op: op, L: l, R: r}, nil

	case *ast.CallExpr:
		id, ok := e.Fun.(*ast.Ident)
		if !ok {
			return nil, fmt.Errorf("unsupported call target")
		}
		f, ok := funcs[strings.ToLower(id.Name)]
		if !ok {
			return nil, fmt.Errorf("unknown function %s", id.Name)
		}
		if len(e.Args) != f.arity {
			return nil, fmt.Errorf("%s takes %d argument(s), got %d", id.Name, f.arity, len(e.Args))
		}
		args := make([]Node, len(e.Args))
		for i, a := range e.Args {
			n, err := c.numeric(a)
			if err != nil {
				return nil, err
			}
			args[i] = n
		}
		return Call{Func: f.fn, Args: args}, nil
	}
	return nil, fmt.Errorf("unsupported expression %T", e)
}

func (c *compiler) cond(e ast.Expr) (Cond, error) {
	switch e := e.(type) {
	case *ast.ParenExpr:
		return c.cond(e.X)

	case *ast.Ident:
		switch e.Name {
		case "true":
			return Constant{Value: true}, nil
		case "false":
			return Constant{Value: false}, nil
		}
		return nil, fmt.Errorf("%s is a number, not a condition", e.Name)

	case *ast.BinaryExpr:
		switch e.Op {
		case token.LAND, token.LOR:
			l, err := c.cond(e.X)
			if err != nil {
				return nil, err
			}
			r, err := c.cond(e.Y)
			if err != nil {
				return nil, err
			}
			if e.Op == token.LAND {
				return And{Terms: append(flattenAnd(l), flattenAnd(r)...)}, nil
			}
			return Or{Terms: append(flattenOr(l), flattenOr(r)...)}, nil
		}

		op, ok := comparisons[e.Op]
		if !ok {
			return nil, fmt.Errorf("operator %s yields a number where a condition is expected", e.Op)
		}
		l, err := c.numeric(e.X)
		if err != nil {
			return nil, err
		}
		r, err := c.numeric(e.Y)
		if err != nil {
			return nil, err
		}
		ll, lok := l.(Literal)
		rl, rok := r.(Literal)
		if lok && rok {
			return Constant{Value: op.compare(ll.Value, rl.Value)}, nil
		}
		return Comparison{Op: op, L: l, R: r}, nil
	}
	return nil, fmt.Errorf("expected a condition, got %T", e)
}

func flattenAnd(c Cond) []Cond {
	if a, ok := c.(And); ok {
		return a.Terms
	}
	return []Cond{c}
}

func flattenOr(c Cond) []Cond {
	if o, ok := c.(Or); ok {
		return o.Terms
	}
	return []Cond{c}
}
