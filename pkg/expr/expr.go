// Package expr compiles guard expressions into predicates over the state
// record.
//
// The language is deliberately small: literals, state variables, comparisons
// and boolean connectives. There are no calls, no indexing and no
// assignment, so a guard string supplied by an end user can never reach
// ambient process capability. Evaluation only performs read-only lookups
// into the current state record.
//
// Grammar (precedence low to high):
//
//	expr       = or
//	or         = and { ("||" | "or") and }
//	and        = unary { ("&&" | "and") unary }
//	unary      = ("!" | "not") unary | comparison
//	comparison = primary [ ("==" | "!=" | "<" | "<=" | ">" | ">=") primary ]
//	primary    = number | string | "true" | "false" | "null" | ident | "(" expr ")"
//
// A variable that is absent from the state is an evaluation error, not
// false: the engine surfaces it as a guard fault instead of silently
// skipping the edge.
package expr

import (
	"fmt"

	"github.com/weftworks/weft/pkg/domain"
)

// Compile parses source and returns a predicate bound to it.
// Parse errors are construction-time errors; the returned predicate only
// fails at run time for evaluation faults (missing variable, type
// mismatch).
func Compile(source string) (domain.Predicate, error) {
	node, err := Parse(source)
	if err != nil {
		return nil, err
	}
	return func(state *domain.State) (bool, error) {
		v, err := node.eval(state)
		if err != nil {
			return false, err
		}
		b, ok := v.(bool)
		if !ok {
			return false, fmt.Errorf("guard %q evaluated to %T, want bool", source, v)
		}
		return b, nil
	}, nil
}

// Parse parses source into an AST without binding it to a state.
func Parse(source string) (ast, error) {
	toks, err := lex(source)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: toks, source: source}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.atEOF() {
		return nil, fmt.Errorf("unexpected %q in expression %q", p.peek().text, source)
	}
	return node, nil
}

// ast is a parsed expression node, evaluated against a read-only state.
type ast interface {
	eval(state *domain.State) (any, error)
}

type literal struct {
	value any
}

func (l literal) eval(*domain.State) (any, error) {
	return l.value, nil
}

type variable struct {
	name string
}

func (v variable) eval(state *domain.State) (any, error) {
	val, ok := state.Lookup(v.name)
	if !ok {
		return nil, fmt.Errorf("unknown variable %q", v.name)
	}
	return val, nil
}

type unaryNot struct {
	operand ast
}

func (u unaryNot) eval(state *domain.State) (any, error) {
	v, err := u.operand.eval(state)
	if err != nil {
		return nil, err
	}
	b, ok := v.(bool)
	if !ok {
		return nil, fmt.Errorf("operand of 'not' is %T, want bool", v)
	}
	return !b, nil
}

type logical struct {
	op          string // "and" | "or"
	left, right ast
}

func (l logical) eval(state *domain.State) (any, error) {
	lv, err := l.left.eval(state)
	if err != nil {
		return nil, err
	}
	lb, ok := lv.(bool)
	if !ok {
		return nil, fmt.Errorf("left operand of %q is %T, want bool", l.op, lv)
	}
	// Short-circuit. The right side is not evaluated when the outcome is
	// already decided, so it cannot fault either.
	if l.op == "and" && !lb {
		return false, nil
	}
	if l.op == "or" && lb {
		return true, nil
	}
	rv, err := l.right.eval(state)
	if err != nil {
		return nil, err
	}
	rb, ok := rv.(bool)
	if !ok {
		return nil, fmt.Errorf("right operand of %q is %T, want bool", l.op, rv)
	}
	return rb, nil
}

type comparison struct {
	op          string
	left, right ast
}

func (c comparison) eval(state *domain.State) (any, error) {
	lv, err := c.left.eval(state)
	if err != nil {
		return nil, err
	}
	rv, err := c.right.eval(state)
	if err != nil {
		return nil, err
	}
	switch c.op {
	case "==":
		return valuesEqual(lv, rv), nil
	case "!=":
		return !valuesEqual(lv, rv), nil
	}
	return compareOrdered(c.op, lv, rv)
}

// valuesEqual compares two scalar values, treating all numeric types as one.
func valuesEqual(a, b any) bool {
	if af, aok := toFloat(a); aok {
		bf, bok := toFloat(b)
		return bok && af == bf
	}
	return a == b
}

func compareOrdered(op string, a, b any) (any, error) {
	if af, aok := toFloat(a); aok {
		bf, bok := toFloat(b)
		if !bok {
			return nil, fmt.Errorf("cannot compare number with %T", b)
		}
		switch op {
		case "<":
			return af < bf, nil
		case "<=":
			return af <= bf, nil
		case ">":
			return af > bf, nil
		case ">=":
			return af >= bf, nil
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		switch op {
		case "<":
			return as < bs, nil
		case "<=":
			return as <= bs, nil
		case ">":
			return as > bs, nil
		case ">=":
			return as >= bs, nil
		}
	}
	return nil, fmt.Errorf("operator %q not defined for %T and %T", op, a, b)
}

// toFloat widens any supported numeric type to float64. State records
// decoded from JSON carry float64, but in-process functions may set native
// integer types.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
