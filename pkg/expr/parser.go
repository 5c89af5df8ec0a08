package expr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokOperator
	tokParen
)

type token struct {
	kind tokenKind
	text string
}

// lex splits source into tokens. Operators are the fixed safe set; anything
// else is rejected here, before parsing.
func lex(source string) ([]token, error) {
	var toks []token
	runes := []rune(source)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(' || r == ')':
			toks = append(toks, token{tokParen, string(r)})
			i++
		case r == '\'' || r == '"':
			quote := r
			j := i + 1
			for j < len(runes) && runes[j] != quote {
				j++
			}
			if j >= len(runes) {
				return nil, fmt.Errorf("unterminated string in expression %q", source)
			}
			toks = append(toks, token{tokString, string(runes[i+1 : j])})
			i = j + 1
		case unicode.IsDigit(r) || (r == '-' && i+1 < len(runes) && unicode.IsDigit(runes[i+1])):
			j := i + 1
			for j < len(runes) && (unicode.IsDigit(runes[j]) || runes[j] == '.') {
				j++
			}
			toks = append(toks, token{tokNumber, string(runes[i:j])})
			i = j
		case unicode.IsLetter(r) || r == '_':
			j := i + 1
			for j < len(runes) && (unicode.IsLetter(runes[j]) || unicode.IsDigit(runes[j]) || runes[j] == '_') {
				j++
			}
			toks = append(toks, token{tokIdent, string(runes[i:j])})
			i = j
		default:
			// Multi-char operators first.
			rest := string(runes[i:])
			matched := ""
			for _, op := range []string{"==", "!=", "<=", ">=", "&&", "||", "<", ">", "!"} {
				if strings.HasPrefix(rest, op) {
					matched = op
					break
				}
			}
			if matched == "" {
				return nil, fmt.Errorf("unexpected character %q in expression %q", r, source)
			}
			toks = append(toks, token{tokOperator, matched})
			i += len(matched)
		}
	}
	toks = append(toks, token{tokEOF, ""})
	return toks, nil
}

type parser struct {
	tokens []token
	pos    int
	source string
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) atEOF() bool {
	return p.peek().kind == tokEOF
}

// accept consumes the next token if it matches one of the given spellings.
func (p *parser) accept(kind tokenKind, spellings ...string) (string, bool) {
	t := p.peek()
	if t.kind != kind {
		return "", false
	}
	for _, s := range spellings {
		if t.text == s {
			p.next()
			return s, true
		}
	}
	return "", false
}

func (p *parser) parseOr() (ast, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.accept(tokOperator, "||"); !ok {
			if _, ok := p.accept(tokIdent, "or"); !ok {
				return left, nil
			}
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = logical{op: "or", left: left, right: right}
	}
}

func (p *parser) parseAnd() (ast, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.accept(tokOperator, "&&"); !ok {
			if _, ok := p.accept(tokIdent, "and"); !ok {
				return left, nil
			}
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = logical{op: "and", left: left, right: right}
	}
}

func (p *parser) parseUnary() (ast, error) {
	if _, ok := p.accept(tokOperator, "!"); ok {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return unaryNot{operand: operand}, nil
	}
	if _, ok := p.accept(tokIdent, "not"); ok {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return unaryNot{operand: operand}, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (ast, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if op, ok := p.accept(tokOperator, "==", "!=", "<", "<=", ">", ">="); ok {
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return comparison{op: op, left: left, right: right}, nil
	}
	return left, nil
}

func (p *parser) parsePrimary() (ast, error) {
	t := p.peek()
	switch t.kind {
	case tokNumber:
		p.next()
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q in expression %q", t.text, p.source)
		}
		return literal{value: f}, nil
	case tokString:
		p.next()
		return literal{value: t.text}, nil
	case tokIdent:
		p.next()
		switch t.text {
		case "true":
			return literal{value: true}, nil
		case "false":
			return literal{value: false}, nil
		case "null", "nil":
			return literal{value: nil}, nil
		case "and", "or", "not":
			return nil, fmt.Errorf("unexpected keyword %q in expression %q", t.text, p.source)
		}
		return variable{name: t.text}, nil
	case tokParen:
		if t.text == "(" {
			p.next()
			inner, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			if _, ok := p.accept(tokParen, ")"); !ok {
				return nil, fmt.Errorf("missing closing parenthesis in expression %q", p.source)
			}
			return inner, nil
		}
	}
	return nil, fmt.Errorf("unexpected %q in expression %q", t.text, p.source)
}
