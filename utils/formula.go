package utils

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
)

var (
	ErrDivisionByZero = errors.New("division by zero")
	ErrEmptyFormula   = errors.New("formula is empty")
)

// FormulaError reports a syntax or reference problem at a byte offset.
type FormulaError struct {
	Pos int
	Msg string
}

func (e *FormulaError) Error() string {
	return fmt.Sprintf("formula error at %d: %s", e.Pos, e.Msg)
}

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokEOF
)

type formulaToken struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func tokenize(expr string) ([]formulaToken, error) {
	var tokens []formulaToken
	i := 0
	for i < len(expr) {
		ch := expr[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
		case isDigit(ch) || ch == '.':
			start := i
			for i < len(expr) && (isDigit(expr[i]) || expr[i] == '.') {
				i++
			}
			n, err := strconv.ParseFloat(expr[start:i], 64)
			if err != nil {
				return nil, &FormulaError{Pos: start, Msg: fmt.Sprintf("invalid number %q", expr[start:i])}
			}
			tokens = append(tokens, formulaToken{kind: tokNumber, text: expr[start:i], num: n, pos: start})
		case isIdentStart(ch):
			start := i
			for i < len(expr) && (isIdentStart(expr[i]) || isDigit(expr[i])) {
				i++
			}
			tokens = append(tokens, formulaToken{kind: tokIdent, text: expr[start:i], pos: start})
		case ch == '+' || ch == '-' || ch == '*' || ch == '/':
			tokens = append(tokens, formulaToken{kind: tokOp, text: string(ch), pos: i})
			i++
		case ch == '(':
			tokens = append(tokens, formulaToken{kind: tokLParen, text: "(", pos: i})
			i++
		case ch == ')':
			tokens = append(tokens, formulaToken{kind: tokRParen, text: ")", pos: i})
			i++
		default:
			return nil, &FormulaError{Pos: i, Msg: fmt.Sprintf("unexpected character %q", ch)}
		}
	}
	tokens = append(tokens, formulaToken{kind: tokEOF, pos: len(expr)})
	return tokens, nil
}

type formulaParser struct {
	tokens []formulaToken
	pos    int
	vars   map[string]float64
	// seen collects identifiers when vars is nil.
	seen map[string]struct{}
}

func (p *formulaParser) peek() formulaToken {
	return p.tokens[p.pos]
}

func (p *formulaParser) next() formulaToken {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *formulaParser) parseExpr() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.text != "+" && t.text != "-") {
			return left, nil
		}
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return 0, err
		}
		if t.text == "+" {
			left += right
		} else {
			left -= right
		}
	}
}

func (p *formulaParser) parseTerm() (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.text != "*" && t.text != "/") {
			return left, nil
		}
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		if t.text == "*" {
			left *= right
			continue
		}
		if right == 0 && p.vars != nil {
			return 0, ErrDivisionByZero
		}
		if right != 0 {
			left /= right
		}
	}
}

func (p *formulaParser) parseUnary() (float64, error) {
	t := p.peek()
	if t.kind == tokOp && (t.text == "-" || t.text == "+") {
		p.next()
		v, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		if t.text == "-" {
			return -v, nil
		}
		return v, nil
	}
	return p.parsePrimary()
}

func (p *formulaParser) parsePrimary() (float64, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return t.num, nil
	case tokIdent:
		if p.vars == nil {
			p.seen[t.text] = struct{}{}
			return 1, nil
		}
		v, ok := p.vars[t.text]
		if !ok {
			return 0, &FormulaError{Pos: t.pos, Msg: fmt.Sprintf("unknown field %q", t.text)}
		}
		return v, nil
	case tokLParen:
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return 0, &FormulaError{Pos: closing.pos, Msg: "expected )"}
		}
		return v, nil
	case tokEOF:
		return 0, &FormulaError{Pos: t.pos, Msg: "unexpected end of formula"}
	default:
		return 0, &FormulaError{Pos: t.pos, Msg: fmt.Sprintf("unexpected %q", t.text)}
	}
}

func parseFormula(expr string, vars map[string]float64, seen map[string]struct{}) (float64, error) {
	tokens, err := tokenize(expr)
	if err != nil {
		return 0, err
	}
	if len(tokens) == 1 {
		return 0, ErrEmptyFormula
	}
	p := &formulaParser{tokens: tokens, vars: vars, seen: seen}
	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return 0, &FormulaError{Pos: t.pos, Msg: fmt.Sprintf("unexpected %q", t.text)}
	}
	return v, nil
}

// EvaluateFormula computes an arithmetic expression over named fields.
func EvaluateFormula(expr string, vars map[string]float64) (float64, error) {
	if vars == nil {
		vars = map[string]float64{}
	}
	return parseFormula(expr, vars, nil)
}

// FormulaFields lists the identifiers referenced by expr, sorted.
func FormulaFields(expr string) ([]string, error) {
	seen := map[string]struct{}{}
	if _, err := parseFormula(expr, nil, seen); err != nil {
		return nil, err
	}
	fields := make([]string, 0, len(seen))
	for name := range seen {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return fields, nil
}
