/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package formula evaluates the small arithmetic grammar used by calculated
// fields: numeric literals, bare identifiers, + - * / ^, unary sign and
// parentheses. Evaluation is a pure function of the formula and its bindings.
package formula

import (
	"fmt"
	"math"
)

// Bindings maps identifiers to their numeric values.
type Bindings map[string]float64

// Expr is a parsed formula.
type Expr struct {
	src  string
	root node
}

type node interface {
	eval(b Bindings) (float64, error)
	collect(seen map[string]bool, out []string) []string
}

type numberNode float64

type identNode string

type unaryNode struct {
	op      string
	operand node
}

type binaryNode struct {
	op          string
	left, right node
}

// Parse compiles a formula. The returned error wraps ErrUnevaluable.
func Parse(src string) (*Expr, error) {
	tokens, err := tokenize(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnevaluable, err)
	}

	p := &parser{tokens: tokens}
	root, err := p.expr()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnevaluable, err)
	}
	if p.pos != len(p.tokens) {
		if p.tokens[p.pos].kind == tokClose {
			return nil, fmt.Errorf("%w: %w", ErrUnevaluable, errUnbalancedParens)
		}
		return nil, fmt.Errorf("%w: %w at %q", ErrUnevaluable, errTrailingTokens, p.tokens[p.pos].text)
	}

	return &Expr{src: src, root: root}, nil
}

// Evaluate parses and evaluates src against bindings. Every identifier must
// be present in bindings; missing ones are not treated as zero.
func Evaluate(src string, bindings Bindings) (float64, error) {
	expr, err := Parse(src)
	if err != nil {
		return 0, err
	}
	return expr.Eval(bindings)
}

// Eval evaluates the expression. Non-finite results are returned as-is.
func (e *Expr) Eval(bindings Bindings) (float64, error) {
	v, err := e.root.eval(bindings)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrUnevaluable, err)
	}
	return v, nil
}

// Identifiers returns the distinct identifiers referenced by the expression
// in order of first appearance.
func (e *Expr) Identifiers() []string {
	return e.root.collect(map[string]bool{}, nil)
}

func (e *Expr) String() string {
	return e.src
}

func (n numberNode) eval(Bindings) (float64, error) {
	return float64(n), nil
}

func (n numberNode) collect(_ map[string]bool, out []string) []string {
	return out
}

func (n identNode) eval(b Bindings) (float64, error) {
	v, ok := b[string(n)]
	if !ok {
		return 0, fmt.Errorf("%w: %s", errUnboundIdentifier, string(n))
	}
	return v, nil
}

func (n identNode) collect(seen map[string]bool, out []string) []string {
	if seen[string(n)] {
		return out
	}
	seen[string(n)] = true
	return append(out, string(n))
}

func (n unaryNode) eval(b Bindings) (float64, error) {
	v, err := n.operand.eval(b)
	if err != nil {
		return 0, err
	}
	if n.op == "-" {
		return -v, nil
	}
	return v, nil
}

func (n unaryNode) collect(seen map[string]bool, out []string) []string {
	return n.operand.collect(seen, out)
}

func (n binaryNode) eval(b Bindings) (float64, error) {
	l, err := n.left.eval(b)
	if err != nil {
		return 0, err
	}
	r, err := n.right.eval(b)
	if err != nil {
		return 0, err
	}

	switch n.op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		// IEEE semantics: x/0 is ±Inf, 0/0 is NaN.
		return l / r, nil
	case "^":
		return math.Pow(l, r), nil
	}

	return 0, fmt.Errorf("%w: %q", errUnsupportedOperator, n.op)
}

func (n binaryNode) collect(seen map[string]bool, out []string) []string {
	out = n.left.collect(seen, out)
	return n.right.collect(seen, out)
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.tokens) {
		return token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) peekBinary(ops string) (string, bool) {
	t, ok := p.peek()
	if !ok || t.kind != tokBinary {
		return "", false
	}
	for _, op := range ops {
		if t.text == string(op) {
			return t.text, true
		}
	}
	return "", false
}

// expr := term (('+'|'-') term)*
func (p *parser) expr() (node, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.peekBinary("+-")
		if !ok {
			return left, nil
		}
		p.pos++
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
}

// term := unary (('*'|'/') unary)*
func (p *parser) term() (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.peekBinary("*/")
		if !ok {
			return left, nil
		}
		p.pos++
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
}

// unary := ('+'|'-') unary | power
//
// A leading sign binds looser than '^', so -2^2 is -4.
func (p *parser) unary() (node, error) {
	t, ok := p.peek()
	if ok && (t.kind == tokUnary || (t.kind == tokBinary && (t.text == "-" || t.text == "+"))) {
		p.pos++
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return unaryNode{op: t.text, operand: operand}, nil
	}
	return p.power()
}

// power := primary ('^' unary)?, right-associative.
func (p *parser) power() (node, error) {
	base, err := p.primary()
	if err != nil {
		return nil, err
	}
	if _, ok := p.peekBinary("^"); !ok {
		return base, nil
	}
	p.pos++
	exp, err := p.unary()
	if err != nil {
		return nil, err
	}
	return binaryNode{op: "^", left: base, right: exp}, nil
}

func (p *parser) primary() (node, error) {
	t, ok := p.peek()
	if !ok {
		return nil, errUnexpectedEnd
	}
	p.pos++

	switch t.kind {
	case tokNumber:
		return numberNode(t.value), nil
	case tokIdent:
		return identNode(t.text), nil
	case tokOpen:
		inner, err := p.expr()
		if err != nil {
			return nil, err
		}
		closing, ok := p.peek()
		if !ok || closing.kind != tokClose {
			return nil, errUnbalancedParens
		}
		p.pos++
		return inner, nil
	case tokClose:
		return nil, errUnbalancedParens
	}

	return nil, fmt.Errorf("%w: %q", errUnsupportedToken, t.text)
}
