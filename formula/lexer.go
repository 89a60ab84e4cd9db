/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package formula

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/efp"
)

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokIdent
	tokBinary
	tokUnary
	tokOpen
	tokClose
)

type token struct {
	kind  tokenKind
	text  string
	value float64
}

// tokenize splits a formula into the small grammar we support: numbers,
// identifiers, + - * / ^, unary +/- and parentheses. Anything else the
// spreadsheet tokenizer recognises (functions, comparisons, text, ranges with
// sheet prefixes) is rejected.
func tokenize(src string) ([]token, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, errEmptyFormula
	}

	ps := efp.ExcelParser()
	raw := ps.Parse("=" + src)

	tokens := make([]token, 0, len(raw))
	for _, t := range raw {
		switch t.TType {
		case efp.TokenTypeWhitespace:
			continue
		case efp.TokenTypeOperand:
			tok, err := operandToken(t)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
		case efp.TokenTypeOperatorInfix:
			if !strings.Contains("+-*/^", t.TValue) || len(t.TValue) != 1 {
				return nil, fmt.Errorf("%w: %q", errUnsupportedOperator, t.TValue)
			}
			tokens = append(tokens, token{kind: tokBinary, text: t.TValue})
		case efp.TokenTypeOperatorPrefix:
			if t.TValue != "-" && t.TValue != "+" {
				return nil, fmt.Errorf("%w: %q", errUnsupportedOperator, t.TValue)
			}
			tokens = append(tokens, token{kind: tokUnary, text: t.TValue})
		case efp.TokenTypeSubexpression:
			if t.TSubType == efp.TokenSubTypeStart {
				tokens = append(tokens, token{kind: tokOpen, text: "("})
			} else {
				tokens = append(tokens, token{kind: tokClose, text: ")"})
			}
		default:
			return nil, fmt.Errorf("%w: %s %q", errUnsupportedToken, t.TType, t.TValue)
		}
	}

	if len(tokens) == 0 {
		return nil, errEmptyFormula
	}

	return tokens, nil
}

func operandToken(t efp.Token) (token, error) {
	switch t.TSubType {
	case efp.TokenSubTypeNumber:
		v, err := strconv.ParseFloat(t.TValue, 64)
		if err != nil {
			return token{}, fmt.Errorf("%w: %q", errInvalidNumber, t.TValue)
		}
		return token{kind: tokNumber, text: t.TValue, value: v}, nil
	case efp.TokenSubTypeRange:
		if !isIdentifier(t.TValue) {
			return token{}, fmt.Errorf("%w: %q", errUnsupportedToken, t.TValue)
		}
		return token{kind: tokIdent, text: t.TValue}, nil
	default:
		return token{}, fmt.Errorf("%w: %s %q", errUnsupportedToken, t.TSubType, t.TValue)
	}
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
