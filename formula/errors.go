/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package formula

import "errors"

var (
	// ErrUnevaluable is returned for any formula that cannot be evaluated.
	ErrUnevaluable = errors.New("formula is unevaluable")

	errEmptyFormula        = errors.New("empty formula")
	errUnboundIdentifier   = errors.New("unbound identifier")
	errUnsupportedOperator = errors.New("unsupported operator")
	errUnsupportedToken    = errors.New("unsupported token")
	errUnbalancedParens    = errors.New("unbalanced parentheses")
	errUnexpectedEnd       = errors.New("unexpected end of formula")
	errTrailingTokens      = errors.New("unexpected trailing tokens")
	errInvalidNumber       = errors.New("invalid number literal")
)
