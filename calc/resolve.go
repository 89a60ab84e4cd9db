/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package calc

import (
	"math"

	"github.com/humaidq/echocalc/catalog"
	"github.com/humaidq/echocalc/formula"
)

// Value is the outcome of one calculated field. OK is false when the
// formula could not be evaluated.
type Value struct {
	Number float64
	OK     bool
}

// Finite reports whether the value is a usable finite number.
func (v Value) Finite() bool {
	return v.OK && !math.IsInf(v.Number, 0) && !math.IsNaN(v.Number)
}

// Unevaluable marks a calculated field whose formula failed.
var Unevaluable = Value{}

// Values maps calculated field names to their outcome.
type Values map[string]Value

// ResolveDerived evaluates every calculated field of panel over raw, in the
// panel's evaluation order. Each result is rounded to two fractional digits
// and becomes a binding for later formulas. Inputs missing from raw are left
// unbound, so formulas needing them are unevaluable.
//
// If the panel does not declare a bsa field, the session BSA is bound as
// bsa when it is positive.
func ResolveDerived(panel *catalog.Panel, raw map[string]float64, session Session) Values {
	bindings := make(formula.Bindings, len(raw)+len(panel.Fields))
	for k, v := range raw {
		bindings[k] = v
	}
	if !panel.Defines(BSAField) && session.BSA > 0 {
		if _, ok := bindings[BSAField]; !ok {
			bindings[BSAField] = session.BSA
		}
	}

	out := make(Values, len(panel.Fields))
	for _, f := range panel.EvaluationOrder() {
		v, err := f.Expr().Eval(bindings)
		if err != nil {
			out[f.Name] = Unevaluable
			delete(bindings, f.Name)
			continue
		}

		v = Round(v, 2)
		out[f.Name] = Value{Number: v, OK: true}
		bindings[f.Name] = v
	}

	return out
}
