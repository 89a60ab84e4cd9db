/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package calc

import (
	"math"
	"strconv"
	"strings"
)

// Placeholder is displayed for values that could not be computed.
const Placeholder = "—"

// maxFractional is the magnitude above which a float64 has no fractional part.
const maxFractional = 1 << 53

// Round rounds v to digits fractional digits, halves away from zero.
// Non-finite values are returned unchanged, as are values too large to
// carry any fractional digits.
func Round(v float64, digits int) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) || math.Abs(v) >= maxFractional {
		return v
	}
	p := math.Pow(10, float64(digits))
	if math.IsInf(v*p, 0) {
		return v
	}
	r := math.Round(v*p) / p
	if r == 0 {
		return 0 // drop negative zero
	}
	return r
}

// FormatTrimmed formats n with exactly digits fractional digits and then
// strips trailing zeros and a trailing decimal point, so 3.00 becomes "3"
// and 3.50 becomes "3.5". Non-finite values format as the placeholder.
func FormatTrimmed(n float64, digits int) string {
	n = Round(n, digits)
	if math.IsInf(n, 0) || math.IsNaN(n) {
		return Placeholder
	}

	s := strconv.FormatFloat(n, 'f', digits, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		return "0"
	}
	return s
}

// FormatInput formats an entered value without losing precision.
func FormatInput(n float64) string {
	if math.IsInf(n, 0) || math.IsNaN(n) {
		return Placeholder
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// ParseInput converts entered text to a number. Text that is not a finite
// number is coerced to 0.
func ParseInput(text string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(text, ",", ".")), 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	return v
}
