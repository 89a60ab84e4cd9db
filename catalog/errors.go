/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package catalog

import "errors"

var (
	// ErrCyclicFormula is returned when calculated fields reference each other in a loop.
	ErrCyclicFormula = errors.New("cyclic formula reference")
	// ErrInvalidCatalog is wrapped by every other validation failure.
	ErrInvalidCatalog = errors.New("invalid catalog")

	errDuplicatePanel    = errors.New("duplicate panel title")
	errDuplicateField    = errors.New("duplicate field name")
	errMissingTitle      = errors.New("panel title is required")
	errMissingName       = errors.New("field name is required")
	errMissingFormula    = errors.New("calculated field requires a formula")
	errUnexpectedFormula = errors.New("only calculated fields may declare a formula")
	errInvalidRange      = errors.New("reference range lower bound exceeds upper bound")
	errUnknownKind       = errors.New("unknown field kind")
	errUnknownSex        = errors.New("unknown sex")

	errUnreferenceableName = errors.New("formula references a field name that is not an identifier")
)
