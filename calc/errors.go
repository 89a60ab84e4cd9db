/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package calc

import "errors"

var (
	// ErrUnknownPanel is returned for titles missing from the catalog.
	ErrUnknownPanel = errors.New("unknown panel")
	// ErrUnknownField is returned for field names missing from a panel.
	ErrUnknownField = errors.New("unknown field")
	// ErrNotInput is returned when a calculated field is edited directly.
	ErrNotInput = errors.New("field is calculated and cannot be edited")
)
