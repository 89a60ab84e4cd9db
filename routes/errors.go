/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import "errors"

var (
	errInvalidForm = errors.New("invalid form submission")
	errNoChartData = errors.New("panel has no values to chart")
)
