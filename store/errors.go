/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package store

import "errors"

var (
	errEmptyTitle     = errors.New("panel title is required")
	errNonFiniteValue = errors.New("value is not finite")
	errInvalidSex     = errors.New("invalid sex")
	errNilRedisClient = errors.New("redis client is nil")
	errEmptyDataFile  = errors.New("data file path is required")
)
