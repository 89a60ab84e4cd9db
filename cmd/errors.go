/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import "errors"

var (
	errDatabaseURLRequired   = errors.New("database-url is required (set via --database-url or DATABASE_URL env var)")
	errRedisAddrRequired     = errors.New("redis-addr is required (set via --redis-addr or REDIS_ADDR env var)")
	errCSRFSecretRequired    = errors.New("CSRF_SECRET is required")
	errUnknownBackend        = errors.New("storage must be one of: file, memory, postgres, redis")
	errPanelTitleRequired    = errors.New("panel title is required")
	errInvalidAssignment     = errors.New("edits must be written as name=value")
	errSexRequired           = errors.New("sex is required (male or female)")
	errMigrationNameRequired = errors.New("migration name is required")
)
