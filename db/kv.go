/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// KV stores panel records in the kv_entries table. It satisfies the panel
// store's key-value interface.
type KV struct{}

// NewKV returns a KV over the initialized pool.
func NewKV() (*KV, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}
	return &KV{}, nil
}

// Get returns the raw record stored under key.
func (*KV) Get(ctx context.Context, key string) (string, bool, error) {
	var value string

	err := pool.QueryRow(ctx, `SELECT value FROM kv_entries WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}

	return value, true, nil
}

// Set replaces the record stored under key.
func (*KV) Set(ctx context.Context, key, value string) error {
	_, err := pool.Exec(ctx,
		`INSERT INTO kv_entries (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at`,
		key,
		value,
	)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}

	return nil
}
