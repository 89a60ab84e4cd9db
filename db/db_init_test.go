// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"errors"
	"testing"
)

func TestInitRequiresDatabaseURL(t *testing.T) {
	if err := Init(testContext(), ""); !errors.Is(err, ErrDatabaseURLNotSet) {
		t.Fatalf("expected ErrDatabaseURLNotSet, got %v", err)
	}
}

func TestEnsureDatabaseExistsRequiresName(t *testing.T) {
	err := ensureDatabaseExists(testContext(), "postgres://user@localhost:5432")
	if !errors.Is(err, ErrDatabaseNameNotSpecified) {
		t.Fatalf("expected ErrDatabaseNameNotSpecified, got %v", err)
	}
}

func TestInitSuccess(t *testing.T) {
	requireDatabase(t)

	Close()

	if err := Init(testContext(), testBaseURL); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	if GetPool() == nil {
		t.Fatalf("expected pool to be initialized")
	}

	Close()

	if err := initTestPool(testContext(), testBaseURL, testSchemaName); err != nil {
		t.Fatalf("failed to re-init pool: %v", err)
	}
}

func TestSyncSchemaIsIdempotent(t *testing.T) {
	requireDatabase(t)

	if err := SyncSchema(testContext()); err != nil {
		t.Fatalf("SyncSchema failed: %v", err)
	}
}
