// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"testing"
)

func testContext() context.Context {
	return context.Background()
}

func mustNewKV(t *testing.T) *KV {
	t.Helper()

	kv, err := NewKV()
	if err != nil {
		t.Fatalf("NewKV failed: %v", err)
	}
	return kv
}
