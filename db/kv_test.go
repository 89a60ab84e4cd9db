// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"testing"

	"github.com/humaidq/echocalc/store"
)

func TestKVRoundTrip(t *testing.T) {
	resetDatabase(t)
	ctx := testContext()
	kv := mustNewKV(t)

	if _, ok, err := kv.Get(ctx, "echoValues"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}

	if err := kv.Set(ctx, "echoValues", `{"PLAX":{"lvidd":5}}`); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := kv.Set(ctx, "echoValues", `{"PLAX":{"lvidd":5.5}}`); err != nil {
		t.Fatalf("Set overwrite failed: %v", err)
	}

	got, ok, err := kv.Get(ctx, "echoValues")
	if err != nil || !ok {
		t.Fatalf("expected stored key, got ok=%v err=%v", ok, err)
	}
	if got != `{"PLAX":{"lvidd":5.5}}` {
		t.Fatalf("unexpected value %q", got)
	}
}

func TestKVBacksPanelStore(t *testing.T) {
	resetDatabase(t)
	ctx := testContext()

	s := store.New(mustNewKV(t))
	if err := s.UpdatePanel(ctx, "PLAX", store.PanelValues{"lvidd": 5.5}, nil); err != nil {
		t.Fatalf("UpdatePanel failed: %v", err)
	}
	if err := s.WriteBSA(ctx, 1.81); err != nil {
		t.Fatalf("WriteBSA failed: %v", err)
	}

	reopened := store.New(mustNewKV(t))
	if got := reopened.Panel(ctx, "PLAX")["lvidd"]; got != 5.5 {
		t.Fatalf("expected lvidd 5.5, got %v", got)
	}
	if got := reopened.ReadBSA(ctx); got != 1.81 {
		t.Fatalf("expected bsa 1.81, got %v", got)
	}
}

func TestNewKVRequiresPool(t *testing.T) {
	if testBaseURL != "" {
		t.Skip("pool is initialized when DATABASE_URL is set")
	}

	if _, err := NewKV(); err == nil {
		t.Fatalf("expected error without a pool")
	}
}
