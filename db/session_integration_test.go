// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"net/http"
	"testing"
	"time"

	"github.com/flamego/session"
)

func TestPostgresSessionStoreLifecycle(t *testing.T) {
	resetDatabase(t)
	ctx := testContext()

	store, err := PostgresSessionIniter()(ctx, PostgresSessionConfig{Lifetime: time.Hour})
	if err != nil {
		t.Fatalf("PostgresSessionIniter failed: %v", err)
	}

	noopWriter := func(_ http.ResponseWriter, _ *http.Request, _ string) {}

	sess := session.NewBaseSession("sess1", session.GobEncoder, noopWriter)
	sess.Set("panel", "PLAX")

	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !store.Exist(ctx, "sess1") {
		t.Fatalf("expected session to exist")
	}

	read, err := store.Read(ctx, "sess1")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if read.Get("panel") != "PLAX" {
		t.Fatalf("expected panel to round-trip, got %v", read.Get("panel"))
	}

	if err := store.Touch(ctx, "sess1"); err != nil {
		t.Fatalf("Touch failed: %v", err)
	}

	fresh, err := store.Read(ctx, "missing")
	if err != nil {
		t.Fatalf("Read missing failed: %v", err)
	}
	if fresh.ID() != "missing" || fresh.Get("panel") != nil {
		t.Fatalf("expected empty session for unknown id")
	}

	if err := store.Destroy(ctx, "sess1"); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
	if store.Exist(ctx, "sess1") {
		t.Fatalf("expected session to be destroyed")
	}

	if err := store.GC(ctx); err != nil {
		t.Fatalf("GC failed: %v", err)
	}
}
