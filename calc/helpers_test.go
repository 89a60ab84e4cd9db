// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package calc

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/humaidq/echocalc/catalog"
	"github.com/humaidq/echocalc/store"
)

func testContext() context.Context {
	return context.Background()
}

func mustPanel(t *testing.T, doc, title string) *catalog.Panel {
	t.Helper()

	c, err := catalog.Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}
	p, ok := c.Panel(title)
	if !ok {
		t.Fatalf("missing panel %q", title)
	}
	return p
}

func newTestCalculator(t *testing.T) (*Calculator, *store.PanelStore) {
	t.Helper()

	c, err := catalog.Default()
	if err != nil {
		t.Fatalf("failed to load default catalog: %v", err)
	}
	s := store.New(store.NewMemoryKV())
	return New(c, s), s
}

func findField(t *testing.T, view PanelView, name string) FieldView {
	t.Helper()

	for _, f := range view.Fields {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("field %q not in view of %q", name, view.Title)
	return FieldView{}
}

func assertFloatClose(t *testing.T, got, want float64) {
	t.Helper()

	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func ptrRange(lower, higher float64) *catalog.ReferenceRange {
	return &catalog.ReferenceRange{LowerValue: lower, HigherValue: higher}
}
