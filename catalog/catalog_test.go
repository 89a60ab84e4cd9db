// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	t.Parallel()

	c, err := Default()
	if err != nil {
		t.Fatalf("Default failed: %v", err)
	}

	wantTabs := []string{"patient", "2d", "doppler"}
	if got := c.Tabs(); !reflect.DeepEqual(got, wantTabs) {
		t.Fatalf("expected tabs %v, got %v", wantTabs, got)
	}

	patient, ok := c.Panel("Patient Data")
	if !ok {
		t.Fatalf("expected Patient Data panel")
	}

	if got := patient.SexFields(); !reflect.DeepEqual(got, []string{"gender"}) {
		t.Fatalf("expected gender sex field, got %v", got)
	}

	bsa, ok := patient.Field("bsa")
	if !ok || !bsa.IsCalculated() || bsa.Expr() == nil {
		t.Fatalf("expected compiled bsa field")
	}

	plax, ok := c.Panel("PLAX")
	if !ok {
		t.Fatalf("expected PLAX panel")
	}

	lvidd, _ := plax.Field("lvidd")
	if r := lvidd.AbsoluteReferenceRange.For(SexFemale); r == nil || r.LowerValue != 3.8 || r.HigherValue != 5.2 {
		t.Fatalf("unexpected female lvidd range: %+v", r)
	}
	if r := lvidd.BSAIndexedReferenceRange.For(SexMale); r == nil || r.LowerValue != 2.2 {
		t.Fatalf("unexpected male indexed lvidd range: %+v", r)
	}

	if got := len(c.PanelsInTab("doppler")); got != 6 {
		t.Fatalf("expected 6 doppler panels, got %d", got)
	}
}

func TestEvaluationOrder(t *testing.T) {
	t.Parallel()

	t.Run("keeps declaration order when already sorted", func(t *testing.T) {
		t.Parallel()

		c := mustLoad(t, `
panels:
  - title: P
    fields:
      - {name: a, kind: input}
      - {name: b, kind: input}
      - {name: c, kind: calculated, formula: "a + b"}
      - {name: d, kind: calculated, formula: "c * 2"}
`)
		assertOrder(t, c, "P", []string{"c", "d"})
	})

	t.Run("moves dependents after their dependencies", func(t *testing.T) {
		t.Parallel()

		c := mustLoad(t, `
panels:
  - title: P
    fields:
      - {name: d, kind: derived, formula: "c * 2"}
      - {name: e, kind: derived, formula: "a - 1"}
      - {name: c, kind: derived, formula: "a + b"}
      - {name: a, kind: raw-input}
      - {name: b, kind: raw-input}
`)
		assertOrder(t, c, "P", []string{"e", "c", "d"})
	})

	t.Run("rejects cycles", func(t *testing.T) {
		t.Parallel()

		_, err := Load(strings.NewReader(`
panels:
  - title: P
    fields:
      - {name: x, kind: calculated, formula: "y + 1"}
      - {name: y, kind: calculated, formula: "x + 1"}
`))
		if !errors.Is(err, ErrCyclicFormula) {
			t.Fatalf("expected ErrCyclicFormula, got %v", err)
		}
	})

	t.Run("rejects self reference", func(t *testing.T) {
		t.Parallel()

		_, err := Load(strings.NewReader(`
panels:
  - title: P
    fields:
      - {name: x, kind: calculated, formula: "x + 1"}
`))
		if !errors.Is(err, ErrCyclicFormula) {
			t.Fatalf("expected ErrCyclicFormula, got %v", err)
		}
	})
}

func TestLoadRejectsInvalidCatalogs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{name: "duplicate panel", doc: "panels:\n  - {title: P, fields: []}\n  - {title: P, fields: []}\n"},
		{name: "duplicate field", doc: "panels:\n  - title: P\n    fields:\n      - {name: a}\n      - {name: a}\n"},
		{name: "missing formula", doc: "panels:\n  - title: P\n    fields:\n      - {name: a, kind: calculated}\n"},
		{name: "formula on input", doc: "panels:\n  - title: P\n    fields:\n      - {name: a, kind: input, formula: \"1\"}\n"},
		{name: "bad formula", doc: "panels:\n  - title: P\n    fields:\n      - {name: a, kind: calculated, formula: \"sqrt(2)\"}\n"},
		{name: "unknown kind", doc: "panels:\n  - title: P\n    fields:\n      - {name: a, kind: slider}\n"},
		{name: "unknown key", doc: "panels:\n  - title: P\n    colour: red\n    fields: []\n"},
		{
			name: "inverted range",
			doc:  "panels:\n  - title: P\n    fields:\n      - name: a\n        absoluteReferenceRange:\n          male: {lowerValue: 5, higherValue: 1}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := Load(strings.NewReader(tt.doc)); err == nil {
				t.Fatalf("expected catalog to be rejected")
			}
		})
	}
}

func TestLoadRejectsHyphenatedReferences(t *testing.T) {
	t.Parallel()

	_, err := Load(strings.NewReader(`
panels:
  - title: Vitals
    fields:
      - {name: heart-rate, kind: input}
      - {name: double, kind: calculated, formula: "heart-rate * 2"}
`))
	if !errors.Is(err, ErrInvalidCatalog) || !errors.Is(err, errUnreferenceableName) {
		t.Fatalf("expected unreferenceable name error, got %v", err)
	}

	c, err := Load(strings.NewReader(`
panels:
  - title: Vitals
    fields:
      - {name: heart-rate, kind: input}
      - {name: heart, kind: input}
      - {name: rate, kind: input}
      - {name: gap, kind: calculated, formula: "heart - rate"}
`))
	if err != nil {
		t.Fatalf("expected unreferenced hyphenated name to load, got %v", err)
	}
	if p, _ := c.Panel("Vitals"); len(p.EvaluationOrder()) != 1 {
		t.Fatalf("expected one calculated field")
	}
}

func TestParseSex(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Sex{"male": SexMale, "Man": SexMale, "female": SexFemale, " woman ": SexFemale} {
		got, err := ParseSex(in)
		if err != nil {
			t.Fatalf("ParseSex(%q) failed: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseSex(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := ParseSex("other"); err == nil {
		t.Fatalf("expected error for unknown sex")
	}
}

func mustLoad(t *testing.T, doc string) *Catalog {
	t.Helper()

	c, err := Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return c
}

func assertOrder(t *testing.T, c *Catalog, title string, want []string) {
	t.Helper()

	p, ok := c.Panel(title)
	if !ok {
		t.Fatalf("missing panel %q", title)
	}

	var got []string
	for _, f := range p.EvaluationOrder() {
		got = append(got, f.Name)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected evaluation order %v, got %v", want, got)
	}
}
