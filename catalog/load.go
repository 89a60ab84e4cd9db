/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/humaidq/echocalc/formula"
)

//go:embed panels.yaml
var defaultPanels []byte

// Default returns the embedded echocardiography catalog.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(defaultPanels))
}

// LoadFile reads and validates a YAML catalog from disk.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Load decodes and validates a YAML catalog.
func Load(r io.Reader) (*Catalog, error) {
	var c Catalog

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: failed to decode catalog: %w", ErrInvalidCatalog, err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// Validate checks the catalog, compiles every formula and computes the
// evaluation order of each panel. It must be called on catalogs that were
// not produced by Load.
func (c *Catalog) Validate() error {
	c.byTitle = make(map[string]*Panel, len(c.Panels))

	for _, p := range c.Panels {
		if strings.TrimSpace(p.Title) == "" {
			return fmt.Errorf("%w: %w", ErrInvalidCatalog, errMissingTitle)
		}
		if _, dup := c.byTitle[p.Title]; dup {
			return fmt.Errorf("%w: %w: %q", ErrInvalidCatalog, errDuplicatePanel, p.Title)
		}
		if err := p.validate(); err != nil {
			return fmt.Errorf("panel %q: %w", p.Title, err)
		}
		c.byTitle[p.Title] = p
	}

	return nil
}

func (p *Panel) validate() error {
	p.index = make(map[string]int, len(p.Fields))

	for i := range p.Fields {
		f := &p.Fields[i]
		if strings.TrimSpace(f.Name) == "" {
			return fmt.Errorf("%w: %w (field #%d)", ErrInvalidCatalog, errMissingName, i+1)
		}
		if _, dup := p.index[f.Name]; dup {
			return fmt.Errorf("%w: %w: %q", ErrInvalidCatalog, errDuplicateField, f.Name)
		}
		p.index[f.Name] = i

		if f.Kind == "" {
			f.Kind = KindInput
		}

		switch {
		case f.IsCalculated() && strings.TrimSpace(f.Formula) == "":
			return fmt.Errorf("%w: %w: %q", ErrInvalidCatalog, errMissingFormula, f.Name)
		case !f.IsCalculated() && f.Formula != "":
			return fmt.Errorf("%w: %w: %q", ErrInvalidCatalog, errUnexpectedFormula, f.Name)
		}

		if f.IsCalculated() {
			expr, err := formula.Parse(f.Formula)
			if err != nil {
				return fmt.Errorf("%w: field %q: %w", ErrInvalidCatalog, f.Name, err)
			}
			f.expr = expr
		}

		for _, rs := range []*RangeBySex{f.AbsoluteReferenceRange, f.BSAIndexedReferenceRange} {
			for _, r := range []*ReferenceRange{rs.For(SexMale), rs.For(SexFemale)} {
				if r != nil && r.LowerValue > r.HigherValue {
					return fmt.Errorf("%w: %w: %q", ErrInvalidCatalog, errInvalidRange, f.Name)
				}
			}
		}
	}

	if err := p.checkReferences(); err != nil {
		return err
	}

	order, err := p.evaluationOrder()
	if err != nil {
		return err
	}
	p.order = order

	return nil
}

// checkReferences rejects formulas that spell out a field name formulas
// cannot bind, such as "heart-rate", which would parse as a subtraction.
func (p *Panel) checkReferences() error {
	for i := range p.Fields {
		f := &p.Fields[i]
		if !f.IsCalculated() {
			continue
		}

		for j := range p.Fields {
			name := p.Fields[j].Name
			if isIdentifier(name) || !containsName(f.Formula, name) {
				continue
			}
			return fmt.Errorf("%w: %w: %q references %q", ErrInvalidCatalog, errUnreferenceableName, f.Name, name)
		}
	}
	return nil
}

func isIdentifier(name string) bool {
	for i, r := range name {
		if !isIdentRune(r) || (i == 0 && r >= '0' && r <= '9') {
			return false
		}
	}
	return name != ""
}

func isIdentRune(r rune) bool {
	return r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')
}

// containsName reports whether name appears in src without identifier
// characters on either side.
func containsName(src, name string) bool {
	for from := 0; ; {
		i := strings.Index(src[from:], name)
		if i < 0 {
			return false
		}
		start, end := from+i, from+i+len(name)

		before, after := ' ', ' '
		if start > 0 {
			before, _ = utf8.DecodeLastRuneInString(src[:start])
		}
		if end < len(src) {
			after, _ = utf8.DecodeRuneInString(src[end:])
		}
		if !isIdentRune(before) && !isIdentRune(after) {
			return true
		}
		from = start + 1
	}
}

// evaluationOrder sorts calculated fields so each one follows every
// calculated field it references. Declaration order breaks ties, so a catalog
// that is already declared in dependency order is evaluated as written.
func (p *Panel) evaluationOrder() ([]int, error) {
	var pending []int
	deps := map[int][]string{}

	for i := range p.Fields {
		f := &p.Fields[i]
		if !f.IsCalculated() {
			continue
		}
		pending = append(pending, i)
		for _, name := range f.expr.Identifiers() {
			if dep, ok := p.Field(name); ok && dep.IsCalculated() {
				deps[i] = append(deps[i], name)
			}
		}
	}

	done := make(map[string]bool, len(pending))
	order := make([]int, 0, len(pending))

	for len(pending) > 0 {
		next := -1
		for pos, i := range pending {
			ready := true
			for _, name := range deps[i] {
				if !done[name] {
					ready = false
					break
				}
			}
			if ready {
				next = pos
				break
			}
		}

		if next < 0 {
			names := make([]string, 0, len(pending))
			for _, i := range pending {
				names = append(names, p.Fields[i].Name)
			}
			return nil, fmt.Errorf("%w: %s", ErrCyclicFormula, strings.Join(names, ", "))
		}

		i := pending[next]
		order = append(order, i)
		done[p.Fields[i].Name] = true
		pending = append(pending[:next], pending[next+1:]...)
	}

	return order, nil
}
