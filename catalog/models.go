/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package catalog

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/humaidq/echocalc/formula"
)

// Kind is the role a field plays in a panel.
type Kind string

// Kind values represent supported field roles.
const (
	KindInput      Kind = "input"      // manually entered measurement
	KindCalculated Kind = "calculated" // derived through a formula
	KindToggle     Kind = "toggle"     // patient sex selector
)

// UnmarshalYAML accepts both the short kind names and their long aliases.
func (k *Kind) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}

	switch strings.ToLower(strings.TrimSpace(s)) {
	case "input", "raw-input":
		*k = KindInput
	case "calculated", "derived":
		*k = KindCalculated
	case "toggle", "sex-selector":
		*k = KindToggle
	default:
		return fmt.Errorf("%w: %q", errUnknownKind, s)
	}

	return nil
}

// Sex represents biological sex for reference range lookup
type Sex string

// Sex values represent supported biological-sex categories.
const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// ParseSex accepts male/female as well as the man/woman spelling used by
// older stored sessions.
func ParseSex(s string) (Sex, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "man", "m":
		return SexMale, nil
	case "female", "woman", "f":
		return SexFemale, nil
	}
	return "", fmt.Errorf("%w: %q", errUnknownSex, s)
}

// ReferenceRange is an inclusive normal interval.
type ReferenceRange struct {
	LowerValue  float64 `yaml:"lowerValue" json:"lowerValue"`
	HigherValue float64 `yaml:"higherValue" json:"higherValue"`
}

// RangeBySex holds an optional reference range per sex.
type RangeBySex struct {
	Male   *ReferenceRange `yaml:"male,omitempty" json:"male,omitempty"`
	Female *ReferenceRange `yaml:"female,omitempty" json:"female,omitempty"`
}

// For returns the range configured for sex, or nil.
func (r *RangeBySex) For(sex Sex) *ReferenceRange {
	if r == nil {
		return nil
	}
	switch sex {
	case SexMale:
		return r.Male
	case SexFemale:
		return r.Female
	}
	return nil
}

// FieldDescriptor describes one field of a panel. Descriptors are immutable
// once the catalog has been loaded.
type FieldDescriptor struct {
	Name                     string      `yaml:"name" json:"name"`
	Label                    string      `yaml:"label" json:"label"`
	Unit                     string      `yaml:"unit,omitempty" json:"unit,omitempty"`
	Kind                     Kind        `yaml:"kind" json:"kind"`
	Formula                  string      `yaml:"formula,omitempty" json:"formula,omitempty"`
	AbsoluteReferenceRange   *RangeBySex `yaml:"absoluteReferenceRange,omitempty" json:"absoluteReferenceRange,omitempty"`
	BSAIndexedReferenceRange *RangeBySex `yaml:"bsaIndexedReferenceRange,omitempty" json:"bsaIndexedReferenceRange,omitempty"`

	expr *formula.Expr
}

// Expr returns the compiled formula of a calculated field.
func (f *FieldDescriptor) Expr() *formula.Expr {
	return f.expr
}

// IsCalculated reports whether the field is derived through a formula.
func (f *FieldDescriptor) IsCalculated() bool {
	return f.Kind == KindCalculated
}

// IsSexSelector reports whether the field selects the patient sex.
func (f *FieldDescriptor) IsSexSelector() bool {
	return f.Kind == KindToggle
}

// Panel is a named group of fields.
type Panel struct {
	Title    string            `yaml:"title" json:"title"`
	Tab      string            `yaml:"tab,omitempty" json:"tab,omitempty"`
	Vertical bool              `yaml:"vertical,omitempty" json:"vertical,omitempty"`
	Fields   []FieldDescriptor `yaml:"fields" json:"fields"`

	index map[string]int
	order []int
}

// Field looks up a field by name.
func (p *Panel) Field(name string) (*FieldDescriptor, bool) {
	i, ok := p.index[name]
	if !ok {
		return nil, false
	}
	return &p.Fields[i], true
}

// Defines reports whether the panel declares a field called name.
func (p *Panel) Defines(name string) bool {
	_, ok := p.index[name]
	return ok
}

// EvaluationOrder returns the calculated fields in dependency order.
func (p *Panel) EvaluationOrder() []*FieldDescriptor {
	out := make([]*FieldDescriptor, 0, len(p.order))
	for _, i := range p.order {
		out = append(out, &p.Fields[i])
	}
	return out
}

// SexFields returns the names of the panel's sex selector fields.
func (p *Panel) SexFields() []string {
	var names []string
	for i := range p.Fields {
		if p.Fields[i].IsSexSelector() {
			names = append(names, p.Fields[i].Name)
		}
	}
	return names
}

// Catalog is the ordered set of panels.
type Catalog struct {
	Panels []*Panel `yaml:"panels" json:"panels"`

	byTitle map[string]*Panel
}

// Panel looks up a panel by title.
func (c *Catalog) Panel(title string) (*Panel, bool) {
	p, ok := c.byTitle[title]
	return p, ok
}

// Tabs returns the tab names in order of first appearance.
func (c *Catalog) Tabs() []string {
	seen := map[string]bool{}
	var tabs []string
	for _, p := range c.Panels {
		if seen[p.Tab] {
			continue
		}
		seen[p.Tab] = true
		tabs = append(tabs, p.Tab)
	}
	return tabs
}

// PanelsInTab returns the panels of one tab in catalog order.
func (c *Catalog) PanelsInTab(tab string) []*Panel {
	var out []*Panel
	for _, p := range c.Panels {
		if p.Tab == tab {
			out = append(out, p)
		}
	}
	return out
}
