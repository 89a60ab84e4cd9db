/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package calc resolves calculated fields, classifies values against
// reference ranges and runs the edit pipeline on top of the panel store.
package calc

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/humaidq/echocalc/catalog"
	"github.com/humaidq/echocalc/logging"
	"github.com/humaidq/echocalc/store"
)

var logger = logging.Logger(logging.SourceCalc)

// FieldView is one field of a panel ready for display.
type FieldView struct {
	Name           string         `json:"name"`
	Label          string         `json:"label"`
	Unit           string         `json:"unit,omitempty"`
	Kind           catalog.Kind   `json:"kind"`
	Value          *float64       `json:"value"`
	Display        string         `json:"display"`
	Classification Classification `json:"classification"`
}

// PanelView is a panel with every value resolved and classified.
type PanelView struct {
	Title    string      `json:"title"`
	Tab      string      `json:"tab,omitempty"`
	Vertical bool        `json:"vertical,omitempty"`
	Known    bool        `json:"known"`
	Session  Session     `json:"session"`
	Fields   []FieldView `json:"fields"`
}

// Calculator applies edits to panels: every edit updates the stored inputs,
// re-resolves the panel, persists the outcome and refreshes the shared
// session. Edits are serialized.
type Calculator struct {
	catalog *catalog.Catalog
	store   *store.PanelStore

	mu sync.Mutex
}

// New returns a calculator over a validated catalog.
func New(c *catalog.Catalog, s *store.PanelStore) *Calculator {
	return &Calculator{catalog: c, store: s}
}

// Catalog returns the catalog the calculator was built with.
func (c *Calculator) Catalog() *catalog.Catalog {
	return c.catalog
}

// Session reads the shared session state.
func (c *Calculator) Session(ctx context.Context) Session {
	return Session{
		Sex: c.store.ReadSex(ctx),
		BSA: c.store.ReadBSA(ctx),
	}
}

// SetSex changes the session sex.
func (c *Calculator) SetSex(ctx context.Context, sex catalog.Sex) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.store.WriteSex(ctx, sex)
}

// SetInput applies one edit. See SetInputs.
func (c *Calculator) SetInput(ctx context.Context, title, name, text string) (PanelView, error) {
	return c.SetInputs(ctx, title, map[string]string{name: text})
}

// SetInputs applies a batch of edits to one panel. Input text that is not a
// number is stored as 0. Editing a sex selector sets the session sex.
func (c *Calculator) SetInputs(ctx context.Context, title string, inputs map[string]string) (PanelView, error) {
	panel, ok := c.catalog.Panel(title)
	if !ok {
		return PanelView{}, fmt.Errorf("%w: %q", ErrUnknownPanel, title)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	updates := store.PanelValues{}
	var sex catalog.Sex
	for name, text := range inputs {
		f, ok := panel.Field(name)
		if !ok {
			return PanelView{}, fmt.Errorf("%w: %q in %q", ErrUnknownField, name, title)
		}

		switch f.Kind {
		case catalog.KindCalculated:
			return PanelView{}, fmt.Errorf("%w: %q", ErrNotInput, name)
		case catalog.KindToggle:
			parsed, err := catalog.ParseSex(text)
			if err != nil {
				return PanelView{}, err
			}
			sex = parsed
		default:
			updates[name] = ParseInput(text)
		}
	}

	if sex != "" {
		if err := c.store.WriteSex(ctx, sex); err != nil {
			return PanelView{}, fmt.Errorf("failed to store sex: %w", err)
		}
	}

	raw := inputValues(panel, c.store.Panel(ctx, title))
	for k, v := range updates {
		raw[k] = v
	}

	session := c.Session(ctx)
	derived := ResolveDerived(panel, raw, session)

	if err := c.persist(ctx, panel, updates, derived); err != nil {
		return PanelView{}, err
	}

	if bsa, ok := derived[BSAField]; ok && panel.Defines(BSAField) && bsa.Finite() {
		if err := c.store.WriteBSA(ctx, bsa.Number); err != nil {
			return PanelView{}, fmt.Errorf("failed to store bsa: %w", err)
		}
		if bsa.Number != session.BSA {
			session.BSA = bsa.Number
			if err := c.refreshSessionPanels(ctx, panel, session); err != nil {
				return PanelView{}, err
			}
		}
	}

	logger.Debug("Applied panel edit", "panel", title, "inputs", len(updates), "derived", len(derived))

	return buildView(panel, raw, derived, session), nil
}

// View resolves and classifies a panel from its stored inputs.
func (c *Calculator) View(ctx context.Context, title string) (PanelView, error) {
	panel, ok := c.catalog.Panel(title)
	if !ok {
		return PanelView{}, fmt.Errorf("%w: %q", ErrUnknownPanel, title)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	session := c.Session(ctx)
	raw := inputValues(panel, c.store.Panel(ctx, title))

	return resolvedView(panel, raw, session), nil
}

// Summary returns a view of every panel that has stored values: catalog
// panels first, in catalog order, then stored panels the catalog does not
// know, by title.
func (c *Calculator) Summary(ctx context.Context) []PanelView {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := c.store.Load(ctx)
	session := c.Session(ctx)

	var views []PanelView
	for _, panel := range c.catalog.Panels {
		values, ok := snap[panel.Title]
		if !ok {
			continue
		}
		views = append(views, resolvedView(panel, inputValues(panel, values), session))
	}

	var unknown []string
	for title := range snap {
		if _, ok := c.catalog.Panel(title); !ok {
			unknown = append(unknown, title)
		}
	}
	sort.Strings(unknown)

	for _, title := range unknown {
		views = append(views, unknownView(title, snap[title], session))
	}

	return views
}

// Reset removes the stored values of a panel. The session is kept.
func (c *Calculator) Reset(ctx context.Context, title string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.store.DeletePanel(ctx, title)
}

// persist writes the edited inputs and the outcome of every calculated
// field. Results that are not finite are removed from the store.
func (c *Calculator) persist(ctx context.Context, panel *catalog.Panel, updates store.PanelValues, derived Values) error {
	partial := make(store.PanelValues, len(updates)+len(derived))
	for k, v := range updates {
		partial[k] = v
	}

	drop := panel.SexFields()
	for name, v := range derived {
		if v.Finite() {
			partial[name] = v.Number
		} else {
			drop = append(drop, name)
		}
	}

	if err := c.store.UpdatePanel(ctx, panel.Title, partial, drop); err != nil {
		return fmt.Errorf("failed to store panel %q: %w", panel.Title, err)
	}
	return nil
}

// refreshSessionPanels re-resolves the stored panels that read the session
// BSA and persists any calculated field whose stored result changed.
func (c *Calculator) refreshSessionPanels(ctx context.Context, source *catalog.Panel, session Session) error {
	snap := c.store.Load(ctx)

	for _, panel := range c.catalog.Panels {
		if panel == source || panel.Defines(BSAField) {
			continue
		}
		stored, ok := snap[panel.Title]
		if !ok {
			continue
		}

		derived := ResolveDerived(panel, inputValues(panel, stored), session)
		if !derivedChanged(stored, derived) {
			continue
		}

		if err := c.persist(ctx, panel, nil, derived); err != nil {
			return err
		}
		logger.Debug("Refreshed panel after bsa change", "panel", panel.Title, "bsa", session.BSA)
	}

	return nil
}

func derivedChanged(stored store.PanelValues, derived Values) bool {
	for name, v := range derived {
		old, ok := stored[name]
		if v.Finite() != ok || (ok && old != v.Number) {
			return true
		}
	}
	return false
}

// inputValues keeps the stored values that belong to input fields; stored
// results of calculated fields are always recomputed.
func inputValues(panel *catalog.Panel, stored store.PanelValues) map[string]float64 {
	raw := make(map[string]float64, len(stored))
	for name, v := range stored {
		if f, ok := panel.Field(name); ok && f.Kind == catalog.KindInput {
			raw[name] = v
		}
	}
	return raw
}

func resolvedView(panel *catalog.Panel, raw map[string]float64, session Session) PanelView {
	derived := ResolveDerived(panel, raw, session)
	if bsa, ok := derived[BSAField]; ok && panel.Defines(BSAField) && bsa.Finite() {
		session.BSA = bsa.Number
	}
	return buildView(panel, raw, derived, session)
}

func buildView(panel *catalog.Panel, raw map[string]float64, derived Values, session Session) PanelView {
	view := PanelView{
		Title:    panel.Title,
		Tab:      panel.Tab,
		Vertical: panel.Vertical,
		Known:    true,
		Session:  session,
		Fields:   make([]FieldView, 0, len(panel.Fields)),
	}

	for i := range panel.Fields {
		f := &panel.Fields[i]
		fv := FieldView{
			Name:           f.Name,
			Label:          f.Label,
			Unit:           f.Unit,
			Kind:           f.Kind,
			Classification: Classification{Absolute: BucketUnknown, Indexed: BucketUnknown},
		}

		switch f.Kind {
		case catalog.KindToggle:
			fv.Display = string(session.Sex)
		case catalog.KindCalculated:
			fv.Display = Placeholder
			if d := derived[f.Name]; d.Finite() {
				n := d.Number
				fv.Value = &n
				fv.Display = FormatTrimmed(n, 2)
				fv.Classification = Classify(n, session.Sex, f, session.BSA)
			}
		default:
			if v, ok := raw[f.Name]; ok {
				n := v
				fv.Value = &n
				fv.Display = FormatInput(n)
				fv.Classification = Classify(n, session.Sex, f, session.BSA)
			}
		}

		view.Fields = append(view.Fields, fv)
	}

	return view
}

func unknownView(title string, values store.PanelValues, session Session) PanelView {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	view := PanelView{Title: title, Session: session, Fields: make([]FieldView, 0, len(names))}
	for _, name := range names {
		n := values[name]
		view.Fields = append(view.Fields, FieldView{
			Name:           name,
			Label:          name,
			Kind:           catalog.KindInput,
			Value:          &n,
			Display:        FormatInput(n),
			Classification: Classification{Absolute: BucketUnknown, Indexed: BucketUnknown},
		})
	}

	return view
}
