/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package store persists per-panel measurement values and the session-wide
// sex and BSA records on top of an opaque string key-value store.
//
// Three keys are used:
//
//	echoValues  {"<panel title>": {"<field>": <number>, ...}, ...}
//	gender      {"gender": "male"|"female"}
//	bsa         {"bsa": <number>}
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"github.com/humaidq/echocalc/catalog"
	"github.com/humaidq/echocalc/logging"
)

// Keys of the records kept in the KV store.
const (
	KeyValues = "echoValues"
	KeySex    = "gender"
	KeyBSA    = "bsa"
)

// SexKey is the field name older sessions used to store the sex inline in
// a panel. It is never written into a panel value set.
const SexKey = "gender"

var logger = logging.Logger(logging.SourceStore)

// PanelValues maps field names to numbers for one panel.
type PanelValues map[string]float64

// Snapshot maps panel titles to their values.
type Snapshot map[string]PanelValues

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for title, values := range s {
		cp := make(PanelValues, len(values))
		for k, v := range values {
			cp[k] = v
		}
		out[title] = cp
	}
	return out
}

// PanelStore reads and writes panel values and the shared session records.
type PanelStore struct {
	kv KV
	mu sync.Mutex
}

// New returns a store backed by kv.
func New(kv KV) *PanelStore {
	return &PanelStore{kv: kv}
}

// Load returns every stored panel. Missing or unreadable data yields an
// empty snapshot.
func (s *PanelStore) Load(ctx context.Context) Snapshot {
	snap, _ := s.load(ctx)
	return snap
}

// load decodes the values blob. The second result carries a sex found inline
// in a panel by older sessions, if any.
func (s *PanelStore) load(ctx context.Context) (Snapshot, catalog.Sex) {
	raw, ok, err := s.kv.Get(ctx, KeyValues)
	if err != nil {
		logger.Warn("Failed to read stored values, starting empty", "error", err)
		return Snapshot{}, ""
	}
	if !ok || raw == "" {
		return Snapshot{}, ""
	}

	var decoded map[string]map[string]any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		logger.Warn("Stored values are corrupt, starting empty", "error", err)
		return Snapshot{}, ""
	}

	var inlineSex catalog.Sex
	snap := make(Snapshot, len(decoded))

	for title, fields := range decoded {
		values := make(PanelValues, len(fields))
		for name, v := range fields {
			switch tv := v.(type) {
			case float64:
				if name != SexKey {
					values[name] = tv
				}
			case string:
				if sex, err := catalog.ParseSex(tv); err == nil && inlineSex == "" {
					inlineSex = sex
				}
			}
		}
		snap[title] = values
	}

	return snap, inlineSex
}

// Save writes the full snapshot as one blob.
func (s *PanelStore) Save(ctx context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save(ctx, snap)
}

func (s *PanelStore) save(ctx context.Context, snap Snapshot) error {
	for title, values := range snap {
		for name, v := range values {
			if math.IsInf(v, 0) || math.IsNaN(v) {
				return fmt.Errorf("%w: %s/%s", errNonFiniteValue, title, name)
			}
		}
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode stored values: %w", err)
	}

	if err := s.kv.Set(ctx, KeyValues, string(data)); err != nil {
		return fmt.Errorf("failed to write stored values: %w", err)
	}

	return nil
}

// Panel returns the stored values of one panel (never nil).
func (s *PanelStore) Panel(ctx context.Context, title string) PanelValues {
	values := s.Load(ctx)[title]
	if values == nil {
		values = PanelValues{}
	}
	return values
}

// UpsertPanel merges values into the panel's stored set, last write wins per
// field, and persists the whole blob in one write.
func (s *PanelStore) UpsertPanel(ctx context.Context, title string, values PanelValues) error {
	return s.UpdatePanel(ctx, title, values, nil)
}

// UpdatePanel merges values and removes the drop fields in a single write.
// Non-finite values are skipped and the sex key is never stored.
func (s *PanelStore) UpdatePanel(ctx context.Context, title string, values PanelValues, drop []string) error {
	if title == "" {
		return errEmptyTitle
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap, _ := s.load(ctx)

	merged := snap[title]
	if merged == nil {
		merged = PanelValues{}
	}
	for name, v := range values {
		if name == SexKey || math.IsInf(v, 0) || math.IsNaN(v) {
			continue
		}
		merged[name] = v
	}
	for _, name := range drop {
		delete(merged, name)
	}
	delete(merged, SexKey)

	snap[title] = merged

	return s.save(ctx, snap)
}

// DeletePanel removes all stored values of a panel.
func (s *PanelStore) DeletePanel(ctx context.Context, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, _ := s.load(ctx)
	if _, ok := snap[title]; !ok {
		return nil
	}
	delete(snap, title)

	return s.save(ctx, snap)
}

type sexRecord struct {
	Gender string `json:"gender"`
}

type bsaRecord struct {
	BSA *float64 `json:"bsa"`
}

// ReadSex returns the session sex. Without a stored record it falls back to
// a sex stored inline by older sessions, then to male.
func (s *PanelStore) ReadSex(ctx context.Context) catalog.Sex {
	var rec sexRecord
	if s.readRecord(ctx, KeySex, &rec) {
		if sex, err := catalog.ParseSex(rec.Gender); err == nil {
			return sex
		}
	}

	if _, inline := s.load(ctx); inline != "" {
		return inline
	}

	return catalog.SexMale
}

// WriteSex persists the session sex.
func (s *PanelStore) WriteSex(ctx context.Context, sex catalog.Sex) error {
	if sex != catalog.SexMale && sex != catalog.SexFemale {
		return fmt.Errorf("%w: %q", errInvalidSex, sex)
	}
	return s.writeRecord(ctx, KeySex, sexRecord{Gender: string(sex)})
}

// ReadBSA returns the last stored body-surface area, or 0.
func (s *PanelStore) ReadBSA(ctx context.Context) float64 {
	var rec bsaRecord
	if !s.readRecord(ctx, KeyBSA, &rec) || rec.BSA == nil {
		return 0
	}
	if math.IsInf(*rec.BSA, 0) || math.IsNaN(*rec.BSA) {
		return 0
	}
	return *rec.BSA
}

// WriteBSA persists the session body-surface area.
func (s *PanelStore) WriteBSA(ctx context.Context, bsa float64) error {
	if math.IsInf(bsa, 0) || math.IsNaN(bsa) {
		return fmt.Errorf("%w: bsa", errNonFiniteValue)
	}
	return s.writeRecord(ctx, KeyBSA, bsaRecord{BSA: &bsa})
}

// readRecord decodes a small JSON record. Records wrapped in a
// {"state": {...}, "version": n} envelope are unwrapped.
func (s *PanelStore) readRecord(ctx context.Context, key string, dst any) bool {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		logger.Warn("Failed to read record", "key", key, "error", err)
		return false
	}
	if !ok || raw == "" {
		return false
	}

	var envelope struct {
		State json.RawMessage `json:"state"`
	}
	if err := json.Unmarshal([]byte(raw), &envelope); err == nil && len(envelope.State) > 0 {
		raw = string(envelope.State)
	}

	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		logger.Warn("Stored record is corrupt, ignoring", "key", key, "error", err)
		return false
	}

	return true
}

func (s *PanelStore) writeRecord(ctx context.Context, key string, rec any) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
