/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package calc

import (
	"math"

	"github.com/humaidq/echocalc/catalog"
)

// Bucket is a three-way position against a reference range.
type Bucket string

// Bucket values; BucketUnknown means no range applied.
const (
	BucketBelow   Bucket = "below"
	BucketInRange Bucket = "in-range"
	BucketAbove   Bucket = "above"
	BucketUnknown Bucket = "unknown"
)

// Classification is the absolute and BSA-indexed position of one value.
type Classification struct {
	Absolute      Bucket                  `json:"absolute"`
	AbsoluteRange *catalog.ReferenceRange `json:"absoluteRange,omitempty"`

	Indexed        Bucket                  `json:"indexed"`
	IndexedRange   *catalog.ReferenceRange `json:"indexedRange,omitempty"`
	IndexedValue   float64                 `json:"indexedValue,omitempty"`
	IndexedDisplay string                  `json:"indexedDisplay,omitempty"`
}

// HasIndexed reports whether an indexed value was computed.
func (c Classification) HasIndexed() bool {
	return c.IndexedDisplay != ""
}

// Classify places value against field's reference ranges for sex. The
// indexed range is only consulted when bsa is positive. It never fails;
// anything missing yields BucketUnknown.
func Classify(value float64, sex catalog.Sex, field *catalog.FieldDescriptor, bsa float64) Classification {
	c := Classification{Absolute: BucketUnknown, Indexed: BucketUnknown}
	if field == nil || !isFinite(value) {
		return c
	}

	if r := field.AbsoluteReferenceRange.For(sex); r != nil {
		c.Absolute = bucket(value, r)
		c.AbsoluteRange = r
	}

	r := field.BSAIndexedReferenceRange.For(sex)
	if r == nil || !(bsa > 0) || !isFinite(bsa) {
		return c
	}

	c.IndexedRange = r
	indexed := value / bsa
	if !isFinite(indexed) {
		return c
	}

	c.Indexed = bucket(indexed, r)
	c.IndexedValue = indexed
	c.IndexedDisplay = FormatTrimmed(indexed, 2)

	return c
}

func bucket(v float64, r *catalog.ReferenceRange) Bucket {
	switch {
	case v < r.LowerValue:
		return BucketBelow
	case v > r.HigherValue:
		return BucketAbove
	default:
		return BucketInRange
	}
}

func isFinite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}
