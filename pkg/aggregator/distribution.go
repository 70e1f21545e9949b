// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aggregator

import (
	"math"
	"sort"
)

// distSample is a single distinct value/count pair in a DistributionValue.
type distSample struct {
	value float64
	count uint64
}

// DistributionValue is an ordered multiset of floating-point samples with
// per-value multiplicity (§4.1). Samples are kept sorted by IEEE-754
// total order, with NaN placed in a single equivalence class after every
// finite and infinite value.
type DistributionValue struct {
	samples []distSample
	length  uint64
}

// NewDistributionValue returns an empty distribution.
func NewDistributionValue() *DistributionValue {
	return &DistributionValue{}
}

// SingletonDistribution returns a distribution containing exactly one
// sample of v.
func SingletonDistribution(v float64) *DistributionValue {
	d := NewDistributionValue()
	d.Insert(v)
	return d
}

// totalOrderLess implements the total order used to sort samples: normal
// float ordering, except that NaN compares greater than every other
// value (including +Inf) and equal to itself.
func totalOrderLess(a, b float64) bool {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN && bNaN:
		return false
	case aNaN:
		return false
	case bNaN:
		return true
	default:
		return a < b
	}
}

// totalOrderEqual reports value-class equality under totalOrderLess: two
// NaNs are equal to each other, otherwise ordinary float equality.
func totalOrderEqual(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return a == b
}

func (d *DistributionValue) search(v float64) int {
	return sort.Search(len(d.samples), func(i int) bool {
		return !totalOrderLess(d.samples[i].value, v)
	})
}

// Insert adds a single occurrence of v and returns its new count.
func (d *DistributionValue) Insert(v float64) uint64 {
	return d.InsertMulti(v, 1)
}

// InsertMulti adds n occurrences of v and returns its new count. If n is
// 0, the distribution is unchanged (no entry is materialized for v) and
// 0 is returned.
func (d *DistributionValue) InsertMulti(v float64, n uint64) uint64 {
	if n == 0 {
		return 0
	}
	idx := d.search(v)
	if idx < len(d.samples) && totalOrderEqual(d.samples[idx].value, v) {
		d.samples[idx].count += n
		d.length += n
		return d.samples[idx].count
	}
	d.samples = append(d.samples, distSample{})
	copy(d.samples[idx+1:], d.samples[idx:])
	d.samples[idx] = distSample{value: v, count: n}
	d.length += n
	return n
}

// Get returns the count of v, or 0 if absent.
func (d *DistributionValue) Get(v float64) uint64 {
	idx := d.search(v)
	if idx < len(d.samples) && totalOrderEqual(d.samples[idx].value, v) {
		return d.samples[idx].count
	}
	return 0
}

// Contains reports whether v has been inserted at least once.
func (d *DistributionValue) Contains(v float64) bool {
	return d.Get(v) > 0
}

// Len returns the total number of samples (including duplicates).
func (d *DistributionValue) Len() uint64 {
	return d.length
}

// UniqueCount returns the number of distinct values stored.
func (d *DistributionValue) UniqueCount() int {
	return len(d.samples)
}

// Merge performs pointwise addition of counts from other into d.
func (d *DistributionValue) Merge(other *DistributionValue) {
	for _, s := range other.samples {
		d.InsertMulti(s.value, s.count)
	}
}

// UniqueIterator yields ascending (value, count) pairs. It is finite and
// restartable: call IterUnique again for a fresh pass.
type UniqueIterator struct {
	d   *DistributionValue
	pos int
}

// IterUnique returns a fresh, restartable iterator over ascending unique
// (value, count) pairs.
func (d *DistributionValue) IterUnique() *UniqueIterator {
	return &UniqueIterator{d: d}
}

// Next advances the iterator. It returns false once exhausted.
func (it *UniqueIterator) Next() (value float64, count uint64, ok bool) {
	if it.pos >= len(it.d.samples) {
		return 0, 0, false
	}
	s := it.d.samples[it.pos]
	it.pos++
	return s.value, s.count, true
}

// SampleIterator yields every individual sample in ascending order, each
// unique value repeated count times.
type SampleIterator struct {
	d         *DistributionValue
	pos       int
	rep       uint64
	remaining uint64
}

// IterSamples returns a fresh, restartable iterator over every sample.
func (d *DistributionValue) IterSamples() *SampleIterator {
	return &SampleIterator{d: d, remaining: d.length}
}

// Next advances the iterator, returning false once exhausted.
func (it *SampleIterator) Next() (value float64, ok bool) {
	for it.rep == 0 {
		if it.pos >= len(it.d.samples) {
			return 0, false
		}
		it.rep = it.d.samples[it.pos].count
		it.pos++
	}
	it.rep--
	it.remaining--
	return it.d.samples[it.pos-1].value, true
}

// Remaining reports how many samples are left to yield: the current
// total count minus samples already produced by this iterator.
func (it *SampleIterator) Remaining() uint64 {
	return it.remaining
}
