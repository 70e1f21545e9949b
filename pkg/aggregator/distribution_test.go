// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aggregator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistributionInsertTracksCounts(t *testing.T) {
	d := NewDistributionValue()
	d.Insert(1.0)
	d.Insert(1.0)
	d.Insert(2.0)

	assert.Equal(t, uint64(3), d.Len())
	assert.Equal(t, 2, d.UniqueCount())
	assert.True(t, d.Contains(1.0))
	assert.Equal(t, uint64(2), d.Get(1.0))
}

func TestDistributionInsertMultiZeroIsNoOp(t *testing.T) {
	d := NewDistributionValue()
	n := d.InsertMulti(5.0, 0)
	assert.Equal(t, uint64(0), n)
	assert.Equal(t, uint64(0), d.Len())
}

func TestDistributionMerge(t *testing.T) {
	a := NewDistributionValue()
	a.Insert(1.0)
	b := NewDistributionValue()
	b.Insert(1.0)
	b.Insert(2.0)

	a.Merge(b)
	assert.Equal(t, uint64(3), a.Len())
	assert.Equal(t, uint64(2), a.Get(1.0))
}

func TestDistributionNaNIsSingleEquivalenceClass(t *testing.T) {
	d := NewDistributionValue()
	d.Insert(math.NaN())
	d.Insert(math.NaN())

	assert.Equal(t, uint64(2), d.Len())
	assert.Equal(t, 1, d.UniqueCount())
	assert.Equal(t, uint64(2), d.Get(math.NaN()))
}

func TestDistributionTotalOrderNaNSortsLast(t *testing.T) {
	d := NewDistributionValue()
	d.Insert(math.Inf(1))
	d.Insert(math.NaN())
	d.Insert(-1.0)
	d.Insert(0.0)

	it := d.IterUnique()
	var values []float64
	for v, _, ok := it.Next(); ok; v, _, ok = it.Next() {
		values = append(values, v)
	}

	assert.Len(t, values, 4)
	assert.True(t, math.IsNaN(values[3]), "NaN must sort after +Inf")
	assert.Equal(t, math.Inf(1), values[2])
}

func TestDistributionSampleIteratorExpandsCounts(t *testing.T) {
	d := NewDistributionValue()
	d.InsertMulti(7.0, 3)

	it := d.IterSamples()
	n := 0
	for _, ok := it.Next(); ok; _, ok = it.Next() {
		n++
	}
	assert.Equal(t, 3, n)
}
