// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGaugeInsertTracksMinMaxSum(t *testing.T) {
	g := SingletonGauge(5)
	g.Insert(1)
	g.Insert(9)

	assert.Equal(t, 9.0, g.Max)
	assert.Equal(t, 1.0, g.Min)
	assert.Equal(t, 15.0, g.Sum)
	assert.Equal(t, 9.0, g.Last)
	assert.Equal(t, uint64(3), g.Count)
	assert.Equal(t, 5.0, g.Avg())
}

func TestGaugeMergeIsNotCommutativeOnLast(t *testing.T) {
	a := SingletonGauge(1)
	b := SingletonGauge(2)

	merged := *a
	merged.Merge(b)
	assert.Equal(t, 2.0, merged.Last, "Last must come from other, not the receiver")

	reverseMerged := *b
	reverseMerged.Merge(a)
	assert.Equal(t, 1.0, reverseMerged.Last)
}

func TestGaugeAvgOfZeroCountIsZero(t *testing.T) {
	g := &GaugeValue{}
	assert.Equal(t, 0.0, g.Avg())
}
