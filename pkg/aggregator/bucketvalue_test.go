// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBucketValueCounterMergeSample(t *testing.T) {
	b := NewBucketValueFromSample(CounterType, MetricValue{Float: 1})
	err := b.MergeSample(CounterType, MetricValue{Float: 2})
	assert.NoError(t, err)
	assert.Equal(t, 3.0, b.Counter)
}

func TestBucketValueMergeSampleRejectsTypeMismatch(t *testing.T) {
	b := NewBucketValueFromSample(CounterType, MetricValue{Float: 1})
	err := b.MergeSample(GaugeType, MetricValue{Float: 1})
	assert.Error(t, err)
	assert.True(t, IsKind(err, InvalidTypes))
}

func TestBucketValueMergeBucketRejectsTypeMismatch(t *testing.T) {
	counter := NewBucketValueFromSample(CounterType, MetricValue{Float: 1})
	gauge := NewBucketValueFromSample(GaugeType, MetricValue{Float: 1})
	err := counter.MergeBucket(gauge)
	assert.Error(t, err)
	assert.True(t, IsKind(err, InvalidTypes))
}

func TestBucketValueMergeBucketCombinesDistributions(t *testing.T) {
	a := NewBucketValueFromSample(DistributionType, MetricValue{Float: 1})
	b := NewBucketValueFromSample(DistributionType, MetricValue{Float: 1})
	err := a.MergeBucket(b)
	assert.NoError(t, err)
	assert.Equal(t, uint64(2), a.Distribution.Len())
}

func TestBucketValueCostVariesByKind(t *testing.T) {
	counter := NewBucketValueFromSample(CounterType, MetricValue{Float: 1})
	assert.Equal(t, bucketValueFixedCost, counter.Cost())

	set := NewBucketValueFromSample(SetType, MetricValue{SetMember: 1})
	set.Set.Insert(2)
	assert.Equal(t, bucketValueFixedCost+setElementCost*2, set.Cost())
}
