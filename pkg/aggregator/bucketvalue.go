// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aggregator

// Fixed and per-element cost constants for the approximate byte
// accounting of §4.3. These are deliberately nominal: the estimate must
// match across implementations so operator-tuned byte budgets remain
// comparable, not track real allocator overhead (§9, "Cost
// under-counting").
const (
	// bucketValueFixedCost is the size of the tagged-union representation
	// shared by all four BucketValue variants.
	bucketValueFixedCost = 48
	// setElementCost is sizeof(uint32), one set member.
	setElementCost = 4
	// distEntryCost is sizeof(float64) + sizeof(count), one distinct
	// distribution value.
	distEntryCost = 8 + 8
)

// BucketValue is the tagged union over the four aggregation kinds
// (§3, §4.3). Exactly one of the pointer fields is non-nil, matching
// the Type discriminator.
type BucketValue struct {
	Type MetricType

	Counter      float64
	Distribution *DistributionValue
	Set          *SetValue
	Gauge        *GaugeValue
}

// NewBucketValueFromSample constructs a singleton BucketValue from one
// sample of the given type (§4.3).
func NewBucketValueFromSample(t MetricType, v MetricValue) *BucketValue {
	switch t {
	case CounterType:
		return &BucketValue{Type: CounterType, Counter: v.Float}
	case DistributionType:
		return &BucketValue{Type: DistributionType, Distribution: SingletonDistribution(v.Float)}
	case SetType:
		return &BucketValue{Type: SetType, Set: SingletonSet(v.SetMember)}
	case GaugeType:
		return &BucketValue{Type: GaugeType, Gauge: SingletonGauge(v.Float)}
	default:
		return nil
	}
}

// Cost returns the approximate byte footprint of the value (§4.3, §4.4).
func (b *BucketValue) Cost() int {
	switch b.Type {
	case CounterType, GaugeType:
		return bucketValueFixedCost
	case SetType:
		return bucketValueFixedCost + setElementCost*b.Set.Size()
	case DistributionType:
		return bucketValueFixedCost + distEntryCost*b.Distribution.UniqueCount()
	default:
		return bucketValueFixedCost
	}
}

// MergeSample merges one incoming sample into b. Fails with InvalidTypes
// if t does not match b.Type.
func (b *BucketValue) MergeSample(t MetricType, v MetricValue) error {
	if t != b.Type {
		return newError(InvalidTypes, "cannot merge %s sample into %s bucket", t, b.Type)
	}
	switch t {
	case CounterType:
		b.Counter += v.Float
	case DistributionType:
		b.Distribution.Insert(v.Float)
	case SetType:
		b.Set.Insert(v.SetMember)
	case GaugeType:
		b.Gauge.Insert(v.Float)
	}
	return nil
}

// MergeBucket merges another BucketValue of the same kind into b. Fails
// with InvalidTypes on a variant mismatch — this is a hard error, never
// a silent coercion (§3, §4.3).
func (b *BucketValue) MergeBucket(other *BucketValue) error {
	if other.Type != b.Type {
		return newError(InvalidTypes, "cannot merge %s bucket into %s bucket", other.Type, b.Type)
	}
	switch b.Type {
	case CounterType:
		b.Counter += other.Counter
	case DistributionType:
		b.Distribution.Merge(other.Distribution)
	case SetType:
		b.Set.Merge(other.Set)
	case GaugeType:
		b.Gauge.Merge(other.Gauge)
	}
	return nil
}
