// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aggregator

// MetricType identifies which of the four aggregation kinds a metric uses.
type MetricType uint8

const (
	CounterType MetricType = iota
	DistributionType
	SetType
	GaugeType
)

// String returns the single-letter wire discriminator for t (§4.9).
func (t MetricType) String() string {
	switch t {
	case CounterType:
		return "c"
	case DistributionType:
		return "d"
	case SetType:
		return "s"
	case GaugeType:
		return "g"
	default:
		return "?"
	}
}

func metricTypeFromString(s string) (MetricType, bool) {
	switch s {
	case "c":
		return CounterType, true
	case "d":
		return DistributionType, true
	case "s":
		return SetType, true
	case "g":
		return GaugeType, true
	default:
		return 0, false
	}
}

// MetricUnit is an opaque unit token. The zero value is "no unit"; the
// aggregator never converts between units, it only treats the unit as
// part of a metric's identity.
type MetricUnit string

// UnitNone is the absence of a unit.
const UnitNone MetricUnit = ""

// ProjectKey is an opaque tenant identifier, compared by bytes.
type ProjectKey string

// UnixTimestamp is seconds since the Unix epoch.
type UnixTimestamp uint64

// MetricValue is the payload of a single sample. Exactly one ingest path
// (insert) produces these; their Go type alone does not determine which
// BucketValue variant they target, the caller-supplied MetricType does.
type MetricValue struct {
	// Float is used for Counter, Distribution and Gauge samples.
	Float float64
	// SetMember is used for Set samples: a 32-bit value, already hashed
	// by the caller.
	SetMember uint32
}

// Metric is a single incoming metric submission.
type Metric struct {
	Project   ProjectKey
	Name      string
	Type      MetricType
	Unit      MetricUnit
	Timestamp UnixTimestamp
	Tags      *OrderedTags
	Value     MetricValue
}

// Bucket is a complete input or output bucket. On input, Width selects
// the target aligned timestamp (§4.5); on output Width always equals the
// aggregator's configured bucket_interval.
type Bucket struct {
	Timestamp UnixTimestamp
	Width     uint64
	Name      string
	Unit      MetricUnit
	Type      MetricType
	Tags      *OrderedTags
	Value     *BucketValue
}
