// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aggregator

import (
	"encoding/json"
	"fmt"
)

// wireGauge is the canonical JSON shape of a gauge value (§4.9).
type wireGauge struct {
	Max   float64 `json:"max"`
	Min   float64 `json:"min"`
	Sum   float64 `json:"sum"`
	Last  float64 `json:"last"`
	Count uint64  `json:"count"`
}

// wireBucket mirrors the canonical field order of §4.9:
// timestamp, width, name, unit (omitted when none), type, value,
// tags (omitted when empty). Go's encoding/json marshals struct fields
// in declaration order, which is what makes the round-trip property
// (§8) hold without any manual buffer-building.
type wireBucket struct {
	Timestamp uint64            `json:"timestamp"`
	Width     uint64            `json:"width"`
	Name      string            `json:"name"`
	Unit      string            `json:"unit,omitempty"`
	Type      string            `json:"type"`
	Value     any               `json:"value"`
	Tags      map[string]string `json:"tags,omitempty"`
}

// rawWireBucket is used only for decoding, where Value must stay raw
// until Type is known.
type rawWireBucket struct {
	Timestamp uint64            `json:"timestamp"`
	Width     uint64            `json:"width"`
	Name      string            `json:"name"`
	Unit      string            `json:"unit,omitempty"`
	Type      string            `json:"type"`
	Value     json.RawMessage   `json:"value"`
	Tags      map[string]string `json:"tags,omitempty"`
}

// MarshalJSON renders b in the canonical form of §4.9.
func (b Bucket) MarshalJSON() ([]byte, error) {
	w := wireBucket{
		Timestamp: uint64(b.Timestamp),
		Width:     b.Width,
		Name:      b.Name,
		Unit:      string(b.Unit),
		Type:      b.Type.String(),
		Tags:      b.Tags.AsMap(),
	}

	switch b.Type {
	case CounterType:
		w.Value = b.Value.Counter
	case DistributionType:
		samples := make([]float64, 0, b.Value.Distribution.Len())
		it := b.Value.Distribution.IterSamples()
		for v, ok := it.Next(); ok; v, ok = it.Next() {
			samples = append(samples, v)
		}
		w.Value = samples
	case SetType:
		members := b.Value.Set.Members()
		out := make([]uint32, len(members))
		copy(out, members)
		w.Value = out
	case GaugeType:
		g := b.Value.Gauge
		w.Value = wireGauge{Max: g.Max, Min: g.Min, Sum: g.Sum, Last: g.Last, Count: g.Count}
	default:
		return nil, fmt.Errorf("[AGGREGATOR]> unknown bucket type %v", b.Type)
	}

	return json.Marshal(w)
}

// UnmarshalJSON parses a single bucket object of the §4.9 wire format.
func (b *Bucket) UnmarshalJSON(data []byte) error {
	var raw rawWireBucket
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	t, ok := metricTypeFromString(raw.Type)
	if !ok {
		return fmt.Errorf("[AGGREGATOR]> unknown bucket type discriminator %q", raw.Type)
	}

	value := &BucketValue{Type: t}
	switch t {
	case CounterType:
		var v float64
		if err := json.Unmarshal(raw.Value, &v); err != nil {
			return err
		}
		value.Counter = v
	case DistributionType:
		var samples []float64
		if err := json.Unmarshal(raw.Value, &samples); err != nil {
			return err
		}
		value.Distribution = NewDistributionValue()
		for _, s := range samples {
			value.Distribution.Insert(s)
		}
	case SetType:
		var members []uint32
		if err := json.Unmarshal(raw.Value, &members); err != nil {
			return err
		}
		value.Set = NewSetValue()
		for _, m := range members {
			value.Set.Insert(m)
		}
	case GaugeType:
		var g wireGauge
		if err := json.Unmarshal(raw.Value, &g); err != nil {
			return err
		}
		value.Gauge = &GaugeValue{Max: g.Max, Min: g.Min, Sum: g.Sum, Last: g.Last, Count: g.Count}
	}

	b.Timestamp = UnixTimestamp(raw.Timestamp)
	b.Width = raw.Width
	b.Name = raw.Name
	b.Unit = MetricUnit(raw.Unit)
	b.Type = t
	if len(raw.Tags) > 0 {
		b.Tags = NewOrderedTags(raw.Tags)
	} else {
		b.Tags = &OrderedTags{}
	}
	b.Value = value
	return nil
}

// ParseBuckets decodes the §4.9 JSON array wire format.
func ParseBuckets(data []byte) ([]Bucket, error) {
	var buckets []Bucket
	if err := json.Unmarshal(data, &buckets); err != nil {
		return nil, fmt.Errorf("[AGGREGATOR]> parsing buckets: %w", err)
	}
	return buckets, nil
}

// SerializeBuckets encodes buckets as the §4.9 JSON array wire format.
func SerializeBuckets(buckets []Bucket) ([]byte, error) {
	return json.Marshal(buckets)
}
