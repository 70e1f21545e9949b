// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aggregator

import "strconv"

// bucketKeyFixedCost is the fixed struct overhead counted by
// BucketKey.Cost (§4.4), distinct from the dynamic name/tag bytes.
const bucketKeyFixedCost = 64

// BucketKey is the composite identity of a live aggregation entry
// (§3, §4.4): {project, aligned-timestamp, name, type, unit, tags}. Two
// keys are equal iff every field is equal; tag mapping equality is by
// key/value content, independent of insertion order.
type BucketKey struct {
	Project   ProjectKey
	Timestamp UnixTimestamp
	Name      string
	Type      MetricType
	Unit      MetricUnit
	Tags      *OrderedTags
}

// Cost returns the approximate byte footprint of the key: fixed struct
// size plus the name's byte length plus the sum of tag key and value
// byte lengths (§4.4). It is charged once, at entry creation; later
// merges into the same entry do not re-count it (§4.4, §4.8).
func (k *BucketKey) Cost() int {
	return bucketKeyFixedCost + len(k.Name) + k.Tags.cost()
}

// Equal reports whether k and other identify the same bucket.
func (k *BucketKey) Equal(other *BucketKey) bool {
	return k.Project == other.Project &&
		k.Timestamp == other.Timestamp &&
		k.Name == other.Name &&
		k.Type == other.Type &&
		k.Unit == other.Unit &&
		k.Tags.Equal(other.Tags)
}

// mapKey renders a canonical string encoding suitable as a Go map key,
// such that two BucketKeys with Equal() == true always produce the same
// string, regardless of tag insertion order.
func (k *BucketKey) mapKey() string {
	buf := make([]byte, 0, 64+len(k.Name))
	buf = append(buf, k.Project...)
	buf = append(buf, '\x00')
	buf = strconv.AppendUint(buf, uint64(k.Timestamp), 10)
	buf = append(buf, '\x00')
	buf = append(buf, k.Name...)
	buf = append(buf, '\x00', byte(k.Type), '\x00')
	buf = append(buf, k.Unit...)
	buf = append(buf, '\x00')
	buf = append(buf, k.Tags.key()...)
	return string(buf)
}
