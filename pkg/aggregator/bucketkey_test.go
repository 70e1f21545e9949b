// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newKey(project ProjectKey, tags map[string]string) *BucketKey {
	return &BucketKey{
		Project:   project,
		Timestamp: 100,
		Name:      "cpu:load",
		Type:      CounterType,
		Unit:      UnitNone,
		Tags:      NewOrderedTags(tags),
	}
}

func TestBucketKeyEqualIgnoresTagOrder(t *testing.T) {
	a := newKey("acct1", map[string]string{"host": "n1", "cluster": "alex"})
	b := newKey("acct1", map[string]string{"cluster": "alex", "host": "n1"})
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.mapKey(), b.mapKey())
}

func TestBucketKeyNotEqualOnDifferentProject(t *testing.T) {
	a := newKey("acct1", nil)
	b := newKey("acct2", nil)
	assert.False(t, a.Equal(b))
	assert.NotEqual(t, a.mapKey(), b.mapKey())
}

func TestBucketKeyCostIncludesNameAndTags(t *testing.T) {
	k := newKey("acct1", map[string]string{"host": "n1"})
	assert.Equal(t, bucketKeyFixedCost+len("cpu:load")+len("host")+len("n1"), k.Cost())
}
