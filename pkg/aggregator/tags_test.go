// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderedTagsEqualIgnoresInsertionOrder(t *testing.T) {
	a := NewOrderedTags(map[string]string{"host": "n1", "cluster": "alex"})
	b := NewOrderedTags(map[string]string{"cluster": "alex", "host": "n1"})
	assert.True(t, a.Equal(b))
}

func TestOrderedTagsEqualDetectsDifference(t *testing.T) {
	a := NewOrderedTags(map[string]string{"host": "n1"})
	b := NewOrderedTags(map[string]string{"host": "n2"})
	assert.False(t, a.Equal(b))
}

func TestOrderedTagsRangeIsSortedByKey(t *testing.T) {
	tags := NewOrderedTags(map[string]string{"z": "1", "a": "2", "m": "3"})
	var keys []string
	tags.Range(func(k, v string) { keys = append(keys, k) })
	assert.Equal(t, []string{"a", "m", "z"}, keys)
}

func TestOrderedTagsKeyIsStableAcrossInsertionOrder(t *testing.T) {
	a := NewOrderedTags(map[string]string{"host": "n1", "cluster": "alex"})
	b := NewOrderedTags(map[string]string{"cluster": "alex", "host": "n1"})
	assert.Equal(t, a.key(), b.key())
}

func TestOrderedTagsCost(t *testing.T) {
	tags := NewOrderedTags(map[string]string{"host": "n1"}) // "host" (4) + "n1" (2)
	assert.Equal(t, 6, tags.cost())
}

func TestOrderedTagsAsMapEmptyIsNil(t *testing.T) {
	tags := &OrderedTags{}
	assert.Nil(t, tags.AsMap())
}

func TestOrderedTagsSetOverwritesExisting(t *testing.T) {
	tags := NewOrderedTags(map[string]string{"host": "n1"})
	tags.set("host", "n2")
	assert.Equal(t, 1, tags.Len())
	v, ok := tags.AsMap()["host"]
	assert.True(t, ok)
	assert.Equal(t, "n2", v)
}
