// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetInsertIsIdempotent(t *testing.T) {
	s := NewSetValue()
	s.Insert(7)
	s.Insert(7)
	s.Insert(3)

	assert.Equal(t, 2, s.Size())
	assert.Equal(t, []uint32{3, 7}, s.Members())
}

func TestSetMergeUnions(t *testing.T) {
	a := NewSetValue()
	a.Insert(1)
	b := NewSetValue()
	b.Insert(1)
	b.Insert(2)

	a.Merge(b)
	assert.Equal(t, 2, a.Size())
	assert.True(t, a.Contains(2))
}
