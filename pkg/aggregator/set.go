// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aggregator

import "sort"

// SetValue is an ordered set of 32-bit integers (already hashed by the
// caller, §3). Ascending iteration order is used for both wire
// serialization and set-idempotence (§8: inserting the same member
// twice produces the same set as once).
type SetValue struct {
	members []uint32
}

// NewSetValue returns an empty set.
func NewSetValue() *SetValue {
	return &SetValue{}
}

// SingletonSet returns a set containing exactly one member.
func SingletonSet(v uint32) *SetValue {
	return &SetValue{members: []uint32{v}}
}

// Insert adds v to the set if not already present.
func (s *SetValue) Insert(v uint32) {
	idx := sort.Search(len(s.members), func(i int) bool { return s.members[i] >= v })
	if idx < len(s.members) && s.members[idx] == v {
		return
	}
	s.members = append(s.members, 0)
	copy(s.members[idx+1:], s.members[idx:])
	s.members[idx] = v
}

// Contains reports whether v is a member of the set.
func (s *SetValue) Contains(v uint32) bool {
	idx := sort.Search(len(s.members), func(i int) bool { return s.members[i] >= v })
	return idx < len(s.members) && s.members[idx] == v
}

// Size returns the number of distinct members.
func (s *SetValue) Size() int {
	return len(s.members)
}

// Merge unions other into s.
func (s *SetValue) Merge(other *SetValue) {
	for _, m := range other.members {
		s.Insert(m)
	}
}

// Members returns the members in ascending order. The caller must not
// mutate the returned slice.
func (s *SetValue) Members() []uint32 {
	return s.members
}
