// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aggregator

import "sort"

// tagPair is a single key/value tag entry.
type tagPair struct {
	Key   string
	Value string
}

// OrderedTags is a mapping<string,string> whose iteration order is
// deterministic regardless of insertion order, and whose equality is by
// key/value content alone (§3: "tag mapping equality is by key-value
// content... but iteration must be deterministic").
//
// The mapping is kept sorted by key, which gives both properties for
// free and keeps the common small tag sets (a handful of entries)
// cheap to scan linearly.
type OrderedTags struct {
	pairs []tagPair
}

// NewOrderedTags builds an OrderedTags from an unordered map, sorting by
// key. Later duplicate keys in the input overwrite earlier ones.
func NewOrderedTags(m map[string]string) *OrderedTags {
	if len(m) == 0 {
		return &OrderedTags{}
	}
	t := &OrderedTags{pairs: make([]tagPair, 0, len(m))}
	for k, v := range m {
		t.pairs = append(t.pairs, tagPair{Key: k, Value: v})
	}
	sort.Slice(t.pairs, func(i, j int) bool { return t.pairs[i].Key < t.pairs[j].Key })
	return t
}

// Len returns the number of tags.
func (t *OrderedTags) Len() int {
	if t == nil {
		return 0
	}
	return len(t.pairs)
}

// Range calls fn for each tag in ascending key order.
func (t *OrderedTags) Range(fn func(key, value string)) {
	if t == nil {
		return
	}
	for _, p := range t.pairs {
		fn(p.Key, p.Value)
	}
}

// set overwrites or appends the value for key, keeping pairs sorted.
func (t *OrderedTags) set(key, value string) {
	idx := sort.Search(len(t.pairs), func(i int) bool { return t.pairs[i].Key >= key })
	if idx < len(t.pairs) && t.pairs[idx].Key == key {
		t.pairs[idx].Value = value
		return
	}
	t.pairs = append(t.pairs, tagPair{})
	copy(t.pairs[idx+1:], t.pairs[idx:])
	t.pairs[idx] = tagPair{Key: key, Value: value}
}

// removeAt drops the tag at index idx.
func (t *OrderedTags) removeAt(idx int) {
	t.pairs = append(t.pairs[:idx], t.pairs[idx+1:]...)
}

// clone returns a deep copy, safe to mutate independently of t.
func (t *OrderedTags) clone() *OrderedTags {
	if t == nil || len(t.pairs) == 0 {
		return &OrderedTags{}
	}
	cp := &OrderedTags{pairs: make([]tagPair, len(t.pairs))}
	copy(cp.pairs, t.pairs)
	return cp
}

// Equal reports whether t and other have identical key/value content.
// Both are kept sorted internally, so this is a straight slice compare.
func (t *OrderedTags) Equal(other *OrderedTags) bool {
	a, b := t.pairs, other.pairs
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// key renders a canonical string usable as a Go map key component.
func (t *OrderedTags) key() string {
	if t.Len() == 0 {
		return ""
	}
	// NUL cannot appear in tag keys/values post validation (keys are
	// restricted by tagKeyPattern, NUL bytes are stripped from values),
	// so it is safe as a field separator here.
	buf := make([]byte, 0, 32*len(t.pairs))
	for _, p := range t.pairs {
		buf = append(buf, p.Key...)
		buf = append(buf, '\x00')
		buf = append(buf, p.Value...)
		buf = append(buf, '\x00')
	}
	return string(buf)
}

// cost is the byte contribution of the tag set to a BucketKey's cost
// (§4.4): the sum of key and value byte lengths.
func (t *OrderedTags) cost() int {
	c := 0
	t.Range(func(k, v string) {
		c += len(k) + len(v)
	})
	return c
}

// AsMap renders the tags as a plain map, for callers (e.g. the wire
// format) that need ordinary map semantics.
func (t *OrderedTags) AsMap() map[string]string {
	if t.Len() == 0 {
		return nil
	}
	m := make(map[string]string, len(t.pairs))
	t.Range(func(k, v string) { m[k] = v })
	return m
}
