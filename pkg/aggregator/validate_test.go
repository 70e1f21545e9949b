// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateNameAcceptsMRIShape(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, validateName("cpu:load_one", &cfg))
	assert.NoError(t, validateName("mem:used@bytes", &cfg))
}

func TestValidateNameRejectsMissingColon(t *testing.T) {
	cfg := DefaultConfig()
	err := validateName("cpuload", &cfg)
	assert.Error(t, err)
	assert.True(t, IsKind(err, InvalidCharacters))
}

func TestValidateNameRejectsOverLength(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxNameLength = 5
	err := validateName("cpu:load", &cfg)
	assert.Error(t, err)
	assert.True(t, IsKind(err, InvalidStringLength))
}

func TestSanitizeTagsDropsOverlongKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTagKeyLength = 3
	tags := NewOrderedTags(map[string]string{"host": "n1", "id": "5"})

	cleaned := sanitizeTags(tags, &cfg)
	assert.Equal(t, 1, cleaned.Len())
	assert.Equal(t, "5", cleaned.AsMap()["id"])
}

func TestSanitizeTagsDropsInvalidKeyCharacters(t *testing.T) {
	cfg := DefaultConfig()
	tags := NewOrderedTags(map[string]string{"bad key!": "v", "ok-key": "v"})

	cleaned := sanitizeTags(tags, &cfg)
	assert.Equal(t, 1, cleaned.Len())
	_, hasOk := cleaned.AsMap()["ok-key"]
	assert.True(t, hasOk)
}

func TestSanitizeTagsStripsNULFromValue(t *testing.T) {
	cfg := DefaultConfig()
	tags := NewOrderedTags(map[string]string{"host": "n1\x00x"})

	cleaned := sanitizeTags(tags, &cfg)
	assert.Equal(t, "n1x", cleaned.AsMap()["host"])
}

func TestSanitizeTagsDropsValueOverlongAfterStrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTagValueLength = 3
	tags := NewOrderedTags(map[string]string{"host": "ab\x00cd"}) // "abcd" after stripping

	cleaned := sanitizeTags(tags, &cfg)
	assert.Equal(t, 0, cleaned.Len())
}

func TestValidateKeyNormalizesTagsInPlace(t *testing.T) {
	cfg := DefaultConfig()
	key := &BucketKey{
		Name: "cpu:load",
		Tags: NewOrderedTags(map[string]string{"bad key!": "v", "host": "n1"}),
	}

	err := validateKey(key, &cfg)
	assert.NoError(t, err)
	assert.Equal(t, 1, key.Tags.Len())
}

func TestMRIPatternRejectsLeadingDigit(t *testing.T) {
	assert.False(t, mriPattern.MatchString("1cpu:load"))
}
