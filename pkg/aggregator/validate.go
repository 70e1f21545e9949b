// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aggregator

import (
	"regexp"
	"strings"

	"github.com/relaymetrics/aggregator/internal/cache"
)

// mriPattern matches the Metric Resource Identifier shape: a type
// prefix, a colon, and a namespaced path, optionally suffixed with
// "@unit" (see GLOSSARY). The engine only checks shape, never semantic
// validity of the prefix or path.
var mriPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*:[a-zA-Z0-9_./\-]+(@[a-zA-Z][a-zA-Z0-9_]*)?$`)

// tagKeyPattern matches allowed tag key characters.
var tagKeyPattern = regexp.MustCompile(`^[a-zA-Z0-9_.\-/]+$`)

// mriCacheSize bounds the name-shape memoization cache (enrich-from-pack
// §: DOMAIN STACK, "MRI shape-validation memoizer").
const mriCacheSize = 4096

var mriCache = cache.New[string, bool](mriCacheSize)

// validateName checks name against §4.8.1: first the length limit, then
// MRI shape.
func validateName(name string, cfg *Config) error {
	if len(name) > cfg.MaxNameLength {
		return newError(InvalidStringLength, "name %q exceeds max_name_length %d", name, cfg.MaxNameLength)
	}
	if !mriCache.GetOrCompute(name, func() bool { return mriPattern.MatchString(name) }) {
		return newError(InvalidCharacters, "name %q is not a valid MRI", name)
	}
	return nil
}

// sanitizeTags applies §4.8.1's per-tag validation and normalization to
// a copy of tags and returns that copy, leaving tags itself unchanged:
// tags whose key or value length exceeds its limit are dropped,
// tags whose key has invalid characters are dropped, and values are
// normalized (embedded NUL bytes stripped) rather than rejected, so that
// encoding errors from clients are tolerated without losing the rest of
// the bucket.
func sanitizeTags(tags *OrderedTags, cfg *Config) *OrderedTags {
	if tags.Len() == 0 {
		return tags
	}

	cleaned := tags.clone()
	for i := cleaned.Len() - 1; i >= 0; i-- {
		p := cleaned.pairs[i]
		if len(p.Key) > cfg.MaxTagKeyLength || !tagKeyPattern.MatchString(p.Key) {
			cleaned.removeAt(i)
			continue
		}

		normalized := stripNUL(p.Value)
		if len(normalized) > cfg.MaxTagValueLength {
			cleaned.removeAt(i)
			continue
		}
		cleaned.pairs[i].Value = normalized
	}
	return cleaned
}

func stripNUL(s string) string {
	if !strings.ContainsRune(s, 0) {
		return s
	}
	b := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != 0 {
			b = append(b, s[i])
		}
	}
	return string(b)
}

// validateKey validates and normalizes a candidate BucketKey in place,
// per §4.8.1. It may fail with InvalidCharacters or InvalidStringLength
// if the name itself is invalid; tag-level problems are handled by
// dropping the offending tag rather than failing the whole bucket.
func validateKey(key *BucketKey, cfg *Config) error {
	if err := validateName(key.Name, cfg); err != nil {
		return err
	}
	key.Tags = sanitizeTags(key.Tags, cfg)
	return nil
}
