// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aggregator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAlignedTimestampSnapsToBucketInterval(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BucketInterval = 10

	ts, err := cfg.alignedTimestamp(1234, 0, 1234)
	assert.NoError(t, err)
	assert.Equal(t, UnixTimestamp(1230), ts)
}

func TestAlignedTimestampUsesSampleMidpointForWidth(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BucketInterval = 10

	// center = 1200 + 20/2 = 1210 -> aligned to 1210
	ts, err := cfg.alignedTimestamp(1200, 20, 1210)
	assert.NoError(t, err)
	assert.Equal(t, UnixTimestamp(1210), ts)
}

func TestAlignedTimestampRejectsTooFarInPast(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSecsInPast = 100

	_, err := cfg.alignedTimestamp(0, 0, 1000)
	assert.Error(t, err)
	assert.True(t, IsKind(err, InvalidTimestamp))
}

func TestAlignedTimestampRejectsTooFarInFuture(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSecsInFuture = 60

	_, err := cfg.alignedTimestamp(10000, 0, 1000)
	assert.Error(t, err)
	assert.True(t, IsKind(err, InvalidTimestamp))
}

func TestProjectShiftMillisIsDeterministic(t *testing.T) {
	a := projectShiftMillis("acct1", 10)
	b := projectShiftMillis("acct1", 10)
	assert.Equal(t, a, b)
	assert.Less(t, a, uint64(10*1000))
}

func TestProjectShiftMillisVariesByProject(t *testing.T) {
	a := projectShiftMillis("acct1", 10)
	b := projectShiftMillis("acct2", 10)
	assert.NotEqual(t, a, b, "distinct projects should (overwhelmingly likely) land on distinct jitter")
}

func TestFlushDeadlineRealTimeBucketGetsJitteredInitialDelay(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BucketInterval = 10
	cfg.InitialDelay = 30

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	epoch := wallClockEpoch{WallNow: now}

	// aligned timestamp equals "now" in epoch terms, so bucketEnd+initialDelay
	// is still well in the future relative to now.
	ts := UnixTimestamp(now.Unix())
	flushAt, backdated := cfg.flushDeadline(ts, "acct1", now, epoch)

	assert.False(t, backdated)
	assert.True(t, flushAt.After(now))
	// Must land within one bucket interval of the un-jittered deadline.
	base := now.Add(cfg.bucketIntervalDuration()).Add(cfg.initialDelayDuration())
	assert.True(t, !flushAt.Before(base))
	assert.True(t, flushAt.Before(base.Add(cfg.bucketIntervalDuration())))
}

func TestFlushDeadlineBackdatedBucketUsesDebounceDelay(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BucketInterval = 10
	cfg.InitialDelay = 30
	cfg.DebounceDelay = 10

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	epoch := wallClockEpoch{WallNow: now}

	// A timestamp far enough in the past that bucketEnd+initialDelay has
	// already elapsed relative to now.
	ts := UnixTimestamp(now.Add(-1 * time.Hour).Unix())
	flushAt, backdated := cfg.flushDeadline(ts, "acct1", now, epoch)

	assert.True(t, backdated)
	assert.Equal(t, now.Add(cfg.debounceDelayDuration()), flushAt)
}
