// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aggregator

import (
	"hash/fnv"
	"math/bits"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics is the observability surface of §6. Names are the stable
// contract; values are advisory. newMetrics registers everything on the
// registerer it is given; New passes the caller's registerer, or the
// global default registerer when the caller passes nil.
type metrics struct {
	insert             prometheus.Counter
	mergeHit           prometheus.Counter
	mergeMiss          prometheus.Counter
	dropped            prometheus.Counter
	bucketsGauge       prometheus.Gauge
	bucketsCostGauge   prometheus.Gauge
	flushed            prometheus.Histogram
	flushedPerProject  prometheus.Histogram
	delay              *prometheus.HistogramVec
	createdUniqueGauge prometheus.Gauge

	uniqueSketch *distinctSketch
}

func newMetrics(reg prometheus.Registerer) *metrics {
	fac := promauto.With(reg)
	return &metrics{
		insert: fac.NewCounter(prometheus.CounterOpts{
			Name: "metrics_insert_total",
			Help: "Number of Insert calls accepted by the aggregator.",
		}),
		mergeHit: fac.NewCounter(prometheus.CounterOpts{
			Name: "metrics_buckets_merge_hit_total",
			Help: "Number of merges into an already-live bucket entry.",
		}),
		mergeMiss: fac.NewCounter(prometheus.CounterOpts{
			Name: "metrics_buckets_merge_miss_total",
			Help: "Number of merges that created a new live bucket entry.",
		}),
		dropped: fac.NewCounter(prometheus.CounterOpts{
			Name: "metrics_buckets_dropped_total",
			Help: "Number of buckets dropped (refused at admission, rejected merge-back, or undelivered at shutdown).",
		}),
		bucketsGauge: fac.NewGauge(prometheus.GaugeOpts{
			Name: "metrics_buckets",
			Help: "Number of buckets currently live.",
		}),
		bucketsCostGauge: fac.NewGauge(prometheus.GaugeOpts{
			Name: "metrics_buckets_cost",
			Help: "Total tracked byte cost of all live buckets.",
		}),
		flushed: fac.NewHistogram(prometheus.HistogramOpts{
			Name: "metrics_buckets_flushed",
			Help: "Number of buckets flushed per sweep.",
		}),
		flushedPerProject: fac.NewHistogram(prometheus.HistogramOpts{
			Name: "metrics_buckets_flushed_per_project",
			Help: "Number of buckets flushed per project, per sweep.",
		}),
		delay: fac.NewHistogramVec(prometheus.HistogramOpts{
			Name: "metrics_buckets_delay",
			Help: "Seconds between a bucket's aligned timestamp and the creation of its live entry.",
		}, []string{"backdated"}),
		createdUniqueGauge: fac.NewGauge(prometheus.GaugeOpts{
			Name: "metrics_buckets_created_unique",
			Help: "Approximate count of distinct BucketKeys ever created (Flajolet-Martin sketch).",
		}),
		uniqueSketch: newDistinctSketch(),
	}
}

// recordCreated seeds the distinct-bucket-creation sketch with a lossy
// 32-bit hash of the key (§6: "seeded with a lossy 32-bit hash of the
// BucketKey").
func (m *metrics) recordCreated(key *BucketKey) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key.mapKey()))
	m.uniqueSketch.add(h.Sum32())
	m.createdUniqueGauge.Set(m.uniqueSketch.estimate())
}

func (m *metrics) recordDelay(alignedTS UnixTimestamp, now UnixTimestamp, backdated bool) {
	delay := float64(int64(now) - int64(alignedTS))
	label := "false"
	if backdated {
		label = "true"
	}
	m.delay.WithLabelValues(label).Observe(delay)
}

// distinctSketch is a Flajolet-Martin probabilistic distinct counter:
// bounded, constant-size, and approximate by design, matching the
// source's own "lossy" language (§6). Neither the teacher nor the rest
// of the retrieval pack vendors a distinct-count sketch library, so this
// is implemented directly against the standard library (see DESIGN.md).
type distinctSketch struct {
	mu       sync.Mutex
	bitmap   uint64
	maxTrail int
}

func newDistinctSketch() *distinctSketch {
	return &distinctSketch{}
}

func (s *distinctSketch) add(h uint32) {
	trail := bits.TrailingZeros32(h | (1 << 31))
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bitmap |= 1 << uint(trail)
	if trail > s.maxTrail {
		s.maxTrail = trail
	}
}

func (s *distinctSketch) estimate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	// First zero bit in the bitmap, Flajolet-Martin's R statistic.
	r := 0
	for s.bitmap&(1<<uint(r)) != 0 {
		r++
	}
	return float64(uint64(1) << uint(r))
}
