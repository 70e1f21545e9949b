// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aggregator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/go-co-op/gocron/v2"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/semaphore"
)

// state is the lifecycle of an Aggregator (§4.7, "Shutdown"). It only
// ever moves forward: Running -> ShuttingDown. There is no way back.
type state int32

const (
	stateRunning state = iota
	stateShuttingDown
)

// Aggregator is the pre-aggregation engine: the single owner of every
// live bucket entry, merging incoming samples and whole buckets into
// them and flushing them to a Receiver on a schedule (§4, §5, §6, §7).
//
// All mutation of the live map happens while mu is held, which is this
// package's version of the teacher's actor-or-mutex rule for anything
// the sweep goroutine also touches: a single lock taken for the
// duration of a merge or of a sweep's collection pass, never released
// mid-mutation. The lock is not held while buckets are delivered.
type Aggregator struct {
	cfg      Config
	receiver Receiver
	metrics  *metrics

	mu    sync.Mutex
	live  map[string]*liveEntry
	cost  *CostTracker
	state atomic.Int32

	sched       gocron.Scheduler
	sweeper     gocron.Job
	deliverySem *semaphore.Weighted

	wallOffset time.Time // wall clock captured at New, used as the epochMapper origin
	monoOrigin time.Time // monotonic clock captured at New, paired with wallOffset

	shutdownOnce sync.Once
}

// liveEntry is one row of the live map: a key, its current value, and
// the monotonic instant at which it must be flushed (§4.5, §4.7).
// lastCost is the byte cost last charged to the CostTracker for this
// entry (key cost, charged once, plus the value cost at the time of
// the last merge), so a later merge can charge only the delta.
type liveEntry struct {
	key      *BucketKey
	value    *BucketValue
	flushAt  time.Time
	lastCost int
}

// maxConcurrentDeliveries bounds how many projects' Flush calls run at
// once during a single sweep (DOMAIN STACK: golang.org/x/sync
// semaphore). The sweep itself still runs on a single gocron job; this
// only bounds the fan-out of Receiver.Flush calls it makes.
const maxConcurrentDeliveries = 8

// sweepInterval is the fixed cadence of the flush sweep (§4.7).
const sweepInterval = 100 * time.Millisecond

// New constructs an Aggregator bound to receiver and starts its
// background sweep. reg may be nil, in which case the default
// Prometheus registerer is used, mirroring how the rest of the
// retrieval pack's promauto call sites behave when unconfigured.
func New(cfg Config, receiver Receiver, reg prometheus.Registerer) (*Aggregator, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, newError(InvalidTypes, "creating scheduler: %s", err.Error())
	}

	a := &Aggregator{
		cfg:         cfg,
		receiver:    receiver,
		metrics:     newMetrics(reg),
		live:        make(map[string]*liveEntry),
		cost:        NewCostTracker(),
		sched:       sched,
		deliverySem: semaphore.NewWeighted(maxConcurrentDeliveries),
		wallOffset:  time.Now(),
		monoOrigin:  time.Now(),
	}

	job, err := sched.NewJob(
		gocron.DurationJob(sweepInterval),
		gocron.NewTask(a.sweep),
	)
	if err != nil {
		return nil, newError(InvalidTypes, "registering sweep job: %s", err.Error())
	}
	a.sweeper = job

	sched.Start()
	cclog.Infof("[AGGREGATOR]> started, bucket_interval=%ds sweep=%s", cfg.BucketInterval, sweepInterval)
	return a, nil
}

// AcceptsMetrics reports whether the engine is under its configured
// total byte budget (§6): true iff the tracked total cost has not
// reached MaxTotalBucketBytes. Shutdown does not affect this predicate
// — ingest is still accepted while ShuttingDown (§4.8.2).
func (a *Aggregator) AcceptsMetrics() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return !a.cost.totalsExceeded(a.cfg.MaxTotalBucketBytes)
}

func (a *Aggregator) epoch(now time.Time) wallClockEpoch {
	return wallClockEpoch{WallNow: a.wallOffset.Add(now.Sub(a.monoOrigin))}
}

// Insert ingests a single sample (§4.1-4.3, §4.8). It is the entry
// point used by any transport adapter translating a wire sample into a
// Metric.
func (a *Aggregator) Insert(m Metric) error {
	now := UnixTimestamp(time.Now().Unix())
	aligned, err := a.cfg.alignedTimestamp(m.Timestamp, 0, now)
	if err != nil {
		return err
	}

	tags := m.Tags
	if tags == nil {
		tags = &OrderedTags{}
	}
	key := &BucketKey{
		Project:   m.Project,
		Timestamp: aligned,
		Name:      m.Name,
		Type:      m.Type,
		Unit:      m.Unit,
		Tags:      tags,
	}
	if err := validateKey(key, &a.cfg); err != nil {
		return err
	}

	a.metrics.insert.Inc()
	return a.mergeSampleIn(key, m.Value)
}

// Merge ingests one already-complete Bucket for project (§4.8,
// "merge"), as used by adapters that receive pre-aggregated buckets
// from upstream (e.g. a sidecar forwarding partial aggregates).
func (a *Aggregator) Merge(project ProjectKey, bucket Bucket) error {
	now := UnixTimestamp(time.Now().Unix())
	aligned, err := a.cfg.alignedTimestamp(bucket.Timestamp, bucket.Width, now)
	if err != nil {
		return err
	}

	tags := bucket.Tags
	if tags == nil {
		tags = &OrderedTags{}
	}
	key := &BucketKey{
		Project:   project,
		Timestamp: aligned,
		Name:      bucket.Name,
		Type:      bucket.Type,
		Unit:      bucket.Unit,
		Tags:      tags,
	}
	if err := validateKey(key, &a.cfg); err != nil {
		return err
	}

	return a.mergeBucketIn(key, bucket.Value)
}

// MergeAll ingests a batch of buckets for project, continuing past
// per-bucket failures rather than aborting the whole batch (matching
// the sweep's own merge-back behavior: one bad bucket never takes
// down its siblings). It never propagates an aggregate error — each
// failure is logged and the rest of the batch is still attempted
// (§6, §7).
func (a *Aggregator) MergeAll(project ProjectKey, buckets []Bucket) error {
	for _, b := range buckets {
		if err := a.Merge(project, b); err != nil {
			cclog.Warnf("[AGGREGATOR]> merge_all: dropping bucket %q for project %q: %s", b.Name, project, err.Error())
		}
	}
	return nil
}

// mergeSampleIn implements merge_in for a single sample (§4.6): admission
// check, then lookup-or-create, then merge.
func (a *Aggregator) mergeSampleIn(key *BucketKey, v MetricValue) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.cost.checkAdmission(key.Project, a.cfg.MaxTotalBucketBytes, a.cfg.MaxProjectKeyBucketBytes); err != nil {
		a.metrics.dropped.Inc()
		return err
	}

	mk := key.mapKey()
	existing, found := a.live[mk]
	if found {
		if err := existing.value.MergeSample(key.Type, v); err != nil {
			return err
		}
		a.metrics.mergeHit.Inc()
		a.recomputeCost(key.Project, existing)
		return nil
	}

	value := NewBucketValueFromSample(key.Type, v)
	a.createEntry(mk, key, value)
	a.metrics.mergeMiss.Inc()
	return nil
}

// mergeBucketIn implements merge_in for a whole bucket value.
func (a *Aggregator) mergeBucketIn(key *BucketKey, v *BucketValue) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.cost.checkAdmission(key.Project, a.cfg.MaxTotalBucketBytes, a.cfg.MaxProjectKeyBucketBytes); err != nil {
		a.metrics.dropped.Inc()
		return err
	}

	mk := key.mapKey()
	existing, found := a.live[mk]
	if found {
		if err := existing.value.MergeBucket(v); err != nil {
			return err
		}
		a.metrics.mergeHit.Inc()
		a.recomputeCost(key.Project, existing)
		return nil
	}

	a.createEntry(mk, key, v)
	a.metrics.mergeMiss.Inc()
	return nil
}

// createEntry installs a brand-new live entry under lock and charges
// its full cost (key + initial value), per §4.4: the key's cost is
// charged once, at creation.
func (a *Aggregator) createEntry(mk string, key *BucketKey, value *BucketValue) {
	now := time.Now()
	flushAt, backdated := a.cfg.flushDeadline(key.Timestamp, key.Project, now, a.epoch(now))

	cost := key.Cost() + value.Cost()
	entry := &liveEntry{key: key, value: value, flushAt: flushAt, lastCost: cost}
	a.live[mk] = entry
	a.cost.add(key.Project, cost)

	a.metrics.recordCreated(key)
	a.metrics.recordDelay(key.Timestamp, UnixTimestamp(now.Unix()), backdated)
	a.updateGauges()
}

// recomputeCost re-charges project for an entry whose value grew as the
// result of a merge, charging only the delta against what was last
// tracked for it (the key's own cost is fixed and charged once, at
// creation; only the value can grow after that, §4.4).
func (a *Aggregator) recomputeCost(project ProjectKey, entry *liveEntry) {
	newCost := entry.key.Cost() + entry.value.Cost()
	delta := newCost - entry.lastCost
	if delta != 0 {
		a.cost.add(project, delta)
		entry.lastCost = newCost
	}
	a.updateGauges()
}

func (a *Aggregator) updateGauges() {
	a.metrics.bucketsGauge.Set(float64(len(a.live)))
	a.metrics.bucketsCostGauge.Set(float64(a.cost.Total()))
}

// Shutdown transitions the engine to ShuttingDown (§4.7): the sweep
// stops accepting new scheduled work and every remaining live bucket is
// flushed immediately regardless of its scheduled deadline. Ingest via
// Insert/Merge is still accepted afterwards (§4.8.2) — AcceptsMetrics
// is driven only by the cost budget, not by shutdown state. ctx bounds
// how long the final flush may take; entries that cannot be delivered
// before ctx expires are dropped and counted
// (metrics_buckets_dropped_total).
func (a *Aggregator) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.shutdownOnce.Do(func() {
		a.state.Store(int32(stateShuttingDown))
		cclog.Info("[AGGREGATOR]> shutting down, flushing remaining buckets")

		if err := a.sched.Shutdown(); err != nil {
			cclog.Errorf("[AGGREGATOR]> scheduler shutdown: %s", err.Error())
		}

		shutdownErr = a.flushAll(ctx, true)
	})
	return shutdownErr
}
