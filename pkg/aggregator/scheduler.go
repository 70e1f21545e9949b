// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aggregator

import (
	"context"
	"sort"
	"sync"
	"time"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
)

// sweep runs once per sweepInterval (§4.7): it pulls every live entry
// whose flush deadline has elapsed, groups them by project, and
// delivers each project's batch to the Receiver. A project whose Flush
// call returns an error gets every one of its buckets merged back into
// the live map (§4.7 step 4), as though they had never left it.
func (a *Aggregator) sweep() {
	due := a.collectDue(time.Now())
	if len(due) == 0 {
		return
	}

	a.deliver(context.Background(), due)
}

// collectDue removes every entry with flushAt <= now from the live map
// and groups the resulting buckets by project, charging their cost back
// off the tracker as they leave (§4.6: only live entries are tracked).
func (a *Aggregator) collectDue(now time.Time) map[ProjectKey][]Bucket {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(map[ProjectKey][]Bucket)
	for mk, entry := range a.live {
		if entry.flushAt.After(now) {
			continue
		}
		delete(a.live, mk)
		a.cost.subtract(entry.key.Project, entry.lastCost)

		out[entry.key.Project] = append(out[entry.key.Project], Bucket{
			Timestamp: entry.key.Timestamp,
			Width:     a.cfg.BucketInterval,
			Name:      entry.key.Name,
			Unit:      entry.key.Unit,
			Type:      entry.key.Type,
			Tags:      entry.key.Tags,
			Value:     entry.value,
		})
	}
	a.updateGauges()
	return out
}

// deliver fans Flush calls out across projects, bounded by
// deliverySem, and merges a project's buckets back in if its Flush
// call fails.
func (a *Aggregator) deliver(ctx context.Context, due map[ProjectKey][]Bucket) {
	var wg sync.WaitGroup
	var flushedTotal int

	for project, buckets := range due {
		project, buckets := project, buckets
		flushedTotal += len(buckets)

		if err := a.deliverySem.Acquire(ctx, 1); err != nil {
			cclog.Errorf("[AGGREGATOR]> delivery semaphore: %s", err.Error())
			a.mergeBack(project, buckets)
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer a.deliverySem.Release(1)
			a.deliverOne(ctx, project, buckets)
		}()
	}

	wg.Wait()
	a.metrics.flushed.Observe(float64(flushedTotal))
}

func (a *Aggregator) deliverOne(ctx context.Context, project ProjectKey, buckets []Bucket) {
	if err := a.receiver.Flush(ctx, project, buckets); err != nil {
		cclog.Warnf("[AGGREGATOR]> flush rejected for project %q (%d buckets): %s", project, len(buckets), err.Error())
		a.mergeBack(project, buckets)
		return
	}
	a.metrics.flushedPerProject.Observe(float64(len(buckets)))
}

// mergeBack re-merges every bucket of a rejected flush into the live
// map, following the ordinary merge path (§4.7 step 4, §7): a rejected
// bucket is indistinguishable from one that arrived fresh, except that
// its aligned timestamp has already elapsed, which pushes its next
// flush deadline onto the debounce path rather than the jittered one.
func (a *Aggregator) mergeBack(project ProjectKey, buckets []Bucket) {
	for _, b := range buckets {
		tags := b.Tags
		if tags == nil {
			tags = &OrderedTags{}
		}
		key := &BucketKey{
			Project:   project,
			Timestamp: b.Timestamp,
			Name:      b.Name,
			Type:      b.Type,
			Unit:      b.Unit,
			Tags:      tags,
		}
		if err := a.mergeBucketIn(key, b.Value); err != nil {
			// A type mismatch on merge-back cannot happen in practice (the
			// value's own Type tag is authoritative), but if the live map
			// already holds a differently-typed entry under the same key
			// the bucket is unrecoverable and is dropped, not silently
			// coerced (§3).
			cclog.Errorf("[AGGREGATOR]> dropping bucket on merge-back for project %q: %s", project, err.Error())
			a.metrics.dropped.Inc()
		}
	}
}

// flushAll delivers every remaining live entry immediately, regardless
// of its scheduled deadline (§4.7, "Shutdown"). When force is true
// (the only caller today, Shutdown), rejected buckets are dropped and
// counted rather than merged back, since nothing will sweep again to
// retry them.
func (a *Aggregator) flushAll(ctx context.Context, force bool) error {
	a.mu.Lock()
	out := make(map[ProjectKey][]Bucket)
	for mk, entry := range a.live {
		delete(a.live, mk)
		a.cost.subtract(entry.key.Project, entry.lastCost)
		out[entry.key.Project] = append(out[entry.key.Project], Bucket{
			Timestamp: entry.key.Timestamp,
			Width:     a.cfg.BucketInterval,
			Name:      entry.key.Name,
			Unit:      entry.key.Unit,
			Type:      entry.key.Type,
			Tags:      entry.key.Tags,
			Value:     entry.value,
		})
	}
	a.updateGauges()
	a.mu.Unlock()

	// Deliver projects in a stable order, purely so shutdown logging reads
	// deterministically; concurrency is still bounded by deliverySem.
	projects := make([]ProjectKey, 0, len(out))
	for p := range out {
		projects = append(projects, p)
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i] < projects[j] })

	var wg sync.WaitGroup
	for _, project := range projects {
		project, buckets := project, out[project]
		if err := a.deliverySem.Acquire(ctx, 1); err != nil {
			if force {
				a.metrics.dropped.Add(float64(len(buckets)))
			} else {
				a.mergeBack(project, buckets)
			}
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer a.deliverySem.Release(1)
			if err := a.receiver.Flush(ctx, project, buckets); err != nil {
				if force {
					cclog.Errorf("[AGGREGATOR]> dropping %d buckets for project %q at shutdown: %s", len(buckets), project, err.Error())
					a.metrics.dropped.Add(float64(len(buckets)))
				} else {
					a.mergeBack(project, buckets)
				}
			}
		}()
	}
	wg.Wait()
	return ctx.Err()
}
