// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aggregator

import (
	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
)

// CostTracker holds global and per-project byte accounting used for
// admission control (§4.6). It is not safe for concurrent use on its
// own; callers (the Aggregator facade) serialize access.
type CostTracker struct {
	total      int
	perProject map[ProjectKey]int
}

// NewCostTracker returns an empty tracker.
func NewCostTracker() *CostTracker {
	return &CostTracker{perProject: make(map[ProjectKey]int)}
}

// Total returns the global tracked cost.
func (c *CostTracker) Total() int {
	return c.total
}

// PerProject returns the tracked cost for project, or 0 if untracked.
func (c *CostTracker) PerProject(project ProjectKey) int {
	return c.perProject[project]
}

// totalsExceeded reports whether limit is set and the global total has
// reached it.
func (c *CostTracker) totalsExceeded(limit *int) bool {
	return limit != nil && c.total >= *limit
}

// checkAdmission fails with TotalLimitExceeded or ProjectLimitExceeded
// if the corresponding limit has already been reached. The check runs
// before the merge that is about to happen knows its actual cost delta,
// so a single bucket may push totals over a configured limit, after
// which subsequent admissions are refused; this imprecision is accepted
// by design (§4.6).
func (c *CostTracker) checkAdmission(project ProjectKey, totalLimit, projectLimit *int) error {
	if c.totalsExceeded(totalLimit) {
		return newError(TotalLimitExceeded, "global cost %d >= limit %d", c.total, *totalLimit)
	}
	if projectLimit != nil && c.perProject[project] >= *projectLimit {
		return newError(ProjectLimitExceeded, "project %q cost %d >= limit %d", project, c.perProject[project], *projectLimit)
	}
	return nil
}

// add records an additional cost for project.
func (c *CostTracker) add(project ProjectKey, cost int) {
	c.total += cost
	c.perProject[project] += cost
}

// subtract reverses a previously-added cost for project. It is
// defensive: subtracting more than is tracked for a project clamps to 0
// and logs an error, and subtracting for an unknown project logs and
// does nothing (§4.6). Entries with cost 0 are removed from the
// per-project map so that absent == zero, per the invariant in §3.
func (c *CostTracker) subtract(project ProjectKey, cost int) {
	current, ok := c.perProject[project]
	if !ok {
		cclog.Errorf("[COSTTRACKER]> subtracting cost for untracked project %q", project)
		return
	}

	if cost > current {
		cclog.Errorf("[COSTTRACKER]> subtracting cost %d higher than tracked %d for project %q", cost, current, project)
		c.total -= current
		delete(c.perProject, project)
		return
	}

	current -= cost
	c.total -= cost
	if current == 0 {
		delete(c.perProject, project)
	} else {
		c.perProject[project] = current
	}
}
