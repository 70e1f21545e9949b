// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package aggregator implements an in-memory metric pre-aggregator.
//
// Individual counter, distribution, set and gauge samples tagged by a
// tenant project key are grouped into fixed-width time buckets keyed by
// metric identity and tag set. Completed buckets are handed to a
// downstream Receiver on a periodic flush sweep.
//
// The package does not persist data across restarts, does not offer a
// query API, and does not convert units: it only reduces many small
// samples into compact, time-aligned aggregates before they cross a
// network boundary.
package aggregator
