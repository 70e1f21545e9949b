// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package health serves the aggregator's small HTTP surface: a
// readiness endpoint backed by Aggregator.AcceptsMetrics (the cost
// budget predicate, §6) and a Prometheus /metrics endpoint, routed and
// logged the way the teacher's own server.go wires its router.
package health

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Checker is the subset of *aggregator.Aggregator the health endpoint
// needs. Defined here rather than imported so this package stays free
// to be used against a fake in tests.
type Checker interface {
	AcceptsMetrics() bool
}

type statusResponse struct {
	Status string `json:"status"`
}

// NewRouter builds the health/metrics HTTP surface: GET /healthz reports
// 200 with {"status":"ok"} while a is accepting metrics, and 503 with
// {"status":"over-budget"} once the tracked cost has reached its
// configured total limit; GET /metrics serves the Prometheus registry
// reg in the standard exposition format.
func NewRouter(a Checker, reg prometheus.Gatherer) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(rw http.ResponseWriter, req *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		if a.AcceptsMetrics() {
			rw.WriteHeader(http.StatusOK)
			json.NewEncoder(rw).Encode(statusResponse{Status: "ok"})
			return
		}
		rw.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(rw).Encode(statusResponse{Status: "over-budget"})
	}).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	r.Use(handlers.CompressHandler)
	return handlers.LoggingHandler(os.Stdout, r)
}

// Serve starts an HTTP server for the health/metrics surface on addr and
// blocks until the listener fails or is closed (matching the teacher's
// own read/write timeout choices).
func Serve(addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}
