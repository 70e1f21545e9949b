// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/relaymetrics/aggregator/internal/config"
	"github.com/relaymetrics/aggregator/internal/health"
	natstransport "github.com/relaymetrics/aggregator/internal/transport/nats"
	"github.com/relaymetrics/aggregator/pkg/aggregator"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/google/gops/agent"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	var flagConfigFile string
	var flagGops bool
	flag.StringVar(&flagConfigFile, "config", "./config.json", "Overwrite the global config options by those specified in `config.json`")
	flag.BoolVar(&flagGops, "gops", false, "Listen via github.com/google/gops/agent (for debugging)")
	flag.Parse()

	if err := config.Init(flagConfigFile); err != nil {
		cclog.Fatalf("[CONFIG]> %s", err.Error())
	}

	cclog.Init(config.Keys.LogLevel, true)

	if flagGops || config.Keys.Gops {
		if err := agent.Listen(agent.Options{}); err != nil {
			cclog.Fatalf("gops/agent.Listen failed: %s", err.Error())
		}
	}

	receiver, err := natstransport.NewReceiver(config.Keys.Nats)
	if err != nil {
		cclog.Fatalf("[NATS]> %s", err.Error())
	}
	defer receiver.Close()

	reg := prometheus.NewRegistry()
	agg, err := aggregator.New(config.Keys.Aggregator.ToEngineConfig(), receiver, reg)
	if err != nil {
		cclog.Fatalf("[AGGREGATOR]> %s", err.Error())
	}

	healthSrv := &http.Server{
		Addr:         config.Keys.HTTPAddr,
		Handler:      health.NewRouter(agg, reg),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		cclog.Infof("[HEALTH]> listening at %s", config.Keys.HTTPAddr)
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			cclog.Fatal(err)
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	cclog.Info("[AGGREGATOR]> shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := healthSrv.Shutdown(ctx); err != nil {
		cclog.Warnf("[HEALTH]> shutdown: %s", err.Error())
	}

	if err := agg.Shutdown(ctx); err != nil {
		cclog.Warnf("[AGGREGATOR]> shutdown: %s", err.Error())
	}

	wg.Wait()
	cclog.Info("[AGGREGATOR]> graceful shutdown completed")
}
