// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package config

import (
	"bytes"
	"encoding/json"
	"os"

	natstransport "github.com/relaymetrics/aggregator/internal/transport/nats"
	"github.com/relaymetrics/aggregator/pkg/aggregator"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/joho/godotenv"
)

// AppConfig is the top-level configuration file shape: the aggregation
// engine's own tunables (§4.5), the NATS egress client, and the
// ambient process settings (log level, diagnostics, HTTP surface).
type AppConfig struct {
	HTTPAddr   string               `json:"http-addr"`
	LogLevel   string               `json:"log-level"`
	Gops       bool                 `json:"gops"`
	Aggregator AggregatorSettings   `json:"aggregator"`
	Nats       natstransport.Config `json:"nats"`
}

// AggregatorSettings mirrors aggregator.Config with JSON tags, since
// the engine's own Config is constructed from primitives the caller
// already validated rather than carrying json struct tags itself.
type AggregatorSettings struct {
	BucketInterval        uint64 `json:"bucket-interval"`
	InitialDelay          uint64 `json:"initial-delay"`
	DebounceDelay         uint64 `json:"debounce-delay"`
	MaxSecsInPast         uint64 `json:"max-secs-in-past"`
	MaxSecsInFuture       uint64 `json:"max-secs-in-future"`
	MaxNameLength         int    `json:"max-name-length"`
	MaxTagKeyLength       int    `json:"max-tag-key-length"`
	MaxTagValueLength     int    `json:"max-tag-value-length"`
	MaxTotalBucketBytes   *int   `json:"max-total-bucket-bytes,omitempty"`
	MaxProjectBucketBytes *int   `json:"max-project-bucket-bytes,omitempty"`
}

// ToEngineConfig converts the JSON-friendly settings into the engine's
// own Config type, filling in §4.5 defaults for anything left at zero.
func (s AggregatorSettings) ToEngineConfig() aggregator.Config {
	cfg := aggregator.DefaultConfig()
	if s.BucketInterval != 0 {
		cfg.BucketInterval = s.BucketInterval
	}
	if s.InitialDelay != 0 {
		cfg.InitialDelay = s.InitialDelay
	}
	if s.DebounceDelay != 0 {
		cfg.DebounceDelay = s.DebounceDelay
	}
	if s.MaxSecsInPast != 0 {
		cfg.MaxSecsInPast = s.MaxSecsInPast
	}
	if s.MaxSecsInFuture != 0 {
		cfg.MaxSecsInFuture = s.MaxSecsInFuture
	}
	if s.MaxNameLength != 0 {
		cfg.MaxNameLength = s.MaxNameLength
	}
	if s.MaxTagKeyLength != 0 {
		cfg.MaxTagKeyLength = s.MaxTagKeyLength
	}
	if s.MaxTagValueLength != 0 {
		cfg.MaxTagValueLength = s.MaxTagValueLength
	}
	cfg.MaxTotalBucketBytes = s.MaxTotalBucketBytes
	cfg.MaxProjectKeyBucketBytes = s.MaxProjectBucketBytes
	return cfg
}

// Default returns the baseline AppConfig, overridden by whatever the
// config file on disk sets.
func Default() AppConfig {
	return AppConfig{
		HTTPAddr: ":8080",
		LogLevel: "info",
	}
}

// Keys holds the process-wide configuration loaded by Init, mirroring
// the teacher's package-level Keys convention.
var Keys = Default()

// Init loads .env (if present, via godotenv), then reads, validates
// and decodes flagConfigFile into Keys. A missing config file is not
// fatal (Keys keeps the values from Default()); a malformed or
// schema-invalid one is. Variables loaded from .env are placed in the
// process environment only; Init does not copy them into Keys.
func Init(flagConfigFile string) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		cclog.Warnf("[CONFIG]> loading .env: %s", err.Error())
	}

	raw, err := os.ReadFile(flagConfigFile)
	if err != nil {
		if os.IsNotExist(err) {
			cclog.Warnf("[CONFIG]> no config file at %q, using defaults", flagConfigFile)
			return nil
		}
		return err
	}

	if err := Validate(raw); err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&Keys); err != nil {
		return err
	}

	return nil
}
