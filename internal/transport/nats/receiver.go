// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package nats adapts the aggregator's flush contract
// (pkg/aggregator.Receiver) to a NATS publish-only egress client: one
// subject per project, one publish per flush, payload the package's
// §4.9 JSON wire format.
//
// It is a trimmed reworking of the teacher's general-purpose
// subscribe/publish NATS wrapper: only the connection-management and
// publish path survive, since the aggregator never subscribes to
// anything over NATS.
package nats

import (
	"context"
	"fmt"

	"github.com/relaymetrics/aggregator/pkg/aggregator"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/nats-io/nats.go"
)

// Receiver publishes flushed buckets to NATS, implementing
// aggregator.Receiver.
type Receiver struct {
	conn   *nats.Conn
	prefix string
}

// NewReceiver connects to the configured NATS server and returns a
// Receiver ready to be passed to aggregator.New.
func NewReceiver(cfg Config) (*Receiver, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("[NATS]> address is required")
	}

	var opts []nats.Option
	if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}
	if cfg.CredsFilePath != "" {
		opts = append(opts, nats.UserCredentials(cfg.CredsFilePath))
	}
	opts = append(opts, nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
		if err != nil {
			cclog.Warnf("[NATS]> disconnected: %s", err.Error())
		}
	}))
	opts = append(opts, nats.ReconnectHandler(func(nc *nats.Conn) {
		cclog.Infof("[NATS]> reconnected to %s", nc.ConnectedUrl())
	}))

	conn, err := nats.Connect(cfg.Address, opts...)
	if err != nil {
		return nil, fmt.Errorf("[NATS]> connect failed: %w", err)
	}

	cclog.Infof("[NATS]> egress receiver connected to %s", cfg.Address)
	return &Receiver{conn: conn, prefix: cfg.subjectPrefix()}, nil
}

// Flush implements aggregator.Receiver: it serializes buckets in the
// §4.9 wire format and publishes them on <prefix><project>. A publish
// error is returned unmodified, which the aggregator treats as "none
// of these buckets were consumed" and merges them back in.
func (r *Receiver) Flush(_ context.Context, project aggregator.ProjectKey, buckets []aggregator.Bucket) error {
	data, err := aggregator.SerializeBuckets(buckets)
	if err != nil {
		return fmt.Errorf("[NATS]> encoding buckets for project %q: %w", project, err)
	}

	subject := r.prefix + string(project)
	if err := r.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("[NATS]> publish to %q failed: %w", subject, err)
	}
	return nil
}

// Close drains and closes the underlying NATS connection.
func (r *Receiver) Close() {
	if r.conn == nil {
		return
	}
	if err := r.conn.Drain(); err != nil {
		cclog.Warnf("[NATS]> drain failed: %s", err.Error())
	}
}
