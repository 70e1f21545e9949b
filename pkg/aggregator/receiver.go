// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aggregator

import "context"

// Receiver is the downstream collaborator that consumes flushed
// buckets (§6, "Flush API"). Egress (persisting or forwarding) is out
// of scope for this package; only the contract is specified here.
//
// Flush is called once per project per sweep with every bucket that
// elapsed during that sweep. A nil error means every bucket in buckets
// was consumed. A non-nil error means none of the buckets in buckets
// were consumed, and the sweep will merge them back into the live map
// (§4.7 step 4, §7). There is no partial-success encoding.
type Receiver interface {
	Flush(ctx context.Context, project ProjectKey, buckets []Bucket) error
}

// ReceiverFunc adapts a plain function to the Receiver interface.
type ReceiverFunc func(ctx context.Context, project ProjectKey, buckets []Bucket) error

// Flush implements Receiver.
func (f ReceiverFunc) Flush(ctx context.Context, project ProjectKey, buckets []Bucket) error {
	return f(ctx, project, buckets)
}
