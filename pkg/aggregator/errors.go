// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aggregator

import "fmt"

// ErrorKind is the stable taxonomy of errors the aggregator returns.
type ErrorKind int

const (
	// InvalidCharacters means the metric name failed MRI shape validation,
	// or (tag-level only) a tag was dropped for invalid key characters.
	InvalidCharacters ErrorKind = iota + 1
	// InvalidTimestamp means the aligned bucket timestamp fell outside the
	// acceptance window.
	InvalidTimestamp
	// InvalidTypes means a sample or bucket was merged against an
	// existing entry of a different BucketValue variant.
	InvalidTypes
	// InvalidStringLength means the metric name exceeded max_name_length.
	InvalidStringLength
	// TotalLimitExceeded means the global cost budget was reached at
	// admission time.
	TotalLimitExceeded
	// ProjectLimitExceeded means the per-project cost budget was reached
	// at admission time.
	ProjectLimitExceeded
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidCharacters:
		return "InvalidCharacters"
	case InvalidTimestamp:
		return "InvalidTimestamp"
	case InvalidTypes:
		return "InvalidTypes"
	case InvalidStringLength:
		return "InvalidStringLength"
	case TotalLimitExceeded:
		return "TotalLimitExceeded"
	case ProjectLimitExceeded:
		return "ProjectLimitExceeded"
	default:
		return "Unknown"
	}
}

// Error is the error type returned by the aggregator's ingest paths.
// It always carries one of the Kind values above so callers can branch
// on the taxonomy rather than parsing messages.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("[AGGREGATOR]> %s: %s", e.Kind, e.Message)
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if ae, ok := err.(*Error); ok {
		e = ae
	} else {
		return false
	}
	return e.Kind == kind
}
