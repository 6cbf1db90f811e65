// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"errors"
	"fmt"
)

// Kind tags a fetch outcome.
type Kind string

const (
	// Fresh means the body came from the network on this call.
	Fresh Kind = "fresh"
	// CachedFresh means the body came from a cache entry inside its TTL,
	// or one the server confirmed unchanged with a 304.
	CachedFresh Kind = "cached_fresh"
	// CachedStale means the network failed and an expired entry was served.
	CachedStale Kind = "cached_stale"
	// Failed means no body is available.
	Failed Kind = "failed"
)

// Reason explains a Failed outcome, or why a stale entry was served.
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonBlocked     Reason = "blocked"
	ReasonNotFound    Reason = "not_found"
	ReasonRateLimited Reason = "rate_limited"
	ReasonNetwork     Reason = "network"
	ReasonHTTPStatus  Reason = "http_status"
	ReasonCancelled   Reason = "cancelled"
)

// Sentinel errors for errors.Is checks on Outcome.Err.
var (
	ErrBlocked     = errors.New("source blocked")
	ErrNotFound    = errors.New("not found")
	ErrRateLimited = errors.New("rate limited")
	ErrNetwork     = errors.New("network error")
	ErrHTTPStatus  = errors.New("unexpected HTTP status")
)

var reasonErrors = map[Reason]error{
	ReasonBlocked:     ErrBlocked,
	ReasonNotFound:    ErrNotFound,
	ReasonRateLimited: ErrRateLimited,
	ReasonNetwork:     ErrNetwork,
	ReasonHTTPStatus:  ErrHTTPStatus,
}

// Outcome is the result of Fetcher.Fetch. Callers that only need the body
// check Err; the cache variants are otherwise interchangeable.
type Outcome struct {
	Kind   Kind
	Body   []byte
	Reason Reason
	Status int
	Source string
	URL    string

	cause error
}

// OK reports whether the outcome carries a body.
func (o Outcome) OK() bool {
	return o.Kind != Failed
}

// Err returns nil for any outcome with a body, otherwise an error wrapping
// the sentinel for o.Reason.
func (o Outcome) Err() error {
	if o.OK() {
		return nil
	}
	sentinel, ok := reasonErrors[o.Reason]
	if !ok {
		if o.cause != nil {
			return fmt.Errorf("fetching %s: %w", o.URL, o.cause)
		}
		return fmt.Errorf("fetching %s: %s", o.URL, o.Reason)
	}
	switch {
	case o.Status != 0 && o.cause != nil:
		return fmt.Errorf("fetching %s (HTTP %d): %w: %v", o.URL, o.Status, sentinel, o.cause)
	case o.Status != 0:
		return fmt.Errorf("fetching %s (HTTP %d): %w", o.URL, o.Status, sentinel)
	case o.cause != nil:
		return fmt.Errorf("fetching %s: %w: %v", o.URL, sentinel, o.cause)
	default:
		return fmt.Errorf("fetching %s: %w", o.URL, sentinel)
	}
}

// Label is the metrics label for the outcome.
func (o Outcome) Label() string {
	if o.Kind == Failed && o.Reason != ReasonNone {
		return string(o.Kind) + "_" + string(o.Reason)
	}
	return string(o.Kind)
}
