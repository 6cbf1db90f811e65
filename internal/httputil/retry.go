// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the HTTP retry ladder and rate-limit helpers
// shared by the fetcher and the source clients.
package httputil

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"math"
	"math/big"
	"net"
	"net/http"
	"time"
)

// RetryBaseDelay is the first backoff step; each further attempt doubles it.
// Tests override this to avoid real sleeps.
var RetryBaseDelay = 1 * time.Second

// RetryMaxDelay caps a single backoff step.
var RetryMaxDelay = 30 * time.Second

const defaultMaxRetries = 3

// retryableStatus is the fixed set of statuses worth another attempt. 429 is
// not in it: rate limits are waited out by the caller, not laddered.
var retryableStatus = map[int]bool{
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Retryable reports whether status is in the retry set.
func Retryable(status int) bool {
	return retryableStatus[status]
}

// DoWithRetry executes req and retries on 500, 502, 503 and 504, and on
// network timeouts, with jittered exponential backoff starting at
// RetryBaseDelay. When maxRetries is 0 the default (3) is used.
//
// A 429 is returned immediately, with or without rate-limit headers, so the
// caller can wait for the reset and retry once instead of climbing the
// ladder. After exhausting retries the last response is returned so the
// caller can inspect it. If ctx is cancelled during a wait the function
// returns ctx.Err().
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			if attempt >= maxRetries || !transient(err) {
				return nil, err
			}
		} else {
			if !Retryable(resp.StatusCode) || attempt >= maxRetries {
				return resp, nil
			}
			// Drain and close the body before retrying.
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}

		if err := Sleep(ctx, Backoff(attempt)); err != nil {
			return nil, err
		}
	}
}

// Backoff returns the wait before retry number attempt (0-based): half the
// exponential step plus up to another half of jitter.
func Backoff(attempt int) time.Duration {
	delay := float64(RetryBaseDelay) * math.Pow(2, float64(attempt))
	if delay > float64(RetryMaxDelay) {
		delay = float64(RetryMaxDelay)
	}
	half := time.Duration(delay / 2)
	return half + jitter(half)
}

func jitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(limit)))
	if err != nil {
		return limit / 2
	}
	return time.Duration(n.Int64())
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func transient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}
