// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ResetSlack is added to a server-advertised reset time before retrying.
var ResetSlack = 5 * time.Second

var rateLimitPhrase = []byte("rate limit")

func hasRateLimitHeaders(resp *http.Response) bool {
	h := resp.Header
	return h.Get("Retry-After") != "" ||
		h.Get("X-RateLimit-Reset") != "" ||
		h.Get("X-RateLimit-Remaining") == "0"
}

// RateLimited reports whether a 403 or 429 response is attributable to a
// rate limit rather than a permanent block. body is the (possibly
// truncated) response body; a "rate limit" mention counts as a signal.
func RateLimited(resp *http.Response, body []byte) bool {
	if resp.StatusCode != http.StatusForbidden && resp.StatusCode != http.StatusTooManyRequests {
		return false
	}
	if hasRateLimitHeaders(resp) {
		return true
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return bytes.Contains(bytes.ToLower(body), rateLimitPhrase)
}

// RateLimitWait computes how long to sleep before retrying a rate-limited
// request: until X-RateLimit-Reset (epoch seconds) plus ResetSlack, or the
// Retry-After delay, or fallback when the server gave no hint.
func RateLimitWait(resp *http.Response, now time.Time, fallback time.Duration) time.Duration {
	if v := strings.TrimSpace(resp.Header.Get("X-RateLimit-Reset")); v != "" {
		if epoch, err := strconv.ParseInt(v, 10, 64); err == nil {
			wait := time.Unix(epoch, 0).Sub(now)
			if wait < 0 {
				wait = 0
			}
			return wait + ResetSlack
		}
	}
	if v := strings.TrimSpace(resp.Header.Get("Retry-After")); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
		if at, err := http.ParseTime(v); err == nil {
			if wait := at.Sub(now); wait > 0 {
				return wait
			}
			return 0
		}
	}
	return fallback
}
