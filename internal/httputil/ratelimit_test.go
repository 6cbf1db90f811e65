// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func response(status int, headers map[string]string) *http.Response {
	h := http.Header{}
	for k, v := range headers {
		h.Set(k, v)
	}
	return &http.Response{StatusCode: status, Header: h}
}

func TestRateLimited(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		headers map[string]string
		body    string
		want    bool
	}{
		{"github 403 body", 403, nil, `{"message":"API rate limit exceeded"}`, true},
		{"403 remaining zero", 403, map[string]string{"X-RateLimit-Remaining": "0"}, "", true},
		{"403 retry-after", 403, map[string]string{"Retry-After": "10"}, "", true},
		{"plain 429", 429, nil, "", true},
		{"bot-defense 403", 403, nil, "<html>Just a moment...</html>", false},
		{"403 remaining nonzero", 403, map[string]string{"X-RateLimit-Remaining": "12"}, "forbidden", false},
		{"500 is not rate limit", 500, nil, "rate limit", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RateLimited(response(tt.status, tt.headers), []byte(tt.body)))
		})
	}
}

func TestRateLimitWait(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	reset := response(403, map[string]string{"X-RateLimit-Reset": strconv.FormatInt(now.Unix()+60, 10)})
	assert.Equal(t, 60*time.Second+ResetSlack, RateLimitWait(reset, now, time.Minute))

	past := response(403, map[string]string{"X-RateLimit-Reset": strconv.FormatInt(now.Unix()-60, 10)})
	assert.Equal(t, ResetSlack, RateLimitWait(past, now, time.Minute))

	after := response(429, map[string]string{"Retry-After": "7"})
	assert.Equal(t, 7*time.Second, RateLimitWait(after, now, time.Minute))

	date := response(429, map[string]string{"Retry-After": now.Add(20 * time.Second).UTC().Format(http.TimeFormat)})
	assert.Equal(t, 20*time.Second, RateLimitWait(date, now, time.Minute))

	none := response(403, nil)
	assert.Equal(t, time.Minute, RateLimitWait(none, now, time.Minute))
}
