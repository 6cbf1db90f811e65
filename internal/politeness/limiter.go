// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package politeness spaces out requests to the same host with a token
// bucket per hostname.
package politeness

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/artifact-harvest/internal/metrics"
	"github.com/pdiddy/artifact-harvest/pkg/types"
)

// Limiter holds one rate.Limiter per host. Hosts never seen before get a
// fresh bucket at the default rate.
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

// New builds a Limiter. A non-positive RPS disables limiting.
func New(cfg types.PolitenessConfig) *Limiter {
	r := rate.Limit(cfg.RPS)
	if cfg.RPS <= 0 {
		r = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     r,
		burst:    burst,
	}
}

func (l *Limiter) forHost(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[host]
	if !ok {
		lim = rate.NewLimiter(l.rate, l.burst)
		l.limiters[host] = lim
	}
	return lim
}

// Wait blocks until a token for rawURL's host is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	host := strings.ToLower(metrics.Host(rawURL))
	start := time.Now()
	if err := l.forHost(host).Wait(ctx); err != nil {
		return fmt.Errorf("politeness wait for %s: %w", host, err)
	}
	if d := time.Since(start); d > time.Millisecond {
		metrics.ObservePoliteness(host, d)
	}
	return nil
}
