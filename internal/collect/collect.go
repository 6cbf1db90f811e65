// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package collect drives batch harvesting: it fans conference-years out to
// the worker pool, fetches and parses each document, and reports a
// per-item status line plus a summary. No single failure aborts a batch.
package collect

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/pdiddy/artifact-harvest/internal/fetch"
	"github.com/pdiddy/artifact-harvest/internal/logging"
	"github.com/pdiddy/artifact-harvest/internal/sources"
)

// URLCheckWorkers bounds concurrent existence probes.
const URLCheckWorkers = 16

// BatchResult counts the outcome of every item in a batch.
type BatchResult struct {
	// Collected items produced records.
	Collected int
	// Empty items were fetched but yielded nothing usable.
	Empty int
	// Skipped items were never attempted because their source was blocked.
	Skipped int
	// Failed items could not be fetched.
	Failed int
	// Degraded lists sources whose breaker tripped during the batch.
	Degraded []string
}

// Total returns the number of items processed.
func (r BatchResult) Total() int {
	return r.Collected + r.Empty + r.Skipped + r.Failed
}

// HasFailures reports whether any item failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// AllFailed reports whether the batch had items and none succeeded.
func (r BatchResult) AllFailed() bool {
	return r.Total() > 0 && r.Collected == 0 && r.Empty == 0
}

// Collector harvests through one Fetcher, so every batch it runs shares
// the cache and breaker state.
type Collector struct {
	Fetcher *fetch.Fetcher
	Sources *sources.Client
	Workers int
	Out     io.Writer
	Logger  *zap.Logger

	mu sync.Mutex
}

// New builds a Collector. Progress lines go to out; nil discards them.
func New(f *fetch.Fetcher, workers int, out io.Writer, logger *zap.Logger) *Collector {
	if out == nil {
		out = io.Discard
	}
	logger = logging.OrNop(logger)
	c := &Collector{
		Fetcher: f,
		Sources: sources.NewClient(f, 0, logger),
		Workers: workers,
		Out:     out,
		Logger:  logger,
	}
	if store := f.Cache(); store != nil {
		c.Sources.StatsTTL = store.StatsTTL()
	}
	return c
}

func (c *Collector) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.Out, format, args...)
}

func (c *Collector) summarize(what string, r *BatchResult) {
	r.Degraded = c.Fetcher.Health().Degraded()
	c.printf("\n%s summary: %d collected, %d empty, %d skipped, %d failed (total: %d)\n",
		what, r.Collected, r.Empty, r.Skipped, r.Failed, r.Total())
	if len(r.Degraded) > 0 {
		c.printf("degraded sources: %s\n", strings.Join(r.Degraded, ", "))
	}
}
