// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pool runs independent fetch tasks on a bounded number of
// goroutines. A failing task never cancels its siblings, and tasks whose
// source has been blocked are skipped before they start.
package pool

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/artifact-harvest/internal/logging"
	"github.com/pdiddy/artifact-harvest/internal/metrics"
)

// DefaultWorkers is used when Options.Workers is not positive.
const DefaultWorkers = 8

// Breaker reports whether a source should no longer be contacted.
// *fetch.HealthTable satisfies it.
type Breaker interface {
	IsBlocked(source string) bool
}

// Options configures a Run over items of type T.
type Options[T any] struct {
	Workers int
	Breaker Breaker

	// Source names the logical source of an item for breaker checks. Nil
	// disables skipping.
	Source func(item T) string

	Logger *zap.Logger
}

// Result is the outcome of one item. Skipped is set when the item's source
// was blocked or ctx ended before the task started; Err then holds the reason.
type Result[T, R any] struct {
	Item    T
	Value   R
	Err     error
	Skipped bool
}

// ErrSkipped marks tasks not run because their source was blocked.
var ErrSkipped = errors.New("source blocked; task skipped")

// Run applies fn to every item with at most opts.Workers in flight and
// returns results in completion order.
func Run[T, R any](ctx context.Context, opts Options[T], items []T, fn func(context.Context, T) (R, error)) []Result[T, R] {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	logger := logging.OrNop(opts.Logger)

	var (
		mu  sync.Mutex
		out = make([]Result[T, R], 0, len(items))
	)
	record := func(r Result[T, R]) {
		mu.Lock()
		out = append(out, r)
		mu.Unlock()
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for _, item := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				record(Result[T, R]{Item: item, Err: err, Skipped: true})
				return nil
			}
			if opts.Breaker != nil && opts.Source != nil {
				if src := opts.Source(item); opts.Breaker.IsBlocked(src) {
					logger.Debug("skipping task for blocked source", zap.String("source", src))
					record(Result[T, R]{Item: item, Err: ErrSkipped, Skipped: true})
					return nil
				}
			}

			metrics.IncActiveWorkers()
			defer metrics.DecActiveWorkers()

			v, err := fn(ctx, item)
			record(Result[T, R]{Item: item, Value: v, Err: err})
			return nil
		})
	}
	_ = g.Wait()
	return out
}
