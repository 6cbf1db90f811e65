// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/artifact-harvest/internal/cache"
	"github.com/pdiddy/artifact-harvest/internal/metrics"
)

// ExistsRetryDelay is how long CheckURL waits after a 429 before its one
// retry. Tests shrink it.
var ExistsRetryDelay = 10 * time.Second

// CheckURL reports whether rawURL answers a redirect-following HEAD with
// 200. Results are cached with the two-tier existence TTL, so a live URL is
// not re-probed for months while a dead one is retried within a week.
func (f *Fetcher) CheckURL(ctx context.Context, source, rawURL string) bool {
	if f.cache != nil {
		if exists, known := f.cache.Exists(rawURL); known {
			metrics.ObserveCache(cache.NamespaceURLExists, "hit")
			return exists
		}
		metrics.ObserveCache(cache.NamespaceURLExists, "miss")
	}

	exists := f.probe(ctx, source, rawURL)
	if ctx.Err() != nil {
		return exists
	}
	if f.cache != nil {
		if err := f.cache.PutExists(rawURL, exists); err != nil {
			f.logger.Warn("caching URL check failed", zap.String("url", rawURL), zap.Error(err))
		}
	}
	return exists
}

func (f *Fetcher) probe(ctx context.Context, source, rawURL string) bool {
	opts := Options{Method: http.MethodHead, NoCache: true, MaxRetries: 1}
	opts = f.withDefaults(rawURL, opts)

	resp, _, err := f.roundTrip(ctx, rawURL, opts, nil, true)
	if err == nil && resp.StatusCode == http.StatusTooManyRequests {
		f.logger.Info("URL check rate limited, retrying once",
			zap.String("url", rawURL),
			zap.Duration("wait", ExistsRetryDelay))
		if err := f.sleep(ctx, ExistsRetryDelay); err != nil {
			return false
		}
		resp, _, err = f.roundTrip(ctx, rawURL, opts, nil, false)
	}
	if err != nil {
		f.logger.Debug("URL check failed", zap.String("url", rawURL), zap.Error(err))
		metrics.ObserveFetch(source, string(Failed)+"_"+string(ReasonNetwork), rawURL, 0)
		return false
	}
	exists := resp.StatusCode == http.StatusOK
	label := string(Fresh)
	if !exists {
		label = string(Failed) + "_" + string(ReasonNotFound)
	}
	metrics.ObserveFetch(source, label, rawURL, 0)
	return exists
}
