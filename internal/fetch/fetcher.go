// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch is the single entry point for network reads. Every request
// goes through the disk cache, the per-source circuit breaker, the per-host
// politeness limiter, and the retry ladder, and comes back as an Outcome
// instead of an error so batch callers can keep going.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/artifact-harvest/internal/cache"
	"github.com/pdiddy/artifact-harvest/internal/httputil"
	"github.com/pdiddy/artifact-harvest/internal/logging"
	"github.com/pdiddy/artifact-harvest/internal/metrics"
	"github.com/pdiddy/artifact-harvest/internal/politeness"
	"github.com/pdiddy/artifact-harvest/pkg/types"
)

// Defaults applied when types.HTTPConfig leaves a field zero.
const (
	DefaultTimeout           = 30 * time.Second
	DefaultUserAgent         = "artifact-harvest/1.0 (+https://github.com/pdiddy/artifact-harvest)"
	DefaultRateLimitFallback = 60 * time.Second

	maxBodyBytes = 32 << 20
)

// DefaultAuthHosts receive the API token. Every other host is fetched
// anonymously.
var DefaultAuthHosts = []string{"api.github.com"}

// Options tune a single Fetch call.
type Options struct {
	// Method defaults to GET.
	Method string
	// Timeout overrides the client timeout for each attempt.
	Timeout time.Duration
	// MaxRetries overrides the retry ladder depth.
	MaxRetries int
	// Conditional sends If-None-Match when a cached ETag exists.
	Conditional bool
	// MaxAge is the freshness window; zero uses the cache TTL.
	MaxAge time.Duration
	// Namespace defaults to cache.NamespaceHTTP.
	Namespace string
	// CacheKey defaults to the URL.
	CacheKey string
	// NoCache bypasses both cache reads and writes.
	NoCache bool
	// Strict suppresses the stale-cache fallback on failure.
	Strict bool
	// Headers are added to every attempt.
	Headers map[string]string
}

// Config carries what the Fetcher needs beyond its collaborators.
type Config struct {
	HTTP      types.HTTPConfig
	Token     string
	AuthHosts []string
}

// Fetcher is safe for concurrent use.
type Fetcher struct {
	client  *http.Client
	cache   *cache.Store
	health  *HealthTable
	limiter *politeness.Limiter
	cfg     Config
	logger  *zap.Logger

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// New wires a Fetcher. store and limiter may be nil to disable caching and
// politeness respectively; a nil health table gets a fresh one.
func New(client *http.Client, store *cache.Store, health *HealthTable, limiter *politeness.Limiter, cfg Config, logger *zap.Logger) *Fetcher {
	logger = logging.OrNop(logger)
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	if health == nil {
		health = NewHealthTable(DefaultBlockThreshold, logger)
	}
	if cfg.HTTP.UserAgent == "" {
		cfg.HTTP.UserAgent = DefaultUserAgent
	}
	if cfg.HTTP.RateLimitFallback <= 0 {
		cfg.HTTP.RateLimitFallback = DefaultRateLimitFallback
	}
	if cfg.AuthHosts == nil {
		cfg.AuthHosts = DefaultAuthHosts
	}
	return &Fetcher{
		client:  client,
		cache:   store,
		health:  health,
		limiter: limiter,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
		sleep:   httputil.Sleep,
	}
}

// Health exposes the breaker table shared by every call on this Fetcher.
func (f *Fetcher) Health() *HealthTable { return f.health }

// Cache returns the backing store, which may be nil.
func (f *Fetcher) Cache() *cache.Store { return f.cache }

func (f *Fetcher) withDefaults(rawURL string, opts Options) Options {
	if opts.Method == "" {
		opts.Method = http.MethodGet
	}
	if opts.Namespace == "" {
		opts.Namespace = cache.NamespaceHTTP
	}
	if opts.CacheKey == "" {
		opts.CacheKey = rawURL
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = f.cfg.HTTP.MaxRetries
	}
	if opts.MaxAge <= 0 && f.cache != nil {
		opts.MaxAge = f.cache.TTL()
	}
	if opts.Method != http.MethodGet {
		opts.NoCache = true
	}
	return opts
}

// Fetch retrieves rawURL on behalf of source. It never returns an error
// directly; see Outcome.Err.
//
// A fresh cache entry is served without touching the network, even for a
// blocked source. A blocked source otherwise gets its stale entry or a
// Failed(blocked) outcome without a request being made.
func (f *Fetcher) Fetch(ctx context.Context, source, rawURL string, opts Options) Outcome {
	opts = f.withDefaults(rawURL, opts)
	useCache := f.cache != nil && !opts.NoCache

	if useCache {
		if body, ok := f.cache.GetBytes(opts.Namespace, opts.CacheKey, opts.MaxAge); ok {
			metrics.ObserveCache(opts.Namespace, "hit")
			return f.finish(Outcome{Kind: CachedFresh, Body: body, Source: source, URL: rawURL}, 0)
		}
		metrics.ObserveCache(opts.Namespace, "miss")
	}

	if f.health.IsBlocked(source) {
		return f.fallback(opts, Outcome{Kind: Failed, Reason: ReasonBlocked, Source: source, URL: rawURL})
	}

	var prior *cache.Entry
	if useCache {
		prior, _ = f.cache.GetRaw(opts.Namespace, opts.CacheKey)
	}

	resp, body, err := f.roundTrip(ctx, rawURL, opts, prior, true)
	if err != nil {
		return f.fallback(opts, f.transportFailure(ctx, source, rawURL, err))
	}

	if httputil.RateLimited(resp, body) {
		wait := httputil.RateLimitWait(resp, f.now(), f.cfg.HTTP.RateLimitFallback)
		f.logger.Warn("rate limited, waiting for reset",
			zap.String("source", source),
			zap.String("url", rawURL),
			zap.Int("status", resp.StatusCode),
			zap.Duration("wait", wait))
		metrics.ObserveRateLimitWait(rawURL, wait)
		if err := f.sleep(ctx, wait); err != nil {
			return f.fallback(opts, Outcome{Kind: Failed, Reason: ReasonCancelled, Source: source, URL: rawURL, cause: err})
		}
		resp, body, err = f.roundTrip(ctx, rawURL, opts, prior, false)
		if err != nil {
			return f.fallback(opts, f.transportFailure(ctx, source, rawURL, err))
		}
		if httputil.RateLimited(resp, body) {
			return f.fallback(opts, Outcome{Kind: Failed, Reason: ReasonRateLimited, Status: resp.StatusCode, Source: source, URL: rawURL})
		}
	}

	return f.handle(source, rawURL, opts, prior, resp, body)
}

func (f *Fetcher) handle(source, rawURL string, opts Options, prior *cache.Entry, resp *http.Response, body []byte) Outcome {
	status := resp.StatusCode
	switch {
	case status == http.StatusNotModified && prior != nil:
		f.health.MarkOK(source)
		if err := f.cache.Touch(opts.Namespace, opts.CacheKey); err != nil {
			f.logger.Warn("cache touch failed", zap.String("url", rawURL), zap.Error(err))
		}
		cached, err := prior.Bytes()
		if err != nil {
			return f.fallback(opts, Outcome{Kind: Failed, Reason: ReasonHTTPStatus, Status: status, Source: source, URL: rawURL, cause: err})
		}
		return f.finish(Outcome{Kind: CachedFresh, Body: cached, Status: status, Source: source, URL: rawURL}, 0)

	case status == http.StatusForbidden:
		f.health.MarkBlocked(source)
		return f.fallback(opts, Outcome{Kind: Failed, Reason: ReasonBlocked, Status: status, Source: source, URL: rawURL})

	case status == http.StatusNotFound || status == http.StatusGone:
		f.health.MarkOK(source)
		return f.finish(Outcome{Kind: Failed, Reason: ReasonNotFound, Status: status, Source: source, URL: rawURL}, 0)

	case status >= 200 && status < 300:
		f.health.MarkOK(source)
		if f.cache != nil && !opts.NoCache {
			if err := f.cache.Put(opts.Namespace, opts.CacheKey, body, resp.Header.Get("ETag")); err != nil {
				f.logger.Warn("cache write failed", zap.String("url", rawURL), zap.Error(err))
			}
		}
		return f.finish(Outcome{Kind: Fresh, Body: body, Status: status, Source: source, URL: rawURL}, len(body))

	default:
		f.health.MarkOK(source)
		return f.fallback(opts, Outcome{Kind: Failed, Reason: ReasonHTTPStatus, Status: status, Source: source, URL: rawURL})
	}
}

// fallback serves a stale cache entry in place of a failure when one exists
// and the call is not strict.
func (f *Fetcher) fallback(opts Options, failed Outcome) Outcome {
	if opts.Strict || opts.NoCache || f.cache == nil || failed.Reason == ReasonNotFound {
		return f.finish(failed, 0)
	}
	e, ok := f.cache.GetRaw(opts.Namespace, opts.CacheKey)
	if !ok {
		return f.finish(failed, 0)
	}
	body, err := e.Bytes()
	if err != nil {
		return f.finish(failed, 0)
	}
	f.logger.Info("serving stale cache entry",
		zap.String("source", failed.Source),
		zap.String("url", failed.URL),
		zap.String("reason", string(failed.Reason)),
		zap.Time("stored_at", e.StoredAt))
	return f.finish(Outcome{
		Kind:   CachedStale,
		Body:   body,
		Reason: failed.Reason,
		Status: failed.Status,
		Source: failed.Source,
		URL:    failed.URL,
	}, 0)
}

func (f *Fetcher) finish(o Outcome, networkBytes int) Outcome {
	metrics.ObserveFetch(o.Source, o.Label(), o.URL, networkBytes)
	if o.Kind == Failed {
		f.logger.Debug("fetch failed",
			zap.String("source", o.Source),
			zap.String("url", o.URL),
			zap.String("reason", string(o.Reason)),
			zap.Int("status", o.Status),
			zap.Error(o.cause))
	}
	return o
}

func (f *Fetcher) transportFailure(ctx context.Context, source, rawURL string, err error) Outcome {
	reason := ReasonNetwork
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		reason = ReasonCancelled
	}
	return Outcome{Kind: Failed, Reason: reason, Source: source, URL: rawURL, cause: err}
}

// roundTrip performs one politeness-gated request and returns the response
// with its body already read. With ladder unset it sends exactly one request.
func (f *Fetcher) roundTrip(ctx context.Context, rawURL string, opts Options, prior *cache.Entry, ladder bool) (*http.Response, []byte, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, rawURL); err != nil {
			return nil, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, opts.Method, rawURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", f.cfg.HTTP.UserAgent)
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	if f.cfg.Token != "" && f.authorized(req.URL.Hostname()) {
		req.Header.Set("Authorization", "token "+f.cfg.Token)
	}
	if opts.Conditional && prior != nil && prior.ETag != "" {
		req.Header.Set("If-None-Match", prior.ETag)
	}

	client := f.client
	if opts.Timeout > 0 {
		c := *f.client
		c.Timeout = opts.Timeout
		client = &c
	}

	var resp *http.Response
	if ladder {
		resp, err = httputil.DoWithRetry(ctx, client, req, opts.MaxRetries)
	} else {
		resp, err = client.Do(req)
	}
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("reading body: %w", err)
	}
	return resp, body, nil
}

func (f *Fetcher) authorized(host string) bool {
	host = strings.ToLower(host)
	for _, h := range f.cfg.AuthHosts {
		if strings.EqualFold(h, host) {
			return true
		}
	}
	return false
}
