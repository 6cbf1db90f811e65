// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/artifact-harvest/internal/cache"
	"github.com/pdiddy/artifact-harvest/internal/httputil"
	"github.com/pdiddy/artifact-harvest/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
	ExistsRetryDelay = time.Millisecond
}

type testEnv struct {
	f     *Fetcher
	store *cache.Store
	now   *time.Time
	slept []time.Duration
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	t.Helper()
	store, err := cache.Open(types.CacheConfig{Dir: t.TempDir()}, nil)
	require.NoError(t, err)

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	env := &testEnv{store: store, now: &now}
	store.Clock = func() time.Time { return *env.now }

	cfg.HTTP.MaxRetries = 1
	env.f = New(&http.Client{Timeout: 5 * time.Second}, store, nil, nil, cfg, nil)
	env.f.now = func() time.Time { return *env.now }
	env.f.sleep = func(_ context.Context, d time.Duration) error {
		env.slept = append(env.slept, d)
		return nil
	}
	return env
}

func (e *testEnv) advance(d time.Duration) { *e.now = e.now.Add(d) }

func countingServer(t *testing.T, h http.HandlerFunc) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		h(w, r)
	}))
	t.Cleanup(ts.Close)
	return ts, &calls
}

func TestFetch_SecondCallServedFromCache(t *testing.T) {
	env := newTestEnv(t, Config{})
	ts, calls := countingServer(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "hello")
	})

	first := env.f.Fetch(context.Background(), "github", ts.URL+"/a", Options{})
	require.NoError(t, first.Err())
	assert.Equal(t, Fresh, first.Kind)
	assert.Equal(t, "hello", string(first.Body))

	second := env.f.Fetch(context.Background(), "github", ts.URL+"/a", Options{})
	require.NoError(t, second.Err())
	assert.Equal(t, CachedFresh, second.Kind)
	assert.Equal(t, first.Body, second.Body)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestFetch_ConditionalRevalidation(t *testing.T) {
	env := newTestEnv(t, Config{})
	ts, calls := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		fmt.Fprint(w, `{"stars":3}`)
	})
	url := ts.URL + "/repos/o/r"

	first := env.f.Fetch(context.Background(), "github", url, Options{Conditional: true, MaxAge: time.Hour})
	require.Equal(t, Fresh, first.Kind)

	env.advance(2 * time.Hour)
	second := env.f.Fetch(context.Background(), "github", url, Options{Conditional: true, MaxAge: time.Hour})
	require.NoError(t, second.Err())
	assert.Equal(t, CachedFresh, second.Kind)
	assert.Equal(t, http.StatusNotModified, second.Status)
	assert.Equal(t, `{"stars":3}`, string(second.Body))
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))

	e, ok := env.store.GetRaw(cache.NamespaceHTTP, url)
	require.True(t, ok)
	assert.Equal(t, *env.now, e.StoredAt.UTC(), "304 refreshes the timestamp")
	assert.Equal(t, `"v1"`, e.ETag)
}

func TestFetch_CircuitBreakerTripsAfterThreeBlocks(t *testing.T) {
	env := newTestEnv(t, Config{})
	blocked, blockedCalls := countingServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, "<html>Just a moment...</html>")
	})
	healthy, _ := countingServer(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "ok")
	})

	for i := 0; i < DefaultBlockThreshold; i++ {
		o := env.f.Fetch(context.Background(), "acm-dl", fmt.Sprintf("%s/doi/%d", blocked.URL, i), Options{})
		assert.Equal(t, Failed, o.Kind)
		assert.Equal(t, ReasonBlocked, o.Reason)
		assert.True(t, errors.Is(o.Err(), ErrBlocked))
	}
	assert.True(t, env.f.Health().IsBlocked("acm-dl"))
	assert.Equal(t, []string{"acm-dl"}, env.f.Health().Degraded())

	o := env.f.Fetch(context.Background(), "acm-dl", blocked.URL+"/doi/next", Options{})
	assert.Equal(t, ReasonBlocked, o.Reason)
	assert.Equal(t, int32(DefaultBlockThreshold), atomic.LoadInt32(blockedCalls), "no request after the breaker trips")

	other := env.f.Fetch(context.Background(), "github", healthy.URL+"/x", Options{})
	require.NoError(t, other.Err())
	assert.Equal(t, Fresh, other.Kind)
}

func TestFetch_BlockedSourceStillServesCache(t *testing.T) {
	env := newTestEnv(t, Config{})
	ts, _ := countingServer(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "badges")
	})
	url := ts.URL + "/doi/10.1145/1"

	require.Equal(t, Fresh, env.f.Fetch(context.Background(), "acm-dl", url, Options{}).Kind)
	for i := 0; i < DefaultBlockThreshold; i++ {
		env.f.Health().MarkBlocked("acm-dl")
	}

	o := env.f.Fetch(context.Background(), "acm-dl", url, Options{})
	assert.Equal(t, CachedFresh, o.Kind)

	env.advance(cache.DefaultTTL + time.Hour)
	o = env.f.Fetch(context.Background(), "acm-dl", url, Options{})
	assert.Equal(t, CachedStale, o.Kind)
	assert.Equal(t, ReasonBlocked, o.Reason)
	assert.NoError(t, o.Err())
}

func TestFetch_ForbiddenServesStaleEntry(t *testing.T) {
	env := newTestEnv(t, Config{})
	var forbid atomic.Bool
	ts, _ := countingServer(t, func(w http.ResponseWriter, _ *http.Request) {
		if forbid.Load() {
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, "Access denied")
			return
		}
		fmt.Fprint(w, "badges")
	})
	url := ts.URL + "/doi/10.1145/7"

	require.Equal(t, Fresh, env.f.Fetch(context.Background(), "acm-dl", url, Options{}).Kind)
	env.advance(cache.DefaultTTL + time.Hour)
	forbid.Store(true)

	for i := 0; i <= DefaultBlockThreshold; i++ {
		o := env.f.Fetch(context.Background(), "acm-dl", url, Options{})
		assert.Equal(t, CachedStale, o.Kind, "attempt %d", i+1)
		assert.Equal(t, ReasonBlocked, o.Reason)
		assert.Equal(t, "badges", string(o.Body))
		assert.NoError(t, o.Err())
	}
	assert.True(t, env.f.Health().IsBlocked("acm-dl"), "stale hits still count toward the breaker")

	strict := env.f.Fetch(context.Background(), "other", ts.URL+"/doi/10.1145/8", Options{Strict: true})
	assert.Equal(t, Failed, strict.Kind)
	assert.ErrorIs(t, strict.Err(), ErrBlocked)
}

func TestFetch_SuccessResetsBlockStreak(t *testing.T) {
	env := newTestEnv(t, Config{})
	var forbid atomic.Bool
	ts, _ := countingServer(t, func(w http.ResponseWriter, _ *http.Request) {
		if forbid.Load() {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		fmt.Fprint(w, "ok")
	})

	forbid.Store(true)
	env.f.Fetch(context.Background(), "dl", ts.URL+"/1", Options{})
	env.f.Fetch(context.Background(), "dl", ts.URL+"/2", Options{})
	forbid.Store(false)
	env.f.Fetch(context.Background(), "dl", ts.URL+"/3", Options{})
	forbid.Store(true)
	env.f.Fetch(context.Background(), "dl", ts.URL+"/4", Options{})

	assert.False(t, env.f.Health().IsBlocked("dl"))
	snap := env.f.Health().Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, 1, snap[0].ConsecutiveBlocks)
}

func TestFetch_StaleFallbackAndStrict(t *testing.T) {
	env := newTestEnv(t, Config{})
	var failing atomic.Bool
	ts, _ := countingServer(t, func(w http.ResponseWriter, _ *http.Request) {
		if failing.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, "v1")
	})
	url := ts.URL + "/listing"

	require.Equal(t, Fresh, env.f.Fetch(context.Background(), "github", url, Options{}).Kind)
	env.advance(cache.DefaultTTL + time.Hour)
	failing.Store(true)

	o := env.f.Fetch(context.Background(), "github", url, Options{})
	assert.Equal(t, CachedStale, o.Kind)
	assert.Equal(t, "v1", string(o.Body))
	assert.Equal(t, ReasonHTTPStatus, o.Reason)

	strict := env.f.Fetch(context.Background(), "github", url, Options{Strict: true})
	assert.Equal(t, Failed, strict.Kind)
	assert.Equal(t, http.StatusServiceUnavailable, strict.Status)
	assert.ErrorIs(t, strict.Err(), ErrHTTPStatus)
}

func TestFetch_RateLimitWaitsForResetThenRetriesOnce(t *testing.T) {
	env := newTestEnv(t, Config{})
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(env.now.Unix()+30, 10))
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"message":"API rate limit exceeded"}`)
			return
		}
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer ts.Close()

	o := env.f.Fetch(context.Background(), "github", ts.URL+"/repos/a/b", Options{})
	require.NoError(t, o.Err())
	assert.Equal(t, Fresh, o.Kind)
	assert.Equal(t, []time.Duration{30*time.Second + httputil.ResetSlack}, env.slept)
	assert.False(t, env.f.Health().IsBlocked("github"), "rate limits do not count as blocks")
}

func TestFetch_RateLimitPersistsAfterRetry(t *testing.T) {
	env := newTestEnv(t, Config{})
	ts, calls := countingServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	o := env.f.Fetch(context.Background(), "zenodo", ts.URL+"/api/records/1", Options{})
	assert.Equal(t, Failed, o.Kind)
	assert.ErrorIs(t, o.Err(), ErrRateLimited)
	assert.Equal(t, []time.Duration{2 * time.Second}, env.slept)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestFetch_Bare429WaitsFallbackThenRetriesOnce(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.f.cfg.HTTP.RateLimitFallback = 60 * time.Second
	ts, calls := countingServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	o := env.f.Fetch(context.Background(), "zenodo", ts.URL+"/api/records/2", Options{MaxRetries: 3})
	assert.Equal(t, Failed, o.Kind)
	assert.ErrorIs(t, o.Err(), ErrRateLimited)
	assert.Equal(t, []time.Duration{60 * time.Second}, env.slept)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls), "one request, one wait, one retry")
}

func TestFetch_NotFound(t *testing.T) {
	env := newTestEnv(t, Config{})
	ts, _ := countingServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	})

	o := env.f.Fetch(context.Background(), "github", ts.URL+"/committee.md", Options{})
	assert.Equal(t, Failed, o.Kind)
	assert.ErrorIs(t, o.Err(), ErrNotFound)
	assert.Equal(t, http.StatusNotFound, o.Status)
}

func TestFetch_NetworkError(t *testing.T) {
	env := newTestEnv(t, Config{})
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL + "/gone"
	ts.Close()

	o := env.f.Fetch(context.Background(), "github", url, Options{})
	assert.Equal(t, Failed, o.Kind)
	assert.ErrorIs(t, o.Err(), ErrNetwork)
}

func TestFetch_TokenOnlyForAuthHosts(t *testing.T) {
	var got atomic.Value
	got.Store("")
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.Header.Get("Authorization"))
		fmt.Fprint(w, "ok")
	}))
	defer ts.Close()

	anon := newTestEnv(t, Config{Token: "secret"})
	anon.f.Fetch(context.Background(), "github", ts.URL+"/a", Options{})
	assert.Equal(t, "", got.Load())

	authed := newTestEnv(t, Config{Token: "secret", AuthHosts: []string{"127.0.0.1"}})
	authed.f.Fetch(context.Background(), "github", ts.URL+"/b", Options{Headers: map[string]string{"Accept": "application/vnd.github.v3+json"}})
	assert.Equal(t, "token secret", got.Load())
}

func TestCheckURL(t *testing.T) {
	env := newTestEnv(t, Config{})
	ts, calls := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		switch r.URL.Path {
		case "/ok":
			w.WriteHeader(http.StatusOK)
		case "/moved":
			http.Redirect(w, r, "/ok", http.StatusMovedPermanently)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	assert.True(t, env.f.CheckURL(context.Background(), "urls", ts.URL+"/ok"))
	assert.True(t, env.f.CheckURL(context.Background(), "urls", ts.URL+"/moved"))
	assert.False(t, env.f.CheckURL(context.Background(), "urls", ts.URL+"/missing"))
	before := atomic.LoadInt32(calls)

	assert.True(t, env.f.CheckURL(context.Background(), "urls", ts.URL+"/ok"))
	assert.False(t, env.f.CheckURL(context.Background(), "urls", ts.URL+"/missing"))
	assert.Equal(t, before, atomic.LoadInt32(calls), "cached results skip the network")

	env.advance(cache.DefaultURLNegativeTTL + time.Hour)
	assert.True(t, env.f.CheckURL(context.Background(), "urls", ts.URL+"/ok"))
	assert.Equal(t, before, atomic.LoadInt32(calls), "positive results outlive the negative TTL")
	env.f.CheckURL(context.Background(), "urls", ts.URL+"/missing")
	assert.Equal(t, before+1, atomic.LoadInt32(calls), "negative results are re-probed")
}

func TestCheckURL_RetriesOnceAfter429(t *testing.T) {
	env := newTestEnv(t, Config{})
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	assert.True(t, env.f.CheckURL(context.Background(), "urls", ts.URL+"/repo"))
	assert.Equal(t, []time.Duration{ExistsRetryDelay}, env.slept)
}

func TestOutcomeErr(t *testing.T) {
	assert.NoError(t, Outcome{Kind: CachedStale, Reason: ReasonNetwork}.Err())
	err := Outcome{Kind: Failed, Reason: ReasonBlocked, Status: 403, URL: "https://dl.acm.org/doi/x"}.Err()
	assert.ErrorIs(t, err, ErrBlocked)
	assert.Contains(t, err.Error(), "HTTP 403")
	assert.Equal(t, "failed_blocked", Outcome{Kind: Failed, Reason: ReasonBlocked}.Label())
	assert.Equal(t, "cached_fresh", Outcome{Kind: CachedFresh}.Label())
}
