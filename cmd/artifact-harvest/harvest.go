// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/artifact-harvest/internal/cache"
	"github.com/pdiddy/artifact-harvest/internal/collect"
	"github.com/pdiddy/artifact-harvest/internal/fetch"
	"github.com/pdiddy/artifact-harvest/internal/httputil"
	"github.com/pdiddy/artifact-harvest/internal/metrics"
	"github.com/pdiddy/artifact-harvest/internal/politeness"
	"github.com/pdiddy/artifact-harvest/internal/sources"
	"github.com/pdiddy/artifact-harvest/internal/store"
	"github.com/pdiddy/artifact-harvest/pkg/types"
)

// session bundles what a harvesting command needs and tears it down.
type session struct {
	collector *collect.Collector
	fetcher   *fetch.Fetcher
	store     *store.Store
	metrics   *http.Server
}

// newSession wires cache, breaker, limiter and fetcher from cfg, opens the
// results store and starts the metrics endpoint when one is configured.
func newSession(cmd *cobra.Command) (*session, error) {
	if cfg.HTTP.RetryBaseDelay > 0 {
		httputil.RetryBaseDelay = cfg.HTTP.RetryBaseDelay
	}

	c, err := cache.Open(cfg.Cache, logger)
	if err != nil {
		return nil, err
	}
	f := fetch.New(
		&http.Client{Timeout: cfg.HTTP.Timeout},
		c,
		fetch.NewHealthTable(cfg.Breaker.Threshold, logger),
		politeness.New(cfg.Politeness),
		fetch.Config{HTTP: cfg.HTTP, Token: githubToken},
		logger,
	)

	st, err := store.Open(cfg.Store, logger)
	if err != nil {
		return nil, err
	}

	s := &session{
		collector: collect.New(f, cfg.Workers, cmd.ErrOrStderr(), logger),
		fetcher:   f,
		store:     st,
	}
	if cfg.Metrics.Addr != "" {
		s.metrics = serveMetrics(cfg.Metrics.Addr)
	}
	return s, nil
}

func (s *session) Close() {
	if s.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = s.metrics.Shutdown(ctx)
		cancel()
	}
	if err := s.store.Close(); err != nil {
		logger.Warn("closing store", zap.Error(err))
	}
}

func serveMetrics(addr string) *http.Server {
	metrics.Init()
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.String("addr", addr), zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", addr))
	return srv
}

// record stores the batch counts of a finished run.
func (s *session) record(ctx context.Context, run *store.Run, r collect.BatchResult) {
	run.Collected, run.Empty, run.Skipped, run.Failed = r.Collected, r.Empty, r.Skipped, r.Failed
	run.Degraded = r.Degraded
	if err := s.store.FinishRun(ctx, run); err != nil {
		logger.Warn("recording run", zap.String("run", run.ID), zap.Error(err))
	}
}

// batchError turns a batch that produced nothing but failures into an
// error, so the process exits non-zero. Partial failures are reported in
// the summary only.
func batchError(what string, r collect.BatchResult) error {
	if r.AllFailed() {
		return fmt.Errorf("%s: all %d item(s) failed", what, r.Total())
	}
	return nil
}

// selectSources keeps the configured sources named in names; empty names
// keeps them all.
func selectSources(all []types.SourceConfig, names []string) ([]types.SourceConfig, error) {
	if len(names) == 0 {
		return all, nil
	}
	var out []types.SourceConfig
	for _, n := range names {
		found := false
		for _, s := range all {
			if strings.EqualFold(s.Name, n) {
				out = append(out, s)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown source %q", n)
		}
	}
	return out, nil
}

// addSiteFlags registers the flags shared by commands that walk the
// conference sites.
func addSiteFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("source", nil, "limit to these configured sources (default all)")
	cmd.Flags().String("filter", sources.DefaultConferenceFilter, "regular expression selecting conference directories")
}

func siteFlags(cmd *cobra.Command) ([]types.SourceConfig, *regexp.Regexp, error) {
	names, _ := cmd.Flags().GetStringSlice("source")
	srcs, err := selectSources(cfg.Sources, names)
	if err != nil {
		return nil, nil, err
	}
	expr, _ := cmd.Flags().GetString("filter")
	if expr == "" {
		return srcs, nil, nil
	}
	filter, err := regexp.Compile(expr)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid --filter: %w", err)
	}
	return srcs, filter, nil
}

// addQueryFlags registers the stored-record filters.
func addQueryFlags(cmd *cobra.Command) {
	cmd.Flags().String("conference", "", "only this conference, e.g. osdi")
	cmd.Flags().Int("year", 0, "only this year")
}

func queryFilter(cmd *cobra.Command) store.Filter {
	conf, _ := cmd.Flags().GetString("conference")
	year, _ := cmd.Flags().GetInt("year")
	var src string
	if cmd.Flags().Lookup("source") != nil {
		if names, _ := cmd.Flags().GetStringSlice("source"); len(names) == 1 {
			src = names[0]
		}
	}
	return store.Filter{Source: src, Conference: conf, Year: year}
}

// writeRecords encodes v to --output in --format.
func writeRecords(cmd *cobra.Command, v any) error {
	formatName, _ := cmd.Flags().GetString("format")
	format, err := store.ParseFormat(formatName)
	if err != nil {
		return err
	}
	return withOutput(cmd, func(w io.Writer) error {
		return store.Encode(w, format, v)
	})
}

func withOutput(cmd *cobra.Command, fn func(io.Writer) error) error {
	path, _ := cmd.Flags().GetString("output")
	if path == "" || path == "-" {
		return fn(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", path)
	return nil
}
