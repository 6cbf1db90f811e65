// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads and validates the artifact-harvest configuration
// through viper. Values come from defaults, then the config file, then
// ARTIFACT_HARVEST_* environment variables (dots become underscores, so
// cache.dir is ARTIFACT_HARVEST_CACHE_DIR).
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/artifact-harvest/internal/cache"
	"github.com/pdiddy/artifact-harvest/internal/fetch"
	"github.com/pdiddy/artifact-harvest/internal/parse"
	"github.com/pdiddy/artifact-harvest/internal/resolve"
	"github.com/pdiddy/artifact-harvest/pkg/types"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "ARTIFACT_HARVEST"

// DefaultWorkers sizes the fetch worker pool.
const DefaultWorkers = 8

// ConfigureEnv wires environment overrides into v.
func ConfigureEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// SetDefaults registers a default for every scalar key so that environment
// overrides are visible to Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("cache.dir", ".cache")
	v.SetDefault("cache.ttl", cache.DefaultTTL)
	v.SetDefault("cache.url_positive_ttl", cache.DefaultURLPositiveTTL)
	v.SetDefault("cache.url_negative_ttl", cache.DefaultURLNegativeTTL)
	v.SetDefault("cache.stats_ttl", cache.DefaultStatsTTL)

	v.SetDefault("http.timeout", fetch.DefaultTimeout)
	v.SetDefault("http.user_agent", fetch.DefaultUserAgent)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.retry_base_delay", time.Second)
	v.SetDefault("http.rate_limit_fallback", fetch.DefaultRateLimitFallback)

	v.SetDefault("breaker.threshold", fetch.DefaultBlockThreshold)

	v.SetDefault("politeness.rps", 2.0)
	v.SetDefault("politeness.burst", 1)

	v.SetDefault("workers", DefaultWorkers)

	v.SetDefault("resolver.threshold", resolve.DefaultThreshold)
	v.SetDefault("resolver.universities_url", resolve.UniversitiesURL)
	v.SetDefault("resolver.overrides_file", "")

	v.SetDefault("store.path", "data/harvest.db")
	v.SetDefault("log.development", false)
	v.SetDefault("metrics.addr", "")
}

// DefaultSources returns the sysartifacts and secartifacts sites.
func DefaultSources() []types.SourceConfig {
	site := func(name, repo string) types.SourceConfig {
		return types.SourceConfig{
			Name:           name,
			ListingURL:     "https://api.github.com/repos/" + repo + "/contents/_conferences/",
			RawBaseURL:     "https://raw.githubusercontent.com/" + repo + "/master/_conferences/",
			ResultsFiles:   []string{"results.md", "result.md"},
			CommitteeFiles: []string{"committee.md", "organizers.md"},
		}
	}
	return []types.SourceConfig{
		site("sys", "sysartifacts/sysartifacts.github.io"),
		site("sec", "secartifacts/secartifacts.github.io"),
	}
}

// Load unmarshals v into a Config, fills in the default sources when none
// are configured, and validates the result.
func Load(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if len(cfg.Sources) == 0 {
		cfg.Sources = DefaultSources()
	}
	for i := range cfg.Sources {
		fillSource(&cfg.Sources[i])
	}
	if err := Validate(cfg); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

func fillSource(s *types.SourceConfig) {
	if len(s.ResultsFiles) == 0 {
		s.ResultsFiles = []string{"results.md", "result.md"}
	}
	if len(s.CommitteeFiles) == 0 {
		s.CommitteeFiles = []string{"committee.md", "organizers.md"}
	}
	if s.RawBaseURL != "" && !strings.HasSuffix(s.RawBaseURL, "/") {
		s.RawBaseURL += "/"
	}
}

// Validate enforces required values and sane limits.
func Validate(c types.Config) error {
	if strings.TrimSpace(c.Cache.Dir) == "" {
		return fmt.Errorf("cache.dir is required")
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be > 0")
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must be >= 0")
	}
	if c.Breaker.Threshold <= 0 {
		return fmt.Errorf("breaker.threshold must be > 0")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be > 0")
	}
	if c.Resolver.Threshold < 0 || c.Resolver.Threshold > 100 {
		return fmt.Errorf("resolver.threshold must be between 0 and 100")
	}
	if c.Politeness.RPS < 0 {
		return fmt.Errorf("politeness.rps must be >= 0")
	}

	known := make(map[string]bool)
	for _, name := range parse.ArtifactStrategyNames() {
		known[name] = true
	}
	seen := make(map[string]bool)
	for i, s := range c.Sources {
		if s.Name == "" {
			return fmt.Errorf("sources[%d].name is required", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate source %q", s.Name)
		}
		seen[s.Name] = true
		for _, u := range []string{s.ListingURL, s.RawBaseURL} {
			if u == "" {
				return fmt.Errorf("source %s: listing_url and raw_base_url are required", s.Name)
			}
			if parsed, err := url.Parse(u); err != nil || parsed.Scheme == "" || parsed.Host == "" {
				return fmt.Errorf("source %s: invalid URL %q", s.Name, u)
			}
		}
		for _, st := range s.Strategies {
			if !known[st] {
				return fmt.Errorf("source %s: unknown strategy %q", s.Name, st)
			}
		}
	}
	return nil
}
