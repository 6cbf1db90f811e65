// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by every stage that makes
// network requests.
type HTTPConfig struct {
	// Timeout is the per-request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "artifact-harvest/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries bounds the backoff ladder for retryable statuses (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// RetryBaseDelay is the first backoff step; it doubles per attempt.
	RetryBaseDelay time.Duration `json:"retry_base_delay" yaml:"retry_base_delay" mapstructure:"retry_base_delay"`

	// RateLimitFallback is how long to wait on a rate-limit response that
	// carries no reset time.
	RateLimitFallback time.Duration `json:"rate_limit_fallback" yaml:"rate_limit_fallback" mapstructure:"rate_limit_fallback"`
}

// CacheConfig controls the on-disk cache and its TTLs.
type CacheConfig struct {
	// Dir is the cache root; namespaces are subdirectories.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// TTL applies to raw HTTP bodies and parsed listings (default 30 days).
	TTL time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`

	// URLPositiveTTL is how long a reachable URL stays trusted (default 90 days).
	URLPositiveTTL time.Duration `json:"url_positive_ttl" yaml:"url_positive_ttl" mapstructure:"url_positive_ttl"`

	// URLNegativeTTL is how long an unreachable URL stays trusted (default 7 days).
	URLNegativeTTL time.Duration `json:"url_negative_ttl" yaml:"url_negative_ttl" mapstructure:"url_negative_ttl"`

	// StatsTTL applies to repository and archive statistics (default 30 days).
	StatsTTL time.Duration `json:"stats_ttl" yaml:"stats_ttl" mapstructure:"stats_ttl"`
}

// BreakerConfig controls per-source circuit breaking.
type BreakerConfig struct {
	// Threshold is the number of consecutive blocks that trips a source (default 3).
	Threshold int `json:"threshold" yaml:"threshold" mapstructure:"threshold"`
}

// PolitenessConfig limits the request rate per host.
type PolitenessConfig struct {
	RPS   float64 `json:"rps" yaml:"rps" mapstructure:"rps"`
	Burst int     `json:"burst" yaml:"burst" mapstructure:"burst"`
}

// ResolverConfig controls affiliation resolution.
type ResolverConfig struct {
	// Threshold is the minimum fuzzy score, exclusive (default 80).
	Threshold int `json:"threshold" yaml:"threshold" mapstructure:"threshold"`

	// UniversitiesURL is the public institution list (university-domains JSON).
	UniversitiesURL string `json:"universities_url" yaml:"universities_url" mapstructure:"universities_url"`

	// OverridesFile is an optional YAML list of extra institutions, indexed
	// after the built-in overrides.
	OverridesFile string `json:"overrides_file,omitempty" yaml:"overrides_file,omitempty" mapstructure:"overrides_file"`
}

// StoreConfig locates the SQLite results database.
type StoreConfig struct {
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// LogConfig selects the logger flavour.
type LogConfig struct {
	Development bool `json:"development" yaml:"development" mapstructure:"development"`
}

// MetricsConfig controls the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`
}

// SourceKind says which canonical record a source produces.
type SourceKind string

const (
	KindArtifacts SourceKind = "artifacts"
	KindCommittee SourceKind = "committee"
)

// SourceConfig describes one artifact-evaluation site. Parser hints live
// here so new sites need configuration, not code.
type SourceConfig struct {
	// Name is the logical source, also the circuit-breaker key (e.g. "sys").
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// ListingURL lists conference directories (GitHub contents API).
	ListingURL string `json:"listing_url" yaml:"listing_url" mapstructure:"listing_url"`

	// RawBaseURL prefixes "<conference>/<file>" to download documents.
	RawBaseURL string `json:"raw_base_url" yaml:"raw_base_url" mapstructure:"raw_base_url"`

	// ResultsFiles are tried in order until one exists.
	ResultsFiles []string `json:"results_files" yaml:"results_files" mapstructure:"results_files"`

	// CommitteeFiles are tried in order until one exists.
	CommitteeFiles []string `json:"committee_files" yaml:"committee_files" mapstructure:"committee_files"`

	// Strategies orders the parse strategies by name; empty means the default order.
	Strategies []string `json:"strategies,omitempty" yaml:"strategies,omitempty" mapstructure:"strategies"`

	// RepoHosts and ArtifactHosts classify result links by keyword.
	RepoHosts     []string `json:"repo_hosts,omitempty" yaml:"repo_hosts,omitempty" mapstructure:"repo_hosts"`
	ArtifactHosts []string `json:"artifact_hosts,omitempty" yaml:"artifact_hosts,omitempty" mapstructure:"artifact_hosts"`
}

// Config is the full runtime configuration.
type Config struct {
	HTTP       HTTPConfig       `json:"http" yaml:"http" mapstructure:"http"`
	Cache      CacheConfig      `json:"cache" yaml:"cache" mapstructure:"cache"`
	Breaker    BreakerConfig    `json:"breaker" yaml:"breaker" mapstructure:"breaker"`
	Politeness PolitenessConfig `json:"politeness" yaml:"politeness" mapstructure:"politeness"`
	Resolver   ResolverConfig   `json:"resolver" yaml:"resolver" mapstructure:"resolver"`
	Store      StoreConfig      `json:"store" yaml:"store" mapstructure:"store"`
	Log        LogConfig        `json:"log" yaml:"log" mapstructure:"log"`
	Metrics    MetricsConfig    `json:"metrics" yaml:"metrics" mapstructure:"metrics"`

	// Workers bounds the fetch worker pool.
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	Sources []SourceConfig `json:"sources" yaml:"sources" mapstructure:"sources"`
}

// Source returns the named source configuration.
func (c Config) Source(name string) (SourceConfig, bool) {
	for _, s := range c.Sources {
		if s.Name == name {
			return s, true
		}
	}
	return SourceConfig{}, false
}
