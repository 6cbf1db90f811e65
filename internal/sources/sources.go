// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sources knows the URL layout and response shapes of each remote
// site the harvester reads: the GitHub contents API behind the artifact
// evaluation sites, DBLP, the ACM Digital Library, and the GitHub, Zenodo
// and Figshare statistics endpoints. All network access goes through a
// Getter, normally a *fetch.Fetcher, so caching and circuit breaking apply.
package sources

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/artifact-harvest/internal/fetch"
	"github.com/pdiddy/artifact-harvest/internal/logging"
)

// Logical source names used as breaker keys and metric labels.
const (
	SourceDBLP     = "dblp"
	SourceACMDL    = "acm_dl"
	SourceGitHub   = "github"
	SourceZenodo   = "zenodo"
	SourceFigshare = "figshare"
)

// Getter performs one resilient fetch.
type Getter interface {
	Fetch(ctx context.Context, source, rawURL string, opts fetch.Options) fetch.Outcome
}

// Client reads the remote sites through a Getter.
type Client struct {
	Getter Getter

	// StatsTTL is the freshness window for statistics responses; zero
	// leaves it to the Getter's default.
	StatsTTL time.Duration

	Logger *zap.Logger
}

// NewClient returns a Client over g.
func NewClient(g Getter, statsTTL time.Duration, logger *zap.Logger) *Client {
	return &Client{Getter: g, StatsTTL: statsTTL, Logger: logging.OrNop(logger)}
}

func (c *Client) logger() *zap.Logger { return logging.OrNop(c.Logger) }
