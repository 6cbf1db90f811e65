// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/artifact-harvest/internal/pool"
	"github.com/pdiddy/artifact-harvest/internal/sources"
	"github.com/pdiddy/artifact-harvest/pkg/types"
)

// SourceURLCheck labels existence probes in metrics.
const SourceURLCheck = "url_check"

// artifactURLs returns the distinct repository and artifact URLs in sets,
// sorted.
func artifactURLs(sets []types.ConferenceArtifacts) []string {
	seen := make(map[string]bool)
	for _, set := range sets {
		for _, a := range set.Artifacts {
			for _, u := range []string{a.RepositoryURL, a.ArtifactURL} {
				u = strings.TrimSpace(u)
				if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
					seen[u] = true
				}
			}
		}
	}
	urls := make([]string, 0, len(seen))
	for u := range seen {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

// CheckURLs probes every repository and artifact URL for existence on
// URLCheckWorkers goroutines. Reachable URLs count as collected and
// unreachable ones as failed.
func (c *Collector) CheckURLs(ctx context.Context, sets []types.ConferenceArtifacts) (map[string]bool, BatchResult) {
	var r BatchResult
	urls := artifactURLs(sets)

	results := pool.Run(ctx, pool.Options[string]{Workers: URLCheckWorkers, Logger: c.Logger}, urls,
		func(ctx context.Context, u string) (bool, error) {
			return c.Fetcher.CheckURL(ctx, SourceURLCheck, u), nil
		})

	checks := make(map[string]bool, len(urls))
	for _, res := range results {
		switch {
		case res.Skipped:
			r.Skipped++
		case res.Value:
			checks[res.Item] = true
			r.Collected++
		default:
			checks[res.Item] = false
			c.printf("missing:   %s\n", res.Item)
			r.Failed++
		}
	}
	c.summarize("URL check", &r)
	return checks, r
}

type statsJob struct {
	conference string
	artifact   types.ArtifactRecord
}

func (j statsJob) source() string {
	switch {
	case strings.Contains(j.artifact.RepositoryURL, "github.com/"):
		return sources.SourceGitHub
	case strings.Contains(j.artifact.ArtifactURL, "zenodo"):
		return sources.SourceZenodo
	case strings.Contains(j.artifact.ArtifactURL, "figshare"):
		return sources.SourceFigshare
	}
	return ""
}

// EnrichStats fetches repository and archive statistics for every
// artifact that links to GitHub, Zenodo or Figshare. checks, when non-nil,
// is attached to each result.
func (c *Collector) EnrichStats(ctx context.Context, sets []types.ConferenceArtifacts, checks map[string]bool) ([]types.ArtifactStats, BatchResult) {
	var r BatchResult
	var jobs []statsJob
	for _, set := range sets {
		for _, a := range set.Artifacts {
			j := statsJob{conference: set.Conference.String(), artifact: a}
			if j.source() != "" {
				jobs = append(jobs, j)
			}
		}
	}

	opts := pool.Options[statsJob]{
		Workers: c.Workers,
		Breaker: c.Fetcher.Health(),
		Source:  statsJob.source,
		Logger:  c.Logger,
	}
	results := pool.Run(ctx, opts, jobs, func(ctx context.Context, j statsJob) (types.ArtifactStats, error) {
		a := j.artifact
		st := types.ArtifactStats{Conference: j.conference, Title: a.Title}
		if strings.Contains(a.RepositoryURL, "github.com/") {
			if repo, out := c.Sources.GitHubStats(ctx, a.RepositoryURL); repo != nil {
				st.Repository = repo
			} else if !out.OK() {
				c.Logger.Debug("no GitHub stats",
					zap.String("repo", a.RepositoryURL),
					zap.String("outcome", out.Label()))
			}
		}
		switch {
		case strings.Contains(a.ArtifactURL, "zenodo"):
			st.Archive, _ = c.Sources.ZenodoStats(ctx, a.ArtifactURL)
		case strings.Contains(a.ArtifactURL, "figshare"):
			st.Archive = c.Sources.FigshareStats(ctx, a.ArtifactURL)
		}
		if checks != nil {
			for _, u := range []string{a.RepositoryURL, a.ArtifactURL} {
				if ok, known := checks[u]; known {
					if st.URLChecks == nil {
						st.URLChecks = make(map[string]bool)
					}
					st.URLChecks[u] = ok
				}
			}
		}
		return st, nil
	})

	var out []types.ArtifactStats
	for _, res := range results {
		switch {
		case res.Skipped:
			r.Skipped++
		case res.Value.Repository == nil && res.Value.Archive == nil:
			r.Empty++
		default:
			r.Collected++
			out = append(out, res.Value)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Conference != out[j].Conference {
			return out[i].Conference < out[j].Conference
		}
		return out[i].Title < out[j].Title
	})
	c.summarize("Stats", &r)
	return out, r
}
