// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"context"
	"errors"

	"github.com/pdiddy/artifact-harvest/internal/fetch"
	"github.com/pdiddy/artifact-harvest/internal/pool"
	"github.com/pdiddy/artifact-harvest/internal/sources"
	"github.com/pdiddy/artifact-harvest/pkg/types"
)

type paperJob struct {
	index int
	paper types.ArtifactRecord
}

// ACM lists a proceedings volume from DBLP and enriches each paper with
// the badges shown in the ACM Digital Library. Once the library blocks us
// the remaining papers are skipped and returned with no badges, so the
// volume degrades to a DBLP-only listing instead of failing. Papers come
// back in DBLP order.
func (c *Collector) ACM(ctx context.Context, venue string, year int) ([]types.ArtifactRecord, BatchResult) {
	var r BatchResult
	item := types.ConferenceYear{Conference: venue, Year: year}.String()

	papers, out := c.Sources.DBLPPapers(ctx, venue, year)
	if !out.OK() {
		c.printf("failed:    %s paper list (%v)\n", item, out.Err())
		r.Failed++
		c.summarize("ACM", &r)
		return nil, r
	}
	c.printf("listed:    %s (%d papers from DBLP)\n", item, len(papers))

	jobs := make([]paperJob, len(papers))
	for i, p := range papers {
		jobs[i] = paperJob{index: i, paper: p}
	}
	opts := pool.Options[paperJob]{
		Workers: c.Workers,
		Breaker: c.Fetcher.Health(),
		Source:  func(paperJob) string { return sources.SourceACMDL },
		Logger:  c.Logger,
	}
	results := pool.Run(ctx, opts, jobs, func(ctx context.Context, j paperJob) (types.BadgeSet, error) {
		badges, out := c.Sources.DLBadges(ctx, j.paper.DOI)
		if !out.OK() {
			return nil, out.Err()
		}
		return badges, nil
	})

	enriched := make([]types.ArtifactRecord, len(papers))
	copy(enriched, papers)
	for _, res := range results {
		switch {
		case res.Skipped:
			r.Skipped++
		case res.Err != nil && errors.Is(res.Err, fetch.ErrNotFound):
			r.Empty++
		case res.Err != nil:
			r.Failed++
		case len(res.Value) == 0:
			r.Empty++
		default:
			enriched[res.Item.index].Badges = res.Value
			r.Collected++
		}
	}

	if c.Fetcher.Health().IsBlocked(sources.SourceACMDL) {
		c.printf("degraded:  %s (ACM DL blocked; %d papers without badges)\n", item, r.Skipped+r.Failed)
	}
	c.summarize("ACM", &r)
	return enriched, r
}

// Badged keeps the records that carry at least one badge.
func Badged(recs []types.ArtifactRecord) []types.ArtifactRecord {
	var out []types.ArtifactRecord
	for _, rec := range recs {
		if len(rec.Badges) > 0 {
			out = append(out, rec)
		}
	}
	return out
}
