// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"context"
	"errors"
	"regexp"
	"sort"

	"go.uber.org/zap"

	"github.com/pdiddy/artifact-harvest/internal/fetch"
	"github.com/pdiddy/artifact-harvest/internal/parse"
	"github.com/pdiddy/artifact-harvest/internal/pool"
	"github.com/pdiddy/artifact-harvest/pkg/types"
)

// errNoDocument marks a conference-year with none of the expected files.
var errNoDocument = errors.New("no document found")

type confJob struct {
	src  types.SourceConfig
	conf types.ConferenceYear
}

func (j confJob) String() string { return j.src.Name + "/" + j.conf.String() }

// jobs lists the conference-years of every source. A source whose listing
// fails is reported and counted as one failure.
func (c *Collector) jobs(ctx context.Context, srcs []types.SourceConfig, filter *regexp.Regexp, r *BatchResult) []confJob {
	var out []confJob
	for _, src := range srcs {
		confs, err := c.Sources.Conferences(ctx, src, filter)
		if err != nil {
			c.printf("failed:    %s listing (%v)\n", src.Name, err)
			r.Failed++
			continue
		}
		for _, conf := range confs {
			out = append(out, confJob{src: src, conf: conf})
		}
	}
	return out
}

func (c *Collector) poolOptions() pool.Options[confJob] {
	return pool.Options[confJob]{
		Workers: c.Workers,
		Breaker: c.Fetcher.Health(),
		Source:  func(j confJob) string { return j.src.Name },
		Logger:  c.Logger,
	}
}

// document fetches the first available of names for j.
func (c *Collector) document(ctx context.Context, j confJob, names []string) ([]byte, string, error) {
	body, file, out := c.Sources.Document(ctx, j.src, j.conf, names)
	if file == "" {
		if out.Reason == fetch.ReasonNotFound {
			return nil, "", errNoDocument
		}
		return nil, "", out.Err()
	}
	if out.Kind == fetch.CachedStale {
		c.Logger.Info("serving stale document", zap.String("item", j.String()), zap.String("file", file))
	}
	return body, file, nil
}

// tally folds a pool result into r. Skipped and failed items are reported
// here; collected and empty ones are reported by the task itself.
func tally[R any](c *Collector, res pool.Result[confJob, R], empty bool, r *BatchResult) {
	switch {
	case res.Skipped:
		c.printf("skipped:   %s (%v)\n", res.Item, res.Err)
		r.Skipped++
	case errors.Is(res.Err, errNoDocument):
		c.printf("empty:     %s (no document)\n", res.Item)
		r.Empty++
	case res.Err != nil:
		c.printf("failed:    %s (%v)\n", res.Item, res.Err)
		r.Failed++
	case empty:
		r.Empty++
	default:
		r.Collected++
	}
}

// Artifacts fetches and parses the results document of every matching
// conference-year. Only conference-years that yielded records are returned,
// ordered by source then conference.
func (c *Collector) Artifacts(ctx context.Context, srcs []types.SourceConfig, filter *regexp.Regexp) ([]types.ConferenceArtifacts, BatchResult) {
	var r BatchResult
	jobs := c.jobs(ctx, srcs, filter, &r)

	results := pool.Run(ctx, c.poolOptions(), jobs, func(ctx context.Context, j confJob) (types.ConferenceArtifacts, error) {
		body, file, err := c.document(ctx, j, j.src.ResultsFiles)
		if err != nil {
			return types.ConferenceArtifacts{}, err
		}
		hints := parse.HintsFor(j.src, types.KindArtifacts)
		recs, strategy := parse.NewArtifactParser(hints, c.Logger).Parse(body, hints)
		if len(recs) == 0 {
			c.printf("empty:     %s (%s: no records)\n", j, file)
		} else {
			c.printf("collected: %s (%d artifacts, %s)\n", j, len(recs), strategy)
		}
		return types.ConferenceArtifacts{
			Source:     j.src.Name,
			Conference: j.conf,
			File:       file,
			Strategy:   strategy,
			Artifacts:  recs,
		}, nil
	})

	var out []types.ConferenceArtifacts
	for _, res := range results {
		tally(c, res, res.Err == nil && len(res.Value.Artifacts) == 0, &r)
		if res.Err == nil && len(res.Value.Artifacts) > 0 {
			out = append(out, res.Value)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].Conference.String() < out[j].Conference.String()
	})
	c.summarize("Artifacts", &r)
	return out, r
}

// Committees fetches, parses and cleans the committee roster of every
// matching conference-year. Rosters with fewer than parse.MinCommitteeSize
// real members are dropped as incomplete.
func (c *Collector) Committees(ctx context.Context, srcs []types.SourceConfig, filter *regexp.Regexp) ([]types.ConferenceCommittee, BatchResult) {
	var r BatchResult
	jobs := c.jobs(ctx, srcs, filter, &r)
	parser := parse.NewCommitteeParser(c.Logger)

	results := pool.Run(ctx, c.poolOptions(), jobs, func(ctx context.Context, j confJob) (types.ConferenceCommittee, error) {
		body, file, err := c.document(ctx, j, j.src.CommitteeFiles)
		if err != nil {
			return types.ConferenceCommittee{}, err
		}
		recs, _ := parser.Parse(body, parse.HintsFor(j.src, types.KindCommittee))
		members := parse.CleanCommittee(recs)
		if !parse.ValidCommittee(members) {
			c.printf("empty:     %s (%s: %d members, need %d)\n", j, file, len(members), parse.MinCommitteeSize)
			return types.ConferenceCommittee{Source: j.src.Name, Conference: j.conf, File: file}, nil
		}
		for i := range members {
			members[i].Conference = j.conf.Conference
			members[i].Year = j.conf.Year
		}
		c.printf("collected: %s (%d members)\n", j, len(members))
		return types.ConferenceCommittee{
			Source:     j.src.Name,
			Conference: j.conf,
			File:       file,
			Members:    members,
		}, nil
	})

	var out []types.ConferenceCommittee
	for _, res := range results {
		tally(c, res, res.Err == nil && len(res.Value.Members) == 0, &r)
		if res.Err == nil && len(res.Value.Members) > 0 {
			out = append(out, res.Value)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].Conference.String() < out[j].Conference.String()
	})
	c.summarize("Committees", &r)
	return out, r
}

// Members flattens rosters into one record slice.
func Members(committees []types.ConferenceCommittee) []types.CommitteeRecord {
	var out []types.CommitteeRecord
	for _, cc := range committees {
		out = append(out, cc.Members...)
	}
	return out
}
