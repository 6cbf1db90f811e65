// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/artifact-harvest/internal/aggregate"
	"github.com/pdiddy/artifact-harvest/internal/collect"
	"github.com/pdiddy/artifact-harvest/internal/fetch"
	"github.com/pdiddy/artifact-harvest/internal/resolve"
	"github.com/pdiddy/artifact-harvest/pkg/types"
)

// sourceUniversities labels the institution list download.
const sourceUniversities = "universities"

var classifyCmd = &cobra.Command{
	Use:   "classify [affiliation...]",
	Short: "Resolve affiliations to institution and country",
	Long: `Classify maps free-text affiliations to an institution and country using
the public university list plus curated overrides: an exact or prefix match
first, then a fuzzy match above the configured threshold. Without
arguments it classifies every affiliation in the stored committees.`,
	RunE: runClassify,
}

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Merge stored committee records into per-person profiles",
	Long: `Profiles merges every stored committee record by normalized name into a
profile with membership and chair counts, years, conferences and research
area. The most recent year's spelling and affiliation win.`,
	RunE: runProfiles,
}

func init() {
	classifyCmd.Flags().Bool("unresolved", false, "output only unresolved affiliations")
	profilesCmd.Flags().Bool("recurring", false, "keep only people with two or more memberships or a chair role")
	addQueryFlags(classifyCmd)
	addQueryFlags(profilesCmd)

	rootCmd.AddCommand(classifyCmd, profilesCmd)
}

// buildIndex loads the public institution list through the fetcher, so it
// is cached like every other download, then the built-in and configured
// overrides.
func buildIndex(ctx context.Context, f *fetch.Fetcher) (*resolve.Index, error) {
	var public []resolve.Institution
	out := f.Fetch(ctx, sourceUniversities, cfg.Resolver.UniversitiesURL, fetch.Options{})
	if err := out.Err(); err != nil {
		logger.Warn("institution list unavailable, using overrides only", zap.Error(err))
	} else {
		list, err := resolve.LoadUniversities(bytes.NewReader(out.Body))
		if err != nil {
			return nil, err
		}
		public = list
	}

	overrides := [][]resolve.Institution{resolve.DefaultOverrides()}
	if cfg.Resolver.OverridesFile != "" {
		extra, err := resolve.LoadOverrides(cfg.Resolver.OverridesFile)
		if err != nil {
			return nil, err
		}
		overrides = append(overrides, extra)
	}
	idx := resolve.Build(cfg.Resolver.Threshold, public, overrides...)
	logger.Info("built institution index",
		zap.Int("public", len(public)),
		zap.Int("keys", idx.Len()))
	return idx, nil
}

// affiliations returns the distinct non-empty affiliations of records,
// sorted.
func affiliations(records []types.CommitteeRecord) []string {
	seen := make(map[string]bool)
	for _, r := range records {
		if a := types.CleanAffiliation(r.Affiliation); a != "" {
			seen[a] = true
		}
	}
	out := make([]string, 0, len(seen))
	for a := range seen {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// classifySummary tallies resolutions by method.
func classifySummary(res []types.AffiliationResolution) map[types.ResolutionMethod]int {
	counts := make(map[types.ResolutionMethod]int)
	for _, r := range res {
		counts[r.Method]++
	}
	return counts
}

func runClassify(cmd *cobra.Command, args []string) error {
	onlyUnresolved, _ := cmd.Flags().GetBool("unresolved")

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	inputs := args
	if len(inputs) == 0 {
		rosters, err := s.store.Committees(ctx, queryFilter(cmd))
		if err != nil {
			return err
		}
		inputs = affiliations(collect.Members(rosters))
		if len(inputs) == 0 {
			return fmt.Errorf("no stored affiliations; run 'artifact-harvest committees' first")
		}
	}

	idx, err := buildIndex(ctx, s.fetcher)
	if err != nil {
		return err
	}

	run, err := s.store.BeginRun(ctx, "classify")
	if err != nil {
		return err
	}
	res := make([]types.AffiliationResolution, len(inputs))
	for i, in := range inputs {
		res[i] = idx.Classify(in)
	}
	if err := s.store.SaveResolutions(ctx, run.ID, res); err != nil {
		return err
	}
	counts := classifySummary(res)
	s.record(ctx, run, collect.BatchResult{
		Collected: counts[types.MethodPrefix] + counts[types.MethodFuzzy],
		Empty:     counts[types.MethodUnresolved],
	})
	fmt.Fprintf(cmd.ErrOrStderr(), "\nClassify summary: %d prefix, %d fuzzy, %d unresolved (total: %d)\n",
		counts[types.MethodPrefix], counts[types.MethodFuzzy], counts[types.MethodUnresolved], len(res))

	if onlyUnresolved {
		kept := res[:0]
		for _, r := range res {
			if !r.Resolved() {
				kept = append(kept, r)
			}
		}
		res = kept
	}
	return writeRecords(cmd, res)
}

func runProfiles(cmd *cobra.Command, args []string) error {
	recurring, _ := cmd.Flags().GetBool("recurring")

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	rosters, err := s.store.Committees(ctx, queryFilter(cmd))
	if err != nil {
		return err
	}
	records := collect.Members(rosters)
	if len(records) == 0 {
		return fmt.Errorf("no stored committee records; run 'artifact-harvest committees' first")
	}

	run, err := s.store.BeginRun(ctx, "profiles")
	if err != nil {
		return err
	}
	profiles := aggregate.Merge(records)
	if err := s.store.SaveProfiles(ctx, run.ID, profiles); err != nil {
		return err
	}
	s.record(ctx, run, collect.BatchResult{Collected: len(profiles)})
	fmt.Fprintf(cmd.ErrOrStderr(), "\nProfiles summary: %d records merged into %d profiles\n", len(records), len(profiles))

	if recurring {
		profiles = aggregate.Recurring(profiles)
	}
	return writeRecords(cmd, profiles)
}
