// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var checkURLsCmd = &cobra.Command{
	Use:   "check-urls",
	Short: "Check that stored repository and artifact URLs still resolve",
	Long: `Check-urls sends a HEAD request to every repository and artifact URL of
the stored artifacts. Results are cached: a reachable URL is trusted for 90
days, an unreachable one for 7.`,
	RunE: runCheckURLs,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Fetch repository and archive statistics for stored artifacts",
	Long: `Stats looks up GitHub stars, forks and activity for every stored
artifact repository, and views and downloads for Zenodo and Figshare
archives. Use --check-urls to attach URL existence checks to each entry.`,
	RunE: runStats,
}

func init() {
	for _, c := range []*cobra.Command{checkURLsCmd, statsCmd} {
		c.Flags().StringSlice("source", nil, "only artifacts stored from these sources")
		addQueryFlags(c)
	}
	statsCmd.Flags().Bool("check-urls", false, "also check URL existence")

	rootCmd.AddCommand(checkURLsCmd, statsCmd)
}

// URLCheck is one line of check-urls output.
type URLCheck struct {
	URL    string `json:"url" yaml:"url"`
	Exists bool   `json:"exists" yaml:"exists"`
}

func runCheckURLs(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	sets, err := s.store.Artifacts(ctx, queryFilter(cmd))
	if err != nil {
		return err
	}
	if len(sets) == 0 {
		return fmt.Errorf("no stored artifacts match; run 'artifact-harvest artifacts' first")
	}

	run, err := s.store.BeginRun(ctx, "check-urls")
	if err != nil {
		return err
	}
	checks, r := s.collector.CheckURLs(ctx, sets)
	s.record(ctx, run, r)

	out := make([]URLCheck, 0, len(checks))
	for u, ok := range checks {
		out = append(out, URLCheck{URL: u, Exists: ok})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return writeRecords(cmd, out)
}

func runStats(cmd *cobra.Command, args []string) error {
	withChecks, _ := cmd.Flags().GetBool("check-urls")

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	sets, err := s.store.Artifacts(ctx, queryFilter(cmd))
	if err != nil {
		return err
	}
	if len(sets) == 0 {
		return fmt.Errorf("no stored artifacts match; run 'artifact-harvest artifacts' first")
	}

	run, err := s.store.BeginRun(ctx, "stats")
	if err != nil {
		return err
	}
	var checks map[string]bool
	if withChecks {
		checks, _ = s.collector.CheckURLs(ctx, sets)
	}
	stats, r := s.collector.EnrichStats(ctx, sets, checks)
	s.record(ctx, run, r)

	if err := writeRecords(cmd, stats); err != nil {
		return err
	}
	return batchError("stats", r)
}
