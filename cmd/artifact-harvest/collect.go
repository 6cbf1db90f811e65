// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/artifact-harvest/internal/collect"
	"github.com/pdiddy/artifact-harvest/pkg/types"
)

// SourceACM names ACM proceedings records in the store.
const SourceACM = "acm"

var artifactsCmd = &cobra.Command{
	Use:   "artifacts",
	Short: "Collect artifact badges from the conference sites",
	Long: `Artifacts lists the conference directories of every configured site,
fetches each conference's results page (results.md, then result.md) and
parses it with the first strategy that yields records: YAML front matter,
an HTML table, or a Markdown table.`,
	RunE: runArtifacts,
}

var committeesCmd = &cobra.Command{
	Use:   "committees",
	Short: "Collect artifact-evaluation committee rosters",
	Long: `Committees fetches each conference's committee page (committee.md, then
organizers.md), splits it into chairs and members, and drops placeholder
entries. Rosters with fewer than five real members are skipped.`,
	RunE: runCommittees,
}

var acmCmd = &cobra.Command{
	Use:   "acm <venue> <year>",
	Short: "List a proceedings volume from DBLP with ACM DL badges",
	Long: `ACM lists every paper of a venue and year from DBLP and reads the artifact
badges shown on each paper's ACM Digital Library page. If the library
starts refusing requests the remaining papers are kept without badges.`,
	Args: cobra.ExactArgs(2),
	RunE: runACM,
}

func init() {
	addSiteFlags(artifactsCmd)
	addSiteFlags(committeesCmd)
	acmCmd.Flags().Bool("badged-only", false, "output only papers with at least one badge")

	rootCmd.AddCommand(artifactsCmd, committeesCmd, acmCmd)
}

func runArtifacts(cmd *cobra.Command, args []string) error {
	srcs, filter, err := siteFlags(cmd)
	if err != nil {
		return err
	}
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	run, err := s.store.BeginRun(ctx, "artifacts")
	if err != nil {
		return err
	}
	sets, r := s.collector.Artifacts(ctx, srcs, filter)
	if err := s.store.SaveArtifacts(ctx, run.ID, sets); err != nil {
		return err
	}
	s.record(ctx, run, r)

	if err := writeRecords(cmd, sets); err != nil {
		return err
	}
	return batchError("artifacts", r)
}

func runCommittees(cmd *cobra.Command, args []string) error {
	srcs, filter, err := siteFlags(cmd)
	if err != nil {
		return err
	}
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	run, err := s.store.BeginRun(ctx, "committees")
	if err != nil {
		return err
	}
	rosters, r := s.collector.Committees(ctx, srcs, filter)
	if err := s.store.SaveCommittees(ctx, run.ID, rosters); err != nil {
		return err
	}
	s.record(ctx, run, r)

	if err := writeRecords(cmd, rosters); err != nil {
		return err
	}
	return batchError("committees", r)
}

func runACM(cmd *cobra.Command, args []string) error {
	year, err := strconv.Atoi(args[1])
	if err != nil || year < 1900 {
		return fmt.Errorf("invalid year %q", args[1])
	}
	venue := args[0]
	badgedOnly, _ := cmd.Flags().GetBool("badged-only")

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	run, err := s.store.BeginRun(ctx, "acm")
	if err != nil {
		return err
	}
	papers, r := s.collector.ACM(ctx, venue, year)
	listed := len(papers) > 0
	if listed {
		set := types.ConferenceArtifacts{
			Source:     SourceACM,
			Conference: types.ConferenceYear{Conference: strings.ToLower(venue), Year: year},
			File:       "dblp",
			Strategy:   "dl_badges",
			Artifacts:  papers,
		}
		if err := s.store.SaveArtifacts(ctx, run.ID, []types.ConferenceArtifacts{set}); err != nil {
			return err
		}
	}
	s.record(ctx, run, r)

	if badgedOnly {
		papers = collect.Badged(papers)
	}
	if papers == nil {
		papers = []types.ArtifactRecord{}
	}
	if err := writeRecords(cmd, papers); err != nil {
		return err
	}
	if listed {
		// Badge failures degrade to a DBLP-only listing.
		return nil
	}
	return batchError("acm", r)
}
