// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/artifact-harvest/pkg/types"
)

// Format selects the serialization of exported records.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat accepts "yaml", "yml" and "json" in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yaml", "yml", "":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown format %q (want yaml or json)", s)
}

// Encode writes v to w as a plain list-of-records document.
func Encode(w io.Writer, format Format, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
	}
	return nil
}

// Dataset names one exportable table.
type Dataset string

const (
	DatasetArtifacts   Dataset = "artifacts"
	DatasetCommittees  Dataset = "committees"
	DatasetResolutions Dataset = "resolutions"
	DatasetProfiles    Dataset = "profiles"
	DatasetRuns        Dataset = "runs"
)

// Datasets lists every exportable dataset.
var Datasets = []Dataset{DatasetArtifacts, DatasetCommittees, DatasetResolutions, DatasetProfiles, DatasetRuns}

// exportLimit caps the runs dataset.
const exportLimit = 100000

// Export writes one dataset to w. Artifacts and committees honour f.
func (s *Store) Export(ctx context.Context, w io.Writer, ds Dataset, format Format, f Filter) error {
	var (
		v   any
		err error
	)
	switch ds {
	case DatasetArtifacts:
		var sets []types.ConferenceArtifacts
		sets, err = s.Artifacts(ctx, f)
		v = orEmpty(sets)
	case DatasetCommittees:
		var rosters []types.ConferenceCommittee
		rosters, err = s.Committees(ctx, f)
		v = orEmpty(rosters)
	case DatasetResolutions:
		var res []types.AffiliationResolution
		res, err = s.Resolutions(ctx)
		v = orEmpty(res)
	case DatasetProfiles:
		var profiles []types.PersonProfile
		profiles, err = s.Profiles(ctx)
		v = orEmpty(profiles)
	case DatasetRuns:
		var runs []Run
		runs, err = s.Runs(ctx, exportLimit)
		v = orEmpty(runs)
	default:
		return fmt.Errorf("unknown dataset %q", ds)
	}
	if err != nil {
		return fmt.Errorf("querying %s for export: %w", ds, err)
	}
	return Encode(w, format, v)
}

// orEmpty keeps an empty export a list rather than null.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
