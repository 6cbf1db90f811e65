// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/artifact-harvest/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export <dataset>",
	Short: "Export stored records as YAML or JSON",
	Long: `Export writes one stored dataset as a plain list of records. Datasets:
artifacts, committees, resolutions, profiles, runs. Artifacts and committees
accept the --source, --conference and --year filters.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: datasetNames(),
	RunE:      runExport,
}

func init() {
	exportCmd.Flags().StringSlice("source", nil, "only records from this source")
	addQueryFlags(exportCmd)

	rootCmd.AddCommand(exportCmd)
}

func datasetNames() []string {
	names := make([]string, len(store.Datasets))
	for i, d := range store.Datasets {
		names[i] = string(d)
	}
	return names
}

func runExport(cmd *cobra.Command, args []string) error {
	ds := store.Dataset(strings.ToLower(args[0]))
	known := false
	for _, d := range store.Datasets {
		known = known || d == ds
	}
	if !known {
		return fmt.Errorf("unknown dataset %q (want one of %s)", args[0], strings.Join(datasetNames(), ", "))
	}
	formatName, _ := cmd.Flags().GetString("format")
	format, err := store.ParseFormat(formatName)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Store, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	return withOutput(cmd, func(w io.Writer) error {
		return st.Export(cmd.Context(), w, ds, format, queryFilter(cmd))
	})
}
