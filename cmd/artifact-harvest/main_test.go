// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/artifact-harvest/internal/collect"
	"github.com/pdiddy/artifact-harvest/internal/store"
	"github.com/pdiddy/artifact-harvest/pkg/types"
)

func TestSelectSources(t *testing.T) {
	all := []types.SourceConfig{{Name: "sys"}, {Name: "sec"}}

	got, err := selectSources(all, nil)
	require.NoError(t, err)
	assert.Equal(t, all, got)

	got, err = selectSources(all, []string{"SEC"})
	require.NoError(t, err)
	assert.Equal(t, []types.SourceConfig{{Name: "sec"}}, got)

	_, err = selectSources(all, []string{"usenix"})
	assert.ErrorContains(t, err, `unknown source "usenix"`)
}

func TestBatchError(t *testing.T) {
	tests := []struct {
		name    string
		r       collect.BatchResult
		wantErr bool
	}{
		{"empty batch", collect.BatchResult{}, false},
		{"partial failure", collect.BatchResult{Collected: 1, Failed: 3}, false},
		{"only empties", collect.BatchResult{Empty: 2, Failed: 1}, false},
		{"all failed", collect.BatchResult{Failed: 2}, true},
		{"all skipped or failed", collect.BatchResult{Skipped: 2, Failed: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := batchError("artifacts", tt.r)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAffiliations(t *testing.T) {
	got := affiliations([]types.CommitteeRecord{
		{Affiliation: "**MIT**"},
		{Affiliation: "MIT"},
		{Affiliation: ""},
		{Affiliation: "  CMU "},
	})
	assert.Equal(t, []string{"CMU", "MIT"}, got)
}

func TestClassifySummary(t *testing.T) {
	counts := classifySummary([]types.AffiliationResolution{
		{Method: types.MethodPrefix},
		{Method: types.MethodPrefix},
		{Method: types.MethodUnresolved},
	})
	assert.Equal(t, 2, counts[types.MethodPrefix])
	assert.Equal(t, 0, counts[types.MethodFuzzy])
	assert.Equal(t, 1, counts[types.MethodUnresolved])
}

func TestExportAndVersionCommands(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "harvest.db")

	st, err := store.Open(types.StoreConfig{Path: dbPath}, nil)
	require.NoError(t, err)
	run, err := st.BeginRun(context.Background(), "artifacts")
	require.NoError(t, err)
	require.NoError(t, st.Close())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"export", "runs", "--db", dbPath, "--cache-dir", filepath.Join(dir, "cache"), "--format", "json"})
	require.NoError(t, rootCmd.Execute())

	var runs []store.Run
	require.NoError(t, json.Unmarshal(out.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)

	out.Reset()
	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "artifact-harvest dev\n", out.String())
}
