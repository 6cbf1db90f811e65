// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/artifact-harvest/pkg/types"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"abcde", "abcdx", 80},
		{"eth zurich", "eth zurihc", 90},
		{"stanford university", "stanfrod univrsity", 92},
		{"same", "same", 100},
		{"", "x", 0},
		{"abc", "xyz", 0},
	}
	for _, tt := range tests {
		t.Run(tt.a+"|"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, Ratio(tt.a, tt.b))
		})
	}
}

func TestClassify_PrefixMatch(t *testing.T) {
	idx := Build(0, []Institution{{Name: "Carnegie Mellon University", Country: "United States"}})

	r := idx.Classify("Carnegie Mellon")
	assert.Equal(t, types.MethodPrefix, r.Method)
	assert.Equal(t, "Carnegie Mellon University", r.Institution)
	assert.Equal(t, "United States", r.Country)
	assert.Equal(t, "North America", r.Continent)
	assert.Equal(t, "Carnegie Mellon", r.Input)

	r = idx.Classify("mellon university")
	assert.Equal(t, types.MethodPrefix, r.Method, "multi-word suffixes are indexed")
}

func TestClassify_FuzzyMatch(t *testing.T) {
	idx := Build(0, []Institution{{Name: "Stanford University", Country: "United States"}})

	r := idx.Classify("Stanfrod Univrsity")
	assert.Equal(t, types.MethodFuzzy, r.Method)
	assert.Equal(t, "Stanford University", r.Institution)
	assert.Equal(t, 92, r.Score)
	assert.True(t, r.Resolved())
}

func TestClassify_CarnegieMellonVariants(t *testing.T) {
	idx := Build(0, []Institution{{Name: "Carnegie Mellon University", Country: "United States"}})

	tests := []struct {
		input  string
		method types.ResolutionMethod
		score  int
	}{
		{"Carnegie Mellon University", types.MethodPrefix, 100},
		{"CARNEGIE MELLON", types.MethodPrefix, 100},
		{"Carnegie Melon Univrsity", types.MethodFuzzy, 96},
		{"Crnegi Meln Univrsty", types.MethodFuzzy, 87},
		{"Crngi Mln Unvrsty", types.MethodUnresolved, 0},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			r := idx.Classify(tt.input)
			assert.Equal(t, tt.method, r.Method)
			assert.Equal(t, tt.score, r.Score)
			if tt.method == types.MethodUnresolved {
				assert.Empty(t, r.Institution)
				return
			}
			assert.Equal(t, "Carnegie Mellon University", r.Institution)
			assert.Equal(t, "United States", r.Country)
		})
	}
	assert.Equal(t, 79, Ratio("carnegie mellon university", "crngi mln unvrsty"))
}

func TestClassify_BelowThreshold(t *testing.T) {
	idx := Build(0, []Institution{{Name: "Stanford University", Country: "United States"}})

	r := idx.Classify("Zzz Labs")
	assert.Equal(t, types.MethodUnresolved, r.Method)
	assert.Empty(t, r.Country)
	assert.Empty(t, r.Institution)
	assert.False(t, r.Resolved())
}

func TestClassify_ExactThresholdIsUnresolved(t *testing.T) {
	idx := Build(0, []Institution{{Name: "abcde", Country: "Chile"}})
	require.Equal(t, 80, Ratio("abcde", "abcdx"))

	assert.Equal(t, types.MethodUnresolved, idx.Classify("abcdx").Method)

	lenient := Build(79, []Institution{{Name: "abcde", Country: "Chile"}})
	r := lenient.Classify("abcdx")
	assert.Equal(t, types.MethodFuzzy, r.Method)
	assert.Equal(t, "Chile", r.Country)
}

func TestClassify_LaterInsertWinsOnCollision(t *testing.T) {
	idx := Build(0,
		[]Institution{{Name: "Max Planck Institute", Country: "Germany"}},
		[]Institution{{Name: "Max Planck Lab", Country: "United States"}},
	)

	assert.Equal(t, "United States", idx.Classify("Planck").Country, "shared word key points at the override")
	assert.Equal(t, "Germany", idx.Classify("Max Planck Institute").Country)
}

func TestClassify_DefaultOverrides(t *testing.T) {
	idx := Build(0, nil, DefaultOverrides())

	tests := []struct {
		in      string
		country string
	}{
		{"<b>ETH Zurich</b>", "Switzerland"},
		{"MPI-SWS", "Germany"},
		{"**CISPA Helmholtz Center**", "Germany"},
		{"Microsoft Research", "United States"},
		{"KAIST", "South Korea"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			r := idx.Classify(tt.in)
			assert.Equal(t, types.MethodPrefix, r.Method)
			assert.Equal(t, tt.country, r.Country)
		})
	}
}

func TestClassify_EmptyInput(t *testing.T) {
	idx := Build(0, DefaultOverrides())
	assert.Equal(t, types.MethodUnresolved, idx.Classify("  ** ").Method)
}

func TestClassify_Concurrent(t *testing.T) {
	idx := Build(0, DefaultOverrides())
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, "France", idx.Classify("Inria").Country)
		}()
	}
	wg.Wait()
}

func TestLoadUniversities(t *testing.T) {
	data := `[
  {"name": "Universidad de Chile", "country": "Chile", "alpha_two_code": "CL", "domains": ["uchile.cl"], "web_pages": ["https://uchile.cl"], "state-province": null},
  {"name": "", "country": "Nowhere"}
]`
	got, err := LoadUniversities(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Universidad de Chile", got[0].Name)
	assert.Equal(t, "CL", got[0].AlphaTwoCode)

	_, err = LoadUniversities(strings.NewReader("{not json"))
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- name: acme research\n  country: Canada\n"), 0o600))

	got, err := LoadOverrides(path)
	require.NoError(t, err)
	assert.Equal(t, []Institution{{Name: "acme research", Country: "Canada"}}, got)

	_, err = LoadOverrides(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestContinent(t *testing.T) {
	assert.Equal(t, "Europe", Continent("Germany"))
	assert.Equal(t, "Asia", Continent("Hong Kong"))
	assert.Equal(t, "", Continent("Atlantis"))
}
