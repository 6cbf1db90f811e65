// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/artifact-harvest/internal/cache"
	"github.com/pdiddy/artifact-harvest/internal/fetch"
	"github.com/pdiddy/artifact-harvest/internal/httputil"
	"github.com/pdiddy/artifact-harvest/internal/parse"
	"github.com/pdiddy/artifact-harvest/internal/sources"
	"github.com/pdiddy/artifact-harvest/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

func newTestCollector(t *testing.T, srv *httptest.Server, workers int) (*Collector, *bytes.Buffer) {
	t.Helper()
	store, err := cache.Open(types.CacheConfig{Dir: t.TempDir()}, nil)
	require.NoError(t, err)
	f := fetch.New(srv.Client(), store, nil, nil, fetch.Config{HTTP: types.HTTPConfig{MaxRetries: 1}}, nil)
	var out bytes.Buffer
	return New(f, workers, &out, nil), &out
}

func withVar(t *testing.T, v *string, value string) {
	t.Helper()
	old := *v
	*v = value
	t.Cleanup(func() { *v = old })
}

const listing = `[
  {"name": "osdi2024", "type": "dir"},
  {"name": "sosp2023", "type": "dir"},
  {"name": "fast2022", "type": "dir"},
  {"name": "eurosys2021", "type": "dir"},
  {"name": "index.md", "type": "file"}
]`

const osdiResults = `---
title: Results
artifacts:
  - title: "Fast Consensus."
    badges: "available,functional"
    repository_url: https://github.com/acme/consensus
  - title: "Slow Storage"
    badges: "reproduced"
    artifact_url: https://zenodo.org/records/4242
---
`

const osdiCommittee = `## Artifact Evaluation Chairs
- Alice Wong (CMU)
- Bob Lee (EPFL)

## Artifact Evaluation Committee
- Carol King (MIT)
- Dan Brown (ETH Zurich)
- Erin Gray (UCSD)
- Fay Lin (KAIST)
`

// siteServer serves a conference site: a directory listing plus per-year
// documents. osdi2024 is complete, sosp2023 is sparse, fast2022 has no
// documents and eurosys2021 is broken.
func siteServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/listing":
			fmt.Fprint(w, listing)
		case r.URL.Path == "/raw/osdi2024/results.md":
			fmt.Fprint(w, osdiResults)
		case r.URL.Path == "/raw/osdi2024/committee.md":
			fmt.Fprint(w, osdiCommittee)
		case r.URL.Path == "/raw/sosp2023/result.md":
			fmt.Fprint(w, "Results will be posted soon.")
		case r.URL.Path == "/raw/sosp2023/organizers.md":
			fmt.Fprint(w, "## Artifact Evaluation Committee\n- Carol King (MIT)\n- TBD\n")
		case strings.HasPrefix(r.URL.Path, "/raw/eurosys2021/"):
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
}

func siteSource(srv *httptest.Server) types.SourceConfig {
	return types.SourceConfig{
		Name:           "sys",
		ListingURL:     srv.URL + "/listing",
		RawBaseURL:     srv.URL + "/raw/",
		ResultsFiles:   []string{"results.md", "result.md"},
		CommitteeFiles: []string{"committee.md", "organizers.md"},
	}
}

func TestArtifacts(t *testing.T) {
	srv := siteServer()
	defer srv.Close()

	c, out := newTestCollector(t, srv, 2)
	sets, r := c.Artifacts(context.Background(), []types.SourceConfig{siteSource(srv)}, nil)

	assert.Equal(t, 1, r.Collected)
	assert.Equal(t, 2, r.Empty, "sosp2023 parses to nothing and fast2022 has no document")
	assert.Equal(t, 1, r.Failed)
	assert.Equal(t, 0, r.Skipped)
	assert.Equal(t, 4, r.Total())
	assert.True(t, r.HasFailures())
	assert.False(t, r.AllFailed())

	require.Len(t, sets, 1)
	got := sets[0]
	assert.Equal(t, "sys", got.Source)
	assert.Equal(t, types.ConferenceYear{Conference: "osdi", Year: 2024}, got.Conference)
	assert.Equal(t, "results.md", got.File)
	assert.Equal(t, parse.StrategyFrontMatter, got.Strategy)
	require.Len(t, got.Artifacts, 2)
	assert.Equal(t, "Fast Consensus", got.Artifacts[0].Title)

	text := out.String()
	assert.Contains(t, text, "collected: sys/osdi2024 (2 artifacts")
	assert.Contains(t, text, "empty:     sys/fast2022 (no document)")
	assert.Contains(t, text, "failed:    sys/eurosys2021")
	assert.Contains(t, text, "Artifacts summary: 1 collected, 2 empty, 0 skipped, 1 failed (total: 4)")
}

func TestArtifacts_ListingFailureCountsOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c, _ := newTestCollector(t, srv, 2)
	sets, r := c.Artifacts(context.Background(), []types.SourceConfig{siteSource(srv)}, nil)
	assert.Empty(t, sets)
	assert.Equal(t, BatchResult{Failed: 1}, r)
	assert.True(t, r.AllFailed())
}

func TestCommittees(t *testing.T) {
	srv := siteServer()
	defer srv.Close()

	c, out := newTestCollector(t, srv, 2)
	rosters, r := c.Committees(context.Background(), []types.SourceConfig{siteSource(srv)}, nil)

	assert.Equal(t, 1, r.Collected)
	assert.Equal(t, 2, r.Empty)
	assert.Equal(t, 1, r.Failed)

	require.Len(t, rosters, 1)
	assert.Equal(t, "committee.md", rosters[0].File)
	members := Members(rosters)
	require.Len(t, members, 6)
	for _, m := range members {
		assert.Equal(t, "osdi", m.Conference)
		assert.Equal(t, 2024, m.Year)
	}
	assert.Equal(t, types.RoleChair, members[0].Role)
	assert.Equal(t, "Fay Lin", members[5].Name)

	assert.Contains(t, out.String(), "empty:     sys/sosp2023 (organizers.md: 1 members, need 5)")
}

func TestACM_DegradesWhenLibraryBlocks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/dblp":
			var hits []string
			for i := 1; i <= 5; i++ {
				hits = append(hits, fmt.Sprintf(`{"info": {"title": "Paper %d.", "doi": "10.1145/%d"}}`, i, i))
			}
			fmt.Fprintf(w, `{"result": {"hits": {"hit": [%s]}}}`, strings.Join(hits, ","))
		case r.URL.Path == "/doi/10.1145/1":
			fmt.Fprint(w, `<img alt="Artifacts Available"><img src="/b/results_reproduced.png">`)
		default:
			http.Error(w, "Forbidden", http.StatusForbidden)
		}
	}))
	defer srv.Close()
	withVar(t, &sources.DBLPSearchURL, srv.URL+"/dblp")
	withVar(t, &sources.DLBaseURL, srv.URL+"/doi/")

	c, out := newTestCollector(t, srv, 1)
	papers, r := c.ACM(context.Background(), "sosp", 2024)

	require.Len(t, papers, 5, "every DBLP paper is kept")
	for i, p := range papers {
		assert.Equal(t, fmt.Sprintf("Paper %d", i+1), p.Title)
	}
	assert.Equal(t, types.BadgeSet{types.BadgeAvailable, types.BadgeReproduced}, papers[0].Badges)
	assert.Empty(t, papers[4].Badges)
	assert.Len(t, Badged(papers), 1)

	assert.Equal(t, 1, r.Collected)
	assert.Equal(t, 3, r.Failed)
	assert.Equal(t, 1, r.Skipped)
	assert.Equal(t, []string{sources.SourceACMDL}, r.Degraded)
	assert.Contains(t, out.String(), "degraded:  sosp2024 (ACM DL blocked; 4 papers without badges)")
}

func TestACM_PaperListFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()
	withVar(t, &sources.DBLPSearchURL, srv.URL+"/dblp")

	c, _ := newTestCollector(t, srv, 1)
	papers, r := c.ACM(context.Background(), "sosp", 2024)
	assert.Nil(t, papers)
	assert.True(t, r.AllFailed())
}

func TestCheckURLs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		if r.URL.Path == "/gone" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sets := []types.ConferenceArtifacts{{
		Conference: types.ConferenceYear{Conference: "osdi", Year: 2024},
		Artifacts: []types.ArtifactRecord{
			{Title: "A", RepositoryURL: srv.URL + "/repo", ArtifactURL: srv.URL + "/gone"},
			{Title: "B", RepositoryURL: srv.URL + "/repo", ArtifactURL: "not a url"},
		},
	}}

	c, out := newTestCollector(t, srv, 2)
	checks, r := c.CheckURLs(context.Background(), sets)
	assert.Equal(t, map[string]bool{srv.URL + "/repo": true, srv.URL + "/gone": false}, checks)
	assert.Equal(t, 1, r.Collected)
	assert.Equal(t, 1, r.Failed)
	assert.Contains(t, out.String(), "missing:   "+srv.URL+"/gone")
}

func TestEnrichStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/acme/consensus":
			fmt.Fprint(w, `{"full_name": "acme/consensus", "stargazers_count": 12, "forks_count": 3}`)
		case "/zenodo/4242":
			fmt.Fprint(w, `{"created": "2024-01-01", "stats": {"unique_views": 40, "unique_downloads": 9}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	withVar(t, &sources.GitHubReposAPI, srv.URL+"/repos/")
	withVar(t, &sources.ZenodoRecordsAPI, srv.URL+"/zenodo/")

	sets := []types.ConferenceArtifacts{{
		Conference: types.ConferenceYear{Conference: "osdi", Year: 2024},
		Artifacts: []types.ArtifactRecord{
			{Title: "Slow Storage", ArtifactURL: "https://zenodo.org/records/4242"},
			{Title: "Fast Consensus", RepositoryURL: "https://github.com/acme/consensus"},
			{Title: "Missing Repo", RepositoryURL: "https://github.com/acme/missing"},
			{Title: "No Links"},
		},
	}}
	checks := map[string]bool{"https://github.com/acme/consensus": true}

	c, _ := newTestCollector(t, srv, 2)
	stats, r := c.EnrichStats(context.Background(), sets, checks)

	assert.Equal(t, 2, r.Collected)
	assert.Equal(t, 1, r.Empty)
	require.Len(t, stats, 2)

	assert.Equal(t, "Fast Consensus", stats[0].Title)
	assert.Equal(t, "osdi2024", stats[0].Conference)
	require.NotNil(t, stats[0].Repository)
	assert.Equal(t, 12, stats[0].Repository.Stars)
	assert.Equal(t, map[string]bool{"https://github.com/acme/consensus": true}, stats[0].URLChecks)

	assert.Equal(t, "Slow Storage", stats[1].Title)
	require.NotNil(t, stats[1].Archive)
	assert.Equal(t, 40, stats[1].Archive.Views)
	assert.Equal(t, 9, stats[1].Archive.Downloads)
	assert.Nil(t, stats[1].URLChecks)
}
