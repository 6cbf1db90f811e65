// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/artifact-harvest/internal/cache"
	"github.com/pdiddy/artifact-harvest/internal/fetch"
	"github.com/pdiddy/artifact-harvest/pkg/types"
)

// Statistics endpoints. Declared as vars so tests can substitute an
// httptest server.
var (
	GitHubReposAPI     = "https://api.github.com/repos/"
	ZenodoRecordsAPI   = "https://zenodo.org/api/records/"
	FigshareStatsAPI   = "https://stats.figshare.com/total/"
	FigshareArticleAPI = "https://api.figshare.com/v2/articles/"
)

// GitHubRepoPath extracts "owner/repo" from a repository URL, dropping
// tree/blob paths and a .git suffix.
func GitHubRepoPath(rawURL string) (string, bool) {
	_, rest, ok := strings.Cut(rawURL, "github.com/")
	if !ok {
		return "", false
	}
	rest, _, _ = strings.Cut(rest, "?")
	rest, _, _ = strings.Cut(rest, "#")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", false
	}
	repo := strings.TrimSuffix(parts[1], ".git")
	if repo == "" {
		return "", false
	}
	return parts[0] + "/" + repo, true
}

type githubRepo struct {
	FullName    string   `json:"full_name"`
	Description string   `json:"description"`
	Language    string   `json:"language"`
	Topics      []string `json:"topics"`
	Stars       int      `json:"stargazers_count"`
	Forks       int      `json:"forks_count"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
	PushedAt    string   `json:"pushed_at"`
	License     *struct {
		SPDXID string `json:"spdx_id"`
	} `json:"license"`
}

// GitHubStats fetches popularity metadata for a repository URL. Requests
// are conditional, so an unchanged repository costs no rate-limit quota.
func (c *Client) GitHubStats(ctx context.Context, repoURL string) (*types.RepoStats, fetch.Outcome) {
	path, ok := GitHubRepoPath(repoURL)
	if !ok {
		return nil, fetch.Outcome{Kind: fetch.Failed, Reason: fetch.ReasonNotFound, Source: SourceGitHub, URL: repoURL}
	}
	out := c.Getter.Fetch(ctx, SourceGitHub, GitHubReposAPI+path, fetch.Options{
		Namespace:   cache.NamespaceGitHubStats,
		Conditional: true,
		MaxAge:      c.StatsTTL,
	})
	if !out.OK() {
		return nil, out
	}
	var r githubRepo
	if err := json.Unmarshal(out.Body, &r); err != nil {
		c.logger().Warn("GitHub repo response does not decode", zap.String("repo", path), zap.Error(err))
		return nil, out
	}
	stats := &types.RepoStats{
		FullName:    r.FullName,
		Description: r.Description,
		Language:    r.Language,
		Topics:      r.Topics,
		Stars:       r.Stars,
		Forks:       r.Forks,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		PushedAt:    r.PushedAt,
	}
	if r.License != nil {
		stats.License = r.License.SPDXID
	}
	if stats.FullName == "" {
		stats.FullName = path
	}
	return stats, out
}

var digits = regexp.MustCompile(`^\d+`)

// ZenodoRecordID extracts the numeric record id from a Zenodo record URL
// or a Zenodo DOI (10.5281/zenodo.N).
func ZenodoRecordID(rawURL string) (string, bool) {
	var tail string
	switch {
	case strings.Contains(rawURL, "/records/"):
		tail = rawURL[strings.LastIndex(rawURL, "/records/")+len("/records/"):]
	case strings.Contains(rawURL, "/record/"):
		tail = rawURL[strings.LastIndex(rawURL, "/record/")+len("/record/"):]
	case strings.Contains(rawURL, "zenodo."):
		tail = rawURL[strings.LastIndex(rawURL, "zenodo.")+len("zenodo."):]
	default:
		return "", false
	}
	id := digits.FindString(tail)
	return id, id != ""
}

type zenodoRecord struct {
	Created string `json:"created"`
	Updated string `json:"updated"`
	Stats   struct {
		UniqueViews     int `json:"unique_views"`
		UniqueDownloads int `json:"unique_downloads"`
	} `json:"stats"`
}

// ZenodoStats fetches unique views and downloads for a Zenodo record.
func (c *Client) ZenodoStats(ctx context.Context, rawURL string) (*types.ArchiveStats, fetch.Outcome) {
	id, ok := ZenodoRecordID(rawURL)
	if !ok {
		return nil, fetch.Outcome{Kind: fetch.Failed, Reason: fetch.ReasonNotFound, Source: SourceZenodo, URL: rawURL}
	}
	out := c.Getter.Fetch(ctx, SourceZenodo, ZenodoRecordsAPI+id, fetch.Options{
		Namespace: cache.NamespaceZenodoStats,
		MaxAge:    c.StatsTTL,
	})
	if !out.OK() {
		return nil, out
	}
	var r zenodoRecord
	if err := json.Unmarshal(out.Body, &r); err != nil {
		c.logger().Warn("Zenodo record does not decode", zap.String("record", id), zap.Error(err))
		return nil, out
	}
	return &types.ArchiveStats{
		Archive:   SourceZenodo,
		Views:     r.Stats.UniqueViews,
		Downloads: r.Stats.UniqueDownloads,
		CreatedAt: r.Created,
		UpdatedAt: r.Updated,
	}, out
}

var (
	figshareVersion     = regexp.MustCompile(`\.v\d+$`)
	figshareDOI         = regexp.MustCompile(`figshare\.(\d+)`)
	figshareArticlePath = regexp.MustCompile(`/articles/(?:[^/]+/)*?(\d+)(?:/|$)`)
)

// FigshareArticleID extracts the article id from a Figshare DOI
// (10.6084/m9.figshare.N.vK) or article URL.
func FigshareArticleID(rawURL string) (string, bool) {
	u := strings.TrimRight(rawURL, "/")
	u = figshareVersion.ReplaceAllString(u, "")
	if m := figshareArticlePath.FindStringSubmatch(u); m != nil {
		return m[1], true
	}
	if m := figshareDOI.FindStringSubmatch(u); m != nil {
		return m[1], true
	}
	return "", false
}

type figshareTotals struct {
	Totals int `json:"totals"`
}

type figshareArticle struct {
	Created  string `json:"created_date"`
	Modified string `json:"modified_date"`
}

// FigshareStats fetches view and download totals for a Figshare article.
// Counts that cannot be fetched are reported as -1; the result is nil only
// when the URL names no article.
func (c *Client) FigshareStats(ctx context.Context, rawURL string) *types.ArchiveStats {
	id, ok := FigshareArticleID(rawURL)
	if !ok {
		return nil
	}
	stats := &types.ArchiveStats{Archive: SourceFigshare, Views: -1, Downloads: -1}
	opts := fetch.Options{Namespace: cache.NamespaceFigshareStats, MaxAge: c.StatsTTL}

	if out := c.Getter.Fetch(ctx, SourceFigshare, FigshareStatsAPI+"views/article/"+id, opts); out.OK() {
		var t figshareTotals
		if json.Unmarshal(out.Body, &t) == nil {
			stats.Views = t.Totals
		}
	}
	if out := c.Getter.Fetch(ctx, SourceFigshare, FigshareStatsAPI+"downloads/article/"+id, opts); out.OK() {
		var t figshareTotals
		if json.Unmarshal(out.Body, &t) == nil {
			stats.Downloads = t.Totals
		}
	}
	if out := c.Getter.Fetch(ctx, SourceFigshare, FigshareArticleAPI+id, opts); out.OK() {
		var a figshareArticle
		if json.Unmarshal(out.Body, &a) == nil {
			stats.CreatedAt, stats.UpdatedAt = a.Created, a.Modified
		}
	}
	return stats
}
