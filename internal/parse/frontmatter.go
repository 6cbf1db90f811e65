// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"fmt"
	"regexp"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/artifact-harvest/pkg/types"
)

// frontMatterDelim only matches a line that is nothing but "---", so URLs
// and quoted strings containing the sequence do not split the document.
var frontMatterDelim = regexp.MustCompile(`(?m)^---\s*$`)

// repoKeys are tried in order for the repository URL.
var repoKeys = []string{"repository_url", "github_url", "second_repository_url", "bitbucket_url"}

// FrontMatter reads the YAML block between the first two delimiter lines.
// Records come from a top-level artifacts list or, failing that, from the
// artifacts nested under each entry of an issues list.
func FrontMatter(doc []byte, _ Hints) []types.ArtifactRecord {
	parts := frontMatterDelim.Split(string(doc), 3)
	if len(parts) < 2 {
		return nil
	}
	block := strings.ReplaceAll(parts[1], "\t", "  ")

	var meta map[string]any
	if err := yaml.Unmarshal([]byte(block), &meta); err != nil || meta == nil {
		return nil
	}

	var entries []any
	if list, ok := meta["artifacts"].([]any); ok {
		entries = list
	} else if issues, ok := meta["issues"].([]any); ok {
		for _, issue := range issues {
			m, ok := issue.(map[string]any)
			if !ok {
				continue
			}
			if list, ok := m["artifacts"].([]any); ok {
				entries = append(entries, list...)
			}
		}
	}

	var out []types.ArtifactRecord
	for _, e := range entries {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		rec := artifactFromMap(m)
		if rec.Title == "" {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func artifactFromMap(m map[string]any) types.ArtifactRecord {
	rec := types.NewArtifactRecord(scalar(m["title"]))
	rec.Badges = NormalizeBadges(m["badges"])
	rec.PaperURL = scalar(m["paper_url"])
	rec.DOI = scalar(m["doi"])
	rec.ArtifactURL = scalar(m["artifact_url"])
	if rec.ArtifactURL == "" {
		if urls, ok := m["artifact_urls"].([]any); ok && len(urls) > 0 {
			rec.ArtifactURL = scalar(urls[0])
		}
	}
	for _, k := range repoKeys {
		if v := scalar(m[k]); v != "" {
			rec.RepositoryURL = v
			break
		}
	}
	switch a := m["authors"].(type) {
	case string:
		for _, name := range strings.Split(a, ",") {
			if name = strings.TrimSpace(name); name != "" {
				rec.Authors = append(rec.Authors, name)
			}
		}
	case []any:
		for _, name := range a {
			if s := scalar(name); s != "" {
				rec.Authors = append(rec.Authors, s)
			}
		}
	}
	return rec
}

// scalar renders a YAML scalar as a trimmed string; nil becomes "".
func scalar(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
