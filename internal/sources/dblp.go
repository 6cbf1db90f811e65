// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/pdiddy/artifact-harvest/internal/cache"
	"github.com/pdiddy/artifact-harvest/internal/fetch"
	"github.com/pdiddy/artifact-harvest/pkg/types"
)

// DBLPSearchURL is the publication search endpoint. Declared as a var so
// tests can point it at an httptest server.
var DBLPSearchURL = "https://dblp.org/search/publ/api"

// dblpMaxHits is the largest page DBLP serves.
const dblpMaxHits = 1000

type dblpResponse struct {
	Result struct {
		Hits struct {
			Hit []struct {
				Info dblpInfo `json:"info"`
			} `json:"hit"`
		} `json:"hits"`
	} `json:"result"`
}

type dblpInfo struct {
	Title   json.RawMessage `json:"title"`
	DOI     string          `json:"doi"`
	URL     string          `json:"url"`
	EE      json.RawMessage `json:"ee"`
	Authors struct {
		Author json.RawMessage `json:"author"`
	} `json:"authors"`
}

// dblpText is DBLP's shape for a scalar that may carry attributes:
// either a bare string or {"@pid": "...", "text": "..."}.
type dblpText struct {
	Text string `json:"text"`
	PID  string `json:"@pid"`
}

func decodeText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var t dblpText
	if err := json.Unmarshal(raw, &t); err == nil {
		if t.Text != "" {
			return t.Text
		}
		return t.PID
	}
	return ""
}

// decodeTexts accepts a single DBLP text value or a list of them.
func decodeTexts(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		list = []json.RawMessage{raw}
	}
	var out []string
	for _, item := range list {
		if s := strings.TrimSpace(decodeText(item)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// DBLPPapers lists the papers DBLP indexes for venue in year. Titles lose
// their trailing period; badges are left empty for a later enrichment pass.
func (c *Client) DBLPPapers(ctx context.Context, venue string, year int) ([]types.ArtifactRecord, fetch.Outcome) {
	q := fmt.Sprintf("venue:%s: year:%d", strings.ToUpper(venue), year)
	params := url.Values{
		"q":      {q},
		"format": {"json"},
		"h":      {fmt.Sprintf("%d", dblpMaxHits)},
	}
	reqURL := DBLPSearchURL + "?" + params.Encode()

	out := c.Getter.Fetch(ctx, SourceDBLP, reqURL, fetch.Options{
		Namespace: cache.NamespaceDBLP,
		CacheKey:  fmt.Sprintf("dblp:%s:%d", strings.ToLower(venue), year),
	})
	if !out.OK() {
		return nil, out
	}

	var resp dblpResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		c.logger().Warn("DBLP response does not decode")
		return nil, out
	}

	var papers []types.ArtifactRecord
	for _, h := range resp.Result.Hits.Hit {
		info := h.Info
		rec := types.NewArtifactRecord(decodeText(info.Title))
		if rec.Title == "" {
			continue
		}
		rec.DOI = info.DOI
		rec.Authors = decodeTexts(info.Authors.Author)
		if ee := decodeTexts(info.EE); len(ee) > 0 {
			rec.PaperURL = ee[0]
		} else {
			rec.PaperURL = info.URL
		}
		papers = append(papers, rec)
	}
	return papers, out
}
