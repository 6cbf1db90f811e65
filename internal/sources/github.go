// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"

	"go.uber.org/zap"

	"github.com/pdiddy/artifact-harvest/internal/cache"
	"github.com/pdiddy/artifact-harvest/internal/fetch"
	"github.com/pdiddy/artifact-harvest/pkg/types"
)

// DefaultConferenceFilter selects conference directories from 2010 to 2029.
const DefaultConferenceFilter = `.*20[12][0-9]`

type contentsEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"`
}

// Conferences lists the conference directories of a site whose names match
// filter. A nil filter matches everything. The listing is fetched
// conditionally, so an unchanged directory costs no API quota.
func (c *Client) Conferences(ctx context.Context, src types.SourceConfig, filter *regexp.Regexp) ([]types.ConferenceYear, error) {
	out := c.Getter.Fetch(ctx, src.Name, src.ListingURL, fetch.Options{
		Namespace:   cache.NamespaceListing,
		Conditional: true,
	})
	if err := out.Err(); err != nil {
		return nil, fmt.Errorf("listing %s conferences: %w", src.Name, err)
	}

	var entries []contentsEntry
	if err := json.Unmarshal(out.Body, &entries); err != nil {
		return nil, fmt.Errorf("parsing %s listing: %w", src.Name, err)
	}

	var confs []types.ConferenceYear
	for _, e := range entries {
		if e.Type != "dir" {
			continue
		}
		if filter != nil && !filter.MatchString(e.Name) {
			continue
		}
		confs = append(confs, types.ParseConferenceYear(e.Name))
	}
	sort.Slice(confs, func(i, j int) bool { return confs[i].String() < confs[j].String() })

	c.logger().Debug("listed conferences",
		zap.String("source", src.Name),
		zap.String("outcome", out.Label()),
		zap.Int("count", len(confs)))
	return confs, nil
}

// Document fetches the first of names that exists under the conference's
// directory. A not-found outcome moves on to the next name; any other
// failure stops the search. The returned name is empty when nothing was
// found.
func (c *Client) Document(ctx context.Context, src types.SourceConfig, conf types.ConferenceYear, names []string) ([]byte, string, fetch.Outcome) {
	last := fetch.Outcome{Kind: fetch.Failed, Reason: fetch.ReasonNotFound, Source: src.Name}
	for _, name := range names {
		u := src.RawBaseURL + conf.String() + "/" + name
		last = c.Getter.Fetch(ctx, src.Name, u, fetch.Options{Conditional: true})
		if last.OK() {
			return last.Body, name, last
		}
		if last.Reason != fetch.ReasonNotFound {
			return nil, "", last
		}
	}
	return nil, "", last
}
