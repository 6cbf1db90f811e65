// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/artifact-harvest/internal/cache"
	"github.com/pdiddy/artifact-harvest/internal/fetch"
	"github.com/pdiddy/artifact-harvest/pkg/types"
)

// DLBaseURL prefixes a DOI to reach its ACM Digital Library landing page.
var DLBaseURL = "https://dl.acm.org/doi/"

// badgeImageKeywords maps badge image alt/src substrings to badges. Each
// image yields at most one badge, checked in this order.
var badgeImageKeywords = []struct {
	keywords []string
	badge    types.Badge
}{
	{[]string{"available"}, types.BadgeAvailable},
	{[]string{"functional"}, types.BadgeFunctional},
	{[]string{"reusable"}, types.BadgeReusable},
	{[]string{"reproduced", "replicated"}, types.BadgeReproduced},
}

// DLBadges reads the artifact badges shown on a paper's landing page. The
// outcome is Failed with ReasonBlocked once the library refuses us; the
// caller keeps the paper with no badges.
func (c *Client) DLBadges(ctx context.Context, doi string) (types.BadgeSet, fetch.Outcome) {
	if strings.TrimSpace(doi) == "" {
		return nil, fetch.Outcome{Kind: fetch.Failed, Reason: fetch.ReasonNotFound, Source: SourceACMDL}
	}
	out := c.Getter.Fetch(ctx, SourceACMDL, DLBaseURL+doi, fetch.Options{
		Namespace: cache.NamespaceDLBadges,
		Headers:   map[string]string{"Accept": "text/html,application/xhtml+xml"},
	})
	if !out.OK() {
		return nil, out
	}
	return BadgesFromHTML(out.Body), out
}

// BadgesFromHTML collects badges from every <img> whose alt text or source
// path names one.
func BadgesFromHTML(page []byte) types.BadgeSet {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil
	}
	var badges types.BadgeSet
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		alt, _ := img.Attr("alt")
		src, _ := img.Attr("src")
		combined := strings.ToLower(alt + " " + src)
		for _, k := range badgeImageKeywords {
			if containsAny(combined, k.keywords) {
				badges = badges.Add(k.badge)
				return
			}
		}
	})
	return badges
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
