// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/artifact-harvest/pkg/types"
)

const headerTitle = "paper title"

// HTMLTable reads <tr>/<td> rows: title in the first cell, badge spans in
// the second, and repository or archive links in the third. Rows without
// any badge or link are dropped.
func HTMLTable(doc []byte, h Hints) []types.ArtifactRecord {
	root, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		return nil
	}

	var out []types.ArtifactRecord
	root.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}

		titleCell := cells.Eq(0)
		anchor := titleCell.Find("a").First()
		title := collapse(titleCell.Text())
		if anchor.Length() > 0 {
			title = collapse(anchor.Text())
		}
		if title == "" || strings.EqualFold(title, headerTitle) {
			return
		}
		rec := types.NewArtifactRecord(title)
		if href, ok := anchor.Attr("href"); ok {
			rec.PaperURL = strings.TrimSpace(href)
		}

		cells.Eq(1).Find("span").Each(func(_ int, span *goquery.Selection) {
			id, _ := span.Attr("id")
			rec.Badges = rec.Badges.Add(spanBadge(id, span.Text()))
		})

		if cells.Length() > 2 {
			var links []link
			cells.Eq(2).Find("a").Each(func(_ int, a *goquery.Selection) {
				href, _ := a.Attr("href")
				links = append(links, link{text: collapse(a.Text()), href: strings.TrimSpace(href)})
			})
			var target linkTarget
			assignLinks(&target, links, h)
			rec.RepositoryURL, rec.ArtifactURL = target.repo, target.artifact
		}

		if len(rec.Badges) > 0 || rec.RepositoryURL != "" || rec.ArtifactURL != "" {
			out = append(out, rec)
		}
	})
	return out
}

// spanBadge recognizes a badge span by id first, then by visible text.
// Text that does not name a canonical badge is ignored.
func spanBadge(id, text string) types.Badge {
	if b, ok := badgeIDs[strings.ToLower(strings.TrimSpace(id))]; ok {
		return b
	}
	if b := ClassifyBadge(text); b.Canonical() {
		return b
	}
	return ""
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
