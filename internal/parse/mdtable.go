// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"

	"github.com/pdiddy/artifact-harvest/pkg/types"
)

var (
	mdTitle   = regexp.MustCompile(`\[([^\]]+)\]`)
	mdLink    = regexp.MustCompile(`\[([^\]]*)\]\(([^)]+)\)`)
	bareRepo  = regexp.MustCompile(`https?://github\.com/[^\s<|]+`)
	mdMarkers = []struct {
		badge   types.Badge
		needles []string
	}{
		{types.BadgeAvailable, []string{`id="aa"`, ">AVAILABLE<"}},
		{types.BadgeFunctional, []string{`id="af"`, ">FUNCTIONAL<"}},
		{types.BadgeReusable, []string{`id="ar"`, ">REUSABLE<"}},
		{types.BadgeReproduced, []string{`id="rr"`, ">REPRODUCED<", ">REPLICATED<"}},
	}
)

// MarkdownTable recovers rows from raw pipe tables whose HTML never
// rendered. Column semantics match HTMLTable; the title must be a
// bracketed link.
func MarkdownTable(doc []byte, h Hints) []types.ArtifactRecord {
	var out []types.ArtifactRecord
	sc := bufio.NewScanner(bytes.NewReader(doc))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "|") || strings.Contains(line, ":-") {
			continue
		}
		split := strings.Split(line, "|")
		if len(split) < 3 {
			continue
		}
		cells := split[1 : len(split)-1]
		for i := range cells {
			cells[i] = strings.TrimSpace(cells[i])
		}
		if len(cells) < 2 {
			continue
		}

		m := mdTitle.FindStringSubmatch(cells[0])
		if m == nil {
			continue
		}
		title := strings.TrimSpace(m[1])
		if title == "" || strings.EqualFold(title, headerTitle) {
			continue
		}
		rec := types.NewArtifactRecord(title)

		for _, mk := range mdMarkers {
			for _, n := range mk.needles {
				if strings.Contains(cells[1], n) {
					rec.Badges = rec.Badges.Add(mk.badge)
					break
				}
			}
		}

		if len(cells) > 2 {
			var links []link
			for _, lm := range mdLink.FindAllStringSubmatch(cells[2], -1) {
				links = append(links, link{text: lm[1], href: strings.TrimSpace(lm[2])})
			}
			var target linkTarget
			assignLinks(&target, links, h)
			if target.repo == "" {
				target.repo = bareRepo.FindString(cells[2])
			}
			rec.RepositoryURL, rec.ArtifactURL = target.repo, target.artifact
		}

		if len(rec.Badges) > 0 || rec.RepositoryURL != "" || rec.ArtifactURL != "" {
			out = append(out, rec)
		}
	}
	return out
}
