// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import "strings"

type linkKind int

const (
	linkOther linkKind = iota
	linkRepo
	linkArtifact
)

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// classifyLink sorts a result link by keywords in its text or href.
func classifyLink(text, href string, h Hints) linkKind {
	text, href = strings.ToLower(text), strings.ToLower(href)
	switch {
	case containsAny(text, h.RepoHosts) || containsAny(href, h.RepoHosts):
		return linkRepo
	case containsAny(text, h.ArtifactHosts) || containsAny(href, h.ArtifactHosts):
		return linkArtifact
	}
	return linkOther
}

type link struct{ text, href string }

// assignLinks fills repository and artifact URLs. A repo-host link always
// takes the repository slot; an unclassified link only fills it while it
// is still empty.
func assignLinks(rec *linkTarget, links []link, h Hints) {
	for _, l := range links {
		switch classifyLink(l.text, l.href, h) {
		case linkRepo:
			rec.repo = l.href
		case linkArtifact:
			rec.artifact = l.href
		default:
			if rec.repo == "" {
				rec.repo = l.href
			}
		}
	}
}

type linkTarget struct{ repo, artifact string }
