// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/pdiddy/artifact-harvest/pkg/types"
)

// badgeIDs are the element ids results pages use on badge spans.
var badgeIDs = map[string]types.Badge{
	"aa": types.BadgeAvailable,
	"af": types.BadgeFunctional,
	"ar": types.BadgeReusable,
	"rr": types.BadgeReproduced,
}

var badgeKeywords = []struct {
	keyword string
	badge   types.Badge
}{
	{"available", types.BadgeAvailable},
	{"functional", types.BadgeFunctional},
	{"reusable", types.BadgeReusable},
	{"reproduc", types.BadgeReproduced},
	{"replicat", types.BadgeReproduced},
}

// badgeFold lowercases s and maps separators to spaces, dropping anything
// that is not a letter.
func badgeFold(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r):
			b.WriteRune(r)
		case unicode.IsSpace(r), r == '_', r == '-', unicode.Is(unicode.Pd, r):
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// ClassifyBadge maps one badge spelling to its canonical value. Element
// ids, slugs, and long forms such as "Artifacts Evaluated – Functional" are
// all recognized. An unrecognized string is returned unchanged.
func ClassifyBadge(s string) types.Badge {
	folded := badgeFold(s)
	if folded == "" {
		return types.Badge(s)
	}
	if b, ok := badgeIDs[folded]; ok {
		return b
	}
	for _, k := range badgeKeywords {
		if strings.Contains(folded, k.keyword) {
			return k.badge
		}
	}
	return types.Badge(s)
}

// NormalizeBadges accepts a comma-joined string or a list of strings and
// returns the classified badges in source order without duplicates.
func NormalizeBadges(v any) types.BadgeSet {
	var raw []string
	switch t := v.(type) {
	case nil:
	case string:
		raw = strings.Split(t, ",")
	case []string:
		raw = t
	case []any:
		for _, x := range t {
			if x != nil {
				raw = append(raw, fmt.Sprint(x))
			}
		}
	case types.BadgeSet:
		for _, b := range t {
			raw = append(raw, string(b))
		}
	default:
		raw = []string{fmt.Sprint(t)}
	}

	var set types.BadgeSet
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		set = set.Add(ClassifyBadge(r))
	}
	return set
}
