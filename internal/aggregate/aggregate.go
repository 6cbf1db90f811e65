// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate merges committee records from many conference-years
// into one profile per person.
package aggregate

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/artifact-harvest/pkg/types"
)

// NormalizeName folds a person's name into the merge key: lowercase,
// compatibility-decomposed with combining marks removed, periods dropped,
// whitespace collapsed. "A. Smith" and "a smith" share a key; no fuzzy
// matching is attempted.
func NormalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	if folded, _, err := transform.String(t, name); err == nil {
		name = folded
	}
	name = strings.ReplaceAll(name, ".", "")
	return strings.Join(strings.Fields(name), " ")
}

type builder struct {
	profile     types.PersonProfile
	affYear     int
	conferences map[string]bool
	areas       map[types.Area]bool
}

// Merge folds records into profiles. Affiliation and display name come
// from the record with the highest year carrying a non-empty affiliation;
// on a tie the first one seen is kept. Output is sorted by total
// memberships, then chair count, both descending, then display name.
func Merge(records []types.CommitteeRecord) []types.PersonProfile {
	byKey := make(map[string]*builder)
	var order []string

	for _, r := range records {
		raw := strings.TrimSpace(r.Name)
		if raw == "" {
			continue
		}
		key := NormalizeName(raw)
		if key == "" {
			continue
		}
		aff := strings.Trim(r.Affiliation, "*_ \t")

		b, ok := byKey[key]
		if !ok {
			b = &builder{
				profile: types.PersonProfile{
					NormalizedName: key,
					DisplayName:    raw,
					YearCounts:     make(map[int]int),
				},
				conferences: make(map[string]bool),
				areas:       make(map[types.Area]bool),
			}
			byKey[key] = b
			order = append(order, key)
		}

		p := &b.profile
		p.TotalMemberships++
		if r.Role == types.RoleChair {
			p.ChairCount++
		}
		if r.Conference != "" {
			conf := strings.ToLower(r.Conference)
			b.conferences[conf] = true
			if a := types.ConferenceArea(conf); a == types.AreaSystems || a == types.AreaSecurity {
				b.areas[a] = true
			}
		}
		if r.Year > 0 {
			p.YearCounts[r.Year]++
			if p.FirstYear == 0 || r.Year < p.FirstYear {
				p.FirstYear = r.Year
			}
			if r.Year > p.LastYear {
				p.LastYear = r.Year
			}
		}
		if aff != "" && (p.Affiliation == "" || r.Year > b.affYear) {
			p.Affiliation = aff
			p.DisplayName = raw
			b.affYear = r.Year
		}
	}

	out := make([]types.PersonProfile, 0, len(order))
	for _, key := range order {
		b := byKey[key]
		p := b.profile
		for c := range b.conferences {
			p.Conferences = append(p.Conferences, c)
		}
		sort.Strings(p.Conferences)
		p.Area = area(b.areas)
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.TotalMemberships != b.TotalMemberships {
			return a.TotalMemberships > b.TotalMemberships
		}
		if a.ChairCount != b.ChairCount {
			return a.ChairCount > b.ChairCount
		}
		return a.DisplayName < b.DisplayName
	})
	return out
}

func area(seen map[types.Area]bool) types.Area {
	switch {
	case seen[types.AreaSystems] && seen[types.AreaSecurity]:
		return types.AreaBoth
	case seen[types.AreaSystems]:
		return types.AreaSystems
	case seen[types.AreaSecurity]:
		return types.AreaSecurity
	}
	return types.AreaUnknown
}

// Recurring keeps profiles with at least two memberships, and every chair.
func Recurring(profiles []types.PersonProfile) []types.PersonProfile {
	var out []types.PersonProfile
	for _, p := range profiles {
		if p.TotalMemberships >= 2 || p.ChairCount > 0 {
			out = append(out, p)
		}
	}
	return out
}
