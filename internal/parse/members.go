// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/artifact-harvest/pkg/types"
)

// MinCommitteeSize is the smallest roster accepted as a real committee.
const MinCommitteeSize = 5

// aecHeading splits documents that have no recognizable section headings.
const aecHeading = "Artifact Evaluation Committee"

var placeholderNames = map[string]bool{
	"you?":              true,
	"you":               true,
	"tba":               true,
	"tbd":               true,
	"n/a":               true,
	"":                  true,
	"title: organizers": true,
}

var (
	leadingLink    = regexp.MustCompile(`^\[([^\]]+)\]\([^)]*\)`)
	trailingBreak  = regexp.MustCompile(`\s*<br\s*/?>$`)
	chairHeading   = regexp.MustCompile(`^#{1,4}\s*.*chair`)
	aecSection     = regexp.MustCompile(`^#{1,4}\s*.*artifact\s*evaluation\s*committee`)
	membersSection = regexp.MustCompile(`^#{1,4}\s*.*\bmembers?\b`)
)

// IsPlaceholder reports whether name is a stand-in such as "TBA" or "You?".
func IsPlaceholder(name string) bool {
	name = strings.TrimSpace(name)
	return placeholderNames[strings.ToLower(name)] || utf8.RuneCountInString(name) <= 1
}

// ParseMemberLine extracts a name and affiliation from one roster line.
// Headings, separators, contact lines and placeholders report ok=false.
// The affiliation is the first parenthesized group, or the text after the
// first comma.
func ParseMemberLine(line string) (name, affiliation string, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "---") {
		return "", "", false
	}
	lower := strings.ToLower(line)
	if strings.Contains(lower, "reach the") || (strings.Contains(lower, "contact") && strings.Contains(line, "@")) {
		return "", "", false
	}

	if strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*") {
		line = strings.TrimPrefix(line[1:], " ")
	}
	line = strings.TrimSpace(line)
	if m := leadingLink.FindStringSubmatchIndex(line); m != nil {
		line = line[m[2]:m[3]] + line[m[1]:]
	}
	line = strings.TrimSpace(trailingBreak.ReplaceAllString(line, ""))
	line = strings.TrimSpace(strings.Trim(line, "*_"))
	if line == "" {
		return "", "", false
	}

	open, closing := strings.Index(line, "("), strings.Index(line, ")")
	switch {
	case open >= 0 && closing >= 0:
		name = strings.TrimSpace(line[:open])
		if closing > open {
			affiliation = strings.TrimSpace(line[open+1 : closing])
		}
	case strings.Contains(line, ","):
		name, affiliation, _ = strings.Cut(line, ",")
		name, affiliation = strings.TrimSpace(name), strings.TrimSpace(affiliation)
	default:
		name = line
	}

	if IsPlaceholder(name) {
		return "", "", false
	}
	return name, affiliation, true
}

func isChairHeading(s string) bool {
	return (strings.Contains(s, "chair") && strings.Contains(s, "artifact")) ||
		strings.HasPrefix(s, "**chair") ||
		chairHeading.MatchString(s)
}

func isMemberHeading(s string) bool {
	return aecSection.MatchString(s) ||
		membersSection.MatchString(s) ||
		(strings.HasPrefix(s, "**member") && strings.HasSuffix(s, "**:")) ||
		strings.Trim(s, "*_: ") == strings.ToLower(aecHeading)
}

func isHeading(line string) bool {
	s := strings.ToLower(strings.TrimSpace(line))
	return isChairHeading(s) || isMemberHeading(s)
}

// CommitteeSections splits a committee page into chair and member sections
// by heading and parses each line with ParseMemberLine. Pages without
// headings are split on "Artifact Evaluation Committee" instead, and pages
// with only a chair section also take members from that split, skipping
// names already listed as chairs.
func CommitteeSections(doc []byte, _ Hints) []types.CommitteeRecord {
	text := string(doc)
	var chairLines, memberLines []string
	section := ""
	for _, line := range strings.Split(text, "\n") {
		s := strings.ToLower(strings.TrimSpace(line))
		switch {
		case isChairHeading(s):
			section = "chair"
			continue
		case isMemberHeading(s):
			section = "member"
			continue
		}
		switch section {
		case "chair":
			chairLines = append(chairLines, line)
		case "member":
			memberLines = append(memberLines, line)
		}
	}

	if len(chairLines) == 0 && len(memberLines) == 0 {
		return parseLines(afterLastAEC(text), types.RoleMember, nil)
	}

	out := parseLines(chairLines, types.RoleChair, nil)
	out = append(out, parseLines(memberLines, types.RoleMember, nil)...)
	if len(memberLines) == 0 && strings.Contains(text, aecHeading) {
		seen := make(map[string]bool, len(out))
		for _, r := range out {
			seen[r.Name] = true
		}
		out = append(out, parseLines(afterLastAEC(text), types.RoleMember, seen)...)
	}
	return out
}

// afterLastAEC returns the non-heading lines after the last mention of
// the committee heading, or of the whole text when it never appears.
func afterLastAEC(text string) []string {
	if i := strings.LastIndex(text, aecHeading); i >= 0 {
		text = text[i+len(aecHeading):]
	}
	var out []string
	for _, l := range strings.Split(strings.TrimSpace(text), "\n") {
		if !isHeading(l) {
			out = append(out, l)
		}
	}
	return out
}

func parseLines(lines []string, role types.Role, skip map[string]bool) []types.CommitteeRecord {
	var out []types.CommitteeRecord
	for _, l := range lines {
		name, aff, ok := ParseMemberLine(l)
		if !ok || skip[name] {
			continue
		}
		if skip != nil {
			skip[name] = true
		}
		out = append(out, types.CommitteeRecord{Name: name, Affiliation: aff, Role: role})
	}
	return out
}

// CleanCommittee drops placeholder and contact entries and tidies names
// and affiliations.
func CleanCommittee(members []types.CommitteeRecord) []types.CommitteeRecord {
	out := make([]types.CommitteeRecord, 0, len(members))
	for _, m := range members {
		name := strings.TrimSpace(m.Name)
		if sub := leadingLink.FindStringSubmatch(name); sub != nil {
			name = sub[1]
		}
		name = strings.TrimSpace(trailingBreak.ReplaceAllString(name, ""))
		if IsPlaceholder(name) {
			continue
		}
		lower := strings.ToLower(name)
		if strings.Contains(lower, "contact") || strings.Contains(lower, "reach") || strings.Contains(lower, "mailto:") {
			continue
		}
		m.Name = name
		m.Affiliation = types.CleanAffiliation(trailingBreak.ReplaceAllString(strings.TrimSpace(m.Affiliation), ""))
		out = append(out, m)
	}
	return out
}

// ValidCommittee reports whether a roster has at least MinCommitteeSize
// real members.
func ValidCommittee(members []types.CommitteeRecord) bool {
	n := 0
	for _, m := range members {
		if !IsPlaceholder(m.Name) {
			n++
		}
	}
	return n >= MinCommitteeSize
}
