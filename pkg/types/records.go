// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the canonical records shared by every stage of the
// artifact-harvest pipeline: artifact and committee records emitted by the
// parsers, person profiles produced by the aggregator, and affiliation
// resolutions produced by the resolver.
package types

import (
	"regexp"
	"strings"
)

// Badge is an artifact-evaluation badge. The four canonical values are
// declared below; parsers pass unrecognized spellings through unchanged so
// that data-quality gaps stay visible downstream.
type Badge string

const (
	BadgeAvailable  Badge = "available"
	BadgeFunctional Badge = "functional"
	BadgeReusable   Badge = "reusable"
	BadgeReproduced Badge = "reproduced"
)

// Canonical reports whether b is one of the four canonical badges.
func (b Badge) Canonical() bool {
	switch b {
	case BadgeAvailable, BadgeFunctional, BadgeReusable, BadgeReproduced:
		return true
	}
	return false
}

// BadgeSet is an insertion-ordered set of badges.
type BadgeSet []Badge

// Add appends b unless it is empty or already present.
func (s BadgeSet) Add(b Badge) BadgeSet {
	if b == "" || s.Has(b) {
		return s
	}
	return append(s, b)
}

// Has reports whether b is in the set.
func (s BadgeSet) Has(b Badge) bool {
	for _, x := range s {
		if x == b {
			return true
		}
	}
	return false
}

// String joins the badges with commas, the form most results pages use.
func (s BadgeSet) String() string {
	parts := make([]string, len(s))
	for i, b := range s {
		parts[i] = string(b)
	}
	return strings.Join(parts, ",")
}

// ArtifactRecord is one evaluated paper artifact.
type ArtifactRecord struct {
	// Title is the paper title with any trailing period removed.
	Title string `json:"title" yaml:"title"`

	// Badges holds the awarded badges in source order without duplicates.
	Badges BadgeSet `json:"badges" yaml:"badges"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	DOI           string `json:"doi,omitempty" yaml:"doi,omitempty"`
	PaperURL      string `json:"paper_url,omitempty" yaml:"paper_url,omitempty"`
	RepositoryURL string `json:"repository_url,omitempty" yaml:"repository_url,omitempty"`
	ArtifactURL   string `json:"artifact_url,omitempty" yaml:"artifact_url,omitempty"`
}

// NewArtifactRecord builds a record with the title normalized.
func NewArtifactRecord(title string) ArtifactRecord {
	return ArtifactRecord{Title: CleanTitle(title)}
}

// CleanTitle trims whitespace and strips trailing periods from a title.
func CleanTitle(title string) string {
	t := strings.TrimSpace(title)
	t = strings.TrimRight(t, ".")
	return strings.TrimSpace(t)
}

var htmlTag = regexp.MustCompile(`<[^>]+>`)

// CleanAffiliation strips HTML tags and emphasis markers from a free-text
// affiliation and collapses whitespace.
func CleanAffiliation(aff string) string {
	aff = htmlTag.ReplaceAllString(aff, "")
	aff = strings.Trim(aff, "_* \t\n\r")
	return strings.Join(strings.Fields(aff), " ")
}

// Role is the position a person held on an evaluation committee.
type Role string

const (
	RoleChair  Role = "chair"
	RoleMember Role = "member"
)

// CommitteeRecord is one person on one committee for one conference-year.
type CommitteeRecord struct {
	Name        string `json:"name" yaml:"name"`
	Affiliation string `json:"affiliation" yaml:"affiliation"`
	Role        Role   `json:"role" yaml:"role"`

	// Conference is the lowercase conference key (e.g. "osdi").
	Conference string `json:"conference,omitempty" yaml:"conference,omitempty"`

	// Year is the conference year, zero when unknown.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`
}

// PersonProfile aggregates a person's committee service across
// conferences and years. NormalizedName is the merge key.
type PersonProfile struct {
	NormalizedName string `json:"normalized_name" yaml:"normalized_name"`

	// DisplayName is the spelling from the most recent year.
	DisplayName string `json:"name" yaml:"name"`

	// Affiliation is the most recent non-empty affiliation.
	Affiliation string `json:"affiliation" yaml:"affiliation"`

	TotalMemberships int         `json:"total_memberships" yaml:"total_memberships"`
	ChairCount       int         `json:"chair_count" yaml:"chair_count"`
	YearCounts       map[int]int `json:"years" yaml:"years"`
	Conferences      []string    `json:"conferences" yaml:"conferences"`
	Area             Area        `json:"area" yaml:"area"`
	FirstYear        int         `json:"first_year,omitempty" yaml:"first_year,omitempty"`
	LastYear         int         `json:"last_year,omitempty" yaml:"last_year,omitempty"`
}

// ResolutionMethod records how an affiliation was resolved.
type ResolutionMethod string

const (
	MethodPrefix     ResolutionMethod = "prefix"
	MethodFuzzy      ResolutionMethod = "fuzzy"
	MethodUnresolved ResolutionMethod = "unresolved"
)

// AffiliationResolution maps free-text affiliation to an institution.
// Method is MethodUnresolved exactly when Country and Institution are empty.
type AffiliationResolution struct {
	Input       string           `json:"input" yaml:"input"`
	Country     string           `json:"country,omitempty" yaml:"country,omitempty"`
	Institution string           `json:"institution,omitempty" yaml:"institution,omitempty"`
	Continent   string           `json:"continent,omitempty" yaml:"continent,omitempty"`
	Method      ResolutionMethod `json:"method" yaml:"method"`

	// Score is the fuzzy similarity (0-100) for MethodFuzzy, 100 for prefix hits.
	Score int `json:"score,omitempty" yaml:"score,omitempty"`
}

// Resolved reports whether the resolution found an institution.
func (r AffiliationResolution) Resolved() bool {
	return r.Method != MethodUnresolved
}

// ConferenceArtifacts is the parsed results document of one conference-year.
type ConferenceArtifacts struct {
	Source     string         `json:"source" yaml:"source"`
	Conference ConferenceYear `json:"conference" yaml:"conference"`

	// File is the document the records came from, e.g. "results.md".
	File string `json:"file,omitempty" yaml:"file,omitempty"`

	// Strategy names the parse strategy that produced the records.
	Strategy  string           `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	Artifacts []ArtifactRecord `json:"artifacts" yaml:"artifacts"`
}

// ConferenceCommittee is the cleaned evaluation committee of one conference-year.
type ConferenceCommittee struct {
	Source     string            `json:"source" yaml:"source"`
	Conference ConferenceYear    `json:"conference" yaml:"conference"`
	File       string            `json:"file,omitempty" yaml:"file,omitempty"`
	Members    []CommitteeRecord `json:"members" yaml:"members"`
}
