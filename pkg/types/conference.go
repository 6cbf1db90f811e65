// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"regexp"
	"strconv"
	"strings"
)

// Area groups conferences by research community.
type Area string

const (
	AreaSystems  Area = "systems"
	AreaSecurity Area = "security"
	AreaBoth     Area = "both"
	AreaUnknown  Area = "unknown"
)

var conferenceAreas = map[string]Area{
	"atc":     AreaSystems,
	"eurosys": AreaSystems,
	"fast":    AreaSystems,
	"osdi":    AreaSystems,
	"sc":      AreaSystems,
	"sosp":    AreaSystems,

	"acsac":     AreaSecurity,
	"ches":      AreaSecurity,
	"ndss":      AreaSecurity,
	"pets":      AreaSecurity,
	"systex":    AreaSecurity,
	"usenixsec": AreaSecurity,
	"woot":      AreaSecurity,
}

// ConferenceArea returns the area of a conference key, AreaUnknown if unlisted.
func ConferenceArea(conference string) Area {
	if a, ok := conferenceAreas[strings.ToLower(conference)]; ok {
		return a
	}
	return AreaUnknown
}

var confYearPattern = regexp.MustCompile(`^([a-zA-Z]+)(\d{4})$`)

// ConferenceYear is a conference key plus year, e.g. "osdi2024".
type ConferenceYear struct {
	Conference string `json:"conference" yaml:"conference"`
	Year       int    `json:"year" yaml:"year"`
}

// ParseConferenceYear splits a directory name such as "osdi2024". Names
// that do not end in a four-digit year return the lowercased name and year 0.
func ParseConferenceYear(s string) ConferenceYear {
	m := confYearPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return ConferenceYear{Conference: strings.ToLower(strings.TrimSpace(s))}
	}
	year, _ := strconv.Atoi(m[2])
	return ConferenceYear{Conference: strings.ToLower(m[1]), Year: year}
}

// String returns the compact "osdi2024" form.
func (c ConferenceYear) String() string {
	if c.Year == 0 {
		return c.Conference
	}
	return c.Conference + strconv.Itoa(c.Year)
}
