// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/artifact-harvest/pkg/types"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"A. Smith", "a smith"},
		{"A Smith", "a smith"},
		{"  José   Müller ", "jose muller"},
		{"Zoë O.  Brien", "zoe o brien"},
		{"J.R.R. Tolkien", "jrr tolkien"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.in))
		})
	}
}

func TestMerge_LaterYearWinsAffiliation(t *testing.T) {
	profiles := Merge([]types.CommitteeRecord{
		{Name: "A. Smith", Year: 2021, Affiliation: "X", Conference: "osdi", Role: types.RoleMember},
		{Name: "A Smith", Year: 2023, Affiliation: "Y", Conference: "ndss", Role: types.RoleMember},
	})
	require.Len(t, profiles, 1)

	p := profiles[0]
	assert.Equal(t, "a smith", p.NormalizedName)
	assert.Equal(t, 2, p.TotalMemberships)
	assert.Equal(t, "Y", p.Affiliation)
	assert.Equal(t, "A Smith", p.DisplayName)
	assert.Equal(t, map[int]int{2021: 1, 2023: 1}, p.YearCounts)
	assert.Equal(t, []string{"ndss", "osdi"}, p.Conferences)
	assert.Equal(t, types.AreaBoth, p.Area)
	assert.Equal(t, 2021, p.FirstYear)
	assert.Equal(t, 2023, p.LastYear)
}

func TestMerge_OlderRecordArrivingLaterDoesNotOverwrite(t *testing.T) {
	profiles := Merge([]types.CommitteeRecord{
		{Name: "A Smith", Year: 2023, Affiliation: "Y"},
		{Name: "A. Smith", Year: 2021, Affiliation: "X"},
	})
	require.Len(t, profiles, 1)
	assert.Equal(t, "Y", profiles[0].Affiliation)
}

func TestMerge_SameYearTieKeepsFirstSeen(t *testing.T) {
	profiles := Merge([]types.CommitteeRecord{
		{Name: "B. Jones", Year: 2022, Affiliation: "First", Conference: "sosp"},
		{Name: "B Jones", Year: 2022, Affiliation: "Second", Conference: "osdi"},
	})
	require.Len(t, profiles, 1)
	assert.Equal(t, "First", profiles[0].Affiliation)
	assert.Equal(t, "B. Jones", profiles[0].DisplayName)
	assert.Equal(t, map[int]int{2022: 2}, profiles[0].YearCounts)
	assert.Equal(t, types.AreaSystems, profiles[0].Area)
}

func TestMerge_EmptyAffiliationNeverWins(t *testing.T) {
	profiles := Merge([]types.CommitteeRecord{
		{Name: "C Lee", Year: 2020, Affiliation: "**MIT**"},
		{Name: "C Lee", Year: 2024, Affiliation: ""},
	})
	require.Len(t, profiles, 1)
	assert.Equal(t, "MIT", profiles[0].Affiliation)
}

func TestMerge_SortOrder(t *testing.T) {
	profiles := Merge([]types.CommitteeRecord{
		{Name: "Zed", Year: 2020},
		{Name: "Amy", Year: 2020},
		{Name: "Bob", Year: 2020, Role: types.RoleChair},
		{Name: "Cat", Year: 2020},
		{Name: "Cat", Year: 2021},
	})
	var names []string
	for _, p := range profiles {
		names = append(names, p.DisplayName)
	}
	assert.Equal(t, []string{"Cat", "Bob", "Amy", "Zed"}, names)
}

func TestRecurring(t *testing.T) {
	profiles := Merge([]types.CommitteeRecord{
		{Name: "Once Member", Year: 2020, Conference: "atc"},
		{Name: "Once Chair", Year: 2020, Conference: "atc", Role: types.RoleChair},
		{Name: "Twice", Year: 2020, Conference: "atc"},
		{Name: "Twice", Year: 2021, Conference: "fast"},
	})
	got := Recurring(profiles)
	require.Len(t, got, 2)
	assert.Equal(t, "Twice", got[0].DisplayName)
	assert.Equal(t, "Once Chair", got[1].DisplayName)
	assert.Equal(t, types.AreaUnknown, Merge([]types.CommitteeRecord{{Name: "X Y"}})[0].Area)
}
