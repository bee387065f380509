package geofence

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// siteZone is the reference workplace zone used across these tests.
var siteZone = Zone{
	ID:           "site-a",
	Name:         "Main Site",
	Latitude:     14.2486,
	Longitude:    121.1258,
	RadiusMeters: 100,
}

func TestDistance_ZeroAtSamePoint(t *testing.T) {
	p := Point{Latitude: 14.2486, Longitude: 121.1258}
	assert.Zero(t, Distance(p, p))
}

func TestDistance_Symmetric(t *testing.T) {
	a := Point{Latitude: 14.2486, Longitude: 121.1258}
	b := Point{Latitude: 14.5995, Longitude: 120.9842}
	assert.InDelta(t, Distance(a, b), Distance(b, a), 1e-9)
}

func TestDistance_OneDegreeLatitude(t *testing.T) {
	// One degree of latitude on a 6,371 km sphere is ~111.19 km.
	a := Point{Latitude: 0, Longitude: 0}
	b := Point{Latitude: 1, Longitude: 0}
	assert.InDelta(t, 111195, Distance(a, b), 10)
}

func TestEvaluate_PointAtZoneCenter(t *testing.T) {
	result := Evaluate(siteZone.Center(), []Zone{siteZone})

	assert.True(t, result.InsideAny)
	require.Len(t, result.Matches, 1)
	assert.Zero(t, result.Matches[0].DistanceMeters)
}

func TestEvaluate_Point150MetersOut(t *testing.T) {
	// ~150 m due north of the zone center; 1 deg latitude ~= 111,195 m.
	p := Point{
		Latitude:  siteZone.Latitude + 150.0/111195.0,
		Longitude: siteZone.Longitude,
	}

	result := Evaluate(p, []Zone{siteZone})

	assert.False(t, result.InsideAny)
	nearest, ok := result.Nearest()
	require.True(t, ok)
	assert.Equal(t, siteZone.ID, nearest.Zone.ID)
	assert.InDelta(t, 150, nearest.DistanceMeters, 1)
}

func TestEvaluate_EmptyZoneList(t *testing.T) {
	result := Evaluate(Point{Latitude: 1, Longitude: 1}, nil)

	assert.False(t, result.InsideAny)
	assert.Empty(t, result.Matches)
	_, ok := result.Nearest()
	assert.False(t, ok)
}

func TestEvaluate_MatchesSortedAscending(t *testing.T) {
	p := Point{Latitude: 14.2486, Longitude: 121.1258}
	zones := []Zone{
		{ID: "far", Latitude: 15.0, Longitude: 121.1258, RadiusMeters: 50},
		{ID: "near", Latitude: 14.2490, Longitude: 121.1258, RadiusMeters: 50},
		{ID: "mid", Latitude: 14.4, Longitude: 121.1258, RadiusMeters: 50},
	}

	result := Evaluate(p, zones)

	require.Len(t, result.Matches, 3)
	assert.Equal(t, "near", result.Matches[0].Zone.ID)
	assert.Equal(t, "mid", result.Matches[1].Zone.ID)
	assert.Equal(t, "far", result.Matches[2].Zone.ID)
	for i := 1; i < len(result.Matches); i++ {
		assert.LessOrEqual(t, result.Matches[i-1].DistanceMeters, result.Matches[i].DistanceMeters)
	}
}

func TestEvaluate_ContainmentMatchesHaversine(t *testing.T) {
	// insideAny over a single zone must agree with the raw distance check.
	points := []Point{
		{Latitude: 14.2486, Longitude: 121.1258},
		{Latitude: 14.2490, Longitude: 121.1260},
		{Latitude: 14.2500, Longitude: 121.1300},
		{Latitude: 15.0, Longitude: 122.0},
	}
	for _, p := range points {
		want := Distance(p, siteZone.Center()) <= siteZone.RadiusMeters
		got := Evaluate(p, []Zone{siteZone}).InsideAny
		assert.Equal(t, want, got, "point %+v", p)
	}
}

func TestEvaluate_OverlappingZonesPrefersNearest(t *testing.T) {
	p := Point{Latitude: 14.2486, Longitude: 121.1258}
	overlapping := []Zone{
		{ID: "outer", Latitude: 14.2480, Longitude: 121.1258, RadiusMeters: 500},
		{ID: "inner", Latitude: 14.2486, Longitude: 121.1259, RadiusMeters: 500},
	}

	result := Evaluate(p, overlapping)

	assert.True(t, result.InsideAny)
	nearest, ok := result.Nearest()
	require.True(t, ok)
	assert.Equal(t, "inner", nearest.Zone.ID)
}

func TestEvaluate_TieKeepsListOrder(t *testing.T) {
	p := Point{Latitude: 0, Longitude: 0}
	// Two zones at identical distance from the origin.
	zones := []Zone{
		{ID: "first", Latitude: 0, Longitude: 0.001, RadiusMeters: 10},
		{ID: "second", Latitude: 0, Longitude: -0.001, RadiusMeters: 10},
	}

	result := Evaluate(p, zones)

	require.Len(t, result.Matches, 2)
	if math.Abs(result.Matches[0].DistanceMeters-result.Matches[1].DistanceMeters) < 1e-9 {
		assert.Equal(t, "first", result.Matches[0].Zone.ID)
	}
}
