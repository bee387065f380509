// Package geofence implements the containment test behind the presence gate:
// great-circle distance from a device fix to a set of circular zones.
// This is pure domain logic - no I/O, no side effects.
package geofence

import (
	"math"
	"sort"
)

// EarthRadiusMeters is the mean Earth radius used for spherical distance.
const EarthRadiusMeters = 6371000.0

// Point is a WGS84 coordinate pair in decimal degrees.
type Point struct {
	Latitude  float64
	Longitude float64
}

// Zone is a circular allowed-location boundary. Zones are supplied by an
// external collaborator and are read-only to this package.
type Zone struct {
	ID           string
	Name         string
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
}

// Center returns the zone's center coordinate.
func (z Zone) Center() Point {
	return Point{Latitude: z.Latitude, Longitude: z.Longitude}
}

// Match pairs a zone with the distance from the evaluated point to its center.
type Match struct {
	Zone           Zone
	DistanceMeters float64
}

// Inside reports whether the evaluated point lies within the zone's radius.
func (m Match) Inside() bool {
	return m.DistanceMeters <= m.Zone.RadiusMeters
}

// ProximityResult is the outcome of evaluating a point against a zone set.
// Matches are ordered ascending by distance; equal distances keep zone list
// order. Recomputed per location sample, never persisted.
type ProximityResult struct {
	InsideAny bool
	Matches   []Match
}

// Nearest returns the closest match, if any zones were evaluated.
func (r ProximityResult) Nearest() (Match, bool) {
	if len(r.Matches) == 0 {
		return Match{}, false
	}
	return r.Matches[0], true
}

// Distance returns the great-circle distance between two points in meters,
// using the spherical law of haversines.
func Distance(a, b Point) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon

	return 2 * EarthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Evaluate computes the distance from p to every zone and flags containment.
// An empty zone set yields InsideAny=false with no matches.
func Evaluate(p Point, zones []Zone) ProximityResult {
	result := ProximityResult{Matches: make([]Match, 0, len(zones))}
	for _, z := range zones {
		m := Match{Zone: z, DistanceMeters: Distance(p, z.Center())}
		if m.Inside() {
			result.InsideAny = true
		}
		result.Matches = append(result.Matches, m)
	}
	sort.SliceStable(result.Matches, func(i, j int) bool {
		return result.Matches[i].DistanceMeters < result.Matches[j].DistanceMeters
	})
	return result
}
