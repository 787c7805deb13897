// Package cluster groups resolved events that share a venue and spreads them
// around the venue so their map markers do not overlap.
//
// Everything here is a pure function of its input: the same ordered events and
// threshold always produce the same partition and the same positions.
package cluster

import (
	"math"
	"strconv"

	"venue-geocoder/internal/models"

	geohash "github.com/TomiHiltunen/geohash-golang"
	"github.com/golang/geo/s2"
)

const (
	// EarthRadiusKm is the mean Earth radius used for great-circle distances.
	EarthRadiusKm = 6371.0088

	// DefaultThresholdKm groups events within roughly 100 metres of each other.
	DefaultThresholdKm = 0.1

	baseRadius    = 0.005
	radiusPerItem = 0.002
	maxRadius     = 0.02

	geohashPrecision = 9
)

// DistanceKm returns the great-circle distance between two coordinates in kilometres.
func DistanceKm(a, b models.Coordinate) float64 {
	la := s2.LatLngFromDegrees(a.Latitude, a.Longitude)
	lb := s2.LatLngFromDegrees(b.Latitude, b.Longitude)
	return la.Distance(lb).Radians() * EarthRadiusKm
}

// Radius returns the layout radius in degrees for a cluster of the given size.
func Radius(size int) float64 {
	if size < 1 {
		size = 1
	}
	return math.Min(baseRadius+float64(size-1)*radiusPerItem, maxRadius)
}

// Cluster partitions events into venue clusters. Events are visited in input order;
// each unassigned event anchors a new cluster and collects every later unassigned
// event within thresholdKm of all members collected so far. A non-positive
// threshold falls back to DefaultThresholdKm.
func Cluster(events []models.ResolvedEvent, thresholdKm float64) []models.VenueCluster {
	if thresholdKm <= 0 || math.IsNaN(thresholdKm) {
		thresholdKm = DefaultThresholdKm
	}

	assigned := make([]bool, len(events))
	clusters := make([]models.VenueCluster, 0, len(events))

	for i := range events {
		if assigned[i] {
			continue
		}
		assigned[i] = true
		members := []int{i}

		for j := i + 1; j < len(events); j++ {
			if assigned[j] || !withinAll(events, members, j, thresholdKm) {
				continue
			}
			assigned[j] = true
			members = append(members, j)
		}

		clusters = append(clusters, build(events, members, len(clusters)))
	}
	return clusters
}

func withinAll(events []models.ResolvedEvent, members []int, candidate int, thresholdKm float64) bool {
	for _, m := range members {
		if DistanceKm(events[m].Coordinate, events[candidate].Coordinate) > thresholdKm {
			return false
		}
	}
	return true
}

func build(events []models.ResolvedEvent, members []int, index int) models.VenueCluster {
	anchor := events[members[0]].Coordinate
	ids := make([]string, len(members))
	for k, m := range members {
		ids[k] = events[m].ID
	}
	radius := Radius(len(members))

	return models.VenueCluster{
		ID:        geohash.EncodeWithPrecision(anchor.Latitude, anchor.Longitude, geohashPrecision) + "-" + strconv.Itoa(index),
		Anchor:    anchor,
		MemberIDs: ids,
		Radius:    radius,
		Positions: Layout(anchor, len(members), radius),
	}
}

// Layout returns size display positions around anchor. A single member sits on
// the anchor, two members are offset diagonally by half the radius, and larger
// groups are spaced evenly on a circle starting at angle zero.
func Layout(anchor models.Coordinate, size int, radius float64) []models.Coordinate {
	switch {
	case size <= 0:
		return nil
	case size == 1:
		return []models.Coordinate{anchor}
	case size == 2:
		h := radius / 2
		return []models.Coordinate{
			{Latitude: anchor.Latitude + h, Longitude: anchor.Longitude + h},
			{Latitude: anchor.Latitude - h, Longitude: anchor.Longitude - h},
		}
	}

	positions := make([]models.Coordinate, size)
	step := 2 * math.Pi / float64(size)
	for k := range positions {
		angle := float64(k) * step
		positions[k] = models.Coordinate{
			Latitude:  anchor.Latitude + radius*math.Cos(angle),
			Longitude: anchor.Longitude + radius*math.Sin(angle),
		}
	}
	return positions
}
