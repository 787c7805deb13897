package models

// Coordinate is a WGS84 point in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the coordinate lies within the legal latitude/longitude ranges.
func (c Coordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// Accuracy is the categorical precision of a resolved coordinate.
type Accuracy string

const (
	AccuracyVenue        Accuracy = "venue"
	AccuracyAddress      Accuracy = "address"
	AccuracyNeighborhood Accuracy = "neighborhood"
	AccuracyCity         Accuracy = "city"
	AccuracyRegion       Accuracy = "region"
)

// Source records which resolution tier family produced a result.
type Source string

const (
	SourceGazetteer Source = "gazetteer"
	SourceRemote    Source = "remote"
)

// GeocodeResult is the outcome of resolving a single location string.
type GeocodeResult struct {
	Coordinate Coordinate `json:"coordinate"`
	Accuracy   Accuracy   `json:"accuracy"`
	Confidence float64    `json:"confidence"`
	Source     Source     `json:"source"`
	Label      string     `json:"label,omitempty"`
}

// EventLocationInput is one scraped event's free-text location.
type EventLocationInput struct {
	ID          string `json:"id" binding:"required"`
	RawLocation string `json:"raw_location"`
	Context     string `json:"context,omitempty"`
}

// ResolvedEvent pairs an event identifier with its resolved coordinate, the input of a clustering pass.
type ResolvedEvent struct {
	ID         string     `json:"id" binding:"required"`
	Coordinate Coordinate `json:"coordinate"`
}

// VenueCluster groups events whose coordinates lie within the clustering threshold.
// Positions has the same length and order as MemberIDs.
type VenueCluster struct {
	ID        string       `json:"id"`
	Anchor    Coordinate   `json:"anchor"`
	MemberIDs []string     `json:"member_ids"`
	Radius    float64      `json:"radius"`
	Positions []Coordinate `json:"positions"`
}

// Size returns the number of member events.
func (c VenueCluster) Size() int {
	return len(c.MemberIDs)
}

// EventPosition is the display coordinate for one event on the map.
type EventPosition struct {
	Coordinate Coordinate `json:"coordinate"`
	ClusterID  string     `json:"cluster_id,omitempty"`
	Accuracy   Accuracy   `json:"accuracy"`
}
