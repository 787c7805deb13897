package bounds

import (
	"fmt"

	"venue-geocoder/internal/models"
)

var croatia = Box{MinLat: 42.35, MaxLat: 46.60, MinLng: 13.45, MaxLng: 19.50}

// Croatia returns the bounding box of the Republic of Croatia with a small margin for the islands.
func Croatia() Box {
	return croatia
}

// Box is a latitude/longitude bounding box. It does not cross the antimeridian.
type Box struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLng float64 `json:"max_lng"`
}

// NewBox validates and returns a bounding box.
func NewBox(minLat, maxLat, minLng, maxLng float64) (Box, error) {
	b := Box{MinLat: minLat, MaxLat: maxLat, MinLng: minLng, MaxLng: maxLng}
	if !(models.Coordinate{Latitude: minLat, Longitude: minLng}).Valid() ||
		!(models.Coordinate{Latitude: maxLat, Longitude: maxLng}).Valid() {
		return Box{}, fmt.Errorf("bounds: corner out of range: %+v", b)
	}
	if minLat >= maxLat || minLng >= maxLng {
		return Box{}, fmt.Errorf("bounds: empty box: %+v", b)
	}
	return b, nil
}

// Contains reports whether c lies inside the box, edges included.
func (b Box) Contains(c models.Coordinate) bool {
	if !c.Valid() {
		return false
	}
	return c.Latitude >= b.MinLat && c.Latitude <= b.MaxLat &&
		c.Longitude >= b.MinLng && c.Longitude <= b.MaxLng
}
