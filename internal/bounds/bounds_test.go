package bounds

import (
	"math"
	"testing"

	"venue-geocoder/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBox_Contains(t *testing.T) {
	tests := []struct {
		name     string
		coord    models.Coordinate
		expected bool
	}{
		{name: "split", coord: models.Coordinate{Latitude: 43.5081, Longitude: 16.4402}, expected: true},
		{name: "dubrovnik", coord: models.Coordinate{Latitude: 42.6507, Longitude: 18.0944}, expected: true},
		{name: "on the edge", coord: models.Coordinate{Latitude: 42.35, Longitude: 13.45}, expected: true},
		{name: "gulf of guinea", coord: models.Coordinate{Latitude: 10, Longitude: 10}, expected: false},
		{name: "vienna", coord: models.Coordinate{Latitude: 48.2082, Longitude: 16.3738}, expected: false},
		{name: "null island", coord: models.Coordinate{}, expected: false},
		{name: "invalid latitude", coord: models.Coordinate{Latitude: 91, Longitude: 16}, expected: false},
		{name: "nan", coord: models.Coordinate{Latitude: math.NaN(), Longitude: 16}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Croatia().Contains(tt.coord))
		})
	}
}

func TestNewBox(t *testing.T) {
	b, err := NewBox(42.35, 46.60, 13.45, 19.50)
	require.NoError(t, err)
	assert.Equal(t, Croatia(), b)

	_, err = NewBox(46, 42, 13, 19)
	assert.Error(t, err)

	_, err = NewBox(-95, 42, 13, 19)
	assert.Error(t, err)
}

func TestCroatia_ReturnsCopy(t *testing.T) {
	b := Croatia()
	b.MinLat = 0
	b.MaxLng = 180

	assert.Equal(t, 42.35, Croatia().MinLat)
	assert.Equal(t, 19.50, Croatia().MaxLng)
	assert.False(t, Croatia().Contains(models.Coordinate{Latitude: 10, Longitude: 10}))
}
