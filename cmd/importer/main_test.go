package main

import (
	"strings"
	"testing"

	"venue-geocoder/internal/bounds"
	"venue-geocoder/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV(t *testing.T) {
	input := `name,latitude,longitude,accuracy
Klub Kocka,43.5102,16.4571
  Vinyl Bar , 43.5089, 16.4381, address
Somewhere Else,48.8566,2.3522,venue
`
	records, skipped, err := parseCSV(strings.NewReader(input), bounds.Croatia())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 1, skipped)

	assert.Equal(t, "klub kocka|", records[0].Key)
	assert.Equal(t, models.GeocodeResult{
		Coordinate: models.Coordinate{Latitude: 43.5102, Longitude: 16.4571},
		Accuracy:   models.AccuracyVenue,
		Confidence: 0.95,
		Source:     models.SourceGazetteer,
		Label:      "Klub Kocka",
	}, records[0].Result)

	assert.Equal(t, "vinyl bar|", records[1].Key)
	assert.Equal(t, models.AccuracyAddress, records[1].Result.Accuracy)
	assert.Equal(t, "Vinyl Bar", records[1].Result.Label)
}

func TestParseCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty file", input: ""},
		{name: "too few columns", input: "name,latitude,longitude\nKlub Kocka,43.5\n"},
		{name: "bad latitude", input: "name,latitude,longitude\nKlub Kocka,north,16.4\n"},
		{name: "bad longitude", input: "name,latitude,longitude\nKlub Kocka,43.5,east\n"},
		{name: "empty name", input: "name,latitude,longitude\n ,43.5,16.4\n"},
		{name: "unknown accuracy", input: "name,latitude,longitude,accuracy\nKlub Kocka,43.5,16.4,street\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parseCSV(strings.NewReader(tt.input), bounds.Croatia())
			assert.Error(t, err)
		})
	}
}
