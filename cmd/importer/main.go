package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"venue-geocoder/internal/bounds"
	"venue-geocoder/internal/cache"
	"venue-geocoder/internal/config"
	"venue-geocoder/internal/logging"
	"venue-geocoder/internal/models"
	"venue-geocoder/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const importedConfidence = 0.95

func main() {
	file := flag.String("file", "", "Path to the venue CSV file to import")
	configPath := flag.String("config", "configs", "Directory containing app.env")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "Error: --file flag is required")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}
	if err := logging.Setup(cfg.LogLevel, cfg.LogFormat, os.Stderr); err != nil {
		log.Fatal().Err(err).Msg("cannot configure logging")
	}
	if cfg.DBSource == "" {
		log.Fatal().Msg("DB_SOURCE is required for import")
	}
	box, err := cfg.Bounds()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid bounding box")
	}

	log.Info().Str("file", *file).Msg("starting import")

	f, err := os.Open(*file)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot open file")
	}
	defer f.Close()

	records, skipped, err := parseCSV(f, box)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot parse CSV")
	}
	log.Info().Int("records", len(records)).Int("skipped", skipped).Msg("parsed venues")

	ctx := context.Background()
	conn, err := pgxpool.New(ctx, cfg.DBSource)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot connect to db")
	}
	defer conn.Close()

	repo := repository.NewRepository(conn, cfg.CacheTTL)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("cannot create table")
	}

	n, err := repo.ImportVenues(ctx, records)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot import venues")
	}

	log.Info().Int64("rows", n).Msg("import finished")
}

// parseCSV reads name,latitude,longitude[,accuracy] rows after a header line.
// Rows outside box are skipped and counted.
func parseCSV(r io.Reader, box bounds.Box) ([]repository.VenueRecord, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow an optional accuracy column
	reader.TrimLeadingSpace = true

	// Skip header
	if _, err := reader.Read(); err != nil {
		return nil, 0, fmt.Errorf("failed to read header: %w", err)
	}

	var records []repository.VenueRecord
	skipped := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read record: %w", err)
		}
		line, _ := reader.FieldPos(0)

		if len(row) < 3 {
			return nil, 0, fmt.Errorf("line %d: expected at least 3 columns, got %d", line, len(row))
		}

		name := strings.TrimSpace(row[0])
		if name == "" {
			return nil, 0, fmt.Errorf("line %d: empty venue name", line)
		}

		lat, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			return nil, 0, fmt.Errorf("line %d: invalid latitude: %s", line, row[1])
		}
		lng, err := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
		if err != nil {
			return nil, 0, fmt.Errorf("line %d: invalid longitude: %s", line, row[2])
		}

		accuracy := models.AccuracyVenue
		if len(row) > 3 && strings.TrimSpace(row[3]) != "" {
			accuracy, err = parseAccuracy(row[3])
			if err != nil {
				return nil, 0, fmt.Errorf("line %d: %w", line, err)
			}
		}

		coord := models.Coordinate{Latitude: lat, Longitude: lng}
		if !box.Contains(coord) {
			log.Warn().Int("line", line).Str("name", name).Float64("lat", lat).Float64("lng", lng).Msg("skipping out-of-bounds venue")
			skipped++
			continue
		}

		records = append(records, repository.VenueRecord{
			Key: cache.Key(name, ""),
			Result: models.GeocodeResult{
				Coordinate: coord,
				Accuracy:   accuracy,
				Confidence: importedConfidence,
				Source:     models.SourceGazetteer,
				Label:      name,
			},
		})
	}

	return records, skipped, nil
}

func parseAccuracy(s string) (models.Accuracy, error) {
	a := models.Accuracy(strings.ToLower(strings.TrimSpace(s)))
	switch a {
	case models.AccuracyVenue, models.AccuracyAddress, models.AccuracyNeighborhood, models.AccuracyCity, models.AccuracyRegion:
		return a, nil
	}
	return "", fmt.Errorf("unknown accuracy %q", s)
}
