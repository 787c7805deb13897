package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"venue-geocoder/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the table backing the durable position cache.
const Schema = `
	CREATE TABLE IF NOT EXISTS venue_positions (
		cache_key  TEXT PRIMARY KEY,
		latitude   DOUBLE PRECISION NOT NULL CHECK (latitude BETWEEN -90 AND 90),
		longitude  DOUBLE PRECISION NOT NULL CHECK (longitude BETWEEN -180 AND 180),
		accuracy   VARCHAR(32) NOT NULL,
		confidence DOUBLE PRECISION NOT NULL CHECK (confidence BETWEEN 0 AND 1),
		source     VARCHAR(32) NOT NULL,
		label      TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS venue_positions_updated_at_idx ON venue_positions (updated_at);
`

// Repository implements the durable position cache on PostgreSQL
type Repository struct {
	db  *pgxpool.Pool
	ttl time.Duration
}

// NewRepository creates a new PostgreSQL repository. Rows older than ttl are
// treated as missing; a non-positive ttl disables expiry.
func NewRepository(db *pgxpool.Pool, ttl time.Duration) *Repository {
	return &Repository{db: db, ttl: ttl}
}

// EnsureSchema creates the cache table if it does not exist
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("repository: failed to create schema: %w", err)
	}
	return nil
}

// GetPosition returns the cached result for key, if present and fresh
func (r *Repository) GetPosition(ctx context.Context, key string) (*models.GeocodeResult, bool, error) {
	sql := `
		SELECT latitude, longitude, accuracy, confidence, source, label
		FROM venue_positions
		WHERE cache_key = $1
		  AND ($2::BIGINT <= 0 OR updated_at > now() - make_interval(secs => $2::BIGINT))
	`

	var res models.GeocodeResult
	err := r.db.QueryRow(ctx, sql, key, int64(r.ttl/time.Second)).Scan(
		&res.Coordinate.Latitude,
		&res.Coordinate.Longitude,
		&res.Accuracy,
		&res.Confidence,
		&res.Source,
		&res.Label,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("repository: failed to read position: %w", err)
	}
	return &res, true, nil
}

// PutPosition upserts the result for key and refreshes its timestamp
func (r *Repository) PutPosition(ctx context.Context, key string, res models.GeocodeResult) error {
	sql := `
		INSERT INTO venue_positions (cache_key, latitude, longitude, accuracy, confidence, source, label, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (cache_key) DO UPDATE SET
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			accuracy = EXCLUDED.accuracy,
			confidence = EXCLUDED.confidence,
			source = EXCLUDED.source,
			label = EXCLUDED.label,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.Exec(ctx, sql, key,
		res.Coordinate.Latitude,
		res.Coordinate.Longitude,
		string(res.Accuracy),
		res.Confidence,
		string(res.Source),
		res.Label,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to write position: %w", err)
	}
	return nil
}

// VenueRecord is a previously discovered venue loaded in bulk.
type VenueRecord struct {
	Key    string
	Result models.GeocodeResult
}

// ImportVenues bulk-loads records through a staging table and upserts them,
// returning the number of rows written.
func (r *Repository) ImportVenues(ctx context.Context, records []VenueRecord) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to begin import: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `CREATE TEMP TABLE venue_positions_import (LIKE venue_positions INCLUDING DEFAULTS) ON COMMIT DROP`)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to create staging table: %w", err)
	}

	_, err = tx.CopyFrom(
		ctx,
		pgx.Identifier{"venue_positions_import"},
		[]string{"cache_key", "latitude", "longitude", "accuracy", "confidence", "source", "label"},
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			rec := records[i]
			return []any{
				rec.Key,
				rec.Result.Coordinate.Latitude,
				rec.Result.Coordinate.Longitude,
				string(rec.Result.Accuracy),
				rec.Result.Confidence,
				string(rec.Result.Source),
				rec.Result.Label,
			}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to copy venues: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO venue_positions (cache_key, latitude, longitude, accuracy, confidence, source, label, updated_at)
		SELECT DISTINCT ON (cache_key) cache_key, latitude, longitude, accuracy, confidence, source, label, now()
		FROM venue_positions_import
		ORDER BY cache_key
		ON CONFLICT (cache_key) DO UPDATE SET
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			accuracy = EXCLUDED.accuracy,
			confidence = EXCLUDED.confidence,
			source = EXCLUDED.source,
			label = EXCLUDED.label,
			updated_at = EXCLUDED.updated_at
	`)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to merge venues: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("repository: failed to commit import: %w", err)
	}
	return tag.RowsAffected(), nil
}
