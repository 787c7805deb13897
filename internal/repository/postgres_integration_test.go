//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"venue-geocoder/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jackc/pgx/v5/pgxpool"
)

func setupTestDatabase(t *testing.T) *pgxpool.Pool {
	ctx := context.Background()

	// Start PostgreSQL container
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "testdb",
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	postgresC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		postgresC.Terminate(ctx)
	})

	host, err := postgresC.Host(ctx)
	require.NoError(t, err)

	port, err := postgresC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connString := "postgres://testuser:testpass@" + host + ":" + port.Port() + "/testdb?sslmode=disable"

	// Connect to database
	pool, err := pgxpool.New(ctx, connString)
	require.NoError(t, err)

	t.Cleanup(func() {
		pool.Close()
	})

	require.NoError(t, NewRepository(pool, 0).EnsureSchema(ctx))
	return pool
}

var poljud = models.GeocodeResult{
	Coordinate: models.Coordinate{Latitude: 43.5133, Longitude: 16.4439},
	Accuracy:   models.AccuracyVenue,
	Confidence: 1,
	Source:     models.SourceRemote,
	Label:      "Stadion Poljud, Split, Croatia",
}

func TestRepository_PutAndGetPosition(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	pool := setupTestDatabase(t)
	repo := NewRepository(pool, 30*24*time.Hour)
	ctx := context.Background()

	res, ok, err := repo.GetPosition(ctx, "poljud|")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, res)

	require.NoError(t, repo.PutPosition(ctx, "poljud|", poljud))
	res, ok, err = repo.GetPosition(ctx, "poljud|")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, poljud, *res)

	updated := poljud
	updated.Confidence = 0.9
	require.NoError(t, repo.PutPosition(ctx, "poljud|", updated))
	res, _, err = repo.GetPosition(ctx, "poljud|")
	require.NoError(t, err)
	assert.Equal(t, 0.9, res.Confidence)
}

func TestRepository_ExpiredRowsAreMisses(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	pool := setupTestDatabase(t)
	repo := NewRepository(pool, time.Hour)
	ctx := context.Background()

	require.NoError(t, repo.PutPosition(ctx, "old|", poljud))
	_, err := pool.Exec(ctx, `UPDATE venue_positions SET updated_at = now() - interval '2 hours' WHERE cache_key = 'old|'`)
	require.NoError(t, err)

	_, ok, err := repo.GetPosition(ctx, "old|")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = NewRepository(pool, 0).GetPosition(ctx, "old|")
	require.NoError(t, err)
	assert.True(t, ok, "zero ttl disables expiry")
}

func TestRepository_ImportVenues(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	pool := setupTestDatabase(t)
	repo := NewRepository(pool, 0)
	ctx := context.Background()

	records := []VenueRecord{
		{Key: "poljud stadium|", Result: poljud},
		{Key: "arena zagreb|", Result: models.GeocodeResult{
			Coordinate: models.Coordinate{Latitude: 45.7717, Longitude: 15.9436},
			Accuracy:   models.AccuracyVenue,
			Confidence: 0.95,
			Source:     models.SourceGazetteer,
			Label:      "Arena Zagreb",
		}},
	}

	n, err := repo.ImportVenues(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// Re-importing upserts instead of failing on the primary key.
	n, err = repo.ImportVenues(ctx, records[:1])
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	res, ok, err := repo.GetPosition(ctx, "arena zagreb|")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Arena Zagreb", res.Label)
}
