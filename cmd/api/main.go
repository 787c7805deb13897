package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	_ "venue-geocoder/docs"
	"venue-geocoder/internal/cache"
	"venue-geocoder/internal/config"
	"venue-geocoder/internal/gazetteer"
	"venue-geocoder/internal/geocoder"
	"venue-geocoder/internal/handler"
	"venue-geocoder/internal/logging"
	"venue-geocoder/internal/metrics"
	"venue-geocoder/internal/repository"
	"venue-geocoder/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func main() {
	config, err := config.LoadConfig("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}
	if err := logging.Setup(config.LogLevel, config.LogFormat, os.Stderr); err != nil {
		log.Fatal().Err(err).Msg("cannot configure logging")
	}

	store, err := loadGazetteer(config.GazetteerFile)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load gazetteer")
	}
	box, err := config.Bounds()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid bounding box")
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	// Remote tier
	var remote service.RemoteGeocoder
	mapbox, err := geocoder.NewMapboxGeocoder(geocoder.Config{
		BaseURL:       config.MapboxBaseURL,
		Token:         config.MapboxToken,
		CountryCode:   config.CountryCode,
		Timeout:       config.GeocodeTimeout,
		RatePerSecond: config.GeocodeRatePerSecond,
		Bounds:        box,
	}, geocoder.WithMetrics(m))
	switch {
	case errors.Is(err, geocoder.ErrMissingCredentials):
		log.Warn().Msg("MAPBOX_TOKEN not set, remote geocoding disabled")
	case err != nil:
		log.Fatal().Err(err).Msg("cannot create geocoder")
	default:
		remote = mapbox
	}

	// Position cache, backed by Postgres when configured
	var positions cache.Store = cache.NewMemory()
	if config.DBSource != "" {
		conn, err := pgxpool.New(context.Background(), config.DBSource)
		if err != nil {
			log.Fatal().Err(err).Msg("cannot connect to db")
		}
		defer conn.Close()

		repo := repository.NewRepository(conn, config.CacheTTL)
		if err := repo.EnsureSchema(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("cannot prepare position cache")
		}
		positions = cache.NewLayered(positions, repo)
	}

	// Initialize layers
	resolver := service.NewResolver(store, remote, positions, service.ResolverConfig{
		CountryName: config.CountryName,
		Bounds:      box,
		Metrics:     m,
	})
	positionService := service.NewPositionService(resolver, config.BatchConcurrency, config.ClusterThresholdKm, m)

	resolveHandler := handler.NewResolveHandler(positionService)
	positionHandler := handler.NewPositionHandler(positionService)

	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	r.GET("/resolve", resolveHandler.Resolve)
	r.POST("/resolve/batch", resolveHandler.ResolveBatch)
	r.POST("/positions", positionHandler.Positions)
	r.POST("/clusters", positionHandler.Clusters)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	log.Info().
		Str("addr", config.ServerAddress).
		Int("gazetteer_venues", store.Len(gazetteer.TierVenue)).
		Bool("remote", remote != nil).
		Bool("durable_cache", config.DBSource != "").
		Msg("starting venue geocoder")

	if err := r.Run(config.ServerAddress); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func loadGazetteer(path string) (*gazetteer.Store, error) {
	if path == "" {
		return gazetteer.Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return gazetteer.Load(f)
}
