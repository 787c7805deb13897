package config

import (
	"errors"
	"fmt"
	"time"

	"venue-geocoder/internal/bounds"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	ServerAddress string `mapstructure:"SERVER_ADDRESS" validate:"required"`
	DBSource      string `mapstructure:"DB_SOURCE"`
	LogLevel      string `mapstructure:"LOG_LEVEL" validate:"oneof=trace debug info warn error"`
	LogFormat     string `mapstructure:"LOG_FORMAT" validate:"oneof=json console"`

	MapboxToken          string        `mapstructure:"MAPBOX_TOKEN"`
	MapboxBaseURL        string        `mapstructure:"MAPBOX_BASE_URL" validate:"required,url"`
	CountryCode          string        `mapstructure:"COUNTRY_CODE" validate:"required,len=2"`
	CountryName          string        `mapstructure:"COUNTRY_NAME" validate:"required"`
	GeocodeTimeout       time.Duration `mapstructure:"GEOCODE_TIMEOUT" validate:"gt=0"`
	GeocodeRatePerSecond float64       `mapstructure:"GEOCODE_RATE_PER_SECOND" validate:"gt=0"`

	BatchConcurrency   int           `mapstructure:"BATCH_CONCURRENCY" validate:"min=1,max=64"`
	ClusterThresholdKm float64       `mapstructure:"CLUSTER_THRESHOLD_KM" validate:"gt=0,lte=50"`
	CacheTTL           time.Duration `mapstructure:"CACHE_TTL" validate:"gte=0"`
	GazetteerFile      string        `mapstructure:"GAZETTEER_FILE"`

	BoundsMinLat float64 `mapstructure:"BOUNDS_MIN_LAT" validate:"gte=-90,lte=90"`
	BoundsMaxLat float64 `mapstructure:"BOUNDS_MAX_LAT" validate:"gte=-90,lte=90,gtfield=BoundsMinLat"`
	BoundsMinLng float64 `mapstructure:"BOUNDS_MIN_LNG" validate:"gte=-180,lte=180"`
	BoundsMaxLng float64 `mapstructure:"BOUNDS_MAX_LNG" validate:"gte=-180,lte=180,gtfield=BoundsMinLng"`
}

var defaults = map[string]any{
	"SERVER_ADDRESS":          "0.0.0.0:8080",
	"DB_SOURCE":               "",
	"LOG_LEVEL":               "info",
	"LOG_FORMAT":              "json",
	"MAPBOX_TOKEN":            "",
	"MAPBOX_BASE_URL":         "https://api.mapbox.com",
	"COUNTRY_CODE":            "hr",
	"COUNTRY_NAME":            "Croatia",
	"GEOCODE_TIMEOUT":         "5s",
	"GEOCODE_RATE_PER_SECOND": 8,
	"BATCH_CONCURRENCY":       6,
	"CLUSTER_THRESHOLD_KM":    0.1,
	"CACHE_TTL":               "720h",
	"GAZETTEER_FILE":          "",
	"BOUNDS_MIN_LAT":          bounds.Croatia().MinLat,
	"BOUNDS_MAX_LAT":          bounds.Croatia().MaxLat,
	"BOUNDS_MIN_LNG":          bounds.Croatia().MinLng,
	"BOUNDS_MAX_LNG":          bounds.Croatia().MaxLng,
}

// LoadConfig reads configuration from app.env in path, if present, overridden by environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("config: failed to read config: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("config: failed to decode config: %w", err)
	}

	if err = validator.New().Struct(config); err != nil {
		return config, fmt.Errorf("config: invalid config: %w", err)
	}
	return config, nil
}

// Bounds returns the configured country bounding box.
func (c Config) Bounds() (bounds.Box, error) {
	return bounds.NewBox(c.BoundsMinLat, c.BoundsMaxLat, c.BoundsMinLng, c.BoundsMaxLng)
}
