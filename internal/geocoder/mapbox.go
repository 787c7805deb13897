// Package geocoder wraps the third-party place-search API used as the remote
// resolution tier.
package geocoder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"venue-geocoder/internal/bounds"
	"venue-geocoder/internal/metrics"
	"venue-geocoder/internal/models"
	"venue-geocoder/internal/normalize"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// ErrMissingCredentials means the adapter was built without an access token.
// It is a deployment defect, not a per-query condition.
var ErrMissingCredentials = errors.New("geocoder: access token not configured")

var errMalformedResponse = errors.New("geocoder: malformed response")

const (
	defaultBaseURL  = "https://api.mapbox.com"
	maxResponseSize = 1 << 20
)

// Config holds the place-search API settings.
type Config struct {
	BaseURL       string
	Token         string
	CountryCode   string
	Limit         int
	Timeout       time.Duration
	RatePerSecond float64
	Bounds        bounds.Box
}

// Option customizes a MapboxGeocoder.
type Option func(*MapboxGeocoder)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(g *MapboxGeocoder) {
		g.client = c
	}
}

// WithMetrics sets the collectors the adapter reports to.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *MapboxGeocoder) {
		g.metrics = m
	}
}

// MapboxGeocoder resolves free-text queries with the Mapbox Geocoding API.
// It is safe for concurrent use.
type MapboxGeocoder struct {
	client  *http.Client
	cfg     Config
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*models.GeocodeResult]
	metrics *metrics.Metrics
}

type mapboxResponse struct {
	Features []mapboxFeature `json:"features"`
}

type mapboxFeature struct {
	PlaceType []string  `json:"place_type"`
	PlaceName string    `json:"place_name"`
	Text      string    `json:"text"`
	Center    []float64 `json:"center"`
}

// NewMapboxGeocoder creates the adapter. It returns ErrMissingCredentials when no token is set.
func NewMapboxGeocoder(cfg Config, opts ...Option) (*MapboxGeocoder, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, ErrMissingCredentials
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 8
	}
	if cfg.Bounds == (bounds.Box{}) {
		cfg.Bounds = bounds.Croatia()
	}

	g := &MapboxGeocoder{
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.metrics == nil {
		g.metrics = metrics.NewNop()
	}

	burst := int(cfg.RatePerSecond)
	if burst < 1 {
		burst = 1
	}
	g.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	g.breaker = gobreaker.NewCircuitBreaker[*models.GeocodeResult](gobreaker.Settings{
		Name:        "place-search",
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("geocoder: circuit breaker state change")
			g.metrics.RemoteBreakerState.Set(stateValue(to))
		},
	})
	return g, nil
}

// Geocode returns the first in-bounds candidate for query, or nil when the API has
// nothing usable. Network failures, timeouts, non-2xx responses and unparseable
// payloads are all reported as a nil result.
func (g *MapboxGeocoder) Geocode(ctx context.Context, query string) (*models.GeocodeResult, error) {
	if g == nil || g.cfg.Token == "" {
		return nil, ErrMissingCredentials
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	if err := g.limiter.Wait(ctx); err != nil {
		g.metrics.RemoteRequests.WithLabelValues("rejected").Inc()
		log.Debug().Err(err).Str("query", query).Msg("geocoder: rate limiter wait aborted")
		return nil, nil
	}

	start := time.Now()
	result, err := g.breaker.Execute(func() (*models.GeocodeResult, error) {
		return g.search(ctx, query)
	})
	g.metrics.RemoteRequestDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		outcome := "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			outcome = "rejected"
		}
		g.metrics.RemoteRequests.WithLabelValues(outcome).Inc()
		ev := log.Warn()
		if ctx.Err() != nil {
			// The caller gave up; the API is not at fault.
			ev = log.Debug()
		}
		ev.Err(err).Str("query", query).Msg("geocoder: place search failed")
		return nil, nil
	}
	return result, nil
}

func (g *MapboxGeocoder) search(ctx context.Context, query string) (*models.GeocodeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.searchURL(query), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("geocoder: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoder: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		return nil, fmt.Errorf("geocoder: unexpected status %d", resp.StatusCode)
	}

	var payload mapboxResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedResponse, err)
	}

	if len(payload.Features) == 0 {
		g.metrics.RemoteRequests.WithLabelValues("empty").Inc()
		log.Debug().Str("query", query).Msg("geocoder: no candidates")
		return nil, nil
	}

	parsed := 0
	for _, f := range payload.Features {
		if len(f.Center) != 2 {
			continue
		}
		parsed++
		coord := models.Coordinate{Latitude: f.Center[1], Longitude: f.Center[0]}
		if !g.cfg.Bounds.Contains(coord) {
			log.Debug().Str("query", query).Float64("lat", coord.Latitude).Float64("lng", coord.Longitude).Msg("geocoder: candidate outside bounds")
			continue
		}

		placeType := ""
		if len(f.PlaceType) > 0 {
			placeType = f.PlaceType[0]
		}
		label := f.PlaceName
		if label == "" {
			label = f.Text
		}
		accuracy, confidence := Classify(placeType, label)
		g.metrics.RemoteRequests.WithLabelValues("hit").Inc()
		return &models.GeocodeResult{
			Coordinate: coord,
			Accuracy:   accuracy,
			Confidence: confidence,
			Source:     models.SourceRemote,
			Label:      label,
		}, nil
	}

	if parsed == 0 {
		return nil, errMalformedResponse
	}
	g.metrics.RemoteRequests.WithLabelValues("out_of_bounds").Inc()
	return nil, nil
}

func (g *MapboxGeocoder) searchURL(query string) string {
	v := url.Values{}
	v.Set("access_token", g.cfg.Token)
	v.Set("limit", strconv.Itoa(g.cfg.Limit))
	v.Set("autocomplete", "false")
	if g.cfg.CountryCode != "" {
		v.Set("country", strings.ToLower(g.cfg.CountryCode))
	}
	return fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s.json?%s",
		strings.TrimRight(g.cfg.BaseURL, "/"), url.PathEscape(query), v.Encode())
}

// venueKeywords mark a point of interest as a venue people gather at.
var venueKeywords = []string{
	"stadium", "stadion", "arena", "theatre", "theater", "kazaliste",
	"hotel", "dvorana", "hall", "club", "klub", "museum", "muzej",
}

// Classify maps a place-search place type to an accuracy class and confidence.
func Classify(placeType, label string) (models.Accuracy, float64) {
	switch placeType {
	case "poi":
		confidence := 0.9
		l := normalize.Normalize(label)
		for _, k := range venueKeywords {
			if strings.Contains(l, k) {
				confidence += 0.1
				break
			}
		}
		if confidence > 1 {
			confidence = 1
		}
		return models.AccuracyVenue, confidence
	case "address":
		return models.AccuracyAddress, 0.8
	case "neighborhood":
		return models.AccuracyNeighborhood, 0.6
	default:
		return models.AccuracyCity, 0.5
	}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
