package service

import (
	"context"
	"errors"
	"math"

	"venue-geocoder/internal/bounds"
	"venue-geocoder/internal/cache"
	"venue-geocoder/internal/gazetteer"
	"venue-geocoder/internal/metrics"
	"venue-geocoder/internal/models"
	"venue-geocoder/internal/normalize"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

// Tier confidences. Venue matches always outrank city matches, which outrank
// anything the remote tier can produce from a context-augmented query.
const (
	confidenceVenueExact   = 0.95
	confidenceVenuePartial = 0.85
	confidenceVenueFuzzy   = 0.8
	confidenceCityExact    = 0.7
	confidenceCityDerived  = 0.6
	confidenceRegion       = 0.3

	contextPenalty    = 0.2
	contextFloor      = 0.1
	defaultFuzzyEdits = 2
)

const tierNone = "none"

// RemoteGeocoder is the remote place-search tier. A nil result with a nil error is a miss;
// an error means the tier is unusable, e.g. missing credentials.
type RemoteGeocoder interface {
	Geocode(ctx context.Context, query string) (*models.GeocodeResult, error)
}

// ResolverConfig holds the resolution policy.
type ResolverConfig struct {
	CountryName   string
	Bounds        bounds.Box
	FuzzyDistance int
	Metrics       *metrics.Metrics
}

// Resolver turns free-text locations into coordinates by walking the gazetteer
// tiers, then the remote tier. Safe for concurrent use.
type Resolver struct {
	store     *gazetteer.Store
	extractor *normalize.CityExtractor
	remote    RemoteGeocoder
	cache     cache.Store
	cfg       ResolverConfig
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	inflight  singleflight.Group
}

// NewResolver creates a resolver. remote and positions may be nil, which disables
// the remote tier and its cache respectively.
func NewResolver(store *gazetteer.Store, remote RemoteGeocoder, positions cache.Store, cfg ResolverConfig) *Resolver {
	if cfg.CountryName == "" {
		cfg.CountryName = "Croatia"
	}
	if cfg.Bounds == (bounds.Box{}) {
		cfg.Bounds = bounds.Croatia()
	}
	if cfg.FuzzyDistance < 0 {
		cfg.FuzzyDistance = 0
	} else if cfg.FuzzyDistance == 0 {
		cfg.FuzzyDistance = defaultFuzzyEdits
	}
	m := cfg.Metrics
	if m == nil {
		m = metrics.NewNop()
	}

	return &Resolver{
		store:     store,
		extractor: normalize.NewCityExtractor([]string{cfg.CountryName, "Hrvatska"}, store.IsCity),
		remote:    remote,
		cache:     positions,
		cfg:       cfg,
		metrics:   m,
		tracer:    otel.Tracer("venue-geocoder/internal/service"),
	}
}

// tier is one gazetteer fallback level. It returns nil on a miss.
type tier struct {
	name string
	fn   func(norm, city string) *models.GeocodeResult
}

func (r *Resolver) localTiers() []tier {
	return []tier{
		{"venue_exact", func(norm, _ string) *models.GeocodeResult {
			return r.lookup(norm, gazetteer.TierVenue, models.AccuracyVenue, confidenceVenueExact)
		}},
		{"venue_partial", func(norm, _ string) *models.GeocodeResult {
			e, ok := r.store.LookupPartial(norm, gazetteer.TierVenue)
			return gazetteerResult(e, ok, models.AccuracyVenue, confidenceVenuePartial)
		}},
		{"venue_fuzzy", func(norm, _ string) *models.GeocodeResult {
			e, ok := r.store.LookupFuzzy(norm, gazetteer.TierVenue, r.cfg.FuzzyDistance)
			return gazetteerResult(e, ok, models.AccuracyVenue, confidenceVenueFuzzy)
		}},
		{"city_exact", func(norm, _ string) *models.GeocodeResult {
			return r.lookup(norm, gazetteer.TierCity, models.AccuracyCity, confidenceCityExact)
		}},
		{"city_derived", func(_, city string) *models.GeocodeResult {
			return r.lookup(city, gazetteer.TierCity, models.AccuracyCity, confidenceCityDerived)
		}},
		{"exonym_exact", func(norm, _ string) *models.GeocodeResult {
			canonical, ok := r.store.LookupExonym(norm)
			if !ok {
				return nil
			}
			return r.lookup(canonical, gazetteer.TierCity, models.AccuracyCity, confidenceCityExact)
		}},
		{"exonym_derived", func(_, city string) *models.GeocodeResult {
			canonical, ok := r.store.LookupExonym(city)
			if !ok {
				return nil
			}
			return r.lookup(canonical, gazetteer.TierCity, models.AccuracyCity, confidenceCityDerived)
		}},
	}
}

// Resolve returns the best position for in, or nil when no tier produced an
// in-bounds coordinate. A nil result is an expected outcome, not an error.
func (r *Resolver) Resolve(ctx context.Context, in models.EventLocationInput) *models.GeocodeResult {
	ctx, span := r.tracer.Start(ctx, "Resolver.Resolve")
	defer span.End()

	res, tierName := r.resolve(ctx, in)
	span.SetAttributes(attribute.String("resolve.tier", tierName))
	r.metrics.ResolveTotal.WithLabelValues(tierName).Inc()
	return res
}

func (r *Resolver) resolve(ctx context.Context, in models.EventLocationInput) (*models.GeocodeResult, string) {
	norm := normalize.Normalize(in.RawLocation)
	if norm == "" {
		return nil, tierNone
	}
	city := r.extractor.ExtractCity(in.RawLocation)

	for _, t := range r.localTiers() {
		if res := r.accept(t.fn(norm, city), t.name, in.RawLocation); res != nil {
			return res, t.name
		}
	}

	if res := r.resolveCached(ctx, in); res != nil {
		return res, "cached"
	}
	if res, name := r.resolveRemote(ctx, in); res != nil {
		return res, name
	}

	// Regions are the coarsest answer and only used once the remote tier had its say.
	for _, key := range []string{norm, city} {
		if res := r.accept(r.lookup(key, gazetteer.TierRegion, models.AccuracyRegion, confidenceRegion), "region", in.RawLocation); res != nil {
			return res, "region"
		}
	}

	log.Debug().Str("location", in.RawLocation).Str("context", in.Context).Msg("service: no tier matched")
	return nil, tierNone
}

type remoteOutcome struct {
	result *models.GeocodeResult
	tier   string
}

// resolveCached consults the position cache under the input's key and, when a
// context is set, under the context-free key that imported venues are stored with.
// It runs whether or not a remote tier is configured.
func (r *Resolver) resolveCached(ctx context.Context, in models.EventLocationInput) *models.GeocodeResult {
	if r.cache == nil {
		return nil
	}
	keys := []string{cache.Key(in.RawLocation, in.Context)}
	if in.Context != "" {
		keys = append(keys, cache.Key(in.RawLocation, ""))
	}

	for _, key := range keys {
		cached, ok, err := r.cache.GetPosition(ctx, key)
		switch {
		case err != nil:
			r.metrics.CacheLookups.WithLabelValues("error").Inc()
			log.Warn().Err(err).Str("key", key).Msg("service: position cache read failed")
		case ok:
			r.metrics.CacheLookups.WithLabelValues("hit").Inc()
			if res := r.accept(cached, "cached", in.RawLocation); res != nil {
				return res
			}
		default:
			r.metrics.CacheLookups.WithLabelValues("miss").Inc()
		}
	}
	return nil
}

// resolveRemote runs the remote tiers and caches a hit. Concurrent calls for the
// same key share one remote round trip, detached from any single caller's
// cancellation; the adapter bounds it with its own timeout.
func (r *Resolver) resolveRemote(ctx context.Context, in models.EventLocationInput) (*models.GeocodeResult, string) {
	if r.remote == nil {
		return nil, tierNone
	}
	key := cache.Key(in.RawLocation, in.Context)

	v, _, _ := r.inflight.Do(key, func() (any, error) {
		shared := context.WithoutCancel(ctx)
		out := r.queryRemote(shared, in)
		if out.result != nil && r.cache != nil {
			if err := r.cache.PutPosition(shared, key, *out.result); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("service: position cache write failed")
			}
		}
		return out, nil
	})

	out := v.(remoteOutcome)
	if out.result == nil {
		return nil, tierNone
	}
	// Each caller gets its own copy of a shared result.
	res := *out.result
	return &res, out.tier
}

func (r *Resolver) queryRemote(ctx context.Context, in models.EventLocationInput) remoteOutcome {
	query := in.RawLocation + ", " + r.cfg.CountryName
	res, err := r.remote.Geocode(ctx, query)
	if err != nil {
		r.logRemoteUnavailable(err, in)
		return remoteOutcome{tier: tierNone}
	}
	if res = r.accept(res, "remote", in.RawLocation); res != nil {
		return remoteOutcome{result: res, tier: "remote"}
	}

	if in.Context == "" {
		return remoteOutcome{tier: tierNone}
	}
	query = in.RawLocation + " " + in.Context + ", " + r.cfg.CountryName
	res, err = r.remote.Geocode(ctx, query)
	if err != nil {
		r.logRemoteUnavailable(err, in)
		return remoteOutcome{tier: tierNone}
	}
	if res = r.accept(res, "remote_context", in.RawLocation); res == nil {
		return remoteOutcome{tier: tierNone}
	}
	penalized := *res
	penalized.Confidence = roundConfidence(math.Max(res.Confidence-contextPenalty, contextFloor))
	return remoteOutcome{result: &penalized, tier: "remote_context"}
}

func (r *Resolver) logRemoteUnavailable(err error, in models.EventLocationInput) {
	ev := log.Warn()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		ev = log.Debug()
	}
	ev.Err(err).Str("location", in.RawLocation).Msg("service: remote tier unavailable")
}

// accept applies the bounds check every tier's output must pass.
func (r *Resolver) accept(res *models.GeocodeResult, tierName, raw string) *models.GeocodeResult {
	if res == nil {
		return nil
	}
	if !r.cfg.Bounds.Contains(res.Coordinate) {
		log.Debug().Str("tier", tierName).Str("location", raw).
			Float64("lat", res.Coordinate.Latitude).Float64("lng", res.Coordinate.Longitude).
			Msg("service: discarding out-of-bounds result")
		return nil
	}
	return res
}

func (r *Resolver) lookup(key string, t gazetteer.Tier, accuracy models.Accuracy, confidence float64) *models.GeocodeResult {
	e, ok := r.store.LookupExact(key, t)
	return gazetteerResult(e, ok, accuracy, confidence)
}

func gazetteerResult(e gazetteer.Entry, ok bool, accuracy models.Accuracy, confidence float64) *models.GeocodeResult {
	if !ok {
		return nil
	}
	return &models.GeocodeResult{
		Coordinate: e.Coordinate,
		Accuracy:   accuracy,
		Confidence: confidence,
		Source:     models.SourceGazetteer,
		Label:      e.Name,
	}
}

func roundConfidence(c float64) float64 {
	return math.Round(c*100) / 100
}
