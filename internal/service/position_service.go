package service

import (
	"context"

	"venue-geocoder/internal/cluster"
	"venue-geocoder/internal/metrics"
	"venue-geocoder/internal/models"

	"golang.org/x/sync/errgroup"
)

const defaultBatchConcurrency = 6

// LocationResolver interface for dependency injection
type LocationResolver interface {
	Resolve(ctx context.Context, in models.EventLocationInput) *models.GeocodeResult
}

// PositionService composes resolution and clustering into map-ready positions
type PositionService struct {
	resolver    LocationResolver
	concurrency int
	thresholdKm float64
	metrics     *metrics.Metrics
}

// NewPositionService creates a new position service. concurrency bounds the number
// of in-flight resolutions per batch; thresholdKm is the default clustering radius.
func NewPositionService(resolver LocationResolver, concurrency int, thresholdKm float64, m *metrics.Metrics) *PositionService {
	if concurrency <= 0 {
		concurrency = defaultBatchConcurrency
	}
	if thresholdKm <= 0 {
		thresholdKm = cluster.DefaultThresholdKm
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &PositionService{resolver: resolver, concurrency: concurrency, thresholdKm: thresholdKm, metrics: m}
}

// ResolveLocation resolves a single input. A nil result means no position is known.
func (s *PositionService) ResolveLocation(ctx context.Context, in models.EventLocationInput) *models.GeocodeResult {
	return s.resolver.Resolve(ctx, in)
}

// ResolveBatch resolves inputs in parallel. Every input ID is present in the result,
// mapped to nil when unresolved. When an ID repeats, the last input wins.
func (s *PositionService) ResolveBatch(ctx context.Context, inputs []models.EventLocationInput) map[string]*models.GeocodeResult {
	results := make([]*models.GeocodeResult, len(inputs))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, in := range inputs {
		g.Go(func() error {
			results[i] = s.resolver.Resolve(ctx, in)
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]*models.GeocodeResult, len(inputs))
	for i, in := range inputs {
		out[in.ID] = results[i]
	}
	return out
}

// ClusterEvents groups already-resolved events. A non-positive thresholdKm uses the
// service default.
func (s *PositionService) ClusterEvents(events []models.ResolvedEvent, thresholdKm float64) []models.VenueCluster {
	if thresholdKm <= 0 {
		thresholdKm = s.thresholdKm
	}
	clusters := cluster.Cluster(events, thresholdKm)
	for _, c := range clusters {
		s.metrics.ClusterSizes.Observe(float64(c.Size()))
	}
	return clusters
}

// GetOptimalPositions resolves then clusters inputs, returning a display position per
// resolved event. Unresolved events are omitted so they render without a pin.
func (s *PositionService) GetOptimalPositions(ctx context.Context, inputs []models.EventLocationInput) map[string]models.EventPosition {
	resolved := s.ResolveBatch(ctx, inputs)

	events := make([]models.ResolvedEvent, 0, len(resolved))
	seen := make(map[string]bool, len(resolved))
	for _, in := range inputs {
		res := resolved[in.ID]
		if res == nil || seen[in.ID] {
			continue
		}
		seen[in.ID] = true
		events = append(events, models.ResolvedEvent{ID: in.ID, Coordinate: res.Coordinate})
	}

	positions := make(map[string]models.EventPosition, len(events))
	for _, c := range s.ClusterEvents(events, s.thresholdKm) {
		clusterID := ""
		if c.Size() > 1 {
			clusterID = c.ID
		}
		for i, id := range c.MemberIDs {
			positions[id] = models.EventPosition{
				Coordinate: c.Positions[i],
				ClusterID:  clusterID,
				Accuracy:   resolved[id].Accuracy,
			}
		}
	}
	return positions
}
