package services

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/routestops/routestops/internal/domain/entities"
	"github.com/routestops/routestops/internal/domain/providers"
	"github.com/routestops/routestops/internal/infrastructure/observability"
	apperrors "github.com/routestops/routestops/pkg/errors"
	"github.com/routestops/routestops/pkg/geo"
)

const (
	defaultMaxResults            = 20
	maxResultsCap                = 50
	defaultDistanceOffRouteMiles = 2
	defaultMeetupRadiusMiles     = 5
	maxSamplePoints              = 5
)

// SearchService orchestrates a full place search: geocoding, geometry,
// provider fan-out, ratings enrichment and ranking.
type SearchService struct {
	geocoder  providers.Geocoder
	router    providers.RouteProvider
	places    providers.PlacesProvider
	ratings   providers.RatingsProvider
	ranking   *PlaceRankingService
	analytics *SearchAnalyticsService
	metrics   *observability.Metrics

	// Result count used when the caller does not ask for one.
	maxResults int

	// Pause between sequential enrichment calls, to stay under the
	// ratings provider's request budget.
	enrichmentDelay time.Duration
	sleep           func(ctx context.Context, d time.Duration)
}

// NewSearchService builds the orchestrator. analytics and metrics may be nil.
func NewSearchService(
	geocoder providers.Geocoder,
	router providers.RouteProvider,
	places providers.PlacesProvider,
	ratings providers.RatingsProvider,
	ranking *PlaceRankingService,
	analytics *SearchAnalyticsService,
	metrics *observability.Metrics,
	maxResults int,
	enrichmentDelay time.Duration,
) *SearchService {
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	return &SearchService{
		geocoder:        geocoder,
		router:          router,
		places:          places,
		ratings:         ratings,
		ranking:         ranking,
		analytics:       analytics,
		metrics:         metrics,
		maxResults:      maxResults,
		enrichmentDelay: enrichmentDelay,
		sleep:           sleepContext,
	}
}

// SearchAlongRoute finds places near a driving route between two addresses.
func (s *SearchService) SearchAlongRoute(ctx context.Context, params entities.SearchParams) (*entities.SearchResult, error) {
	return s.run(ctx, entities.RouteMode, params)
}

// SearchMeetup finds places around the midpoint between two addresses.
func (s *SearchService) SearchMeetup(ctx context.Context, params entities.SearchParams) (*entities.SearchResult, error) {
	return s.run(ctx, entities.MeetupMode, params)
}

func (s *SearchService) run(ctx context.Context, mode entities.SearchMode, params entities.SearchParams) (*entities.SearchResult, error) {
	start := time.Now()
	s.applyDefaults(&params)

	result, err := s.search(ctx, mode, params)

	resultCount := 0
	if result != nil {
		resultCount = len(result.Places)
	}

	event := &entities.SearchEvent{
		ID:          uuid.New().String(),
		Mode:        mode,
		Category:    string(params.Category),
		Origin:      params.Origin,
		Destination: params.Destination,
		ResultCount: resultCount,
		LatencyMs:   time.Since(start).Milliseconds(),
		Failed:      err != nil,
		CreatedAt:   time.Now().UTC(),
	}
	if s.analytics != nil {
		s.analytics.TrackSearch(ctx, event)
	}
	observability.RecordSearchMetric(ctx, s.metrics, string(mode), resultCount, err != nil)
	observability.SearchLogger(ctx, string(mode)).Info().
		Int("result_count", resultCount).
		Int64("latency_ms", event.LatencyMs).
		Bool("failed", err != nil).
		Msg("Search completed")

	return result, err
}

func (s *SearchService) search(ctx context.Context, mode entities.SearchMode, params entities.SearchParams) (*entities.SearchResult, error) {
	if params.Origin == "" || params.Destination == "" {
		return nil, apperrors.NewValidationError("both origin and destination are required")
	}

	originLoc, destLoc, err := s.geocodeEndpoints(ctx, params.Origin, params.Destination)
	if err != nil {
		return nil, err
	}

	var (
		candidates []entities.CandidatePlace
		center     geo.Location
		route      []geo.Location
	)

	switch mode {
	case entities.MeetupMode:
		center = geo.Midpoint(originLoc, destLoc)
		// Distances rank against the meeting point, not the caller's start.
		// A provider failure here degrades to zero candidates, same as a
		// failed route point.
		candidates, err = s.places.SearchNearby(ctx, center, params.Category, params.RadiusMiles, params.MaxResults, center)
		if err != nil {
			observability.SearchLogger(ctx, string(mode)).Warn().
				Err(err).
				Float64("lat", center.Lat).
				Float64("lng", center.Lng).
				Msg("Places lookup failed for meetup point")
			candidates = nil
			err = nil
		}
	default:
		routeStart := time.Now()
		route, err = s.router.GetRoute(ctx, originLoc, destLoc)
		observability.RecordProviderMetric(ctx, s.metrics, "geoapify", "routing", time.Since(routeStart))
		if err != nil {
			return nil, err
		}

		points, err := s.samplePoints(route, params)
		if err != nil {
			return nil, err
		}
		center = points[len(points)/2]

		candidates = s.searchAroundPoints(ctx, points, params, originLoc)
	}

	candidates = dedupeCandidates(candidates)
	enriched := s.enrich(ctx, candidates)

	ranked := s.ranking.Rank(enriched)
	if len(ranked) > params.MaxResults {
		ranked = ranked[:params.MaxResults]
	}

	return &entities.SearchResult{
		Places:              ranked,
		Center:              center,
		Route:               route,
		OriginLocation:      originLoc,
		DestinationLocation: destLoc,
		Mode:                mode,
	}, nil
}

// geocodeEndpoints resolves both addresses concurrently. Either failure
// fails the whole search.
func (s *SearchService) geocodeEndpoints(ctx context.Context, origin, destination string) (geo.Location, geo.Location, error) {
	start := time.Now()
	defer func() {
		observability.RecordProviderMetric(ctx, s.metrics, "geoapify", "geocode", time.Since(start))
	}()

	var (
		wg                 sync.WaitGroup
		originLoc, destLoc geo.Location
		originErr, destErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		originLoc, originErr = s.geocoder.Geocode(ctx, origin)
	}()
	go func() {
		defer wg.Done()
		destLoc, destErr = s.geocoder.Geocode(ctx, destination)
	}()
	wg.Wait()

	if originErr != nil {
		return geo.Location{}, geo.Location{}, fmt.Errorf("geocode origin %q: %w", origin, originErr)
	}
	if destErr != nil {
		return geo.Location{}, geo.Location{}, fmt.Errorf("geocode destination %q: %w", destination, destErr)
	}
	return originLoc, destLoc, nil
}

// samplePoints picks the search centers along the route, optionally skipping
// a leading share of them so results cluster past the start of the trip.
func (s *SearchService) samplePoints(route []geo.Location, params entities.SearchParams) ([]geo.Location, error) {
	desired := int(math.Ceil(float64(params.MaxResults) / 2))
	if desired > maxSamplePoints {
		desired = maxSamplePoints
	}

	points, err := geo.SampleAlongPolyline(route, desired)
	if err != nil {
		return nil, err
	}

	if params.SkipFromStartPercent > 0 {
		skip := int(math.Floor(float64(len(points)) * params.SkipFromStartPercent / 100))
		if skip >= len(points) {
			skip = len(points) - 1
		}
		points = points[skip:]
	}

	return points, nil
}

// searchAroundPoints fans out one places lookup per sample point. A failed
// point contributes no candidates but never fails the search.
func (s *SearchService) searchAroundPoints(ctx context.Context, points []geo.Location, params entities.SearchParams, origin geo.Location) []entities.CandidatePlace {
	perPoint := int(math.Ceil(float64(params.MaxResults) / float64(len(points))))

	logger := observability.LoggerFromContext(ctx)
	results := make([][]entities.CandidatePlace, len(points))

	var wg sync.WaitGroup
	for i, point := range points {
		wg.Add(1)
		go func(i int, point geo.Location) {
			defer wg.Done()
			found, err := s.places.SearchNearby(ctx, point, params.Category, params.DistanceOffRouteMiles, perPoint, origin)
			if err != nil {
				logger.Warn().
					Err(err).
					Float64("lat", point.Lat).
					Float64("lng", point.Lng).
					Msg("Places lookup failed for route point")
				return
			}
			results[i] = found
		}(i, point)
	}
	wg.Wait()

	var candidates []entities.CandidatePlace
	for _, r := range results {
		candidates = append(candidates, r...)
	}
	return candidates
}

// enrich runs ratings enrichment one candidate at a time, pausing between
// calls. Enrichment never fails; the provider degrades to the bare candidate.
func (s *SearchService) enrich(ctx context.Context, candidates []entities.CandidatePlace) []entities.EnrichedPlace {
	start := time.Now()
	defer func() {
		observability.RecordProviderMetric(ctx, s.metrics, "tripadvisor", "enrich", time.Since(start))
	}()

	enriched := make([]entities.EnrichedPlace, 0, len(candidates))
	for i, candidate := range candidates {
		if i > 0 && s.enrichmentDelay > 0 {
			s.sleep(ctx, s.enrichmentDelay)
		}
		enriched = append(enriched, s.ratings.Enrich(ctx, candidate))
	}
	return enriched
}

// dedupeCandidates keeps the first occurrence of every external id.
// Candidates without an id cannot be deduplicated and are dropped.
func dedupeCandidates(candidates []entities.CandidatePlace) []entities.CandidatePlace {
	seen := make(map[string]bool, len(candidates))
	deduped := make([]entities.CandidatePlace, 0, len(candidates))
	for _, c := range candidates {
		if c.ExternalID == "" || seen[c.ExternalID] {
			continue
		}
		seen[c.ExternalID] = true
		deduped = append(deduped, c)
	}
	return deduped
}

func (s *SearchService) applyDefaults(params *entities.SearchParams) {
	if params.MaxResults <= 0 {
		params.MaxResults = s.maxResults
	}
	if params.MaxResults > maxResultsCap {
		params.MaxResults = maxResultsCap
	}
	if params.DistanceOffRouteMiles <= 0 {
		params.DistanceOffRouteMiles = defaultDistanceOffRouteMiles
	}
	if params.RadiusMiles <= 0 {
		params.RadiusMiles = defaultMeetupRadiusMiles
	}
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
