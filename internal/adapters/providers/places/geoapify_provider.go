package places

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/routestops/routestops/internal/domain/entities"
	"github.com/routestops/routestops/internal/domain/providers"
	"github.com/routestops/routestops/internal/infrastructure/observability"
	apperrors "github.com/routestops/routestops/pkg/errors"
	"github.com/routestops/routestops/pkg/geo"
)

const (
	geoapifyPlacesURL = "https://api.geoapify.com/v2/places"

	// Hard ceiling on a single provider call's radius. Wider requests are
	// expanded into a grid of sub-point calls covering the requested area.
	maxCallRadiusMeters = 5000.0

	metersPerMile      = 1609.34
	gridStepDegrees    = 0.05
	maxPerCallLimit    = 50
	defaultHTTPTimeout = 10 * time.Second
)

// GeoapifyPlacesProvider implements the PlacesProvider interface using the
// Geoapify places API.
type GeoapifyPlacesProvider struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
}

// NewGeoapifyPlacesProvider creates a new Geoapify places provider.
func NewGeoapifyPlacesProvider(apiKey string) providers.PlacesProvider {
	return NewGeoapifyPlacesProviderWithOptions(apiKey, geoapifyPlacesURL, nil)
}

// NewGeoapifyPlacesProviderWithOptions allows overriding base URL and HTTP client (used for tests).
func NewGeoapifyPlacesProviderWithOptions(apiKey, baseURL string, httpClient *http.Client) providers.PlacesProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = geoapifyPlacesURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &GeoapifyPlacesProvider{
		apiKey:     apiKey,
		httpClient: httpClient,
		baseURL:    baseURL,
	}
}

// SearchNearby returns candidates near a point within category and radius
// constraints. Requests wider than the per-call ceiling fan out across a grid
// of sub-points; a failing grid cell is logged and contributes zero results
// rather than aborting the lookup.
func (p *GeoapifyPlacesProvider) SearchNearby(ctx context.Context, point geo.Location, category entities.PlaceCategory, radiusMiles float64, limit int, origin geo.Location) ([]entities.CandidatePlace, error) {
	if !point.Valid() {
		return nil, apperrors.NewValidationError("invalid search point coordinates")
	}
	if limit < 1 {
		limit = 1
	}

	radiusMeters := radiusMiles * metersPerMile
	callRadius := math.Min(radiusMeters, maxCallRadiusMeters)
	searchPoints := gridPoints(point, radiusMeters, callRadius)

	type pointResult struct {
		features []placeFeature
		err      error
	}

	results := make([]pointResult, len(searchPoints))
	var wg sync.WaitGroup
	for i, sp := range searchPoints {
		wg.Add(1)
		go func(i int, sp geo.Location) {
			defer wg.Done()
			features, err := p.searchPoint(ctx, sp, category, callRadius, limit)
			results[i] = pointResult{features: features, err: err}
		}(i, sp)
	}
	wg.Wait()

	logger := observability.LoggerFromContext(ctx)
	seen := make(map[string]struct{})
	candidates := make([]entities.CandidatePlace, 0, limit)

	for i, result := range results {
		if result.err != nil {
			logger.Warn().Err(result.err).
				Float64("lat", searchPoints[i].Lat).
				Float64("lng", searchPoints[i].Lng).
				Msg("places lookup failed for grid cell")
			continue
		}
		for _, f := range result.features {
			props := f.Properties
			if props.PlaceID == "" || props.Name == "" {
				continue
			}
			if _, dup := seen[props.PlaceID]; dup {
				continue
			}
			seen[props.PlaceID] = struct{}{}

			loc := geo.Location{Lat: props.Lat, Lng: props.Lon}
			candidates = append(candidates, entities.CandidatePlace{
				ExternalID:         props.PlaceID,
				Name:               props.Name,
				Location:           loc,
				Category:           category,
				RawAddress:         joinAddress(props.AddressLine1, props.AddressLine2),
				Website:            props.Website,
				DistanceFromOrigin: geo.HaversineDistanceMiles(origin, loc),
			})
		}
	}

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

func (p *GeoapifyPlacesProvider) searchPoint(ctx context.Context, point geo.Location, category entities.PlaceCategory, radiusMeters float64, limit int) ([]placeFeature, error) {
	params := url.Values{}
	params.Set("categories", category.PlacesTaxonomy())
	params.Set("filter", fmt.Sprintf("circle:%f,%f,%d", point.Lng, point.Lat, int(radiusMeters)))
	params.Set("bias", fmt.Sprintf("proximity:%f,%f", point.Lng, point.Lat))
	params.Set("limit", strconv.Itoa(min(limit, maxPerCallLimit)))
	params.Set("lang", "en")
	params.Set("conditions", "named")
	params.Set("apiKey", p.apiKey)

	reqURL := fmt.Sprintf("%s?%s", p.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build places request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("places request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("places request returned status %d", resp.StatusCode)
	}

	var payload placesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode places response: %w", err)
	}

	return payload.Features, nil
}

// gridPoints returns the center plus, for radii above the per-call ceiling, a
// square grid of sub-points spaced to cover the requested area.
func gridPoints(center geo.Location, radiusMeters, callRadiusMeters float64) []geo.Location {
	points := []geo.Location{center}
	if radiusMeters <= callRadiusMeters {
		return points
	}

	gridSize := int(math.Ceil(radiusMeters / callRadiusMeters))
	for i := -gridSize; i <= gridSize; i++ {
		for j := -gridSize; j <= gridSize; j++ {
			if i == 0 && j == 0 {
				continue
			}
			points = append(points, geo.Location{
				Lat: center.Lat + float64(i)*gridStepDegrees,
				Lng: center.Lng + float64(j)*gridStepDegrees,
			})
		}
	}
	return points
}

func joinAddress(line1, line2 string) string {
	switch {
	case line1 != "" && line2 != "":
		return line1 + ", " + line2
	case line1 != "":
		return line1
	default:
		return line2
	}
}

type placesResponse struct {
	Features []placeFeature `json:"features"`
}

type placeFeature struct {
	Properties placeProperties `json:"properties"`
}

type placeProperties struct {
	PlaceID      string   `json:"place_id"`
	Name         string   `json:"name"`
	Lat          float64  `json:"lat"`
	Lon          float64  `json:"lon"`
	Categories   []string `json:"categories"`
	AddressLine1 string   `json:"address_line1"`
	AddressLine2 string   `json:"address_line2"`
	Website      string   `json:"website"`
}
