package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/routestops/routestops/internal/domain/providers"
	apperrors "github.com/routestops/routestops/pkg/errors"
	"github.com/routestops/routestops/pkg/geo"
)

const (
	geoapifyRoutingURL = "https://api.geoapify.com/v1/routing"
	defaultHTTPTimeout = 10 * time.Second
)

// GeoapifyRouteProvider implements the RouteProvider interface using the
// Geoapify routing API.
type GeoapifyRouteProvider struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
}

// NewGeoapifyRouteProvider creates a new Geoapify route provider.
func NewGeoapifyRouteProvider(apiKey string) providers.RouteProvider {
	return NewGeoapifyRouteProviderWithOptions(apiKey, geoapifyRoutingURL, nil)
}

// NewGeoapifyRouteProviderWithOptions allows overriding base URL and HTTP client (used for tests).
func NewGeoapifyRouteProviderWithOptions(apiKey, baseURL string, httpClient *http.Client) providers.RouteProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = geoapifyRoutingURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &GeoapifyRouteProvider{
		apiKey:     apiKey,
		httpClient: httpClient,
		baseURL:    baseURL,
	}
}

// GetRoute resolves a driving path between origin and destination into a
// polyline oriented origin to destination. The provider's (lon,lat) coordinate
// order is normalized to the (lat,lng) order used by the rest of the system.
func (p *GeoapifyRouteProvider) GetRoute(ctx context.Context, origin, destination geo.Location) ([]geo.Location, error) {
	params := url.Values{}
	params.Set("waypoints", fmt.Sprintf("%f,%f|%f,%f", origin.Lat, origin.Lng, destination.Lat, destination.Lng))
	params.Set("mode", "drive")
	params.Set("format", "geojson")
	params.Set("apiKey", p.apiKey)

	reqURL := fmt.Sprintf("%s?%s", p.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, apperrors.NewExternalError("failed to build routing request", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewExternalError("routing request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewExternalError(fmt.Sprintf("routing request returned status %d", resp.StatusCode), nil)
	}

	var payload routingResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.NewExternalError("failed to decode routing response", err)
	}

	if len(payload.Features) == 0 {
		return nil, providers.ErrNoRouteFound
	}

	polyline, err := parseGeometry(payload.Features[0].Geometry)
	if err != nil {
		return nil, err
	}

	return polyline, nil
}

// parseGeometry flattens a GeoJSON geometry into a (lat,lng) polyline. The
// provider returns LineString coordinates for single-leg routes and
// MultiLineString nesting for multi-leg ones.
func parseGeometry(g geometry) ([]geo.Location, error) {
	var pairs [][]float64

	switch g.Type {
	case "LineString":
		if err := json.Unmarshal(g.Coordinates, &pairs); err != nil {
			return nil, providers.ErrNoRouteFound
		}
	case "MultiLineString":
		var segments [][][]float64
		if err := json.Unmarshal(g.Coordinates, &segments); err != nil {
			return nil, providers.ErrNoRouteFound
		}
		for _, segment := range segments {
			pairs = append(pairs, segment...)
		}
	default:
		return nil, providers.ErrNoRouteFound
	}

	if len(pairs) == 0 {
		return nil, providers.ErrNoRouteFound
	}

	polyline := make([]geo.Location, 0, len(pairs))
	for _, pair := range pairs {
		if len(pair) < 2 {
			return nil, providers.ErrNoRouteFound
		}
		// GeoJSON order is (lon, lat).
		polyline = append(polyline, geo.Location{Lat: pair[1], Lng: pair[0]})
	}

	return polyline, nil
}

type routingResponse struct {
	Features []feature `json:"features"`
}

type feature struct {
	Geometry geometry `json:"geometry"`
}

type geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}
