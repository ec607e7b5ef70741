package geocoding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
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
	geoapifyGeocodeURL     = "https://api.geoapify.com/v1/geocode/search"
	countryFilter          = "countrycode:us,ca"
	defaultGeocodeCacheTTL = 60 * 60
	defaultHTTPTimeout     = 8 * time.Second
)

// GeoapifyGeocoder implements the Geocoder interface using the Geoapify
// geocoding API, biased toward US and Canada.
type GeoapifyGeocoder struct {
	apiKey     string
	httpClient *http.Client
	cache      providers.CacheProvider
	baseURL    string
}

// NewGeoapifyGeocoder creates a new Geoapify geocoder.
func NewGeoapifyGeocoder(apiKey string, cache providers.CacheProvider) providers.Geocoder {
	return NewGeoapifyGeocoderWithOptions(apiKey, cache, geoapifyGeocodeURL, nil)
}

// NewGeoapifyGeocoderWithOptions allows overriding base URL and HTTP client (used for tests).
func NewGeoapifyGeocoderWithOptions(apiKey string, cache providers.CacheProvider, baseURL string, httpClient *http.Client) providers.Geocoder {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = geoapifyGeocodeURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &GeoapifyGeocoder{
		apiKey:     apiKey,
		httpClient: httpClient,
		cache:      cache,
		baseURL:    baseURL,
	}
}

// Geocode converts a free-text address to coordinates. It returns the
// provider's top-ranked candidate only and never retries: a geocoding failure
// is fatal to the enclosing search.
func (g *GeoapifyGeocoder) Geocode(ctx context.Context, address string) (geo.Location, error) {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return geo.Location{}, apperrors.NewValidationError("address is required")
	}

	cacheKey := "geocode:v1:" + hashKey(strings.ToLower(trimmed))
	if g.cache != nil {
		if cached, err := g.cache.Get(ctx, cacheKey); err == nil && len(cached) > 0 {
			var loc geo.Location
			if err := json.Unmarshal(cached, &loc); err == nil && loc.Valid() && (loc.Lat != 0 || loc.Lng != 0) {
				return loc, nil
			}
		}
	}

	params := url.Values{}
	params.Set("text", trimmed)
	params.Set("format", "json")
	params.Set("filter", countryFilter)
	params.Set("bias", countryFilter)
	params.Set("limit", "1")
	params.Set("lang", "en")
	params.Set("apiKey", g.apiKey)

	reqURL := fmt.Sprintf("%s?%s", g.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return geo.Location{}, apperrors.NewExternalError("failed to build geocode request", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return geo.Location{}, apperrors.NewExternalError("geocode request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return geo.Location{}, apperrors.NewExternalError(fmt.Sprintf("geocode request returned status %d", resp.StatusCode), nil)
	}

	var payload geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return geo.Location{}, apperrors.NewExternalError("failed to decode geocode response", err)
	}

	if len(payload.Results) == 0 {
		return geo.Location{}, fmt.Errorf("%w: %s", providers.ErrNoGeocodeResult, trimmed)
	}

	loc := geo.Location{Lat: payload.Results[0].Lat, Lng: payload.Results[0].Lon}

	if g.cache != nil {
		if data, err := json.Marshal(loc); err == nil {
			_ = g.cache.Set(ctx, cacheKey, data, defaultGeocodeCacheTTL)
		}
	}

	return loc, nil
}

func hashKey(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

type geocodeResponse struct {
	Results []geocodeResult `json:"results"`
}

type geocodeResult struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Formatted string  `json:"formatted"`
}
