package ratings

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/routestops/routestops/internal/domain/entities"
	"github.com/routestops/routestops/internal/domain/providers"
	"github.com/routestops/routestops/internal/infrastructure/observability"
	apperrors "github.com/routestops/routestops/pkg/errors"
	"github.com/routestops/routestops/pkg/geo"
)

const (
	tripAdvisorBaseURL = "https://api.content.tripadvisor.com/api/v1"

	// Responses are cached by a fingerprint of the outbound request so
	// overlapping searches collapse into one upstream call.
	responseCacheTTL = 60 * 60

	maxRetries        = 3
	defaultRetryDelay = 1000 * time.Millisecond
	searchRadiusKm    = 5

	defaultHTTPTimeout = 15 * time.Second
)

// TripAdvisorProvider enriches candidate places with TripAdvisor ratings
// data. Enrichment is strictly additive: any failure degrades to the
// unenriched candidate and never fails the enclosing search.
type TripAdvisorProvider struct {
	apiKey     string
	httpClient *http.Client
	cache      providers.CacheProvider
	baseURL    string
	retryDelay time.Duration
}

// NewTripAdvisorProvider creates a new TripAdvisor ratings provider.
func NewTripAdvisorProvider(apiKey string, cache providers.CacheProvider) *TripAdvisorProvider {
	return NewTripAdvisorProviderWithOptions(apiKey, cache, tripAdvisorBaseURL, nil)
}

// NewTripAdvisorProviderWithOptions allows overriding base URL and HTTP client (used for tests).
func NewTripAdvisorProviderWithOptions(apiKey string, cache providers.CacheProvider, baseURL string, httpClient *http.Client) *TripAdvisorProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = tripAdvisorBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &TripAdvisorProvider{
		apiKey:     apiKey,
		httpClient: httpClient,
		cache:      cache,
		baseURL:    baseURL,
		retryDelay: defaultRetryDelay,
	}
}

var _ providers.RatingsProvider = (*TripAdvisorProvider)(nil)

// Enrich merges zero-or-one ratings record into the candidate. On any error,
// or when no record matches, the candidate comes back unmodified with the
// ratings fields unset.
func (p *TripAdvisorProvider) Enrich(ctx context.Context, candidate entities.CandidatePlace) entities.EnrichedPlace {
	enriched := entities.EnrichedPlace{CandidatePlace: candidate}
	logger := observability.LoggerFromContext(ctx)

	if !candidate.Location.Valid() || (candidate.Location.Lat == 0 && candidate.Location.Lng == 0) {
		logger.Debug().Str("name", candidate.Name).Msg("skipping enrichment: missing candidate coordinates")
		return enriched
	}

	record, err := p.SearchBestMatch(ctx, candidate.Name, candidate.Location, candidate.Category.RatingsTaxonomy())
	if err != nil {
		logger.Warn().Err(err).Str("name", candidate.Name).Msg("ratings enrichment failed")
		return enriched
	}
	if record == nil {
		return enriched
	}

	enriched.RatingsID = record.LocationID
	enriched.Rating = record.Rating
	enriched.ReviewCount = record.ReviewCount
	enriched.PriceLevel = record.PriceLevel
	enriched.Phone = record.Phone
	enriched.PhotoCount = record.PhotoCount
	if record.Website != "" {
		enriched.Website = record.Website
	}
	if record.Address != "" {
		enriched.RawAddress = record.Address
	}

	return enriched
}

// SearchBestMatch runs the two-phase fetch: a coarse search by name near the
// location, best-match selection, then a details call for the authoritative
// fields. Returns (nil, nil) when the provider has no record for the name.
func (p *TripAdvisorProvider) SearchBestMatch(ctx context.Context, name string, loc geo.Location, locationType string) (*Record, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}

	locations, err := p.search(ctx, name, loc, locationType)
	if err != nil {
		return nil, err
	}
	if len(locations) == 0 {
		return nil, nil
	}

	best := selectBestMatch(name, locations)
	searchRecord := normalize(best)
	if searchRecord.LocationID == "" {
		return &searchRecord, nil
	}

	detailsRecord, err := p.FetchDetails(ctx, searchRecord.LocationID)
	if err != nil {
		// The search record alone is still usable.
		observability.LoggerFromContext(ctx).Warn().Err(err).
			Str("location_id", searchRecord.LocationID).
			Msg("ratings details fetch failed, using search record")
		return &searchRecord, nil
	}

	merged := merge(searchRecord, *detailsRecord)
	return &merged, nil
}

func (p *TripAdvisorProvider) search(ctx context.Context, name string, loc geo.Location, locationType string) ([]rawLocation, error) {
	params := url.Values{}
	params.Set("key", p.apiKey)
	params.Set("searchQuery", name)
	params.Set("latLong", fmt.Sprintf("%f,%f", loc.Lat, loc.Lng))
	params.Set("radius", fmt.Sprintf("%d", searchRadiusKm))
	params.Set("radiusUnit", "km")
	params.Set("category", locationType)
	params.Set("language", "en")

	fingerprint := requestFingerprint("search", name, loc, locationType)
	body, err := p.request(ctx, fmt.Sprintf("%s/location/search?%s", p.baseURL, params.Encode()), fingerprint)
	if err != nil {
		return nil, err
	}

	return decodeLocations(body)
}

// FetchDetails retrieves the authoritative record for a provider location id.
func (p *TripAdvisorProvider) FetchDetails(ctx context.Context, locationID string) (*Record, error) {
	params := url.Values{}
	params.Set("key", p.apiKey)
	params.Set("language", "en")
	params.Set("currency", "USD")

	fingerprint := requestFingerprint("details", locationID, geo.Location{}, "")
	body, err := p.request(ctx, fmt.Sprintf("%s/location/%s/details?%s", p.baseURL, url.PathEscape(locationID), params.Encode()), fingerprint)
	if err != nil {
		return nil, err
	}

	// The details endpoint returns the record either bare or wrapped in a
	// data envelope depending on deployment.
	locations, err := decodeLocations(body)
	if err != nil || len(locations) == 0 {
		var bare rawLocation
		if jsonErr := json.Unmarshal(body, &bare); jsonErr != nil {
			if err != nil {
				return nil, err
			}
			return nil, jsonErr
		}
		locations = []rawLocation{bare}
	}

	record := normalize(locations[0])
	return &record, nil
}

// request performs an HTTP GET with the bounded retry policy: up to 3 retries,
// exponential backoff on 429, fixed delay on transport errors and 5xx, and no
// retry at all on other 4xx responses. A cache hit bypasses the network and
// retry logic entirely.
func (p *TripAdvisorProvider) request(ctx context.Context, reqURL, fingerprint string) ([]byte, error) {
	cacheKey := "ratings:v1:" + fingerprint
	if p.cache != nil {
		if cached, err := p.cache.Get(ctx, cacheKey); err == nil && len(cached) > 0 {
			return cached, nil
		}
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := p.retryDelay
			if apperrors.IsType(lastErr, apperrors.ErrorTypeRateLimited) {
				delay = p.retryDelay << (attempt - 1)
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		body, err := p.doRequest(ctx, reqURL)
		if err == nil {
			if p.cache != nil {
				_ = p.cache.Set(ctx, cacheKey, body, responseCacheTTL)
			}
			return body, nil
		}

		if !isRetryable(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("ratings request failed after %d retries: %w", maxRetries, lastErr)
}

func (p *TripAdvisorProvider) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build ratings request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewExternalError("ratings request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewExternalError("failed to read ratings response", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, apperrors.NewRateLimitedError("ratings provider rate limited")
	case resp.StatusCode >= 500:
		return nil, apperrors.NewExternalError(fmt.Sprintf("ratings request returned status %d", resp.StatusCode), nil)
	case resp.StatusCode >= 400:
		return nil, apperrors.NewValidationError(fmt.Sprintf("ratings request rejected with status %d: %s", resp.StatusCode, truncate(string(body), 200)))
	}

	return body, nil
}

// isRetryable reports whether the error class permits another attempt:
// rate limits and transport/5xx failures do, other client errors do not.
func isRetryable(err error) bool {
	return apperrors.IsType(err, apperrors.ErrorTypeRateLimited) ||
		apperrors.IsType(err, apperrors.ErrorTypeExternal)
}

func requestFingerprint(op, key string, loc geo.Location, locationType string) string {
	payload, _ := json.Marshal(map[string]interface{}{
		"op":   op,
		"key":  key,
		"lat":  loc.Lat,
		"lng":  loc.Lng,
		"type": locationType,
	})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
