package ratings

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/routestops/routestops/internal/adapters/cache"
	"github.com/routestops/routestops/internal/domain/entities"
	"github.com/routestops/routestops/pkg/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCandidate() entities.CandidatePlace {
	return entities.CandidatePlace{
		ExternalID: "geo-1",
		Name:       "Joe's Pizza",
		Location:   geo.Location{Lat: 39.7817, Lng: -89.6501},
		Category:   entities.CategoryRestaurant,
		RawAddress: "1 Main St",
	}
}

func newTestProvider(t *testing.T, handler http.HandlerFunc) *TripAdvisorProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	provider := NewTripAdvisorProviderWithOptions("test-key", nil, server.URL, server.Client())
	provider.retryDelay = time.Millisecond
	return provider
}

func TestEnrich_TwoPhaseFetch(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/location/search"):
			assert.Equal(t, "Joe's Pizza", r.URL.Query().Get("searchQuery"))
			assert.Equal(t, "restaurants", r.URL.Query().Get("category"))
			w.Write([]byte(`{"data":[{"location_id":"100","name":"Joes Pizza Inc","rating":"3.0"},{"location_id":"101","name":"Downtown Deli"}]}`))
		case strings.Contains(r.URL.Path, "/location/100/details"):
			w.Write([]byte(`{"data":{"location_id":"100","name":"Joes Pizza Inc","rating":4.5,"num_reviews":"250","phone":"+1 555 0100","website":"http://joes.example.com","address_obj":{"address_string":"1 Main St, Springfield"},"photos":[{},{}]}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	enriched := provider.Enrich(context.Background(), testCandidate())

	assert.Equal(t, "geo-1", enriched.ExternalID)
	assert.Equal(t, "Joe's Pizza", enriched.Name)
	assert.Equal(t, "100", enriched.RatingsID)
	require.NotNil(t, enriched.Rating)
	assert.Equal(t, 4.5, *enriched.Rating)
	require.NotNil(t, enriched.ReviewCount)
	assert.Equal(t, uint(250), *enriched.ReviewCount)
	assert.Equal(t, "+1 555 0100", enriched.Phone)
	assert.Equal(t, "http://joes.example.com", enriched.Website)
	assert.Equal(t, "1 Main St, Springfield", enriched.RawAddress)
	assert.Equal(t, uint(2), enriched.PhotoCount)
}

func TestEnrich_NoMatchLeavesCandidateUntouched(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	})

	candidate := testCandidate()
	enriched := provider.Enrich(context.Background(), candidate)

	assert.Equal(t, candidate, enriched.CandidatePlace)
	assert.Nil(t, enriched.Rating)
	assert.Nil(t, enriched.ReviewCount)
	assert.Empty(t, enriched.RatingsID)
}

func TestEnrich_UpstreamFailureDegrades(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	candidate := testCandidate()
	enriched := provider.Enrich(context.Background(), candidate)

	assert.Equal(t, candidate, enriched.CandidatePlace)
	assert.Nil(t, enriched.Rating)
}

func TestRequest_RetriesOnRateLimit(t *testing.T) {
	var calls int64
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&calls, 1)
		if n <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"data":[{"location_id":"1","name":"Joes Pizza"}]}`))
	})

	locations, err := provider.search(context.Background(), "Joes Pizza", geo.Location{Lat: 1, Lng: 1}, "restaurants")
	require.NoError(t, err)
	require.Len(t, locations, 1)

	// Two 429s then success: exactly two retries, three calls total.
	assert.Equal(t, int64(3), atomic.LoadInt64(&calls))
}

func TestRequest_ExhaustsRetries(t *testing.T) {
	var calls int64
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := provider.search(context.Background(), "Joes Pizza", geo.Location{Lat: 1, Lng: 1}, "restaurants")
	require.Error(t, err)

	// Initial attempt plus three retries.
	assert.Equal(t, int64(4), atomic.LoadInt64(&calls))
}

func TestRequest_NoRetryOnClientError(t *testing.T) {
	var calls int64
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := provider.search(context.Background(), "Joes Pizza", geo.Location{Lat: 1, Lng: 1}, "restaurants")
	require.Error(t, err)
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
}

func TestRequest_CacheHitBypassesNetwork(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		if strings.Contains(r.URL.Path, "details") {
			w.Write([]byte(`{"data":{"location_id":"1","name":"Joes Pizza","rating":4.0}}`))
			return
		}
		w.Write([]byte(`{"data":[{"location_id":"1","name":"Joes Pizza"}]}`))
	}))
	defer server.Close()

	provider := NewTripAdvisorProviderWithOptions("test-key", cache.NewMemoryAdapter(), server.URL, server.Client())
	provider.retryDelay = time.Millisecond

	first := provider.Enrich(context.Background(), testCandidate())
	callsAfterFirst := atomic.LoadInt64(&calls)
	second := provider.Enrich(context.Background(), testCandidate())

	assert.Equal(t, callsAfterFirst, atomic.LoadInt64(&calls))
	assert.Equal(t, first, second)
}

func TestSearchBestMatch_EmptyName(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for empty name")
	})

	record, err := provider.SearchBestMatch(context.Background(), "  ", geo.Location{Lat: 1, Lng: 1}, "restaurants")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestFetchDetails_BareRecordShape(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"location_id":"7","name":"Bare","rating":"4.0","num_reviews":12}`)
	})

	record, err := provider.FetchDetails(context.Background(), "7")
	require.NoError(t, err)
	require.NotNil(t, record.Rating)
	assert.Equal(t, 4.0, *record.Rating)
	require.NotNil(t, record.ReviewCount)
	assert.Equal(t, uint(12), *record.ReviewCount)
}
