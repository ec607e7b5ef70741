package geocoding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/routestops/routestops/internal/adapters/cache"
	"github.com/routestops/routestops/internal/domain/providers"
	apperrors "github.com/routestops/routestops/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeocode_ReturnsTopCandidate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "123 Main St, Springfield", r.URL.Query().Get("text"))
		assert.Equal(t, "countrycode:us,ca", r.URL.Query().Get("filter"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{"lat":39.7817,"lon":-89.6501,"formatted":"123 Main St, Springfield, IL"},{"lat":1,"lon":1}]}`))
	}))
	defer server.Close()

	geocoder := NewGeoapifyGeocoderWithOptions("test-key", nil, server.URL, server.Client())

	loc, err := geocoder.Geocode(context.Background(), "123 Main St, Springfield")
	require.NoError(t, err)
	assert.InDelta(t, 39.7817, loc.Lat, 1e-6)
	assert.InDelta(t, -89.6501, loc.Lng, 1e-6)
}

func TestGeocode_NoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	geocoder := NewGeoapifyGeocoderWithOptions("test-key", nil, server.URL, server.Client())

	_, err := geocoder.Geocode(context.Background(), "nowhere at all")
	assert.ErrorIs(t, err, providers.ErrNoGeocodeResult)
}

func TestGeocode_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	geocoder := NewGeoapifyGeocoderWithOptions("bad-key", nil, server.URL, server.Client())

	_, err := geocoder.Geocode(context.Background(), "somewhere")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
	assert.Contains(t, err.Error(), "401")
}

func TestGeocode_EmptyAddress(t *testing.T) {
	geocoder := NewGeoapifyGeocoder("test-key", nil)

	_, err := geocoder.Geocode(context.Background(), "   ")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestGeocode_CacheBypassesNetwork(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"results":[{"lat":41.8781,"lon":-87.6298}]}`))
	}))
	defer server.Close()

	memCache := cache.NewMemoryAdapter()
	geocoder := NewGeoapifyGeocoderWithOptions("test-key", memCache, server.URL, server.Client())

	_, err := geocoder.Geocode(context.Background(), "Chicago, IL")
	require.NoError(t, err)

	loc, err := geocoder.Geocode(context.Background(), "Chicago, IL")
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.InDelta(t, 41.8781, loc.Lat, 1e-6)
}
