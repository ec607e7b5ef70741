package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routestops/routestops/internal/adapters/providers/ratings"
	apperrors "github.com/routestops/routestops/pkg/errors"
	"github.com/routestops/routestops/pkg/geo"
)

type fakeRatingsClient struct {
	searchRecord  *ratings.Record
	detailsRecord *ratings.Record
	err           error

	searchedName      string
	fetchedLocationID string
}

func (c *fakeRatingsClient) SearchBestMatch(_ context.Context, name string, _ geo.Location, _ string) (*ratings.Record, error) {
	c.searchedName = name
	return c.searchRecord, c.err
}

func (c *fakeRatingsClient) FetchDetails(_ context.Context, locationID string) (*ratings.Record, error) {
	c.fetchedLocationID = locationID
	return c.detailsRecord, c.err
}

func TestRelay_SearchReturnsData(t *testing.T) {
	rating := 4.5
	client := &fakeRatingsClient{searchRecord: &ratings.Record{
		LocationID: "loc-1",
		Name:       "Blue Moon Cafe",
		Rating:     &rating,
	}}
	handler := NewRatingsRelayHandler(client)

	body := `{"name":"Blue Moon Cafe","latitude":33.7,"longitude":-84.4,"type":"restaurants"}`
	req := httptest.NewRequest(http.MethodPost, "/api/ratings-proxy", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Relay(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Blue Moon Cafe", client.searchedName)

	var envelope struct {
		Data *ratings.Record `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Data)
	assert.Equal(t, "loc-1", envelope.Data.LocationID)
}

func TestRelay_FetchDetailsByLocationID(t *testing.T) {
	client := &fakeRatingsClient{detailsRecord: &ratings.Record{LocationID: "loc-9"}}
	handler := NewRatingsRelayHandler(client)

	body := `{"locationId":"loc-9","fetchDetails":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/ratings-proxy", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Relay(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "loc-9", client.fetchedLocationID)
	assert.Empty(t, client.searchedName)
}

func TestRelay_NoMatchReturnsNullData(t *testing.T) {
	handler := NewRatingsRelayHandler(&fakeRatingsClient{})

	body := `{"name":"Ghost Restaurant"}`
	req := httptest.NewRequest(http.MethodPost, "/api/ratings-proxy", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Relay(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "null", string(envelope["data"]))
}

func TestRelay_PreflightGets204(t *testing.T) {
	handler := NewRatingsRelayHandler(&fakeRatingsClient{})

	req := httptest.NewRequest(http.MethodOptions, "/api/ratings-proxy", nil)
	rec := httptest.NewRecorder()
	handler.Relay(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestRelay_RejectsNonPost(t *testing.T) {
	handler := NewRatingsRelayHandler(&fakeRatingsClient{})

	req := httptest.NewRequest(http.MethodGet, "/api/ratings-proxy", nil)
	rec := httptest.NewRecorder()
	handler.Relay(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRelay_MissingAPIKey(t *testing.T) {
	handler := NewRatingsRelayHandler(nil)

	body := `{"name":"Cafe"}`
	req := httptest.NewRequest(http.MethodPost, "/api/ratings-proxy", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Relay(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["error"])
	assert.NotEmpty(t, resp["message"])
}

func TestRelay_InvalidBody(t *testing.T) {
	handler := NewRatingsRelayHandler(&fakeRatingsClient{})

	req := httptest.NewRequest(http.MethodPost, "/api/ratings-proxy", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	handler.Relay(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRelay_MissingNameAndLocationID(t *testing.T) {
	handler := NewRatingsRelayHandler(&fakeRatingsClient{})

	req := httptest.NewRequest(http.MethodPost, "/api/ratings-proxy", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler.Relay(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRelay_UpstreamRateLimited(t *testing.T) {
	client := &fakeRatingsClient{err: apperrors.NewRateLimitedError("upstream returned 429")}
	handler := NewRatingsRelayHandler(client)

	body := `{"name":"Cafe"}`
	req := httptest.NewRequest(http.MethodPost, "/api/ratings-proxy", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Relay(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRelay_UpstreamFailure(t *testing.T) {
	client := &fakeRatingsClient{err: apperrors.NewExternalError("upstream returned 500", nil)}
	handler := NewRatingsRelayHandler(client)

	body := `{"name":"Cafe"}`
	req := httptest.NewRequest(http.MethodPost, "/api/ratings-proxy", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Relay(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
