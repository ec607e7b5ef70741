package ratings

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumber_CoercesStringAndNumber(t *testing.T) {
	var fromString, fromNumber struct {
		Rating Number `json:"rating"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"rating":"4.5"}`), &fromString))
	require.NoError(t, json.Unmarshal([]byte(`{"rating":4.5}`), &fromNumber))

	assert.Equal(t, fromString.Rating, fromNumber.Rating)
	assert.Equal(t, Number(4.5), fromString.Rating)
}

func TestNumber_NullAndEmpty(t *testing.T) {
	var rec struct {
		Rating Number `json:"rating"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"rating":null}`), &rec))
	assert.Equal(t, Number(0), rec.Rating)

	require.NoError(t, json.Unmarshal([]byte(`{"rating":""}`), &rec))
	assert.Equal(t, Number(0), rec.Rating)
}

func TestDecodeLocations_ArrayShape(t *testing.T) {
	body := []byte(`{"data":[{"location_id":"1","name":"A"},{"location_id":"2","name":"B"}]}`)

	locations, err := decodeLocations(body)
	require.NoError(t, err)
	require.Len(t, locations, 2)
	assert.Equal(t, "A", locations[0].Name)
}

func TestDecodeLocations_SingleObjectShape(t *testing.T) {
	body := []byte(`{"data":{"location_id":"1","name":"Solo"}}`)

	locations, err := decodeLocations(body)
	require.NoError(t, err)
	require.Len(t, locations, 1)
	assert.Equal(t, "Solo", locations[0].Name)
}

func TestDecodeLocations_NullData(t *testing.T) {
	locations, err := decodeLocations([]byte(`{"data":null}`))
	require.NoError(t, err)
	assert.Empty(t, locations)
}

func TestNormalize_DetailsFieldsWin(t *testing.T) {
	body := []byte(`{
		"location_id": "100",
		"name": "Joes Pizza",
		"rating": "3.0",
		"num_reviews": "10",
		"website": "http://search.example.com",
		"details": {
			"rating": 4.5,
			"num_reviews": 250,
			"website": "http://details.example.com",
			"phone": "+1 555 0100",
			"address_obj": {"address_string": "1 Main St, Springfield"},
			"photos": [{}, {}, {}]
		}
	}`)

	var raw rawLocation
	require.NoError(t, json.Unmarshal(body, &raw))

	rec := normalize(raw)
	assert.Equal(t, "100", rec.LocationID)
	require.NotNil(t, rec.Rating)
	assert.Equal(t, 4.5, *rec.Rating)
	require.NotNil(t, rec.ReviewCount)
	assert.Equal(t, uint(250), *rec.ReviewCount)
	assert.Equal(t, "http://details.example.com", rec.Website)
	assert.Equal(t, "+1 555 0100", rec.Phone)
	assert.Equal(t, "1 Main St, Springfield", rec.Address)
	assert.Equal(t, uint(3), rec.PhotoCount)
}

func TestNormalize_SearchFieldsSurviveWhenDetailsSilent(t *testing.T) {
	body := []byte(`{
		"location_id": "100",
		"name": "Joes Pizza",
		"rating": 3.5,
		"website": "http://search.example.com",
		"details": {"phone": "+1 555 0100"}
	}`)

	var raw rawLocation
	require.NoError(t, json.Unmarshal(body, &raw))

	rec := normalize(raw)
	require.NotNil(t, rec.Rating)
	assert.Equal(t, 3.5, *rec.Rating)
	assert.Equal(t, "http://search.example.com", rec.Website)
	assert.Equal(t, "+1 555 0100", rec.Phone)
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "joespizza", normalizeName("Joe's Pizza"))
	assert.Equal(t, "joespizza", normalizeName("JOES PIZZA"))
	assert.Equal(t, "cafe42", normalizeName("Café 42")) // non-ASCII dropped
}

func TestSelectBestMatch_SubstringRule(t *testing.T) {
	locations := []rawLocation{
		{LocationID: "2", Name: "Downtown Deli"},
		{LocationID: "1", Name: "Joes Pizza Inc"},
	}

	best := selectBestMatch("Joe's Pizza", locations)
	assert.Equal(t, "1", best.LocationID)
}

func TestSelectBestMatch_ExactBeatsSubstring(t *testing.T) {
	locations := []rawLocation{
		{LocationID: "1", Name: "Joes Pizza Inc"},
		{LocationID: "2", Name: "Joe's Pizza"},
	}

	best := selectBestMatch("Joes Pizza", locations)
	assert.Equal(t, "2", best.LocationID)
}

func TestSelectBestMatch_FallsBackToFirst(t *testing.T) {
	locations := []rawLocation{
		{LocationID: "1", Name: "Downtown Deli"},
		{LocationID: "2", Name: "Uptown Grill"},
	}

	best := selectBestMatch("Joe's Pizza", locations)
	assert.Equal(t, "1", best.LocationID)
}
