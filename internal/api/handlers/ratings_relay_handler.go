package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/routestops/routestops/internal/adapters/providers/ratings"
	"github.com/routestops/routestops/internal/infrastructure/observability"
	apperrors "github.com/routestops/routestops/pkg/errors"
	"github.com/routestops/routestops/pkg/geo"
)

// RatingsClient is the slice of the ratings provider the relay needs.
type RatingsClient interface {
	SearchBestMatch(ctx context.Context, name string, loc geo.Location, locationType string) (*ratings.Record, error)
	FetchDetails(ctx context.Context, locationID string) (*ratings.Record, error)
}

// RatingsRelayHandler forwards browser lookups to the ratings provider.
// The provider blocks cross-origin calls from web clients, so the frontend
// goes through this endpoint instead of calling it directly.
type RatingsRelayHandler struct {
	client RatingsClient
}

// NewRatingsRelayHandler creates the relay. A nil client means the API key
// is not configured and every lookup fails with a server error.
func NewRatingsRelayHandler(client RatingsClient) *RatingsRelayHandler {
	return &RatingsRelayHandler{client: client}
}

type ratingsRelayRequest struct {
	Name         string  `json:"name"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Type         string  `json:"type"`
	LocationID   string  `json:"locationId"`
	FetchDetails bool    `json:"fetchDetails"`
}

// Relay handles POST /api/ratings-proxy. Preflight OPTIONS requests get an
// empty 204; any method other than POST is rejected.
func (h *RatingsRelayHandler) Relay(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodPost:
	default:
		respondWithJSON(w, http.StatusMethodNotAllowed, map[string]string{
			"error": "method not allowed",
		})
		return
	}

	if h.client == nil {
		respondWithJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "configuration error",
			"message": "ratings provider API key is not configured",
		})
		return
	}

	var req ratingsRelayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondRelayError(w, http.StatusBadRequest, "invalid request", "request body must be valid JSON")
		return
	}

	var (
		record *ratings.Record
		err    error
	)
	switch {
	case req.LocationID != "" && req.FetchDetails:
		record, err = h.client.FetchDetails(r.Context(), req.LocationID)
	case strings.TrimSpace(req.Name) != "":
		loc := geo.Location{Lat: req.Latitude, Lng: req.Longitude}
		record, err = h.client.SearchBestMatch(r.Context(), strings.TrimSpace(req.Name), loc, req.Type)
	default:
		respondRelayError(w, http.StatusBadRequest, "invalid request", "either name or locationId with fetchDetails is required")
		return
	}

	if err != nil {
		logger := observability.LoggerFromContext(r.Context())
		logger.Warn().Err(err).Str("name", req.Name).Str("location_id", req.LocationID).Msg("Ratings relay lookup failed")

		switch {
		case apperrors.IsType(err, apperrors.ErrorTypeValidation):
			respondRelayError(w, http.StatusBadRequest, "invalid request", errorMessage(err))
		case apperrors.IsType(err, apperrors.ErrorTypeRateLimited):
			respondRelayError(w, http.StatusTooManyRequests, "rate limited", "ratings provider is rate limiting requests")
		default:
			respondRelayError(w, http.StatusBadGateway, "upstream error", "ratings provider request failed")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"data": record,
	})
}

func respondRelayError(w http.ResponseWriter, statusCode int, errLabel, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error":   errLabel,
		"message": message,
	})
}
