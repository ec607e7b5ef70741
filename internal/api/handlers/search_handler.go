package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/routestops/routestops/internal/application/services"
	"github.com/routestops/routestops/internal/domain/entities"
	"github.com/routestops/routestops/internal/domain/providers"
	"github.com/routestops/routestops/internal/infrastructure/observability"
	apperrors "github.com/routestops/routestops/pkg/errors"
	"github.com/routestops/routestops/pkg/geo"
)

// SearchHandler handles place search HTTP requests
type SearchHandler struct {
	service *services.SearchService
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(service *services.SearchService) *SearchHandler {
	return &SearchHandler{service: service}
}

// SearchAlongRoute handles GET /api/search/route
func (h *SearchHandler) SearchAlongRoute(w http.ResponseWriter, r *http.Request) {
	params, err := parseSearchParams(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.SearchAlongRoute(r.Context(), params)
	if err != nil {
		h.respondSearchError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// SearchMeetup handles GET /api/search/meetup
func (h *SearchHandler) SearchMeetup(w http.ResponseWriter, r *http.Request) {
	params, err := parseSearchParams(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.SearchMeetup(r.Context(), params)
	if err != nil {
		h.respondSearchError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *SearchHandler) respondSearchError(w http.ResponseWriter, r *http.Request, err error) {
	logger := observability.LoggerFromContext(r.Context())

	switch {
	case apperrors.IsType(err, apperrors.ErrorTypeValidation):
		respondWithError(w, http.StatusBadRequest, errorMessage(err))
	case errors.Is(err, providers.ErrNoGeocodeResult):
		respondWithError(w, http.StatusUnprocessableEntity, "could not geocode one of the addresses")
	case errors.Is(err, providers.ErrNoRouteFound), errors.Is(err, geo.ErrInsufficientRouteData):
		respondWithError(w, http.StatusUnprocessableEntity, "no drivable route between the addresses")
	case apperrors.IsType(err, apperrors.ErrorTypeRateLimited):
		respondWithError(w, http.StatusTooManyRequests, "upstream provider is rate limiting requests")
	default:
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("Search failed")
		respondWithError(w, http.StatusBadGateway, "search failed")
	}
}

func parseSearchParams(r *http.Request) (entities.SearchParams, error) {
	q := r.URL.Query()

	params := entities.SearchParams{
		Origin:      strings.TrimSpace(q.Get("origin")),
		Destination: strings.TrimSpace(q.Get("destination")),
		Category:    entities.ParsePlaceCategory(q.Get("category")),
	}
	if params.Origin == "" || params.Destination == "" {
		return params, errors.New("origin and destination parameters are required")
	}

	var err error
	if params.MaxResults, err = intParam(q.Get("maxResults")); err != nil {
		return params, errors.New("invalid maxResults parameter")
	}
	if params.DistanceOffRouteMiles, err = floatParam(q.Get("distanceOffRoute")); err != nil {
		return params, errors.New("invalid distanceOffRoute parameter")
	}
	if params.SkipFromStartPercent, err = floatParam(q.Get("skipFromStart")); err != nil {
		return params, errors.New("invalid skipFromStart parameter")
	}
	if params.SkipFromStartPercent < 0 || params.SkipFromStartPercent > 100 {
		return params, errors.New("skipFromStart must be between 0 and 100")
	}
	if params.RadiusMiles, err = floatParam(q.Get("radius")); err != nil {
		return params, errors.New("invalid radius parameter")
	}

	return params, nil
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func floatParam(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseFloat(raw, 64)
}

func errorMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// Helper functions
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
