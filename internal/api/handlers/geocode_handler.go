package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/routestops/routestops/internal/domain/providers"
)

// GeocodeHandler handles standalone geocoding requests.
type GeocodeHandler struct {
	geocoder providers.Geocoder
}

// NewGeocodeHandler creates a new geocode handler.
func NewGeocodeHandler(geocoder providers.Geocoder) *GeocodeHandler {
	return &GeocodeHandler{geocoder: geocoder}
}

// Geocode handles GET /api/geocode?address=...
func (h *GeocodeHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if address == "" {
		respondWithError(w, http.StatusBadRequest, "address parameter is required")
		return
	}

	loc, err := h.geocoder.Geocode(r.Context(), address)
	if err != nil {
		if errors.Is(err, providers.ErrNoGeocodeResult) {
			respondWithError(w, http.StatusNotFound, "no result for address")
			return
		}
		respondWithError(w, http.StatusBadGateway, "failed to geocode address")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"address": address,
		"lat":     loc.Lat,
		"lng":     loc.Lng,
	})
}
