package providers

import (
	"context"
	"errors"

	"github.com/routestops/routestops/internal/domain/entities"
	"github.com/routestops/routestops/pkg/geo"
)

var (
	// ErrNoGeocodeResult indicates the geocoding provider returned zero candidates.
	ErrNoGeocodeResult = errors.New("no geocode result for address")

	// ErrNoRouteFound indicates the routing provider returned an empty or
	// malformed geometry.
	ErrNoRouteFound = errors.New("no valid route found")
)

// Geocoder resolves free-text addresses to coordinates.
type Geocoder interface {
	// Geocode returns the top-ranked candidate for the address.
	Geocode(ctx context.Context, address string) (geo.Location, error)
}

// RouteProvider resolves a driving path between two coordinates.
type RouteProvider interface {
	// GetRoute returns a non-empty polyline oriented origin to destination.
	GetRoute(ctx context.Context, origin, destination geo.Location) ([]geo.Location, error)
}

// PlacesProvider queries a POI provider for candidates near a point.
type PlacesProvider interface {
	// SearchNearby returns at most limit candidates within radiusMiles of
	// point. DistanceFromOrigin is computed against origin. No ranking
	// guarantee at this layer.
	SearchNearby(ctx context.Context, point geo.Location, category entities.PlaceCategory, radiusMiles float64, limit int, origin geo.Location) ([]entities.CandidatePlace, error)
}

// RatingsProvider enriches candidates with ratings provider data.
type RatingsProvider interface {
	// Enrich never fails the overall search: on any error it returns the
	// candidate unmodified with ratings fields unset.
	Enrich(ctx context.Context, candidate entities.CandidatePlace) entities.EnrichedPlace
}
