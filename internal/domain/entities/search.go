package entities

import (
	"time"

	"github.com/routestops/routestops/pkg/geo"
)

// SearchMode selects the search variant.
type SearchMode string

const (
	// RouteMode samples points along a computed driving path.
	RouteMode SearchMode = "route"

	// MeetupMode centers the search on the geodesic midpoint of two locations.
	MeetupMode SearchMode = "meetup"
)

// SearchParams carries a single search invocation's inputs.
type SearchParams struct {
	Origin      string
	Destination string
	Category    PlaceCategory
	MaxResults  int

	// Route mode only.
	DistanceOffRouteMiles float64
	SkipFromStartPercent  float64

	// Meetup mode only.
	RadiusMiles float64
}

// SearchResult is the unified outcome of a search: deduplicated, ranked
// places plus the geometry the UI needs to render them.
type SearchResult struct {
	Places              []EnrichedPlace `json:"places"`
	Center              geo.Location    `json:"center"`
	Route               []geo.Location  `json:"route,omitempty"`
	OriginLocation      geo.Location    `json:"originLocation"`
	DestinationLocation geo.Location    `json:"destinationLocation"`
	Mode                SearchMode      `json:"mode"`
}

// SearchEvent records one completed search for analytics.
type SearchEvent struct {
	ID          string     `json:"id"`
	Mode        SearchMode `json:"mode"`
	Category    string     `json:"category"`
	Origin      string     `json:"origin"`
	Destination string     `json:"destination"`
	ResultCount int        `json:"resultCount"`
	LatencyMs   int64      `json:"latencyMs"`
	Failed      bool       `json:"failed"`
	CreatedAt   time.Time  `json:"createdAt"`
}
