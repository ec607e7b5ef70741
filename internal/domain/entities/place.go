package entities

import (
	"github.com/routestops/routestops/pkg/geo"
)

// CandidatePlace is a point of interest returned by the places provider,
// before ratings enrichment.
type CandidatePlace struct {
	ExternalID         string        `json:"externalId"`
	Name               string        `json:"name"`
	Location           geo.Location  `json:"location"`
	Category           PlaceCategory `json:"category"`
	RawAddress         string        `json:"rawAddress,omitempty"`
	Website            string        `json:"website,omitempty"`
	DistanceFromOrigin float64       `json:"distanceFromOrigin"`
}

// EnrichedPlace is a CandidatePlace merged with ratings provider data. When
// enrichment fails or finds no match, the ratings fields stay unset and the
// base fields are untouched.
type EnrichedPlace struct {
	CandidatePlace

	RatingsID   string   `json:"ratingsId,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount *uint    `json:"reviewCount,omitempty"`
	PriceLevel  string   `json:"priceLevel,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	PhotoCount  uint     `json:"photoCount"`
}

// RatingValue returns the rating, or 0 when the place is unrated.
func (p *EnrichedPlace) RatingValue() float64 {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}
