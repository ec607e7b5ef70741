package services

import (
	"sort"

	"github.com/routestops/routestops/internal/domain/entities"
)

// PlaceRankingService orders enriched places for presentation.
type PlaceRankingService struct{}

func NewPlaceRankingService() *PlaceRankingService {
	return &PlaceRankingService{}
}

// Rank sorts places by rating, highest first. Unrated places sort as zero.
// Ties break toward the place closest to the trip origin, and the sort is
// stable so provider order decides beyond that.
func (s *PlaceRankingService) Rank(places []entities.EnrichedPlace) []entities.EnrichedPlace {
	if len(places) == 0 {
		return nil
	}

	ranked := make([]entities.EnrichedPlace, len(places))
	copy(ranked, places)

	sort.SliceStable(ranked, func(i, j int) bool {
		ri, rj := ranked[i].RatingValue(), ranked[j].RatingValue()
		if ri != rj {
			return ri > rj
		}
		return ranked[i].DistanceFromOrigin < ranked[j].DistanceFromOrigin
	})

	return ranked
}
