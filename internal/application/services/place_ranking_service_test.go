package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/routestops/routestops/internal/domain/entities"
)

func ratedPlace(name string, rating float64, distance float64) entities.EnrichedPlace {
	p := entities.EnrichedPlace{
		CandidatePlace: entities.CandidatePlace{
			ExternalID:         name,
			Name:               name,
			DistanceFromOrigin: distance,
		},
	}
	if rating > 0 {
		r := rating
		p.Rating = &r
	}
	return p
}

func TestRank_HighestRatingFirst(t *testing.T) {
	svc := NewPlaceRankingService()

	ranked := svc.Rank([]entities.EnrichedPlace{
		ratedPlace("mid", 3.5, 1),
		ratedPlace("top", 4.8, 9),
		ratedPlace("low", 2.0, 0.2),
	})

	assert.Equal(t, []string{"top", "mid", "low"}, []string{
		ranked[0].Name, ranked[1].Name, ranked[2].Name,
	})
}

func TestRank_UnratedSortLast(t *testing.T) {
	svc := NewPlaceRankingService()

	ranked := svc.Rank([]entities.EnrichedPlace{
		ratedPlace("unrated", 0, 0.1),
		ratedPlace("rated", 1.5, 50),
	})

	assert.Equal(t, "rated", ranked[0].Name)
	assert.Equal(t, "unrated", ranked[1].Name)
}

func TestRank_TieBreaksOnDistance(t *testing.T) {
	svc := NewPlaceRankingService()

	ranked := svc.Rank([]entities.EnrichedPlace{
		ratedPlace("far", 4.0, 12),
		ratedPlace("near", 4.0, 3),
	})

	assert.Equal(t, "near", ranked[0].Name)
	assert.Equal(t, "far", ranked[1].Name)
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	svc := NewPlaceRankingService()

	input := []entities.EnrichedPlace{
		ratedPlace("b", 1.0, 1),
		ratedPlace("a", 5.0, 1),
	}
	svc.Rank(input)

	assert.Equal(t, "b", input[0].Name)
}

func TestRank_Empty(t *testing.T) {
	svc := NewPlaceRankingService()

	assert.Nil(t, svc.Rank(nil))
}
