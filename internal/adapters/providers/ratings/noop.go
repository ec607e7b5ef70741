package ratings

import (
	"context"

	"github.com/routestops/routestops/internal/domain/entities"
)

// NoopProvider returns candidates unchanged. It stands in for the real
// provider when no ratings API key is configured.
type NoopProvider struct{}

func (NoopProvider) Enrich(_ context.Context, candidate entities.CandidatePlace) entities.EnrichedPlace {
	return entities.EnrichedPlace{CandidatePlace: candidate}
}
