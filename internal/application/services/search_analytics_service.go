package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/routestops/routestops/internal/domain/entities"
	"github.com/routestops/routestops/internal/domain/providers"
	"github.com/routestops/routestops/internal/domain/repositories"
)

// SearchEventsChannel is the bus channel search events are published on.
const SearchEventsChannel = "search:events"

// SearchAnalyticsService records completed searches. Recording is best
// effort and never fails the search that produced the event.
type SearchAnalyticsService struct {
	repo repositories.SearchAnalyticsRepository
	bus  providers.EventBus
}

// NewSearchAnalyticsService builds the service. Both the repository and the
// bus may be nil when the deployment runs without them.
func NewSearchAnalyticsService(repo repositories.SearchAnalyticsRepository, bus providers.EventBus) *SearchAnalyticsService {
	return &SearchAnalyticsService{repo: repo, bus: bus}
}

// TrackSearch persists and publishes the event in the background so the
// caller's response is never delayed by analytics.
func (s *SearchAnalyticsService) TrackSearch(ctx context.Context, event *entities.SearchEvent) {
	if event == nil {
		return
	}

	go func() {
		// The request context may already be cancelled by the time this runs.
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if s.repo != nil {
			if err := s.repo.LogEvent(bgCtx, event); err != nil {
				log.Warn().Err(err).Str("event_id", event.ID).Msg("Failed to log search event")
			}
		}

		if s.bus != nil {
			if err := s.bus.Publish(bgCtx, SearchEventsChannel, event); err != nil {
				log.Warn().Err(err).Str("event_id", event.ID).Msg("Failed to publish search event")
			}
		}
	}()
}

// GetZeroResultSearches returns recent searches that found nothing.
func (s *SearchAnalyticsService) GetZeroResultSearches(ctx context.Context, limit int) ([]*entities.SearchEvent, error) {
	if s.repo == nil {
		return nil, nil
	}
	return s.repo.GetZeroResultSearches(ctx, limit)
}
