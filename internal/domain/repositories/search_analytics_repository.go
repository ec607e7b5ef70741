package repositories

import (
	"context"

	"github.com/routestops/routestops/internal/domain/entities"
)

// SearchAnalyticsRepository persists completed search events.
type SearchAnalyticsRepository interface {
	// LogEvent records a single search event.
	LogEvent(ctx context.Context, event *entities.SearchEvent) error

	// GetZeroResultSearches returns recent searches that produced no places.
	GetZeroResultSearches(ctx context.Context, limit int) ([]*entities.SearchEvent, error)
}
