package database

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/routestops/routestops/internal/domain/entities"
	"github.com/routestops/routestops/internal/domain/repositories"
	"github.com/routestops/routestops/internal/infrastructure/clients/postgres"
	apperrors "github.com/routestops/routestops/pkg/errors"
)

type SearchAnalyticsAdapter struct {
	client *postgres.Client
}

func NewSearchAnalyticsAdapter(client *postgres.Client) repositories.SearchAnalyticsRepository {
	return &SearchAnalyticsAdapter{client: client}
}

func (a *SearchAnalyticsAdapter) LogEvent(ctx context.Context, event *entities.SearchEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO search_events
		(id, mode, category, origin, destination, result_count, latency_ms, failed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := a.client.DB().ExecContext(ctx, query,
		event.ID,
		string(event.Mode),
		event.Category,
		event.Origin,
		event.Destination,
		event.ResultCount,
		event.LatencyMs,
		event.Failed,
		event.CreatedAt,
	)

	if err != nil {
		return apperrors.NewInternalError("failed to log search event", err)
	}

	return nil
}

func (a *SearchAnalyticsAdapter) GetZeroResultSearches(ctx context.Context, limit int) ([]*entities.SearchEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, mode, category, origin, destination, result_count, latency_ms, failed, created_at
		FROM search_events
		WHERE result_count = 0 AND failed = FALSE
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := a.client.DB().QueryContext(ctx, query, limit)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get zero result searches", err)
	}
	defer rows.Close()

	var events []*entities.SearchEvent
	for rows.Next() {
		e := &entities.SearchEvent{}
		var mode string
		err := rows.Scan(
			&e.ID,
			&mode,
			&e.Category,
			&e.Origin,
			&e.Destination,
			&e.ResultCount,
			&e.LatencyMs,
			&e.Failed,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan search event", err)
		}
		e.Mode = entities.SearchMode(mode)
		events = append(events, e)
	}

	return events, nil
}
