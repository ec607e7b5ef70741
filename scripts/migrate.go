package main

import (
	"context"
	"log"
	"os"

	"github.com/routestops/routestops/internal/infrastructure/clients/postgres"
	"github.com/routestops/routestops/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	ctx := context.Background()

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, dropping search_events before migrating")
		if _, err := pgClient.DB().ExecContext(ctx, `DROP TABLE IF EXISTS search_events`); err != nil {
			log.Fatalf("Failed to drop search_events: %v", err)
		}
	}

	_, err = pgClient.DB().ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS search_events (
			id           UUID PRIMARY KEY,
			mode         TEXT NOT NULL,
			category     TEXT NOT NULL,
			origin       TEXT NOT NULL,
			destination  TEXT NOT NULL,
			result_count INTEGER NOT NULL,
			latency_ms   BIGINT NOT NULL,
			failed       BOOLEAN NOT NULL DEFAULT FALSE,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		log.Fatalf("Failed to create search_events: %v", err)
	}

	_, err = pgClient.DB().ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_search_events_created_at
			ON search_events (created_at DESC)
	`)
	if err != nil {
		log.Fatalf("Failed to create index: %v", err)
	}

	log.Println("Migration complete")
}
