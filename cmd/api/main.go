package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/routestops/routestops/internal/adapters/cache"
	"github.com/routestops/routestops/internal/adapters/database"
	"github.com/routestops/routestops/internal/adapters/events"
	"github.com/routestops/routestops/internal/adapters/providers/geocoding"
	"github.com/routestops/routestops/internal/adapters/providers/places"
	"github.com/routestops/routestops/internal/adapters/providers/ratings"
	"github.com/routestops/routestops/internal/adapters/providers/routing"
	"github.com/routestops/routestops/internal/api/handlers"
	"github.com/routestops/routestops/internal/api/middleware"
	"github.com/routestops/routestops/internal/api/routes"
	"github.com/routestops/routestops/internal/application/services"
	"github.com/routestops/routestops/internal/domain/providers"
	"github.com/routestops/routestops/internal/domain/repositories"
	"github.com/routestops/routestops/internal/infrastructure/clients/postgres"
	"github.com/routestops/routestops/internal/infrastructure/clients/redis"
	"github.com/routestops/routestops/internal/infrastructure/observability"
	"github.com/routestops/routestops/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, os.Getenv("APP_ENV"))

	if cfg.Geoapify.APIKey == "" {
		log.Fatal().Msg("GEOAPIFY_API_KEY is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	// Redis backs the shared cache and event bus. Without it the process
	// falls back to an in-memory cache and skips cross-instance events.
	var (
		cacheProvider providers.CacheProvider
		eventBus      providers.EventBus
	)
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, using in-memory cache")
		cacheProvider = cache.NewMemoryAdapter()
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
		log.Info().Msg("Redis client initialized")
	}

	// Search analytics database is optional
	var analyticsRepo repositories.SearchAnalyticsRepository
	if cfg.Database.Enabled {
		pgClient, err := postgres.NewClient(&cfg.Database)
		if err != nil {
			log.Warn().Err(err).Msg("PostgreSQL unavailable, search analytics disabled")
		} else {
			defer pgClient.Close()
			analyticsRepo = database.NewSearchAnalyticsAdapter(pgClient)
			log.Info().Msg("PostgreSQL client initialized")
		}
	}

	// Provider adapters
	geocoder := geocoding.NewGeoapifyGeocoder(cfg.Geoapify.APIKey, cacheProvider)
	routeProvider := routing.NewGeoapifyRouteProvider(cfg.Geoapify.APIKey)
	placesProvider := places.NewGeoapifyPlacesProvider(cfg.Geoapify.APIKey)

	var ratingsClient *ratings.TripAdvisorProvider
	var ratingsProvider providers.RatingsProvider
	if cfg.TripAdvisor.APIKey != "" {
		ratingsClient = ratings.NewTripAdvisorProviderWithOptions(cfg.TripAdvisor.APIKey, cacheProvider, cfg.TripAdvisor.BaseURL, nil)
		ratingsProvider = ratingsClient
	} else {
		log.Warn().Msg("TRIPADVISOR_API_KEY not set, places will not be enriched with ratings")
		ratingsProvider = ratings.NoopProvider{}
	}

	// Application services
	analyticsService := services.NewSearchAnalyticsService(analyticsRepo, eventBus)
	searchService := services.NewSearchService(
		geocoder,
		routeProvider,
		placesProvider,
		ratingsProvider,
		services.NewPlaceRankingService(),
		analyticsService,
		metrics,
		cfg.Search.MaxResults,
		time.Duration(cfg.Search.EnrichmentDelayMs)*time.Millisecond,
	)

	// HTTP handlers
	searchHandler := handlers.NewSearchHandler(searchService)
	geocodeHandler := handlers.NewGeocodeHandler(geocoder)

	var relayHandler *handlers.RatingsRelayHandler
	if ratingsClient != nil {
		relayHandler = handlers.NewRatingsRelayHandler(ratingsClient)
	} else {
		relayHandler = handlers.NewRatingsRelayHandler(nil)
	}

	cacheMiddleware := middleware.NewCacheMiddleware(cacheProvider, metrics)

	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)

	var eventsStreamHandler *handlers.EventsStreamHandler
	if eventBus != nil {
		eventsStreamHandler = handlers.NewEventsStreamHandler(eventBus)
	}

	router := routes.NewRouter(
		searchHandler,
		geocodeHandler,
		relayHandler,
		analyticsHandler,
		eventsStreamHandler,
		cacheMiddleware,
		metrics,
	)
	handler := router.SetupRoutes()

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing event bus")
		}
	}

	log.Info().Msg("Server stopped")
}
