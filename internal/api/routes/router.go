package routes

import (
	"net/http"

	"github.com/routestops/routestops/internal/api/handlers"
	"github.com/routestops/routestops/internal/api/middleware"
	"github.com/routestops/routestops/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	searchHandler       *handlers.SearchHandler
	geocodeHandler      *handlers.GeocodeHandler
	ratingsRelayHandler *handlers.RatingsRelayHandler
	analyticsHandler    *handlers.AnalyticsHandler
	eventsStreamHandler *handlers.EventsStreamHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	searchHandler *handlers.SearchHandler,
	geocodeHandler *handlers.GeocodeHandler,
	ratingsRelayHandler *handlers.RatingsRelayHandler,
	analyticsHandler *handlers.AnalyticsHandler,
	eventsStreamHandler *handlers.EventsStreamHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:                 http.NewServeMux(),
		searchHandler:       searchHandler,
		geocodeHandler:      geocodeHandler,
		ratingsRelayHandler: ratingsRelayHandler,
		analyticsHandler:    analyticsHandler,
		eventsStreamHandler: eventsStreamHandler,
		cacheMiddleware:     cacheMiddleware,
		metrics:             metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Search endpoints
	r.mux.HandleFunc("GET /api/search/route", r.searchHandler.SearchAlongRoute)
	r.mux.HandleFunc("GET /api/search/meetup", r.searchHandler.SearchMeetup)

	// Geolocation endpoints
	r.mux.HandleFunc("GET /api/geocode", r.geocodeHandler.Geocode)

	// Analytics endpoints
	r.mux.HandleFunc("GET /api/analytics/zero-result-searches", r.analyticsHandler.GetZeroResultSearches)

	// Live event stream is only available when an event bus is wired
	if r.eventsStreamHandler != nil {
		r.mux.HandleFunc("GET /api/analytics/events/stream", r.eventsStreamHandler.StreamSearchEvents)
	}

	// Ratings relay; the handler does its own method dispatch so browsers
	// can preflight it with OPTIONS.
	r.mux.HandleFunc("/api/ratings-proxy", r.ratingsRelayHandler.Relay)

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(handler)

	return handler
}
