package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/routestops/routestops/internal/application/services"
	"github.com/routestops/routestops/internal/domain/providers"
	"github.com/routestops/routestops/internal/infrastructure/observability"
)

// EventsStreamHandler streams search events over Server-Sent Events so a
// dashboard can watch searches as they happen.
type EventsStreamHandler struct {
	eventBus providers.EventBus

	heartbeatInterval time.Duration
}

// NewEventsStreamHandler creates a new events stream handler
func NewEventsStreamHandler(eventBus providers.EventBus) *EventsStreamHandler {
	return &EventsStreamHandler{
		eventBus:          eventBus,
		heartbeatInterval: 30 * time.Second,
	}
}

// StreamSearchEvents handles SSE connections for live search events
// GET /api/analytics/events/stream
func (h *EventsStreamHandler) StreamSearchEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	eventChan, err := h.eventBus.Subscribe(r.Context(), services.SearchEventsChannel)
	if err != nil {
		observability.LoggerFromContext(r.Context()).Error().
			Err(err).
			Msg("Failed to subscribe to search events")
		respondWithError(w, http.StatusInternalServerError, "failed to subscribe to search events")
		return
	}

	h.sendEvent(w, "connected", map[string]interface{}{
		"channel":   services.SearchEventsChannel,
		"timestamp": time.Now(),
	})
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now(),
			})
			flusher.Flush()
		case event, open := <-eventChan:
			if !open {
				return
			}
			if event == nil {
				continue
			}
			h.sendEvent(w, "search", event)
			flusher.Flush()
		}
	}
}

// sendEvent writes a single SSE event to the client
func (h *EventsStreamHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		observability.GetLogger().Warn().
			Err(err).
			Str("event_type", eventType).
			Msg("Failed to marshal stream event")
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}
