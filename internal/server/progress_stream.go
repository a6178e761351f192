package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"madfolio/internal/services"
)

// ProgressStreamHandler streams sweep progress over Server-Sent Events.
type ProgressStreamHandler struct {
	service *services.FrontierService
	log     zerolog.Logger
}

// NewProgressStreamHandler creates the SSE progress handler.
func NewProgressStreamHandler(service *services.FrontierService, log zerolog.Logger) *ProgressStreamHandler {
	return &ProgressStreamHandler{
		service: service,
		log:     log.With().Str("component", "progress_stream").Logger(),
	}
}

// ServeHTTP handles GET /api/optimize/stream requests (SSE).
func (h *ProgressStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	events, cancel := h.service.Subscribe()
	defer cancel()

	h.log.Info().Msg("Client connected to progress stream")

	// Keepalive comments stop idle proxies from closing the connection.
	keepalive := time.NewTicker(15 * time.Second)
	defer keepalive.Stop()

	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			h.log.Debug().Msg("Progress stream client disconnected")
			return
		case <-keepalive.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			flusher.Flush()
		case p, open := <-events:
			if !open {
				return
			}
			data, err := json.Marshal(p)
			if err != nil {
				h.log.Error().Err(err).Msg("Failed to encode progress event")
				continue
			}
			fmt.Fprintf(w, "event: progress\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}
