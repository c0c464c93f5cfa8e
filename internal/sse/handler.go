package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ms-bookings/internal/logger"
)

var kinds = map[string]bool{"": true, "ticket": true, "flight": true, "user": true}

type Handler struct {
	Emitter *Emitter
	Logger  *logger.Logger
}

func NewHandler(emitter *Emitter, log *logger.Logger) *Handler {
	return &Handler{Emitter: emitter, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/events/stream", h.Stream)
}

// Stream sends events until the client disconnects. ?kind=ticket|flight|user
// narrows the stream.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	if !kinds[kind] {
		http.Error(w, "kind must be one of ticket, flight, user", http.StatusBadRequest)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	// Streams outlive the server's write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	ctx := r.Context()
	stream := h.Emitter.Subscribe(ctx, kind)

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"kind\":%q}\n\n", kind)
	flusher.Flush()
	h.Logger.Info("SSE", fmt.Sprintf("Client connected to %q events", kind))

	for {
		select {
		case event, ok := <-stream:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize %s event: %v", event.Type, err))
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
			flusher.Flush()
		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("Client disconnected from %q events", kind))
			return
		}
	}
}
