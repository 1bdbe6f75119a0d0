package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/attest-network/attest/internal/domain"
)

// EventHub fans protocol events out to connected SSE clients. It
// implements domain.EventSink, so the protocol components can emit into
// it without knowing about HTTP.
type EventHub struct {
	mu      sync.Mutex
	clients map[chan domain.Event]struct{}
}

// NewEventHub creates an event hub.
func NewEventHub() *EventHub {
	return &EventHub{clients: make(map[chan domain.Event]struct{})}
}

// Emit broadcasts an event to all connected clients. Slow clients drop
// events rather than block the protocol path.
func (h *EventHub) Emit(e domain.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- e:
		default:
		}
	}
}

func (h *EventHub) subscribe() chan domain.Event {
	ch := make(chan domain.Event, 16)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *EventHub) unsubscribe(ch chan domain.Event) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
}

// HandleEventsSSE streams protocol events as server-sent events.
func (h *EventHub) HandleEventsSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ch := h.subscribe()
	defer h.unsubscribe(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case e := <-ch:
			payload, err := json.Marshal(e)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, payload)
			flusher.Flush()
		}
	}
}
