package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/profilewatch/profile-ui-api/internal/domain/model"
	"github.com/profilewatch/profile-ui-api/internal/events"
	"github.com/profilewatch/profile-ui-api/internal/stream"
)

// keepAliveInterval is how often an SSE comment is written to an idle stream
// so proxies don't reap the connection.
const keepAliveInterval = 25 * time.Second

// EventSubscription yields decoded push events until closed.
type EventSubscription interface {
	PostsEvents() <-chan model.PostsChangedEvent
	WorkerEvents() <-chan model.WorkerEvent
	Close() error
}

// EventSource opens event subscriptions for streaming handlers.
type EventSource interface {
	Subscribe(ctx context.Context) (EventSubscription, error)
}

// BusEventSource adapts an events.Bus to the EventSource interface.
type BusEventSource struct {
	Bus *events.Bus
}

// Subscribe opens a subscription on the underlying bus.
func (s BusEventSource) Subscribe(ctx context.Context) (EventSubscription, error) {
	sub, err := s.Bus.Subscribe(ctx)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// EventHandlersOptions groups dependencies for EventHandlers.
type EventHandlersOptions struct {
	Source EventSource  // Required
	Logger *slog.Logger // Optional
}

// EventHandlers streams push events to clients over server-sent events.
type EventHandlers struct {
	source EventSource
	logger *slog.Logger
}

// NewEventHandlers constructs an EventHandlers.
func NewEventHandlers(opts EventHandlersOptions) *EventHandlers {
	if opts.Source == nil {
		panic("EventSource is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &EventHandlers{
		source: opts.Source,
		logger: logger.With("component", "event_stream"),
	}
}

// Stream serves the SSE feed: posts_changed and worker_status events as JSON
// payloads, with periodic keep-alive comments. The stream runs until the
// client disconnects or the subscription closes.
func (h *EventHandlers) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sub, err := h.source.Subscribe(r.Context())
	if err != nil {
		WriteAppError(w, err)
		return
	}
	defer func() {
		if cerr := sub.Close(); cerr != nil {
			h.logger.Warn("close event subscription", "error", cerr)
		}
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev, ok := <-sub.PostsEvents():
			if !ok {
				return
			}
			if !h.writeEvent(w, flusher, stream.EventPostsChanged, ev) {
				return
			}
		case ev, ok := <-sub.WorkerEvents():
			if !ok {
				return
			}
			if !h.writeEvent(w, flusher, stream.EventWorkerStatus, ev) {
				return
			}
		}
	}
}

func (h *EventHandlers) writeEvent(w http.ResponseWriter, flusher http.Flusher, name string, payload any) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("marshal push event", "event", name, "error", err)
		return true
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data); err != nil {
		return false
	}
	flusher.Flush()
	return true
}
