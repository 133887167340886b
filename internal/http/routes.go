package httpx

import (
	"log/slog"
	"net/http"

	"github.com/profilewatch/profile-ui-api/internal/service"
)

// RouterServices groups the services the router exposes.
type RouterServices struct {
	Profiles *service.ProfileService // Required
	Tasks    *service.TaskService    // Required
	Events   EventSource             // Optional: the SSE endpoint is omitted when nil
	Logger   *slog.Logger            // Optional
}

// NewRouter builds the API route table and wraps it with the standard
// middleware chain.
func NewRouter(services RouterServices) http.Handler {
	if services.Profiles == nil {
		panic("ProfileService is required")
	}
	if services.Tasks == nil {
		panic("TaskService is required")
	}
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	profileHandlers := &ProfileHandlers{Profiles: services.Profiles, Tasks: services.Tasks}
	mux.HandleFunc("GET /api/profile/{id}/posts", profileHandlers.GetPosts)
	mux.HandleFunc("POST /api/profile/{id}/posts/fetch", profileHandlers.TriggerFetch)

	taskHandlers := &TaskHandlers{Svc: services.Tasks}
	mux.HandleFunc("GET /api/tasks/workers", taskHandlers.Workers)
	mux.HandleFunc("GET /api/tasks/failed", taskHandlers.Failed)
	mux.HandleFunc("GET /api/jobs/{id}", taskHandlers.GetJob)

	if services.Events != nil {
		eventHandlers := NewEventHandlers(EventHandlersOptions{Source: services.Events, Logger: logger})
		mux.HandleFunc("GET /api/events/stream", eventHandlers.Stream)
	}

	var handler http.Handler = mux
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	return handler
}
